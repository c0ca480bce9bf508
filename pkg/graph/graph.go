package graph

import (
	"fmt"

	"github.com/aretw0/chatflow/pkg/domain"
)

// Document is the canonical nodes-and-edges shape of a flow.
type Document struct {
	Nodes []domain.Node `json:"nodes" yaml:"nodes"`
	Edges []domain.Edge `json:"edges" yaml:"edges"`
}

// Graph is a validated, read-only flow definition.
type Graph struct {
	nodes   map[string]*domain.Node
	order   []string
	edges   []domain.Edge
	out     map[string][]domain.Edge
	startID string
}

// Load validates doc and builds the indexed graph.
// It fails with a *FormatError listing every violated invariant.
func Load(doc Document) (*Graph, error) {
	g := &Graph{
		nodes: make(map[string]*domain.Node, len(doc.Nodes)),
		order: make([]string, 0, len(doc.Nodes)),
		out:   make(map[string][]domain.Edge),
	}
	var issues []Issue

	starts := 0
	for i := range doc.Nodes {
		n := doc.Nodes[i]
		if n.ID == "" {
			issues = append(issues, Issue{Code: IssueEmptyID, Reason: fmt.Sprintf("node #%d has no id", i)})
			continue
		}
		if _, dup := g.nodes[n.ID]; dup {
			issues = append(issues, Issue{Code: IssueDuplicateID, NodeID: n.ID, Reason: "id declared more than once"})
			continue
		}
		if !n.Kind.Valid() {
			issues = append(issues, Issue{Code: IssueUnknownKind, NodeID: n.ID, Reason: fmt.Sprintf("unknown kind %q", n.Kind)})
		}
		if n.Kind == domain.KindStart {
			starts++
			g.startID = n.ID
		}
		g.nodes[n.ID] = n.Clone()
		g.order = append(g.order, n.ID)
	}

	if starts != 1 {
		issues = append(issues, Issue{Code: IssueStartCount, Reason: fmt.Sprintf("expected exactly one start node, found %d", starts)})
	}

	linear := make(map[string]int)
	indexed := make(map[string]map[int]bool)
	for _, e := range doc.Edges {
		src, srcOK := g.nodes[e.Source]
		if !srcOK {
			issues = append(issues, Issue{Code: IssueMissingEndpoint, NodeID: e.Source, Reason: fmt.Sprintf("edge source %q does not exist", e.Source)})
		}
		if _, ok := g.nodes[e.Target]; !ok {
			issues = append(issues, Issue{Code: IssueMissingEndpoint, NodeID: e.Source, Reason: fmt.Sprintf("edge target %q does not exist", e.Target)})
		}
		if !srcOK {
			continue
		}

		switch {
		case e.ChoiceIndex != nil && src.Kind == domain.KindOptions:
			seen := indexed[e.Source]
			if seen == nil {
				seen = make(map[int]bool)
				indexed[e.Source] = seen
			}
			if seen[*e.ChoiceIndex] {
				issues = append(issues, Issue{Code: IssueDuplicateChoice, NodeID: e.Source, Reason: fmt.Sprintf("choice %d has more than one edge", *e.ChoiceIndex)})
				continue
			}
			seen[*e.ChoiceIndex] = true
		case e.ChoiceIndex != nil:
			issues = append(issues, Issue{Code: IssueIndexedLinear, NodeID: e.Source, Reason: fmt.Sprintf("%s node cannot carry a choice index", src.Kind)})
			continue
		default:
			linear[e.Source]++
			if linear[e.Source] == 2 && src.Kind != domain.KindOptions {
				issues = append(issues, Issue{Code: IssueLinearFanOut, NodeID: e.Source, Reason: "more than one continuation edge"})
			}
		}

		edge := e.Clone()
		g.edges = append(g.edges, edge)
		g.out[e.Source] = append(g.out[e.Source], edge)
	}

	if len(issues) > 0 {
		return nil, &FormatError{Issues: issues}
	}
	return g, nil
}

// MustLoad is like Load but panics on error. Intended for tests and static fixtures.
func MustLoad(doc Document) *Graph {
	g, err := Load(doc)
	if err != nil {
		panic(err)
	}
	return g
}

// A Graph never hands out its own nodes or edges. Every accessor returns copies,
// so callers cannot change a loaded graph.

// Start returns the single start node.
func (g *Graph) Start() *domain.Node {
	return g.nodes[g.startID].Clone()
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *domain.Node {
	return g.nodes[id].Clone()
}

// Nodes returns the nodes in document order.
func (g *Graph) Nodes() []*domain.Node {
	out := make([]*domain.Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id].Clone())
	}
	return out
}

// Edges returns every edge in document order.
func (g *Graph) Edges() []domain.Edge {
	return cloneEdges(g.edges)
}

// Outgoing returns the edges leaving a node.
func (g *Graph) Outgoing(id string) []domain.Edge {
	return cloneEdges(g.out[id])
}

func cloneEdges(edges []domain.Edge) []domain.Edge {
	out := make([]domain.Edge, len(edges))
	for i, e := range edges {
		out[i] = e.Clone()
	}
	return out
}

// Len returns the node count.
func (g *Graph) Len() int {
	return len(g.order)
}

// Document returns the canonical document the graph was built from.
func (g *Graph) Document() Document {
	doc := Document{
		Nodes: make([]domain.Node, 0, len(g.order)),
		Edges: g.Edges(),
	}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, *n)
	}
	return doc
}
