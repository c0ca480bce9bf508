package memory

import (
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/graph"
)

// Source is an in-memory, reloadable graph source.
// It is the natural choice for embedding flows built in code and for tests.
type Source struct {
	*graph.Holder
}

// NewSource validates the given document and wraps it.
func NewSource(doc graph.Document) (*Source, error) {
	g, err := graph.Load(doc)
	if err != nil {
		return nil, err
	}
	return &Source{Holder: graph.NewHolder(g)}, nil
}

// NewFromNodes builds a source from nodes and edges.
// This is a convenience for tests and examples.
func NewFromNodes(nodes []domain.Node, edges ...domain.Edge) (*Source, error) {
	return NewSource(graph.Document{Nodes: nodes, Edges: edges})
}

// FromGraph wraps an already loaded graph.
func FromGraph(g *graph.Graph) *Source {
	return &Source{Holder: graph.NewHolder(g)}
}
