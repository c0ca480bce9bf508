package dsl

import (
	"fmt"

	"github.com/aretw0/chatflow/pkg/adapters/memory"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/graph"
)

// Builder manages the graph construction.
// Nodes keep the order in which they were first added.
type Builder struct {
	order []string
	nodes map[string]*NodeBuilder
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a new node in the graph.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node: domain.Node{ID: id},
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Start adds the entry node.
func (b *Builder) Start(id string) *NodeBuilder {
	nb := b.Add(id)
	nb.node.Kind = domain.KindStart
	return nb
}

// Document returns the nodes and edges built so far without validating them.
func (b *Builder) Document() graph.Document {
	var doc graph.Document
	for _, id := range b.order {
		nb := b.nodes[id]
		doc.Nodes = append(doc.Nodes, nb.Node())
		doc.Edges = append(doc.Edges, nb.edges...)
	}
	return doc
}

// Build validates the graph and wraps it in a reloadable in-memory source.
func (b *Builder) Build() (*memory.Source, error) {
	src, err := memory.NewSource(b.Document())
	if err != nil {
		return nil, fmt.Errorf("failed to build graph: %w", err)
	}
	return src, nil
}
