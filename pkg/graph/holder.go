package graph

import "sync/atomic"

// Holder keeps the current graph and lets it be swapped at runtime.
// Readers always see a complete, validated graph.
type Holder struct {
	current atomic.Pointer[Graph]
}

// NewHolder creates a holder seeded with g (which may be nil).
func NewHolder(g *Graph) *Holder {
	h := &Holder{}
	if g != nil {
		h.current.Store(g)
	}
	return h
}

// Graph returns the current graph, or nil if none was stored.
func (h *Holder) Graph() *Graph {
	return h.current.Load()
}

// Replace swaps in a new graph and returns the previous one.
func (h *Holder) Replace(g *Graph) *Graph {
	return h.current.Swap(g)
}
