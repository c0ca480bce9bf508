package ports

import (
	"context"

	"github.com/aretw0/chatflow/pkg/graph"
)

// GraphSource yields the graph the interpreter resolves against.
// The returned graph may change between calls when the source is hot-reloaded.
type GraphSource interface {
	Graph() *graph.Graph
}

// ReloadableSource is a GraphSource that external tooling can swap.
type ReloadableSource interface {
	GraphSource
	Replace(g *graph.Graph) *graph.Graph
}

// Watchable is implemented by sources that reload themselves on change.
// Watch runs in the background until ctx is done. Reload failures are reported on the
// returned channel and leave the previous graph in place.
type Watchable interface {
	Watch(ctx context.Context) (<-chan error, error)
}
