package runtime_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/chatflow/internal/runtime"
	"github.com/aretw0/chatflow/internal/testutils"
	"github.com/aretw0/chatflow/pkg/adapters/memory"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/graph"
	"github.com/aretw0/chatflow/pkg/ports"
	"github.com/aretw0/chatflow/pkg/session"
)

// recorder is an emitter that keeps everything it is given.
type recorder struct {
	mu   sync.Mutex
	msgs []domain.Message
}

func (r *recorder) Emit(_ context.Context, msg domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recorder) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.msgs))
	for _, m := range r.msgs {
		out = append(out, m.Text)
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = nil
}

// manualScheduler queues paced continuations until Fire is called.
type manualScheduler struct {
	mu     sync.Mutex
	fns    []func()
	delays []time.Duration
}

func (m *manualScheduler) AfterFunc(d time.Duration, f func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fns = append(m.fns, f)
	m.delays = append(m.delays, d)
}

// Fire runs every queued callback and reports how many ran.
func (m *manualScheduler) Fire() int {
	m.mu.Lock()
	fns := m.fns
	m.fns = nil
	m.mu.Unlock()
	for _, f := range fns {
		f()
	}
	return len(fns)
}

type fixture struct {
	engine *runtime.Engine
	store  *memory.Store
	source *memory.Source
	out    *recorder
}

func newFixture(t *testing.T, g *graph.Graph, opts ...runtime.Option) *fixture {
	t.Helper()
	if g == nil {
		g = testutils.ScenarioGraph(t)
	}
	f := &fixture{
		store:  memory.NewStore(),
		source: memory.FromGraph(g),
		out:    &recorder{},
	}
	f.engine = f.newEngine(f.store, opts...)
	return f
}

// newEngine builds another engine over the same graph and emitter, as after a restart.
func (f *fixture) newEngine(store ports.SessionStore, opts ...runtime.Option) *runtime.Engine {
	opts = append([]runtime.Option{runtime.WithEmitter(f.out)}, opts...)
	return runtime.NewEngine(f.source, session.NewManager(store), opts...)
}

func texts(res *domain.StepResult) []string {
	out := make([]string, 0, len(res.Messages))
	for _, m := range res.Messages {
		out = append(out, m.Text)
	}
	return out
}

const menuPrompt = "Escolha:\n1. Vendas\n2. Suporte"
