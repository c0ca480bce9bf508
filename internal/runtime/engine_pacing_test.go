package runtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/chatflow/internal/runtime"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/graph"
)

func chainGraph() *graph.Graph {
	return graph.MustLoad(graph.Document{
		Nodes: []domain.Node{
			{ID: "start", Kind: domain.KindStart},
			{ID: "one", Kind: domain.KindSendMessage, Text: "one"},
			{ID: "two", Kind: domain.KindSendMessage, Text: "two"},
			{ID: "menu", Kind: domain.KindOptions, Prompt: "?", Choices: []domain.Choice{{Label: "ok"}}},
		},
		Edges: []domain.Edge{
			{Source: "start", Target: "one"},
			{Source: "one", Target: "two"},
			{Source: "two", Target: "menu"},
		},
	})
}

func TestEngine_Pacing(t *testing.T) {
	sched := &manualScheduler{}
	f := newFixture(t, chainGraph(), runtime.WithPacing(300*time.Millisecond), runtime.WithScheduler(sched))
	ctx := context.Background()

	res, err := f.engine.Start(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, texts(res), "the call returns after the first message")
	assert.Equal(t, domain.StatusAdvancing, res.Session.Status())
	assert.Equal(t, []time.Duration{300 * time.Millisecond}, sched.delays)

	t.Run("Input While Advancing Is Inert", func(t *testing.T) {
		res, err := f.engine.HandleInput(ctx, "p", "1")
		require.NoError(t, err)
		assert.Empty(t, res.Messages)
		assert.Equal(t, "one", res.Session.CurrentNodeID)
	})

	t.Run("Start While Pending Is A No-Op", func(t *testing.T) {
		res, err := f.engine.Start(ctx, "p")
		require.NoError(t, err)
		assert.Empty(t, res.Messages)
	})

	assert.Equal(t, 1, sched.Fire())
	assert.Equal(t, []string{"one", "two"}, f.out.texts())

	assert.Equal(t, 1, sched.Fire())
	assert.Equal(t, []string{"one", "two", "?\n1. ok"}, f.out.texts())
	assert.Equal(t, 0, sched.Fire())
	f.engine.Wait()

	s, err := f.engine.Session(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAwaiting, s.Status())
}

func TestEngine_PacingStaleContinuation(t *testing.T) {
	sched := &manualScheduler{}
	f := newFixture(t, chainGraph(), runtime.WithPacing(time.Second), runtime.WithScheduler(sched))
	ctx := context.Background()

	_, err := f.engine.Start(ctx, "p")
	require.NoError(t, err)
	_, err = f.engine.Reset(ctx, "p")
	require.NoError(t, err)

	// Two continuations leave "one"; only the first may advance the session.
	assert.Equal(t, 2, sched.Fire())
	assert.Equal(t, []string{"one", "one", "two"}, f.out.texts())

	assert.Equal(t, 1, sched.Fire())
	assert.Equal(t, []string{"one", "one", "two", "?\n1. ok"}, f.out.texts())
}

func TestEngine_PacingResumesAfterRestart(t *testing.T) {
	sched := &manualScheduler{}
	f := newFixture(t, chainGraph(), runtime.WithPacing(time.Second), runtime.WithScheduler(sched))
	ctx := context.Background()

	_, err := f.engine.Start(ctx, "p")
	require.NoError(t, err)

	// The process dies with the timer pending. A new engine picks the chain up on Start.
	restarted := f.newEngine(f.store)
	res, err := restarted.Start(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, []string{"two", "?\n1. ok"}, texts(res))
}

func TestEngine_PacingWithRealTimer(t *testing.T) {
	f := newFixture(t, chainGraph(), runtime.WithPacing(time.Millisecond))
	ctx := context.Background()

	_, err := f.engine.Start(ctx, "p")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(f.out.texts()) == 3
	}, 2*time.Second, 5*time.Millisecond)
	f.engine.Wait()
}

func TestEngine_PacedMessageLoopIsCut(t *testing.T) {
	g := graph.MustLoad(graph.Document{
		Nodes: []domain.Node{
			{ID: "start", Kind: domain.KindStart},
			{ID: "ping", Kind: domain.KindSendMessage, Text: "ping"},
			{ID: "pong", Kind: domain.KindSendMessage, Text: "pong"},
		},
		Edges: []domain.Edge{
			{Source: "start", Target: "ping"},
			{Source: "ping", Target: "pong"},
			{Source: "pong", Target: "ping"},
		},
	})
	sched := &manualScheduler{}
	log := &hookLog{}
	f := newFixture(t, g,
		runtime.WithPacing(time.Second),
		runtime.WithScheduler(sched),
		runtime.WithLifecycleHooks(log.hooks()),
	)
	ctx := context.Background()

	_, err := f.engine.Start(ctx, "p")
	require.NoError(t, err)

	assert.Equal(t, 1, sched.Fire())
	assert.Equal(t, 1, sched.Fire())
	assert.Equal(t, 0, sched.Fire(), "the chain stops instead of queueing forever")
	f.engine.Wait()

	assert.Equal(t, []string{"ping", "pong"}, f.out.texts())
	assert.Contains(t, log.events, "terminate:pong:unresolved")

	s, err := f.engine.Session(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTerminated, s.Status())
}
