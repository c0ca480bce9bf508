package runtime_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/chatflow/internal/runtime"
	"github.com/aretw0/chatflow/internal/testutils"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/graph"
)

type hookLog struct {
	mu     sync.Mutex
	events []string
}

func (l *hookLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, s)
}

func (l *hookLog) hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSessionStart: func(_ context.Context, e *domain.SessionEvent) { l.add("start") },
		OnNodeEnter:    func(_ context.Context, e *domain.NodeEvent) { l.add("enter:" + e.NodeID) },
		OnInvalidChoice: func(_ context.Context, e *domain.InputEvent) {
			l.add("invalid:" + e.Input)
		},
		OnInertInput: func(_ context.Context, e *domain.InputEvent) { l.add("inert:" + e.Input) },
		OnTerminate: func(_ context.Context, e *domain.SessionEvent) {
			l.add("terminate:" + e.NodeID + ":" + string(e.Reason))
		},
	}
}

func TestEngine_LifecycleHooks(t *testing.T) {
	log := &hookLog{}
	f := newFixture(t, nil, runtime.WithLifecycleHooks(log.hooks()))
	ctx := context.Background()

	_, err := f.engine.Start(ctx, "h")
	require.NoError(t, err)
	_, err = f.engine.HandleInput(ctx, "h", "x")
	require.NoError(t, err)
	_, err = f.engine.HandleInput(ctx, "h", "1")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"start",
		"enter:hello",
		"enter:menu",
		"invalid:x",
		"enter:thanks",
		"terminate:thanks:finalized",
	}, log.events)
}

func TestEngine_HooksMerge(t *testing.T) {
	var a, b int
	f := newFixture(t, nil,
		runtime.WithLifecycleHooks(domain.LifecycleHooks{OnNodeEnter: func(context.Context, *domain.NodeEvent) { a++ }}),
		runtime.WithLifecycleHooks(domain.LifecycleHooks{OnNodeEnter: func(context.Context, *domain.NodeEvent) { b++ }}),
	)
	_, err := f.engine.Start(context.Background(), "m")
	require.NoError(t, err)
	assert.Equal(t, 2, a)
	assert.Equal(t, 2, b)
}

func TestEngine_UnresolvedBranches(t *testing.T) {
	ctx := context.Background()

	t.Run("Edge Back To Start", func(t *testing.T) {
		g := graph.MustLoad(graph.Document{
			Nodes: []domain.Node{
				{ID: "start", Kind: domain.KindStart},
				{ID: "hi", Kind: domain.KindSendMessage, Text: "hi"},
			},
			Edges: []domain.Edge{
				{Source: "start", Target: "hi"},
				{Source: "hi", Target: "start"},
			},
		})
		log := &hookLog{}
		f := newFixture(t, g, runtime.WithLifecycleHooks(log.hooks()))

		res, err := f.engine.Start(ctx, "u")
		require.NoError(t, err)
		assert.Equal(t, []string{"hi"}, texts(res))
		assert.Equal(t, domain.StatusTerminated, res.Session.Status())
		assert.Contains(t, log.events, "terminate:hi:unresolved")
	})

	t.Run("Choice Without Edge", func(t *testing.T) {
		g := graph.MustLoad(graph.Document{
			Nodes: []domain.Node{
				{ID: "start", Kind: domain.KindStart},
				{ID: "menu", Kind: domain.KindOptions, Prompt: "?", Choices: []domain.Choice{{Label: "a"}, {Label: "b"}}},
			},
			Edges: []domain.Edge{{Source: "start", Target: "menu"}},
		})
		log := &hookLog{}
		f := newFixture(t, g, runtime.WithLifecycleHooks(log.hooks()))

		_, err := f.engine.Start(ctx, "u")
		require.NoError(t, err)
		res, err := f.engine.HandleInput(ctx, "u", "2")
		require.NoError(t, err)
		assert.Empty(t, res.Messages)
		assert.Equal(t, domain.StatusTerminated, res.Session.Status())
		assert.Contains(t, log.events, "terminate:menu:unresolved")
	})

	t.Run("Send Message Without Continuation", func(t *testing.T) {
		g := graph.MustLoad(graph.Document{
			Nodes: []domain.Node{
				{ID: "start", Kind: domain.KindStart},
				{ID: "bye", Kind: domain.KindSendMessage, Text: "bye"},
			},
			Edges: []domain.Edge{{Source: "start", Target: "bye"}},
		})
		log := &hookLog{}
		f := newFixture(t, g, runtime.WithLifecycleHooks(log.hooks()))

		res, err := f.engine.Start(ctx, "u")
		require.NoError(t, err)
		assert.Equal(t, []string{"bye"}, texts(res))
		assert.Contains(t, log.events, "terminate:bye:branch_end")
	})

	t.Run("Message Loop Is Cut", func(t *testing.T) {
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
		log := &hookLog{}
		f := newFixture(t, g, runtime.WithLifecycleHooks(log.hooks()))

		res, err := f.engine.Start(ctx, "u")
		require.NoError(t, err)
		assert.Equal(t, []string{"ping", "pong"}, texts(res))
		assert.Contains(t, log.events, "terminate:pong:unresolved")
	})

	t.Run("Lonely Start", func(t *testing.T) {
		g := graph.MustLoad(graph.Document{Nodes: []domain.Node{{ID: "start", Kind: domain.KindStart}}})
		f := newFixture(t, g)

		res, err := f.engine.Start(ctx, "u")
		require.NoError(t, err)
		assert.Empty(t, res.Messages)
		assert.Equal(t, domain.StatusTerminated, res.Session.Status())
	})
}

func TestEngine_HotReloadMidConversation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, err := f.engine.Start(ctx, "r")
	require.NoError(t, err)

	doc := testutils.ScenarioDocument()
	doc.Nodes = append(doc.Nodes, domain.Node{ID: "later", Kind: domain.KindFinalize, Text: "Até mais tarde!"})
	doc.Edges[3] = domain.ChoiceEdge("menu", "later", 2)
	f.source.Replace(graph.MustLoad(doc))

	res, err := f.engine.HandleInput(ctx, "r", "2")
	require.NoError(t, err)
	assert.Equal(t, []string{"Até mais tarde!"}, texts(res), "resolution uses the current graph")
}
