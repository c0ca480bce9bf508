package domain

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNodeKind(t *testing.T) {
	cases := map[string]NodeKind{
		"start":        KindStart,
		"sendMessage":  KindSendMessage,
		"send_message": KindSendMessage,
		"Send-Message": KindSendMessage,
		"OPTIONS":      KindOptions,
		"finalize":     KindFinalize,
	}
	for in, want := range cases {
		got, err := ParseNodeKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseNodeKind("webhook")
	assert.Error(t, err)
}

func TestMatchChoice(t *testing.T) {
	choices := []Choice{{Label: "Vendas"}, {Label: "Suporte"}}

	pos, ok := MatchChoice(choices, " 2 ")
	assert.True(t, ok)
	assert.Equal(t, 2, pos)

	for _, bad := range []string{"9", "0", "", "dois", "1.5", "Vendas"} {
		_, ok := MatchChoice(choices, bad)
		assert.False(t, ok, "input %q should not match", bad)
	}
}

func TestMatchChoice_Digits(t *testing.T) {
	choices := []Choice{{Label: "Sair", Digit: "0"}, {Label: "Falar com atendente", Digit: "9"}}

	pos, ok := MatchChoice(choices, "9")
	assert.True(t, ok)
	assert.Equal(t, 2, pos)

	// Positions are not keys once digits are set.
	_, ok = MatchChoice(choices, "1")
	assert.False(t, ok)
}

func TestRenderChoices(t *testing.T) {
	got := RenderChoices("Escolha:", []Choice{{Label: "Vendas"}, {Label: "Suporte", Digit: "7"}})
	assert.Equal(t, "Escolha:\n1. Vendas\n7. Suporte", got)
}

func TestSession_Lifecycle(t *testing.T) {
	s := NewSession("abc")
	assert.Equal(t, StatusIdle, s.Status())

	s.Advance("hello")
	assert.Equal(t, StatusAdvancing, s.Status())

	s.Await(&Node{ID: "menu", Kind: KindOptions, Prompt: "Escolha:", Choices: []Choice{{Label: "A"}}})
	assert.Equal(t, StatusAwaiting, s.Status())
	assert.Equal(t, "Escolha:", s.ActivePrompt)
	assert.Len(t, s.ActiveChoices, 1)

	s.Terminate()
	assert.Equal(t, StatusTerminated, s.Status())
	assert.False(t, s.Active())
	assert.Empty(t, s.ActiveChoices)
	assert.Empty(t, s.ActivePrompt)
}

func TestSession_PersistenceShape(t *testing.T) {
	s := NewSession("abc")
	s.Await(&Node{ID: "menu", Kind: KindOptions, Prompt: "Escolha:", Choices: []Choice{{Label: "A"}}})

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	for _, key := range []string{"sessionId", "currentNodeId", "awaitingInput", "activeChoices", "activePrompt"} {
		assert.Contains(t, fields, key)
	}
}

func TestSession_CloneIsDeep(t *testing.T) {
	s := &Session{SessionID: "a", ActiveChoices: []Choice{{Label: "x"}}}
	c := s.Clone()
	c.ActiveChoices[0].Label = "y"
	assert.Equal(t, "x", s.ActiveChoices[0].Label)
}

func TestMergeHooks(t *testing.T) {
	var calls []string
	h := MergeHooks(
		LifecycleHooks{OnNodeEnter: func(_ context.Context, e *NodeEvent) { calls = append(calls, "a:"+e.NodeID) }},
		LifecycleHooks{},
		LifecycleHooks{OnNodeEnter: func(_ context.Context, e *NodeEvent) { calls = append(calls, "b:"+e.NodeID) }},
	)
	h.OnNodeEnter(context.Background(), &NodeEvent{NodeID: "n"})
	assert.Equal(t, []string{"a:n", "b:n"}, calls)
	assert.Nil(t, h.OnTerminate)
}
