package runner_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/chatflow"
	"github.com/aretw0/chatflow/internal/testutils"
	"github.com/aretw0/chatflow/pkg/runner"
)

func newEngine(t *testing.T) *chatflow.Engine {
	t.Helper()
	eng, err := chatflow.New("", chatflow.WithGraph(testutils.ScenarioGraph(t)))
	require.NoError(t, err)
	return eng
}

func TestRunner_Conversation(t *testing.T) {
	eng := newEngine(t)
	out := &bytes.Buffer{}
	in := strings.NewReader("9\n2\n")

	r := runner.NewRunner(
		runner.WithEngine(eng),
		runner.WithSessionID("cli"),
		runner.WithHeadless(true),
		runner.WithInputHandler(runner.NewTextHandler(in, out)),
	)
	require.NoError(t, r.Run(context.Background()))

	got := out.String()
	assert.Contains(t, got, "Oi!")
	assert.Contains(t, got, "1. Vendas")
	assert.Contains(t, got, "Invalid option")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(got), "Até logo!"), got)
	assert.NotContains(t, got, "> ", "no prompt when input is not a terminal")
}

func TestRunner_Commands(t *testing.T) {
	eng := newEngine(t)
	out := &bytes.Buffer{}
	in := strings.NewReader("/reset\n/quit\n1\n")

	r := runner.NewRunner(
		runner.WithEngine(eng),
		runner.WithSessionID("cmd"),
		runner.WithInputHandler(runner.NewTextHandler(in, out)),
	)
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, 2, strings.Count(out.String(), "Oi!"), "reset restarts the flow")
	assert.NotContains(t, out.String(), "Obrigado!", "input after /quit is never read")
}

func TestRunner_EOFEndsInteractiveLoop(t *testing.T) {
	eng := newEngine(t)
	out := &bytes.Buffer{}

	r := runner.NewRunner(
		runner.WithEngine(eng),
		runner.WithInputHandler(runner.NewTextHandler(strings.NewReader("1\n"), out)),
	)
	require.NoError(t, r.Run(context.Background()))
	assert.NotEmpty(t, r.SessionID)
	assert.Contains(t, out.String(), "Conversation finished")
}

func TestRunner_ResumesSession(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()
	_, err := eng.Start(ctx, "resume")
	require.NoError(t, err)

	out := &bytes.Buffer{}
	r := runner.NewRunner(
		runner.WithEngine(eng),
		runner.WithSessionID("resume"),
		runner.WithHeadless(true),
		runner.WithInputHandler(runner.NewTextHandler(strings.NewReader("1\n"), out)),
	)
	require.NoError(t, r.Run(ctx))

	assert.NotContains(t, out.String(), "Oi!", "a parked session only repeats its prompt")
	assert.Contains(t, out.String(), "Obrigado!")
}

func TestRunner_RequiresEngine(t *testing.T) {
	r := runner.NewRunner(runner.WithInputHandler(runner.NewTextHandler(strings.NewReader(""), &bytes.Buffer{})))
	assert.Error(t, r.Run(context.Background()))
}
