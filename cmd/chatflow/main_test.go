package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/chatflow/internal/testutils"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "chatflow version")
}

func TestValidate(t *testing.T) {
	path := testutils.WriteGraphFile(t, "flow.yaml", testutils.ScenarioYAML)
	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Graph is valid!")

	broken := testutils.WriteGraphFile(t, "broken.yaml", "nodes:\n  - { id: hello, kind: sendMessage, text: hi }\n")
	out, err = execute(t, "validate", broken)
	require.Error(t, err)
	assert.Contains(t, out, "error:")
}

func TestGraph(t *testing.T) {
	path := testutils.WriteGraphFile(t, "flow.yaml", testutils.ScenarioYAML)
	out, err := execute(t, "graph", "--graph", path)
	require.NoError(t, err)
	assert.Contains(t, out, "menu")
	assert.Contains(t, out, "Vendas")
}

func TestSession_FileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sessions")
	t.Setenv("CHATFLOW_STORE_DIR", dir)

	out, err := execute(t, "session", "ls", "--store", "file")
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found.")

	_, err = execute(t, "session", "inspect", "ghost", "--store", "file")
	assert.Error(t, err)

	out, err = execute(t, "session", "prune", "--store", "file")
	require.NoError(t, err)
	assert.Contains(t, out, "Pruned 0 session(s)")
}
