package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/graph"
)

// ScenarioDocument is the sales/support greeting flow used across tests:
// start -> hello("Oi!") -> menu("Escolha:" [Vendas, Suporte]) -> thanks | bye.
func ScenarioDocument() graph.Document {
	return graph.Document{
		Nodes: []domain.Node{
			{ID: "start", Kind: domain.KindStart},
			{ID: "hello", Kind: domain.KindSendMessage, Text: "Oi!"},
			{ID: "menu", Kind: domain.KindOptions, Prompt: "Escolha:", Choices: []domain.Choice{
				{Label: "Vendas"},
				{Label: "Suporte"},
			}},
			{ID: "thanks", Kind: domain.KindFinalize, Text: "Obrigado!"},
			{ID: "bye", Kind: domain.KindFinalize, Text: "Até logo!"},
		},
		Edges: []domain.Edge{
			{Source: "start", Target: "hello"},
			{Source: "hello", Target: "menu"},
			domain.ChoiceEdge("menu", "thanks", 1),
			domain.ChoiceEdge("menu", "bye", 2),
		},
	}
}

// ScenarioGraph loads ScenarioDocument.
func ScenarioGraph(t testing.TB) *graph.Graph {
	t.Helper()
	g, err := graph.Load(ScenarioDocument())
	require.NoError(t, err)
	return g
}

// ScenarioYAML is ScenarioDocument in the on-disk format.
const ScenarioYAML = `nodes:
  - { id: start, kind: start }
  - { id: hello, kind: sendMessage, text: "Oi!" }
  - id: menu
    kind: options
    prompt: "Escolha:"
    choices: [Vendas, Suporte]
  - { id: thanks, kind: finalize, text: "Obrigado!" }
  - { id: bye, kind: finalize, text: "Até logo!" }
edges:
  - { source: start, target: hello }
  - { source: hello, target: menu }
  - { source: menu, target: thanks, choiceIndex: 1 }
  - { source: menu, target: bye, choiceIndex: 2 }
`

// WriteGraphFile writes content into a temp dir and returns the file path.
func WriteGraphFile(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
