package graph_test

import (
	"testing"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenario() graph.Document {
	return graph.Document{
		Nodes: []domain.Node{
			{ID: "start", Kind: domain.KindStart},
			{ID: "hello", Kind: domain.KindSendMessage, Text: "Oi!"},
			{ID: "menu", Kind: domain.KindOptions, Prompt: "Escolha:", Choices: []domain.Choice{{Label: "Vendas"}, {Label: "Suporte"}}},
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

func TestLoad_Valid(t *testing.T) {
	g, err := graph.Load(scenario())
	require.NoError(t, err)

	assert.Equal(t, "start", g.Start().ID)
	assert.Equal(t, 5, g.Len())
	assert.Len(t, g.Outgoing("menu"), 2)
	assert.Nil(t, g.Node("missing"))
}

func TestLoad_StartCount(t *testing.T) {
	doc := scenario()
	doc.Nodes = doc.Nodes[1:]
	doc.Edges = doc.Edges[1:]

	_, err := graph.Load(doc)
	require.Error(t, err)
	assert.True(t, graph.IsFormatError(err))

	doc = scenario()
	doc.Nodes = append(doc.Nodes, domain.Node{ID: "start2", Kind: domain.KindStart})
	_, err = graph.Load(doc)
	var fe *graph.FormatError
	require.ErrorAs(t, err, &fe)
	assert.True(t, fe.Has(graph.IssueStartCount))
}

func TestLoad_DuplicateChoiceIndex(t *testing.T) {
	doc := scenario()
	doc.Edges = append(doc.Edges, domain.ChoiceEdge("menu", "bye", 1))

	_, err := graph.Load(doc)
	var fe *graph.FormatError
	require.ErrorAs(t, err, &fe)
	assert.True(t, fe.Has(graph.IssueDuplicateChoice))
}

func TestLoad_DanglingEndpoints(t *testing.T) {
	doc := scenario()
	doc.Edges = append(doc.Edges, domain.Edge{Source: "ghost", Target: "hello"}, domain.Edge{Source: "bye", Target: "nowhere"})

	_, err := graph.Load(doc)
	issues := graph.Issues(err)
	require.Len(t, issues, 2)
	for _, i := range issues {
		assert.Equal(t, graph.IssueMissingEndpoint, i.Code)
	}
}

func TestLoad_AggregatesIssues(t *testing.T) {
	doc := graph.Document{
		Nodes: []domain.Node{
			{ID: "", Kind: domain.KindSendMessage},
			{ID: "a", Kind: "webhook"},
			{ID: "a", Kind: domain.KindFinalize},
			{ID: "b", Kind: domain.KindSendMessage},
			{ID: "c", Kind: domain.KindFinalize},
		},
		Edges: []domain.Edge{
			{Source: "b", Target: "c"},
			{Source: "b", Target: "a"},
			domain.ChoiceEdge("c", "b", 1),
		},
	}

	_, err := graph.Load(doc)
	var fe *graph.FormatError
	require.ErrorAs(t, err, &fe)
	for _, code := range []graph.IssueCode{
		graph.IssueEmptyID,
		graph.IssueUnknownKind,
		graph.IssueDuplicateID,
		graph.IssueStartCount,
		graph.IssueLinearFanOut,
		graph.IssueIndexedLinear,
	} {
		assert.True(t, fe.Has(code), "expected issue %s in %v", code, err)
	}
	assert.Contains(t, err.Error(), "issues")
}

func TestLoad_UnreachableNodesAreLegal(t *testing.T) {
	doc := scenario()
	doc.Nodes = append(doc.Nodes, domain.Node{ID: "orphan", Kind: domain.KindSendMessage, Text: "never"})

	_, err := graph.Load(doc)
	assert.NoError(t, err)
}

func TestLoad_DoesNotAliasInput(t *testing.T) {
	doc := scenario()
	g := graph.MustLoad(doc)

	doc.Nodes[2].Choices[0].Label = "changed"
	assert.Equal(t, "Vendas", g.Node("menu").Choices[0].Label)
}

func TestGraph_AccessorsReturnCopies(t *testing.T) {
	g := graph.MustLoad(scenario())

	g.Node("menu").Choices[0].Label = "changed"
	g.Nodes()[2].Choices[0].Label = "changed"
	g.Next("hello", nil).Prompt = "changed"
	doc := g.Document()
	doc.Nodes[2].Choices[0].Label = "changed"
	*doc.Edges[2].ChoiceIndex = 2
	*g.Edges()[2].ChoiceIndex = 2
	*g.Outgoing("menu")[0].ChoiceIndex = 2

	assert.Equal(t, "Vendas", g.Node("menu").Choices[0].Label)
	assert.Equal(t, 1, *g.Outgoing("menu")[0].ChoiceIndex)
	assert.Equal(t, scenario(), g.Document())
}

func TestDocumentRoundTrip(t *testing.T) {
	g := graph.MustLoad(scenario())
	again, err := graph.Load(g.Document())
	require.NoError(t, err)
	assert.Equal(t, g.Document(), again.Document())
}

func TestHolder_Replace(t *testing.T) {
	h := graph.NewHolder(nil)
	assert.Nil(t, h.Graph())

	g1 := graph.MustLoad(scenario())
	assert.Nil(t, h.Replace(g1))
	assert.Same(t, g1, h.Graph())

	g2 := graph.MustLoad(scenario())
	assert.Same(t, g1, h.Replace(g2))
	assert.Same(t, g2, h.Graph())
}
