package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atendo/atendo/pkg/domain"
	"github.com/atendo/atendo/pkg/schema"
)

const editorDoc = `{
  "id": "flow-atendimento",
  "name": "Atendimento Principal",
  "isActive": true,
  "nodes": [
    {"id": "gatilho", "type": "trigger", "data": {"triggerType": "keyword", "keywords": ["oi", "menu"]}},
    {"id": "boas-vindas", "type": "message", "content": "Olá! Qual o seu nome?"},
    {"id": "captura-nome", "type": "input", "data": {"variableName": "nome", "validation": "text", "label": "Nome completo"}},
    {"id": "escolha", "type": "condition", "content": "Como posso ajudar, {nome}?", "data": {"conditions": ["Vendas", "Suporte"]}},
    {"id": "vendas", "type": "transfer", "data": {"department": "Vendas", "label": "Transferindo para Vendas!"}},
    {"id": "menu-antigo", "type": "menu", "options": ["Horários", "Planos"], "nextNode": "boas-vindas"}
  ],
  "edges": [
    {"source": "gatilho", "target": "boas-vindas"},
    {"source": "boas-vindas", "target": "captura-nome"},
    {"source": "captura-nome", "target": "escolha"},
    {"source": "escolha", "target": "vendas", "label": "Vendas"}
  ]
}`

func TestDecode(t *testing.T) {
	graph, err := schema.Decode([]byte(editorDoc))
	require.NoError(t, err)

	assert.Equal(t, "flow-atendimento", graph.ID)
	assert.True(t, graph.Active)
	require.Len(t, graph.Nodes, 6)
	require.Len(t, graph.Edges, 4)

	trig := graph.TriggerNode()
	require.NotNil(t, trig)
	require.NotNil(t, trig.Trigger)
	assert.Equal(t, domain.TriggerKeyword, trig.Trigger.Mode)
	assert.Equal(t, []string{"oi", "menu"}, trig.Trigger.Keywords)

	input := graph.NodeByID("captura-nome")
	require.NotNil(t, input)
	require.NotNil(t, input.Input)
	assert.Equal(t, "nome", input.Input.Variable)
	assert.Equal(t, domain.ValidationText, input.Input.Validation)

	cond := graph.NodeByID("escolha")
	require.NotNil(t, cond)
	require.NotNil(t, cond.Condition)
	assert.Equal(t, []string{"Vendas", "Suporte"}, cond.Condition.Choices)

	transfer := graph.NodeByID("vendas")
	require.NotNil(t, transfer)
	require.NotNil(t, transfer.Transfer)
	assert.Equal(t, "Vendas", transfer.Transfer.Department)

	legacy := graph.NodeByID("menu-antigo")
	require.NotNil(t, legacy)
	assert.Equal(t, "boas-vindas", legacy.NextNode)
	assert.Equal(t, []string{"Horários", "Planos"}, legacy.Options)
}

func TestDecode_Defaults(t *testing.T) {
	graph, err := schema.Decode([]byte(`{"id": "f1", "nodes": [{"id": "t", "type": "trigger"}], "edges": []}`))
	require.NoError(t, err)

	trig := graph.TriggerNode()
	require.NotNil(t, trig)
	// No data bag defaults to keyword gating with an empty keyword list.
	assert.Equal(t, domain.TriggerKeyword, trig.Trigger.Mode)
	assert.Empty(t, trig.Trigger.Keywords)
}

func TestDecode_Invalid(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"NotJSON", "{"},
		{"MissingFlowID", `{"name": "x"}`},
		{"MissingNodeID", `{"id": "f", "nodes": [{"type": "message"}]}`},
		{"BadDataBag", `{"id": "f", "nodes": [{"id": "n", "type": "trigger", "data": {"keywords": 42}}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := schema.Decode([]byte(tc.doc))
			assert.Error(t, err)
		})
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	graph, err := schema.Decode([]byte(editorDoc))
	require.NoError(t, err)

	data, err := schema.Encode(graph)
	require.NoError(t, err)

	again, err := schema.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, graph, again)
}

func TestLint(t *testing.T) {
	graph, err := schema.Decode([]byte(editorDoc))
	require.NoError(t, err)

	warnings := schema.Lint(graph)
	// "Suporte" has no labeled edge in the fixture.
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].String(), "Suporte")
}

func TestLint_DanglingEdge(t *testing.T) {
	graph := &domain.FlowGraph{
		ID: "f",
		Nodes: []domain.Node{
			{ID: "a", Type: domain.NodeMessage, Content: "Oi"},
		},
		Edges: []domain.Edge{{Source: "a", Target: "fantasma"}},
	}

	warnings := schema.Lint(graph)
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0].String(), "fantasma")
}

func TestLint_TriggerWithoutExit(t *testing.T) {
	graph := &domain.FlowGraph{
		ID: "f",
		Nodes: []domain.Node{
			{ID: "t", Type: domain.NodeTrigger, Trigger: &domain.TriggerConfig{Mode: domain.TriggerAny}},
		},
	}

	warnings := schema.Lint(graph)
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0].String(), "no outgoing edge")
}
