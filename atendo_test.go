package atendo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atendo/atendo"
	"github.com/atendo/atendo/pkg/domain"
	"github.com/atendo/atendo/pkg/operator"
	"github.com/atendo/atendo/pkg/ports"
	"github.com/atendo/atendo/pkg/schema"
)

const onboardingFlow = `{
	"id": "onboarding",
	"name": "Boas-vindas",
	"nodes": [
		{"id": "start", "type": "trigger", "data": {"triggerType": "any"}},
		{"id": "ask_name", "type": "input", "content": "Olá! Qual é o seu nome?", "data": {"variableName": "nome"}},
		{"id": "confirm", "type": "condition", "content": "Prazer, {nome}! Quer falar com um atendente?", "options": ["Sim", "Não"]},
		{"id": "handoff", "type": "transfer", "data": {"department": "Vendas"}},
		{"id": "bye", "type": "end", "content": "Tudo bem, até a próxima!"}
	],
	"edges": [
		{"id": "e1", "source": "start", "target": "ask_name"},
		{"id": "e2", "source": "ask_name", "target": "confirm"},
		{"id": "e3", "source": "confirm", "target": "handoff", "label": "Sim"},
		{"id": "e4", "source": "confirm", "target": "bye", "label": "Não"}
	]
}`

func newEngine(t *testing.T, opts ...atendo.Option) *atendo.Engine {
	t.Helper()
	eng := atendo.New(opts...)

	graph, err := schema.Decode([]byte(onboardingFlow))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, eng.Flows().Save(ctx, graph))
	require.NoError(t, eng.Flows().Activate(ctx, graph.ID))
	return eng
}

func TestEngineFullConversation(t *testing.T) {
	reg := operator.NewRegistry()
	reg.Register(ports.Operator{ID: "op-1", Name: "Carla", Department: "Vendas", Active: true})
	eng := newEngine(t, atendo.WithOperatorAssigner(reg))
	ctx := context.Background()

	res, err := eng.HandleMessage(ctx, "wa:111", "oi")
	require.NoError(t, err)
	assert.Equal(t, "Olá! Qual é o seu nome?", res.Reply)

	res, err = eng.HandleMessage(ctx, "wa:111", "Maria")
	require.NoError(t, err)
	assert.Equal(t, "Prazer, Maria! Quer falar com um atendente?", res.Reply)

	res, err = eng.HandleMessage(ctx, "wa:111", "Sim")
	require.NoError(t, err)
	assert.True(t, res.TransferToHuman)
	assert.Equal(t, "Vendas", res.Department)

	// The conversation is parked with a human; the captured data survives.
	conv, err := eng.Sessions().Load(ctx, "wa:111")
	require.NoError(t, err)
	assert.Equal(t, domain.StageTransfer, conv.Stage)
	assert.Equal(t, "Maria", conv.UserData["nome"])
}

func TestEngineEndConversationRestarts(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	_, err := eng.HandleMessage(ctx, "wa:222", "oi")
	require.NoError(t, err)
	_, err = eng.HandleMessage(ctx, "wa:222", "João")
	require.NoError(t, err)

	res, err := eng.HandleMessage(ctx, "wa:222", "Não")
	require.NoError(t, err)
	assert.True(t, res.EndConversation)
	assert.Equal(t, "Tudo bem, até a próxima!", res.Reply)

	// Next message starts a brand new conversation.
	res, err = eng.HandleMessage(ctx, "wa:222", "olá de novo")
	require.NoError(t, err)
	assert.Equal(t, "Olá! Qual é o seu nome?", res.Reply)
}

func TestEngineIsolatesConversations(t *testing.T) {
	eng := newEngine(t)
	ctx := context.Background()

	_, err := eng.HandleMessage(ctx, "wa:a", "oi")
	require.NoError(t, err)
	_, err = eng.HandleMessage(ctx, "wa:b", "oi")
	require.NoError(t, err)

	_, err = eng.HandleMessage(ctx, "wa:a", "Ana")
	require.NoError(t, err)

	convB, err := eng.Sessions().Load(ctx, "wa:b")
	require.NoError(t, err)
	_, captured := convB.Var("nome")
	assert.False(t, captured, "wa:a's answer must not leak into wa:b")
}

func TestEngineWithoutActiveFlow(t *testing.T) {
	eng := atendo.New()

	res, err := eng.HandleMessage(context.Background(), "wa:333", "oi")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Reply, "user gets a fallback reply, never silence on error")
	assert.Equal(t, domain.StageInitial, res.Context.Stage)
}
