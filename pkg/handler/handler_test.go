package handler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atendo/atendo/internal/flow"
	"github.com/atendo/atendo/pkg/adapters/memory"
	"github.com/atendo/atendo/pkg/domain"
	"github.com/atendo/atendo/pkg/operator"
	"github.com/atendo/atendo/pkg/ports"
	"github.com/atendo/atendo/pkg/session"
)

type fakeChannel struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (c *fakeChannel) Name() string { return "fake" }

func (c *fakeChannel) Send(_ context.Context, conversationID, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, conversationID+": "+text)
	return nil
}

func greetingFlow() *domain.FlowGraph {
	return &domain.FlowGraph{
		ID:     "flow-1",
		Name:   "Atendimento",
		Active: true,
		Nodes: []domain.Node{
			{ID: "start", Type: domain.NodeTrigger, Trigger: &domain.TriggerConfig{Mode: domain.TriggerAny}},
			{ID: "greet", Type: domain.NodeMessage, Content: "Olá! Como posso ajudar?"},
		},
		Edges: []domain.Edge{{ID: "e1", Source: "start", Target: "greet"}},
	}
}

func transferFlow() *domain.FlowGraph {
	return &domain.FlowGraph{
		ID:     "flow-2",
		Name:   "Vendas",
		Active: true,
		Nodes: []domain.Node{
			{ID: "start", Type: domain.NodeTrigger, Trigger: &domain.TriggerConfig{Mode: domain.TriggerAny}},
			{ID: "handoff", Type: domain.NodeTransfer, Transfer: &domain.TransferConfig{Department: "Vendas"}},
		},
		Edges: []domain.Edge{{ID: "e1", Source: "start", Target: "handoff"}},
	}
}

func newHandler(t *testing.T, graph *domain.FlowGraph, opts ...Option) (*Handler, *session.Manager) {
	t.Helper()
	flows, err := memory.NewFlowStoreWith(graph)
	require.NoError(t, err)
	sessions := session.NewManager(memory.NewContextStore())
	return New(flow.New(flows), sessions, opts...), sessions
}

func TestHandleMessageDeliversReply(t *testing.T) {
	ch := &fakeChannel{}
	h, sessions := newHandler(t, greetingFlow(), WithChannel(ch))

	res, err := h.HandleMessage(context.Background(), "wa:111", "oi")
	require.NoError(t, err)

	assert.Equal(t, "Olá! Como posso ajudar?", res.Reply)
	assert.Equal(t, []string{"wa:111: Olá! Como posso ajudar?"}, ch.sent)

	// Context persisted under the lock.
	conv, err := sessions.Load(context.Background(), "wa:111")
	require.NoError(t, err)
	assert.Equal(t, "greet", conv.Stage)
	assert.Equal(t, 1, conv.Turns)
}

func TestHandleMessageDeliveryFailureIsLogged(t *testing.T) {
	ch := &fakeChannel{err: errors.New("whatsapp 503")}
	h, sessions := newHandler(t, greetingFlow(), WithChannel(ch))

	res, err := h.HandleMessage(context.Background(), "wa:111", "oi")
	require.NoError(t, err, "delivery failure must not fail the turn")
	assert.NotEmpty(t, res.Reply)

	conv, err := sessions.Load(context.Background(), "wa:111")
	require.NoError(t, err)
	assert.Equal(t, "greet", conv.Stage, "context is saved even when delivery fails")
}

func TestHandleMessageRejectsOversizedInput(t *testing.T) {
	h, sessions := newHandler(t, greetingFlow())

	res, err := h.HandleMessage(context.Background(), "wa:111", strings.Repeat("a", DefaultMaxInputSize+1))
	require.NoError(t, err)
	assert.Equal(t, flow.DefaultMessages().DidNotUnderstand, res.Reply)

	conv, err := sessions.Load(context.Background(), "wa:111")
	require.NoError(t, err)
	assert.Equal(t, domain.StageInitial, conv.Stage, "rejected input does not advance the flow")
}

func TestHandleMessageAssignsOperatorOnTransfer(t *testing.T) {
	reg := operator.NewRegistry()
	reg.Register(ports.Operator{ID: "op-1", Name: "Ana", Department: "Vendas", Active: true})

	var handoff *domain.HandoffEvent
	hooks := domain.LifecycleHooks{
		OnHandoff: func(_ context.Context, ev *domain.HandoffEvent) { handoff = ev },
	}
	h, _ := newHandler(t, transferFlow(), WithAssigner(reg), WithHooks(hooks))

	res, err := h.HandleMessage(context.Background(), "wa:222", "quero falar com vendas")
	require.NoError(t, err)

	assert.True(t, res.TransferToHuman)
	assert.Equal(t, "Vendas", res.Department)
	require.NotNil(t, handoff)
	assert.Equal(t, "op-1", handoff.OperatorID)
	assert.Equal(t, "wa:222", handoff.ConversationID)

	ops := reg.List()
	require.Len(t, ops, 1)
	assert.Equal(t, 1, ops[0].Load)
}

func TestHandleMessageTransferWithoutOperatorStillHandsOff(t *testing.T) {
	reg := operator.NewRegistry() // empty roster

	var handoff *domain.HandoffEvent
	hooks := domain.LifecycleHooks{
		OnHandoff: func(_ context.Context, ev *domain.HandoffEvent) { handoff = ev },
	}
	h, _ := newHandler(t, transferFlow(), WithAssigner(reg), WithHooks(hooks))

	res, err := h.HandleMessage(context.Background(), "wa:222", "oi")
	require.NoError(t, err)

	assert.True(t, res.TransferToHuman)
	require.NotNil(t, handoff)
	assert.Empty(t, handoff.OperatorID, "hand-off event fires even with an empty queue")
}

func TestHandleMessageResetsOnEndConversation(t *testing.T) {
	graph := &domain.FlowGraph{
		ID:     "flow-3",
		Active: true,
		Nodes: []domain.Node{
			{ID: "start", Type: domain.NodeTrigger, Trigger: &domain.TriggerConfig{Mode: domain.TriggerAny}},
			{ID: "bye", Type: domain.NodeEnd, Content: "Até logo!"},
		},
		Edges: []domain.Edge{{ID: "e1", Source: "start", Target: "bye"}},
	}
	h, sessions := newHandler(t, graph)

	res, err := h.HandleMessage(context.Background(), "wa:333", "tchau")
	require.NoError(t, err)
	assert.True(t, res.EndConversation)

	conv, err := sessions.Load(context.Background(), "wa:333")
	require.NoError(t, err)
	assert.Equal(t, domain.NewContext(), conv, "ended conversation restarts from the top")
}

func TestHandleMessageConcurrentConversations(t *testing.T) {
	ch := &fakeChannel{}
	h, _ := newHandler(t, greetingFlow(), WithChannel(ch))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := "wa:" + string(rune('a'+n%5))
			_, err := h.HandleMessage(context.Background(), id, "oi")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	ch.mu.Lock()
	defer ch.mu.Unlock()
	assert.Len(t, ch.sent, 20)
}
