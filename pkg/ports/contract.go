package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atendo/atendo/pkg/domain"
)

// RunContextStoreContract verifies that a ContextStore implementation adheres
// to the interface contract. Every adapter's test suite should call it.
func RunContextStoreContract(t *testing.T, store ContextStore) {
	ctx := context.Background()
	convID := "contract-conv-" + time.Now().Format("20060102150405.000")

	t.Run("LoadMissing", func(t *testing.T) {
		_, err := store.Load(ctx, "no-such-conversation")
		assert.ErrorIs(t, err, domain.ErrContextNotFound)
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		c := domain.NewContext().WithStage("ask-name").WithVar("nome", "Maria").WithTurn()

		require.NoError(t, store.Save(ctx, convID, c))

		loaded, err := store.Load(ctx, convID)
		require.NoError(t, err)
		assert.Equal(t, "ask-name", loaded.Stage)
		assert.Equal(t, "Maria", loaded.UserData["nome"])
		assert.Equal(t, 1, loaded.Turns)
	})

	t.Run("SaveIsolation", func(t *testing.T) {
		c := domain.NewContext().WithVar("email", "a@b.com")
		require.NoError(t, store.Save(ctx, convID, c))

		// Mutating the saved value must not leak into the store.
		c.UserData["email"] = "tampered"

		loaded, err := store.Load(ctx, convID)
		require.NoError(t, err)
		assert.Equal(t, "a@b.com", loaded.UserData["email"])
	})

	t.Run("List", func(t *testing.T) {
		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, convID)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, convID))
		_, err := store.Load(ctx, convID)
		assert.ErrorIs(t, err, domain.ErrContextNotFound)
	})
}

// RunFlowStoreContract verifies that a FlowStore implementation adheres to the
// interface contract, including the single-active invariant.
func RunFlowStoreContract(t *testing.T, store FlowStore) {
	ctx := context.Background()

	flowA := &domain.FlowGraph{
		ID:   "contract-flow-a",
		Name: "Atendimento",
		Nodes: []domain.Node{
			{ID: "boas-vindas", Type: domain.NodeTrigger, Trigger: &domain.TriggerConfig{Mode: domain.TriggerAny}},
			{ID: "saudacao", Type: domain.NodeMessage, Content: "Olá!"},
		},
		Edges: []domain.Edge{{Source: "boas-vindas", Target: "saudacao"}},
	}
	flowB := &domain.FlowGraph{ID: "contract-flow-b", Name: "Vendas"}

	t.Run("GetMissing", func(t *testing.T) {
		_, err := store.Get(ctx, "no-such-flow")
		assert.ErrorIs(t, err, domain.ErrFlowNotFound)
	})

	t.Run("NoActiveFlow", func(t *testing.T) {
		_, err := store.ActiveFlow(ctx)
		assert.ErrorIs(t, err, domain.ErrNoActiveFlow)
	})

	t.Run("SaveAndGet", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, flowA))
		require.NoError(t, store.Save(ctx, flowB))

		got, err := store.Get(ctx, flowA.ID)
		require.NoError(t, err)
		assert.Equal(t, "Atendimento", got.Name)
		require.Len(t, got.Nodes, 2)
		assert.Equal(t, domain.NodeTrigger, got.Nodes[0].Type)
		require.NotNil(t, got.Nodes[0].Trigger)
		assert.Equal(t, domain.TriggerAny, got.Nodes[0].Trigger.Mode)
	})

	t.Run("ActivateIsExclusive", func(t *testing.T) {
		require.NoError(t, store.Activate(ctx, flowA.ID))

		active, err := store.ActiveFlow(ctx)
		require.NoError(t, err)
		assert.Equal(t, flowA.ID, active.ID)

		require.NoError(t, store.Activate(ctx, flowB.ID))

		active, err = store.ActiveFlow(ctx)
		require.NoError(t, err)
		assert.Equal(t, flowB.ID, active.ID)

		// The previous active flow must have been demoted.
		a, err := store.Get(ctx, flowA.ID)
		require.NoError(t, err)
		assert.False(t, a.Active)
	})

	t.Run("ActivateMissing", func(t *testing.T) {
		err := store.Activate(ctx, "no-such-flow")
		assert.ErrorIs(t, err, domain.ErrFlowNotFound)
	})

	t.Run("List", func(t *testing.T) {
		flows, err := store.List(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(flows), 2)
	})

	t.Run("DeleteActive", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, flowB.ID))
		_, err := store.ActiveFlow(ctx)
		assert.ErrorIs(t, err, domain.ErrNoActiveFlow)

		require.NoError(t, store.Delete(ctx, flowA.ID))
	})
}
