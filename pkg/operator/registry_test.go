package operator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atendo/atendo/pkg/domain"
	"github.com/atendo/atendo/pkg/ports"
)

func TestRegistryRoundRobin(t *testing.T) {
	r := NewRegistry()
	r.Register(ports.Operator{ID: "op-1", Name: "Ana", Department: "Vendas", Active: true})
	r.Register(ports.Operator{ID: "op-2", Name: "Bruno", Department: "Vendas", Active: true})

	ctx := context.Background()
	first, err := r.Assign(ctx, "Vendas")
	require.NoError(t, err)
	second, err := r.Assign(ctx, "Vendas")
	require.NoError(t, err)
	third, err := r.Assign(ctx, "Vendas")
	require.NoError(t, err)

	assert.Equal(t, "op-1", first.ID)
	assert.Equal(t, "op-2", second.ID)
	assert.Equal(t, "op-1", third.ID)
}

func TestRegistryLeastBusy(t *testing.T) {
	r := NewRegistry(WithStrategy(StrategyLeastBusy))
	r.Register(ports.Operator{ID: "op-1", Name: "Ana", Active: true, Load: 3})
	r.Register(ports.Operator{ID: "op-2", Name: "Bruno", Active: true, Load: 1})

	op, err := r.Assign(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "op-2", op.ID)
	assert.Equal(t, 2, op.Load)

	// op-2 now has load 2, still below op-1's 3.
	op, err = r.Assign(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "op-2", op.ID)
}

func TestRegistryDepartmentFilter(t *testing.T) {
	r := NewRegistry()
	r.Register(ports.Operator{ID: "op-1", Department: "Vendas", Active: true})
	r.Register(ports.Operator{ID: "op-2", Department: "Suporte", Active: true})

	op, err := r.Assign(context.Background(), "suporte")
	require.NoError(t, err)
	assert.Equal(t, "op-2", op.ID, "department match is case-insensitive")

	_, err = r.Assign(context.Background(), "Financeiro")
	assert.ErrorIs(t, err, domain.ErrNoOperator)
}

func TestRegistryEmptyDepartmentMatchesAll(t *testing.T) {
	r := NewRegistry()
	r.Register(ports.Operator{ID: "op-1", Department: "Vendas", Active: true})

	op, err := r.Assign(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "op-1", op.ID)
}

func TestRegistrySkipsInactive(t *testing.T) {
	r := NewRegistry()
	r.Register(ports.Operator{ID: "op-1", Active: true})
	r.Register(ports.Operator{ID: "op-2", Active: true})
	require.True(t, r.Deactivate("op-1"))

	for i := 0; i < 3; i++ {
		op, err := r.Assign(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, "op-2", op.ID)
	}
}

func TestRegistryNoOperators(t *testing.T) {
	r := NewRegistry()
	_, err := r.Assign(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrNoOperator)
}

func TestRegistryRelease(t *testing.T) {
	r := NewRegistry(WithStrategy(StrategyLeastBusy))
	r.Register(ports.Operator{ID: "op-1", Active: true})

	_, err := r.Assign(context.Background(), "")
	require.NoError(t, err)
	r.Release("op-1")
	r.Release("op-1") // already zero, must not go negative

	ops := r.List()
	require.Len(t, ops, 1)
	assert.Zero(t, ops[0].Load)
}

func TestRegistryRegisterReplacesKeepingLoad(t *testing.T) {
	r := NewRegistry()
	r.Register(ports.Operator{ID: "op-1", Name: "Ana", Department: "Vendas", Active: true})
	_, err := r.Assign(context.Background(), "")
	require.NoError(t, err)

	r.Register(ports.Operator{ID: "op-1", Name: "Ana Paula", Department: "Suporte", Active: true})

	ops := r.List()
	require.Len(t, ops, 1)
	assert.Equal(t, "Ana Paula", ops[0].Name)
	assert.Equal(t, "Suporte", ops[0].Department)
	assert.Equal(t, 1, ops[0].Load)
}
