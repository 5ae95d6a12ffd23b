package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atendo/atendo"
	"github.com/atendo/atendo/internal/config"
	"github.com/atendo/atendo/pkg/adapters/memory"
	"github.com/atendo/atendo/pkg/domain"
)

func TestMessagesFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.DefaultDepartment = "Vendas"

	msgs := messagesFromConfig(cfg)
	assert.Equal(t, "Vendas", msgs.DefaultDepartment)

	empty := config.Default()
	empty.DefaultDepartment = ""
	assert.Equal(t, "Geral", messagesFromConfig(empty).DefaultDepartment)
}

func TestConfiguredDepartmentReachesHandoff(t *testing.T) {
	cfg := config.Default()
	cfg.DefaultDepartment = "Suporte"

	flows, err := memory.NewFlowStoreWith(&domain.FlowGraph{
		ID: "triagem",
		Nodes: []domain.Node{
			{ID: "gatilho", Type: domain.NodeTrigger,
				Trigger: &domain.TriggerConfig{Mode: domain.TriggerAny}},
			{ID: "repasse", Type: domain.NodeTransfer},
		},
		Edges: []domain.Edge{{Source: "gatilho", Target: "repasse"}},
	})
	require.NoError(t, err)

	eng := atendo.New(
		atendo.WithFlowStore(flows),
		atendo.WithMessages(messagesFromConfig(cfg)),
	)

	res, err := eng.HandleMessage(context.Background(), "conv-1", "oi")
	require.NoError(t, err)
	assert.True(t, res.TransferToHuman)
	assert.Equal(t, "Suporte", res.Department)
}
