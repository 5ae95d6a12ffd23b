// Package metrics exposes the engine's lifecycle events as Prometheus
// collectors. The collectors are plugged in as lifecycle hooks, so the
// interpreter itself stays free of metric code.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/atendo/atendo/pkg/domain"
)

// Metrics bundles the collectors for one engine instance.
type Metrics struct {
	turns              *prometheus.CounterVec
	turnDuration       prometheus.Histogram
	handoffs           *prometheus.CounterVec
	configErrors       prometheus.Counter
	validationFailures *prometheus.CounterVec
}

// New creates the collectors and registers them on reg. Pass
// prometheus.DefaultRegisterer for the process-wide registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atendo_turns_total",
				Help: "Total processed conversation turns",
			},
			[]string{"node_type"},
		),
		turnDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "atendo_turn_duration_seconds",
				Help:    "Duration of one interpreter turn",
				Buckets: prometheus.DefBuckets,
			},
		),
		handoffs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atendo_handoffs_total",
				Help: "Total bot-to-human transfers",
			},
			[]string{"department"},
		),
		configErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "atendo_config_errors_total",
				Help: "Flow authoring errors hit at runtime",
			},
		),
		validationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atendo_validation_failures_total",
				Help: "User inputs rejected by input node validation",
			},
			[]string{"kind"},
		),
	}
	reg.MustRegister(m.turns, m.turnDuration, m.handoffs, m.configErrors, m.validationFailures)
	return m
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurn: func(_ context.Context, e *domain.TurnEvent) {
			nodeType := e.NodeType
			if nodeType == "" {
				nodeType = "none"
			}
			m.turns.WithLabelValues(nodeType).Inc()
			m.turnDuration.Observe(e.Duration.Seconds())
		},
		OnHandoff: func(_ context.Context, e *domain.HandoffEvent) {
			m.handoffs.WithLabelValues(e.Department).Inc()
		},
		OnConfigError: func(_ context.Context, _ *domain.ConfigErrorEvent) {
			m.configErrors.Inc()
		},
		OnValidation: func(_ context.Context, e *domain.ValidationEvent) {
			m.validationFailures.WithLabelValues(string(e.Validation)).Inc()
		},
	}
}

// Merge combines several hook sets into one that fires all of them in order.
func Merge(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var merged domain.LifecycleHooks
	for _, h := range hooks {
		h := h
		if h.OnTurn != nil {
			prev := merged.OnTurn
			merged.OnTurn = func(ctx context.Context, e *domain.TurnEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnTurn(ctx, e)
			}
		}
		if h.OnHandoff != nil {
			prev := merged.OnHandoff
			merged.OnHandoff = func(ctx context.Context, e *domain.HandoffEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnHandoff(ctx, e)
			}
		}
		if h.OnConfigError != nil {
			prev := merged.OnConfigError
			merged.OnConfigError = func(ctx context.Context, e *domain.ConfigErrorEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnConfigError(ctx, e)
			}
		}
		if h.OnValidation != nil {
			prev := merged.OnValidation
			merged.OnValidation = func(ctx context.Context, e *domain.ValidationEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				h.OnValidation(ctx, e)
			}
		}
	}
	return merged
}
