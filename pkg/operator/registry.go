// Package operator implements in-process operator rosters and assignment
// strategies for human hand-off.
package operator

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/atendo/atendo/pkg/domain"
	"github.com/atendo/atendo/pkg/ports"
)

// Strategy selects one operator out of the eligible candidates.
type Strategy string

const (
	// StrategyRoundRobin cycles through eligible operators in registration
	// order, independent of current load.
	StrategyRoundRobin Strategy = "round_robin"

	// StrategyLeastBusy picks the eligible operator with the fewest assigned
	// conversations, breaking ties by registration order.
	StrategyLeastBusy Strategy = "least_busy"
)

// Registry is an in-memory operator roster implementing ports.OperatorAssigner.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.Mutex
	operators []*ports.Operator
	strategy  Strategy
	cursor    int
}

// Option configures the Registry.
type Option func(*Registry)

// WithStrategy sets the assignment strategy. Unknown values fall back to
// round robin.
func WithStrategy(s Strategy) Option {
	return func(r *Registry) {
		if s == StrategyLeastBusy {
			r.strategy = s
		}
	}
}

// NewRegistry creates an empty roster. The default strategy is round robin.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{strategy: StrategyRoundRobin}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds an operator or, when the ID is already known, replaces their
// name and department while preserving the current load.
func (r *Registry) Register(op ports.Operator) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.operators {
		if existing.ID == op.ID {
			existing.Name = op.Name
			existing.Department = op.Department
			existing.Active = op.Active
			return
		}
	}
	cp := op
	r.operators = append(r.operators, &cp)
}

// Deactivate marks an operator as unavailable for new assignments. Existing
// conversations keep their load until released.
func (r *Registry) Deactivate(operatorID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, op := range r.operators {
		if op.ID == operatorID {
			op.Active = false
			return true
		}
	}
	return false
}

// Release decrements an operator's load when their conversation closes.
func (r *Registry) Release(operatorID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, op := range r.operators {
		if op.ID == operatorID {
			if op.Load > 0 {
				op.Load--
			}
			return
		}
	}
}

// List returns a snapshot of the roster sorted by ID.
func (r *Registry) List() []ports.Operator {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ports.Operator, 0, len(r.operators))
	for _, op := range r.operators {
		out = append(out, *op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Assign picks an active operator for the department and increments their
// load. An empty department matches any operator; department comparison is
// case-insensitive.
func (r *Registry) Assign(_ context.Context, department string) (ports.Operator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var eligible []*ports.Operator
	for _, op := range r.operators {
		if !op.Active {
			continue
		}
		if department != "" && !strings.EqualFold(op.Department, department) {
			continue
		}
		eligible = append(eligible, op)
	}
	if len(eligible) == 0 {
		return ports.Operator{}, domain.ErrNoOperator
	}

	var chosen *ports.Operator
	switch r.strategy {
	case StrategyLeastBusy:
		chosen = eligible[0]
		for _, op := range eligible[1:] {
			if op.Load < chosen.Load {
				chosen = op
			}
		}
	default:
		chosen = eligible[r.cursor%len(eligible)]
		r.cursor++
	}

	chosen.Load++
	return *chosen, nil
}
