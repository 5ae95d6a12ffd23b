package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/atendo/atendo/pkg/domain"
	"github.com/atendo/atendo/pkg/ports"
)

// FlowStore implements ports.FlowStore in memory.
type FlowStore struct {
	mu       sync.RWMutex
	flows    map[string]*domain.FlowGraph
	activeID string
}

// NewFlowStore creates an empty in-memory flow store.
func NewFlowStore() *FlowStore {
	return &FlowStore{flows: make(map[string]*domain.FlowGraph)}
}

// NewFlowStoreWith creates a store pre-loaded with the given flows; the first
// one marked active (or the only flow given) becomes the active flow.
// Intended for tests and the CLI simulator.
func NewFlowStoreWith(flows ...*domain.FlowGraph) (*FlowStore, error) {
	s := NewFlowStore()
	ctx := context.Background()
	for _, f := range flows {
		if err := s.Save(ctx, f); err != nil {
			return nil, err
		}
		if f.Active || (len(flows) == 1 && s.activeID == "") {
			if err := s.Activate(ctx, f.ID); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

// Save stores a deep copy of the flow. The active flag on the value is
// ignored; activation only happens through Activate.
func (s *FlowStore) Save(ctx context.Context, flow *domain.FlowGraph) error {
	if flow.ID == "" {
		return fmt.Errorf("flow missing id")
	}
	clone, err := cloneFlow(flow)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	clone.Active = s.activeID == flow.ID
	s.flows[flow.ID] = clone
	return nil
}

// Get returns a copy of the flow with the given id.
func (s *FlowStore) Get(ctx context.Context, id string) (*domain.FlowGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flow, ok := s.flows[id]
	if !ok {
		return nil, domain.ErrFlowNotFound
	}
	return cloneFlow(flow)
}

// ActiveFlow returns the single flow marked active.
func (s *FlowStore) ActiveFlow(ctx context.Context) (*domain.FlowGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.activeID == "" {
		return nil, domain.ErrNoActiveFlow
	}
	flow, ok := s.flows[s.activeID]
	if !ok {
		return nil, domain.ErrNoActiveFlow
	}
	return cloneFlow(flow)
}

// Activate marks the flow active, demoting any previously active one.
func (s *FlowStore) Activate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	flow, ok := s.flows[id]
	if !ok {
		return domain.ErrFlowNotFound
	}
	if prev, ok := s.flows[s.activeID]; ok {
		prev.Active = false
	}
	flow.Active = true
	s.activeID = id
	return nil
}

// Delete removes the flow; deleting the active one leaves none active.
func (s *FlowStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.flows, id)
	if s.activeID == id {
		s.activeID = ""
	}
	return nil
}

// List returns copies of all stored flows.
func (s *FlowStore) List(ctx context.Context) ([]*domain.FlowGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.FlowGraph, 0, len(s.flows))
	for _, flow := range s.flows {
		clone, err := cloneFlow(flow)
		if err != nil {
			return nil, err
		}
		out = append(out, clone)
	}
	return out, nil
}

// cloneFlow deep-copies through JSON, mirroring what a real store does.
func cloneFlow(flow *domain.FlowGraph) (*domain.FlowGraph, error) {
	data, err := json.Marshal(flow)
	if err != nil {
		return nil, fmt.Errorf("failed to copy flow %s: %w", flow.ID, err)
	}
	var clone domain.FlowGraph
	if err := json.Unmarshal(data, &clone); err != nil {
		return nil, fmt.Errorf("failed to copy flow %s: %w", flow.ID, err)
	}
	return &clone, nil
}

var _ ports.FlowStore = (*FlowStore)(nil)
