// Package memory provides in-memory implementations of the flow and context
// stores. They back the test suites and the CLI simulator; production
// deployments use the sqlite and redis adapters.
package memory

import (
	"context"
	"sync"

	"github.com/atendo/atendo/pkg/domain"
	"github.com/atendo/atendo/pkg/ports"
)

// ContextStore implements ports.ContextStore in memory.
// Safe for concurrent use.
type ContextStore struct {
	mu   sync.RWMutex
	data map[string]domain.Context
}

// NewContextStore creates an empty in-memory context store.
func NewContextStore() *ContextStore {
	return &ContextStore{data: make(map[string]domain.Context)}
}

// Save stores a copy of the context, isolating it from caller mutation.
func (s *ContextStore) Save(ctx context.Context, conversationID string, c domain.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[conversationID] = cloneContext(c)
	return nil
}

// Load returns a copy of the stored context.
func (s *ContextStore) Load(ctx context.Context, conversationID string) (domain.Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.data[conversationID]
	if !ok {
		return domain.Context{}, domain.ErrContextNotFound
	}
	return cloneContext(c), nil
}

// Delete removes the context.
func (s *ContextStore) Delete(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, conversationID)
	return nil
}

// List returns the conversation ids with a stored context.
func (s *ContextStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func cloneContext(c domain.Context) domain.Context {
	clone := c
	clone.UserData = make(map[string]string, len(c.UserData))
	for k, v := range c.UserData {
		clone.UserData[k] = v
	}
	return clone
}

var _ ports.ContextStore = (*ContextStore)(nil)
