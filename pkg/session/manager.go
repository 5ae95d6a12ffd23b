package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/atendo/atendo/internal/logging"
	"github.com/atendo/atendo/pkg/domain"
	"github.com/atendo/atendo/pkg/ports"
)

// lockTTL caps how long a distributed lock outlives a crashed holder.
const lockTTL = 30 * time.Second

// lockEntry holds the per-conversation mutex and its reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager guards a ContextStore with per-conversation locks. Lock entries are
// reference-counted and garbage collected when the last holder releases.
type Manager struct {
	store ports.ContextStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker ports.DistributedLocker
	logger *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables cross-replica locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) { m.locker = locker }
}

// WithLogger sets a logger for deferred errors.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// NewManager creates a Manager over the given context store.
func NewManager(store ports.ContextStore, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		locks:  make(map[string]*lockEntry),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
func (m *Manager) acquire(conversationID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[conversationID]
	if !ok {
		entry = &lockEntry{}
		m.locks[conversationID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count, dropping the entry at zero.
func (m *Manager) release(conversationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.locks[conversationID]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, conversationID)
	}
}

// WithLock runs fn while holding the conversation's lock.
func (m *Manager) WithLock(ctx context.Context, conversationID string, fn func(context.Context) error) error {
	entry := m.acquire(conversationID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(conversationID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, conversationID, lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (TTL will expire it)",
					"conversation_id", conversationID, "err", err)
			}
		}()
	}

	return fn(ctx)
}

// Load retrieves an existing context. Callers that need atomicity with a
// subsequent Save wrap the pair in WithLock; the accessors themselves do not
// lock, so they are safe to call from inside WithLock.
func (m *Manager) Load(ctx context.Context, conversationID string) (domain.Context, error) {
	return m.store.Load(ctx, conversationID)
}

// LoadOrInit retrieves the context, initializing a fresh one (stage
// "initial", empty userData) for conversations seen for the first time.
func (m *Manager) LoadOrInit(ctx context.Context, conversationID string) (domain.Context, error) {
	c, err := m.store.Load(ctx, conversationID)
	if err == nil {
		return c, nil
	}
	if err != domain.ErrContextNotFound {
		return domain.Context{}, fmt.Errorf("failed to check conversation existence: %w", err)
	}

	c = domain.NewContext()
	if err := m.store.Save(ctx, conversationID, c); err != nil {
		return domain.Context{}, fmt.Errorf("failed to initialize conversation: %w", err)
	}
	return c, nil
}

// Save persists the context.
func (m *Manager) Save(ctx context.Context, conversationID string, c domain.Context) error {
	return m.store.Save(ctx, conversationID, c)
}

// Reset returns the conversation to the default context. Used when a
// conversation is closed and later reopened.
func (m *Manager) Reset(ctx context.Context, conversationID string) error {
	return m.store.Save(ctx, conversationID, domain.NewContext())
}

// Delete removes the context entirely.
func (m *Manager) Delete(ctx context.Context, conversationID string) error {
	return m.store.Delete(ctx, conversationID)
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store exposes the underlying context store.
func (m *Manager) Store() ports.ContextStore {
	return m.store
}
