// Package redis provides Redis-backed conversation persistence and
// cross-replica locking for multi-instance deployments.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/atendo/atendo/pkg/domain"
)

// ContextStore implements ports.ContextStore on Redis. Contexts are stored as
// JSON under a configurable prefix, with a ZSET index for listing.
type ContextStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*ContextStore)

// WithTTL sets the expiration for conversation contexts. Zero means no
// expiration.
func WithTTL(ttl time.Duration) Option {
	return func(s *ContextStore) { s.ttl = ttl }
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *ContextStore) { s.prefix = prefix }
}

// New creates a ContextStore with its own client.
func New(address, password string, db int, opts ...Option) *ContextStore {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a ContextStore over an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *ContextStore {
	s := &ContextStore{
		client: client,
		prefix: "atendo:conversation:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ContextStore) key(conversationID string) string {
	return s.prefix + conversationID
}

func (s *ContextStore) indexKey() string {
	return s.prefix + "index"
}

// Save writes the context and registers it in the index. The index score is
// the expiration time, so listing can prune expired entries lazily.
func (s *ContextStore) Save(ctx context.Context, conversationID string, conv domain.Context) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("failed to marshal context: %w", err)
	}

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01, effectively never
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(conversationID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: conversationID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves a context, returning domain.ErrContextNotFound on a miss.
func (s *ContextStore) Load(ctx context.Context, conversationID string) (domain.Context, error) {
	val, err := s.client.Get(ctx, s.key(conversationID)).Result()
	if err != nil {
		if err == backend.Nil {
			return domain.Context{}, domain.ErrContextNotFound
		}
		return domain.Context{}, fmt.Errorf("failed to get from redis: %w", err)
	}

	var conv domain.Context
	if err := json.Unmarshal([]byte(val), &conv); err != nil {
		return domain.Context{}, fmt.Errorf("failed to unmarshal context: %w", err)
	}
	if conv.UserData == nil {
		conv.UserData = map[string]string{}
	}
	return conv, nil
}

// Delete removes the context and its index entry.
func (s *ContextStore) Delete(ctx context.Context, conversationID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(conversationID))
	pipe.ZRem(ctx, s.indexKey(), conversationID)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns known conversation ids, pruning expired index entries first.
func (s *ContextStore) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired conversations: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return ids, nil
}

// Close closes the underlying client.
func (s *ContextStore) Close() error {
	return s.client.Close()
}
