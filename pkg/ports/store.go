package ports

import (
	"context"

	"github.com/atendo/atendo/pkg/domain"
)

// FlowStore persists flow graphs and tracks which one is active.
//
// "At most one active flow" is a store-enforced invariant: Activate atomically
// clears the previous active flag, rather than leaving callers to
// query-and-hope.
type FlowStore interface {
	// ActiveFlow returns the single graph currently marked active.
	// Returns domain.ErrNoActiveFlow when none is.
	ActiveFlow(ctx context.Context) (*domain.FlowGraph, error)

	// Get returns the flow with the given id, or domain.ErrFlowNotFound.
	Get(ctx context.Context, id string) (*domain.FlowGraph, error)

	// List returns all stored flows.
	List(ctx context.Context) ([]*domain.FlowGraph, error)

	// Save creates or replaces a flow. Saving never changes which flow is
	// active; use Activate for that.
	Save(ctx context.Context, flow *domain.FlowGraph) error

	// Activate marks the given flow active and deactivates any other.
	// Returns domain.ErrFlowNotFound if the id is unknown.
	Activate(ctx context.Context, id string) error

	// Delete removes a flow. Deleting the active flow leaves none active.
	Delete(ctx context.Context, id string) error
}

// ContextStore persists per-conversation contexts between turns.
// One context per conversation, read-then-written once per turn;
// last-write-wins is acceptable because a conversation is logically
// single-threaded from the end user's perspective.
type ContextStore interface {
	// Load returns the context for a conversation, or
	// domain.ErrContextNotFound when the conversation is new.
	Load(ctx context.Context, conversationID string) (domain.Context, error)

	// Save persists the context for a conversation.
	Save(ctx context.Context, conversationID string, c domain.Context) error

	// Delete removes the context (conversation closed).
	Delete(ctx context.Context, conversationID string) error

	// List returns the ids of conversations with a stored context.
	List(ctx context.Context) ([]string, error)
}
