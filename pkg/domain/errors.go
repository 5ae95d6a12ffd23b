package domain

import "errors"

// ErrNoActiveFlow is returned by flow stores when no graph is marked active.
var ErrNoActiveFlow = errors.New("no active flow")

// ErrFlowNotFound is returned when a flow id cannot be found in the store.
var ErrFlowNotFound = errors.New("flow not found")

// ErrContextNotFound is returned when a conversation has no persisted context.
var ErrContextNotFound = errors.New("conversation context not found")

// ErrNoOperator is returned when no human operator is available for a queue.
var ErrNoOperator = errors.New("no operator available")
