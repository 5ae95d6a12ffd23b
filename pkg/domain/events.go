package domain

import (
	"context"
	"time"
)

// TurnEvent describes one processed interpreter turn. Conversation identity
// is not part of it; per-conversation observability happens in the handler
// (HandoffEvent) and the HTTP event stream.
type TurnEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Stage     string    `json:"stage"`
	NodeType  string    `json:"node_type,omitempty"`
	Reply     string    `json:"reply,omitempty"`
	Silent    bool      `json:"silent,omitempty"`
	Duration  time.Duration
}

// HandoffEvent describes a bot-to-human transfer.
type HandoffEvent struct {
	Timestamp      time.Time `json:"timestamp"`
	ConversationID string    `json:"conversation_id"`
	Department     string    `json:"department"`
	OperatorID     string    `json:"operator_id,omitempty"`
}

// ConfigErrorEvent describes a graph authoring mistake hit at runtime
// (no active flow, trigger without an edge, missing edge target). These are
// surfaced loudly because they need an administrator, not the end user.
type ConfigErrorEvent struct {
	Timestamp time.Time `json:"timestamp"`
	FlowID    string    `json:"flow_id,omitempty"`
	NodeID    string    `json:"node_id,omitempty"`
	Reason    string    `json:"reason"`
}

// ValidationEvent describes a rejected user input on an input node.
type ValidationEvent struct {
	Timestamp  time.Time  `json:"timestamp"`
	NodeID     string     `json:"node_id"`
	Validation Validation `json:"validation"`
}

// LifecycleHooks are optional observability callbacks. Nil hooks are skipped.
// Callbacks run synchronously on the turn path and must be fast.
type LifecycleHooks struct {
	OnTurn        func(context.Context, *TurnEvent)
	OnHandoff     func(context.Context, *HandoffEvent)
	OnConfigError func(context.Context, *ConfigErrorEvent)
	OnValidation  func(context.Context, *ValidationEvent)
}
