package ports

import (
	"context"
)

// ChannelAdapter delivers outbound text to the end user on one messaging
// channel (WhatsApp, Instagram, ...). Inbound messages arrive through the
// message handler, not through this interface.
type ChannelAdapter interface {
	// Name identifies the channel, e.g. "whatsapp".
	Name() string

	// Send delivers text to the conversation. Delivery timeouts belong to the
	// adapter; the handler only propagates ctx cancellation.
	Send(ctx context.Context, conversationID, text string) error
}

// Operator is a human agent that can take over a conversation.
type Operator struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
	Active     bool   `json:"active"`
	Load       int    `json:"load"`
}

// OperatorAssigner picks a human operator when a hand-off occurs.
type OperatorAssigner interface {
	// Assign picks an operator for the department ("" means any) and
	// increments their load. Returns domain.ErrNoOperator when nobody in the
	// department is active.
	Assign(ctx context.Context, department string) (Operator, error)
}
