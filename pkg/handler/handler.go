// Package handler wires inbound messages to the flow interpreter: it
// sanitizes text, serializes turns per conversation, persists the resulting
// context and delivers the reply through a channel adapter.
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atendo/atendo/internal/flow"
	"github.com/atendo/atendo/internal/logging"
	"github.com/atendo/atendo/pkg/domain"
	"github.com/atendo/atendo/pkg/ports"
	"github.com/atendo/atendo/pkg/session"
)

// Handler processes one inbound message end to end.
type Handler struct {
	interp   *flow.Interpreter
	sessions *session.Manager
	channel  ports.ChannelAdapter
	assigner ports.OperatorAssigner
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	messages flow.Messages
}

// Option configures a Handler.
type Option func(*Handler)

// WithChannel sets the outbound delivery adapter. Without one, replies are
// only returned to the caller (the HTTP API does this).
func WithChannel(ch ports.ChannelAdapter) Option {
	return func(h *Handler) { h.channel = ch }
}

// WithAssigner enables operator assignment on hand-off.
func WithAssigner(a ports.OperatorAssigner) Option {
	return func(h *Handler) { h.assigner = a }
}

// WithHooks registers observability callbacks fired by the handler layer.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(h *Handler) { h.hooks = hooks }
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithMessages overrides the default end-user strings.
func WithMessages(m flow.Messages) Option {
	return func(h *Handler) { h.messages = m }
}

// New creates a Handler.
func New(interp *flow.Interpreter, sessions *session.Manager, opts ...Option) *Handler {
	h := &Handler{
		interp:   interp,
		sessions: sessions,
		logger:   logging.NewNop(),
		messages: flow.DefaultMessages(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleMessage runs one conversation turn. The per-conversation lock is held
// across load, interpret and save, so two messages from the same user are
// never interleaved.
//
// Rejected input (oversized, invalid UTF-8) gets a generic reply with the
// context untouched. Delivery failures are logged, not returned: the context
// is already saved and the user can repeat the question.
func (h *Handler) HandleMessage(ctx context.Context, conversationID, text string) (domain.Result, error) {
	clean, err := SanitizeInput(text)
	if err != nil {
		h.logger.Warn("rejected inbound message",
			"conversation_id", conversationID, "err", err)
		conv, loadErr := h.sessions.LoadOrInit(ctx, conversationID)
		if loadErr != nil {
			return domain.Result{}, loadErr
		}
		return domain.Result{Reply: h.messages.DidNotUnderstand, Context: conv}, nil
	}

	var res domain.Result
	err = h.sessions.WithLock(ctx, conversationID, func(ctx context.Context) error {
		conv, err := h.sessions.LoadOrInit(ctx, conversationID)
		if err != nil {
			return fmt.Errorf("failed to load conversation: %w", err)
		}

		res = h.interp.ProcessMessage(ctx, clean, conv)

		if res.TransferToHuman {
			h.assign(ctx, conversationID, &res)
		}

		if res.EndConversation {
			// The conversation restarts from the top on the next message.
			if err := h.sessions.Reset(ctx, conversationID); err != nil {
				return fmt.Errorf("failed to reset conversation: %w", err)
			}
			return nil
		}
		if err := h.sessions.Save(ctx, conversationID, res.Context); err != nil {
			return fmt.Errorf("failed to save conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Result{}, err
	}

	h.deliver(ctx, conversationID, res)
	return res, nil
}

// assign picks a human operator for the hand-off. No available operator is
// not an error for the end user, the transfer still happened and the
// conversation waits in the department queue.
func (h *Handler) assign(ctx context.Context, conversationID string, res *domain.Result) {
	ev := &domain.HandoffEvent{
		Timestamp:      time.Now(),
		ConversationID: conversationID,
		Department:     res.Department,
	}

	if h.assigner != nil {
		op, err := h.assigner.Assign(ctx, res.Department)
		switch {
		case err == nil:
			ev.OperatorID = op.ID
			h.logger.Info("conversation assigned to operator",
				"conversation_id", conversationID,
				"department", res.Department,
				"operator_id", op.ID)
		case errors.Is(err, domain.ErrNoOperator):
			h.logger.Warn("no operator available, conversation queued",
				"conversation_id", conversationID,
				"department", res.Department)
		default:
			h.logger.Error("operator assignment failed",
				"conversation_id", conversationID, "err", err)
		}
	}

	if h.hooks.OnHandoff != nil {
		h.hooks.OnHandoff(ctx, ev)
	}
}

func (h *Handler) deliver(ctx context.Context, conversationID string, res domain.Result) {
	if h.channel == nil || res.Silent() {
		return
	}
	if err := h.channel.Send(ctx, conversationID, res.Reply); err != nil {
		h.logger.Error("failed to deliver reply",
			"conversation_id", conversationID,
			"channel", h.channel.Name(),
			"err", err)
	}
}
