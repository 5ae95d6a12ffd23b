package atendo

import (
	"context"
	"log/slog"

	"github.com/atendo/atendo/internal/flow"
	"github.com/atendo/atendo/internal/logging"
	"github.com/atendo/atendo/pkg/adapters/memory"
	"github.com/atendo/atendo/pkg/domain"
	"github.com/atendo/atendo/pkg/handler"
	"github.com/atendo/atendo/pkg/ports"
	"github.com/atendo/atendo/pkg/session"
)

// Version is the library version reported by the CLI and the HTTP API.
const Version = "0.3.0"

// Engine is the high-level entry point for embedding the bot in a host
// application. It wires the interpreter, session manager and message handler
// over the configured stores; everything defaults to in-memory adapters.
type Engine struct {
	flows    ports.FlowStore
	contexts ports.ContextStore
	locker   ports.DistributedLocker
	channel  ports.ChannelAdapter
	assigner ports.OperatorAssigner
	hooks    domain.LifecycleHooks
	messages flow.Messages
	logger   *slog.Logger

	sessions *session.Manager
	handler  *handler.Handler
}

// Option configures the Engine.
type Option func(*Engine)

// WithFlowStore sets where flow definitions are read from.
func WithFlowStore(store ports.FlowStore) Option {
	return func(e *Engine) { e.flows = store }
}

// WithContextStore sets where conversation contexts are persisted.
func WithContextStore(store ports.ContextStore) Option {
	return func(e *Engine) { e.contexts = store }
}

// WithDistributedLocker extends per-conversation locking across replicas.
func WithDistributedLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) { e.locker = locker }
}

// WithChannel sets the outbound delivery adapter.
func WithChannel(ch ports.ChannelAdapter) Option {
	return func(e *Engine) { e.channel = ch }
}

// WithOperatorAssigner enables human operator assignment on hand-off.
func WithOperatorAssigner(a ports.OperatorAssigner) Option {
	return func(e *Engine) { e.assigner = a }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = hooks }
}

// WithMessages overrides the default end-user strings (Portuguese).
func WithMessages(m flow.Messages) Option {
	return func(e *Engine) { e.messages = m }
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:   logging.NewNop(),
		messages: flow.DefaultMessages(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.flows == nil {
		e.flows = memory.NewFlowStore()
	}
	if e.contexts == nil {
		e.contexts = memory.NewContextStore()
	}

	sessionOpts := []session.Option{session.WithLogger(e.logger)}
	if e.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(e.locker))
	}
	e.sessions = session.NewManager(e.contexts, sessionOpts...)

	interp := flow.New(e.flows,
		flow.WithLogger(e.logger),
		flow.WithHooks(e.hooks),
		flow.WithMessages(e.messages),
	)

	handlerOpts := []handler.Option{
		handler.WithLogger(e.logger),
		handler.WithHooks(e.hooks),
		handler.WithMessages(e.messages),
	}
	if e.channel != nil {
		handlerOpts = append(handlerOpts, handler.WithChannel(e.channel))
	}
	if e.assigner != nil {
		handlerOpts = append(handlerOpts, handler.WithAssigner(e.assigner))
	}
	e.handler = handler.New(interp, e.sessions, handlerOpts...)

	return e
}

// HandleMessage processes one inbound message for a conversation and returns
// the turn result. The reply still has to be delivered by the caller unless a
// channel adapter was configured.
func (e *Engine) HandleMessage(ctx context.Context, conversationID, text string) (domain.Result, error) {
	return e.handler.HandleMessage(ctx, conversationID, text)
}

// Sessions exposes the session manager for context inspection and resets.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

// Flows exposes the flow store for definition management.
func (e *Engine) Flows() ports.FlowStore {
	return e.flows
}

// Handler exposes the message handler, e.g. to mount it under a custom HTTP
// surface.
func (e *Engine) Handler() *handler.Handler {
	return e.handler
}
