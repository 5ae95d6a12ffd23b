package flow

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/atendo/atendo/internal/logging"
	"github.com/atendo/atendo/pkg/domain"
	"github.com/atendo/atendo/pkg/ports"
)

// Interpreter walks the active flow graph one conversation turn at a time.
//
// It holds no per-conversation state: every call receives the context by
// value and returns a new one, so concurrent turns for different
// conversations are safe without locking.
type Interpreter struct {
	flows    ports.FlowStore
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	messages Messages
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(it *Interpreter) { it.logger = logger }
}

// WithHooks registers observability callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(it *Interpreter) { it.hooks = hooks }
}

// WithMessages overrides the default end-user strings.
func WithMessages(m Messages) Option {
	return func(it *Interpreter) { it.messages = m }
}

// New creates an Interpreter reading the active graph from flows.
func New(flows ports.FlowStore, opts ...Option) *Interpreter {
	it := &Interpreter{
		flows:    flows,
		logger:   logging.NewNop(),
		messages: DefaultMessages(),
	}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

// ProcessMessage runs one turn: (inbound text, context) -> result.
//
// It never returns an error and never panics on a malformed graph. Failures
// degrade per taxonomy: configuration errors and store failures produce a
// generic fallback reply with the input context unchanged, so a corrected
// flow takes effect on the very next message; user input errors produce a
// re-prompt with the stage unchanged, giving unlimited retries.
func (it *Interpreter) ProcessMessage(ctx context.Context, text string, conv domain.Context) domain.Result {
	start := time.Now()

	graph, err := it.flows.ActiveFlow(ctx)
	if err != nil {
		it.configError(ctx, "", "", "failed to load active flow", err)
		return domain.Result{Reply: it.messages.ConfigError, Context: conv}
	}
	if graph == nil {
		// A store breaking the ActiveFlow contract must not take the
		// never-panics guarantee down with it.
		it.configError(ctx, "", "", "flow store returned no active flow", nil)
		return domain.Result{Reply: it.messages.ConfigError, Context: conv}
	}

	var res domain.Result
	if conv.Stage == domain.StageInitial {
		res = it.handleInitialMessage(ctx, graph, text, conv)
	} else {
		res = it.dispatchStage(ctx, graph, text, conv)
	}

	it.emitTurn(ctx, graph, res, time.Since(start))
	return res
}

// handleInitialMessage runs the entry path for conversations at the
// "initial" stage.
//
// The trigger fires unconditionally on the very first message of a
// conversation: requiring the user to guess a keyword before the bot greets
// them is a bad first impression. On re-entry to "initial" (context reset
// mid-conversation) the configured gating applies and a non-firing trigger
// ignores the turn silently.
func (it *Interpreter) handleInitialMessage(ctx context.Context, graph *domain.FlowGraph, text string, conv domain.Context) domain.Result {
	entry := graph.EntryNode()
	if entry == nil {
		it.configError(ctx, graph.ID, "", "active flow has no nodes", nil)
		return domain.Result{Reply: it.messages.ConfigError, Context: conv}
	}

	if entry.Type != domain.NodeTrigger {
		// No trigger node authored: the first node is the entry point.
		return it.enterNode(ctx, graph, entry, conv.WithTurn())
	}

	if conv.Turns > 0 && !triggerFires(entry.Trigger, text) {
		return domain.Result{Context: conv}
	}

	next := it.triggerTarget(graph, entry)
	if next == nil {
		it.configError(ctx, graph.ID, entry.ID, "trigger has no reachable target node", nil)
		return domain.Result{Reply: it.messages.ConfigError, Context: conv}
	}

	return it.enterNode(ctx, graph, next, conv.WithTurn())
}

// triggerTarget resolves the node a fired trigger leads to, via its outgoing
// edge or the legacy nextNode field.
func (it *Interpreter) triggerTarget(graph *domain.FlowGraph, trigger *domain.Node) *domain.Node {
	if edge := graph.EdgeFrom(trigger.ID); edge != nil {
		if target := graph.NodeByID(edge.Target); target != nil {
			return target
		}
	}
	if trigger.NextNode != "" {
		return graph.NodeByID(trigger.NextNode)
	}
	return nil
}

// triggerFires applies the keyword gate: fire on mode "any", on an empty
// keyword list, or when the text contains any keyword (case-insensitive
// substring).
func triggerFires(cfg *domain.TriggerConfig, text string) bool {
	if cfg == nil || cfg.Mode == domain.TriggerAny {
		return true
	}
	keywords := make([]string, 0, len(cfg.Keywords))
	for _, kw := range cfg.Keywords {
		if strings.TrimSpace(kw) != "" {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(strings.TrimSpace(kw))) {
			return true
		}
	}
	return false
}

func (it *Interpreter) configError(ctx context.Context, flowID, nodeID, reason string, err error) {
	it.logger.Error("flow configuration error",
		"flow_id", flowID,
		"node_id", nodeID,
		"reason", reason,
		"err", err,
	)
	if it.hooks.OnConfigError != nil {
		it.hooks.OnConfigError(ctx, &domain.ConfigErrorEvent{
			Timestamp: time.Now(),
			FlowID:    flowID,
			NodeID:    nodeID,
			Reason:    reason,
		})
	}
}

func (it *Interpreter) emitTurn(ctx context.Context, graph *domain.FlowGraph, res domain.Result, d time.Duration) {
	if it.hooks.OnTurn == nil {
		return
	}
	ev := &domain.TurnEvent{
		Timestamp: time.Now(),
		Stage:     res.Context.Stage,
		Reply:     res.Reply,
		Silent:    res.Silent(),
		Duration:  d,
	}
	if node := graph.NodeByID(res.Context.Stage); node != nil {
		ev.NodeType = string(node.Type)
	}
	it.hooks.OnTurn(ctx, ev)
}
