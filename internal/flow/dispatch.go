package flow

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/atendo/atendo/pkg/domain"
)

// maxHops bounds pass-through chains (trigger -> trigger -> ...) so a cyclic
// graph cannot recurse forever.
const maxHops = 16

// dispatchStage handles a non-initial turn: the stage names the node the
// previous turn left off at, and the inbound text is that node's input.
func (it *Interpreter) dispatchStage(ctx context.Context, graph *domain.FlowGraph, text string, conv domain.Context) domain.Result {
	node := graph.NodeByID(conv.Stage)
	if node == nil {
		it.logger.Warn("stage does not resolve to a node in the active flow",
			"stage", conv.Stage, "flow_id", graph.ID)
		return domain.Result{
			Reply:   it.messages.DidNotUnderstand,
			Context: conv.WithStage(domain.StageMainMenu),
		}
	}

	switch node.Type {
	case domain.NodeMessage:
		return it.enterNode(ctx, graph, node, conv)
	case domain.NodeInput, domain.NodeQuestion:
		return it.handleInput(ctx, graph, node, text, conv)
	case domain.NodeCondition:
		return it.handleCondition(ctx, graph, node, text, conv)
	case domain.NodeMenu:
		return it.handleMenu(ctx, graph, node, text, conv)
	case domain.NodeTransfer:
		return it.handleTransfer(node, conv)
	case domain.NodeTrigger:
		// Triggers are not supposed to be reachable mid-conversation; treat
		// as a pass-through to keep legacy graphs walking.
		if target := it.triggerTarget(graph, node); target != nil {
			return it.enterNode(ctx, graph, target, conv)
		}
		return domain.Result{Context: conv}
	default:
		return it.endConversation(node, conv)
	}
}

// enterNode produces the output of arriving at a node, whether from the
// trigger, a matched condition or a successful input capture.
func (it *Interpreter) enterNode(ctx context.Context, graph *domain.FlowGraph, node *domain.Node, conv domain.Context) domain.Result {
	return it.enter(ctx, graph, node, conv, 0)
}

func (it *Interpreter) enter(ctx context.Context, graph *domain.FlowGraph, node *domain.Node, conv domain.Context, hops int) domain.Result {
	if hops > maxHops {
		it.configError(ctx, graph.ID, node.ID, "pass-through cycle detected", nil)
		return domain.Result{Reply: it.messages.ConfigError, Context: conv}
	}

	switch node.Type {
	case domain.NodeMessage:
		return it.enterMessage(graph, node, conv)

	case domain.NodeInput, domain.NodeQuestion:
		// Park at the node; the next inbound message is the answer.
		return domain.Result{
			Reply:   Substitute(node.Content, conv.UserData),
			Context: conv.WithStage(node.ID),
		}

	case domain.NodeCondition, domain.NodeMenu:
		reply := Substitute(node.Content, conv.UserData)
		if reply == "" {
			reply = it.choicePrompt(node)
		}
		return domain.Result{Reply: reply, Context: conv.WithStage(node.ID)}

	case domain.NodeTransfer:
		return it.handleTransfer(node, conv)

	case domain.NodeTrigger:
		if target := it.triggerTarget(graph, node); target != nil {
			return it.enter(ctx, graph, target, conv, hops+1)
		}
		return domain.Result{Context: conv}

	default:
		return it.endConversation(node, conv)
	}
}

// enterMessage renders a message node. When its single edge points at another
// message node, both texts are batched with a blank-line separator and the
// stage advances past the second one; chaining goes exactly one level deep.
// With no edge (or a dangling one) the stage stays put, so repeated turns
// re-send the same message.
func (it *Interpreter) enterMessage(graph *domain.FlowGraph, node *domain.Node, conv domain.Context) domain.Result {
	text := Substitute(node.Content, conv.UserData)
	stage := node.ID

	if edge := graph.EdgeFrom(node.ID); edge != nil {
		target := graph.NodeByID(edge.Target)
		switch {
		case target == nil:
			it.logger.Warn("message node edge points to a missing node",
				"node_id", node.ID, "target", edge.Target, "flow_id", graph.ID)
		case target.Type == domain.NodeMessage:
			text += "\n\n" + Substitute(target.Content, conv.UserData)
			stage = target.ID
			if next := graph.EdgeFrom(target.ID); next != nil && graph.NodeByID(next.Target) != nil {
				stage = next.Target
			}
		default:
			stage = target.ID
		}
	}

	return domain.Result{Reply: text, Context: conv.WithStage(stage)}
}

// handleInput validates and captures the reply of an input node. A rejected
// reply re-prompts without advancing the stage; an accepted one stores the
// value and immediately enters the next node in the same turn.
func (it *Interpreter) handleInput(ctx context.Context, graph *domain.FlowGraph, node *domain.Node, text string, conv domain.Context) domain.Result {
	validation := domain.ValidationText
	if node.Input != nil && node.Input.Validation != "" {
		validation = node.Input.Validation
	}

	value, ok := ValidateInput(text, validation)
	if !ok {
		if it.hooks.OnValidation != nil {
			it.hooks.OnValidation(ctx, &domain.ValidationEvent{
				Timestamp:  time.Now(),
				NodeID:     node.ID,
				Validation: validation,
			})
		}
		return domain.Result{Reply: it.messages.Reprompt(validation), Context: conv}
	}

	captured := conv.WithVar(CaptureKey(node.Input), value)

	edge := graph.EdgeFrom(node.ID)
	if edge == nil {
		it.logger.Warn("input node has no outgoing edge", "node_id", node.ID, "flow_id", graph.ID)
		return domain.Result{Context: captured}
	}
	target := graph.NodeByID(edge.Target)
	if target == nil {
		it.logger.Warn("input node edge points to a missing node",
			"node_id", node.ID, "target", edge.Target, "flow_id", graph.ID)
		return domain.Result{Context: captured}
	}

	return it.enterNode(ctx, graph, target, captured)
}

// handleCondition matches the trimmed reply literally against the node's
// choices and follows the edge labeled with the matched text.
func (it *Interpreter) handleCondition(ctx context.Context, graph *domain.FlowGraph, node *domain.Node, text string, conv domain.Context) domain.Result {
	choices := it.choices(node)
	trimmed := strings.TrimSpace(text)

	var choice string
	for _, c := range choices {
		if strings.TrimSpace(c) == trimmed {
			choice = c
			break
		}
	}
	if choice == "" {
		return domain.Result{Reply: it.choicePrompt(node), Context: conv}
	}

	edge := graph.EdgeLabeled(node.ID, choice)
	if edge == nil {
		it.logger.Error("condition choice has no labeled edge",
			"node_id", node.ID, "choice", choice, "flow_id", graph.ID)
		return domain.Result{Reply: it.messages.MisconfiguredOption, Context: conv}
	}
	target := graph.NodeByID(edge.Target)
	if target == nil {
		it.logger.Error("condition edge points to a missing node",
			"node_id", node.ID, "target", edge.Target, "flow_id", graph.ID)
		return domain.Result{Reply: it.messages.MisconfiguredOption, Context: conv}
	}

	return it.enterNode(ctx, graph, target, conv.WithIntent(choice))
}

// handleMenu handles legacy menu nodes: a 1-based numeric reply (or the
// literal option text) selects an option. Without an explicit nextNode the
// selection answers from a fixed canned-response table, a relic of an earlier
// product iteration kept for compatibility.
func (it *Interpreter) handleMenu(ctx context.Context, graph *domain.FlowGraph, node *domain.Node, text string, conv domain.Context) domain.Result {
	trimmed := strings.TrimSpace(text)

	idx := 0
	if n, err := strconv.Atoi(trimmed); err == nil && n >= 1 && n <= len(node.Options) {
		idx = n
	} else {
		for i, opt := range node.Options {
			if strings.TrimSpace(opt) == trimmed {
				idx = i + 1
				break
			}
		}
	}
	if idx == 0 {
		return domain.Result{Reply: it.choicePrompt(node), Context: conv}
	}

	selected := conv.WithIntent(node.Options[idx-1])

	if node.NextNode != "" {
		if target := graph.NodeByID(node.NextNode); target != nil {
			return it.enterNode(ctx, graph, target, selected)
		}
		it.logger.Warn("menu nextNode does not exist", "node_id", node.ID, "next", node.NextNode)
		return domain.Result{Reply: it.messages.MisconfiguredOption, Context: conv}
	}

	reply, ok := it.messages.LegacyMenu[idx]
	if !ok {
		reply = it.messages.DidNotUnderstand
	}
	// The menu stays current so the user can pick again.
	return domain.Result{Reply: reply, Context: selected.WithStage(node.ID)}
}

// handleTransfer produces the hand-off signal. Terminal for the interpreter:
// no further dispatch happens in the same turn.
func (it *Interpreter) handleTransfer(node *domain.Node, conv domain.Context) domain.Result {
	reply := it.messages.Transfer
	department := it.messages.DefaultDepartment

	if node.Transfer != nil && node.Transfer.Label != "" {
		reply = node.Transfer.Label
	} else if node.Content != "" {
		reply = node.Content
	}
	if node.Transfer != nil && node.Transfer.Department != "" {
		department = node.Transfer.Department
	} else if node.Content != "" {
		department = node.Content
	}

	return domain.Result{
		Reply:           Substitute(reply, conv.UserData),
		Context:         conv.WithStage(domain.StageTransfer),
		TransferToHuman: true,
		Department:      department,
	}
}

func (it *Interpreter) endConversation(node *domain.Node, conv domain.Context) domain.Result {
	return domain.Result{
		Reply:           Substitute(node.Content, conv.UserData),
		Context:         conv.WithStage(node.ID),
		EndConversation: true,
	}
}

func (it *Interpreter) choices(node *domain.Node) []string {
	if node.Condition != nil && len(node.Condition.Choices) > 0 {
		return node.Condition.Choices
	}
	return node.Options
}

func (it *Interpreter) choicePrompt(node *domain.Node) string {
	choices := it.choices(node)
	if len(choices) == 0 {
		return it.messages.DidNotUnderstand
	}

	var b strings.Builder
	b.WriteString(it.messages.ChooseOption)
	if node.Type == domain.NodeMenu {
		for i, c := range choices {
			b.WriteString("\n")
			b.WriteString(strconv.Itoa(i + 1))
			b.WriteString(". ")
			b.WriteString(c)
		}
	} else {
		for _, c := range choices {
			b.WriteString("\n- ")
			b.WriteString(c)
		}
	}
	return b.String()
}
