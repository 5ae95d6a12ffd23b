package schema

import (
	"fmt"

	"github.com/atendo/atendo/pkg/domain"
)

// Warning is a non-fatal graph authoring problem. The interpreter degrades
// gracefully on all of them, but an administrator should fix the flow.
type Warning struct {
	NodeID string
	Reason string
}

func (w Warning) String() string {
	if w.NodeID == "" {
		return w.Reason
	}
	return fmt.Sprintf("node %s: %s", w.NodeID, w.Reason)
}

// Lint inspects a flow graph for authoring mistakes: duplicate node ids,
// edges referencing unknown nodes, a trigger with no way into the flow, and
// condition choices with no matching labeled edge.
func Lint(graph *domain.FlowGraph) []Warning {
	var warnings []Warning

	seen := make(map[string]bool, len(graph.Nodes))
	for _, n := range graph.Nodes {
		if seen[n.ID] {
			warnings = append(warnings, Warning{NodeID: n.ID, Reason: "duplicate node id"})
		}
		seen[n.ID] = true
	}

	if len(graph.Nodes) == 0 {
		warnings = append(warnings, Warning{Reason: "flow has no nodes"})
		return warnings
	}

	for _, e := range graph.Edges {
		if !seen[e.Source] {
			warnings = append(warnings, Warning{NodeID: e.Source, Reason: "edge source references unknown node"})
		}
		if !seen[e.Target] {
			warnings = append(warnings, Warning{NodeID: e.Source, Reason: fmt.Sprintf("edge target %q does not exist", e.Target)})
		}
	}

	trig := graph.TriggerNode()
	if trig == nil {
		warnings = append(warnings, Warning{Reason: "flow has no trigger node; first node will be used as entry"})
	} else if graph.EdgeFrom(trig.ID) == nil && trig.NextNode == "" {
		warnings = append(warnings, Warning{NodeID: trig.ID, Reason: "trigger has no outgoing edge; conversations cannot enter the flow"})
	}

	for _, n := range graph.Nodes {
		if n.Type != domain.NodeCondition {
			continue
		}
		choices := n.Options
		if n.Condition != nil && len(n.Condition.Choices) > 0 {
			choices = n.Condition.Choices
		}
		if len(choices) == 0 {
			warnings = append(warnings, Warning{NodeID: n.ID, Reason: "condition node has no choices"})
			continue
		}
		for _, choice := range choices {
			if graph.EdgeLabeled(n.ID, choice) == nil {
				warnings = append(warnings, Warning{NodeID: n.ID, Reason: fmt.Sprintf("choice %q has no labeled edge", choice)})
			}
		}
	}

	return warnings
}
