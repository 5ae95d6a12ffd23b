package schema

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/atendo/atendo/pkg/domain"
)

// flowDoc mirrors the JSON document produced by the flow editor.
type flowDoc struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	IsActive bool      `json:"isActive"`
	Nodes    []nodeDoc `json:"nodes"`
	Edges    []edgeDoc `json:"edges"`
}

type nodeDoc struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Content string         `json:"content,omitempty"`
	Options []string       `json:"options,omitempty"`
	Data    map[string]any `json:"data,omitempty"`

	// Legacy flat fields still present in old documents.
	NextNode string `json:"nextNode,omitempty"`
}

type edgeDoc struct {
	ID     string `json:"id,omitempty"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}

// triggerData, inputData and transferData use mapstructure tags matching the
// keys the editor writes into the "data" bag.
type triggerData struct {
	TriggerType string   `mapstructure:"triggerType"`
	Keywords    []string `mapstructure:"keywords"`
}

type inputData struct {
	VariableName string `mapstructure:"variableName"`
	Validation   string `mapstructure:"validation"`
	Label        string `mapstructure:"label"`
}

type conditionData struct {
	Conditions []string `mapstructure:"conditions"`
}

type transferData struct {
	Department string `mapstructure:"department"`
	Label      string `mapstructure:"label"`
}

// Decode parses a wire JSON document into a FlowGraph, mapping each node's
// free-form data bag into the typed config for its node type. Unknown node
// types are kept as-is; the interpreter treats them as terminal.
func Decode(data []byte) (*domain.FlowGraph, error) {
	var doc flowDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse flow document: %w", err)
	}
	if doc.ID == "" {
		return nil, fmt.Errorf("flow document missing id")
	}

	graph := &domain.FlowGraph{
		ID:     doc.ID,
		Name:   doc.Name,
		Active: doc.IsActive,
		Nodes:  make([]domain.Node, 0, len(doc.Nodes)),
		Edges:  make([]domain.Edge, 0, len(doc.Edges)),
	}

	for _, nd := range doc.Nodes {
		node, err := decodeNode(nd)
		if err != nil {
			return nil, err
		}
		graph.Nodes = append(graph.Nodes, node)
	}

	for _, ed := range doc.Edges {
		graph.Edges = append(graph.Edges, domain.Edge(ed))
	}

	return graph, nil
}

func decodeNode(nd nodeDoc) (domain.Node, error) {
	if nd.ID == "" {
		return domain.Node{}, fmt.Errorf("node missing id")
	}

	node := domain.Node{
		ID:       nd.ID,
		Type:     domain.NodeType(nd.Type),
		Content:  nd.Content,
		Options:  nd.Options,
		NextNode: nd.NextNode,
	}

	switch node.Type {
	case domain.NodeTrigger:
		var d triggerData
		if err := decodeData(nd, &d); err != nil {
			return domain.Node{}, err
		}
		node.Trigger = &domain.TriggerConfig{
			Mode:     domain.TriggerMode(d.TriggerType),
			Keywords: d.Keywords,
		}
		if node.Trigger.Mode == "" {
			node.Trigger.Mode = domain.TriggerKeyword
		}
		// Legacy documents keep the trigger successor in nextNode.
		if next, ok := nd.Data["nextNode"].(string); ok && node.NextNode == "" {
			node.NextNode = next
		}

	case domain.NodeInput, domain.NodeQuestion:
		var d inputData
		if err := decodeData(nd, &d); err != nil {
			return domain.Node{}, err
		}
		node.Input = &domain.InputConfig{
			Variable:   d.VariableName,
			Validation: domain.Validation(d.Validation),
			Label:      d.Label,
		}

	case domain.NodeCondition:
		var d conditionData
		if err := decodeData(nd, &d); err != nil {
			return domain.Node{}, err
		}
		node.Condition = &domain.ConditionConfig{Choices: d.Conditions}

	case domain.NodeTransfer:
		var d transferData
		if err := decodeData(nd, &d); err != nil {
			return domain.Node{}, err
		}
		node.Transfer = &domain.TransferConfig{
			Department: d.Department,
			Label:      d.Label,
		}
	}

	return node, nil
}

func decodeData(nd nodeDoc, out any) error {
	if len(nd.Data) == 0 {
		return nil
	}
	if err := mapstructure.Decode(nd.Data, out); err != nil {
		return fmt.Errorf("node %s: invalid data for type %q: %w", nd.ID, nd.Type, err)
	}
	return nil
}

// Encode serializes a FlowGraph back into the wire document format, including
// the per-type data bag, so round-tripping through the editor is lossless.
func Encode(graph *domain.FlowGraph) ([]byte, error) {
	doc := flowDoc{
		ID:       graph.ID,
		Name:     graph.Name,
		IsActive: graph.Active,
		Nodes:    make([]nodeDoc, 0, len(graph.Nodes)),
		Edges:    make([]edgeDoc, 0, len(graph.Edges)),
	}

	for _, n := range graph.Nodes {
		nd := nodeDoc{
			ID:       n.ID,
			Type:     string(n.Type),
			Content:  n.Content,
			Options:  n.Options,
			NextNode: n.NextNode,
		}
		data := map[string]any{}
		switch {
		case n.Trigger != nil:
			data["triggerType"] = string(n.Trigger.Mode)
			if len(n.Trigger.Keywords) > 0 {
				data["keywords"] = n.Trigger.Keywords
			}
		case n.Input != nil:
			if n.Input.Variable != "" {
				data["variableName"] = n.Input.Variable
			}
			if n.Input.Validation != "" {
				data["validation"] = string(n.Input.Validation)
			}
			if n.Input.Label != "" {
				data["label"] = n.Input.Label
			}
		case n.Condition != nil:
			if len(n.Condition.Choices) > 0 {
				data["conditions"] = n.Condition.Choices
			}
		case n.Transfer != nil:
			if n.Transfer.Department != "" {
				data["department"] = n.Transfer.Department
			}
			if n.Transfer.Label != "" {
				data["label"] = n.Transfer.Label
			}
		}
		if len(data) > 0 {
			nd.Data = data
		}
		doc.Nodes = append(doc.Nodes, nd)
	}

	for _, e := range graph.Edges {
		doc.Edges = append(doc.Edges, edgeDoc(e))
	}

	return json.MarshalIndent(doc, "", "  ")
}
