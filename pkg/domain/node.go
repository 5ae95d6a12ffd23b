package domain

// NodeType identifies the control-flow behavior of a node.
type NodeType string

const (
	// NodeTrigger decides whether the flow starts answering a conversation.
	NodeTrigger NodeType = "trigger"
	// NodeMessage sends static content and moves on (soft step).
	NodeMessage NodeType = "message"
	// NodeInput waits for a user reply and captures it into a variable (hard step).
	NodeInput NodeType = "input"
	// NodeCondition branches on the user's literal choice, matched against edge labels.
	NodeCondition NodeType = "condition"
	// NodeTransfer hands the conversation off to a human queue (terminal).
	NodeTransfer NodeType = "transfer"
	// NodeEnd closes the conversation.
	NodeEnd NodeType = "end"

	// NodeMenu and NodeQuestion are legacy types from an earlier product
	// iteration. Menu selects by 1-based numeric reply, question is an untyped
	// input. Kept as a compatibility table, not extended.
	NodeMenu     NodeType = "menu"
	NodeQuestion NodeType = "question"
)

// TriggerMode controls how a trigger node gates flow entry.
type TriggerMode string

const (
	// TriggerAny fires on any inbound text.
	TriggerAny TriggerMode = "any"
	// TriggerKeyword fires only when the text contains one of the keywords.
	TriggerKeyword TriggerMode = "keyword"
)

// Validation names the input check applied by an input node.
type Validation string

const (
	ValidationText   Validation = "text"
	ValidationEmail  Validation = "email"
	ValidationPhone  Validation = "phone"
	ValidationNumber Validation = "number"
)

// TriggerConfig holds the entry gate parameters of a trigger node.
type TriggerConfig struct {
	Mode     TriggerMode `json:"mode,omitempty"`
	Keywords []string    `json:"keywords,omitempty"`
}

// InputConfig holds the capture parameters of an input node.
type InputConfig struct {
	// Variable is the userData key the reply is stored under. When empty the
	// key is derived from Label (see flow.CaptureKey).
	Variable   string     `json:"variable,omitempty"`
	Validation Validation `json:"validation,omitempty"`
	Label      string     `json:"label,omitempty"`
}

// ConditionConfig holds the acceptable choices of a condition node.
type ConditionConfig struct {
	Choices []string `json:"choices,omitempty"`
}

// TransferConfig holds the hand-off parameters of a transfer node.
type TransferConfig struct {
	Department string `json:"department,omitempty"`
	Label      string `json:"label,omitempty"`
}

// Node is a single step in the flow graph. Exactly one of the typed config
// pointers is set, matching Type; the persisted free-form "data" bag is mapped
// into these at the store boundary (pkg/schema), never inside the interpreter.
type Node struct {
	ID      string   `json:"id"`
	Type    NodeType `json:"type"`
	Content string   `json:"content,omitempty"`

	// Options is the ordered choice list of legacy menu/condition nodes.
	Options []string `json:"options,omitempty"`

	// NextNode is the legacy explicit successor used by menu and trigger nodes
	// authored before edges existed.
	NextNode string `json:"nextNode,omitempty"`

	Trigger   *TriggerConfig   `json:"trigger,omitempty"`
	Input     *InputConfig     `json:"input,omitempty"`
	Condition *ConditionConfig `json:"condition,omitempty"`
	Transfer  *TransferConfig  `json:"transfer,omitempty"`
}

// Edge is a directed connection between two nodes. Label is only meaningful on
// edges leaving a condition node, where it must equal the user's choice text.
type Edge struct {
	ID     string `json:"id,omitempty"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}
