package domain

// Result is what one interpreter turn produces. Every code path yields a
// well-formed Result; the interpreter never surfaces an error to its caller.
type Result struct {
	// Reply is the outbound text. Empty means the turn is silent (e.g. a
	// keyword-gated trigger that did not fire).
	Reply string `json:"reply,omitempty"`

	// Context is the state to persist for the next turn.
	Context Context `json:"context"`

	// TransferToHuman signals that the conversation should leave the bot
	// queue. Department names the target operator queue.
	TransferToHuman bool   `json:"transferToHuman,omitempty"`
	Department      string `json:"department,omitempty"`

	// EndConversation signals that the caller should close the conversation
	// and reset its context to defaults.
	EndConversation bool `json:"endConversation,omitempty"`
}

// Silent reports whether the turn produced no outbound text and no signal.
func (r Result) Silent() bool {
	return r.Reply == "" && !r.TransferToHuman && !r.EndConversation
}
