package domain

// Stage sentinels. Any other stage value is the id of the node the
// conversation is currently parked at.
const (
	// StageInitial marks a conversation that has not entered the flow yet.
	StageInitial = "initial"
	// StageTransfer marks a conversation handed off to a human operator.
	StageTransfer = "transfer"
	// StageMainMenu is the recovery stage used when the persisted stage no
	// longer resolves to a node in the active graph.
	StageMainMenu = "main_menu"
)

// Context is the per-conversation state carried between turns.
//
// It is an immutable value: the With* helpers return a copy, so the
// interpreter's "returns a new context, never mutates the input" contract
// holds at the type level. Copies are cheap (the UserData map is small).
type Context struct {
	// Stage is the id of the node the previous turn left off at, or one of
	// the sentinels above.
	Stage string `json:"stage"`

	// UserData maps captured variable names to their values.
	UserData map[string]string `json:"userData"`

	// LastIntent is the last matched choice or keyword, informational only.
	LastIntent string `json:"lastIntent,omitempty"`

	// Turns counts processed (non-silent) turns. Zero means the next inbound
	// message is the first of the conversation, which makes the trigger fire
	// unconditionally.
	Turns int `json:"turns,omitempty"`
}

// NewContext returns the default context for a freshly opened conversation.
func NewContext() Context {
	return Context{Stage: StageInitial, UserData: map[string]string{}}
}

// Var returns the captured value for name, if any.
func (c Context) Var(name string) (string, bool) {
	v, ok := c.UserData[name]
	return v, ok
}

// WithStage returns a copy of the context parked at the given stage.
func (c Context) WithStage(stage string) Context {
	next := c.clone()
	next.Stage = stage
	return next
}

// WithVar returns a copy of the context with name captured as value.
func (c Context) WithVar(name, value string) Context {
	next := c.clone()
	next.UserData[name] = value
	return next
}

// WithIntent returns a copy of the context with the last matched intent set.
func (c Context) WithIntent(intent string) Context {
	next := c.clone()
	next.LastIntent = intent
	return next
}

// WithTurn returns a copy of the context with the turn counter advanced.
func (c Context) WithTurn() Context {
	next := c.clone()
	next.Turns++
	return next
}

func (c Context) clone() Context {
	next := c
	next.UserData = make(map[string]string, len(c.UserData))
	for k, v := range c.UserData {
		next.UserData[k] = v
	}
	return next
}
