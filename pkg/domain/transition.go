package domain

// Flow controls whether the state machine loops again after a step.
type Flow string

const (
	// FlowYield stops the loop and waits for the next external turn.
	FlowYield Flow = "yield"
	// FlowContinue enters the target state immediately within the same turn.
	FlowContinue Flow = "continue"
	// FlowTerminate ends the conversation.
	FlowTerminate Flow = "terminate"
)

// Valid reports whether f is one of the known flows.
func (f Flow) Valid() bool {
	switch f {
	case FlowYield, FlowContinue, FlowTerminate:
		return true
	}
	return false
}

// Transition is the canonical outcome of resolving one step.
//
// Say, Text and Reply hold view keys for the renderer. Directives keeps any
// other key verbatim for the after-state-changed directive handlers.
type Transition struct {
	To         string         `json:"to,omitempty" yaml:"to,omitempty" mapstructure:"to"`
	Flow       Flow           `json:"flow,omitempty" yaml:"flow,omitempty" mapstructure:"flow"`
	Say        []string       `json:"say,omitempty" yaml:"say,omitempty" mapstructure:"say"`
	Text       []string       `json:"text,omitempty" yaml:"text,omitempty" mapstructure:"text"`
	Reply      []string       `json:"reply,omitempty" yaml:"reply,omitempty" mapstructure:"reply"`
	Directives map[string]any `json:"directives,omitempty" yaml:"directives,omitempty" mapstructure:",remain"`
}

// Clone returns a copy safe to mutate without touching the graph definition.
func (t *Transition) Clone() *Transition {
	if t == nil {
		return nil
	}
	c := *t
	c.Say = append([]string(nil), t.Say...)
	c.Text = append([]string(nil), t.Text...)
	c.Reply = append([]string(nil), t.Reply...)
	if t.Directives != nil {
		c.Directives = make(map[string]any, len(t.Directives))
		for k, v := range t.Directives {
			c.Directives[k] = v
		}
	}
	return &c
}

// IsTerminal reports whether the transition ends the conversation.
func (t *Transition) IsTerminal() bool {
	return t != nil && (t.Flow == FlowTerminate || t.To == StateDie)
}
