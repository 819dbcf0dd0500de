package domain

// State is a named node of the conversation graph.
type State struct {
	// Name is unique within the graph.
	Name string

	// Enter maps an intent name (or StateEntry for the default) to its handler.
	Enter map[string]Handler

	// To routes intents to other states. Only the synthetic root uses it.
	To map[string]string

	// IsTerminal marks the sink the conversation ends in.
	IsTerminal bool
}

// NewState creates an empty state.
func NewState(name string) *State {
	return &State{
		Name:  name,
		Enter: make(map[string]Handler),
		To:    make(map[string]string),
	}
}

// TerminalState returns the "die" sentinel.
func TerminalState() *State {
	return &State{Name: StateDie, IsTerminal: true}
}

// Intents lists the intent keys this state reacts to, including routes.
func (s *State) Intents() []string {
	keys := make([]string, 0, len(s.Enter)+len(s.To))
	for k := range s.Enter {
		keys = append(keys, k)
	}
	for k := range s.To {
		if _, dup := s.Enter[k]; !dup {
			keys = append(keys, k)
		}
	}
	return keys
}
