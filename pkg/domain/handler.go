package domain

import "context"

// Handler is the entry behavior of a state for one intent.
//
// It is a closed union of Literal, HandlerFunc and Routes; the resolver
// matches on the concrete type.
type Handler interface {
	handler()
}

// Literal is a transition declared as data.
type Literal Transition

// HandlerFunc computes a transition at run time. It may block on I/O and must
// honor ctx. Returning (nil, nil) declines the intent.
type HandlerFunc func(ctx context.Context, ev *Event) (*Transition, error)

// Routes maps intent names to state names. Declaring Routes on a state fills
// its To table; the synthetic root uses it to dispatch intents.
type Routes map[string]string

func (Literal) handler()     {}
func (HandlerFunc) handler() {}
func (Routes) handler()      {}

// Transition returns the literal as a fresh Transition.
func (l Literal) Transition() *Transition {
	t := Transition(l)
	return t.Clone()
}
