package dsl

import (
	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/loader"
)

// Builder manages the graph construction.
type Builder struct {
	def    *loader.Definition
	states map[string]*StateBuilder
}

// New creates a builder for the graph called name.
func New(name string) *Builder {
	return &Builder{
		def: &loader.Definition{
			Name:    name,
			Intents: make(map[string]*domain.Transition),
			States:  make(map[string]map[string]*domain.Transition),
		},
		states: make(map[string]*StateBuilder),
	}
}

// AppIDs restricts the app to the given application ids.
func (b *Builder) AppIDs(ids ...string) *Builder {
	b.def.AppIDs = append(b.def.AppIDs, ids...)
	return b
}

// Model declares a typed field of the conversation model.
func (b *Builder) Model(field, typ string) *Builder {
	if b.def.Model == nil {
		b.def.Model = make(map[string]string)
	}
	b.def.Model[field] = typ
	return b
}

// Default seeds a model field in new sessions.
func (b *Builder) Default(field string, value any) *Builder {
	if b.def.Defaults == nil {
		b.def.Defaults = make(map[string]any)
	}
	b.def.Defaults[field] = value
	return b
}

// Intent declares a root intent. Calling it again for the same intent
// returns the same transition.
func (b *Builder) Intent(name string) *TransitionBuilder {
	t, ok := b.def.Intents[name]
	if !ok {
		t = &domain.Transition{}
		b.def.Intents[name] = t
	}
	return &TransitionBuilder{t: t}
}

// State returns the builder of the named state, creating it if needed.
func (b *Builder) State(name string) *StateBuilder {
	if sb, ok := b.states[name]; ok {
		return sb
	}
	entries := make(map[string]*domain.Transition)
	b.def.States[name] = entries
	sb := &StateBuilder{entries: entries}
	b.states[name] = sb
	return sb
}

// Definition returns the graph built so far. It shares memory with the
// builder.
func (b *Builder) Definition() *loader.Definition {
	return b.def
}

// Build creates and validates an app from the graph.
func (b *Builder) Build(opts ...parley.Option) (*parley.App, error) {
	return b.def.Build(opts...)
}

// StateBuilder declares the transitions of one state.
type StateBuilder struct {
	entries map[string]*domain.Transition
}

// On returns the transition taken on intent.
func (s *StateBuilder) On(intent string) *TransitionBuilder {
	t, ok := s.entries[intent]
	if !ok {
		t = &domain.Transition{}
		s.entries[intent] = t
	}
	return &TransitionBuilder{t: t}
}

// Entry returns the default transition, taken when the state is entered by a
// continue flow or no intent matches.
func (s *StateBuilder) Entry() *TransitionBuilder {
	return s.On(domain.StateEntry)
}

// TransitionBuilder provides a fluent API for configuring a transition.
type TransitionBuilder struct {
	t *domain.Transition
}

// Go moves to target and waits for the next turn.
func (tb *TransitionBuilder) Go(target string) *TransitionBuilder {
	tb.t.To = target
	tb.t.Flow = domain.FlowYield
	return tb
}

// Continue enters target within the same turn.
func (tb *TransitionBuilder) Continue(target string) *TransitionBuilder {
	tb.t.To = target
	tb.t.Flow = domain.FlowContinue
	return tb
}

// Terminal ends the conversation.
func (tb *TransitionBuilder) Terminal() *TransitionBuilder {
	tb.t.To = ""
	tb.t.Flow = domain.FlowTerminate
	return tb
}

// Say appends view keys rendered as speech.
func (tb *TransitionBuilder) Say(keys ...string) *TransitionBuilder {
	tb.t.Say = append(tb.t.Say, keys...)
	return tb
}

// Text appends view keys rendered as display text.
func (tb *TransitionBuilder) Text(keys ...string) *TransitionBuilder {
	tb.t.Text = append(tb.t.Text, keys...)
	return tb
}

// Reply appends view keys rendered as whole replies.
func (tb *TransitionBuilder) Reply(keys ...string) *TransitionBuilder {
	tb.t.Reply = append(tb.t.Reply, keys...)
	return tb
}

// Directive sets a custom directive handled by the app's directive handlers.
func (tb *TransitionBuilder) Directive(key string, value any) *TransitionBuilder {
	if tb.t.Directives == nil {
		tb.t.Directives = make(map[string]any)
	}
	tb.t.Directives[key] = value
	return tb
}

// Build returns a copy of the transition.
func (tb *TransitionBuilder) Build() domain.Transition {
	return *tb.t.Clone()
}
