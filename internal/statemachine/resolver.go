package statemachine

import (
	"context"
	"fmt"

	"github.com/aretw0/parley/pkg/domain"
)

// Resolver computes the transition a state produces for the current intent.
type Resolver struct {
	graph *Graph
}

// NewResolver creates a resolver over g.
func NewResolver(g *Graph) *Resolver {
	return &Resolver{graph: g}
}

// Resolve picks the handler for ev's intent in state name and runs it.
//
// Lookup order: exact intent in Enter, then the To routes (a continue step),
// then the default entry handler. A handler func returning nil declines.
func (r *Resolver) Resolve(ctx context.Context, name string, ev *domain.Event) (*domain.Transition, error) {
	s, ok := r.graph.State(name)
	if !ok {
		return nil, &domain.UnknownStateError{State: name}
	}
	intent := ev.IntentName()
	unhandled := &domain.UnhandledIntentError{State: name, Intent: intent}

	h, ok := s.Enter[intent]
	if !ok || intent == "" {
		if target, routed := s.To[intent]; routed && intent != "" {
			return &domain.Transition{To: target, Flow: domain.FlowContinue}, nil
		}
		h, ok = s.Enter[domain.StateEntry]
	}
	if !ok {
		return nil, unhandled
	}

	var t *domain.Transition
	switch v := h.(type) {
	case domain.Literal:
		t = v.Transition()
	case domain.HandlerFunc:
		var err error
		t, err = call(ctx, v, ev)
		if err != nil {
			return nil, fmt.Errorf("state %q: %w", name, err)
		}
		if t == nil {
			return nil, unhandled
		}
		t = t.Clone()
	default:
		return nil, unhandled
	}

	if t.Flow == "" {
		t.Flow = domain.FlowYield
	}
	if !t.Flow.Valid() {
		return nil, &domain.ConfigurationError{Reason: fmt.Sprintf("state %q: unknown flow %q", name, t.Flow)}
	}
	return t, nil
}

// Target resolves where t leads when leaving state from.
// Terminal transitions are normalized to the die sentinel.
func (r *Resolver) Target(from string, t *domain.Transition) (*domain.State, error) {
	if t.IsTerminal() {
		t.To = domain.StateDie
		return domain.TerminalState(), nil
	}
	if t.To == "" {
		if t.Flow == domain.FlowContinue {
			return nil, &domain.UnknownStateError{State: ""}
		}
		t.To = from
	}
	s, ok := r.graph.State(t.To)
	if !ok {
		return nil, &domain.UnknownStateError{State: t.To}
	}
	return s, nil
}

func call(ctx context.Context, fn domain.HandlerFunc, ev *domain.Event) (t *domain.Transition, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	err = guard(func() (err error) {
		t, err = fn(ctx, ev)
		return err
	})
	return t, err
}
