package statemachine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
)

// Graph holds the declared states. It is mutable until Seal is called and
// read-only afterwards.
type Graph struct {
	mu     sync.RWMutex
	states map[string]*domain.State
	order  []string
	sealed bool
}

// NewGraph creates a graph containing only the synthetic root state.
func NewGraph() *Graph {
	g := &Graph{states: make(map[string]*domain.State)}
	g.ensure(domain.StateEntry)
	return g
}

func (g *Graph) ensure(name string) *domain.State {
	s, ok := g.states[name]
	if !ok {
		s = domain.NewState(name)
		g.states[name] = s
		g.order = append(g.order, name)
	}
	return s
}

// Declare adds or merges a state.
//
// Literal and HandlerFunc handlers are stored under each intent, or under
// the entry key when no intent is given. Routes are merged into the To table.
func (g *Graph) Declare(name string, h domain.Handler, intents ...string) error {
	if name == "" {
		return &domain.ConfigurationError{Reason: "state name is empty"}
	}
	if name == domain.StateDie {
		return &domain.ConfigurationError{Reason: fmt.Sprintf("state name %q is reserved", name)}
	}
	if h == nil {
		return &domain.ConfigurationError{Reason: fmt.Sprintf("state %q has no handler", name)}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sealed {
		return domain.ErrGraphSealed
	}

	s := g.ensure(name)
	switch v := h.(type) {
	case domain.Routes:
		for intent, target := range v {
			s.To[intent] = target
		}
	case domain.Literal, domain.HandlerFunc:
		if fn, ok := v.(domain.HandlerFunc); ok && fn == nil {
			return &domain.ConfigurationError{Reason: fmt.Sprintf("state %q has a nil handler func", name)}
		}
		if len(intents) == 0 {
			s.Enter[domain.StateEntry] = v
			return nil
		}
		for _, intent := range intents {
			s.Enter[intent] = v
		}
	default:
		return &domain.ConfigurationError{Reason: fmt.Sprintf("state %q: unsupported handler %T", name, h)}
	}
	return nil
}

// DeclareIntent routes intent from the root to a state of the same name and
// declares that state with h as its default handler.
func (g *Graph) DeclareIntent(intent string, h domain.Handler) error {
	if intent == "" {
		return &domain.ConfigurationError{Reason: "intent name is empty"}
	}
	if err := g.Declare(domain.StateEntry, domain.Routes{intent: intent}); err != nil {
		return err
	}
	return g.Declare(intent, h)
}

// Seal freezes the graph. It is idempotent.
func (g *Graph) Seal() {
	g.mu.Lock()
	g.sealed = true
	g.mu.Unlock()
}

// Sealed reports whether Seal was called.
func (g *Graph) Sealed() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.sealed
}

// State looks up a state. The returned value must not be modified.
func (g *Graph) State(name string) (*domain.State, bool) {
	if name == domain.StateDie {
		return domain.TerminalState(), true
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.states[name]
	return s, ok
}

// States returns copies of every state in declaration order.
func (g *Graph) States() []domain.State {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]domain.State, 0, len(g.order))
	for _, name := range g.order {
		s := g.states[name]
		c := domain.State{
			Name:       s.Name,
			IsTerminal: s.IsTerminal,
			Enter:      make(map[string]domain.Handler, len(s.Enter)),
			To:         make(map[string]string, len(s.To)),
		}
		for k, v := range s.Enter {
			c.Enter[k] = v
		}
		for k, v := range s.To {
			c.To[k] = v
		}
		out = append(out, c)
	}
	return out
}

// Validate checks that every route and literal target names a declared
// state. Handler funcs are opaque and not checked.
func (g *Graph) Validate() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var errs []error
	check := func(from, target string) {
		if target == "" || target == domain.StateDie {
			return
		}
		if _, ok := g.states[target]; !ok {
			errs = append(errs, fmt.Errorf("state %q: %w", from, &domain.UnknownStateError{State: target}))
		}
	}
	for _, name := range g.order {
		s := g.states[name]
		for _, target := range s.To {
			check(name, target)
		}
		for _, h := range s.Enter {
			if lit, ok := h.(domain.Literal); ok && lit.Flow != domain.FlowTerminate {
				check(name, lit.To)
			}
		}
	}
	return errors.Join(errs...)
}
