package statemachine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/hooks"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxSteps bounds how many transitions a single turn may chain.
const DefaultMaxSteps = 32

const scope = "github.com/aretw0/parley/internal/statemachine"

// Result is the outcome of one Run.
type Result struct {
	// Transition is the last resolved transition. Its To names State.
	Transition *domain.Transition
	// State is where the conversation rests: the yield target or the terminal sentinel.
	State *domain.State
	// Steps counts resolved transitions, routing steps included.
	Steps int
}

// Hooks are the chains the machine fires around each step.
type Hooks struct {
	Before    *hooks.Chain[hooks.StateFunc]
	After     *hooks.Chain[hooks.TransitionFunc]
	Unhandled *hooks.Chain[hooks.UnhandledFunc]
}

// Machine drives a graph from a starting state until it yields or terminates.
type Machine struct {
	resolver *Resolver
	hooks    Hooks
	maxSteps int
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures a Machine.
type Option func(*Machine)

// WithMaxSteps overrides DefaultMaxSteps. Values below 1 are ignored.
func WithMaxSteps(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.maxSteps = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithTracer sets the tracer used for per-step spans.
func WithTracer(t trace.Tracer) Option {
	return func(m *Machine) {
		if t != nil {
			m.tracer = t
		}
	}
}

// NewMachine creates a machine over g. Nil chains in h are treated as empty.
func NewMachine(g *Graph, h Hooks, opts ...Option) *Machine {
	if h.Before == nil {
		h.Before = hooks.NewChain[hooks.StateFunc]()
	}
	if h.After == nil {
		h.After = hooks.NewChain[hooks.TransitionFunc]()
	}
	if h.Unhandled == nil {
		h.Unhandled = hooks.NewChain[hooks.UnhandledFunc]()
	}
	m := &Machine{
		resolver: NewResolver(g),
		hooks:    h,
		maxSteps: DefaultMaxSteps,
		logger:   logging.NewNop(),
		tracer:   otel.Tracer(scope),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartState returns the state a turn begins in given what the previous turn
// persisted. New sessions, missing values and the terminal sentinel map to the root.
func StartState(ev *domain.Event) string {
	if ev == nil || ev.Session.New {
		return domain.StateEntry
	}
	name := ev.PersistedState()
	if name == "" || name == domain.StateDie {
		return domain.StateEntry
	}
	return name
}

// Run executes steps starting at from until a transition yields or terminates.
func (m *Machine) Run(ctx context.Context, from string, ev *domain.Event, reply domain.Reply) (*Result, error) {
	current := from
	for step := 0; ; step++ {
		if step >= m.maxSteps {
			return nil, fmt.Errorf("%w: %d steps from %q", domain.ErrTransitionLoop, step, from)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		t, target, err := m.step(ctx, current, ev, reply)
		if err != nil {
			return nil, err
		}

		m.logger.Debug("transition",
			"session_id", ev.Session.ID,
			"state", current,
			"intent", ev.IntentName(),
			"to", target.Name,
			"flow", string(t.Flow))

		if t.Flow == domain.FlowContinue && !target.IsTerminal {
			current = target.Name
			continue
		}
		return &Result{Transition: t, State: target, Steps: step + 1}, nil
	}
}

func (m *Machine) step(ctx context.Context, name string, ev *domain.Event, reply domain.Reply) (t *domain.Transition, target *domain.State, err error) {
	ctx, span := m.tracer.Start(ctx, "parley.transition",
		trace.WithAttributes(attribute.String("parley.state", name)))
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()

	state, ok := m.resolver.graph.State(name)
	if !ok {
		return nil, nil, &domain.UnknownStateError{State: name}
	}

	before := m.hooks.Before.Handlers()
	hookEvent(span, hooks.BeforeStateChanged, len(before))
	err = hooks.Each(before, func(fn hooks.StateFunc) error {
		return guard(func() error { return fn(ctx, ev, reply, state) })
	})
	if err != nil {
		return nil, nil, err
	}

	t, err = m.resolver.Resolve(ctx, name, ev)
	var unhandled *domain.UnhandledIntentError
	if errors.As(err, &unhandled) {
		hookEvent(span, hooks.UnhandledState, len(m.hooks.Unhandled.Handlers()))
		t, err = m.unhandled(ctx, ev, reply, state, err)
	}
	if err != nil {
		return nil, nil, err
	}

	after := m.hooks.After.Handlers()
	hookEvent(span, hooks.AfterStateChanged, len(after))
	for _, fn := range after {
		var next *domain.Transition
		err = guard(func() (err error) {
			next, err = fn(ctx, ev, reply, t)
			return err
		})
		if err != nil {
			return nil, nil, err
		}
		if next != nil {
			t = next
		}
	}
	if t.Flow == "" {
		t.Flow = domain.FlowYield
	}

	target, err = m.resolver.Target(name, t)
	if err != nil {
		return nil, nil, err
	}
	span.SetAttributes(attribute.String("parley.to", target.Name), attribute.String("parley.flow", string(t.Flow)))
	return t, target, nil
}

// unhandled offers the intent to the UnhandledState chain. The last transition
// returned wins; when every callback declines the original error is kept.
func (m *Machine) unhandled(ctx context.Context, ev *domain.Event, reply domain.Reply, state *domain.State, cause error) (*domain.Transition, error) {
	t, found, err := hooks.Last(m.hooks.Unhandled.Handlers(),
		func(fn hooks.UnhandledFunc) (t *domain.Transition, err error) {
			err = guard(func() (err error) {
				t, err = fn(ctx, ev, reply, state)
				return err
			})
			return t, err
		},
		func(t *domain.Transition) bool { return t != nil })
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, cause
	}
	m.logger.Debug("unhandled intent recovered", "state", state.Name, "intent", ev.IntentName())
	t = t.Clone()
	if t.Flow == "" {
		t.Flow = domain.FlowYield
	}
	return t, nil
}

func hookEvent(span trace.Span, name hooks.Name, n int) {
	span.AddEvent("parley.hook", trace.WithAttributes(
		attribute.String("parley.hook", name.String()),
		attribute.Int("parley.handlers", n)))
}

// guard converts a panic in fn into a *domain.PanicError.
func guard(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &domain.PanicError{Value: rec, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// Resolver exposes the machine's resolver.
func (m *Machine) Resolver() *Resolver {
	return m.resolver
}
