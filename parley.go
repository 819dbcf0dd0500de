package parley

import (
	"log/slog"
	"sync"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/internal/statemachine"
	"github.com/aretw0/parley/pkg/directive"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/hooks"
	"github.com/aretw0/parley/pkg/model"
	"github.com/aretw0/parley/pkg/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultErrorMessage is spoken by the built-in error handler.
const DefaultErrorMessage = "An unrecoverable error occurred."

const tracerScope = "github.com/aretw0/parley"

// App is a conversational application: a state graph plus the lifecycle
// hooks that run around it on every turn.
//
// Configure it (OnState, OnIntent, On<Hook>) before the first Execute. The
// graph is sealed by the first turn; after that App is safe for concurrent use.
type App struct {
	graph      *statemachine.Graph
	machine    *statemachine.Machine
	directives *directive.Set

	models   ports.ModelFactory
	renderer domain.Renderer
	appIDs   map[string]struct{}
	maxSteps int
	logger   *slog.Logger
	tracer   trace.Tracer

	defaultErrorReply bool
	modelSet          bool
	configErr         error

	requestStarted *hooks.Chain[hooks.RequestFunc]
	sessionStarted *hooks.Chain[hooks.RequestFunc]
	sessionEnded   *hooks.Chain[hooks.RequestHandler]
	onError        *hooks.Chain[hooks.ErrorFunc]
	beforeState    *hooks.Chain[hooks.StateFunc]
	afterState     *hooks.Chain[hooks.TransitionFunc]
	beforeReply    *hooks.Chain[hooks.ReplyFunc]
	unhandled      *hooks.Chain[hooks.UnhandledFunc]
	requests       *hooks.Registry[hooks.RequestHandler]

	sealOnce sync.Once
}

// Option configures an App.
type Option func(*App)

// WithModel sets the factory that hydrates the conversation model of each
// turn. Defaults to model.MapFactory.
func WithModel(f ports.ModelFactory) Option {
	return func(a *App) {
		a.models = f
		a.modelSet = true
	}
}

// WithRenderer sets the renderer attached to every event.
func WithRenderer(r domain.Renderer) Option {
	return func(a *App) {
		a.renderer = r
	}
}

// WithAppIDs restricts the app to events whose context carries one of ids.
// Without it every application id is accepted.
func WithAppIDs(ids ...string) Option {
	return func(a *App) {
		if a.appIDs == nil {
			a.appIDs = make(map[string]struct{}, len(ids))
		}
		for _, id := range ids {
			a.appIDs[id] = struct{}{}
		}
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMaxSteps bounds how many continue transitions a turn may chain.
func WithMaxSteps(n int) Option {
	return func(a *App) {
		a.maxSteps = n
	}
}

// WithDirective registers a handler for a transition key. Built-in keys
// (say, text, reply, sayp, textp) can be overridden.
func WithDirective(key string, h directive.Handler) Option {
	return func(a *App) {
		if key == "" || h == nil {
			a.configErr = &domain.ConfigurationError{Reason: "directive needs a key and a handler"}
			return
		}
		a.directives.Register(key, h)
	}
}

// WithTracer sets the tracer for turn and transition spans.
// Defaults to the global otel tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(a *App) {
		if t != nil {
			a.tracer = t
		}
	}
}

// WithoutDefaultErrorReply skips the built-in "unrecoverable error" reply.
// Failed turns then return the original reply with the error attached unless
// an OnError hook answers.
func WithoutDefaultErrorReply() Option {
	return func(a *App) {
		a.defaultErrorReply = false
	}
}

// New creates an App.
func New(opts ...Option) (*App, error) {
	a := &App{
		graph:             statemachine.NewGraph(),
		directives:        directive.Defaults(),
		maxSteps:          statemachine.DefaultMaxSteps,
		logger:            logging.NewNop(),
		tracer:            otel.Tracer(tracerScope),
		defaultErrorReply: true,

		requestStarted: hooks.NewChain[hooks.RequestFunc](),
		sessionStarted: hooks.NewChain[hooks.RequestFunc](),
		sessionEnded:   hooks.NewChain[hooks.RequestHandler](),
		onError:        hooks.NewChain[hooks.ErrorFunc](),
		beforeState:    hooks.NewChain[hooks.StateFunc](),
		afterState:     hooks.NewChain[hooks.TransitionFunc](),
		beforeReply:    hooks.NewChain[hooks.ReplyFunc](),
		unhandled:      hooks.NewChain[hooks.UnhandledFunc](),
		requests:       hooks.NewRegistry[hooks.RequestHandler](),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.configErr != nil {
		return nil, a.configErr
	}
	if a.modelSet && a.models == nil {
		return nil, &domain.ConfigurationError{Reason: "model factory is nil"}
	}
	if a.models == nil {
		a.models = model.MapFactory()
	}
	if a.maxSteps < 1 {
		return nil, &domain.ConfigurationError{Reason: "max steps must be positive"}
	}

	a.machine = statemachine.NewMachine(a.graph, statemachine.Hooks{
		Before:    a.beforeState,
		After:     a.afterState,
		Unhandled: a.unhandled,
	},
		statemachine.WithMaxSteps(a.maxSteps),
		statemachine.WithLogger(a.logger),
		statemachine.WithTracer(a.tracer),
	)

	a.registerBuiltins()
	return a, nil
}

// registerBuiltins wires the default behavior as hooks, the same way a
// developer would extend it.
func (a *App) registerBuiltins() {
	a.requestStarted.Add(a.hydrate)

	a.requests.Register(domain.RequestIntent).Add(a.runStateMachine, hooks.RunLast())
	a.requests.Register(domain.RequestSessionEnded).Add(a.endSession, hooks.RunLast())

	a.afterState.Add(a.applyDirectives, hooks.RunLast())
	a.beforeReply.Add(a.persist, hooks.RunLast())

	if a.defaultErrorReply {
		a.onError.Add(defaultErrorReply, hooks.RunLast())
	}
}

// OnState declares a state. With no intents the handler is the state's
// default; otherwise it answers each named intent.
func (a *App) OnState(name string, h domain.Handler, intents ...string) error {
	return a.graph.Declare(name, h, intents...)
}

// OnIntent routes intent from the root state to a state of the same name
// that runs h.
func (a *App) OnIntent(intent string, h domain.Handler) error {
	return a.graph.DeclareIntent(intent, h)
}

// Inspect returns copies of the declared states.
func (a *App) Inspect() []domain.State {
	return a.graph.States()
}

// Validate checks the graph for routes to undeclared states.
func (a *App) Validate() error {
	return a.graph.Validate()
}

// RequestTypes lists the request types the app accepts.
func (a *App) RequestTypes() []string {
	return a.requests.Names()
}

var _ ports.TurnExecutor = (*App)(nil)
