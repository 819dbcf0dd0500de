package observability

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/hooks"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// Hookable is the hook surface instrumentation attaches to. *parley.App
// satisfies it.
type Hookable interface {
	OnBeforeStateChanged(fn hooks.StateFunc, opts ...hooks.Option)
	OnAfterStateChanged(fn hooks.TransitionFunc, opts ...hooks.Option)
	OnUnhandledState(fn hooks.UnhandledFunc, opts ...hooks.Option)
	OnError(fn hooks.ErrorFunc, opts ...hooks.Option)
}

// Turn outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeEnded = "ended"
	OutcomeError = "error"
)

// Metrics holds the parley collectors.
type Metrics struct {
	turns       *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	visits      *prometheus.CounterVec
	transitions *prometheus.CounterVec
	unhandled   *prometheus.CounterVec
	errors      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_turns_total",
			Help: "Turns executed, by request type and outcome",
		}, []string{"request_type", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "parley_turn_duration_seconds",
			Help:    "Duration of turns",
			Buckets: prometheus.DefBuckets,
		}, []string{"request_type"}),
		visits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_state_visits_total",
			Help: "Times a state was entered",
		}, []string{"state"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_transitions_total",
			Help: "Resolved transitions, by flow",
		}, []string{"flow"}),
		unhandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_unhandled_intents_total",
			Help: "Intents no state handler accepted",
		}, []string{"state", "intent"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parley_errors_total",
			Help: "Failed turns, by error kind",
		}, []string{"kind"}),
	}
	for _, c := range []prometheus.Collector{m.turns, m.duration, m.visits, m.transitions, m.unhandled, m.errors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Instrument attaches the counting hooks to app. None of them alter the turn.
func (m *Metrics) Instrument(app Hookable) {
	app.OnBeforeStateChanged(func(ctx context.Context, ev *domain.Event, r domain.Reply, s *domain.State) error {
		m.visits.WithLabelValues(s.Name).Inc()
		return nil
	})
	app.OnAfterStateChanged(func(ctx context.Context, ev *domain.Event, r domain.Reply, t *domain.Transition) (*domain.Transition, error) {
		flow := t.Flow
		if flow == "" {
			flow = domain.FlowYield
		}
		m.transitions.WithLabelValues(string(flow)).Inc()
		return nil, nil
	})
	app.OnUnhandledState(func(ctx context.Context, ev *domain.Event, r domain.Reply, s *domain.State) (*domain.Transition, error) {
		m.unhandled.WithLabelValues(s.Name, ev.IntentName()).Inc()
		return nil, nil
	})
	app.OnError(func(ctx context.Context, ev *domain.Event, err error, r domain.Reply) (domain.Reply, error) {
		m.errors.WithLabelValues(ErrorKind(err)).Inc()
		return nil, nil
	})
}

// Wrap times every turn of exec.
func (m *Metrics) Wrap(exec ports.TurnExecutor) ports.TurnExecutor {
	return &timedExecutor{TurnExecutor: exec, m: m}
}

type timedExecutor struct {
	ports.TurnExecutor
	m *Metrics
}

func (e *timedExecutor) Execute(ctx context.Context, ev *domain.Event, newReply ports.ReplyFactory) domain.Reply {
	start := time.Now()
	requestType := ""
	if ev != nil {
		requestType = ev.Request.Type
	}

	r := e.TurnExecutor.Execute(ctx, ev, newReply)

	outcome := OutcomeOK
	switch {
	case r.Error() != nil:
		outcome = OutcomeError
	case r.IsTerminated():
		outcome = OutcomeEnded
	}
	e.m.turns.WithLabelValues(requestType, outcome).Inc()
	e.m.duration.WithLabelValues(requestType).Observe(time.Since(start).Seconds())
	return r
}

// ErrorKind maps an error to a low-cardinality label.
func ErrorKind(err error) string {
	var (
		unknownType *domain.UnknownRequestTypeError
		unknownSt   *domain.UnknownStateError
		unhandled   *domain.UnhandledIntentError
		appID       *domain.InvalidApplicationIDError
		ended       *domain.SessionEndedError
		panicked    *domain.PanicError
		config      *domain.ConfigurationError
	)
	switch {
	case errors.As(err, &panicked):
		return "panic"
	case errors.As(err, &unknownType):
		return "unknown_request_type"
	case errors.As(err, &unknownSt):
		return "unknown_state"
	case errors.As(err, &unhandled):
		return "unhandled_intent"
	case errors.As(err, &appID):
		return "invalid_application_id"
	case errors.As(err, &ended):
		return "session_ended"
	case errors.As(err, &config):
		return "configuration"
	case errors.Is(err, domain.ErrTransitionLoop):
		return "transition_loop"
	case errors.Is(err, domain.ErrMissingView):
		return "missing_view"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "other"
}
