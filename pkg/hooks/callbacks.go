package hooks

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// RequestFunc observes a turn before the request handler runs
// (RequestStarted, SessionStarted).
type RequestFunc func(ctx context.Context, ev *domain.Event, reply domain.Reply) error

// RequestHandler produces the reply for a request type. A nil reply defers to
// the other handlers of the chain. SessionEnded callbacks share this shape.
type RequestHandler func(ctx context.Context, ev *domain.Event, reply domain.Reply) (domain.Reply, error)

// StateFunc runs before a state resolves a transition (BeforeStateChanged).
type StateFunc func(ctx context.Context, ev *domain.Event, reply domain.Reply, state *domain.State) error

// TransitionFunc runs after a transition was resolved (AfterStateChanged).
// Returning a non-nil transition replaces the current one.
type TransitionFunc func(ctx context.Context, ev *domain.Event, reply domain.Reply, t *domain.Transition) (*domain.Transition, error)

// UnhandledFunc is offered an intent no state handler accepted (UnhandledState).
// Returning nil declines.
type UnhandledFunc func(ctx context.Context, ev *domain.Event, reply domain.Reply, state *domain.State) (*domain.Transition, error)

// ReplyFunc runs once per turn before the reply leaves the pipeline (BeforeReplySent).
type ReplyFunc func(ctx context.Context, ev *domain.Event, reply domain.Reply, t *domain.Transition) error

// ErrorFunc turns a failed turn into a reply. reply is fresh for every callback.
// Returning a nil reply defers to the next callback.
type ErrorFunc func(ctx context.Context, ev *domain.Event, err error, reply domain.Reply) (domain.Reply, error)
