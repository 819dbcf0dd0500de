package parley

import (
	"context"
	"errors"
	"runtime/debug"

	"github.com/aretw0/parley/internal/statemachine"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/hooks"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/reply"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Execute runs one turn and always returns a reply. Failures are turned into
// a reply by the error hooks; the error is attached with Reply.SetError.
//
// A nil newReply uses reply.Factory.
func (a *App) Execute(ctx context.Context, ev *domain.Event, newReply ports.ReplyFactory) (out domain.Reply) {
	if newReply == nil {
		newReply = reply.Factory
	}
	if ev == nil {
		ev = &domain.Event{}
	}
	a.sealOnce.Do(a.graph.Seal)

	ctx, span := a.tracer.Start(ctx, "parley.turn", trace.WithAttributes(
		attribute.String("parley.request_type", ev.Request.Type),
		attribute.String("parley.intent", ev.IntentName()),
		attribute.String("parley.session_id", ev.Session.ID),
	))
	defer span.End()

	r := newReply(ev)
	defer func() {
		if rec := recover(); rec != nil {
			err := &domain.PanicError{Value: rec, Stack: debug.Stack()}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			out = a.handleError(ctx, ev, err, r, newReply)
		}
	}()

	res, err := a.execute(ctx, ev, r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return a.handleError(ctx, ev, err, r, newReply)
	}
	return res
}

func (a *App) execute(ctx context.Context, ev *domain.Event, r domain.Reply) (domain.Reply, error) {
	if len(a.appIDs) > 0 {
		if _, ok := a.appIDs[ev.Context.ApplicationID]; !ok {
			return nil, &domain.InvalidApplicationIDError{ApplicationID: ev.Context.ApplicationID}
		}
	}

	chain, ok := a.requests.Chain(ev.Request.Type)
	if !ok {
		return nil, &domain.UnknownRequestTypeError{RequestType: ev.Request.Type}
	}

	a.logger.Debug("turn started",
		"session_id", ev.Session.ID,
		"request_type", ev.Request.Type,
		"intent", ev.IntentName())

	if ev.Request.Type == domain.RequestIntent || ev.Request.Type == domain.RequestSessionEnded {
		if err := a.runRequestHooks(ctx, hooks.RequestStarted, a.requestStarted, ev, r); err != nil {
			return nil, err
		}
		if ev.Request.Type == domain.RequestSessionEnded && ev.Request.Reason == domain.SessionEndedReasonError {
			return nil, &domain.SessionEndedError{Payload: ev.Request.Error}
		}
		// Every intent and session-ended turn, not only the first one.
		// Handlers that care check ev.Session.New.
		if err := a.runRequestHooks(ctx, hooks.SessionStarted, a.sessionStarted, ev, r); err != nil {
			return nil, err
		}
	}

	out, found, err := hooks.Last(chain.Handlers(),
		func(fn hooks.RequestHandler) (out domain.Reply, err error) {
			err = guard(func() (err error) {
				out, err = fn(ctx, ev, r)
				return err
			})
			return out, err
		},
		func(out domain.Reply) bool { return out != nil })
	if err != nil {
		return nil, err
	}
	if !found {
		return r, nil
	}
	return out, nil
}

func (a *App) runRequestHooks(ctx context.Context, name hooks.Name, c *hooks.Chain[hooks.RequestFunc], ev *domain.Event, r domain.Reply) error {
	handlers := c.Handlers()
	a.traceHooks(ctx, name, len(handlers))
	return hooks.Each(handlers, func(fn hooks.RequestFunc) error {
		return guard(func() error { return fn(ctx, ev, r) })
	})
}

// traceHooks records on the turn span, and at debug level, that the
// handlers of a lifecycle hook are about to run.
func (a *App) traceHooks(ctx context.Context, name hooks.Name, n int) {
	trace.SpanFromContext(ctx).AddEvent("parley.hook", trace.WithAttributes(
		attribute.String("parley.hook", name.String()),
		attribute.Int("parley.handlers", n)))
	a.logger.Debug("running hooks", "hook", name.String(), "handlers", n)
}

// hydrate attaches the model and renderer to the event.
func (a *App) hydrate(ctx context.Context, ev *domain.Event, r domain.Reply) error {
	m, err := a.models.FromEvent(ctx, ev)
	if err != nil {
		return err
	}
	ev.Model = m
	if a.renderer != nil {
		ev.Renderer = a.renderer
	}
	return nil
}

// runStateMachine is the built-in IntentRequest handler.
func (a *App) runStateMachine(ctx context.Context, ev *domain.Event, r domain.Reply) (domain.Reply, error) {
	res, err := a.machine.Run(ctx, statemachine.StartState(ev), ev, r)
	if err != nil {
		return nil, err
	}

	out := r
	if res.State.IsTerminal {
		r.Terminate()
		if out, err = a.endSession(ctx, ev, r); err != nil {
			return nil, err
		}
	}

	beforeReply := a.beforeReply.Handlers()
	a.traceHooks(ctx, hooks.BeforeReplySent, len(beforeReply))
	err = hooks.Each(beforeReply, func(fn hooks.ReplyFunc) error {
		return guard(func() error { return fn(ctx, ev, out, res.Transition) })
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// endSession runs the SessionEnded hooks. The last non-nil reply wins.
func (a *App) endSession(ctx context.Context, ev *domain.Event, r domain.Reply) (domain.Reply, error) {
	ended := a.sessionEnded.Handlers()
	a.traceHooks(ctx, hooks.SessionEnded, len(ended))
	out, found, err := hooks.Last(ended,
		func(fn hooks.RequestHandler) (out domain.Reply, err error) {
			err = guard(func() (err error) {
				out, err = fn(ctx, ev, r)
				return err
			})
			return out, err
		},
		func(out domain.Reply) bool { return out != nil })
	if err != nil {
		return nil, err
	}
	if !found {
		return r, nil
	}
	return out, nil
}

func (a *App) applyDirectives(ctx context.Context, ev *domain.Event, r domain.Reply, t *domain.Transition) (*domain.Transition, error) {
	return nil, a.directives.Apply(ctx, ev, r, t)
}

// persist writes the serialized model, tagged with the resolved state, into
// the reply's session attributes.
func (a *App) persist(ctx context.Context, ev *domain.Event, r domain.Reply, t *domain.Transition) error {
	data := map[string]any{}
	if ev.Model != nil {
		serialized, err := ev.Model.Serialize(ctx)
		if err != nil {
			return err
		}
		for k, v := range serialized {
			data[k] = v
		}
	}
	data[domain.KeyState] = t.To

	attrs := make(map[string]any, len(ev.Session.Attributes)+1)
	for k, v := range ev.Session.Attributes {
		attrs[k] = v
	}
	attrs[domain.KeyModel] = data
	r.SetSessionAttributes(attrs)
	return nil
}

// handleError asks the error hooks for a reply. It never fails: without an
// answer the original reply is returned.
func (a *App) handleError(ctx context.Context, ev *domain.Event, cause error, original domain.Reply, newReply ports.ReplyFactory) domain.Reply {
	a.logger.Error("turn failed",
		"session_id", ev.Session.ID,
		"request_type", ev.Request.Type,
		"intent", ev.IntentName(),
		"err", cause)

	errorHandlers := a.onError.Handlers()
	a.traceHooks(ctx, hooks.Error, len(errorHandlers))
	out, ok := hooks.First(errorHandlers,
		func(fn hooks.ErrorFunc) (out domain.Reply, err error) {
			err = guard(func() (err error) {
				out, err = fn(ctx, ev, cause, newReply(ev))
				return err
			})
			return out, err
		},
		func(out domain.Reply) bool { return out != nil },
		func(err error) {
			a.logger.Error("error hook failed", "session_id", ev.Session.ID, "err", err)
		})
	if !ok {
		a.logger.Warn(domain.ErrNoErrorReply.Error(), "session_id", ev.Session.ID)
		out = original
	}
	// A failed turn leaves the conversation where the previous turn put it.
	if len(out.SessionAttributes()) == 0 && len(ev.Session.Attributes) > 0 {
		attrs := make(map[string]any, len(ev.Session.Attributes))
		for k, v := range ev.Session.Attributes {
			attrs[k] = v
		}
		out.SetSessionAttributes(attrs)
	}
	out.SetError(cause)
	return out
}

func defaultErrorReply(ctx context.Context, ev *domain.Event, err error, r domain.Reply) (domain.Reply, error) {
	r.Clear()
	r.AddStatement(DefaultErrorMessage)
	r.Terminate()
	return r, nil
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

// IsPanic reports whether err carries a recovered panic.
func IsPanic(err error) bool {
	var p *domain.PanicError
	return errors.As(err, &p)
}
