package parley

import (
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/hooks"
)

// OnRequestStarted runs before anything else on intent and session-ended
// requests. The model is already hydrated.
func (a *App) OnRequestStarted(fn hooks.RequestFunc, opts ...hooks.Option) {
	a.requestStarted.Add(fn, opts...)
}

// OnSessionStarted runs after OnRequestStarted on every intent and
// session-ended turn. Handlers check ev.Session.New for first turns.
func (a *App) OnSessionStarted(fn hooks.RequestFunc, opts ...hooks.Option) {
	a.sessionStarted.Add(fn, opts...)
}

// OnSessionEnded runs when a turn reaches the terminal state or a
// SessionEndedRequest arrives. The last non-nil reply wins.
func (a *App) OnSessionEnded(fn hooks.RequestHandler, opts ...hooks.Option) {
	a.sessionEnded.Add(fn, opts...)
}

// OnError turns a failed turn into a reply. The first non-nil reply wins.
func (a *App) OnError(fn hooks.ErrorFunc, opts ...hooks.Option) {
	a.onError.Add(fn, opts...)
}

// OnBeforeStateChanged runs before each state resolves its transition.
func (a *App) OnBeforeStateChanged(fn hooks.StateFunc, opts ...hooks.Option) {
	a.beforeState.Add(fn, opts...)
}

// OnAfterStateChanged runs after each transition is resolved and may
// replace it.
func (a *App) OnAfterStateChanged(fn hooks.TransitionFunc, opts ...hooks.Option) {
	a.afterState.Add(fn, opts...)
}

// OnBeforeReplySent runs once per intent turn before the reply is returned.
// The built-in persistence hook always runs last.
func (a *App) OnBeforeReplySent(fn hooks.ReplyFunc, opts ...hooks.Option) {
	a.beforeReply.Add(fn, opts...)
}

// OnUnhandledState is offered intents that no state handler accepted.
// The last non-nil transition wins.
func (a *App) OnUnhandledState(fn hooks.UnhandledFunc, opts ...hooks.Option) {
	a.unhandled.Add(fn, opts...)
}

// RegisterRequestType makes the app accept requestType. Registering an
// existing type keeps its handlers.
func (a *App) RegisterRequestType(requestType string) {
	a.requests.Register(requestType)
}

// OnRequest adds a handler to the chain of a registered request type.
func (a *App) OnRequest(requestType string, fn hooks.RequestHandler, opts ...hooks.Option) error {
	c, ok := a.requests.Chain(requestType)
	if !ok {
		return &domain.UnknownRequestTypeError{RequestType: requestType}
	}
	c.Add(fn, opts...)
	return nil
}
