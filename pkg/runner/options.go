package runner

import (
	"log/slog"

	"github.com/aretw0/parley/pkg/session"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithSessions stores attributes through a session.Manager between turns.
// Without it the runner keeps them in memory.
func WithSessions(m *session.Manager) Option {
	return func(r *Runner) {
		r.sessions = m
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithHandler configures the IOHandler. The default is a TextHandler on
// stdin and stdout.
func WithHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.handler = handler
	}
}

// WithSessionID sets the conversation id. The default is "local".
func WithSessionID(id string) Option {
	return func(r *Runner) {
		if id != "" {
			r.sessionID = id
		}
	}
}

// WithSessionKey stores the session under key instead of the session id.
func WithSessionKey(key string) Option {
	return func(r *Runner) {
		r.sessionKey = key
	}
}

// WithLocale sets the locale sent with every request.
func WithLocale(locale string) Option {
	return func(r *Runner) {
		r.locale = locale
	}
}

// WithApplicationID sets the application id sent with every request.
func WithApplicationID(id string) Option {
	return func(r *Runner) {
		r.appID = id
	}
}

// WithoutLaunch skips the LaunchRequest sent before the first prompt.
func WithoutLaunch() Option {
	return func(r *Runner) {
		r.launch = false
	}
}
