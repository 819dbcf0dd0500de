package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/reply"
	"github.com/aretw0/parley/pkg/session"
)

// Session end reasons sent by the runner.
const (
	ReasonUserInitiated = "USER_INITIATED"
)

// DefaultSessionID is used when no session id is configured.
const DefaultSessionID = "local"

// ErrNoExecutor is returned by Run when the runner has nothing to drive.
var ErrNoExecutor = errors.New("runner: no turn executor")

// Runner drives a conversation from an IOHandler: it reads lines, turns them
// into events and prints each reply until the session terminates.
type Runner struct {
	exec     ports.TurnExecutor
	sessions *session.Manager
	handler  IOHandler
	logger   *slog.Logger

	sessionID  string
	sessionKey string
	locale     string
	appID     string
	launch    bool

	// attrs holds the session when no manager is configured.
	attrs  map[string]any
	active bool
}

// New creates a runner for exec.
func New(exec ports.TurnExecutor, opts ...Option) *Runner {
	r := &Runner{
		exec:      exec,
		logger:    logging.NewNop(),
		sessionID: DefaultSessionID,
		locale:    "en-US",
		launch:    true,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.handler == nil {
		r.handler = NewTextHandler(nil, nil)
	}
	return r
}

// Run executes the conversation loop. It returns nil when the session
// terminates, the input is exhausted, the user quits or a signal arrives.
// Leaving an open session sends a SessionEndedRequest first.
func (r *Runner) Run(ctx context.Context) error {
	if r.exec == nil {
		return ErrNoExecutor
	}
	signals := NewSignalManager(ctx)
	defer signals.Stop()

	if r.launch {
		ended, err := r.turn(ctx, &domain.Event{Request: domain.Request{Type: domain.RequestLaunch}})
		if err != nil || ended {
			return err
		}
	}

	for {
		text, err := r.handler.Input(signals.Context())
		if err != nil {
			signals.CheckRace()
			switch {
			case signals.Interrupted():
				r.logger.Debug("runner interrupted", "session_id", r.sessionID)
				return r.end(ctx, ReasonUserInitiated)
			case ctx.Err() != nil:
				_ = r.end(ctx, ReasonUserInitiated)
				return ctx.Err()
			case errors.Is(err, io.EOF):
				return r.end(ctx, ReasonUserInitiated)
			}
			return fmt.Errorf("input error: %w", err)
		}

		line, err := ParseLine(text)
		if err != nil {
			_ = r.handler.SystemOutput(ctx, err.Error())
			continue
		}
		if line.Empty() {
			continue
		}

		if line.Command != "" {
			done, err := r.command(ctx, line.Command)
			if err != nil || done {
				return err
			}
			continue
		}

		if err := SanitizeIntent(line.Intent); err != nil {
			_ = r.handler.SystemOutput(ctx, err.Error())
			continue
		}
		ended, err := r.turn(ctx, &domain.Event{
			Request: domain.Request{Type: domain.RequestIntent, Intent: line.Intent},
		})
		if err != nil || ended {
			return err
		}
	}
}

// command runs a slash command and reports whether the loop should stop.
func (r *Runner) command(ctx context.Context, cmd string) (bool, error) {
	switch cmd {
	case CmdQuit:
		return true, r.end(ctx, ReasonUserInitiated)
	case CmdState:
		attrs, err := r.load(ctx)
		if err != nil {
			return false, err
		}
		ev := domain.Event{Session: domain.Session{Attributes: attrs}}
		state := ev.PersistedState()
		if state == "" {
			state = "(none)"
		}
		return false, r.handler.SystemOutput(ctx, "state: "+state)
	case CmdReset:
		if err := r.reset(ctx); err != nil {
			return false, err
		}
		return false, r.handler.SystemOutput(ctx, "session reset")
	case CmdHelp:
		return false, r.handler.SystemOutput(ctx, help)
	}
	return false, r.handler.SystemOutput(ctx, fmt.Sprintf("unknown command /%s, try /help", cmd))
}

const help = `Type an intent name, optionally followed by key=value params.
Commands: /state /reset /help /quit`

// turn sends ev, prints the reply and reports whether the session terminated.
func (r *Runner) turn(ctx context.Context, ev *domain.Event) (bool, error) {
	ev.Session.ID = r.sessionID
	ev.Request.Locale = r.locale
	ev.Context.ApplicationID = r.appID
	ev.NormalizeLaunch()

	var out domain.Reply
	if r.sessions != nil {
		var err error
		if out, err = r.sessions.TurnKey(ctx, r.key(), ev, r.exec, nil); err != nil {
			return false, fmt.Errorf("turn: %w", err)
		}
	} else {
		ev.Session.Attributes = r.attrs
		ev.Session.New = !r.active
		out = r.exec.Execute(ctx, ev, nil)
		r.attrs = out.SessionAttributes()
	}

	ended := out.IsTerminated()
	r.active = !ended
	if ended {
		r.attrs = nil
	}
	if err := r.handler.Output(ctx, reply.ViewOf(out)); err != nil {
		return ended, fmt.Errorf("output error: %w", err)
	}

	r.logger.Debug("turn finished",
		"session_id", r.sessionID,
		"intent", ev.IntentName(),
		"terminated", ended)
	return ended, nil
}

// end notifies the app that an open session is being abandoned.
func (r *Runner) end(ctx context.Context, reason string) error {
	if !r.active {
		return nil
	}
	ctx = context.WithoutCancel(ctx)
	_, err := r.turn(ctx, &domain.Event{
		Request: domain.Request{Type: domain.RequestSessionEnded, Reason: reason},
	})
	r.active = false
	return err
}

// key is where the session manager stores this conversation.
func (r *Runner) key() string {
	if r.sessionKey != "" {
		return r.sessionKey
	}
	return r.sessionID
}

func (r *Runner) load(ctx context.Context) (map[string]any, error) {
	if r.sessions == nil {
		return r.attrs, nil
	}
	attrs, err := r.sessions.Load(ctx, r.key())
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, nil
	}
	return attrs, err
}

func (r *Runner) reset(ctx context.Context) error {
	r.attrs = nil
	r.active = false
	if r.sessions == nil {
		return nil
	}
	err := r.sessions.Delete(ctx, r.key())
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("reset session: %w", err)
	}
	return nil
}
