// Package ws serves conversations over websockets. Each connection is one
// session driven by a runner.Runner: text frames carry input lines (intent
// names, key=value params, JSON intents or slash commands) and the server
// answers with JSON Message frames.
package ws

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/reply"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/aretw0/parley/pkg/session"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// MaxMessageSize bounds inbound frames.
const MaxMessageSize = 8 << 10

// Message types.
const (
	TypeReply  = "reply"
	TypeSystem = "system"
)

// Message is one outbound frame.
type Message struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	Reply     *reply.View `json:"reply,omitempty"`
	Text      string      `json:"text,omitempty"`
}

// Handler upgrades requests and runs one conversation per connection.
type Handler struct {
	exec     ports.TurnExecutor
	sessions *session.Manager
	upgrader websocket.Upgrader
	logger   *slog.Logger
	appID    func(*http.Request) string
}

// Option configures the Handler.
type Option func(*Handler)

// WithSessions stores attributes through m, so a client reconnecting with the
// same session_id resumes its conversation.
func WithSessions(m *session.Manager) Option {
	return func(h *Handler) {
		h.sessions = m
	}
}

// WithLogger configures a logger for the Handler.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithCheckOrigin replaces the same-origin check of the upgrader.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(h *Handler) {
		h.upgrader.CheckOrigin = fn
	}
}

// WithApplicationID resolves the application id of a connection, e.g. from
// the context set by an authentication middleware.
func WithApplicationID(fn func(*http.Request) string) Option {
	return func(h *Handler) {
		h.appID = fn
	}
}

// NewHandler creates a websocket handler for exec.
func NewHandler(exec ports.TurnExecutor, opts ...Option) *Handler {
	h := &Handler{
		exec:   exec,
		logger: logging.NewNop(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP upgrades the request. Query parameters: session_id (generated
// when absent) and locale.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(MaxMessageSize)

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	c := &Conn{ws: conn, sessionID: sessionID}

	opts := []runner.Option{
		runner.WithHandler(c),
		runner.WithSessionID(sessionID),
		runner.WithLogger(h.logger),
	}
	if locale := r.URL.Query().Get("locale"); locale != "" {
		opts = append(opts, runner.WithLocale(locale))
	}
	if h.sessions != nil {
		opts = append(opts, runner.WithSessions(h.sessions))
	}
	if h.appID != nil {
		appID := h.appID(r)
		opts = append(opts,
			runner.WithApplicationID(appID),
			runner.WithSessionKey(session.Key(appID, sessionID)))
	}

	h.logger.Debug("websocket session opened", "session_id", sessionID)
	if err := runner.New(h.exec, opts...).Run(context.WithoutCancel(r.Context())); err != nil {
		h.logger.Error("websocket session failed", "session_id", sessionID, "err", err)
		c.close(websocket.CloseInternalServerErr, "internal error")
		return
	}
	c.close(websocket.CloseNormalClosure, "session ended")
}

// Conn adapts a websocket connection to runner.IOHandler.
type Conn struct {
	ws        *websocket.Conn
	sessionID string
	mu        sync.Mutex
}

var _ runner.IOHandler = (*Conn)(nil)

func (c *Conn) write(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg.SessionID = c.sessionID
	return c.ws.WriteJSON(msg)
}

func (c *Conn) close(code int, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	deadline := time.Now().Add(time.Second)
	_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), deadline)
}

// Output sends the reply frame.
func (c *Conn) Output(ctx context.Context, v reply.View) error {
	return c.write(Message{Type: TypeReply, Reply: &v})
}

// Input reads one text frame. A closed connection reads as io.EOF.
func (c *Conn) Input(ctx context.Context) (string, error) {
	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
				return "", io.EOF
			}
			return "", err
		}
		if kind != websocket.TextMessage {
			continue
		}
		line, err := runner.SanitizeInput(string(data))
		if err != nil {
			_ = c.SystemOutput(ctx, err.Error())
			continue
		}
		return line, nil
	}
}

// SystemOutput sends a system frame.
func (c *Conn) SystemOutput(ctx context.Context, msg string) error {
	return c.write(Message{Type: TypeSystem, Text: msg})
}
