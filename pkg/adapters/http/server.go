package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/inspect"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/reply"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/aretw0/parley/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MaxBodySize bounds the JSON body of a turn.
const MaxBodySize = 1 << 20

// TurnResponse is the body answered by POST /v1/turns and pushed to SSE
// subscribers.
type TurnResponse struct {
	EventID   string     `json:"event_id"`
	SessionID string     `json:"session_id"`
	Reply     reply.View `json:"reply"`
}

// SessionResponse is the body answered by GET /v1/sessions/{id}.
type SessionResponse struct {
	SessionID  string         `json:"session_id"`
	State      string         `json:"state,omitempty"`
	Attributes map[string]any `json:"attributes"`
}

// Server exposes a TurnExecutor over HTTP.
type Server struct {
	exec     ports.TurnExecutor
	sessions *session.Manager
	streams  *StreamManager
	auth     *Authenticator
	gatherer prometheus.Gatherer
	mounts   map[string]http.Handler
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithSessions keeps session attributes server side. Without it clients must
// round-trip session.attributes themselves.
func WithSessions(m *session.Manager) Option {
	return func(s *Server) {
		s.sessions = m
	}
}

// WithAuthenticator requires a bearer token on every /v1 route.
func WithAuthenticator(a *Authenticator) Option {
	return func(s *Server) {
		s.auth = a
	}
}

// WithMetrics serves g on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithMount serves h on /v1/pattern, behind the same authentication as the
// other /v1 routes. The websocket transport is mounted this way.
func WithMount(pattern string, h http.Handler) Option {
	return func(s *Server) {
		if s.mounts == nil {
			s.mounts = make(map[string]http.Handler)
		}
		s.mounts[pattern] = h
	}
}

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a Server for exec.
func NewServer(exec ports.TurnExecutor, opts ...Option) *Server {
	s := &Server{
		exec:   exec,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.streams = NewStreamManager(s.logger)
	return s
}

// NewHandler creates the HTTP handler for exec.
func NewHandler(exec ports.TurnExecutor, opts ...Option) http.Handler {
	return NewServer(exec, opts...).Handler()
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		if s.auth != nil {
			r.Use(s.auth.Middleware)
		}
		r.Post("/turns", s.PostTurn)
		r.Get("/graph", s.GetGraph)
		r.Get("/events", s.SubscribeEvents)
		r.Get("/sessions/{id}", s.GetSession)
		r.Delete("/sessions/{id}", s.DeleteSession)
		for pattern, h := range s.mounts {
			r.Handle(pattern, h)
		}
	})
	return r
}

// Streams returns the SSE fan-out of the server.
func (s *Server) Streams() *StreamManager {
	return s.streams
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PostTurn handles POST /v1/turns. The body is a domain.Event; a missing
// session id starts a new session with a generated id. With WithSessions the
// body's session.attributes are ignored.
func (s *Server) PostTurn(w http.ResponseWriter, r *http.Request) {
	var ev domain.Event
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodySize)).Decode(&ev); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("turn: invalid request body", "err", err)
		return
	}

	if ev.Request.Type == "" && ev.Request.Intent != nil {
		ev.Request.Type = domain.RequestIntent
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Session.ID == "" {
		ev.Session.ID = uuid.NewString()
		ev.Session.New = true
	}
	ev.NormalizeLaunch()
	if ev.Request.Intent != nil {
		if err := runner.SanitizeIntent(ev.Request.Intent); err != nil {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid intent: %v", err))
			s.logger.Warn("turn: intent rejected", "session_id", ev.Session.ID, "err", err)
			return
		}
	}
	if appID, ok := ApplicationID(r.Context()); ok {
		ev.Context.ApplicationID = appID
	}
	key := sessionKey(r, ev.Session.ID)

	var out domain.Reply
	if s.sessions != nil {
		// The stored session is authoritative.
		ev.Session.Attributes = nil
		var err error
		out, err = s.sessions.TurnKey(r.Context(), key, &ev, s.exec, nil)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "session error")
			s.logger.Error("turn: session failed", "session_id", ev.Session.ID, "err", err)
			return
		}
	} else {
		out = s.exec.Execute(r.Context(), &ev, nil)
	}

	resp := TurnResponse{
		EventID:   ev.ID,
		SessionID: ev.Session.ID,
		Reply:     reply.ViewOf(out),
	}
	if payload, err := json.Marshal(resp); err == nil {
		s.streams.Broadcast(key, string(payload))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetGraph handles GET /v1/graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, inspect.Describe(s.exec.Inspect()))
}

// GetSession handles GET /v1/sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		writeJSONError(w, http.StatusNotImplemented, "sessions are not stored by this server")
		return
	}
	id := chi.URLParam(r, "id")
	attrs, err := s.sessions.Load(r.Context(), sessionKey(r, id))
	if errors.Is(err, domain.ErrSessionNotFound) {
		writeJSONError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "session error")
		s.logger.Error("load session failed", "session_id", id, "err", err)
		return
	}

	ev := domain.Event{Session: domain.Session{Attributes: attrs}}
	writeJSON(w, http.StatusOK, SessionResponse{SessionID: id, State: ev.PersistedState(), Attributes: attrs})
}

// DeleteSession handles DELETE /v1/sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		writeJSONError(w, http.StatusNotImplemented, "sessions are not stored by this server")
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.sessions.Delete(r.Context(), sessionKey(r, id)); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		writeJSONError(w, http.StatusInternalServerError, "session error")
		s.logger.Error("delete session failed", "session_id", id, "err", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "parley-http",
		"version": parley.Version,
	})
}

// SubscribeEvents handles GET /v1/events?session_id=... (SSE). Every turn of
// the session is pushed as a "turn" event carrying a TurnResponse.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeJSONError(w, http.StatusBadRequest, "session_id is required")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe(sessionKey(r, sessionID))
	defer cancel()
	s.logger.Debug("SSE subscribed", "session_id", sessionID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: turn\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// sessionKey scopes id to the application of the request's token, so one
// application cannot read, delete or watch another one's sessions.
func sessionKey(r *http.Request, id string) string {
	appID, _ := ApplicationID(r.Context())
	return session.Key(appID, id)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
