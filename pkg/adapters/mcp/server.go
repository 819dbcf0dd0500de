// Package mcp exposes a conversation as Model Context Protocol tools, so an
// agent can drive turns and inspect the state graph.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/inspect"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/reply"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/aretw0/parley/pkg/session"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// GraphURI is the resource holding the described graph.
const GraphURI = "parley://graph"

// TurnArgs are the arguments of the send_turn tool.
type TurnArgs struct {
	Intent      string         `json:"intent,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
	RequestType string         `json:"request_type,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	SessionID   string         `json:"session_id,omitempty"`
	Locale      string         `json:"locale,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// TurnResult is the structured output of the send_turn tool.
type TurnResult struct {
	SessionID string     `json:"session_id" jsonschema_description:"Session to pass back on the next turn"`
	Reply     reply.View `json:"reply" jsonschema_description:"What the application answered"`
}

// Server wraps a TurnExecutor as an MCP server.
type Server struct {
	exec      ports.TurnExecutor
	sessions  *session.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithSessions keeps attributes server side between send_turn calls.
func WithSessions(m *session.Manager) Option {
	return func(s *Server) {
		s.sessions = m
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

// NewServer creates a new MCP Server instance.
func NewServer(exec ports.TurnExecutor, opts ...Option) *Server {
	s := &Server{
		exec:      exec,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("parley-mcp", parley.Version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx ends.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	turnTool := mcp.NewTool("send_turn",
		mcp.WithDescription("Send one turn to the conversation. Omit session_id to start a new session; pass it back afterwards. Without server-side sessions also pass back reply.session_attributes as attributes; with them attributes are ignored."),
		mcp.WithString("intent", mcp.Description("Intent name, e.g. YesIntent. Ignored for LaunchRequest and SessionEndedRequest.")),
		mcp.WithObject("params", mcp.Description("Intent parameters (slots)")),
		mcp.WithString("request_type", mcp.Description("IntentRequest (default), LaunchRequest or SessionEndedRequest")),
		mcp.WithString("reason", mcp.Description("Reason of a SessionEndedRequest")),
		mcp.WithString("session_id", mcp.Description("Session returned by the previous turn")),
		mcp.WithString("locale", mcp.Description("Locale such as en-US")),
		mcp.WithObject("attributes", mcp.Description("Session attributes returned by the previous turn")),
		mcp.WithOutputSchema[TurnResult](),
	)
	s.mcpServer.AddTool(turnTool, mcp.NewStructuredToolHandler(s.handleTurn))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the states and transitions of the conversation."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := s.graphJSON()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("inspect failed: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Conversation graph",
		mcp.WithMIMEType("application/json"),
	), s.readGraph)
}

func (s *Server) readGraph(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := s.graphJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to inspect graph: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      GraphURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) graphJSON() ([]byte, error) {
	return json.Marshal(inspect.Describe(s.exec.Inspect()))
}

func (s *Server) handleTurn(ctx context.Context, request mcp.CallToolRequest, args TurnArgs) (TurnResult, error) {
	ev, err := eventFromArgs(args)
	if err != nil {
		s.logger.Warn("MCP turn rejected", "err", err)
		return TurnResult{}, err
	}

	var out domain.Reply
	if s.sessions != nil {
		// The stored session is authoritative.
		ev.Session.Attributes = nil
		if out, err = s.sessions.Turn(ctx, ev, s.exec, nil); err != nil {
			return TurnResult{}, fmt.Errorf("turn failed: %w", err)
		}
	} else {
		out = s.exec.Execute(ctx, ev, nil)
	}
	return TurnResult{SessionID: ev.Session.ID, Reply: reply.ViewOf(out)}, nil
}

func eventFromArgs(args TurnArgs) (*domain.Event, error) {
	ev := &domain.Event{
		ID: uuid.NewString(),
		Request: domain.Request{
			Type:   args.RequestType,
			Locale: args.Locale,
			Reason: args.Reason,
		},
		Session: domain.Session{ID: args.SessionID, Attributes: args.Attributes},
	}
	if ev.Request.Type == "" {
		ev.Request.Type = domain.RequestIntent
	}
	if ev.Session.ID == "" {
		ev.Session.ID = uuid.NewString()
		ev.Session.New = true
	}

	if ev.NormalizeLaunch() || ev.Request.Type != domain.RequestIntent {
		return ev, nil
	}
	if args.Intent == "" {
		return nil, errors.New("intent is required for an IntentRequest")
	}
	ev.Request.Intent = &domain.Intent{Name: args.Intent, Params: args.Params}
	if err := runner.SanitizeIntent(ev.Request.Intent); err != nil {
		return nil, fmt.Errorf("intent rejected: %w", err)
	}
	return ev, nil
}
