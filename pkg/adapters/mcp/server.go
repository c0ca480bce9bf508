package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/chatflow"
	"github.com/aretw0/chatflow/internal/logging"
	"github.com/aretw0/chatflow/internal/presentation/diagram"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/graph"
	"github.com/aretw0/chatflow/pkg/ports"
	"github.com/aretw0/chatflow/pkg/runner"
)

const (
	graphURI   = "chatflow://graph"
	mermaidURI = "chatflow://graph/mermaid"
)

// StepResponse is the structured result of every tool that drives a session.
type StepResponse struct {
	SessionID string           `json:"sessionId" jsonschema_description:"The conversation the call applied to"`
	Status    domain.Status    `json:"status" jsonschema_description:"idle, advancing, awaiting or terminated"`
	Messages  []domain.Message `json:"messages" jsonschema_description:"Messages the flow emitted during this call, in order"`
	Choices   []domain.Choice  `json:"choices,omitempty" jsonschema_description:"Options the user may pick when awaiting"`
}

// SessionResponse describes a stored session.
type SessionResponse struct {
	Session *domain.Session `json:"session"`
	Status  domain.Status   `json:"status"`
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

type inputArgs struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// Engine is what the MCP server needs from the chatflow facade.
type Engine interface {
	ports.Interpreter
	Graph() *graph.Graph
}

// Server wraps the Engine and exposes it as an MCP server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{engine: engine}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.mcpServer = server.NewMCPServer("chatflow-mcp", chatflow.Version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio serves on stdin/stdout. Logs must go to stderr.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over Server-Sent Events on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening (sse)", "addr", addr)
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

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start a conversation, or re-show the pending options of one in progress."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation identifier")),
		mcp.WithOutputSchema[StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("send_input",
		mcp.WithDescription("Send the user's reply. When options are pending, the reply must be the number of a choice."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation identifier")),
		mcp.WithString("text", mcp.Required(), mcp.Description("User reply")),
		mcp.WithOutputSchema[StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleInput))

	s.mcpServer.AddTool(mcp.NewTool("reset_session",
		mcp.WithDescription("Discard the conversation state and start over from the beginning."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation identifier")),
		mcp.WithOutputSchema[StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleReset))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Inspect the stored state of a conversation."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation identifier")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetSession))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the flow graph definition (nodes and edges) as JSON."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := s.graphJSON()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	})
}

func (s *Server) handleStart(ctx context.Context, _ mcp.CallToolRequest, args sessionArgs) (StepResponse, error) {
	if args.SessionID == "" {
		return StepResponse{}, errors.New("session_id is required")
	}
	res, err := s.engine.Start(ctx, args.SessionID)
	return s.stepResponse(res, err)
}

func (s *Server) handleInput(ctx context.Context, _ mcp.CallToolRequest, args inputArgs) (StepResponse, error) {
	if args.SessionID == "" {
		return StepResponse{}, errors.New("session_id is required")
	}
	clean, err := runner.SanitizeInput(args.Text)
	if err != nil {
		s.logger.Warn("mcp input rejected", "session_id", args.SessionID, "err", err, "size", len(args.Text))
		return StepResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	res, err := s.engine.HandleInput(ctx, args.SessionID, clean)
	return s.stepResponse(res, err)
}

func (s *Server) handleReset(ctx context.Context, _ mcp.CallToolRequest, args sessionArgs) (StepResponse, error) {
	if args.SessionID == "" {
		return StepResponse{}, errors.New("session_id is required")
	}
	res, err := s.engine.Reset(ctx, args.SessionID)
	return s.stepResponse(res, err)
}

func (s *Server) handleGetSession(ctx context.Context, _ mcp.CallToolRequest, args sessionArgs) (SessionResponse, error) {
	sess, err := s.engine.Session(ctx, args.SessionID)
	if err != nil {
		return SessionResponse{}, s.publicError(err)
	}
	return SessionResponse{Session: sess, Status: sess.Status()}, nil
}

func (s *Server) stepResponse(res *domain.StepResult, err error) (StepResponse, error) {
	if err != nil {
		return StepResponse{}, s.publicError(err)
	}
	messages := res.Messages
	if messages == nil {
		messages = []domain.Message{}
	}
	return StepResponse{
		SessionID: res.Session.SessionID,
		Status:    res.Session.Status(),
		Messages:  messages,
		Choices:   res.Session.ActiveChoices,
	}, nil
}

// publicError logs err and returns the sentinel an agent can reason about.
func (s *Server) publicError(err error) error {
	for _, sentinel := range []error{domain.ErrSessionNotFound, domain.ErrStoreUnavailable, domain.ErrLockTimeout, domain.ErrNoGraph} {
		if errors.Is(err, sentinel) {
			if sentinel != domain.ErrSessionNotFound {
				s.logger.Error("mcp call failed", "err", err)
			}
			return sentinel
		}
	}
	s.logger.Error("mcp call failed", "err", err)
	return errors.New("internal error")
}

func (s *Server) graphJSON() ([]byte, error) {
	g := s.engine.Graph()
	if g == nil {
		return nil, domain.ErrNoGraph
	}
	return json.Marshal(g.Document())
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(graphURI, "Current flow graph",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := s.graphJSON()
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: graphURI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource(mermaidURI, "Current flow graph as a Mermaid flowchart",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		g := s.engine.Graph()
		if g == nil {
			return nil, domain.ErrNoGraph
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: mermaidURI, MIMEType: "text/plain", Text: diagram.GenerateMermaid(g, nil)},
		}, nil
	})
}
