// Package mcp exposes the assistant as a Model Context Protocol server.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/vmchat/internal/logging"
	"github.com/aretw0/vmchat/pkg/domain"
	"github.com/aretw0/vmchat/pkg/input"
	"github.com/aretw0/vmchat/pkg/ports"
	"github.com/aretw0/vmchat/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// CapabilitiesURI is the resource describing the supported actions.
const CapabilitiesURI = "vmchat://capabilities"

// ChatArgs are the arguments of the chat tool.
type ChatArgs struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResult is the structured output of the chat tool.
type ChatResult struct {
	Reply     string             `json:"reply" jsonschema_description:"The assistant reply"`
	Outcome   domain.TurnOutcome `json:"outcome" jsonschema_description:"raw_text, interpret_error or composed"`
	SessionID string             `json:"session_id,omitempty" jsonschema_description:"Session the exchange was stored in"`
}

// Server wraps the assistant and exposes it as an MCP server.
type Server struct {
	handler      ports.TurnHandler
	sessions     *session.Manager
	logger       *slog.Logger
	maxInputSize int
	mcpServer    *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithSessions stores exchanges of calls that carry a session_id.
func WithSessions(m *session.Manager) Option {
	return func(s *Server) {
		s.sessions = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxInputSize sets the message size limit in bytes.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		s.maxInputSize = n
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(handler ports.TurnHandler, version string, opts ...Option) *Server {
	s := &Server{
		handler:      handler,
		logger:       logging.NewNop(),
		maxInputSize: input.DefaultMaxSize,
		mcpServer:    server.NewMCPServer("vmchat-mcp", strings.TrimSpace(version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done. An empty
// baseURL is derived from addr.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	if baseURL == "" {
		baseURL = "http://" + addr
		if strings.HasPrefix(addr, ":") {
			baseURL = "http://localhost" + addr
		}
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
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
	// TOOL: chat
	chatTool := mcp.NewTool("chat",
		mcp.WithDescription("Send a request about virtual machines (list them, show details, change power state) and get a natural-language reply."),
		mcp.WithString("message", mcp.Required(), mcp.Description("The request, e.g. 'restart vm1'")),
		mcp.WithString("session_id", mcp.Description("Keep a transcript under this session id (optional)")),
		mcp.WithOutputSchema[ChatResult](),
	)
	s.mcpServer.AddTool(chatTool, mcp.NewStructuredToolHandler(s.handleChat))
}

func (s *Server) handleChat(ctx context.Context, request mcp.CallToolRequest, args ChatArgs) (ChatResult, error) {
	clean, err := input.Sanitize(args.Message, s.maxInputSize)
	if err != nil {
		s.logger.Warn("MCP Chat: Input rejected", "error", err, "size", len(args.Message))
		return ChatResult{}, fmt.Errorf("input rejected: %w", err)
	}

	if args.SessionID != "" && s.sessions != nil {
		res, err := s.sessions.Turn(ctx, args.SessionID, clean, s.handler)
		if err != nil {
			return ChatResult{}, fmt.Errorf("session turn failed: %w", err)
		}
		return ChatResult{Reply: res.Reply, Outcome: res.Outcome, SessionID: args.SessionID}, nil
	}

	res := s.handler.Turn(ctx, clean, nil)
	return ChatResult{Reply: res.Reply, Outcome: res.Outcome}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: vmchat://capabilities
	s.mcpServer.AddResource(mcp.NewResource(CapabilitiesURI, "Supported Actions",
		mcp.WithResourceDescription("Actions the assistant can forward to the management API"),
		mcp.WithMIMEType("application/json"),
	), s.readCapabilities)
}

func (s *Server) readCapabilities(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.MarshalIndent(domain.Capabilities, "", "  ")
	if err != nil {
		return nil, errors.New("failed to encode capabilities")
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      CapabilitiesURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
