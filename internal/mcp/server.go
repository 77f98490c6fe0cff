package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"cardgrid/internal/service"
)

// Server is the MCP server for the card grid.
// It exposes tools, resources, and prompts so AI agents can arrange the dashboard.
type Server struct {
	mcp       *server.MCPServer
	emitter   service.EventEmitter
	approval  *ApprovalQueue
	dashboard *service.Dashboard
	log       *log.Logger
}

// Deps holds all dependencies passed from the App layer to the MCP server.
type Deps struct {
	Dashboard *service.Dashboard
	Emitter   service.EventEmitter
	Logger    *log.Logger
	// AutoApprove runs destructive tools without asking. Set it when no
	// frontend is attached to answer approval requests.
	AutoApprove     bool
	ApprovalTimeout time.Duration
}

// New creates and configures a new MCP server with all tools and resources.
func New(ctx context.Context, deps Deps) *Server {
	l := deps.Logger
	if l == nil {
		l = log.Default()
	}
	if deps.Emitter == nil {
		deps.Emitter = service.NopEmitter{}
	}
	approval := NewApprovalQueue(ctx, deps.Emitter)
	if deps.ApprovalTimeout > 0 {
		approval.timeout = deps.ApprovalTimeout
	}
	approval.autoApprove = deps.AutoApprove

	s := &Server{
		emitter:   deps.Emitter,
		approval:  approval,
		dashboard: deps.Dashboard,
		log:       l,
	}

	s.mcp = server.NewMCPServer(
		"cardgrid-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerCardTools()
	s.registerGridTools()
	s.registerMenuTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.log.Info("starting stdio server")
	return server.ServeStdio(s.mcp)
}

// ServeHTTP serves the streamable HTTP transport on addr until ctx is done.
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	httpSrv := server.NewStreamableHTTPServer(s.mcp)
	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.Start(addr) }()
	s.log.Info("starting http server", "addr", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}

// Approve forwards a user approval to the approval queue.
func (s *Server) Approve(actionID string) {
	s.approval.Approve(actionID)
}

// Reject forwards a user rejection to the approval queue.
func (s *Server) Reject(actionID string) {
	s.approval.Reject(actionID)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func boolPtr(b bool) *bool { return &b }

// requiredString returns a non-empty string argument.
func requiredString(args map[string]any, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

func optionalString(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// number reads a numeric argument. JSON numbers arrive as float64.
func number(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func requiredNumber(args map[string]any, key string) (float64, error) {
	v, ok := number(args, key)
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}
	return v, nil
}
