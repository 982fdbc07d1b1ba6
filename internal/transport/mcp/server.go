package mcp

import (
	"context"
	"log/slog"
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	pipelinesvc "github.com/alanyang/prodline/internal/service/pipeline"
	projectsvc "github.com/alanyang/prodline/internal/service/project"
	reportsvc "github.com/alanyang/prodline/internal/service/report"
	tasksvc "github.com/alanyang/prodline/internal/service/task"
)

// Services are the application services exposed as MCP tools.
type Services struct {
	Projects *projectsvc.Service
	Pipeline *pipelinesvc.Service
	Tasks    *tasksvc.Service
	Reports  *reportsvc.Service
}

// Server wraps the mcp-go MCPServer and its StreamableHTTPServer.
// Tools live in tools.go, prompts in prompts.go, session state in registry.go.
type Server struct {
	httpSrv *mcpserver.StreamableHTTPServer
	reg     *SessionRegistry
}

func New(reg *SessionRegistry, svcs Services) *Server {
	s := &Server{reg: reg}

	hooks := &mcpserver.Hooks{}
	hooks.OnUnregisterSession = append(hooks.OnUnregisterSession, s.onSessionClose)

	mcpSrv := mcpserver.NewMCPServer(
		"prodline",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithPromptCapabilities(true),
		mcpserver.WithHooks(hooks),
	)
	reg.SetMCPServer(mcpSrv)

	RegisterTools(mcpSrv, reg, svcs)
	RegisterPrompts(mcpSrv, svcs.Projects, svcs.Pipeline.Catalog())

	s.httpSrv = mcpserver.NewStreamableHTTPServer(mcpSrv)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpSrv
}

func (s *Server) Registry() *SessionRegistry {
	return s.reg
}

func (s *Server) onSessionClose(ctx context.Context, session mcpserver.ClientSession) {
	actorID, ok := s.reg.Unregister(session.SessionID())
	if !ok {
		return
	}
	slog.InfoContext(ctx, "mcp: session closed", "session_id", session.SessionID(), "actor_id", actorID)
}
