package mcp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/claude/gymlog/internal/identity"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("gymlog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("gymlog workout server. Query workout plans, logged workouts and per-exercise history. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolListPlans, Handler: h.listPlans},
		server.ServerTool{Tool: toolGetPlan, Handler: h.getPlan},
		server.ServerTool{Tool: toolGetWorkoutLogs, Handler: h.getWorkoutLogs},
		server.ServerTool{Tool: toolGetExerciseHistory, Handler: h.getExerciseHistory},
	)

	s.AddResources(
		server.ServerResource{Resource: resPlanCatalog, Handler: h.planCatalog},
		server.ServerResource{Resource: resRecentWorkoutLogs, Handler: h.recentWorkoutLogs},
	)

	return s
}

// NewHTTPHandler serves s over streamable HTTP. The caller identity set by
// the router middleware is carried into tool calls.
func NewHTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s,
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if u, ok := identity.FromContext(r.Context()); ok {
				return identity.WithUser(ctx, u)
			}
			return ctx
		}),
	)
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

var resPlanCatalog = mcp.NewResource(
	"gymlog://plan_catalog",
	"Plan Catalog",
	mcp.WithResourceDescription("All workout plans of the user with exercise and set counts"),
	mcp.WithMIMEType("application/json"),
)

var resRecentWorkoutLogs = mcp.NewResource(
	"gymlog://recent_workout_logs",
	"Recent Workout Logs",
	mcp.WithResourceDescription("Workout logs of the last 14 days with every logged set"),
	mcp.WithMIMEType("application/json"),
)

// ServeStdio serves s on stdin and stdout. Every call is attributed to u; a
// remote DataSource re-identifies the caller on the server side.
func ServeStdio(s *server.MCPServer, u identity.User) error {
	return server.ServeStdio(s,
		server.WithStdioContextFunc(func(ctx context.Context) context.Context {
			return identity.WithUser(ctx, u)
		}),
	)
}
