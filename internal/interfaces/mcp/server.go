package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/turtacn/vincent/internal/config"
	"github.com/turtacn/vincent/internal/domain/models"
	"github.com/turtacn/vincent/internal/domain/service"
	"github.com/turtacn/vincent/pkg/constants"
	"github.com/turtacn/vincent/pkg/logger"
	"github.com/turtacn/vincent/pkg/params"
)

const (
	defaultServerName    = "vincent-abilities"
	defaultServerVersion = "1.0.0"
	defaultPath          = "/mcp"
)

// Server is the MCP tool server for the declared abilities.
type Server struct {
	mcp      *server.MCPServer
	http     *server.StreamableHTTPServer
	schemas  map[string]params.SchemaMap
	executor service.AbilityExecutor
	metrics  service.Metrics
	log      logger.Logger
}

// NewServer registers one tool per declaration. metrics may be nil.
func NewServer(cfg config.MCPConfig, tools []config.ToolConfig, executor service.AbilityExecutor, metrics service.Metrics, log logger.Logger) (*Server, error) {
	if executor == nil {
		return nil, fmt.Errorf("an ability executor is required")
	}
	name, version := cfg.Name, cfg.Version
	if name == "" {
		name = defaultServerName
	}
	if version == "" {
		version = defaultServerVersion
	}

	s := &Server{
		schemas:  make(map[string]params.SchemaMap, len(tools)),
		executor: executor,
		metrics:  metrics,
		log:      log.WithComponent("MCPServer"),
	}
	s.mcp = server.NewMCPServer(name, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(s.requireAuth),
	)

	for _, t := range tools {
		if _, dup := s.schemas[t.Name]; dup {
			return nil, fmt.Errorf("tool %q is declared more than once", t.Name)
		}
		tool, schemas, err := BuildTool(t)
		if err != nil {
			return nil, err
		}
		s.schemas[t.Name] = schemas
		s.mcp.AddTool(tool, s.toolHandler(t.Name, schemas))
	}

	path := cfg.Path
	if path == "" {
		path = defaultPath
	}
	s.http = server.NewStreamableHTTPServer(s.mcp,
		server.WithEndpointPath(path),
		server.WithStateLess(true),
		server.WithHTTPContextFunc(requestContext),
	)

	s.log.Info(context.Background(), "MCP tools registered",
		logger.Int("tools", len(tools)),
		logger.String("path", path),
	)
	return s, nil
}

// Handler serves the streamable HTTP transport.
func (s *Server) Handler() http.Handler { return s.http }

// MCPServer returns the underlying server, for in-process transports.
func (s *Server) MCPServer() *server.MCPServer { return s.mcp }

// ToolNames returns the registered tools in sorted order.
func (s *Server) ToolNames() []string {
	names := make([]string, 0, len(s.schemas))
	for name := range s.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// requestContext carries the authenticated caller from the HTTP request into tool calls.
func requestContext(ctx context.Context, r *http.Request) context.Context {
	if res, ok := models.AuthFromContext(r.Context()); ok {
		return models.ContextWithAuth(ctx, res)
	}
	return ctx
}

func (s *Server) requireAuth(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		if _, ok := models.AuthFromContext(ctx); !ok {
			s.log.Warn(ctx, "Unauthenticated tool call", logger.String("tool", req.Params.Name))
			return mcpgo.NewToolResultError(constants.NotAuthenticatedMessage), nil
		}
		return next(ctx, req)
	}
}

func (s *Server) toolHandler(ability string, schemas params.SchemaMap) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		args := req.GetArguments()
		values, errs := schemas.Check(args)
		s.recordValidation(schemas, args, errs)
		if len(errs) > 0 {
			s.log.Debug(ctx, "Tool arguments rejected",
				logger.Ability(ability),
				logger.Int("errors", len(errs)),
			)
			return mcpgo.NewToolResultError(errs.Error()), nil
		}

		auth, _ := models.AuthFromContext(ctx)
		result, err := s.executor.Execute(ctx, ability, auth, values)
		if err != nil {
			s.log.Error(ctx, "Ability execution failed", err, logger.Ability(ability))
			return mcpgo.NewToolResultError(err.Error()), nil
		}

		text, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to encode result of %s: %w", ability, err)
		}
		return mcpgo.NewToolResultStructured(result, string(text)), nil
	}
}

func (s *Server) recordValidation(schemas params.SchemaMap, args map[string]any, errs params.ValidationErrors) {
	if s.metrics == nil {
		return
	}
	failed := make(map[string]bool, len(errs))
	for _, fe := range errs {
		failed[fe.Field] = true
	}
	for name, schema := range schemas {
		if _, present := args[name]; present {
			s.metrics.RecordParamValidation(schema.Type.String(), !failed[name])
		}
	}
}
