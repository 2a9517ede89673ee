// Package mcpfacade exposes a thin, read-only MCP tool surface over the
// resource registries: list_resources, get_resource, reload_status. It
// intentionally does not implement tool dispatch, conversation state, or
// chain execution -- those are external collaborators this repo reaches
// only through the interfaces spec.md §6 names.
package mcpfacade

import (
	"context"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ternarybob/promptd/internal/env"
	"github.com/ternarybob/promptd/internal/resources/model"
	"github.com/ternarybob/promptd/internal/resources/registry"
)

// Server wraps an Environment to provide MCP tool access to its registries.
type Server struct {
	environment *env.Environment
	server      *server.MCPServer
}

// NewServer creates a new MCP server backed by environment's registries.
func NewServer(environment *env.Environment) *Server {
	s := &Server{environment: environment}

	mcpServer := server.NewMCPServer(
		"promptd-resources",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)
	s.server = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("list_resources",
			mcp.WithDescription("List resources of one type, optionally filtered by category or enabled state."),
			mcp.WithString("type",
				mcp.Required(),
				mcp.Description("Resource type: prompt, gate, methodology, style, script-tool"),
			),
			mcp.WithString("category",
				mcp.Description("Filter prompts by category"),
			),
			mcp.WithString("enabled_only",
				mcp.Description("Only return enabled resources: \"true\" or \"false\" (default: true)"),
			),
		),
		s.handleListResources,
	)

	mcpServer.AddTool(
		mcp.NewTool("get_resource",
			mcp.WithDescription("Fetch one resource by its qualified key, e.g. prompt:development/review or gate:always-true."),
			mcp.WithString("key",
				mcp.Required(),
				mcp.Description("Qualified resource key"),
			),
		),
		s.handleGetResource,
	)

	mcpServer.AddTool(
		mcp.NewTool("reload_status",
			mcp.WithDescription("Report cache stats per resource type, as a proxy for hot-reload health."),
		),
		s.handleReloadStatus,
	)
}

func (s *Server) handleListResources(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typStr := request.GetString("type", "")
	typ := model.Type(typStr)
	reg := s.environment.Registry(typ)
	if reg == nil {
		return mcp.NewToolResultError(fmt.Sprintf("unknown resource type %q", typStr)), nil
	}

	enabledOnly := request.GetString("enabled_only", "true") != "false"
	filters := registry.Filters{
		Category:    request.GetString("category", ""),
		EnabledOnly: enabledOnly,
	}

	resources := reg.List(filters)
	keys := make([]string, 0, len(resources))
	for _, r := range resources {
		keys = append(keys, r.QualifiedKey())
	}
	sort.Strings(keys)

	return mcp.NewToolResultText(formatKeys(keys)), nil
}

func (s *Server) handleGetResource(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := request.GetString("key", "")
	if key == "" {
		return mcp.NewToolResultError("key parameter is required"), nil
	}

	for _, reg := range s.environment.Registries {
		if res, ok := reg.Get(key); ok {
			return mcp.NewToolResultText(formatResource(res)), nil
		}
	}
	return mcp.NewToolResultError(fmt.Sprintf("resource %q not found", key)), nil
}

func (s *Server) handleReloadStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	types := make([]model.Type, 0, len(s.environment.Registries))
	for typ := range s.environment.Registries {
		types = append(types, typ)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	var out string
	for _, typ := range types {
		reg := s.environment.Registries[typ]
		stats := reg.Loader().Stats()
		out += fmt.Sprintf("%s: count=%d hits=%d misses=%d errors=%d\n",
			typ, reg.Count(), stats.Hits, stats.Misses, stats.Errors)
	}
	return mcp.NewToolResultText(out), nil
}

func formatKeys(keys []string) string {
	out := ""
	for _, k := range keys {
		out += k + "\n"
	}
	return out
}

func formatResource(r *model.Resource) string {
	return fmt.Sprintf("key=%s type=%s id=%s category=%s enabled=%t source_root=%s source_hash=%s",
		r.QualifiedKey(), r.Type, r.ID, r.Category, r.Enabled, r.SourceRoot, r.SourceHash)
}

// ServeStdio starts the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.server)
}
