// Package mcpserver exposes the Logseq bridge as an MCP (Model Context
// Protocol) server over stdio: composite plan/execute operations alongside
// the raw graph primitives.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/cache"
	"github.com/starford/ansuz/internal/engine"
	"github.com/starford/ansuz/internal/logseq"
	"github.com/starford/ansuz/internal/oplog"
	"github.com/starford/ansuz/internal/resolver"
	"github.com/starford/ansuz/internal/templates"
)

// Deps are the collaborators a Server works with. Resolver and Log may be
// nil: filesystem-backed tools then report graph_path_not_configured and
// history recording becomes a no-op.
type Deps struct {
	API       logseq.API
	Engine    *engine.Engine
	Templates *templates.Store
	Resolver  *resolver.Resolver
	Log       *oplog.Log
	Pages     *cache.Cache[[]logseq.Page]
	Graph     *cache.Cache[*logseq.Graph]
}

// Server wraps the MCP server with all bridge tools.
type Server struct {
	mcp *server.MCPServer
	Deps
}

// New creates an MCP server with every tool registered.
func New(deps Deps) *Server {
	s := &Server{Deps: deps}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	// Composite operations.
	s.mcp.AddTool(mcp.NewTool("create_page_from_template",
		mcp.WithDescription("Create a new page from a named template, substituting {placeholder} "+
			"tokens from the variables mapping. Defaults to a dry run that returns the plan "+
			"without creating anything; pass dry_run=false to execute."),
		mcp.WithString("page_name", mcp.Required(), mcp.Description("Name of the page to create")),
		mcp.WithString("template", mcp.Required(), mcp.Description("Template name from the catalogue (see list_templates)")),
		mcp.WithObject("variables", mcp.Description("Placeholder values, e.g. {\"date\": \"2025-01-20\"}")),
		mcp.WithBoolean("dry_run", mcp.DefaultBool(true), mcp.Description("Preview the plan without executing it")),
	), s.createPageFromTemplate)

	s.mcp.AddTool(mcp.NewTool("clone_page",
		mcp.WithDescription("Clone the block structure of one page onto a new page, preserving "+
			"block order. Defaults to a dry run."),
		mcp.WithString("source_page", mcp.Required(), mcp.Description("Page to clone from")),
		mcp.WithString("target_page", mcp.Required(), mcp.Description("Name of the page to create")),
		mcp.WithBoolean("include_properties", mcp.DefaultBool(false), mcp.Description("Copy block properties onto the clones")),
		mcp.WithBoolean("dry_run", mcp.DefaultBool(true), mcp.Description("Preview the plan without executing it")),
	), s.clonePage)

	s.mcp.AddTool(mcp.NewTool("find_and_replace",
		mcp.WithDescription("Replace every occurrence of a search pattern across all matching "+
			"blocks in the graph, optionally restricted to pages whose name contains page_filter. "+
			"Defaults to a dry run that previews the first matches."),
		mcp.WithString("search_pattern", mcp.Required(), mcp.Description("Literal text to search for")),
		mcp.WithString("replace_text", mcp.Required(), mcp.Description("Replacement text (may be empty)")),
		mcp.WithString("page_filter", mcp.Description("Only touch pages whose name contains this substring")),
		mcp.WithBoolean("dry_run", mcp.DefaultBool(true), mcp.Description("Preview the plan without executing it")),
	), s.findAndReplace)

	s.mcp.AddTool(mcp.NewTool("get_graph_statistics",
		mcp.WithDescription("Aggregate statistics over the whole graph: page counts, total size, "+
			"oldest and most recently modified pages. Requires the graph path to be configured."),
	), s.getGraphStatistics)

	s.mcp.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List the template names available to create_page_from_template."),
	), s.listTemplates)

	s.mcp.AddTool(mcp.NewTool("operation_history",
		mcp.WithDescription("Recent composite operations executed through this bridge, newest first."),
		mcp.WithNumber("limit", mcp.DefaultNumber(20), mcp.Description("Maximum entries to return")),
	), s.operationHistory)

	s.registerPageTools()
	s.registerBlockTools()

	// Resource: tool usage contract.
	s.mcp.AddResource(
		mcp.NewResource("ansuz://usage", "Bridge Usage Contract",
			mcp.WithResourceDescription("How to use the composite operations safely (dry runs, partial failure)."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readUsageResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}
