package mcpserver

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/logseq"
)

const graphCacheKey = "graph:current"

func (s *Server) registerPageTools() {
	s.mcp.AddTool(mcp.NewTool("get_current_graph",
		mcp.WithDescription("Name and filesystem path of the currently open graph."),
	), s.getCurrentGraph)

	s.mcp.AddTool(mcp.NewTool("get_all_pages",
		mcp.WithDescription("List every page in the graph. Journal pages carry journal?=true "+
			"and a journalDay in YYYYMMDD format."),
	), s.getAllPages)

	s.mcp.AddTool(mcp.NewTool("get_page",
		mcp.WithDescription("Fetch a page by name. For journal pages use the \"mmm dth, yyyy\" "+
			"format, e.g. \"Apr 4th, 2025\". Includes file metadata when the page's file can "+
			"be resolved on disk."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Page name")),
	), s.getPage)

	s.mcp.AddTool(mcp.NewTool("create_page",
		mcp.WithDescription("Create a new page, optionally with page properties."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the new page")),
		mcp.WithObject("properties", mcp.Description("Optional page properties")),
	), s.createPage)

	s.mcp.AddTool(mcp.NewTool("delete_page",
		mcp.WithDescription("Delete a page and all its blocks. Cannot be undone."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Page to delete")),
	), s.deletePage)

	s.mcp.AddTool(mcp.NewTool("get_page_linked_references",
		mcp.WithDescription("Blocks containing [[Page Name]] links to the given page."),
		mcp.WithString("page_name", mcp.Required(), mcp.Description("Page to find references to")),
	), s.getPageLinkedReferences)
}

func (s *Server) getCurrentGraph(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	graph, err := s.Graph.GetOrFetch(graphCacheKey, func() (*logseq.Graph, error) {
		return s.API.GetCurrentGraph(ctx)
	})
	if err != nil {
		return errResult(err), nil
	}
	return okResult(graph), nil
}

func (s *Server) getAllPages(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pages, err := s.cachedPages(ctx)
	if err != nil {
		return errResult(err), nil
	}
	return okResult(pages), nil
}

// pageDetail is a page enriched with metadata from its backing file. File
// is absent when the page only exists in the graph's index.
type pageDetail struct {
	logseq.Page
	File *fileDetail `json:"file,omitempty"`
}

type fileDetail struct {
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	Created   time.Time `json:"created"`
	Modified  time.Time `json:"modified"`
}

func (s *Server) getPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return invalidResult(err.Error()), nil
	}
	page, err := s.API.GetPage(ctx, name)
	if err != nil {
		return errResult(err), nil
	}
	detail := pageDetail{Page: *page}
	if s.Resolver != nil {
		// An unresolved file is not an error: the page may predate its
		// first save to disk.
		if loc, rerr := s.Resolver.Resolve(name); rerr == nil {
			if meta, merr := s.Resolver.Metadata(loc.Path); merr == nil {
				detail.File = &fileDetail{
					Path:      loc.Path,
					SizeBytes: meta.SizeBytes,
					Created:   meta.Created,
					Modified:  meta.Modified,
				}
			}
		} else if !errors.Is(rerr, apperr.NotFound("")) {
			return errResult(rerr), nil
		}
	}
	return okResult(detail), nil
}

func (s *Server) createPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return invalidResult(err.Error()), nil
	}
	props, _ := req.GetArguments()["properties"].(map[string]any)

	page, err := s.API.CreatePage(ctx, name, props)
	if err != nil {
		return errResult(err), nil
	}
	s.Pages.Invalidate(pagesCacheKey)
	return okResult(page), nil
}

func (s *Server) deletePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return invalidResult(err.Error()), nil
	}
	if err := s.API.DeletePage(ctx, name); err != nil {
		return errResult(err), nil
	}
	s.Pages.Invalidate(pagesCacheKey)
	return okResult(map[string]string{"deleted": name}), nil
}

func (s *Server) getPageLinkedReferences(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("page_name")
	if err != nil {
		return invalidResult(err.Error()), nil
	}
	refs, err := s.API.GetPageLinkedReferences(ctx, name)
	if err != nil {
		return errResult(err), nil
	}
	return okResult(refs), nil
}
