package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/engine"
	"github.com/starford/ansuz/internal/logseq"
	"github.com/starford/ansuz/internal/stats"
)

const pagesCacheKey = "pages:all"

// operationResult is a report optionally enriched with the created page's
// resolved file path.
type operationResult struct {
	*engine.Report
	FilePath string `json:"file_path,omitempty"`
}

func (s *Server) createPageFromTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageName, err := req.RequireString("page_name")
	if err != nil {
		return invalidResult(err.Error()), nil
	}
	tmplName, err := req.RequireString("template")
	if err != nil {
		return invalidResult(err.Error()), nil
	}
	vars := map[string]string{}
	if raw, ok := req.GetArguments()["variables"].(map[string]any); ok {
		for k, v := range raw {
			vars[k] = fmt.Sprintf("%v", v)
		}
	}
	dryRun := req.GetBool("dry_run", true)

	plan, err := s.Engine.PlanFromTemplate(ctx, engine.TemplateParams{
		PageName:     pageName,
		TemplateName: tmplName,
		Variables:    vars,
	})
	if err != nil {
		return errResult(err), nil
	}

	report := s.Engine.Run(ctx, plan, dryRun)
	result := operationResult{Report: report}
	if !dryRun {
		s.afterMutation(plan, report)
		// Logseq saves the new file shortly after the API call; a short
		// bounded retry covers that race.
		if s.Resolver != nil && report.Failed == 0 {
			if loc, rerr := s.Resolver.ResolveRetry(ctx, pageName, 3, 150*time.Millisecond); rerr == nil {
				result.FilePath = loc.Path
			}
		}
	}
	return okResult(result), nil
}

func (s *Server) clonePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source_page")
	if err != nil {
		return invalidResult(err.Error()), nil
	}
	target, err := req.RequireString("target_page")
	if err != nil {
		return invalidResult(err.Error()), nil
	}
	includeProps := req.GetBool("include_properties", false)
	dryRun := req.GetBool("dry_run", true)

	plan, err := s.Engine.PlanClone(ctx, engine.CloneParams{
		SourcePage:        source,
		TargetPage:        target,
		IncludeProperties: includeProps,
	})
	if err != nil {
		return errResult(err), nil
	}

	report := s.Engine.Run(ctx, plan, dryRun)
	if !dryRun {
		s.afterMutation(plan, report)
	}
	return okResult(operationResult{Report: report}), nil
}

func (s *Server) findAndReplace(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	search, err := req.RequireString("search_pattern")
	if err != nil {
		return invalidResult(err.Error()), nil
	}
	replace, err := req.RequireString("replace_text")
	if err != nil {
		return invalidResult(err.Error()), nil
	}
	pageFilter := req.GetString("page_filter", "")
	dryRun := req.GetBool("dry_run", true)

	plan, err := s.Engine.PlanReplace(ctx, engine.ReplaceParams{
		SearchPattern: search,
		ReplaceText:   replace,
		PageFilter:    pageFilter,
	})
	if err != nil {
		return errResult(err), nil
	}

	report := s.Engine.Run(ctx, plan, dryRun)
	if !dryRun {
		s.afterMutation(plan, report)
	}
	return okResult(operationResult{Report: report}), nil
}

func (s *Server) getGraphStatistics(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.Resolver == nil {
		return errResult(apperr.GraphPathNotConfigured()), nil
	}
	pages, err := s.cachedPages(ctx)
	if err != nil {
		return errResult(err), nil
	}
	st, err := stats.Compute(pages, s.Resolver)
	if err != nil {
		return errResult(err), nil
	}
	return okResult(st), nil
}

func (s *Server) listTemplates(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := s.Templates.List()
	if err != nil {
		return errResult(err), nil
	}
	if names == nil {
		names = []string{}
	}
	return okResult(names), nil
}

func (s *Server) operationHistory(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	entries, err := s.Log.Recent(limit)
	if err != nil {
		return errResult(err), nil
	}
	return okResult(entries), nil
}

// cachedPages reads the full page listing through the TTL cache.
func (s *Server) cachedPages(ctx context.Context) ([]logseq.Page, error) {
	return s.Pages.GetOrFetch(pagesCacheKey, func() ([]logseq.Page, error) {
		return s.API.GetAllPages(ctx)
	})
}

// afterMutation records the executed report and drops listing caches that
// the mutation may have invalidated.
func (s *Server) afterMutation(plan *engine.Plan, report *engine.Report) {
	if err := s.Log.Record(plan, report); err != nil {
		slog.Warn("oplog record failed", slog.String("error", err.Error()))
	}
	s.Pages.Invalidate(pagesCacheKey)
}
