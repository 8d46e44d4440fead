package engine

import (
	"context"
	"strings"

	"github.com/starford/ansuz/internal/apperr"
)

// previewLimit caps how many matches a find-and-replace preview carries.
const previewLimit = 5

// ReplaceParams are the inputs for global find-and-replace.
type ReplaceParams struct {
	SearchPattern string
	ReplaceText   string
	// PageFilter, when non-empty, restricts matches to pages whose name
	// contains it as a substring.
	PageFilter string
}

// PlanReplace builds the plan for a global find-and-replace: a read-only
// block search followed by one update-block action per match, each with
// every occurrence of the pattern replaced. The plan carries the first few
// matches (page, block id, original content) for preview purposes.
func (e *Engine) PlanReplace(ctx context.Context, p ReplaceParams) (*Plan, error) {
	if p.SearchPattern == "" {
		return nil, apperr.InvalidRequest("search_pattern is required")
	}

	results, err := e.api.SearchBlocks(ctx, p.SearchPattern)
	if err != nil {
		return nil, err
	}

	plan := &Plan{Tool: "find_and_replace"}
	for _, b := range results {
		// The search endpoint can fuzzy-match; only literal occurrences
		// are replaceable.
		if !strings.Contains(b.Content, p.SearchPattern) {
			continue
		}
		if p.PageFilter != "" && !strings.Contains(b.PageName(), p.PageFilter) {
			continue
		}

		plan.Actions = append(plan.Actions, Action{
			Kind:    ActionUpdateBlock,
			BlockID: b.UUID,
			Content: strings.ReplaceAll(b.Content, p.SearchPattern, p.ReplaceText),
		})
		plan.TotalMatches++
		if len(plan.Preview) < previewLimit {
			plan.Preview = append(plan.Preview, Match{
				PageName: b.PageName(),
				BlockID:  b.UUID,
				Content:  b.Content,
			})
		}
	}
	return plan, nil
}
