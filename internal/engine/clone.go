package engine

import (
	"context"
	"errors"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/logseq"
)

// CloneParams are the inputs for structural page cloning.
type CloneParams struct {
	SourcePage        string
	TargetPage        string
	IncludeProperties bool
}

// PlanClone builds the plan for cloning a page: one create-page action for
// the target followed by one create-block action per source block in the
// source's document order. Reading the source is the only I/O performed.
// Block properties are copied only when IncludeProperties is set.
func (e *Engine) PlanClone(ctx context.Context, p CloneParams) (*Plan, error) {
	if p.SourcePage == "" {
		return nil, apperr.InvalidRequest("source_page is required")
	}
	if p.TargetPage == "" {
		return nil, apperr.InvalidRequest("target_page is required")
	}
	if p.SourcePage == p.TargetPage {
		return nil, apperr.InvalidRequest("source and target page must differ")
	}

	tree, err := e.api.GetPageBlocks(ctx, p.SourcePage)
	if err != nil {
		if errors.Is(err, apperr.NotFound("")) {
			return nil, apperr.InvalidRequest("source page %q does not exist", p.SourcePage)
		}
		return nil, err
	}
	blocks := logseq.Flatten(tree)

	plan := &Plan{
		Tool:    "clone_page",
		Actions: make([]Action, 0, len(blocks)+1),
	}
	plan.Actions = append(plan.Actions, Action{Kind: ActionCreatePage, PageName: p.TargetPage})

	for _, b := range blocks {
		action := Action{
			Kind:     ActionCreateBlock,
			PageName: p.TargetPage,
			Content:  b.Content,
		}
		if p.IncludeProperties && len(b.Properties) > 0 {
			action.Properties = b.Properties
		}
		plan.Actions = append(plan.Actions, action)
	}
	return plan, nil
}
