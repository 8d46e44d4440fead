package engine

import (
	"context"
	"errors"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/templates"
)

// TemplateParams are the inputs for templated page creation.
type TemplateParams struct {
	PageName     string
	TemplateName string
	Variables    map[string]string
}

// PlanFromTemplate builds the plan for creating a page from a template:
// one create-page action followed by one create-block action per template
// block, in template order, with {placeholder} tokens substituted from
// Variables. Unknown placeholders stay verbatim in the planned content so
// the omission is visible, never dropped and never a plan failure.
func (e *Engine) PlanFromTemplate(_ context.Context, p TemplateParams) (*Plan, error) {
	if p.PageName == "" {
		return nil, apperr.InvalidRequest("page_name is required")
	}
	if p.TemplateName == "" {
		return nil, apperr.InvalidRequest("template is required")
	}

	tmpl, err := e.templates.Get(p.TemplateName)
	if err != nil {
		if errors.Is(err, apperr.NotFound("")) {
			return nil, apperr.InvalidRequest("template %q does not exist", p.TemplateName)
		}
		return nil, err
	}

	plan := &Plan{
		Tool:    "create_page_from_template",
		Actions: make([]Action, 0, len(tmpl.Blocks)+1),
	}
	plan.Actions = append(plan.Actions, Action{Kind: ActionCreatePage, PageName: p.PageName})

	for _, spec := range tmpl.Blocks {
		plan.Actions = append(plan.Actions, Action{
			Kind:       ActionCreateBlock,
			PageName:   p.PageName,
			Content:    templates.Render(spec.Content, p.Variables),
			Properties: stringProps(spec.Properties),
		})
	}
	return plan, nil
}

func stringProps(in map[string]string) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
