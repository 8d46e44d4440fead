// Package engine implements the composite-operation core: every operation
// first builds an inspectable plan of primitive actions, then either
// returns it as a preview (dry run) or executes it action by action.
//
// The backing Logseq API has no batch or transaction primitives, so live
// execution makes no atomicity promise. Instead each action's outcome is
// reported individually and execution continues past failures; the one
// exception is a failed leading page creation, which aborts the rest of
// the plan because every later action depends on the page existing.
package engine

import (
	"context"
	"log/slog"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/logseq"
	"github.com/starford/ansuz/internal/templates"
)

// Engine plans and executes composite graph operations.
type Engine struct {
	api       logseq.API
	templates *templates.Store
	logger    *slog.Logger
}

// New creates an engine over the given graph API and template store.
func New(api logseq.API, store *templates.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{api: api, templates: store, logger: logger}
}

// Run executes plan in live mode, or returns a preview report without any
// mutating call when dryRun is true. Dry run is a hard guarantee: the plan
// was built from read-only calls and Run touches nothing.
func (e *Engine) Run(ctx context.Context, plan *Plan, dryRun bool) *Report {
	if dryRun {
		return &Report{
			Status:       "ok",
			Tool:         plan.Tool,
			DryRun:       true,
			Planned:      len(plan.Actions),
			Preview:      plan.Preview,
			TotalMatches: plan.TotalMatches,
		}
	}
	return e.execute(ctx, plan)
}

// execute runs the plan's actions in order, folding each outcome into the
// report. Failures after the first action do not stop execution: partial
// completion with a truthful report beats an undefined half-applied state.
func (e *Engine) execute(ctx context.Context, plan *Plan) *Report {
	rep := &Report{
		Tool:         plan.Tool,
		Planned:      len(plan.Actions),
		Preview:      plan.Preview,
		TotalMatches: plan.TotalMatches,
	}

	for i, action := range plan.Actions {
		outcome := e.apply(ctx, action)
		rep.Outcomes = append(rep.Outcomes, outcome)

		if outcome.Status == OutcomeFailed {
			rep.Failed++
			e.logger.Warn("action failed",
				slog.String("tool", plan.Tool),
				slog.Int("index", i),
				slog.String("kind", string(action.Kind)),
				slog.String("error", outcome.Message))
			// Nothing later in the plan can succeed without the page.
			if i == 0 && action.Kind == ActionCreatePage {
				break
			}
			continue
		}
		rep.Succeeded++
	}

	if rep.Failed > 0 {
		rep.Status = string(apperr.KindPartialFailure)
	} else {
		rep.Status = "ok"
	}
	return rep
}

func (e *Engine) apply(ctx context.Context, action Action) Outcome {
	switch action.Kind {
	case ActionCreatePage:
		page, err := e.api.CreatePage(ctx, action.PageName, action.Properties)
		if err != nil {
			return failedOutcome(err)
		}
		return Outcome{Status: OutcomeSucceeded, ID: page.Name}

	case ActionCreateBlock:
		block, err := e.api.CreateBlock(ctx, action.PageName, action.Content, action.Properties)
		if err != nil {
			return failedOutcome(err)
		}
		return Outcome{Status: OutcomeSucceeded, ID: block.UUID}

	case ActionUpdateBlock:
		block, err := e.api.UpdateBlock(ctx, action.BlockID, action.Content)
		if err != nil {
			return failedOutcome(err)
		}
		id := action.BlockID
		if block != nil && block.UUID != "" {
			id = block.UUID
		}
		return Outcome{Status: OutcomeSucceeded, ID: id}

	default:
		return Outcome{
			Status:    OutcomeFailed,
			ErrorKind: apperr.KindInvalidRequest,
			Message:   "unknown action kind: " + string(action.Kind),
		}
	}
}

func failedOutcome(err error) Outcome {
	return Outcome{
		Status:    OutcomeFailed,
		ErrorKind: apperr.KindOf(err),
		Message:   err.Error(),
	}
}
