package engine

import "github.com/starford/ansuz/internal/apperr"

// ActionKind identifies one primitive mutating call.
type ActionKind string

const (
	ActionCreatePage  ActionKind = "create-page"
	ActionCreateBlock ActionKind = "create-block"
	ActionUpdateBlock ActionKind = "update-block"
)

// Action is one planned primitive call with fully resolved content.
type Action struct {
	Kind       ActionKind     `json:"kind"`
	PageName   string         `json:"page_name,omitempty"`
	BlockID    string         `json:"block_id,omitempty"`
	Content    string         `json:"content,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Match is one preview entry: where an update will land and the content it
// will replace.
type Match struct {
	PageName string `json:"page_name"`
	BlockID  string `json:"block_id"`
	Content  string `json:"content"`
}

// Plan is an ordered list of primitive actions computed before any
// mutation. A plan is immutable once built; executing it never alters it.
type Plan struct {
	Tool    string   `json:"tool"`
	Actions []Action `json:"actions"`
	Preview []Match  `json:"preview,omitempty"`
	// TotalMatches is the full match count behind a truncated preview.
	TotalMatches int `json:"total_matches,omitempty"`
}

// OutcomeStatus tags one action outcome.
type OutcomeStatus string

const (
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeFailed    OutcomeStatus = "failed"
)

// Outcome is the result of executing one planned action.
type Outcome struct {
	Status    OutcomeStatus `json:"status"`
	ID        string        `json:"id,omitempty"`
	ErrorKind apperr.Kind   `json:"error_kind,omitempty"`
	Message   string        `json:"message,omitempty"`
}

// Report summarises one plan execution (or dry run). For a live run the
// outcomes parallel the plan's actions, except when a failed leading
// page creation aborts the remainder.
type Report struct {
	Status    string    `json:"status"` // ok | partial_failure
	Tool      string    `json:"tool"`
	DryRun    bool      `json:"dry_run"`
	Planned   int       `json:"planned_count"`
	Succeeded int       `json:"succeeded_count"`
	Failed    int       `json:"failed_count"`
	Outcomes  []Outcome `json:"outcomes,omitempty"`
	Preview   []Match   `json:"preview,omitempty"`
	// TotalMatches mirrors the plan's full match count for previews.
	TotalMatches int `json:"total_matches,omitempty"`
}
