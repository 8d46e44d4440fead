package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// UsageContract describes how LLM consumers should drive the composite
// operations safely.
const UsageContract = `# Ansuz Bridge Usage Contract

Ansuz bridges tool calls to a locally hosted Logseq graph. The raw graph
API has no batch or transaction primitives, so the composite tools follow
a strict plan/execute protocol you should lean on.

## Composite operations

- ` + "`create_page_from_template`" + ` – new page from a named template with
  ` + "`{placeholder}`" + ` substitution. Placeholders without a supplied value stay
  verbatim in the created blocks; check the dry-run preview first.
- ` + "`clone_page`" + ` – copy the block structure of one page onto a new page.
- ` + "`find_and_replace`" + ` – literal text replacement across matching blocks,
  optionally scoped with ` + "`page_filter`" + `.

## Rules

1. **Every composite tool defaults to a dry run.** The result is the plan:
   planned action count plus a preview. Nothing is written. Re-running the
   same dry run with unchanged inputs yields an identical plan.
2. **Execute explicitly.** Pass ` + "`dry_run: false`" + ` only after reviewing the
   preview. There is no rollback once execution starts.
3. **Expect partial failure.** A live run reports one outcome per planned
   action and keeps going past individual failures; the report's
   ` + "`status`" + ` is ` + "`partial_failure`" + ` when any action failed. The single
   exception: when the leading page creation fails, the rest is aborted.
4. **Error envelopes, not exceptions.** Every tool returns
   ` + "`{\"status\": \"ok\" | \"error\"}`" + `; errors carry a stable ` + "`error_kind`" + `
   (` + "`not_found`" + `, ` + "`invalid_request`" + `, ` + "`graph_path_not_configured`" + `,
   ` + "`upstream_error`" + `) and a human-readable message.
5. **Statistics are snapshots.** ` + "`get_graph_statistics`" + ` correlates the
   graph's page index with files on disk at one point in time; it is
   best-effort, not transactionally consistent.

## Journal pages

Journal pages use the ` + "`\"mmm dth, yyyy\"`" + ` name format (e.g.
` + "`\"Apr 4th, 2025\"`" + `) and are flagged with ` + "`journal?: true`" + ` plus a
` + "`journalDay`" + ` of the form YYYYMMDD.
`

func (s *Server) readUsageResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ansuz://usage",
			MIMEType: "text/markdown",
			Text:     UsageContract,
		},
	}, nil
}
