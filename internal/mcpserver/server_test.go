package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ansuz/internal/cache"
	"github.com/starford/ansuz/internal/engine"
	"github.com/starford/ansuz/internal/logseq"
	"github.com/starford/ansuz/internal/oplog"
	"github.com/starford/ansuz/internal/testutil"
)

const testCatalogue = `
templates:
  - name: meeting
    blocks:
      - content: "## {title}"
      - content: "attendees:: "
`

func testServer(t *testing.T, api *testutil.FakeAPI) *Server {
	t.Helper()

	store := testutil.TestTemplates(t, testCatalogue)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	log, err := oplog.Open(filepath.Join(t.TempDir(), "oplog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { log.Close() })

	return New(Deps{
		API:       api,
		Engine:    engine.New(api, store, logger),
		Templates: store,
		Log:       log,
		Pages:     cache.New[[]logseq.Page](),
		Graph:     cache.New[*logseq.Graph](),
	})
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handler
	// functions are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "create_page_from_template":
		result, err = srv.createPageFromTemplate(ctx, req)
	case "clone_page":
		result, err = srv.clonePage(ctx, req)
	case "find_and_replace":
		result, err = srv.findAndReplace(ctx, req)
	case "get_graph_statistics":
		result, err = srv.getGraphStatistics(ctx, req)
	case "list_templates":
		result, err = srv.listTemplates(ctx, req)
	case "operation_history":
		result, err = srv.operationHistory(ctx, req)
	case "get_all_pages":
		result, err = srv.getAllPages(ctx, req)
	case "search_blocks":
		result, err = srv.searchBlocks(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// envelope is the common tool result shape.
type envelope struct {
	Status    string          `json:"status"`
	ErrorKind string          `json:"error_kind"`
	Message   string          `json:"message"`
	Result    json.RawMessage `json:"result"`
}

func decodeEnvelope(t *testing.T, r *mcp.CallToolResult) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal([]byte(resultText(r)), &env); err != nil {
		t.Fatalf("decode envelope from %q: %v", resultText(r), err)
	}
	return env
}

func TestTemplateToolDryRunByDefault(t *testing.T) {
	api := &testutil.FakeAPI{}
	srv := testServer(t, api)

	r := callTool(t, srv, "create_page_from_template", map[string]interface{}{
		"page_name": "Standup 2025-01-20",
		"template":  "meeting",
		"variables": map[string]any{"title": "Standup"},
	})
	env := decodeEnvelope(t, r)
	if env.Status != "ok" {
		t.Fatalf("status = %q: %s", env.Status, env.Message)
	}

	var rep struct {
		DryRun  bool `json:"dry_run"`
		Planned int  `json:"planned_count"`
	}
	if err := json.Unmarshal(env.Result, &rep); err != nil {
		t.Fatal(err)
	}
	if !rep.DryRun {
		t.Error("dry_run should default to true")
	}
	if rep.Planned != 3 {
		t.Errorf("planned = %d, want 3", rep.Planned)
	}
	if api.MutationCount() != 0 {
		t.Errorf("dry run performed %d mutations", api.MutationCount())
	}
}

func TestTemplateToolLiveRun(t *testing.T) {
	api := &testutil.FakeAPI{}
	srv := testServer(t, api)

	r := callTool(t, srv, "create_page_from_template", map[string]interface{}{
		"page_name": "Standup",
		"template":  "meeting",
		"variables": map[string]any{"title": "Standup"},
		"dry_run":   false,
	})
	env := decodeEnvelope(t, r)
	if env.Status != "ok" {
		t.Fatalf("status = %q: %s", env.Status, env.Message)
	}
	if len(api.CreatedPages) != 1 || api.CreatedPages[0] != "Standup" {
		t.Errorf("created pages = %v", api.CreatedPages)
	}
	if len(api.CreatedBlocks) != 2 || api.CreatedBlocks[0].Content != "## Standup" {
		t.Errorf("created blocks = %+v", api.CreatedBlocks)
	}

	// The live run lands in the history.
	r = callTool(t, srv, "operation_history", map[string]interface{}{})
	env = decodeEnvelope(t, r)
	var entries []oplog.Entry
	if err := json.Unmarshal(env.Result, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Tool != "create_page_from_template" {
		t.Errorf("history = %+v", entries)
	}
}

func TestTemplateToolMissingArgument(t *testing.T) {
	srv := testServer(t, &testutil.FakeAPI{})

	r := callTool(t, srv, "create_page_from_template", map[string]interface{}{
		"template": "meeting",
	})
	if !r.IsError {
		t.Fatal("expected error result")
	}
	env := decodeEnvelope(t, r)
	if env.Status != "error" || env.ErrorKind != "invalid_request" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestTemplateToolUnknownTemplate(t *testing.T) {
	srv := testServer(t, &testutil.FakeAPI{})

	r := callTool(t, srv, "create_page_from_template", map[string]interface{}{
		"page_name": "p",
		"template":  "nope",
	})
	env := decodeEnvelope(t, r)
	if env.ErrorKind != "invalid_request" {
		t.Errorf("error_kind = %q, want invalid_request", env.ErrorKind)
	}
}

func TestClonePageDryRun(t *testing.T) {
	api := &testutil.FakeAPI{
		BlockTrees: map[string][]logseq.Block{
			"src": {{UUID: "1", Content: "a"}, {UUID: "2", Content: "b"}},
		},
	}
	srv := testServer(t, api)

	r := callTool(t, srv, "clone_page", map[string]interface{}{
		"source_page": "src",
		"target_page": "dst",
	})
	env := decodeEnvelope(t, r)
	if env.Status != "ok" {
		t.Fatalf("status = %q: %s", env.Status, env.Message)
	}
	if api.MutationCount() != 0 {
		t.Errorf("dry run performed %d mutations", api.MutationCount())
	}
}

func TestCloneMissingSourceIsInvalid(t *testing.T) {
	srv := testServer(t, &testutil.FakeAPI{})

	r := callTool(t, srv, "clone_page", map[string]interface{}{
		"source_page": "ghost",
		"target_page": "dst",
	})
	env := decodeEnvelope(t, r)
	if env.ErrorKind != "invalid_request" {
		t.Errorf("error_kind = %q, want invalid_request", env.ErrorKind)
	}
}

func TestFindAndReplaceLiveRun(t *testing.T) {
	api := &testutil.FakeAPI{
		SearchResults: []logseq.Block{
			{UUID: "b1", Content: "TODO write tests", Page: &logseq.PageRef{Name: "Work"}},
			{UUID: "b2", Content: "TODO review", Page: &logseq.PageRef{Name: "Work"}},
			{UUID: "b3", Content: "unrelated", Page: &logseq.PageRef{Name: "Work"}},
		},
	}
	srv := testServer(t, api)

	r := callTool(t, srv, "find_and_replace", map[string]interface{}{
		"search_pattern": "TODO",
		"replace_text":   "DONE",
		"dry_run":        false,
	})
	env := decodeEnvelope(t, r)
	if env.Status != "ok" {
		t.Fatalf("status = %q: %s", env.Status, env.Message)
	}
	if len(api.UpdatedBlocks) != 2 {
		t.Fatalf("updated = %d blocks, want 2", len(api.UpdatedBlocks))
	}
	if api.UpdatedBlocks[0].Content != "DONE write tests" {
		t.Errorf("updated content = %q", api.UpdatedBlocks[0].Content)
	}
}

func TestGraphStatisticsWithoutResolver(t *testing.T) {
	srv := testServer(t, &testutil.FakeAPI{})

	r := callTool(t, srv, "get_graph_statistics", map[string]interface{}{})
	if !r.IsError {
		t.Fatal("expected error result")
	}
	env := decodeEnvelope(t, r)
	if env.ErrorKind != "graph_path_not_configured" {
		t.Errorf("error_kind = %q, want graph_path_not_configured", env.ErrorKind)
	}
}

func TestListTemplates(t *testing.T) {
	srv := testServer(t, &testutil.FakeAPI{})

	r := callTool(t, srv, "list_templates", map[string]interface{}{})
	env := decodeEnvelope(t, r)
	var names []string
	if err := json.Unmarshal(env.Result, &names); err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "meeting" {
		t.Errorf("templates = %v", names)
	}
}

func TestGetAllPagesServesFromCache(t *testing.T) {
	api := &testutil.FakeAPI{PagesList: []logseq.Page{{Name: "a"}}}
	srv := testServer(t, api)

	if _, err := srv.cachedPages(context.Background()); err != nil {
		t.Fatal(err)
	}
	// A fixture change is invisible while the cached listing is fresh.
	api.PagesList = append(api.PagesList, logseq.Page{Name: "b"})

	pages, err := srv.cachedPages(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 {
		t.Errorf("pages = %d, want cached 1", len(pages))
	}
}

func TestSearchBlocksPrimitive(t *testing.T) {
	api := &testutil.FakeAPI{
		SearchResults: []logseq.Block{{UUID: "b1", Content: "hit"}},
	}
	srv := testServer(t, api)

	r := callTool(t, srv, "search_blocks", map[string]interface{}{"query": "hit"})
	env := decodeEnvelope(t, r)
	if env.Status != "ok" {
		t.Fatalf("status = %q: %s", env.Status, env.Message)
	}
	var blocks []logseq.Block
	if err := json.Unmarshal(env.Result, &blocks); err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 1 || blocks[0].UUID != "b1" {
		t.Errorf("blocks = %+v", blocks)
	}
}
