// Package testutil provides shared test helpers: a scriptable in-memory
// Logseq API and temporary graph/template fixtures.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/cache"
	"github.com/starford/ansuz/internal/logseq"
	"github.com/starford/ansuz/internal/templates"
)

// CreatedBlock records one CreateBlock call.
type CreatedBlock struct {
	Page       string
	Content    string
	Properties map[string]any
}

// UpdatedBlock records one UpdateBlock call.
type UpdatedBlock struct {
	ID      string
	Content string
}

// FakeAPI is an in-memory logseq.API. Read methods serve the configured
// fixtures; mutating methods record their calls so tests can assert the
// dry-run guarantee and partial-failure behavior.
type FakeAPI struct {
	PagesList     []logseq.Page
	BlockTrees    map[string][]logseq.Block
	SearchResults []logseq.Block
	CurrentGraph  *logseq.Graph

	// CreatePageErr fails every CreatePage call.
	CreatePageErr error
	// CreateBlockFailAt fails the nth CreateBlock call (1-based); 0 never fails.
	CreateBlockFailAt int
	// UpdateBlockFailAt fails the nth UpdateBlock call (1-based); 0 never fails.
	UpdateBlockFailAt int

	CreatedPages  []string
	CreatedBlocks []CreatedBlock
	UpdatedBlocks []UpdatedBlock

	createBlockCalls int
	updateBlockCalls int
}

// MutationCount reports how many mutating calls the fake has seen.
func (f *FakeAPI) MutationCount() int {
	return len(f.CreatedPages) + f.createBlockCalls + f.updateBlockCalls
}

func (f *FakeAPI) GetCurrentGraph(context.Context) (*logseq.Graph, error) {
	if f.CurrentGraph == nil {
		return nil, apperr.NotFound("no graph open")
	}
	return f.CurrentGraph, nil
}

func (f *FakeAPI) GetAllPages(context.Context) ([]logseq.Page, error) {
	return f.PagesList, nil
}

func (f *FakeAPI) GetPage(_ context.Context, name string) (*logseq.Page, error) {
	for _, p := range f.PagesList {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, apperr.NotFound("page %q", name)
}

func (f *FakeAPI) GetPageBlocks(_ context.Context, name string) ([]logseq.Block, error) {
	tree, ok := f.BlockTrees[name]
	if !ok {
		return nil, apperr.NotFound("page %q has no blocks", name)
	}
	return tree, nil
}

func (f *FakeAPI) GetPageLinkedReferences(context.Context, string) ([]logseq.Block, error) {
	return nil, nil
}

func (f *FakeAPI) GetBlock(_ context.Context, id string) (*logseq.Block, error) {
	return &logseq.Block{UUID: id}, nil
}

func (f *FakeAPI) GetBlockProperties(context.Context, string) (map[string]any, error) {
	return map[string]any{}, nil
}

func (f *FakeAPI) SearchBlocks(context.Context, string) ([]logseq.Block, error) {
	return f.SearchResults, nil
}

func (f *FakeAPI) CreatePage(_ context.Context, name string, _ map[string]any) (*logseq.Page, error) {
	if f.CreatePageErr != nil {
		return nil, f.CreatePageErr
	}
	f.CreatedPages = append(f.CreatedPages, name)
	return &logseq.Page{Name: name}, nil
}

func (f *FakeAPI) DeletePage(context.Context, string) error { return nil }

func (f *FakeAPI) CreateBlock(_ context.Context, pageName, content string, properties map[string]any) (*logseq.Block, error) {
	f.createBlockCalls++
	if f.CreateBlockFailAt > 0 && f.createBlockCalls == f.CreateBlockFailAt {
		return nil, apperr.Upstream(nil, "simulated create_block failure")
	}
	f.CreatedBlocks = append(f.CreatedBlocks, CreatedBlock{Page: pageName, Content: content, Properties: properties})
	return &logseq.Block{UUID: fmt.Sprintf("blk-%d", f.createBlockCalls), Content: content}, nil
}

func (f *FakeAPI) InsertBlock(_ context.Context, _, content string, _ map[string]any, _ bool) (*logseq.Block, error) {
	return &logseq.Block{UUID: "inserted", Content: content}, nil
}

func (f *FakeAPI) UpdateBlock(_ context.Context, id, content string) (*logseq.Block, error) {
	f.updateBlockCalls++
	if f.UpdateBlockFailAt > 0 && f.updateBlockCalls == f.UpdateBlockFailAt {
		return nil, apperr.Upstream(nil, "simulated update_block failure")
	}
	f.UpdatedBlocks = append(f.UpdatedBlocks, UpdatedBlock{ID: id, Content: content})
	return &logseq.Block{UUID: id, Content: content}, nil
}

func (f *FakeAPI) MoveBlock(context.Context, string, string, bool) error { return nil }
func (f *FakeAPI) RemoveBlock(context.Context, string) error             { return nil }

var _ logseq.API = (*FakeAPI)(nil)

// TestTemplates writes a template catalogue to a temp file and returns a
// store reading it through a fresh cache.
func TestTemplates(t *testing.T, yamlBody string) *templates.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "templates.yaml")
	if err := os.WriteFile(path, []byte(yamlBody), 0o644); err != nil {
		t.Fatal(err)
	}
	return templates.NewStore(path, cache.New[map[string]templates.Template]())
}

// TestGraphDir creates a graph root with pages/ and journals/ directories.
func TestGraphDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{"pages", "journals"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return root
}
