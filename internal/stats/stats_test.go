package stats

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/logseq"
	"github.com/starford/ansuz/internal/resolver"
)

func testGraph(t *testing.T) (string, *resolver.Resolver) {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{"pages", "journals"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	r, err := resolver.New(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, r
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestComputeEmptyListing(t *testing.T) {
	_, r := testGraph(t)

	st, err := Compute(nil, r)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if st.TotalPages != 0 || st.TotalSizeBytes != 0 {
		t.Errorf("totals = %d pages, %d bytes", st.TotalPages, st.TotalSizeBytes)
	}
	if st.OldestPage != nil || st.NewestPage != nil {
		t.Error("extrema should be absent for an empty listing")
	}
}

func TestComputeCountsAndSizes(t *testing.T) {
	root, r := testGraph(t)
	writeFile(t, filepath.Join(root, "pages", "a.md"), "12345")
	writeFile(t, filepath.Join(root, "pages", "b.md"), "123")
	writeFile(t, filepath.Join(root, "journals", "2025_01_01.md"), "1234567")

	pages := []logseq.Page{
		{Name: "a"},
		{Name: "b"},
		{Name: "2025_01_01", Journal: true},
		{Name: "index-only"}, // no file yet
	}

	st, err := Compute(pages, r)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if st.TotalPages != 4 {
		t.Errorf("total pages = %d, want 4", st.TotalPages)
	}
	if st.TotalSizeBytes != 15 {
		t.Errorf("total size = %d, want 15", st.TotalSizeBytes)
	}
	if st.JournalPages != 1 || st.RegularPages != 3 {
		t.Errorf("journal/regular = %d/%d, want 1/3", st.JournalPages, st.RegularPages)
	}
	if st.UnresolvedPages != 1 {
		t.Errorf("unresolved = %d, want 1", st.UnresolvedPages)
	}
}

func TestComputeNewestByModTime(t *testing.T) {
	root, r := testGraph(t)
	oldPath := filepath.Join(root, "pages", "old.md")
	newPath := filepath.Join(root, "pages", "new.md")
	writeFile(t, oldPath, "old")
	writeFile(t, newPath, "new")

	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(oldPath, past, past); err != nil {
		t.Fatal(err)
	}

	st, err := Compute([]logseq.Page{{Name: "old"}, {Name: "new"}}, r)
	if err != nil {
		t.Fatal(err)
	}
	if st.NewestPage == nil || st.NewestPage.Name != "new" {
		t.Errorf("newest = %+v, want new", st.NewestPage)
	}
}

func TestComputeFirstEntryWinsTies(t *testing.T) {
	root, r := testGraph(t)
	aPath := filepath.Join(root, "pages", "a.md")
	bPath := filepath.Join(root, "pages", "b.md")
	writeFile(t, aPath, "a")
	writeFile(t, bPath, "b")

	// Pin identical modification times so the tie rule decides.
	when := time.Now().Add(-time.Hour).Truncate(time.Second)
	if err := os.Chtimes(aPath, when, when); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(bPath, when, when); err != nil {
		t.Fatal(err)
	}

	st, err := Compute([]logseq.Page{{Name: "a"}, {Name: "b"}}, r)
	if err != nil {
		t.Fatal(err)
	}
	if st.NewestPage == nil || st.NewestPage.Name != "a" {
		t.Errorf("newest on tie = %+v, want first entry a", st.NewestPage)
	}
}

func TestComputeAllUnresolved(t *testing.T) {
	_, r := testGraph(t)

	st, err := Compute([]logseq.Page{{Name: "x"}, {Name: "y"}}, r)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalPages != 2 || st.UnresolvedPages != 2 {
		t.Errorf("totals = %+v", st)
	}
	if st.OldestPage != nil || st.NewestPage != nil {
		t.Error("extrema should be absent when nothing resolves")
	}
}
