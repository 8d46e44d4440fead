package oplog

import (
	"path/filepath"
	"testing"

	"github.com/starford/ansuz/internal/engine"
)

func testLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "oplog.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func samplePlan(tool string) (*engine.Plan, *engine.Report) {
	plan := &engine.Plan{
		Tool: tool,
		Actions: []engine.Action{
			{Kind: engine.ActionCreatePage, PageName: "p"},
			{Kind: engine.ActionCreateBlock, PageName: "p", Content: "x"},
		},
	}
	report := &engine.Report{
		Status:    "ok",
		Tool:      tool,
		Planned:   2,
		Succeeded: 2,
		Outcomes: []engine.Outcome{
			{Status: engine.OutcomeSucceeded, ID: "p"},
			{Status: engine.OutcomeSucceeded, ID: "b1"},
		},
	}
	return plan, report
}

func TestRecordAndRecent(t *testing.T) {
	l := testLog(t)

	plan, report := samplePlan("clone_page")
	if err := l.Record(plan, report); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := l.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Tool != "clone_page" || e.Status != "ok" {
		t.Errorf("entry = %+v", e)
	}
	if e.Planned != 2 || e.Succeeded != 2 || e.Failed != 0 {
		t.Errorf("counts = %d/%d/%d", e.Planned, e.Succeeded, e.Failed)
	}
	if e.PlanChecksum == "" {
		t.Error("plan checksum should be set")
	}
	if e.Report == nil || len(e.Report.Outcomes) != 2 {
		t.Errorf("stored report = %+v", e.Report)
	}
	if e.CreatedAt.IsZero() {
		t.Error("created_at should be set")
	}
}

func TestRecentNewestFirst(t *testing.T) {
	l := testLog(t)

	for _, tool := range []string{"first", "second", "third"} {
		plan, report := samplePlan(tool)
		if err := l.Record(plan, report); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := l.Recent(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Tool != "third" || entries[1].Tool != "second" {
		t.Errorf("order = %s, %s", entries[0].Tool, entries[1].Tool)
	}
}

func TestIdenticalPlansShareChecksum(t *testing.T) {
	l := testLog(t)

	plan, report := samplePlan("create_page_from_template")
	if err := l.Record(plan, report); err != nil {
		t.Fatal(err)
	}
	if err := l.Record(plan, report); err != nil {
		t.Fatal(err)
	}
	other, otherReport := samplePlan("find_and_replace")
	if err := l.Record(other, otherReport); err != nil {
		t.Fatal(err)
	}

	entries, err := l.Recent(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[1].PlanChecksum != entries[2].PlanChecksum {
		t.Error("identical plans should share a checksum")
	}
	if entries[0].PlanChecksum == entries[1].PlanChecksum {
		t.Error("different plans should not share a checksum")
	}
}

func TestNilLogIsNoOp(t *testing.T) {
	var l *Log

	plan, report := samplePlan("noop")
	if err := l.Record(plan, report); err != nil {
		t.Errorf("nil Record: %v", err)
	}
	entries, err := l.Recent(5)
	if err != nil {
		t.Errorf("nil Recent: %v", err)
	}
	if entries != nil {
		t.Errorf("nil Recent entries = %v", entries)
	}
	if err := l.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
}
