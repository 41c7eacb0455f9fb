package rewritelog

import (
	"path/filepath"
	"testing"
	"time"
)

func TestAppendReadAt_PreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rewrite_log.jsonl")

	e1 := Entry{Operation: OpRebase, Mode: ModeInteractive, PreHEAD: "a", Timestamp: time.Unix(1, 0), State: StatePending}
	e2 := Entry{Operation: OpRebase, Mode: ModeInteractive, PreHEAD: "a", PostHEAD: "b", Timestamp: time.Unix(2, 0), State: StateCompleted}

	if err := appendAt(path, e1); err != nil {
		t.Fatal(err)
	}
	if err := appendAt(path, e2); err != nil {
		t.Fatal(err)
	}

	entries, err := readAllAt(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].State != StatePending || entries[1].State != StateCompleted {
		t.Fatalf("unexpected order/state: %+v", entries)
	}
}

func TestReadAllAt_MissingFile(t *testing.T) {
	entries, err := readAllAt(filepath.Join(t.TempDir(), "missing.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	if entries != nil {
		t.Fatalf("expected nil entries for missing file, got %v", entries)
	}
}

func TestPending_FindsLatestIncomplete(t *testing.T) {
	entries := []Entry{
		{PreHEAD: "a", State: StateCompleted},
		{PreHEAD: "b", State: StatePending},
	}
	p, ok := Pending(entries)
	if !ok || p.PreHEAD != "b" {
		t.Fatalf("expected pending entry b, got %+v, %v", p, ok)
	}
}

func TestPending_NoneWhenAllCompleted(t *testing.T) {
	entries := []Entry{{PreHEAD: "a", State: StateCompleted}}
	if _, ok := Pending(entries); ok {
		t.Fatal("expected no pending entry")
	}
}
