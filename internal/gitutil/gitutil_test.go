package gitutil

import "testing"

func TestIsBinary(t *testing.T) {
	if IsBinary([]byte("hello\nworld\n")) {
		t.Fatal("plain text reported as binary")
	}
	if !IsBinary([]byte("hello\x00world")) {
		t.Fatal("NUL-containing content not reported as binary")
	}
}

func TestSplitLines(t *testing.T) {
	if got := SplitLines(""); got != nil {
		t.Fatalf("expected nil for empty content, got %v", got)
	}
	if got := SplitLines("a\nb\n"); len(got) != 2 {
		t.Fatalf("expected 2 lines, got %v", got)
	}
	if got := SplitLines("a\nb"); len(got) != 2 {
		t.Fatalf("expected 2 lines for content without trailing newline, got %v", got)
	}
}

func TestLineDiff_DetectsInsertDeleteEqual(t *testing.T) {
	ops := LineDiff("a\nb\nc\n", "a\nx\nc\n")
	var sawInsert, sawDelete, sawEqual bool
	for _, op := range ops {
		switch op.Type {
		case DiffInsert:
			sawInsert = true
		case DiffDelete:
			sawDelete = true
		case DiffEqual:
			sawEqual = true
		}
	}
	if !sawInsert || !sawDelete || !sawEqual {
		t.Fatalf("expected insert, delete, and equal ops, got %+v", ops)
	}
}

func TestParsePorcelainBlame(t *testing.T) {
	out := []byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa 1 1 1\nauthor Jane\n\tfoo\n")
	entries := parsePorcelainBlame(out)
	e, ok := entries[1]
	if !ok {
		t.Fatal("expected entry for line 1")
	}
	if e.SHA != "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" || e.OrigLine != 1 {
		t.Fatalf("unexpected entry: %+v", e)
	}
}
