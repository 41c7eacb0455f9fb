package authlog

import (
	"errors"
	"strings"
	"testing"

	"github.com/stuartsessions/git-ai-sub000/internal/attribution"
	"github.com/stuartsessions/git-ai-sub000/internal/checkpoint/id"
	"github.com/stuartsessions/git-ai-sub000/internal/prompt"
)

func TestMarshalParse_RoundTrip(t *testing.T) {
	l := New("deadbeef")
	pid := id.NewPromptID([]byte("hello"))
	l.Prompts[pid] = &prompt.Record{PromptID: pid, Tool: "claude", Model: "sonnet", HumanAuthor: "a@example.com"}

	if err := l.SetFile("a.go", []attribution.Range{
		{Start: 1, End: 3, Author: "a@example.com"},
		{Start: 4, End: 10, PromptID: pid},
	}, 10); err != nil {
		t.Fatal(err)
	}

	data, err := l.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(data), "\n") {
		t.Fatal("expected trailing newline")
	}

	parsed, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.CommitSHA != "deadbeef" {
		t.Fatalf("commit sha mismatch: %q", parsed.CommitSHA)
	}
	ranges := parsed.Files["a.go"]
	if len(ranges) != 2 {
		t.Fatalf("expected 2 ranges, got %d: %+v", len(ranges), ranges)
	}
	if err := parsed.ValidatePromptReferences(); err != nil {
		t.Fatalf("expected valid prompt references, got %v", err)
	}
}

func TestParse_SchemaMismatch(t *testing.T) {
	data := []byte(`{"schema_version":"4.0.0","commit_sha":"x"}`)
	_, err := Parse(data)
	if err == nil {
		t.Fatal("expected schema mismatch error")
	}
	var mismatch *ErrSchemaMismatch
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %T: %v", err, err)
	}
}

func TestMarshal_IsIdempotent(t *testing.T) {
	l := New("abc")
	if err := l.SetFile("x.go", []attribution.Range{{Start: 1, End: 1, Author: "h"}}, 1); err != nil {
		t.Fatal(err)
	}
	a, err := l.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	b, err := l.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Fatal("expected byte-identical output on repeated marshal")
	}
}

func TestValidatePromptReferences_DetectsMissing(t *testing.T) {
	l := New("abc")
	pid := id.NewPromptID([]byte("missing"))
	_ = l.SetFile("x.go", []attribution.Range{{Start: 1, End: 1, PromptID: pid}}, 1)
	if err := l.ValidatePromptReferences(); err == nil {
		t.Fatal("expected missing prompt reference to be detected")
	}
}
