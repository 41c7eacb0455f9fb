package hookinput

import (
	"strings"
	"testing"

	"github.com/stuartsessions/git-ai-sub000/internal/checkpoint"
	"github.com/stuartsessions/git-ai-sub000/internal/prompt"
)

func TestNormalize_BeforeEditIsHumanKind(t *testing.T) {
	in := Normalize(map[string]any{
		"hook_event_name": "before_edit",
		"session_id":      "sess-1",
		"cwd":             "/repo",
	})
	if in.Kind != checkpoint.Human {
		t.Fatalf("expected Human kind, got %v", in.Kind)
	}
	if in.SessionID != "sess-1" {
		t.Fatalf("session id not mapped: %+v", in)
	}
	if in.WorkspaceFolder != "/repo" {
		t.Fatalf("expected cwd fallback for workspace folder, got %q", in.WorkspaceFolder)
	}
}

func TestNormalize_PostToolUseIsAIKind(t *testing.T) {
	in := Normalize(map[string]any{
		"hook_event_name": "PostToolUse",
		"tool":             "Edit",
		"model":            "claude-sonnet",
	})
	if in.Kind != checkpoint.AI {
		t.Fatalf("expected AI kind, got %v", in.Kind)
	}
	if in.Tool != "Edit" || in.Model != "claude-sonnet" {
		t.Fatalf("tool/model not mapped: %+v", in)
	}
}

func TestNormalize_UnknownEventDefaultsHuman(t *testing.T) {
	in := Normalize(map[string]any{"hook_event_name": "something_new"})
	if in.Kind != checkpoint.Human {
		t.Fatalf("expected conservative Human default, got %v", in.Kind)
	}
}

func TestNormalize_PrefersWillEditOverEditedFilepaths(t *testing.T) {
	in := Normalize(map[string]any{
		"will_edit_filepaths": []any{"a.go", "b.go"},
		"edited_filepaths":    []any{"c.go"},
	})
	if len(in.Files) != 2 || in.Files[0] != "a.go" || in.Files[1] != "b.go" {
		t.Fatalf("unexpected files: %v", in.Files)
	}
}

func TestNormalize_FallsBackToEditedFilepathsWhenWillEditAbsent(t *testing.T) {
	in := Normalize(map[string]any{
		"edited_filepaths": []any{"c.go"},
	})
	if len(in.Files) != 1 || in.Files[0] != "c.go" {
		t.Fatalf("unexpected files: %v", in.Files)
	}
}

func TestNormalize_PreservesRawAndDirtyFiles(t *testing.T) {
	raw := map[string]any{
		"hook_event_name": "after_edit",
		"dirty_files": map[string]any{
			"a.go": "package a\n",
		},
		"extra_field_unknown_to_us": 42.0,
	}
	in := Normalize(raw)
	if in.DirtyFiles["a.go"] != "package a\n" {
		t.Fatalf("dirty files not mapped: %+v", in.DirtyFiles)
	}
	if in.Raw["extra_field_unknown_to_us"] != 42.0 {
		t.Fatalf("raw payload not preserved: %+v", in.Raw)
	}
}

func TestDecode_ParsesJSONPayload(t *testing.T) {
	in, err := Decode(strings.NewReader(`{"hook_event_name":"PreToolUse","session_id":"s1"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Kind != checkpoint.Human || in.SessionID != "s1" {
		t.Fatalf("unexpected decode result: %+v", in)
	}
}

func TestDecode_RejectsMalformedJSON(t *testing.T) {
	if _, err := Decode(strings.NewReader(`not json`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

type stubPreset struct {
	name     string
	identify bool
}

func (s stubPreset) Name() string                { return s.name }
func (s stubPreset) IdentifyAgent(Input) bool    { return s.identify }
func (s stubPreset) LocateTranscript(Input) (string, bool) {
	return "/tmp/" + s.name + ".jsonl", true
}
func (s stubPreset) ParseTranscript(data []byte) ([]prompt.Message, error) {
	return []prompt.Message{{Type: prompt.MessageUser, Text: string(data)}}, nil
}

func TestRegistry_ResolveKnownName(t *testing.T) {
	r := NewRegistry()
	r.Register(stubPreset{name: "claude-code"})

	p := r.Resolve("claude-code")
	if p.Name() != "claude-code" {
		t.Fatalf("expected claude-code preset, got %s", p.Name())
	}
}

func TestRegistry_ResolveUnknownNameFallsBackToNoop(t *testing.T) {
	r := NewRegistry()
	p := r.Resolve("never-registered")
	if p.Name() != "unknown" {
		t.Fatalf("expected no-op fallback, got %s", p.Name())
	}
	if _, ok := p.LocateTranscript(Input{}); ok {
		t.Fatal("no-op preset should never locate a transcript")
	}
}

func TestRegistry_IdentifyPicksMatchingPreset(t *testing.T) {
	r := NewRegistry()
	r.Register(stubPreset{name: "gemini-cli", identify: false})
	r.Register(stubPreset{name: "claude-code", identify: true})

	p := r.Identify(Input{})
	if p.Name() != "claude-code" {
		t.Fatalf("expected claude-code to be identified, got %s", p.Name())
	}
}

func TestRegistry_IdentifyFallsBackToNoopWhenNoneMatch(t *testing.T) {
	r := NewRegistry()
	r.Register(stubPreset{name: "gemini-cli", identify: false})

	p := r.Identify(Input{})
	if p.Name() != "unknown" {
		t.Fatalf("expected no-op fallback, got %s", p.Name())
	}
}
