package prompt

import (
	"encoding/json"
	"testing"
)

func TestNewRecord_DeterministicID(t *testing.T) {
	msgs := []Message{{Type: MessageUser, Text: "do the thing"}}
	a := NewRecord("claude", "", "Ada <ada@example.com>", msgs)
	b := NewRecord("claude", "", "Ada <ada@example.com>", msgs)
	if a.PromptID != b.PromptID {
		t.Fatalf("expected deterministic prompt ID, got %s vs %s", a.PromptID, b.PromptID)
	}
	if a.Model != "unknown" {
		t.Fatalf("expected default model unknown, got %q", a.Model)
	}
}

func TestTable_PutDeduplicatesAndMergesTotals(t *testing.T) {
	msgs := []Message{{Type: MessageUser, Text: "hi"}}
	r := NewRecord("claude", "sonnet", "Ada <ada@example.com>", msgs)
	r.TotalAdditions = 3
	r.OtherFiles = []string{"a.go"}

	table := Table{}
	table.Put(r)

	r2 := r
	r2.TotalAdditions = 2
	r2.OtherFiles = []string{"b.go"}
	table.Put(r2)

	if len(table) != 1 {
		t.Fatalf("expected single deduplicated entry, got %d", len(table))
	}
	got := table[r.PromptID]
	if got.TotalAdditions != 5 {
		t.Fatalf("expected merged total additions 5, got %d", got.TotalAdditions)
	}
	if len(got.OtherFiles) != 2 {
		t.Fatalf("expected merged unique files, got %v", got.OtherFiles)
	}
}

func TestTable_MarshalCanonicalJSON_SortedKeys(t *testing.T) {
	table := Table{}
	table.Put(NewRecord("claude", "sonnet", "a", []Message{{Type: MessageUser, Text: "z"}}))
	table.Put(NewRecord("claude", "sonnet", "a", []Message{{Type: MessageUser, Text: "a"}}))

	data, err := table.MarshalCanonicalJSON()
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("expected valid JSON object, got error: %v, data: %s", err, data)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(decoded))
	}
}
