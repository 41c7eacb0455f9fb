package attribution

import (
	"testing"

	"github.com/stuartsessions/git-ai-sub000/internal/checkpoint/id"
)

func TestCompact_MergesAdjacentSameAttribution(t *testing.T) {
	p := id.NewPromptID([]byte("p"))
	in := []Range{
		{Start: 1, End: 2, PromptID: p},
		{Start: 3, End: 4, PromptID: p},
		{Start: 5, End: 5, Author: "human@example.com"},
	}
	out := Compact(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 ranges after merge, got %d: %+v", len(out), out)
	}
	if out[0].Start != 1 || out[0].End != 4 {
		t.Fatalf("expected merged range [1,4], got [%d,%d]", out[0].Start, out[0].End)
	}
}

func TestCompact_DoesNotMergeDifferentPrompts(t *testing.T) {
	p1 := id.NewPromptID([]byte("p1"))
	p2 := id.NewPromptID([]byte("p2"))
	in := []Range{
		{Start: 1, End: 2, PromptID: p1},
		{Start: 3, End: 4, PromptID: p2},
	}
	out := Compact(in)
	if len(out) != 2 {
		t.Fatalf("expected ranges to stay separate, got %d", len(out))
	}
}

func TestValidate_TotalPartition(t *testing.T) {
	ranges := []Range{
		{Start: 1, End: 3, Author: "a"},
		{Start: 4, End: 10, PromptID: id.NewPromptID([]byte("x"))},
	}
	if err := Validate(ranges, 10); err != nil {
		t.Fatalf("expected valid partition, got %v", err)
	}
}

func TestValidate_DetectsGap(t *testing.T) {
	ranges := []Range{
		{Start: 1, End: 3, Author: "a"},
		{Start: 5, End: 10, Author: "b"},
	}
	if err := Validate(ranges, 10); err == nil {
		t.Fatal("expected gap to be detected")
	}
}

func TestValidate_DetectsOverlap(t *testing.T) {
	ranges := []Range{
		{Start: 1, End: 5, Author: "a"},
		{Start: 4, End: 10, Author: "b"},
	}
	if err := Validate(ranges, 10); err == nil {
		t.Fatal("expected overlap to be detected")
	}
}

func TestRange_Key(t *testing.T) {
	if got := (Range{Start: 5, End: 5}).Key(); got != "5" {
		t.Fatalf("expected single-line key, got %q", got)
	}
	if got := (Range{Start: 5, End: 7}).Key(); got != "5-7" {
		t.Fatalf("expected range key, got %q", got)
	}
}

func TestLineOwner(t *testing.T) {
	p := id.NewPromptID([]byte("p"))
	ranges := []Range{
		{Start: 1, End: 3, Author: "human"},
		{Start: 4, End: 8, PromptID: p},
	}
	owner, ok := LineOwner(ranges, 6)
	if !ok || owner.PromptID != p {
		t.Fatalf("expected line 6 to belong to prompt, got %+v, %v", owner, ok)
	}
	if _, ok := LineOwner(ranges, 20); ok {
		t.Fatal("expected no owner for out-of-range line")
	}
}
