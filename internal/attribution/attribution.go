// Package attribution defines the per-file attribution range model shared
// by the checkpoint engine, the rewrite adapter, and the blame synthesizer.
//
// A Range is a contiguous, 1-indexed, inclusive line interval attributed
// either to a human author or to a prompt. Ranges within one file's
// attribution list are kept total (covering every line), non-overlapping,
// and sorted by start line.
package attribution

import (
	"fmt"
	"sort"

	"github.com/stuartsessions/git-ai-sub000/internal/checkpoint/id"
)

// Range is one contiguous line interval's attribution.
type Range struct {
	// Start and End are 1-indexed, inclusive line numbers.
	Start, End int

	// PromptID is set when the range is AI-authored; empty for human ranges.
	PromptID id.PromptID

	// Author is set when the range is human-authored ("Name <email>").
	Author string
}

// IsAI reports whether the range is attributed to a prompt rather than a
// human author directly.
func (r Range) IsAI() bool { return !r.PromptID.IsEmpty() }

// Lines returns the number of lines the range covers.
func (r Range) Lines() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// sameAttribution reports whether two ranges carry identical authorship,
// the condition under which adjacent ranges must be merged (spec §3: "ranges
// are merged when adjacent with identical attribution").
func sameAttribution(a, b Range) bool {
	return a.IsAI() == b.IsAI() && a.PromptID == b.PromptID && a.Author == b.Author
}

// Compact sorts ranges by start line and merges adjacent ranges with
// identical attribution. It does not fill gaps or split overlaps — callers
// are expected to already hold a total, non-overlapping partition; Compact
// only removes redundant boundaries.
func Compact(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}
	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	out := make([]Range, 0, len(sorted))
	cur := sorted[0]
	for _, next := range sorted[1:] {
		if next.Start == cur.End+1 && sameAttribution(cur, next) {
			cur.End = next.End
			continue
		}
		out = append(out, cur)
		cur = next
	}
	out = append(out, cur)
	return out
}

// Validate checks the universal invariant (spec §8, property 1): ranges
// cover [1, lineCount] exactly once with no gaps or overlaps.
func Validate(ranges []Range, lineCount int) error {
	if lineCount == 0 {
		if len(ranges) != 0 {
			return fmt.Errorf("expected no ranges for an empty file, got %d", len(ranges))
		}
		return nil
	}
	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	expected := 1
	for _, r := range sorted {
		if r.Start != expected {
			return fmt.Errorf("attribution gap or overlap: expected range to start at %d, got %d", expected, r.Start)
		}
		if r.End < r.Start {
			return fmt.Errorf("invalid range [%d,%d]", r.Start, r.End)
		}
		expected = r.End + 1
	}
	if expected != lineCount+1 {
		return fmt.Errorf("attribution does not cover all lines: covered up to %d, want %d", expected-1, lineCount)
	}
	return nil
}

// Serialize renders a range's key as used in the canonical authorship log
// format: a single line number for a one-line range, "start-end" otherwise.
func (r Range) Key() string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// LineOwner returns the (prompt or human) attribution covering a specific
// 1-indexed line, or ok=false if no range covers it.
func LineOwner(ranges []Range, line int) (Range, bool) {
	for _, r := range ranges {
		if line >= r.Start && line <= r.End {
			return r, true
		}
	}
	return Range{}, false
}
