package rewriteadapter

import (
	"strings"
	"testing"

	"github.com/stuartsessions/git-ai-sub000/internal/attribution"
	"github.com/stuartsessions/git-ai-sub000/internal/authlog"
	"github.com/stuartsessions/git-ai-sub000/internal/checkpoint/id"
	"github.com/stuartsessions/git-ai-sub000/internal/prompt"
)

func TestParsePostRewriteEvents_BuildsSequentialMapping(t *testing.T) {
	in := strings.NewReader("aaaa bbbb\ncccc dddd rebase\n\n")
	m, err := ParsePostRewriteEvents(in)
	if err != nil {
		t.Fatal(err)
	}
	if got := m.SrcToDst["aaaa"]; len(got) != 1 || got[0] != "bbbb" {
		t.Fatalf("expected aaaa->bbbb, got %v", got)
	}
	if got := m.DstToSrc["dddd"]; len(got) != 1 || got[0] != "cccc" {
		t.Fatalf("expected dddd<-cccc, got %v", got)
	}
}

func TestParsePostRewriteEvents_RejectsMalformedLine(t *testing.T) {
	in := strings.NewReader("onlyonetoken\n")
	if _, err := ParsePostRewriteEvents(in); err == nil {
		t.Fatal("expected error for malformed line")
	}
}

func TestFallbackMatch_UniqueMessageMatches(t *testing.T) {
	srcs := []CommitMeta{{SHA: "s1", Message: "fix bug", TreeHash: "1234abcd"}}
	dsts := []CommitMeta{{SHA: "d1", Message: "fix bug", TreeHash: "1234abcd"}}
	m, ambiguous := FallbackMatch(srcs, dsts)
	if len(ambiguous) != 0 {
		t.Fatalf("expected no ambiguity, got %v", ambiguous)
	}
	if got := m.DstToSrc["d1"]; len(got) != 1 || got[0] != "s1" {
		t.Fatalf("expected d1<-s1, got %v", got)
	}
}

func TestFallbackMatch_DuplicateMessageResolvedByTree(t *testing.T) {
	srcs := []CommitMeta{
		{SHA: "s1", Message: "wip", TreeHash: "11111111aaaa"},
		{SHA: "s2", Message: "wip", TreeHash: "22222222bbbb"},
	}
	dsts := []CommitMeta{{SHA: "d1", Message: "wip", TreeHash: "22222222cccc"}}
	m, ambiguous := FallbackMatch(srcs, dsts)
	if len(ambiguous) != 0 {
		t.Fatalf("expected tree-prefix to disambiguate, got ambiguous=%v", ambiguous)
	}
	if got := m.DstToSrc["d1"]; len(got) != 1 || got[0] != "s2" {
		t.Fatalf("expected d1<-s2, got %v", got)
	}
}

func TestFallbackMatch_NoCandidateIsAmbiguous(t *testing.T) {
	srcs := []CommitMeta{{SHA: "s1", Message: "a"}}
	dsts := []CommitMeta{{SHA: "d1", Message: "b"}}
	_, ambiguous := FallbackMatch(srcs, dsts)
	if len(ambiguous) != 1 || ambiguous[0] != "d1" {
		t.Fatalf("expected d1 ambiguous, got %v", ambiguous)
	}
}

func TestAttributeDestination_SequentialRewriteCarriesAttribution(t *testing.T) {
	pid := id.NewPromptID([]byte("prompt-x"))

	srcLog := authlog.New("src1")
	srcLog.Prompts[pid] = &prompt.Record{PromptID: pid, Tool: "claude", Model: "sonnet", HumanAuthor: "human@example.com"}
	if err := srcLog.SetFile("a.go", []attribution.Range{{Start: 1, End: 2, PromptID: pid}}, 2); err != nil {
		t.Fatal(err)
	}

	src := SourceCommit{
		SHA:   "src1",
		Log:   srcLog,
		Files: map[string]string{"a.go": "line1\nline2\n"},
	}
	dstFiles := map[string]string{"a.go": "line1\nline2\n"}

	log := AttributeDestination("dst1", dstFiles, []SourceCommit{src}, "human@example.com")

	ranges := log.Files["a.go"]
	if len(ranges) != 1 || !ranges[0].IsAI() || ranges[0].PromptID != pid {
		t.Fatalf("expected attribution to carry through unchanged, got %+v", ranges)
	}
	rec := log.Prompts[pid]
	if rec == nil || rec.AcceptedLines != 2 {
		t.Fatalf("expected 2 accepted lines, got %+v", rec)
	}
}

func TestAttributeDestination_ConflictEditAttributedToHuman(t *testing.T) {
	pid := id.NewPromptID([]byte("prompt-y"))

	srcLog := authlog.New("src1")
	srcLog.Prompts[pid] = &prompt.Record{PromptID: pid, Tool: "claude", Model: "sonnet", HumanAuthor: "human@example.com"}
	if err := srcLog.SetFile("a.go", []attribution.Range{{Start: 1, End: 1, PromptID: pid}}, 1); err != nil {
		t.Fatal(err)
	}

	src := SourceCommit{
		SHA:   "src1",
		Log:   srcLog,
		Files: map[string]string{"a.go": "original\n"},
	}
	// Resolving a rebase conflict replaces the AI line with new content that
	// appears nowhere in any source.
	dstFiles := map[string]string{"a.go": "resolved-by-human\n"}

	log := AttributeDestination("dst1", dstFiles, []SourceCommit{src}, "rebaser@example.com")

	ranges := log.Files["a.go"]
	if len(ranges) != 1 || ranges[0].IsAI() || ranges[0].Author != "rebaser@example.com" {
		t.Fatalf("expected conflict-resolution line attributed to rebaser, got %+v", ranges)
	}
	rec := log.Prompts[pid]
	if rec == nil || rec.OverriddenLines != 1 {
		t.Fatalf("expected displaced AI line to count as overridden, got %+v", rec)
	}
}

func TestAttributeDestination_SquashFirstWriterWinsOnCollision(t *testing.T) {
	pidOld := id.NewPromptID([]byte("prompt-old"))
	pidNew := id.NewPromptID([]byte("prompt-new"))

	log1 := authlog.New("src1")
	log1.Prompts[pidOld] = &prompt.Record{PromptID: pidOld, HumanAuthor: "human@example.com"}
	_ = log1.SetFile("a.go", []attribution.Range{{Start: 1, End: 1, PromptID: pidOld}}, 1)

	log2 := authlog.New("src2")
	log2.Prompts[pidNew] = &prompt.Record{PromptID: pidNew, HumanAuthor: "human@example.com"}
	_ = log2.SetFile("a.go", []attribution.Range{{Start: 1, End: 1, PromptID: pidNew}}, 1)

	sources := []SourceCommit{
		{SHA: "src1", Log: log1, Files: map[string]string{"a.go": "shared line\n"}},
		{SHA: "src2", Log: log2, Files: map[string]string{"a.go": "shared line\n"}},
	}
	dstFiles := map[string]string{"a.go": "shared line\n"}

	log := AttributeDestination("squashed", dstFiles, sources, "human@example.com")
	ranges := log.Files["a.go"]
	if len(ranges) != 1 || ranges[0].PromptID != pidOld {
		t.Fatalf("expected earliest source to win the collision, got %+v", ranges)
	}
}

func TestAttributeDestination_MissingSourceLogFallsBackToHuman(t *testing.T) {
	src := SourceCommit{SHA: "src1", Log: nil, Files: map[string]string{"a.go": "line1\n"}}
	dstFiles := map[string]string{"a.go": "line1\n"}

	log := AttributeDestination("dst1", dstFiles, []SourceCommit{src}, "human@example.com")
	ranges := log.Files["a.go"]
	if len(ranges) != 1 || ranges[0].IsAI() || ranges[0].Author != "human@example.com" {
		t.Fatalf("expected human fallback for missing source log, got %+v", ranges)
	}
}
