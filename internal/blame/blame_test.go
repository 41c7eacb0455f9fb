package blame

import (
	"testing"

	"github.com/stuartsessions/git-ai-sub000/internal/attribution"
	"github.com/stuartsessions/git-ai-sub000/internal/authlog"
	"github.com/stuartsessions/git-ai-sub000/internal/checkpoint/id"
	"github.com/stuartsessions/git-ai-sub000/internal/gitutil"
	"github.com/stuartsessions/git-ai-sub000/internal/prompt"
)

func entryAt(origLine int, sha string) gitutil.BlameEntry {
	return gitutil.BlameEntry{SHA: sha, Line: origLine, OrigLine: origLine}
}

func rangesHuman(start, end int, author string) []attribution.Range {
	return []attribution.Range{{Start: start, End: end, Author: author}}
}

func TestCoalesce_MergesContiguousSamePrompt(t *testing.T) {
	p := id.NewPromptID([]byte("p1"))
	tags := []id.PromptID{"", p, p, "", p}
	out := coalesce(tags)
	if len(out) != 2 {
		t.Fatalf("expected 2 coalesced ranges, got %+v", out)
	}
	if out["2-3"] != p {
		t.Fatalf("expected lines 2-3 tagged, got %+v", out)
	}
	if out["5"] != p {
		t.Fatalf("expected line 5 tagged, got %+v", out)
	}
}

func TestShiftTags_InsertedLineBreaksAIRun(t *testing.T) {
	p := id.NewPromptID([]byte("q"))
	committed := "l1\nl2\nl3\nl4\nl5\nl6\nl7\nl8\nl9\nl10\n"
	dirty := "l1\nl2\nl3\nl4\nNEW\nl5\nl6\nl7\nl8\nl9\nl10\n"

	committedTags := make([]id.PromptID, 10)
	committedTags[2], committedTags[3], committedTags[4] = p, p, p // lines 3,4,5

	out := shiftTags(committedTags, committed, dirty)
	got := coalesce(out)

	if got["3-4"] != p {
		t.Fatalf("expected lines 3-4 to retain attribution, got %+v", got)
	}
	if got["6"] != p {
		t.Fatalf("expected shifted line 6 to retain attribution, got %+v", got)
	}
	if _, ok := got["5"]; ok {
		t.Fatalf("expected inserted line 5 to carry no attribution, got %+v", got)
	}
}

func TestOriginTag_MissingLogReturnsNotFound(t *testing.T) {
	loadLog := func(sha string) (*authlog.Log, error) { return nil, nil }
	cache := map[string]*authlog.Log{}
	prompts := prompt.Table{}

	_, found, err := originTag(entryAt(1, "deadbeef"), "f.go", loadLog, cache, prompts)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("expected no attribution when log is missing")
	}
}

func TestOriginTag_HumanRangeReturnsNotFound(t *testing.T) {
	log := authlog.New("c1")
	_ = log.SetFile("f.go", rangesHuman(1, 1, "human@example.com"), 1)
	loadLog := func(sha string) (*authlog.Log, error) { return log, nil }
	cache := map[string]*authlog.Log{}
	prompts := prompt.Table{}

	_, found, err := originTag(entryAt(1, "c1"), "f.go", loadLog, cache, prompts)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("expected human-attributed line to yield no prompt tag")
	}
}
