// Package blame implements the Blame Synthesizer (spec §4.7): it turns raw
// line-level git blame into a prompt-attributed view by following each
// line's origin commit back to that commit's authorship log.
package blame

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/stuartsessions/git-ai-sub000/internal/attribution"
	"github.com/stuartsessions/git-ai-sub000/internal/authlog"
	"github.com/stuartsessions/git-ai-sub000/internal/checkpoint/id"
	"github.com/stuartsessions/git-ai-sub000/internal/gitutil"
	"github.com/stuartsessions/git-ai-sub000/internal/notesstore"
	"github.com/stuartsessions/git-ai-sub000/internal/prompt"
)

// LogLoader resolves a commit SHA to its authorship log. It returns a nil
// log (not an error) when the commit carries no note, so callers can
// distinguish "no attribution available" from a genuine failure.
type LogLoader func(commitSHA string) (*authlog.Log, error)

// NewNotesLoader adapts a notesstore.Store into a LogLoader, parsing the
// note blob as an authorship log. A SchemaMismatch is treated the same as a
// missing note (spec §7: SchemaMismatch "skip that commit ... continue").
func NewNotesLoader(store *notesstore.Store) LogLoader {
	return func(commitSHA string) (*authlog.Log, error) {
		data, ok, err := store.Get(commitSHA)
		if err != nil {
			return nil, fmt.Errorf("blame: load note for %s: %w", commitSHA, err)
		}
		if !ok {
			return nil, nil
		}
		log, err := authlog.Parse(data)
		if err != nil {
			var mismatch *authlog.ErrSchemaMismatch
			if errors.As(err, &mismatch) {
				return nil, nil
			}
			return nil, fmt.Errorf("blame: parse note for %s: %w", commitSHA, err)
		}
		return log, nil
	}
}

// Result is the synthesizer's output (spec §4.7 step 4): prompt-attributed
// line ranges plus the prompt records they reference. Human-attributed
// lines are omitted from Lines entirely.
type Result struct {
	Lines   map[string]id.PromptID
	Prompts prompt.Table
}

// Synthesize runs the full blame-to-attribution pipeline for one file at one
// revision. contents, if non-nil, replaces the working-tree content for the
// diff-and-shift step (spec §4.7 step 3) without requiring the caller to
// touch the index; pass nil to blame the committed version directly.
func Synthesize(ctx context.Context, repoDir, revision, path string, contents *string, loadLog LogLoader) (*Result, error) {
	entries, err := gitutil.BlameFile(ctx, repoDir, revision, path)
	if err != nil {
		return nil, fmt.Errorf("blame: %w", err)
	}
	committed, err := showFile(ctx, repoDir, revision, path)
	if err != nil {
		return nil, fmt.Errorf("blame: %w", err)
	}
	committedLines := gitutil.SplitLines(committed)

	logCache := map[string]*authlog.Log{}
	prompts := prompt.Table{}

	committedTags := make([]id.PromptID, len(committedLines))
	for line := 1; line <= len(committedLines); line++ {
		entry, ok := entries[line]
		if !ok {
			continue
		}
		pid, found, err := originTag(entry, path, loadLog, logCache, prompts)
		if err != nil {
			return nil, err
		}
		if found {
			committedTags[line-1] = pid
		}
	}

	finalTags := committedTags
	if contents != nil && *contents != committed {
		finalTags = shiftTags(committedTags, committed, *contents)
	}

	return &Result{Lines: coalesce(finalTags), Prompts: prompts}, nil
}

// originTag loads origin's authorship log (caching across calls within one
// Synthesize run) and looks up the attribution covering origLine.
func originTag(entry gitutil.BlameEntry, path string, loadLog LogLoader, cache map[string]*authlog.Log, prompts prompt.Table) (id.PromptID, bool, error) {
	log, ok := cache[entry.SHA]
	if !ok {
		loaded, err := loadLog(entry.SHA)
		if err != nil {
			return "", false, err
		}
		cache[entry.SHA] = loaded
		log = loaded
	}
	if log == nil {
		return "", false, nil
	}
	r, ok := attribution.LineOwner(log.Files[path], entry.OrigLine)
	if !ok || !r.IsAI() {
		return "", false, nil
	}
	if rec, ok := log.Prompts[r.PromptID]; ok {
		prompts.Put(*rec)
	}
	return r.PromptID, true, nil
}

// shiftTags maps committed-line attributions onto the caller-supplied dirty
// contents (spec §4.7 step 3): surviving lines carry their tag forward,
// deleted lines vanish, and inserted/modified lines get no tag (external
// human edits, omitted from the result).
func shiftTags(committedTags []id.PromptID, committed, dirty string) []id.PromptID {
	ops := gitutil.LineDiff(committed, dirty)
	dirtyLineCount := len(gitutil.SplitLines(dirty))
	out := make([]id.PromptID, dirtyLineCount)

	prevIdx, nextIdx := 0, 0
	for _, op := range ops {
		switch op.Type {
		case gitutil.DiffEqual:
			for range op.Lines {
				if prevIdx < len(committedTags) && nextIdx < len(out) {
					out[nextIdx] = committedTags[prevIdx]
				}
				prevIdx++
				nextIdx++
			}
		case gitutil.DiffDelete:
			prevIdx += len(op.Lines)
		case gitutil.DiffInsert:
			nextIdx += len(op.Lines)
		}
	}
	return out
}

// coalesce merges contiguous same-prompt lines into "start-end" keys,
// omitting any line with no AI attribution.
func coalesce(tags []id.PromptID) map[string]id.PromptID {
	var ranges []attribution.Range
	for i, pid := range tags {
		if pid.IsEmpty() {
			continue
		}
		line := i + 1
		ranges = append(ranges, attribution.Range{Start: line, End: line, PromptID: pid})
	}
	compacted := attribution.Compact(ranges)

	out := make(map[string]id.PromptID, len(compacted))
	for _, r := range compacted {
		out[r.Key()] = r.PromptID
	}
	return out
}

func showFile(ctx context.Context, repoDir, revision, path string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "show", revision+":"+path)
	cmd.Dir = repoDir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git show %s:%s: %w", revision, path, err)
	}
	return string(out), nil
}
