// Package engine implements the Checkpoint Engine: recording checkpoints
// into the Working Log Store and, at commit time, composing the checkpoint
// chain plus the committed tree into a per-commit authorship log
// (spec §4.1).
package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/stuartsessions/git-ai-sub000/internal/attribution"
	"github.com/stuartsessions/git-ai-sub000/internal/authlog"
	"github.com/stuartsessions/git-ai-sub000/internal/checkpoint"
	"github.com/stuartsessions/git-ai-sub000/internal/checkpoint/id"
	"github.com/stuartsessions/git-ai-sub000/internal/gitutil"
	"github.com/stuartsessions/git-ai-sub000/internal/logging"
	"github.com/stuartsessions/git-ai-sub000/internal/prompt"
	"github.com/stuartsessions/git-ai-sub000/internal/workinglog"
)

// Store is the subset of workinglog.Store the engine depends on, narrowed
// for testability.
type Store interface {
	Append(ctx context.Context, cp checkpoint.Checkpoint) (checkpoint.Checkpoint, error)
	Drain(ctx context.Context, baseCommit string) ([]checkpoint.Checkpoint, error)
}

// Engine ties the Working Log Store to the attribution algorithm.
type Engine struct {
	store Store
}

// New builds an Engine over a workinglog.Store (or a test double).
func New(store Store) *Engine {
	if store == nil {
		store = workinglog.New()
	}
	return &Engine{store: store}
}

// PromptMeta carries the optional agent-provided fields for an AI checkpoint.
type PromptMeta struct {
	Tool          string
	Model         string
	PromptID      id.PromptID
	TranscriptRef string
	SessionID     string
	Messages      []prompt.Message
}

// RecordCheckpoint persists one checkpoint to the Working Log Store
// (spec §4.1 record_checkpoint). dirty_files keys must already be
// repository-relative, POSIX-normalized paths.
func (e *Engine) RecordCheckpoint(ctx context.Context, kind checkpoint.Kind, baseCommit string, dirtyFiles map[string]string, meta *PromptMeta) (id.CheckpointID, error) {
	if baseCommit == "" {
		return id.EmptyCheckpointID, fmt.Errorf("engine: base_commit is required")
	}
	cp := checkpoint.Checkpoint{
		BaseCommit: baseCommit,
		Kind:       kind,
		DirtyFiles: dirtyFiles,
	}
	if meta != nil {
		cp.Tool = meta.Tool
		cp.Model = meta.Model
		cp.PromptID = meta.PromptID
		cp.TranscriptRef = meta.TranscriptRef
		cp.SessionID = meta.SessionID
		cp.Messages = meta.Messages
	}
	saved, err := e.store.Append(ctx, cp)
	if err != nil {
		if err == workinglog.ErrConcurrentCheckpoint {
			logging.Warn(ctx, "checkpoint dropped: concurrent writer", "base_commit", baseCommit)
			return id.EmptyCheckpointID, err
		}
		return id.EmptyCheckpointID, fmt.Errorf("engine: record checkpoint: %w", err)
	}
	return saved.ID, nil
}

// DrainCheckpoints hands back every checkpoint recorded against baseCommit
// and clears its working log, so the caller can fold them into an
// authorship log via AttributeCommit. This is what the post-commit hook
// calls once baseCommit's child commit exists and the chain is ready to be
// folded (spec §4.2).
func (e *Engine) DrainCheckpoints(ctx context.Context, baseCommit string) ([]checkpoint.Checkpoint, error) {
	entries, err := e.store.Drain(ctx, baseCommit)
	if err != nil {
		return nil, fmt.Errorf("engine: drain checkpoints: %w", err)
	}
	return entries, nil
}

// tag is a line's authorship at one point in the composition chain.
type tag struct {
	isAI     bool
	promptID id.PromptID
	author   string
}

func humanTag(author string) tag { return tag{author: author} }
func aiTag(pid id.PromptID) tag  { return tag{isAI: true, promptID: pid} }

func (t tag) sameAs(o tag) bool {
	return t.isAI == o.isAI && t.promptID == o.promptID && t.author == o.author
}

// FileInput supplies per-file content at the parent tree and the committed
// tree, keeping the engine decoupled from any particular git library
// binding so it's independently testable.
type FileInput struct {
	Path string

	// ParentContent and CommitContent are the file's content at the parent
	// and committed trees respectively; empty string means the file is
	// absent there (a genuinely empty existing file is indistinguishable
	// from absence, which only affects files with zero lines either way).
	ParentContent string
	CommitContent string
}

// AttributeCommit implements spec §4.1's attribution algorithm. parentLog is
// the parent commit's authorship log if one exists (nil if the parent
// predates tool installation or has none); it seeds attribution for lines
// carried over unchanged from before this commit. humanAuthor identifies
// whoever runs the final commit and any human checkpoints in the chain.
func (e *Engine) AttributeCommit(ctx context.Context, commitSHA, parentSHA, humanAuthor string, files []FileInput, checkpoints []checkpoint.Checkpoint, parentLog *authlog.Log) (*authlog.Log, error) {
	log := authlog.New(commitSHA)

	sorted := make([]checkpoint.Checkpoint, len(checkpoints))
	copy(sorted, checkpoints)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Ordinal < sorted[j].Ordinal })

	for _, f := range files {
		if gitutil.IsBinary([]byte(f.ParentContent)) || gitutil.IsBinary([]byte(f.CommitContent)) {
			continue // edge policy (a): binary files produce no attribution
		}
		if f.ParentContent == f.CommitContent {
			continue // no change in this file across P->C; nothing to attribute here
		}

		ranges, err := e.attributeFile(f, sorted, humanAuthor, parentLog, log.Prompts)
		if err != nil {
			logging.Warn(ctx, "attribution failed for file", "path", f.Path, "error", err.Error())
			continue // edge policy: AttributionFailure omits the file, continues
		}
		lineCount := len(gitutil.SplitLines(f.CommitContent))
		if lineCount == 0 {
			continue
		}
		if err := log.SetFile(f.Path, ranges, lineCount); err != nil {
			logging.Warn(ctx, "attribution invariant violated", "path", f.Path, "error", err.Error())
			continue
		}
	}

	finalizePromptTotals(log)
	log.PopulateCrossReferences(commitSHA)
	log.FinalizeAggregates()
	return log, nil
}

// finalizePromptTotals computes accepted_lines (spec §4.1 step 6): lines
// still attributed to a prompt at the committed tree. total_additions is
// historical and accumulated as insertions happen (see bumpInserted), not
// recomputed here, so it keeps counting lines a later edit overwrote.
func finalizePromptTotals(log *authlog.Log) {
	for _, ranges := range log.Files {
		for _, r := range ranges {
			if !r.IsAI() {
				continue
			}
			if rec, ok := log.Prompts[r.PromptID]; ok {
				rec.AcceptedLines += r.Lines()
			}
		}
	}
}

// attributeFile runs the per-file composition algorithm (spec §4.1 steps 2-4).
func (e *Engine) attributeFile(f FileInput, checkpoints []checkpoint.Checkpoint, humanAuthor string, parentLog *authlog.Log, prompts prompt.Table) ([]attribution.Range, error) {
	lines := gitutil.SplitLines(f.ParentContent)
	tags := seedTags(f.Path, lines, parentLog)

	content := f.ParentContent
	for _, cp := range checkpoints {
		dirty, ok := cp.DirtyFiles[f.Path]
		if !ok {
			continue
		}
		var transitionTag tag
		if cp.IsAI() {
			transitionTag = aiTag(cp.PromptID)
			if _, exists := prompts[cp.PromptID]; !exists && !cp.PromptID.IsEmpty() {
				prompts[cp.PromptID] = &prompt.Record{PromptID: cp.PromptID, Tool: cp.Tool, Model: cp.Model, HumanAuthor: humanAuthor, Messages: cp.Messages}
			}
		} else {
			transitionTag = humanTag(humanAuthor)
		}
		newTags, err := advance(content, dirty, tags, transitionTag, prompts)
		if err != nil {
			return nil, err
		}
		tags = newTags
		content = dirty
	}

	// Final transition into the committed tree is always attributed to the
	// human performing the commit.
	finalTags, err := advance(content, f.CommitContent, tags, humanTag(humanAuthor), prompts)
	if err != nil {
		return nil, err
	}

	return tagsToRanges(finalTags), nil
}

// seedTags attributes S_0 (the parent tree's content) by looking up the
// parent commit's authorship log; lines with no prior attribution (parent
// predates tool installation, or the file is new) default to an unknown
// human author, per the stated non-goal of reconstructing pre-installation
// history.
func seedTags(path string, lines []string, parentLog *authlog.Log) []tag {
	tags := make([]tag, len(lines))
	var ranges []attribution.Range
	if parentLog != nil {
		ranges = parentLog.Files[path]
	}
	for i := range lines {
		if r, ok := attribution.LineOwner(ranges, i+1); ok {
			if r.IsAI() {
				tags[i] = aiTag(r.PromptID)
			} else {
				tags[i] = humanTag(r.Author)
			}
			continue
		}
		tags[i] = humanTag("unknown")
	}
	return tags
}

// advance computes the tags for nextContent given prevContent's tags,
// attributing inserted lines to transitionTag and updating prompt stats for
// lines that are overridden (replaced) or deleted (spec §4.1 step 3-4).
func advance(prevContent, nextContent string, prevTags []tag, transitionTag tag, prompts prompt.Table) ([]tag, error) {
	ops := gitutil.LineDiff(prevContent, nextContent)

	var nextTags []tag
	prevIdx := 0
	var pendingDeletes []tag

	flushDeletes := func() {
		for _, d := range pendingDeletes {
			if d.isAI {
				bumpDeleted(prompts, d.promptID)
			}
		}
		pendingDeletes = nil
	}

	for i, op := range ops {
		switch op.Type {
		case gitutil.DiffEqual:
			flushDeletes()
			for range op.Lines {
				if prevIdx >= len(prevTags) {
					return nil, fmt.Errorf("diff/content length mismatch")
				}
				nextTags = append(nextTags, prevTags[prevIdx])
				prevIdx++
			}
		case gitutil.DiffDelete:
			for range op.Lines {
				if prevIdx >= len(prevTags) {
					return nil, fmt.Errorf("diff/content length mismatch")
				}
				pendingDeletes = append(pendingDeletes, prevTags[prevIdx])
				prevIdx++
			}
		case gitutil.DiffInsert:
			for j := range op.Lines {
				if j < len(pendingDeletes) {
					prior := pendingDeletes[j]
					if prior.isAI {
						bumpOverridden(prompts, prior.promptID)
					}
				}
				nextTags = append(nextTags, transitionTag)
			}
			if transitionTag.isAI {
				bumpInserted(prompts, transitionTag.promptID, len(op.Lines))
			}
			if len(op.Lines) >= len(pendingDeletes) {
				pendingDeletes = nil
			} else {
				pendingDeletes = pendingDeletes[len(op.Lines):]
			}
			if i == len(ops)-1 {
				flushDeletes()
			}
		}
	}
	flushDeletes()
	return nextTags, nil
}

func bumpOverridden(prompts prompt.Table, pid id.PromptID) {
	if r, ok := prompts[pid]; ok {
		r.OverriddenLines++
	}
}

// bumpInserted accumulates total_additions at the moment a prompt's lines
// enter the tree, independent of whether they survive to the committed tip
// (spec §8's "total_ai_additions" is historical, unlike "accepted_lines").
func bumpInserted(prompts prompt.Table, pid id.PromptID, n int) {
	if r, ok := prompts[pid]; ok {
		r.TotalAdditions += n
	}
}

func bumpDeleted(prompts prompt.Table, pid id.PromptID) {
	if r, ok := prompts[pid]; ok {
		r.TotalDeletions++
	}
}

func tagsToRanges(tags []tag) []attribution.Range {
	ranges := make([]attribution.Range, 0, len(tags))
	for i, t := range tags {
		line := i + 1
		if len(ranges) > 0 {
			last := &ranges[len(ranges)-1]
			lastTag := tag{isAI: last.IsAI(), promptID: last.PromptID, author: last.Author}
			if last.End == i && lastTag.sameAs(t) {
				last.End = line
				continue
			}
		}
		r := attribution.Range{Start: line, End: line}
		if t.isAI {
			r.PromptID = t.promptID
		} else {
			r.Author = t.author
		}
		ranges = append(ranges, r)
	}
	return ranges
}
