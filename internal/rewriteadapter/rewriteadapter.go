// Package rewriteadapter implements the Rebase / Rewrite Adapter (spec
// §4.6): given a mapping of source commits to destination commits produced
// by a history-rewriting operation, it reconstructs each destination
// commit's authorship log from its sources' logs.
package rewriteadapter

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/stuartsessions/git-ai-sub000/internal/attribution"
	"github.com/stuartsessions/git-ai-sub000/internal/authlog"
	"github.com/stuartsessions/git-ai-sub000/internal/checkpoint/id"
	"github.com/stuartsessions/git-ai-sub000/internal/fingerprint"
	"github.com/stuartsessions/git-ai-sub000/internal/gitutil"
	"github.com/stuartsessions/git-ai-sub000/internal/prompt"
)

// Mapping records which source commits collapse, split, or carry forward
// into which destination commits.
type Mapping struct {
	SrcToDst map[string][]string
	DstToSrc map[string][]string
}

// NewMapping returns an empty Mapping.
func NewMapping() *Mapping {
	return &Mapping{SrcToDst: map[string][]string{}, DstToSrc: map[string][]string{}}
}

// Add records one src-to-dst edge. Sequential rewrites (rebase, cherry-pick)
// call this once per pair; squash calls it once per source commit against
// the shared destination; split calls it once per destination against the
// shared source.
func (m *Mapping) Add(src, dst string) {
	if !contains(m.SrcToDst[src], dst) {
		m.SrcToDst[src] = append(m.SrcToDst[src], dst)
	}
	if !contains(m.DstToSrc[dst], src) {
		m.DstToSrc[dst] = append(m.DstToSrc[dst], src)
	}
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// Destinations returns every destination commit touched by the mapping, in
// no particular order.
func (m *Mapping) Destinations() []string {
	out := make([]string, 0, len(m.DstToSrc))
	for d := range m.DstToSrc {
		out = append(out, d)
	}
	return out
}

// RewrittenEvent is one line of git's post-rewrite hook stdin format:
// "<old-sha> <new-sha> [extra-info]" (git-rebase(1), git-commit(1) --amend).
type RewrittenEvent struct {
	OldSHA string
	NewSHA string
}

// ParsePostRewriteEvents reads the post-rewrite hook's stdin stream and
// builds a sequential src->dst Mapping from it (spec §4.6: "consume the
// host's 'rewritten' event stream pairing pre and post SHAs").
func ParsePostRewriteEvents(r io.Reader) (*Mapping, error) {
	m := NewMapping()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("rewriteadapter: malformed post-rewrite line %q", line)
		}
		m.Add(fields[0], fields[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("rewriteadapter: scan post-rewrite input: %w", err)
	}
	return m, nil
}

// CommitMeta is the minimal commit information needed for fallback matching
// when no authoritative rewritten-event stream is available.
type CommitMeta struct {
	SHA      string
	Message  string
	TreeHash string
}

// FallbackMatch pairs source and destination commits by exact commit
// message and a tree-hash prefix comparison when the host provides no
// rewritten-event stream (spec §4.6: "fall back to matching by commit
// message and tree-prefix hashing, conservatively emitting a warning when
// the match is ambiguous"). It returns the best-effort mapping plus a list
// of destination SHAs whose match was ambiguous (matched more than one
// candidate, or matched none).
func FallbackMatch(srcs, dsts []CommitMeta) (*Mapping, []string) {
	m := NewMapping()
	var ambiguous []string

	byMessage := make(map[string][]CommitMeta, len(srcs))
	for _, s := range srcs {
		byMessage[s.Message] = append(byMessage[s.Message], s)
	}

	for _, d := range dsts {
		candidates := byMessage[d.Message]
		switch len(candidates) {
		case 0:
			ambiguous = append(ambiguous, d.SHA)
		case 1:
			m.Add(candidates[0].SHA, d.SHA)
		default:
			// Message collides across multiple sources; narrow by tree-prefix
			// hash before giving up.
			var byTree []CommitMeta
			for _, c := range candidates {
				if treePrefixMatch(c.TreeHash, d.TreeHash) {
					byTree = append(byTree, c)
				}
			}
			switch len(byTree) {
			case 1:
				m.Add(byTree[0].SHA, d.SHA)
			case 0:
				ambiguous = append(ambiguous, d.SHA)
				m.Add(candidates[0].SHA, d.SHA)
			default:
				ambiguous = append(ambiguous, d.SHA)
				m.Add(byTree[0].SHA, d.SHA)
			}
		}
	}
	return m, ambiguous
}

func treePrefixMatch(a, b string) bool {
	n := min(len(a), len(b), 8)
	if n == 0 {
		return false
	}
	return a[:n] == b[:n]
}

// SourceCommit is one source commit's attribution state as seen by the
// adapter: its authorship log (nil if missing) and the full content of
// every file it touched, keyed by repository-relative path.
type SourceCommit struct {
	SHA   string
	Log   *authlog.Log
	Files map[string]string
}

// sourceLine is one pool line carried forward from a source commit,
// tagged with its attribution.
type sourceLine struct {
	text     string
	isAI     bool
	promptID id.PromptID
	author   string

	// matched is set by mapFileAttribution once this pool entry has been
	// filled in to see whether it survived into the destination.
	matched bool
}

// AttributeDestination reconstructs dstSHA's authorship log from its source
// commits (spec §4.6 steps 1-5). sources should already be in topological
// order for squash (N->1): on identical-line collisions the earliest source
// wins (first-writer-wins, per spec). For split (1->N) callers invoke this
// once per destination with the same shared source(s); each call resolves
// independently against that destination's own tree.
//
// Missing source logs (nil Log) degrade gracefully: their lines are treated
// as unattributed and fall back to humanAuthor, per spec's failure-handling
// clause — the adapter never fails the operation for incomplete history.
func AttributeDestination(dstSHA string, dstFiles map[string]string, sources []SourceCommit, humanAuthor string) *authlog.Log {
	log := authlog.New(dstSHA)
	log.Prompts = seedPromptRecords(sources)

	for path, dstContent := range dstFiles {
		if gitutil.IsBinary([]byte(dstContent)) {
			continue
		}
		pool := buildPool(path, sources, humanAuthor, log.Prompts)
		ranges := mapFileAttribution(pool, dstContent, humanAuthor)
		bumpDisplacedPrompts(pool, log.Prompts)

		lineCount := len(gitutil.SplitLines(dstContent))
		if lineCount == 0 {
			continue
		}
		if err := log.SetFile(path, ranges, lineCount); err != nil {
			// A mismatched reconstruction for this file only; the rest of the
			// commit's attribution still gets written (spec: the operation
			// never fails because of the adapter).
			continue
		}
	}
	finalizePromptTotals(log)
	log.PopulateCrossReferences(dstSHA)
	log.FinalizeAggregates()
	return log
}

// seedPromptRecords merges every source log's prompt table into one, using
// prompt.Table.Put so historical totals (total_additions, total_deletions)
// and cross-reference lists survive a squash or rebase instead of being
// zeroed (spec §4.6: "historical totals carry forward across a rewrite").
// accepted_lines and overridden_lines are reset to zero afterward since those
// are recomputed fresh against the destination's own tree below.
func seedPromptRecords(sources []SourceCommit) prompt.Table {
	merged := prompt.Table{}
	for _, s := range sources {
		if s.Log == nil {
			continue
		}
		for _, rec := range s.Log.Prompts {
			merged.Put(*rec)
		}
	}
	for _, rec := range merged {
		rec.AcceptedLines = 0
		rec.OverriddenLines = 0
	}
	return merged
}

// buildPool flattens every source commit's attributed lines for path, in
// source order, skipping sources that never touched the file, and seeds
// prompts with a record for every AI-attributed prompt it encounters (spec
// §4.6 step 1: "collect the union of all attributions from the source
// logs").
func buildPool(path string, sources []SourceCommit, humanAuthor string, prompts prompt.Table) []sourceLine {
	var pool []sourceLine
	for _, s := range sources {
		content, ok := s.Files[path]
		if !ok || gitutil.IsBinary([]byte(content)) {
			continue
		}
		var ranges []attribution.Range
		if s.Log != nil {
			ranges = s.Log.Files[path]
		}
		for i, text := range gitutil.SplitLines(content) {
			r, found := attribution.LineOwner(ranges, i+1)
			switch {
			case found && r.IsAI():
				ensurePromptRecord(prompts, r.PromptID, humanAuthor)
				pool = append(pool, sourceLine{text: text, isAI: true, promptID: r.PromptID})
			case found:
				pool = append(pool, sourceLine{text: text, author: r.Author})
			default:
				// No source attribution for this line (e.g. predates tool
				// installation): recorded as human, per spec's failure handling.
				pool = append(pool, sourceLine{text: text, author: humanAuthor})
			}
		}
	}
	return pool
}

// ensurePromptRecord is the defensive fallback for a prompt ID encountered
// while walking a source's ranges that seedPromptRecords didn't already seed
// from a source log's own prompt table (e.g. a log with attributed ranges
// but a stale or hand-edited prompts section).
func ensurePromptRecord(prompts prompt.Table, pid id.PromptID, humanAuthor string) {
	if _, ok := prompts[pid]; ok {
		return
	}
	prompts[pid] = &prompt.Record{PromptID: pid, Model: "unknown", HumanAuthor: humanAuthor}
}

// mapFileAttribution matches dstContent's lines against the source pool by
// fingerprint (spec §4.6 step 2: "for each destination line, look up the
// matching source line by fingerprint; on match, inherit its attribution").
// Unmatched lines are conflict-resolution edits, attributed to humanAuthor.
// Matching consumes pool entries in fingerprint-index order, which is pool
// order, so collisions resolve first-writer-wins automatically (spec step 3).
func mapFileAttribution(pool []sourceLine, dstContent, humanAuthor string) []attribution.Range {
	poolTexts := make([]string, len(pool))
	for i, p := range pool {
		poolTexts[i] = p.text
	}
	poolFPs := fingerprint.Fingerprints(poolTexts)
	poolIndex := fingerprint.Index(poolFPs)
	used := make([]bool, len(pool))

	dstLines := gitutil.SplitLines(dstContent)
	dstFPs := fingerprint.Fingerprints(dstLines)

	tags := make([]sourceLine, len(dstLines))
	for i, fp := range dstFPs {
		matched := -1
		for _, cand := range poolIndex[fp] {
			if !used[cand] {
				matched = cand
				break
			}
		}
		if matched >= 0 {
			used[matched] = true
			tags[i] = pool[matched]
			continue
		}
		tags[i] = sourceLine{text: dstLines[i], author: humanAuthor}
	}

	markUsed(pool, used)
	return tagsToRanges(tags)
}

func markUsed(pool []sourceLine, used []bool) {
	for i := range pool {
		pool[i].matched = used[i]
	}
}

// bumpDisplacedPrompts counts every AI-attributed pool line that never
// matched a destination line as overridden: its content did not survive the
// rewrite verbatim, so the conflict-resolution edit that replaced it counts
// against the originating prompt (spec §4.6 step 2's "counted as overridden").
func bumpDisplacedPrompts(pool []sourceLine, prompts prompt.Table) {
	for _, p := range pool {
		if p.matched || !p.isAI {
			continue
		}
		if rec, ok := prompts[p.promptID]; ok {
			rec.OverriddenLines++
		}
	}
}

func tagsToRanges(tags []sourceLine) []attribution.Range {
	ranges := make([]attribution.Range, 0, len(tags))
	for i, t := range tags {
		line := i + 1
		if len(ranges) > 0 {
			last := &ranges[len(ranges)-1]
			sameAI := last.IsAI() && t.isAI && last.PromptID == t.promptID
			sameHuman := !last.IsAI() && !t.isAI && last.Author == t.author
			if last.End == i && (sameAI || sameHuman) {
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

// finalizePromptTotals computes accepted_lines from the ranges that actually
// survived into the destination log, mirroring the Checkpoint Engine's own
// finalization step so a rewrite-produced log is indistinguishable in shape
// from an engine-produced one (spec step 5: "the destination log is then
// written exactly as if the Checkpoint Engine had produced it"). total_
// additions/total_deletions are historical and already carried forward from
// the sources by seedPromptRecords, not recomputed here.
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
