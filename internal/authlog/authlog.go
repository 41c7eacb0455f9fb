// Package authlog implements the per-commit authorship log: its in-memory
// model, the canonical serializer, and the invariants the Checkpoint Engine
// and Rewrite Adapter both depend on (spec §4.3).
//
// Canonical form (spec §3, §4.3): object keys sorted lexicographically,
// line ranges rendered as a compact "start-end" (or "N") map keyed by range
// and valued by prompt ID or "human:<author>", POSIX paths, UTF-8, a fixed
// trailing newline. The serializer is the sole authority on schema version;
// a log written with a different major version fails to read back.
package authlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/stuartsessions/git-ai-sub000/internal/attribution"
	"github.com/stuartsessions/git-ai-sub000/internal/checkpoint/id"
	"github.com/stuartsessions/git-ai-sub000/internal/paths"
	"github.com/stuartsessions/git-ai-sub000/internal/prompt"
)

// SchemaVersion is the only version this build writes. A log whose major
// component differs fails to parse with ErrSchemaMismatch (spec §7).
const SchemaVersion = "3.0.0"

// ErrSchemaMismatch is returned by Parse when a note's schema_version has a
// different major component than SchemaVersion.
type ErrSchemaMismatch struct {
	Found string
}

func (e *ErrSchemaMismatch) Error() string {
	return fmt.Sprintf("authlog: schema version %q is incompatible with %q", e.Found, SchemaVersion)
}

// Deletion records a prompt that had lines removed in this commit.
type Deletion struct {
	PromptID       id.PromptID `json:"prompt_id"`
	DeletedLines   int         `json:"deleted_lines"`
}

// Stats are derived aggregate counters, grouped by tool and model.
type Stats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// Log is the in-memory authorship log for one commit.
type Log struct {
	SchemaVersion string                          `json:"schema_version"`
	CommitSHA     string                          `json:"commit_sha"`
	Files         map[string][]attribution.Range  `json:"-"`
	Prompts       prompt.Table                    `json:"-"`
	Deletions     []Deletion                      `json:"deletions,omitempty"`
	Stats         map[string]Stats                `json:"stats,omitempty"` // key "tool/model"
}

// New constructs an empty log for a commit, ready to accumulate attribution.
func New(commitSHA string) *Log {
	return &Log{
		SchemaVersion: SchemaVersion,
		CommitSHA:     commitSHA,
		Files:         map[string][]attribution.Range{},
		Prompts:       prompt.Table{},
		Stats:         map[string]Stats{},
	}
}

// SetFile stores the compacted, validated attribution for one file. Binary
// files or files with zero attributions should never be passed here (spec
// §4.1 edge policy: "binary files produce no attribution and are omitted").
func (l *Log) SetFile(path string, ranges []attribution.Range, lineCount int) error {
	compacted := attribution.Compact(ranges)
	if err := attribution.Validate(compacted, lineCount); err != nil {
		return fmt.Errorf("authlog: file %s: %w", path, err)
	}
	l.Files[paths.ToPOSIX(path)] = compacted
	return nil
}

// AddStat accumulates additions/deletions under a tool/model bucket.
func (l *Log) AddStat(tool, model string, additions, deletions int) {
	key := tool + "/" + model
	s := l.Stats[key]
	s.Additions += additions
	s.Deletions += deletions
	l.Stats[key] = s
}

// PopulateCrossReferences fills each attributed prompt's Commits and
// OtherFiles from the files already set on this log (spec §3: "cross-
// reference lists populated at log time"). Commits and Rewrite Adapter both
// call this once, right after attribution, before the log is persisted.
func (l *Log) PopulateCrossReferences(commitSHA string) {
	paths := make([]string, 0, len(l.Files))
	for p := range l.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	touched := map[id.PromptID][]string{}
	for _, p := range paths {
		for _, r := range l.Files[p] {
			if !r.IsAI() {
				continue
			}
			touched[r.PromptID] = appendUnique(touched[r.PromptID], p)
		}
	}
	for pid, files := range touched {
		rec, ok := l.Prompts[pid]
		if !ok {
			continue
		}
		rec.Commits = appendUnique(rec.Commits, commitSHA)
		if len(files) > 1 {
			rec.OtherFiles = appendUnique(rec.OtherFiles, files[1:]...)
		}
	}
}

func appendUnique(list []string, items ...string) []string {
	for _, item := range items {
		dup := false
		for _, existing := range list {
			if existing == item {
				dup = true
				break
			}
		}
		if !dup {
			list = append(list, item)
		}
	}
	return list
}

// FinalizeAggregates derives Deletions and Stats from the prompts already
// attributed to this log: Deletions lists every prompt with historical
// deleted lines, Stats groups accepted (tip) additions and historical
// deletions by tool/model (spec §8's Testable Property: accepted_lines at
// tip vs total_additions/total_deletions historical).
func (l *Log) FinalizeAggregates() {
	for _, rec := range l.Prompts {
		if rec.AcceptedLines == 0 && rec.TotalDeletions == 0 {
			continue
		}
		if rec.TotalDeletions > 0 {
			l.Deletions = append(l.Deletions, Deletion{PromptID: rec.PromptID, DeletedLines: rec.TotalDeletions})
		}
		l.AddStat(rec.Tool, rec.Model, rec.AcceptedLines, rec.TotalDeletions)
	}
	sort.Slice(l.Deletions, func(i, j int) bool { return l.Deletions[i].PromptID < l.Deletions[j].PromptID })
}

// ValidatePromptReferences checks spec §8 invariant 2: every prompt_id
// referenced by a range must appear in Prompts.
func (l *Log) ValidatePromptReferences() error {
	for path, ranges := range l.Files {
		for _, r := range ranges {
			if !r.IsAI() {
				continue
			}
			if _, ok := l.Prompts[r.PromptID]; !ok {
				return fmt.Errorf("authlog: file %s references unknown prompt %s", path, r.PromptID)
			}
		}
	}
	return nil
}

// wireLog is the canonical on-disk shape: sorted-key JSON object with
// "start-end" range maps instead of Range slices.
type wireLog struct {
	SchemaVersion string                     `json:"schema_version"`
	CommitSHA     string                     `json:"commit_sha"`
	Files         map[string]map[string]string `json:"files,omitempty"`
	Prompts       json.RawMessage            `json:"prompts,omitempty"`
	Deletions     []Deletion                 `json:"deletions,omitempty"`
	Stats         map[string]Stats           `json:"stats,omitempty"`
}

// rangeValue renders a range's attribution value: a prompt ID for AI ranges,
// or "human:<author>" for human ranges, so the two populate the same map
// without ambiguity.
func rangeValue(r attribution.Range) string {
	if r.IsAI() {
		return r.PromptID.String()
	}
	return "human:" + r.Author
}

func parseRangeValue(v string) (author string, pid id.PromptID, err error) {
	if strings.HasPrefix(v, "human:") {
		return strings.TrimPrefix(v, "human:"), id.EmptyPromptID, nil
	}
	parsed, err := id.ParsePromptID(v)
	if err != nil {
		return "", id.EmptyPromptID, err
	}
	return "", parsed, nil
}

// Marshal renders the log in canonical form: sorted keys at every level,
// compact range keys, trailing newline.
func (l *Log) Marshal() ([]byte, error) {
	w := wireLog{
		SchemaVersion: l.SchemaVersion,
		CommitSHA:     l.CommitSHA,
		Deletions:     l.Deletions,
		Stats:         l.Stats,
	}

	if len(l.Files) > 0 {
		w.Files = make(map[string]map[string]string, len(l.Files))
		for path, ranges := range l.Files {
			m := make(map[string]string, len(ranges))
			for _, r := range ranges {
				m[r.Key()] = rangeValue(r)
			}
			w.Files[paths.ToPOSIX(path)] = m
		}
	}

	promptJSON, err := l.Prompts.MarshalCanonicalJSON()
	if err != nil {
		return nil, fmt.Errorf("authlog: marshal prompts: %w", err)
	}
	if string(promptJSON) != "{}" {
		w.Prompts = promptJSON
	}

	buf, err := marshalSortedKeys(w)
	if err != nil {
		return nil, err
	}
	buf = append(buf, '\n')
	return buf, nil
}

// marshalSortedKeys marshals via encoding/json (which already sorts map
// keys lexicographically for map[string]X) and re-indents nothing; Go's
// json.Marshal sorts string map keys by default, satisfying the canonical
// form's "keys sorted lexicographically" requirement at every level.
func marshalSortedKeys(w wireLog) ([]byte, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("authlog: marshal: %w", err)
	}
	return bytes.TrimRight(data, "\n"), nil
}

// Parse decodes a note blob into a Log, enforcing schema compatibility.
func Parse(data []byte) (*Log, error) {
	var w wireLog
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("authlog: decode: %w", err)
	}
	if majorVersion(w.SchemaVersion) != majorVersion(SchemaVersion) {
		return nil, &ErrSchemaMismatch{Found: w.SchemaVersion}
	}

	l := New(w.CommitSHA)
	l.SchemaVersion = w.SchemaVersion
	l.Deletions = w.Deletions
	if w.Stats != nil {
		l.Stats = w.Stats
	}

	if len(w.Prompts) > 0 {
		var table map[string]*prompt.Record
		if err := json.Unmarshal(w.Prompts, &table); err != nil {
			return nil, fmt.Errorf("authlog: decode prompts: %w", err)
		}
		for k, v := range table {
			pid, err := id.ParsePromptID(k)
			if err != nil {
				return nil, fmt.Errorf("authlog: invalid prompt key %q: %w", k, err)
			}
			l.Prompts[pid] = v
		}
	}

	for path, rangeMap := range w.Files {
		ranges := make([]attribution.Range, 0, len(rangeMap))
		for key, val := range rangeMap {
			start, end, err := parseRangeKey(key)
			if err != nil {
				return nil, fmt.Errorf("authlog: file %s: %w", path, err)
			}
			author, pid, err := parseRangeValue(val)
			if err != nil {
				return nil, fmt.Errorf("authlog: file %s range %s: %w", path, key, err)
			}
			ranges = append(ranges, attribution.Range{Start: start, End: end, Author: author, PromptID: pid})
		}
		sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })
		l.Files[path] = ranges
	}
	return l, nil
}

func parseRangeKey(key string) (start, end int, err error) {
	if !strings.Contains(key, "-") {
		var n int
		if _, err := fmt.Sscanf(key, "%d", &n); err != nil {
			return 0, 0, fmt.Errorf("invalid range key %q", key)
		}
		return n, n, nil
	}
	parts := strings.SplitN(key, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid range key %q", key)
	}
	if _, err := fmt.Sscanf(parts[0], "%d", &start); err != nil {
		return 0, 0, fmt.Errorf("invalid range key %q", key)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &end); err != nil {
		return 0, 0, fmt.Errorf("invalid range key %q", key)
	}
	return start, end, nil
}

func majorVersion(v string) string {
	parts := strings.SplitN(v, ".", 2)
	return parts[0]
}
