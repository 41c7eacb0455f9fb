// Package prompt models the immutable descriptor of one agent interaction
// (spec §3, "Prompt record").
package prompt

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/stuartsessions/git-ai-sub000/internal/checkpoint/id"
)

// MessageType distinguishes the roles in a prompt transcript.
type MessageType string

const (
	MessageUser      MessageType = "user"
	MessageAssistant MessageType = "assistant"
	MessageTool      MessageType = "tool"
)

// Message is one turn within a prompt transcript.
type Message struct {
	Type      MessageType `json:"type"`
	Text      string      `json:"text"`
	Timestamp *time.Time  `json:"timestamp,omitempty"`
}

// Record is the immutable descriptor of one agent interaction.
type Record struct {
	PromptID     id.PromptID `json:"prompt_id"`
	Tool         string      `json:"tool"`
	Model        string      `json:"model"`
	HumanAuthor  string      `json:"human_author"`
	Messages     []Message   `json:"messages,omitempty"`
	MessagesURL  string      `json:"messages_url,omitempty"`
	TotalAdditions   int `json:"total_additions"`
	TotalDeletions   int `json:"total_deletions"`
	AcceptedLines    int `json:"accepted_lines"`
	OverriddenLines  int `json:"overridden_lines"`
	OtherFiles []string `json:"other_files,omitempty"`
	Commits    []string `json:"commits,omitempty"`
}

// CanonicalTranscript renders the messages into a stable byte sequence used
// to derive the content-addressed PromptID. The format is intentionally
// simple and line-oriented (type\ttext) so that identical transcripts always
// hash identically regardless of map iteration or JSON field ordering.
func CanonicalTranscript(messages []Message) []byte {
	var buf []byte
	for _, m := range messages {
		buf = append(buf, []byte(string(m.Type))...)
		buf = append(buf, '\t')
		buf = append(buf, []byte(m.Text)...)
		buf = append(buf, '\n')
	}
	return buf
}

// NewRecord builds a Record and derives its PromptID from the canonical
// transcript. If model is empty it is recorded as "unknown" per spec §3.
func NewRecord(tool, model, humanAuthor string, messages []Message) Record {
	if model == "" {
		model = "unknown"
	}
	return Record{
		PromptID:    id.NewPromptID(CanonicalTranscript(messages)),
		Tool:        tool,
		Model:       model,
		HumanAuthor: humanAuthor,
		Messages:    messages,
	}
}

// Table is a deduplicated set of prompt records keyed by PromptID, as stored
// in an authorship log's `prompts` field (spec §3: "deduplicated across a
// log by prompt_id").
type Table map[id.PromptID]*Record

// Put inserts or merges a record into the table. If a record with the same
// PromptID already exists, totals are summed and file/commit cross-references
// are merged (deduplicated), matching spec §3's "cross-reference lists ...
// populated at log time" semantics.
func (t Table) Put(r Record) {
	existing, ok := t[r.PromptID]
	if !ok {
		cp := r
		t[r.PromptID] = &cp
		return
	}
	existing.TotalAdditions += r.TotalAdditions
	existing.TotalDeletions += r.TotalDeletions
	existing.AcceptedLines += r.AcceptedLines
	existing.OverriddenLines += r.OverriddenLines
	existing.OtherFiles = mergeUnique(existing.OtherFiles, r.OtherFiles)
	existing.Commits = mergeUnique(existing.Commits, r.Commits)
	if existing.Messages == nil {
		existing.Messages = r.Messages
	}
}

func mergeUnique(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, v := range append(append([]string{}, a...), b...) {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// MarshalCanonicalJSON renders the table as a sorted-key JSON object, the
// form the Authorship Log Serializer embeds verbatim.
func (t Table) MarshalCanonicalJSON() ([]byte, error) {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)

	buf := []byte("{")
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal prompt key: %w", err)
		}
		valJSON, err := json.Marshal(t[id.PromptID(k)])
		if err != nil {
			return nil, fmt.Errorf("marshal prompt record: %w", err)
		}
		buf = append(buf, keyJSON...)
		buf = append(buf, ':')
		buf = append(buf, valJSON...)
	}
	buf = append(buf, '}')
	return buf, nil
}
