// Package hookinput normalizes the JSON an agent hook delivers (on stdin,
// or the host's equivalent) into a single internal shape, regardless of
// which field names the particular agent preset happens to use (spec §6's
// field table; spec §9 "Hook input shapes" / "Dynamic dispatch across agent
// presets" design notes).
package hookinput

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/stuartsessions/git-ai-sub000/internal/checkpoint"
	"github.com/stuartsessions/git-ai-sub000/internal/prompt"
)

// Input is the normalized hook record every agent preset's raw JSON is
// flattened into. Fields the raw payload never set are left at their zero
// value; Raw preserves the entire original payload for presets (or
// debugging) that need fields this struct doesn't model.
type Input struct {
	Kind checkpoint.Kind

	SessionID       string
	ChatSessionPath string
	WorkspaceFolder string

	// Files lists paths whose dirty content should be captured
	// (will_edit_filepaths for pre-edit hooks, edited_filepaths for post).
	Files []string

	// DirtyFiles overrides reading file content from disk when the hook
	// payload already carries it.
	DirtyFiles map[string]string

	Tool           string
	Model          string
	ConversationID string

	Raw map[string]any
}

// Decode reads one JSON hook payload from r and normalizes it.
func Decode(r io.Reader) (Input, error) {
	var raw map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Input{}, fmt.Errorf("hookinput: decode: %w", err)
	}
	return Normalize(raw), nil
}

// Normalize maps a raw hook payload's recognized fields onto Input, per
// spec §6's table. Unrecognized field names for the same concept (agents
// disagree on naming) are tried in order; the first present wins.
func Normalize(raw map[string]any) Input {
	in := Input{
		Kind:            kindFromEvent(stringField(raw, "hook_event_name")),
		SessionID:       stringField(raw, "session_id"),
		ChatSessionPath: firstString(raw, "chat_session_path", "transcript_path"),
		WorkspaceFolder: firstString(raw, "workspace_folder", "cwd"),
		Files:           firstStringSlice(raw, "will_edit_filepaths", "edited_filepaths"),
		DirtyFiles:      stringMapField(raw, "dirty_files"),
		Tool:            stringField(raw, "tool"),
		Model:           stringField(raw, "model"),
		ConversationID:  stringField(raw, "conversation_id"),
		Raw:             raw,
	}
	return in
}

// kindFromEvent selects the checkpoint kind per spec §6: before_edit and
// PreToolUse are human (the human is about to direct an edit); after_edit
// and PostToolUse are AI (the agent just produced one). An unrecognized or
// absent event name defaults to Human — the conservative choice, since a
// checkpoint mistakenly tagged AI would misattribute lines the agent never
// touched.
func kindFromEvent(event string) checkpoint.Kind {
	switch event {
	case "after_edit", "PostToolUse":
		return checkpoint.AI
	default:
		return checkpoint.Human
	}
}

func stringField(raw map[string]any, key string) string {
	v, ok := raw[key].(string)
	if !ok {
		return ""
	}
	return v
}

func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if v := stringField(raw, k); v != "" {
			return v
		}
	}
	return ""
}

func firstStringSlice(raw map[string]any, keys ...string) []string {
	for _, k := range keys {
		v, ok := raw[k].([]any)
		if !ok || len(v) == 0 {
			continue
		}
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func stringMapField(raw map[string]any, key string) map[string]string {
	v, ok := raw[key].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(v))
	for k, val := range v {
		if s, ok := val.(string); ok {
			out[k] = s
		}
	}
	return out
}

// Preset is the capability set spec §9 prescribes for dynamic dispatch
// across agents: each agent implementation knows how to recognize its own
// payloads, find its transcript, and parse that transcript's format.
type Preset interface {
	Name() string
	IdentifyAgent(in Input) bool
	LocateTranscript(in Input) (path string, ok bool)
	ParseTranscript(data []byte) ([]prompt.Message, error)
}

// noopPreset satisfies Preset for any hook input the registry doesn't
// recognize: it still lets a checkpoint be recorded, just without any
// transcript (spec §9: "unknown presets resolve to a no-op preset that
// still records a checkpoint").
type noopPreset struct{}

func (noopPreset) Name() string                          { return "unknown" }
func (noopPreset) IdentifyAgent(Input) bool              { return false }
func (noopPreset) LocateTranscript(Input) (string, bool) { return "", false }
func (noopPreset) ParseTranscript([]byte) ([]prompt.Message, error) {
	return nil, nil
}

// Registry resolves a preset name to its capability set, falling back to
// the no-op preset for unknown names.
type Registry struct {
	presets map[string]Preset
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{presets: map[string]Preset{}}
}

// Register adds a preset, keyed by its own Name().
func (r *Registry) Register(p Preset) {
	r.presets[p.Name()] = p
}

// Resolve returns the preset registered under name, or the no-op preset if
// none matches.
func (r *Registry) Resolve(name string) Preset {
	if p, ok := r.presets[name]; ok {
		return p
	}
	return noopPreset{}
}

// Identify walks every registered preset and returns the first one that
// recognizes in's payload shape, used when the caller doesn't already know
// which agent invoked the hook.
func (r *Registry) Identify(in Input) Preset {
	for _, p := range r.presets {
		if p.IdentifyAgent(in) {
			return p
		}
	}
	return noopPreset{}
}
