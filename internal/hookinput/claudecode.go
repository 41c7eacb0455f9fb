package hookinput

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stuartsessions/git-ai-sub000/internal/prompt"
)

// claudeCodePreset recognizes Claude Code's JSONL transcript format, grounded
// on the teacher's cmd/entire/cli/agent/claudecode/transcript.go: one JSON
// object per line, a "type" of "user" or "assistant", and a nested "message"
// whose "content" is either a plain string or a list of typed blocks.
type claudeCodePreset struct{}

func (claudeCodePreset) Name() string { return "claude-code" }

func (claudeCodePreset) IdentifyAgent(in Input) bool {
	if strings.Contains(strings.ToLower(in.Tool), "claude") {
		return true
	}
	return strings.HasSuffix(in.ChatSessionPath, ".jsonl")
}

func (claudeCodePreset) LocateTranscript(in Input) (string, bool) {
	if in.ChatSessionPath == "" {
		return "", false
	}
	return in.ChatSessionPath, true
}

// claudeTranscriptLine is one line of Claude Code's JSONL transcript.
type claudeTranscriptLine struct {
	Type    string          `json:"type"`
	Message json.RawMessage `json:"message"`
}

// claudeMessageEnvelope unwraps the nested "message" object shared by user
// and assistant lines.
type claudeMessageEnvelope struct {
	Content json.RawMessage `json:"content"`
}

// claudeContentBlock is one block in an assistant message's content list.
type claudeContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (claudeCodePreset) ParseTranscript(data []byte) ([]prompt.Message, error) {
	var out []prompt.Message
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var tl claudeTranscriptLine
		if err := json.Unmarshal(line, &tl); err != nil {
			continue // skip malformed lines, matching the teacher's tolerant scan
		}
		msgType, ok := claudeMessageType(tl.Type)
		if !ok {
			continue
		}
		text, ok := claudeMessageText(tl.Message)
		if !ok {
			continue
		}
		out = append(out, prompt.Message{Type: msgType, Text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("hookinput: scan claude-code transcript: %w", err)
	}
	return out, nil
}

func claudeMessageType(raw string) (prompt.MessageType, bool) {
	switch raw {
	case "user":
		return prompt.MessageUser, true
	case "assistant":
		return prompt.MessageAssistant, true
	case "tool", "tool_result", "tool_use":
		return prompt.MessageTool, true
	default:
		return "", false
	}
}

// claudeMessageText extracts the plain-text content of a message envelope.
// User turns carry a plain string; assistant turns carry a list of typed
// blocks, of which only "text" blocks contribute to the transcript (tool-use
// blocks are represented by their own "tool" lines upstream).
func claudeMessageText(raw json.RawMessage) (string, bool) {
	var envelope claudeMessageEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Content) == 0 {
		return "", false
	}

	var s string
	if err := json.Unmarshal(envelope.Content, &s); err == nil {
		return s, s != ""
	}

	var blocks []claudeContentBlock
	if err := json.Unmarshal(envelope.Content, &blocks); err != nil {
		return "", false
	}
	var b strings.Builder
	for _, blk := range blocks {
		if blk.Type != "text" || blk.Text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(blk.Text)
	}
	return b.String(), b.Len() > 0
}

// DefaultRegistry returns a Registry pre-populated with every agent preset
// this build ships (spec §9's dynamic dispatch), used by callers that don't
// need to customize which presets are available.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(claudeCodePreset{})
	return r
}
