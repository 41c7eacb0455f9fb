// Package id provides the identifier types shared by checkpoints and
// prompts. It is a separate, dependency-free package so that paths,
// trailers, and checkpoint/prompt packages can all depend on it without
// creating import cycles.
package id

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// CheckpointID is the unique identifier for one checkpoint: a UUID generated
// at record time (spec §3: "created by the engine").
type CheckpointID string

// EmptyCheckpointID represents an unset checkpoint ID.
const EmptyCheckpointID CheckpointID = ""

// NewCheckpointID generates a fresh random checkpoint ID.
func NewCheckpointID() CheckpointID {
	return CheckpointID(uuid.NewString())
}

// ParseCheckpointID validates and wraps an existing ID string.
func ParseCheckpointID(s string) (CheckpointID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return EmptyCheckpointID, fmt.Errorf("invalid checkpoint ID %q: %w", s, err)
	}
	return CheckpointID(s), nil
}

func (c CheckpointID) String() string { return string(c) }
func (c CheckpointID) IsEmpty() bool  { return c == EmptyCheckpointID }

// promptIDPattern is a content-addressed hex hash (spec §3: "content-addressed
// hex hash over the canonical transcript"); SHA-256 hex digests are 64 chars.
var promptIDPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// PromptID is the content-addressed identifier of a prompt record.
type PromptID string

// EmptyPromptID represents an unset/unknown prompt ID.
const EmptyPromptID PromptID = ""

// NewPromptID hashes arbitrary canonical transcript bytes into a PromptID.
func NewPromptID(canonicalTranscript []byte) PromptID {
	sum := sha256.Sum256(canonicalTranscript)
	return PromptID(hex.EncodeToString(sum[:]))
}

// ParsePromptID validates and wraps an existing ID string.
func ParsePromptID(s string) (PromptID, error) {
	if s == "" {
		return EmptyPromptID, nil
	}
	if !promptIDPattern.MatchString(s) {
		return EmptyPromptID, fmt.Errorf("invalid prompt ID %q: must be 64 lowercase hex characters", s)
	}
	return PromptID(s), nil
}

func (p PromptID) String() string { return string(p) }
func (p PromptID) IsEmpty() bool  { return p == EmptyPromptID }

// MarshalJSON implements json.Marshaler for PromptID so it serializes as a
// plain JSON string (used as a map key in the authorship log's prompt table).
func (p PromptID) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(string(p))
	if err != nil {
		return nil, fmt.Errorf("marshal prompt ID: %w", err)
	}
	return data, nil
}

// UnmarshalJSON implements json.Unmarshaler with format validation.
func (p *PromptID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("unmarshal prompt ID: %w", err)
	}
	parsed, err := ParsePromptID(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// randomSuffix is used by callers that need a short random token outside of
// a full UUID (e.g. working-log filenames); kept here to centralize the
// randomness source.
func randomSuffix(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate random suffix: %w", err)
	}
	return hex.EncodeToString(b), nil
}
