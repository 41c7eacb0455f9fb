// Package checkpoint defines the Checkpoint type: one snapshot of dirty
// files captured between host commands, tagged as human or AI (spec §3).
package checkpoint

import (
	"errors"
	"time"

	"github.com/stuartsessions/git-ai-sub000/internal/checkpoint/id"
	"github.com/stuartsessions/git-ai-sub000/internal/prompt"
)

// Kind distinguishes who produced a checkpoint.
type Kind string

const (
	// Human checkpoints are captured by the proxy between host operations
	// and carry a dirty-files map only.
	Human Kind = "human"

	// AI checkpoints are captured by an agent hook and additionally carry
	// a preset identifier, tool/model, prompt ID, and transcript reference.
	AI Kind = "ai"
)

// ErrCheckpointNotFound is returned when a checkpoint ID doesn't exist in
// the Working Log Store.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// Checkpoint is one snapshot recorded by the Checkpoint Engine.
type Checkpoint struct {
	ID id.CheckpointID

	// Ordinal is the monotonic position of this checkpoint within its base
	// commit's working log, used to order the checkpoint chain independent
	// of (possibly skewed) wall-clock timestamps.
	Ordinal int

	Timestamp time.Time

	// BaseCommit is the HEAD SHA at checkpoint time.
	BaseCommit string

	Kind Kind

	// DirtyFiles maps repository-relative POSIX paths to their full content
	// at checkpoint time.
	DirtyFiles map[string]string

	// The following fields are only meaningful for AI checkpoints.
	Tool          string
	Model         string
	PromptID      id.PromptID
	TranscriptRef string
	SessionID     string
	Messages      []prompt.Message
}

// IsAI reports whether this is an agent-authored checkpoint.
func (c Checkpoint) IsAI() bool { return c.Kind == AI }
