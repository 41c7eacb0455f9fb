// Package trailers parses and formats the Git-Ai-* commit trailers the
// core attaches so downstream tools and the rewrite adapter's fallback
// matcher (spec §4.6: "fall back to matching by commit message ...") can
// recover context without consulting the notes namespace.
package trailers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/stuartsessions/git-ai-sub000/internal/checkpoint/id"
)

const (
	// SessionTrailerKey identifies the agent session that produced a commit.
	SessionTrailerKey = "Git-Ai-Session"

	// CheckpointTrailerKey records the last checkpoint folded into a commit.
	CheckpointTrailerKey = "Git-Ai-Checkpoint"

	// CheckpointCountTrailerKey is a supplemental trailer (not in the
	// original distillation) recording how many checkpoints were folded
	// into the commit, useful for downstream tools without reading the
	// notes blob.
	CheckpointCountTrailerKey = "Git-Ai-Checkpoint-Count"

	// BaseCommitTrailerKey links a rewritten commit back to its pre-rewrite
	// parent, used by the fallback matcher when no rewritten-event stream
	// is available.
	BaseCommitTrailerKey = "Git-Ai-Base-Commit"
)

var (
	sessionTrailerRegex        = regexp.MustCompile(SessionTrailerKey + `:\s*(\S+)`)
	checkpointTrailerRegex     = regexp.MustCompile(CheckpointTrailerKey + `:\s*([0-9a-fA-F-]{36})`)
	checkpointCountTrailerRegex = regexp.MustCompile(CheckpointCountTrailerKey + `:\s*(\d+)`)
	baseCommitTrailerRegex     = regexp.MustCompile(BaseCommitTrailerKey + `:\s*([0-9a-f]{40})`)
)

// ParseSession extracts the session ID trailer, if present.
func ParseSession(commitMessage string) (string, bool) {
	m := sessionTrailerRegex.FindStringSubmatch(commitMessage)
	if len(m) > 1 {
		return strings.TrimSpace(m[1]), true
	}
	return "", false
}

// ParseCheckpoint extracts and validates the checkpoint ID trailer.
func ParseCheckpoint(commitMessage string) (id.CheckpointID, bool) {
	m := checkpointTrailerRegex.FindStringSubmatch(commitMessage)
	if len(m) > 1 {
		if cpID, err := id.ParseCheckpointID(strings.TrimSpace(m[1])); err == nil {
			return cpID, true
		}
	}
	return id.EmptyCheckpointID, false
}

// ParseCheckpointCount extracts the checkpoint count trailer.
func ParseCheckpointCount(commitMessage string) (int, bool) {
	m := checkpointCountTrailerRegex.FindStringSubmatch(commitMessage)
	if len(m) > 1 {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return n, true
		}
	}
	return 0, false
}

// ParseBaseCommit extracts the pre-rewrite base commit trailer.
func ParseBaseCommit(commitMessage string) (string, bool) {
	m := baseCommitTrailerRegex.FindStringSubmatch(commitMessage)
	if len(m) > 1 {
		return m[1], true
	}
	return "", false
}

// Format appends the standard trailer block to a commit message. An empty
// sessionID or checkpointCount of zero omits that trailer.
func Format(message, sessionID string, checkpointID id.CheckpointID, checkpointCount int) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(message, "\n"))
	b.WriteString("\n\n")
	if sessionID != "" {
		fmt.Fprintf(&b, "%s: %s\n", SessionTrailerKey, sessionID)
	}
	if !checkpointID.IsEmpty() {
		fmt.Fprintf(&b, "%s: %s\n", CheckpointTrailerKey, checkpointID)
	}
	if checkpointCount > 0 {
		fmt.Fprintf(&b, "%s: %d\n", CheckpointCountTrailerKey, checkpointCount)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// FormatBaseCommit appends only the base-commit trailer, used by the
// Rewrite Adapter's fallback matcher when writing synthetic markers.
func FormatBaseCommit(message, baseCommit string) string {
	return strings.TrimRight(message, "\n") + "\n\n" + BaseCommitTrailerKey + ": " + baseCommit + "\n"
}
