package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stuartsessions/git-ai-sub000/internal/checkpoint/id"
	"github.com/stuartsessions/git-ai-sub000/internal/trailers"
	"github.com/stuartsessions/git-ai-sub000/internal/workinglog"
)

// newPrepareCommitMsgCmd implements git's prepare-commit-msg hook entry
// point: stamp the pending commit message with the session and checkpoint
// trailers the Rewrite Adapter's fallback matcher (and any downstream tool
// reading `git log`) can recover without consulting the notes namespace
// (spec §4.6, §3 "commit trailers"). Hidden because it is only ever invoked
// by the git hook git-ai install writes, never directly by a user.
func newPrepareCommitMsgCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "prepare-commit-msg <msg-file> [source] [sha]",
		Short:  "Stamp the pending commit message with session/checkpoint trailers",
		Args:   cobra.RangeArgs(1, 3),
		Hidden: true, // Internal command, not for direct user use
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrepareCommitMsg(cmd, args[0])
		},
	}
	return cmd
}

func runPrepareCommitMsg(cmd *cobra.Command, msgFile string) error {
	rt, err := newRuntimeCtx()
	if err != nil {
		return err
	}

	baseCommit, err := gitRevParseHEAD(rt.repoDir)
	if err != nil {
		// No HEAD yet (the very first commit in a repository); nothing to
		// stamp a trailer against.
		return nil
	}

	checkpoints, err := workinglog.New().List(baseCommit)
	if err != nil {
		return fmt.Errorf("prepare-commit-msg: list pending checkpoints: %w", err)
	}
	if len(checkpoints) == 0 {
		return nil
	}

	var sessionID string
	var lastCheckpointID id.CheckpointID
	for _, cp := range checkpoints {
		if cp.SessionID != "" {
			sessionID = cp.SessionID
		}
		lastCheckpointID = cp.ID
	}
	if sessionID == "" && lastCheckpointID.IsEmpty() {
		return nil
	}

	data, err := os.ReadFile(msgFile)
	if err != nil {
		return NewSilentError(fmt.Errorf("prepare-commit-msg: read %s: %w", msgFile, err))
	}

	stamped := trailers.Format(string(data), sessionID, lastCheckpointID, len(checkpoints))
	if err := os.WriteFile(msgFile, []byte(stamped), 0o644); err != nil {
		return fmt.Errorf("prepare-commit-msg: write %s: %w", msgFile, err)
	}
	return nil
}
