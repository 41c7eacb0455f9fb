package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stuartsessions/git-ai-sub000/internal/rewritelog"
)

// newPreRebaseCmd implements git's pre-rebase hook entry point (spec §4.5):
// record that a rebase is about to start, so the post-rewrite hook has an
// upstream reference and a pre-rebase HEAD to fall back on if the host gives
// it no rewritten-event stream. Hidden because it is only ever invoked by
// the git hook git-ai install writes, never directly by a user.
func newPreRebaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "pre-rebase <upstream> [branch]",
		Short:  "Record the start of a rebase for the Rewrite Adapter",
		Args:   cobra.RangeArgs(1, 2),
		Hidden: true, // Internal command, not for direct user use
		RunE: func(cmd *cobra.Command, args []string) error {
			branch := ""
			if len(args) > 1 {
				branch = args[1]
			}
			return runPreRebase(cmd, args[0], branch)
		},
	}
	return cmd
}

func runPreRebase(cmd *cobra.Command, upstream, branch string) error {
	rt, err := newRuntimeCtx()
	if err != nil {
		return err
	}

	preHEAD, err := gitRevParseHEAD(rt.repoDir)
	if err != nil {
		return NewSilentError(fmt.Errorf("pre-rebase: resolve HEAD: %w", err))
	}

	entry := rewritelog.Entry{
		Operation: rewritelog.OpRebase,
		PreHEAD:   preHEAD,
		Arguments: []string{upstream},
		Branch:    branch,
		Timestamp: time.Now(),
		State:     rewritelog.StatePending,
	}
	if err := rewritelog.Append(entry); err != nil {
		return fmt.Errorf("pre-rebase: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "recorded pending rebase from %s against %s\n", preHEAD, upstream)
	return nil
}
