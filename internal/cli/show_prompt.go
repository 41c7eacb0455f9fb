package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stuartsessions/git-ai-sub000/internal/checkpoint/id"
)

func newShowPromptCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show-prompt <id>",
		Short: "Show the full transcript and stats for a prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShowPrompt(cmd, args[0], jsonOut)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit machine-readable JSON")

	return cmd
}

func runShowPrompt(cmd *cobra.Command, promptIDStr string, jsonOut bool) error {
	pid, err := id.ParsePromptID(promptIDStr)
	if err != nil {
		return NewSilentError(fmt.Errorf("show-prompt: invalid id: %w", err))
	}

	rt, err := newRuntimeCtx()
	if err != nil {
		return err
	}
	store, err := rt.notesStore()
	if err != nil {
		return fmt.Errorf("show-prompt: %w", err)
	}

	_, rec, err := findPrompt(rt.repoDir, store, pid)
	if err != nil {
		return NewSilentError(fmt.Errorf("show-prompt: %w", err))
	}

	if jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderTranscript(rec))
	fmt.Fprintf(cmd.OutOrStdout(), "accepted=%d overridden=%d total_additions=%d total_deletions=%d\n",
		rec.AcceptedLines, rec.OverriddenLines, rec.TotalAdditions, rec.TotalDeletions)
	return nil
}
