package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/stuartsessions/git-ai-sub000/internal/checkpoint/id"
	"github.com/stuartsessions/git-ai-sub000/internal/prompt"
)

func newContinueCmd() *cobra.Command {
	var (
		commitFlag   string
		fileFlag     string
		promptIDFlag string
		launch       bool
		toClipboard  bool
		jsonOut      bool
	)

	cmd := &cobra.Command{
		Use:   "continue",
		Short: "Resume an agent session from a recorded prompt",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runContinue(cmd, commitFlag, fileFlag, promptIDFlag, launch, toClipboard, jsonOut)
		},
	}

	cmd.Flags().StringVar(&commitFlag, "commit", "", "resolve the prompt from a commit's authorship log")
	cmd.Flags().StringVar(&fileFlag, "file", "", "resolve the prompt most recently attributed to a file")
	cmd.Flags().StringVar(&promptIDFlag, "prompt-id", "", "resolve a specific prompt ID")
	cmd.Flags().BoolVar(&launch, "launch", false, "print the command to relaunch the originating agent")
	cmd.Flags().BoolVar(&toClipboard, "clipboard", false, "copy the transcript to the system clipboard")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit machine-readable JSON")

	return cmd
}

func runContinue(cmd *cobra.Command, commitFlag, fileFlag, promptIDFlag string, launch, toClipboard, jsonOut bool) error {
	rt, err := newRuntimeCtx()
	if err != nil {
		return err
	}
	store, err := rt.notesStore()
	if err != nil {
		return fmt.Errorf("continue: %w", err)
	}

	var rec *prompt.Record
	switch {
	case promptIDFlag != "":
		pid, parseErr := id.ParsePromptID(promptIDFlag)
		if parseErr != nil {
			return NewSilentError(fmt.Errorf("continue: invalid --prompt-id: %w", parseErr))
		}
		_, rec, err = findPrompt(rt.repoDir, store, pid)
	case commitFlag != "":
		log, lookupErr := findPromptByCommit(store, commitFlag)
		if lookupErr != nil {
			err = lookupErr
			break
		}
		rec = latestPrompt(log.Prompts)
	case fileFlag != "":
		var pid id.PromptID
		pid, err = findPromptByFile(rt.repoDir, store, fileFlag)
		if err == nil {
			_, rec, err = findPrompt(rt.repoDir, store, pid)
		}
	default:
		return NewSilentError(fmt.Errorf("continue: one of --commit, --file, or --prompt-id is required"))
	}
	if err != nil {
		return NewSilentError(fmt.Errorf("continue: %w", err))
	}
	if rec == nil {
		return NewSilentError(fmt.Errorf("continue: no prompt found"))
	}

	if jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	transcript := renderTranscript(rec)
	if toClipboard {
		if copyErr := clipboard.WriteAll(transcript); copyErr != nil {
			return NewSilentError(fmt.Errorf("continue: copy to clipboard: %w", copyErr))
		}
		fmt.Fprintln(cmd.OutOrStdout(), "transcript copied to clipboard")
		return nil
	}
	if launch {
		fmt.Fprintf(cmd.OutOrStdout(), "%s --resume %s\n", rec.Tool, rec.PromptID)
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), transcript)
	return nil
}

func renderTranscript(rec *prompt.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "prompt %s (%s/%s)\n", rec.PromptID, rec.Tool, rec.Model)
	for _, m := range rec.Messages {
		fmt.Fprintf(&b, "[%s] %s\n", m.Type, m.Text)
	}
	return b.String()
}

// latestPrompt picks an arbitrary-but-stable (highest accepted lines) prompt
// from a commit's table, used when --commit is given without a file or
// prompt ID to disambiguate among several prompts in one commit.
func latestPrompt(table prompt.Table) *prompt.Record {
	var best *prompt.Record
	for _, rec := range table {
		if best == nil || rec.AcceptedLines > best.AcceptedLines {
			best = rec
		}
	}
	return best
}
