package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/stuartsessions/git-ai-sub000/internal/blame"
)

func newBlameCmd() *cobra.Command {
	var jsonOut bool
	var contentsFlag string

	cmd := &cobra.Command{
		Use:   "blame <path>",
		Short: "Show which prompt authored each line of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBlame(cmd, args[0], jsonOut, contentsFlag)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "emit machine-readable JSON")
	cmd.Flags().StringVar(&contentsFlag, "contents", "", "path to dirty working-tree contents, or - for stdin")

	return cmd
}

func runBlame(cmd *cobra.Command, path string, jsonOut bool, contentsFlag string) error {
	rt, err := newRuntimeCtx()
	if err != nil {
		return err
	}
	store, err := rt.notesStore()
	if err != nil {
		return fmt.Errorf("blame: %w", err)
	}

	var contents *string
	if contentsFlag != "" {
		data, readErr := readContentsFlag(contentsFlag)
		if readErr != nil {
			return NewSilentError(fmt.Errorf("blame: read --contents: %w", readErr))
		}
		contents = &data
	}

	result, err := blame.Synthesize(cmd.Context(), rt.repoDir, "HEAD", path, contents, blame.NewNotesLoader(store))
	if err != nil {
		return fmt.Errorf("blame: %w", err)
	}

	if jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	for key, pid := range result.Lines {
		rec := result.Prompts[pid]
		if rec == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\thuman\n", key)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s (%s/%s)\n", key, pid, rec.Tool, rec.Model)
	}
	return nil
}

func readContentsFlag(flag string) (string, error) {
	if flag == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(flag)
	return string(data), err
}
