package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

// errSearchNotImplemented reports that the prompt-store-backed search
// surface is an external collaborator (spec.md §1 Out of scope: "the
// SQLite-backed prompt store"). The command exists so downstream shell
// completions and help text stay accurate, matching SPEC_FULL.md §4.9.
var errSearchNotImplemented = errors.New("search requires the prompt-store service; this build only implements the attribution core")

func newSearchCmd() *cobra.Command {
	var (
		commit   string
		file     string
		pattern  string
		promptID string
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search prompt history (requires the prompt-store service)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.PrintErrln("error:", errSearchNotImplemented)
			return NewSilentError(errSearchNotImplemented)
		},
	}

	cmd.Flags().StringVar(&commit, "commit", "", "filter by commit SHA")
	cmd.Flags().StringVar(&file, "file", "", "filter by file path")
	cmd.Flags().StringVar(&pattern, "pattern", "", "filter by text pattern")
	cmd.Flags().StringVar(&promptID, "prompt-id", "", "filter by prompt ID")

	return cmd
}
