// Package cli wires the core attribution packages to a cobra command tree
// (spec SPEC_FULL.md §4.9), binding spec.md §6's external interface:
// checkpoint, blame, search, continue, show-prompt, squash-authorship.
package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/stuartsessions/git-ai-sub000/internal/config"
	"github.com/stuartsessions/git-ai-sub000/internal/gitutil"
	"github.com/stuartsessions/git-ai-sub000/internal/notesstore"
	"github.com/stuartsessions/git-ai-sub000/internal/paths"
	"github.com/stuartsessions/git-ai-sub000/internal/telemetry"
)

// Version information, overridable at build time via -ldflags (mirrors the
// teacher's root.go Version/Commit variables).
var (
	Version = "dev"
	Commit  = "unknown"
)

// runtime bundles the per-invocation state every subcommand needs: the
// resolved config (loaded once, handed around by value per SPEC_FULL.md §6
// "no component reaches for a package-level global except the one
// startup-time constructor"), the repository root, and a lazily-opened
// notes store.
type runtimeCtx struct {
	cfg     config.Config
	repoDir string
}

func newRuntimeCtx() (*runtimeCtx, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	repoDir, err := paths.RepoRoot()
	if err != nil {
		return nil, NewSilentError(fmt.Errorf("not a git repository"))
	}
	return &runtimeCtx{cfg: cfg, repoDir: repoDir}, nil
}

func (r *runtimeCtx) notesStore() (*notesstore.Store, error) {
	repo, err := gitutil.OpenRepo(r.repoDir)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return notesstore.New(repo), nil
}

// NewRootCmd builds the git-ai command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "git-ai",
		Short: "git-ai attribution core",
		Long: `git-ai tracks which lines in a git repository were written by a human
versus an AI coding agent, surviving commits, rebases, squashes, and
cherry-picks.`,
		// Let main.go handle error printing to avoid duplication.
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			cfg, err := config.Load()
			var enabled *bool
			if err == nil {
				enabled = cfg.TelemetryEnabled
			}
			client := telemetry.NewClient(Version, enabled)
			defer client.Close()
			client.TrackCommand(cmd.Name(), nil)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newCheckpointCmd())
	cmd.AddCommand(newBlameCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newContinueCmd())
	cmd.AddCommand(newShowPromptCmd())
	cmd.AddCommand(newSquashAuthorshipCmd())
	cmd.AddCommand(newDebugCmd())
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newPostCommitCmd())
	cmd.AddCommand(newPreRebaseCmd())
	cmd.AddCommand(newPostRewriteCmd())
	cmd.AddCommand(newPrepareCommitMsgCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "git-ai %s (%s)\n", Version, Commit)
			fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
