package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stuartsessions/git-ai-sub000/internal/authlog"
	"github.com/stuartsessions/git-ai-sub000/internal/logging"
	"github.com/stuartsessions/git-ai-sub000/internal/rewriteadapter"
	"github.com/stuartsessions/git-ai-sub000/internal/rewritelog"
)

func newSquashAuthorshipCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "squash-authorship <branch> <new_sha> <old_tip_sha>",
		Short: "Recompute one squashed commit's authorship log from its replaced range",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSquashAuthorship(cmd, args[0], args[1], args[2])
		},
	}
	return cmd
}

func runSquashAuthorship(cmd *cobra.Command, branch, newSHA, oldTipSHA string) error {
	rt, err := newRuntimeCtx()
	if err != nil {
		return err
	}
	store, err := rt.notesStore()
	if err != nil {
		return fmt.Errorf("squash-authorship: %w", err)
	}

	oldSHAs, err := gitRevList(rt.repoDir, oldTipSHA, newSHA+"^")
	if err != nil {
		return NewSilentError(fmt.Errorf("squash-authorship: list squashed commits: %w", err))
	}
	if len(oldSHAs) == 0 {
		return NewSilentError(fmt.Errorf("squash-authorship: no commits found between %s and its parent", oldTipSHA))
	}

	// gitRevList returns nearest-first; attribution wants oldest-first so
	// that "first writer wins" on squash collisions lines up with history.
	for i, j := 0, len(oldSHAs)-1; i < j; i, j = i+1, j-1 {
		oldSHAs[i], oldSHAs[j] = oldSHAs[j], oldSHAs[i]
	}

	sources := make([]rewriteadapter.SourceCommit, 0, len(oldSHAs))
	for _, sha := range oldSHAs {
		data, ok, getErr := store.Get(sha)
		if getErr != nil || !ok {
			continue
		}
		log, parseErr := authlog.Parse(data)
		if parseErr != nil {
			continue
		}
		files := map[string]string{}
		for path := range log.Files {
			content, showErr := gitShowFile(rt.repoDir, sha, path)
			if showErr != nil {
				continue
			}
			files[path] = content
		}
		sources = append(sources, rewriteadapter.SourceCommit{SHA: sha, Log: log, Files: files})
	}

	dstFiles := map[string]string{}
	seen := map[string]bool{}
	for _, src := range sources {
		for path := range src.Files {
			if seen[path] {
				continue
			}
			seen[path] = true
			content, showErr := gitShowFile(rt.repoDir, newSHA, path)
			if showErr != nil {
				continue
			}
			dstFiles[path] = content
		}
	}

	humanAuthor := gitConfigGet(rt.repoDir, "user.email")
	if humanAuthor == "" {
		humanAuthor = "unknown"
	}

	log := rewriteadapter.AttributeDestination(newSHA, dstFiles, sources, humanAuthor)

	data, err := log.Marshal()
	if err != nil {
		return fmt.Errorf("squash-authorship: marshal log: %w", err)
	}
	if err := store.Put(cmd.Context(), newSHA, data); err != nil {
		return fmt.Errorf("squash-authorship: store log: %w", err)
	}

	// Best-effort: tie this explicit recompute into the rewrite tracker so
	// `debug` and any later fallback matching see it, without failing the
	// command if the log can't be written.
	entry := rewritelog.Entry{
		Operation: rewritelog.OpSquash,
		Mode:      rewritelog.ModeSquash,
		PreHEAD:   oldTipSHA,
		PostHEAD:  newSHA,
		Branch:    branch,
		Timestamp: time.Now(),
		State:     rewritelog.StateCompleted,
	}
	if err := rewritelog.Append(entry); err != nil {
		logging.Warn(cmd.Context(), "squash-authorship: append rewrite log entry failed", "error", err.Error())
	}

	fmt.Fprintf(cmd.OutOrStdout(), "recomputed authorship for %s on %s from %d squashed commit(s)\n", newSHA, branch, len(sources))
	return nil
}
