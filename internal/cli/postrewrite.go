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

// newPostRewriteCmd implements git's post-rewrite hook entry point (spec
// §4.5, §4.6): reconstruct every rewritten commit's authorship log from its
// source commits' logs. Hidden because it is only ever invoked by the git
// hook git-ai install writes, never directly by a user.
func newPostRewriteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "post-rewrite <amend|rebase>",
		Short:  "Reconstruct authorship logs for commits a rewrite just produced",
		Args:   cobra.ExactArgs(1),
		Hidden: true, // Internal command, not for direct user use
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPostRewrite(cmd, args[0])
		},
	}
	return cmd
}

func runPostRewrite(cmd *cobra.Command, _ string) error {
	rt, err := newRuntimeCtx()
	if err != nil {
		return err
	}
	store, err := rt.notesStore()
	if err != nil {
		return fmt.Errorf("post-rewrite: %w", err)
	}

	mapping, err := rewriteadapter.ParsePostRewriteEvents(cmd.InOrStdin())
	if err != nil {
		return NewSilentError(fmt.Errorf("post-rewrite: parse rewritten-event stream: %w", err))
	}

	entries, err := rewritelog.ReadAll()
	if err != nil {
		return fmt.Errorf("post-rewrite: read rewrite log: %w", err)
	}
	pending, hasPending := rewritelog.Pending(entries)

	if len(mapping.SrcToDst) == 0 && hasPending && len(pending.Arguments) > 0 {
		mapping, err = fallbackRewriteMapping(cmd, rt.repoDir, pending)
		if err != nil {
			return fmt.Errorf("post-rewrite: fallback match: %w", err)
		}
	}

	humanAuthor := gitConfigGet(rt.repoDir, "user.email")
	if humanAuthor == "" {
		humanAuthor = "unknown"
	}

	for _, dst := range mapping.Destinations() {
		srcSHAs := mapping.DstToSrc[dst]
		sources := make([]rewriteadapter.SourceCommit, 0, len(srcSHAs))
		for _, sha := range srcSHAs {
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
		if len(sources) == 0 {
			continue
		}

		dstFiles := map[string]string{}
		seen := map[string]bool{}
		for _, src := range sources {
			for path := range src.Files {
				if seen[path] {
					continue
				}
				seen[path] = true
				content, showErr := gitShowFile(rt.repoDir, dst, path)
				if showErr != nil {
					continue
				}
				dstFiles[path] = content
			}
		}

		log := rewriteadapter.AttributeDestination(dst, dstFiles, sources, humanAuthor)
		data, marshalErr := log.Marshal()
		if marshalErr != nil {
			return fmt.Errorf("post-rewrite: marshal log for %s: %w", dst, marshalErr)
		}
		if err := store.Put(cmd.Context(), dst, data); err != nil {
			return fmt.Errorf("post-rewrite: store log for %s: %w", dst, err)
		}
	}

	completion := rewritelog.Entry{
		Operation: rewritelog.OpRebase,
		State:     rewritelog.StateCompleted,
		Timestamp: time.Now(),
	}
	if hasPending {
		completion = pending
		completion.State = rewritelog.StateCompleted
	}
	if headSHA, headErr := gitRevParseHEAD(rt.repoDir); headErr == nil {
		completion.PostHEAD = headSHA
	}
	if err := rewritelog.Append(completion); err != nil {
		logging.Warn(cmd.Context(), "post-rewrite: append completion entry failed", "error", err.Error())
	}

	fmt.Fprintf(cmd.OutOrStdout(), "reconstructed authorship for %d rewritten commit(s)\n", len(mapping.Destinations()))
	return nil
}

// fallbackRewriteMapping degrades to commit-message/tree-prefix matching
// when the host gave no rewritten-event stream (spec §4.6's fallback path),
// using the pre-rebase hook's recorded upstream and pre-rewrite HEAD to
// bound the candidate commit ranges on both sides of the rewrite.
func fallbackRewriteMapping(cmd *cobra.Command, repoDir string, pending rewritelog.Entry) (*rewriteadapter.Mapping, error) {
	upstream := pending.Arguments[0]

	oldSHAs, err := gitRevList(repoDir, pending.PreHEAD, upstream)
	if err != nil {
		return nil, fmt.Errorf("list pre-rewrite commits: %w", err)
	}
	newSHAs, err := gitRevList(repoDir, "HEAD", upstream)
	if err != nil {
		return nil, fmt.Errorf("list post-rewrite commits: %w", err)
	}

	srcs := commitMetas(repoDir, oldSHAs)
	dsts := commitMetas(repoDir, newSHAs)
	mapping, ambiguous := rewriteadapter.FallbackMatch(srcs, dsts)
	for _, sha := range ambiguous {
		logging.Warn(cmd.Context(), "post-rewrite: ambiguous fallback match", "commit", sha)
	}
	return mapping, nil
}

func commitMetas(repoDir string, shas []string) []rewriteadapter.CommitMeta {
	metas := make([]rewriteadapter.CommitMeta, 0, len(shas))
	for _, sha := range shas {
		message, err := gitCommitMessage(repoDir, sha)
		if err != nil {
			continue
		}
		treeHash, err := gitTreeHash(repoDir, sha)
		if err != nil {
			continue
		}
		metas = append(metas, rewriteadapter.CommitMeta{SHA: sha, Message: message, TreeHash: treeHash})
	}
	return metas
}
