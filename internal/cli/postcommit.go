package cli

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/spf13/cobra"

	"github.com/stuartsessions/git-ai-sub000/internal/authlog"
	"github.com/stuartsessions/git-ai-sub000/internal/engine"
	"github.com/stuartsessions/git-ai-sub000/internal/gitutil"
)

// newPostCommitCmd implements the post-commit hook entry point (spec §4.1):
// fold the checkpoint chain recorded against HEAD's parent into an
// authorship log for the commit that just landed, seeding off the parent
// commit's own log where one exists. Hidden because it is only ever invoked
// by the git hook git-ai install writes, never directly by a user.
func newPostCommitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "post-commit",
		Short:  "Fold the pending checkpoint chain into the new commit's authorship log",
		Args:   cobra.NoArgs,
		Hidden: true, // Internal command, not for direct user use
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPostCommit(cmd)
		},
	}
	return cmd
}

func runPostCommit(cmd *cobra.Command) error {
	rt, err := newRuntimeCtx()
	if err != nil {
		return err
	}
	store, err := rt.notesStore()
	if err != nil {
		return fmt.Errorf("post-commit: %w", err)
	}

	repo, err := gitutil.OpenRepo(rt.repoDir)
	if err != nil {
		return NewSilentError(fmt.Errorf("post-commit: open repository: %w", err))
	}
	head, err := repo.Head()
	if err != nil {
		return NewSilentError(fmt.Errorf("post-commit: resolve HEAD: %w", err))
	}
	commitSHA := head.Hash().String()
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return fmt.Errorf("post-commit: load commit %s: %w", commitSHA, err)
	}
	commitTree, err := commit.Tree()
	if err != nil {
		return fmt.Errorf("post-commit: load tree for %s: %w", commitSHA, err)
	}

	var parentSHA string
	var parentTree *object.Tree
	if commit.NumParents() > 0 {
		parent, parentErr := commit.Parent(0)
		if parentErr != nil {
			return fmt.Errorf("post-commit: load parent of %s: %w", commitSHA, parentErr)
		}
		parentSHA = parent.Hash.String()
		parentTree, err = parent.Tree()
		if err != nil {
			return fmt.Errorf("post-commit: load parent tree for %s: %w", commitSHA, err)
		}
	}

	var parentLog *authlog.Log
	if parentSHA != "" {
		if data, ok, getErr := store.Get(parentSHA); getErr == nil && ok {
			if log, parseErr := authlog.Parse(data); parseErr == nil {
				parentLog = log
			}
		}
	}

	files := make([]engine.FileInput, 0)
	for _, path := range gitutil.ChangedPaths(parentTree, commitTree) {
		parentContent, _ := gitutil.FileContentAtTree(parentTree, path)
		commitContent, _ := gitutil.FileContentAtTree(commitTree, path)
		files = append(files, engine.FileInput{
			Path:          path,
			ParentContent: parentContent,
			CommitContent: commitContent,
		})
	}

	e := engine.New(nil)
	baseForChain := parentSHA
	if baseForChain == "" {
		baseForChain = commitSHA
	}
	checkpoints, err := e.DrainCheckpoints(cmd.Context(), baseForChain)
	if err != nil {
		return fmt.Errorf("post-commit: drain checkpoints: %w", err)
	}

	humanAuthor := commit.Author.Email
	if humanAuthor == "" {
		humanAuthor = gitConfigGet(rt.repoDir, "user.email")
	}

	log, err := e.AttributeCommit(cmd.Context(), commitSHA, parentSHA, humanAuthor, files, checkpoints, parentLog)
	if err != nil {
		return fmt.Errorf("post-commit: attribute commit: %w", err)
	}

	data, err := log.Marshal()
	if err != nil {
		return fmt.Errorf("post-commit: marshal log: %w", err)
	}
	if err := store.Put(cmd.Context(), commitSHA, data); err != nil {
		return fmt.Errorf("post-commit: store log: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "recorded authorship for %s from %d checkpoint(s)\n", commitSHA, len(checkpoints))
	return nil
}
