package cli

import (
	"fmt"

	"github.com/stuartsessions/git-ai-sub000/internal/authlog"
	"github.com/stuartsessions/git-ai-sub000/internal/checkpoint/id"
	"github.com/stuartsessions/git-ai-sub000/internal/notesstore"
	"github.com/stuartsessions/git-ai-sub000/internal/prompt"
)

// findPrompt walks commits reachable from HEAD, nearest first, looking for
// a prompt record by ID. It returns the first authorship log that carries
// the prompt and the record itself.
func findPrompt(repoDir string, store *notesstore.Store, pid id.PromptID) (*authlog.Log, *prompt.Record, error) {
	shas, err := gitRevList(repoDir, "HEAD")
	if err != nil {
		return nil, nil, err
	}
	for _, sha := range shas {
		data, ok, err := store.Get(sha)
		if err != nil || !ok {
			continue
		}
		log, err := authlog.Parse(data)
		if err != nil {
			continue
		}
		if rec, ok := log.Prompts[pid]; ok {
			return log, rec, nil
		}
	}
	return nil, nil, fmt.Errorf("prompt %s not found in reachable history", pid)
}

// findPromptByCommit loads the authorship log for a specific commit.
func findPromptByCommit(store *notesstore.Store, commitSHA string) (*authlog.Log, error) {
	data, ok, err := store.Get(commitSHA)
	if err != nil {
		return nil, fmt.Errorf("load note for %s: %w", commitSHA, err)
	}
	if !ok {
		return nil, fmt.Errorf("commit %s has no authorship log", commitSHA)
	}
	return authlog.Parse(data)
}

// findPromptByFile returns the first prompt ID attributed to any line of
// path within a commit's log, nearest history first.
func findPromptByFile(repoDir string, store *notesstore.Store, path string) (id.PromptID, error) {
	shas, err := gitRevList(repoDir, "HEAD")
	if err != nil {
		return "", err
	}
	for _, sha := range shas {
		data, ok, err := store.Get(sha)
		if err != nil || !ok {
			continue
		}
		log, err := authlog.Parse(data)
		if err != nil {
			continue
		}
		ranges, ok := log.Files[path]
		if !ok {
			continue
		}
		for _, r := range ranges {
			if r.IsAI() {
				return r.PromptID, nil
			}
		}
	}
	return "", fmt.Errorf("no AI-attributed prompt found for %s", path)
}
