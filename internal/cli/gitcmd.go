package cli

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// gitRevParseHEAD resolves the current HEAD commit SHA in dir, the same
// exec.Command("git", ...) pattern paths.RepoRoot uses.
func gitRevParseHEAD(dir string) (string, error) {
	cmd := exec.CommandContext(context.Background(), "git", "rev-parse", "HEAD")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse HEAD: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// gitShowFile returns the content of path at revision inside dir.
func gitShowFile(dir, revision, path string) (string, error) {
	cmd := exec.CommandContext(context.Background(), "git", "show", revision+":"+path)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git show %s:%s: %w", revision, path, err)
	}
	return string(out), nil
}

// gitConfigGet returns a git config value in dir, or "" if unset.
func gitConfigGet(dir, key string) string {
	cmd := exec.CommandContext(context.Background(), "git", "config", "--get", key)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// gitCommitMessage returns sha's full commit message in dir.
func gitCommitMessage(dir, sha string) (string, error) {
	cmd := exec.CommandContext(context.Background(), "git", "log", "-1", "--format=%B", sha)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git log -1 --format=%%B %s: %w", sha, err)
	}
	return strings.TrimRight(string(out), "\n"), nil
}

// gitTreeHash returns the tree object SHA that sha's commit points at.
func gitTreeHash(dir, sha string) (string, error) {
	cmd := exec.CommandContext(context.Background(), "git", "rev-parse", sha+"^{tree}")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse %s^{tree}: %w", sha, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// gitRevList returns the commit SHAs reachable from rev, nearest first,
// excluding commits reachable from any exclude revision.
func gitRevList(dir, rev string, exclude ...string) ([]string, error) {
	args := []string{"rev-list", rev}
	for _, e := range exclude {
		args = append(args, "^"+e)
	}
	cmd := exec.CommandContext(context.Background(), "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git rev-list %s: %w", rev, err)
	}
	var shas []string
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line != "" {
			shas = append(shas, line)
		}
	}
	return shas, nil
}
