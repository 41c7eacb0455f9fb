// Package paths resolves the repository root and the on-disk layout under
// the tool's private area (.git-ai/) inside a repository.
package paths

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// PrivateDir is the tool's private directory at the repository root.
const PrivateDir = ".git-ai"

// WorkingLogsDir holds per-base-commit checkpoint scratch files.
const WorkingLogsDir = PrivateDir + "/working_logs"

// RewriteLogFile is the append-only JSONL record of rewrite operations.
const RewriteLogFile = PrivateDir + "/rewrite_log.jsonl"

// LogsDir holds structured session logs.
const LogsDir = PrivateDir + "/logs"

// NotesNamespace is the git notes namespace this tool writes to.
const NotesNamespace = "git-ai"

var (
	rootMu       sync.RWMutex
	rootCache    string
	rootCacheDir string
)

// RepoRoot returns the repository's top-level working directory, using
// 'git rev-parse --show-toplevel'. The result is cached per working
// directory so repeated calls within one process invocation are cheap.
func RepoRoot() (string, error) {
	cwd, _ := os.Getwd()

	rootMu.RLock()
	if rootCache != "" && rootCacheDir == cwd {
		cached := rootCache
		rootMu.RUnlock()
		return cached, nil
	}
	rootMu.RUnlock()

	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("resolve repository root: %w", err)
	}
	root := strings.TrimSpace(string(out))

	rootMu.Lock()
	rootCache = root
	rootCacheDir = cwd
	rootMu.Unlock()

	return root, nil
}

// resetCache clears the cached repository root. Test-only.
func resetCache() {
	rootMu.Lock()
	defer rootMu.Unlock()
	rootCache = ""
	rootCacheDir = ""
}

// AbsPath resolves a repo-relative path to an absolute path under the
// repository root.
func AbsPath(relPath string) (string, error) {
	root, err := RepoRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, relPath), nil
}

// WorkingLogDirFor returns the absolute working-log directory for a base
// commit SHA.
func WorkingLogDirFor(baseCommit string) (string, error) {
	return AbsPath(filepath.Join(WorkingLogsDir, baseCommit))
}

// ToPOSIX normalizes a path to forward slashes, as required for paths
// embedded in an authorship log (spec: "paths are POSIX").
func ToPOSIX(p string) string {
	return filepath.ToSlash(p)
}
