// Package gitutil collects the low-level git access shared by the
// Checkpoint Engine, Rewrite Adapter, and Blame Synthesizer: tree content
// lookups via go-git's plumbing API, line-granularity diffing via
// diffmatchpatch, and shelling out to the host binary for the one
// operation (porcelain blame) go-git doesn't expose directly.
package gitutil

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// OpenRepo opens the repository rooted at dir.
func OpenRepo(dir string) (*git.Repository, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("gitutil: open repository: %w", err)
	}
	return repo, nil
}

// IsBinary reports whether content should be excluded from line-based
// attribution. Matches the teacher's convention: presence of a NUL byte.
func IsBinary(content []byte) bool {
	return bytes.IndexByte(content, 0) >= 0
}

// FileContentAtTree returns a file's content at a tree, or ("", false) if
// the file doesn't exist in that tree, is unreadable, or is binary.
func FileContentAtTree(tree *object.Tree, path string) (string, bool) {
	if tree == nil {
		return "", false
	}
	f, err := tree.File(path)
	if err != nil {
		return "", false
	}
	content, err := f.Contents()
	if err != nil {
		return "", false
	}
	if IsBinary([]byte(content)) {
		return "", false
	}
	return content, true
}

// AllPaths returns the set of file paths present in a tree (nil-safe).
func AllPaths(tree *object.Tree) map[string]struct{} {
	paths := make(map[string]struct{})
	if tree == nil {
		return paths
	}
	_ = tree.Files().ForEach(func(f *object.File) error {
		paths[f.Name] = struct{}{}
		return nil
	})
	return paths
}

// ChangedPaths returns every path present in either tree whose content
// differs between them (including pure additions/deletions).
func ChangedPaths(a, b *object.Tree) []string {
	seen := AllPaths(a)
	for p := range AllPaths(b) {
		seen[p] = struct{}{}
	}
	var changed []string
	for p := range seen {
		ca, okA := FileContentAtTree(a, p)
		cb, okB := FileContentAtTree(b, p)
		if okA != okB || ca != cb {
			changed = append(changed, p)
		}
	}
	return changed
}

// DiffOpType classifies one segment of a line-level diff.
type DiffOpType int

const (
	DiffEqual DiffOpType = iota
	DiffInsert
	DiffDelete
)

// DiffOp is a contiguous run of whole lines with one diff classification.
type DiffOp struct {
	Type  DiffOpType
	Lines []string
}

// LineDiff computes a minimal line-granularity edit script between a and b
// using the DiffLinesToChars/DiffMain/DiffCharsToLines pattern: each line
// is mapped to a single rune so the generic Myers diff operates at line
// granularity instead of character granularity.
func LineDiff(a, b string) []DiffOp {
	dmp := diffmatchpatch.New()
	chars1, chars2, lineArray := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffMain(chars1, chars2, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	ops := make([]DiffOp, 0, len(diffs))
	for _, d := range diffs {
		lines := SplitLines(d.Text)
		if len(lines) == 0 {
			continue
		}
		var t DiffOpType
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			t = DiffEqual
		case diffmatchpatch.DiffInsert:
			t = DiffInsert
		case diffmatchpatch.DiffDelete:
			t = DiffDelete
		}
		ops = append(ops, DiffOp{Type: t, Lines: lines})
	}
	return ops
}

// SplitLines splits content into lines without the trailing newline, the
// same convention countLinesStr relies on: a trailing newline does not
// produce a spurious empty final line.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	trimmed := strings.TrimSuffix(content, "\n")
	return strings.Split(trimmed, "\n")
}

// BlameEntry is one line of porcelain blame output.
type BlameEntry struct {
	SHA      string
	Line     int
	OrigLine int
}

// BlameFile runs 'git blame --porcelain' on a file at the current worktree
// state, the one git operation not practical to reimplement on top of
// go-git's plumbing directly.
func BlameFile(ctx context.Context, repoDir, revision, path string) (map[int]BlameEntry, error) {
	args := []string{"blame", "--porcelain"}
	if revision != "" {
		args = append(args, revision)
	}
	args = append(args, "--", path)
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = repoDir
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("gitutil: git blame %s: %w", path, err)
	}
	return parsePorcelainBlame(out), nil
}

func parsePorcelainBlame(out []byte) map[int]BlameEntry {
	entries := make(map[int]BlameEntry)
	lines := strings.Split(string(out), "\n")

	for _, line := range lines {
		if line == "" || strings.HasPrefix(line, "\t") {
			continue
		}
		if strings.HasPrefix(line, "author") ||
			strings.HasPrefix(line, "committer") ||
			strings.HasPrefix(line, "summary") ||
			strings.HasPrefix(line, "previous") ||
			strings.HasPrefix(line, "filename") ||
			strings.HasPrefix(line, "boundary") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 3 && len(fields[0]) == 40 {
			origLine, _ := strconv.Atoi(fields[1])
			finalLine, _ := strconv.Atoi(fields[2])
			if finalLine > 0 {
				entries[finalLine] = BlameEntry{SHA: fields[0], Line: finalLine, OrigLine: origLine}
			}
		}
	}
	return entries
}
