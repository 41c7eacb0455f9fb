package paths

import "testing"

func TestToPOSIX(t *testing.T) {
	if got := ToPOSIX("a/b/c"); got != "a/b/c" {
		t.Fatalf("got %q", got)
	}
}

func TestWorkingLogDirFor_RequiresRepo(t *testing.T) {
	resetCache()
	// Not asserting a specific error here since the test process may or may
	// not run inside a git repository; just check the plumbing doesn't panic.
	_, _ = WorkingLogDirFor("deadbeef")
}
