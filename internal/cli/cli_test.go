package cli

import (
	"errors"
	"testing"
)

func TestSilentError_UnwrapsOriginal(t *testing.T) {
	base := errors.New("boom")
	wrapped := NewSilentError(base)

	if wrapped.Error() != "boom" {
		t.Fatalf("unexpected message: %s", wrapped.Error())
	}
	if !errors.Is(wrapped, base) {
		t.Fatal("expected errors.Is to see through SilentError")
	}

	var silent *SilentError
	if !errors.As(wrapped, &silent) {
		t.Fatal("expected errors.As to recognize SilentError")
	}
}

func TestWithExitCode_AttachesExitCoder(t *testing.T) {
	err := WithExitCode(errors.New("bad input"), ExitUserError)

	var coder ExitCoder
	if !errors.As(err, &coder) {
		t.Fatal("expected errors.As to find an ExitCoder")
	}
	if coder.ExitCode() != ExitUserError {
		t.Fatalf("expected exit code %d, got %d", ExitUserError, coder.ExitCode())
	}
}

func TestNewRootCmd_ListsAllSubcommands(t *testing.T) {
	root := NewRootCmd()
	want := []string{"checkpoint", "blame", "search", "continue", "show-prompt", "squash-authorship", "debug", "version"}

	for _, name := range want {
		found := false
		for _, c := range root.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected root command to include %q", name)
		}
	}
}

func TestSearchCmd_AlwaysReturnsSilentError(t *testing.T) {
	cmd := newSearchCmd()
	cmd.SetArgs([]string{})
	err := cmd.RunE(cmd, nil)

	var silent *SilentError
	if !errors.As(err, &silent) {
		t.Fatalf("expected SilentError, got %v", err)
	}
}
