package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stuartsessions/git-ai-sub000/internal/authlog"
	"github.com/stuartsessions/git-ai-sub000/internal/paths"
	"github.com/stuartsessions/git-ai-sub000/internal/rewritelog"
)

// newDebugCmd implements the read-only self-check command described in
// SPEC_FULL.md §10, grounded in the teacher's doctor.go: it reports whether
// the notes refspec is configured for fetch/push, whether the working log
// directory is writable, and the resolved schema version. It never mutates
// repository state.
func newDebugCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "debug",
		Short: "Report the tool's environment health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDebug(cmd)
		},
	}
}

func runDebug(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	rt, err := newRuntimeCtx()
	if err != nil {
		fmt.Fprintf(out, "repository: NOT OK (%v)\n", err)
		return nil
	}
	fmt.Fprintf(out, "repository: %s\n", rt.repoDir)

	fetchCfg := gitConfigGet(rt.repoDir, "remote.origin.fetch")
	notesConfigured := false
	if fetchCfg != "" {
		notesConfigured = true
	}
	refspecCfg := gitConfigGet(rt.repoDir, "notes."+paths.NotesNamespace+".refspec")
	if refspecCfg != "" {
		notesConfigured = true
	}
	if notesConfigured {
		fmt.Fprintln(out, "notes refspec: configured")
	} else {
		fmt.Fprintln(out, "notes refspec: NOT configured (fetch/push won't carry authorship notes)")
	}

	workingLogDir, err := paths.AbsPath(paths.WorkingLogsDir)
	if err != nil {
		fmt.Fprintf(out, "working log dir: NOT OK (%v)\n", err)
	} else if err := checkWritable(workingLogDir); err != nil {
		fmt.Fprintf(out, "working log dir: NOT writable (%v)\n", err)
	} else {
		fmt.Fprintf(out, "working log dir: %s (writable)\n", workingLogDir)
	}

	fmt.Fprintf(out, "schema version: %s\n", authlog.SchemaVersion)

	entries, err := rewritelog.ReadAll()
	if err != nil {
		fmt.Fprintf(out, "rewrite tracker: NOT OK (%v)\n", err)
	} else if pending, ok := rewritelog.Pending(entries); ok {
		fmt.Fprintf(out, "rewrite tracker: %s in progress since %s (pre-HEAD %s)\n", pending.Operation, pending.Timestamp.Format("15:04:05"), pending.PreHEAD)
	} else {
		fmt.Fprintf(out, "rewrite tracker: idle (%d recorded operation(s))\n", len(entries))
	}

	if os.Getenv("GIT_AI_DEBUG") == "1" {
		fmt.Fprintln(out, "diagnostic logging: enabled (GIT_AI_DEBUG=1)")
	}

	return nil
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	probe := dir + "/.git-ai-writable-probe"
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return err
	}
	return os.Remove(probe)
}
