// Command git-ai is the entrypoint for the attribution core's CLI surface
// (spec SPEC_FULL.md §4.9), wiring context-aware signal handling and the
// SilentError convention ported from the teacher's cmd/entire/main.go.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stuartsessions/git-ai-sub000/internal/cli"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	rootCmd := cli.NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)

	if err != nil {
		var silent *cli.SilentError
		var exitCoder cli.ExitCoder

		switch {
		case errors.As(err, &silent):
			// Command already printed the error.
		case strings.Contains(err.Error(), "unknown command") || strings.Contains(err.Error(), "unknown flag"):
			showSuggestion(rootCmd, err)
		default:
			fmt.Fprintln(rootCmd.OutOrStderr(), err)
		}

		code := cli.ExitUserError
		if errors.As(err, &exitCoder) {
			code = exitCoder.ExitCode()
		}

		cancel()
		os.Exit(code)
	}
	cancel()
}

func showSuggestion(cmd *cobra.Command, err error) {
	fmt.Fprint(cmd.OutOrStderr(), cmd.UsageString())
	fmt.Fprintf(cmd.OutOrStderr(), "\nError: invalid usage: %v\n", err)
}
