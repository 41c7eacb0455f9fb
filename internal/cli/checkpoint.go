package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stuartsessions/git-ai-sub000/internal/checkpoint"
	"github.com/stuartsessions/git-ai-sub000/internal/checkpoint/id"
	"github.com/stuartsessions/git-ai-sub000/internal/engine"
	"github.com/stuartsessions/git-ai-sub000/internal/hookinput"
	"github.com/stuartsessions/git-ai-sub000/internal/logging"
	"github.com/stuartsessions/git-ai-sub000/internal/paths"
	"github.com/stuartsessions/git-ai-sub000/internal/prompt"
	"github.com/stuartsessions/git-ai-sub000/internal/redact"
)

func newCheckpointCmd() *cobra.Command {
	var hookInputPath string

	cmd := &cobra.Command{
		Use:   "checkpoint <agent>",
		Short: "Record a checkpoint from an agent hook invocation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckpoint(cmd, args[0], hookInputPath)
		},
	}

	cmd.Flags().StringVar(&hookInputPath, "hook-input", "-", "path to the hook JSON payload, or - for stdin")

	return cmd
}

func runCheckpoint(cmd *cobra.Command, agentName, hookInputPath string) error {
	src := os.Stdin
	if hookInputPath != "-" && hookInputPath != "" {
		f, openErr := os.Open(hookInputPath)
		if openErr != nil {
			return NewSilentError(fmt.Errorf("checkpoint: open hook input %s: %w", hookInputPath, openErr))
		}
		defer f.Close()
		src = f
	}

	in, err := hookinput.Decode(src)
	if err != nil {
		return NewSilentError(fmt.Errorf("checkpoint: decode hook input: %w", err))
	}

	baseCommit, err := currentHeadSHA(in.WorkspaceFolder)
	if err != nil {
		return NewSilentError(fmt.Errorf("checkpoint: resolve HEAD: %w", err))
	}

	dirty := in.DirtyFiles
	if dirty == nil {
		dirty = map[string]string{}
		for _, path := range in.Files {
			content, readErr := os.ReadFile(path)
			if readErr != nil {
				continue
			}
			dirty[paths.ToPOSIX(path)] = string(content)
		}
	}

	var meta *engine.PromptMeta
	if in.Kind == checkpoint.AI {
		messages, transcriptErr := resolveTranscript(in)
		if transcriptErr != nil {
			logging.Warn(cmd.Context(), "checkpoint: resolve transcript failed", "error", transcriptErr.Error())
		}
		redacted, found := redact.Messages(messages)
		if found {
			logging.Warn(cmd.Context(), "checkpoint: redacted likely secret from transcript")
		}
		meta = &engine.PromptMeta{
			Tool:          in.Tool,
			Model:         in.Model,
			TranscriptRef: in.ChatSessionPath,
			SessionID:     in.SessionID,
			Messages:      redacted,
			PromptID:      id.NewPromptID(prompt.CanonicalTranscript(redacted)),
		}
	}

	e := engine.New(nil)
	cpID, err := e.RecordCheckpoint(cmd.Context(), in.Kind, baseCommit, dirty, meta)
	if err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "recorded checkpoint %s (%s) for agent %s\n", cpID, in.Kind, agentName)
	return nil
}

// resolveTranscript locates and parses the transcript backing an AI
// checkpoint, dispatching to whichever agent preset recognizes the hook
// payload (spec §9's dynamic dispatch). A preset that can't identify the
// agent or locate its transcript falls back to the no-op preset, which
// still lets the checkpoint be recorded without transcript messages.
func resolveTranscript(in hookinput.Input) ([]prompt.Message, error) {
	registry := hookinput.DefaultRegistry()
	preset := registry.Identify(in)

	transcriptPath, ok := preset.LocateTranscript(in)
	if !ok {
		return nil, nil
	}
	data, err := os.ReadFile(transcriptPath)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: read transcript %s: %w", transcriptPath, err)
	}
	messages, err := preset.ParseTranscript(data)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: parse transcript %s: %w", transcriptPath, err)
	}
	return messages, nil
}

func currentHeadSHA(workspaceFolder string) (string, error) {
	dir := workspaceFolder
	if dir == "" {
		root, err := paths.RepoRoot()
		if err != nil {
			return "", err
		}
		dir = root
	}
	return gitRevParseHEAD(dir)
}
