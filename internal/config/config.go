// Package config loads the tool's user-level configuration from
// ~/.git-ai/config.json, overridable by GIT_AI_* environment variables
// (spec §6). Config is an immutable snapshot: it is read once per process
// invocation and handed around by value.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// PromptStorage selects where prompt transcripts live.
type PromptStorage string

const (
	StorageDefault PromptStorage = "default"
	StorageNotes   PromptStorage = "notes"
	StorageLocal   PromptStorage = "local"
)

// UpdateChannel selects the release channel for auto-updates (consumed by
// the out-of-scope updater; the core only threads the value through).
type UpdateChannel string

const (
	ChannelLatest UpdateChannel = "latest"
	ChannelNext   UpdateChannel = "next"
)

// FeatureFlags gates experimental behavior.
type FeatureFlags struct {
	RewriteStash    bool `json:"rewrite_stash"`
	InterCommitMove bool `json:"inter_commit_move"`
	AuthKeyring     bool `json:"auth_keyring"`
}

// Config is the immutable, process-wide configuration snapshot.
type Config struct {
	HostBinaryPath             string        `json:"host_binary_path,omitempty"`
	PromptStorage              PromptStorage `json:"prompt_storage,omitempty"`
	APIBaseURL                 string        `json:"api_base_url,omitempty"`
	AllowRepositories          []string      `json:"allow_repositories,omitempty"`
	ExcludeRepositories        []string      `json:"exclude_repositories,omitempty"`
	IncludePromptsInRepositories []string    `json:"include_prompts_in_repositories,omitempty"`
	ExcludePromptsInRepositories []string    `json:"exclude_prompts_in_repositories,omitempty"`
	DefaultPromptStorage       PromptStorage `json:"default_prompt_storage,omitempty"`
	DisableVersionChecks       bool          `json:"disable_version_checks,omitempty"`
	DisableAutoUpdates         bool          `json:"disable_auto_updates,omitempty"`
	UpdateChannel              UpdateChannel `json:"update_channel,omitempty"`
	FeatureFlags               FeatureFlags  `json:"feature_flags,omitempty"`

	// TranscriptByteBudget and WorkingLogByteBudget implement the backpressure
	// policy of spec §5 ("transcripts above a configurable byte budget ...
	// working-log corpora above another budget"). Not part of the on-disk
	// schema in spec §6; exposed here with the spec's stated defaults so
	// callers never hardcode them.
	TranscriptByteBudget int64 `json:"-"`
	WorkingLogByteBudget int64 `json:"-"`

	// TelemetryEnabled is the tri-state opt-in for anonymous usage telemetry:
	// nil means the user has never been asked (defaults to disabled), false
	// is an explicit opt-out, true an explicit opt-in. Not part of spec §6's
	// schema; ambient like the byte budgets above.
	TelemetryEnabled *bool `json:"telemetry_enabled,omitempty"`
}

const (
	defaultTranscriptByteBudget = 32 * 1024 * 1024
	defaultWorkingLogByteBudget = 64 * 1024 * 1024
)

func defaults() Config {
	return Config{
		PromptStorage:        StorageDefault,
		DefaultPromptStorage: StorageDefault,
		UpdateChannel:        ChannelLatest,
		TranscriptByteBudget: defaultTranscriptByteBudget,
		WorkingLogByteBudget: defaultWorkingLogByteBudget,
	}
}

// Load reads ~/.git-ai/config.json (if present) and applies GIT_AI_*
// environment variable overrides. A missing config file is not an error;
// defaults are returned instead.
func Load() (Config, error) {
	cfg := defaults()

	home, err := os.UserHomeDir()
	if err == nil {
		data, readErr := os.ReadFile(filepath.Join(home, ".git-ai", "config.json"))
		if readErr == nil {
			if err := json.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", filepath.Join(home, ".git-ai", "config.json"), err)
			}
		} else if !os.IsNotExist(readErr) {
			return Config{}, fmt.Errorf("config: read config file: %w", readErr)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GIT_AI_HOST_BINARY_PATH"); v != "" {
		cfg.HostBinaryPath = v
	}
	if v := os.Getenv("GIT_AI_API_BASE_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("GIT_AI_PROMPT_STORAGE"); v != "" {
		cfg.PromptStorage = PromptStorage(v)
	}
	if v := os.Getenv("GIT_AI_DISABLE_VERSION_CHECKS"); v == "1" {
		cfg.DisableVersionChecks = true
	}
	if v := os.Getenv("GIT_AI_DISABLE_AUTO_UPDATES"); v == "1" {
		cfg.DisableAutoUpdates = true
	}
}

// RepositoryAllowed applies AllowRepositories/ExcludeRepositories glob
// matching against a repository path, exclude taking precedence over
// allow, and an empty allow-list meaning "all repositories".
func (c Config) RepositoryAllowed(repoPath string) bool {
	for _, pattern := range c.ExcludeRepositories {
		if matched, _ := filepath.Match(pattern, repoPath); matched {
			return false
		}
	}
	if len(c.AllowRepositories) == 0 {
		return true
	}
	for _, pattern := range c.AllowRepositories {
		if matched, _ := filepath.Match(pattern, repoPath); matched {
			return true
		}
	}
	return false
}

// PromptsAllowedIn reports whether prompt transcripts should be captured
// for a given repository path.
func (c Config) PromptsAllowedIn(repoPath string) bool {
	for _, pattern := range c.ExcludePromptsInRepositories {
		if matched, _ := filepath.Match(pattern, repoPath); matched {
			return false
		}
	}
	if len(c.IncludePromptsInRepositories) == 0 {
		return true
	}
	for _, pattern := range c.IncludePromptsInRepositories {
		if matched, _ := filepath.Match(pattern, repoPath); matched {
			return true
		}
	}
	return false
}
