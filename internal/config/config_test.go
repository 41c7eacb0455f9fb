package config

import "testing"

func TestDefaults_SetBudgets(t *testing.T) {
	cfg := defaults()
	if cfg.TranscriptByteBudget != defaultTranscriptByteBudget {
		t.Fatalf("unexpected transcript budget: %d", cfg.TranscriptByteBudget)
	}
	if cfg.PromptStorage != StorageDefault {
		t.Fatalf("unexpected default prompt storage: %v", cfg.PromptStorage)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaults()
	t.Setenv("GIT_AI_HOST_BINARY_PATH", "/usr/local/bin/git")
	t.Setenv("GIT_AI_DISABLE_VERSION_CHECKS", "1")
	applyEnvOverrides(&cfg)
	if cfg.HostBinaryPath != "/usr/local/bin/git" {
		t.Fatalf("expected env override, got %q", cfg.HostBinaryPath)
	}
	if !cfg.DisableVersionChecks {
		t.Fatal("expected disable_version_checks to be set from env")
	}
}

func TestRepositoryAllowed(t *testing.T) {
	cfg := defaults()
	cfg.AllowRepositories = []string{"/work/*"}
	if !cfg.RepositoryAllowed("/work/proj") {
		t.Fatal("expected /work/proj to be allowed")
	}
	if cfg.RepositoryAllowed("/other/proj") {
		t.Fatal("expected /other/proj to be denied by non-matching allow-list")
	}

	cfg2 := defaults()
	cfg2.ExcludeRepositories = []string{"/secret/*"}
	if cfg2.RepositoryAllowed("/secret/proj") {
		t.Fatal("expected excluded repo to be denied")
	}
}
