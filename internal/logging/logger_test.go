package logging

import (
	"context"
	"testing"
)

func TestLevelFromEnv_DefaultsToInfo(t *testing.T) {
	t.Setenv(DebugEnvVar, "")
	if levelFromEnv().String() != "INFO" {
		t.Fatalf("expected default info level, got %v", levelFromEnv())
	}
}

func TestLevelFromEnv_DebugFlag(t *testing.T) {
	t.Setenv(DebugEnvVar, "1")
	if levelFromEnv().String() != "DEBUG" {
		t.Fatalf("expected debug level, got %v", levelFromEnv())
	}
}

func TestContextPropagation_NoPanicWithoutInit(t *testing.T) {
	ctx := WithComponent(context.Background(), "engine")
	ctx = WithSession(ctx, "sess-1")
	Info(ctx, "test message")
}
