package telemetry

import "testing"

func TestNewClient_NilOptInIsNoOp(t *testing.T) {
	c := NewClient("1.0.0", nil)
	if _, ok := c.(NoOpClient); !ok {
		t.Fatalf("expected NoOpClient for nil opt-in, got %T", c)
	}
}

func TestNewClient_ExplicitOptOutIsNoOp(t *testing.T) {
	no := false
	c := NewClient("1.0.0", &no)
	if _, ok := c.(NoOpClient); !ok {
		t.Fatalf("expected NoOpClient for explicit opt-out, got %T", c)
	}
}

func TestNewClient_EnvKillSwitchOverridesOptIn(t *testing.T) {
	t.Setenv("GIT_AI_TELEMETRY_OPTOUT", "1")
	yes := true
	c := NewClient("1.0.0", &yes)
	if _, ok := c.(NoOpClient); !ok {
		t.Fatalf("expected env kill switch to force NoOpClient, got %T", c)
	}
}

func TestNoOpClient_NeverPanics(t *testing.T) {
	var c Client = NoOpClient{}
	c.TrackCommand("checkpoint", map[string]string{"agent": "claude"})
	c.Close()
}
