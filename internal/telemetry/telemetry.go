// Package telemetry defines a narrow command-tracking sink and its two
// implementations (spec SPEC_FULL.md §6 "Telemetry interface"): a
// posthog-go-backed client gated by a tri-state opt-in, and a no-op client
// used whenever telemetry is disabled or unconfigured. No component inside
// the Checkpoint Engine, Notes Store, or Rewrite Adapter imports this
// package — telemetry is strictly a CLI-layer concern.
package telemetry

import (
	"net"
	"net/http"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/posthog/posthog-go"
)

// apiKey and endpoint are overridable at build time via -ldflags; the
// development key only ever reaches a local PostHog sandbox project.
var (
	apiKey   = "phc_development_key"
	endpoint = "https://eu.i.posthog.com"
)

// Client is the telemetry sink every CLI command reports through.
type Client interface {
	TrackCommand(name string, attrs map[string]string)
	Close()
}

// NoOpClient discards every call. It's the default whenever telemetry is
// disabled, unconfigured, or the machine ID can't be resolved.
type NoOpClient struct{}

func (NoOpClient) TrackCommand(string, map[string]string) {}
func (NoOpClient) Close()                                 {}

// silentLogger swallows posthog-go's own log output; telemetry is
// best-effort and its transport failures are never worth surfacing to the
// user running a git command.
type silentLogger struct{}

func (silentLogger) Logf(string, ...interface{})   {}
func (silentLogger) Debugf(string, ...interface{}) {}
func (silentLogger) Warnf(string, ...interface{})  {}
func (silentLogger) Errorf(string, ...interface{}) {}

// PostHogClient is the real telemetry client.
type PostHogClient struct {
	mu        sync.RWMutex
	client    posthog.Client
	machineID string
	version   string
}

// NewClient builds a Client from the tri-state opt-in (nil = unasked,
// defaults to disabled) plus a hard environment-variable kill switch. It
// never returns an error: any failure to construct the real client degrades
// to NoOpClient, consistent with telemetry never affecting command success.
func NewClient(version string, enabled *bool) Client {
	if os.Getenv("GIT_AI_TELEMETRY_OPTOUT") != "" {
		return NoOpClient{}
	}
	if enabled == nil || !*enabled {
		return NoOpClient{}
	}

	id, err := machineid.ProtectedID("git-ai")
	if err != nil {
		return NoOpClient{}
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 100 * time.Millisecond,
		}).DialContext,
		TLSHandshakeTimeout:   100 * time.Millisecond,
		ResponseHeaderTimeout: 100 * time.Millisecond,
	}
	client, err := posthog.NewWithConfig(apiKey, posthog.Config{
		Endpoint:           endpoint,
		ShutdownTimeout:    100 * time.Millisecond,
		BatchUploadTimeout: 200 * time.Millisecond,
		Transport:          transport,
		Logger:             silentLogger{},
		DisableGeoIP:       posthog.Ptr(true),
		DefaultEventProperties: posthog.NewProperties().
			Set("cli_version", version).
			Set("os", runtime.GOOS).
			Set("arch", runtime.GOARCH),
	})
	if err != nil {
		return NoOpClient{}
	}

	return &PostHogClient{client: client, machineID: id, version: version}
}

// TrackCommand records one command invocation. attrs carries flag names and
// other non-sensitive, pre-scrubbed metadata — never file paths, prompt
// content, or attribution data.
func (p *PostHogClient) TrackCommand(name string, attrs map[string]string) {
	p.mu.RLock()
	c, id := p.client, p.machineID
	p.mu.RUnlock()
	if c == nil {
		return
	}

	props := posthog.NewProperties().Set("command", name)
	for k, v := range attrs {
		props.Set(k, v)
	}

	_ = c.Enqueue(posthog.Capture{
		DistinctId: id,
		Event:      "cli_command_executed",
		Properties: props,
	})
}

// Close flushes any pending events. Called once at process exit.
func (p *PostHogClient) Close() {
	p.mu.RLock()
	c := p.client
	p.mu.RUnlock()
	if c != nil {
		_ = c.Close()
	}
}
