package logging

import "context"

// Context keys for logging values. Private types avoid collisions with
// values set by unrelated packages.
type contextKey int

const (
	sessionIDKey contextKey = iota
	toolCallIDKey
	componentKey
	commitSHAKey
)

// WithSession attaches a session/invocation ID to the context.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// WithToolCall attaches the agent tool-call ID to the context.
func WithToolCall(ctx context.Context, toolCallID string) context.Context {
	return context.WithValue(ctx, toolCallIDKey, toolCallID)
}

// WithComponent tags the context with the subsystem producing log lines
// (e.g. "engine", "rewriteadapter", "blame").
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// WithCommit attaches the commit SHA a log line pertains to.
func WithCommit(ctx context.Context, sha string) context.Context {
	return context.WithValue(ctx, commitSHAKey, sha)
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v := ctx.Value(key); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
