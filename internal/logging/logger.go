// Package logging provides structured JSON logging for the core, built on
// log/slog. Diagnostics are off by default; GIT_AI_DEBUG=1 raises the level
// to debug and GIT_AI_DEBUG_PERFORMANCE enables duration logging, matching
// the environment surface the proxy layer exposes to the core.
package logging

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/stuartsessions/git-ai-sub000/internal/paths"
	"github.com/stuartsessions/git-ai-sub000/internal/validation"
)

// DebugEnvVar toggles debug-level logging.
const DebugEnvVar = "GIT_AI_DEBUG"

// PerformanceEnvVar toggles duration logging; "2" additionally logs at info
// level rather than debug.
const PerformanceEnvVar = "GIT_AI_DEBUG_PERFORMANCE"

var (
	mu               sync.RWMutex
	logger           *slog.Logger
	logFile          *os.File
	logBuf           *bufio.Writer
	currentSessionID string
)

// Init opens (or creates) the session's log file under the repository's
// private logs directory and installs it as the package logger. Failure to
// open the file falls back to stderr rather than propagating an error,
// since logging must never block the host command (spec §7 universal
// principle).
func Init(sessionID string) error {
	if sessionID != "" {
		if err := validation.ValidateSessionID(sessionID); err != nil {
			return fmt.Errorf("logging: %w", err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	flushLocked()

	level := levelFromEnv()

	repoRoot, err := paths.RepoRoot()
	if err != nil {
		logger = newLogger(os.Stderr, level)
		return nil
	}
	logsDir := filepath.Join(repoRoot, paths.LogsDir)
	if err := os.MkdirAll(logsDir, 0o750); err != nil {
		logger = newLogger(os.Stderr, level)
		return nil
	}

	name := sessionID
	if name == "" {
		name = "git-ai"
	}
	f, err := os.OpenFile(filepath.Join(logsDir, name+".log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		logger = newLogger(os.Stderr, level)
		return nil
	}
	logFile = f
	logBuf = bufio.NewWriterSize(f, 8192)
	logger = newLogger(logBuf, level)
	currentSessionID = sessionID
	return nil
}

// Close flushes and closes the current log file. Safe to call repeatedly.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	flushLocked()
	currentSessionID = ""
}

func flushLocked() {
	if logBuf != nil {
		_ = logBuf.Flush()
		logBuf = nil
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func levelFromEnv() slog.Level {
	if os.Getenv(DebugEnvVar) == "1" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if logger == nil {
		return slog.Default()
	}
	return logger
}

func sessionID() string {
	mu.RLock()
	defer mu.RUnlock()
	return currentSessionID
}

// Debug logs at debug level with context attributes extracted automatically.
func Debug(ctx context.Context, msg string, attrs ...any) { logAt(ctx, slog.LevelDebug, msg, attrs...) }

// Info logs at info level.
func Info(ctx context.Context, msg string, attrs ...any) { logAt(ctx, slog.LevelInfo, msg, attrs...) }

// Warn logs at warn level. Per spec §7, the core emits at most one warning
// per failure path; callers should not log the same failure twice.
func Warn(ctx context.Context, msg string, attrs ...any) { logAt(ctx, slog.LevelWarn, msg, attrs...) }

// Error logs at error level.
func Error(ctx context.Context, msg string, attrs ...any) { logAt(ctx, slog.LevelError, msg, attrs...) }

// LogDuration logs elapsed time since start, gated by GIT_AI_DEBUG_PERFORMANCE.
func LogDuration(ctx context.Context, msg string, start time.Time, attrs ...any) {
	perf := os.Getenv(PerformanceEnvVar)
	if perf == "" || perf == "0" {
		return
	}
	level := slog.LevelDebug
	if perf == "2" {
		level = slog.LevelInfo
	}
	all := append([]any{slog.Int64("duration_ms", time.Since(start).Milliseconds())}, attrs...)
	logAt(ctx, level, msg, all...)
}

func logAt(ctx context.Context, level slog.Level, msg string, attrs ...any) {
	l := current()
	var all []any
	if sid := sessionID(); sid != "" {
		all = append(all, slog.String("session_id", sid))
	} else if sid := stringFromContext(ctx, sessionIDKey); sid != "" {
		all = append(all, slog.String("session_id", sid))
	}
	if c := stringFromContext(ctx, componentKey); c != "" {
		all = append(all, slog.String("component", c))
	}
	if tc := stringFromContext(ctx, toolCallIDKey); tc != "" {
		all = append(all, slog.String("tool_call_id", tc))
	}
	if sha := stringFromContext(ctx, commitSHAKey); sha != "" {
		all = append(all, slog.String("commit_sha", sha))
	}
	all = append(all, attrs...)
	l.Log(context.Background(), level, msg, all...)
}
