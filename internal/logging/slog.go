package logging

// file: internal/logging/slog.go

import (
	"context"
	"log/slog"
)

// slogLogger adapts a *slog.Logger to the Logger interface, the way
// internal/jsonrpc's method handlers build a per-method *slog.Logger with
// WithGroup/With in the teacher — here the same narrowing happens through
// WithField/WithContext instead of ad-hoc slog calls at each call site.
type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger wraps an existing *slog.Logger as a Logger. A nil base
// falls back to slog.Default().
func NewSlogLogger(base *slog.Logger) Logger {
	if base == nil {
		base = slog.Default()
	}
	return &slogLogger{l: base}
}

// Debug logs at slog.LevelDebug.
func (s *slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }

// Info logs at slog.LevelInfo.
func (s *slogLogger) Info(msg string, args ...any) { s.l.Info(msg, args...) }

// Warn logs at slog.LevelWarn.
func (s *slogLogger) Warn(msg string, args ...any) { s.l.Warn(msg, args...) }

// Error logs at slog.LevelError.
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

// WithContext returns a logger that will pass ctx through to the underlying
// slog calls, so a slog.Handler that extracts trace/span IDs from the
// context (e.g. via otel) picks them up.
func (s *slogLogger) WithContext(ctx context.Context) Logger {
	return &slogCtxLogger{l: s.l, ctx: ctx}
}

// WithField returns a logger with one additional structured attribute.
func (s *slogLogger) WithField(key string, value any) Logger {
	return &slogLogger{l: s.l.With(key, value)}
}

// slogCtxLogger is a slogLogger bound to a context, used so WithContext
// survives subsequent WithField calls.
type slogCtxLogger struct {
	l   *slog.Logger
	ctx context.Context
}

func (s *slogCtxLogger) Debug(msg string, args ...any) { s.l.DebugContext(s.ctx, msg, args...) }
func (s *slogCtxLogger) Info(msg string, args ...any)  { s.l.InfoContext(s.ctx, msg, args...) }
func (s *slogCtxLogger) Warn(msg string, args ...any)  { s.l.WarnContext(s.ctx, msg, args...) }
func (s *slogCtxLogger) Error(msg string, args ...any) { s.l.ErrorContext(s.ctx, msg, args...) }

func (s *slogCtxLogger) WithContext(ctx context.Context) Logger {
	return &slogCtxLogger{l: s.l, ctx: ctx}
}

func (s *slogCtxLogger) WithField(key string, value any) Logger {
	return &slogCtxLogger{l: s.l.With(key, value), ctx: s.ctx}
}
