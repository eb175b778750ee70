package cache

import (
	"context"
	"log/slog"
)

// Fields is a minimal structured field map for logs.
type Fields map[string]any

// Logger is a tiny leveled logger; adapters wrap the application's logging stack.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}

// SlogLogger adapts a *slog.Logger.
type SlogLogger struct{ L *slog.Logger }

// NewSlogLogger wraps l, or slog.Default() when l is nil.
func NewSlogLogger(l *slog.Logger) SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return SlogLogger{L: l}
}

func (s SlogLogger) Debug(msg string, f Fields) { s.log(slog.LevelDebug, msg, f) }
func (s SlogLogger) Info(msg string, f Fields)  { s.log(slog.LevelInfo, msg, f) }
func (s SlogLogger) Warn(msg string, f Fields)  { s.log(slog.LevelWarn, msg, f) }
func (s SlogLogger) Error(msg string, f Fields) { s.log(slog.LevelError, msg, f) }

func (s SlogLogger) log(level slog.Level, msg string, f Fields) {
	attrs := make([]slog.Attr, 0, len(f))
	for k, v := range f {
		attrs = append(attrs, slog.Any(k, v))
	}
	s.L.LogAttrs(context.Background(), level, msg, attrs...)
}
