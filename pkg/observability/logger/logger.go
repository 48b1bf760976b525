// Package logger provides structured logging for the service.
// The log writer is injected everywhere it is needed and has an explicit
// lifecycle: constructed at startup, synced at shutdown.
package logger

import "context"

// Logger is the logging contract used across all packages. Log methods take
// a message followed by alternating key-value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// With returns a child logger whose entries always carry the given
	// key-value pairs.
	With(args ...any) Logger

	// WithContext returns a child logger annotated with the request ID
	// carried by ctx, if any.
	WithContext(ctx context.Context) Logger
}

// NopLogger discards everything. Useful as a test double.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}

func (NopLogger) Info(string, ...any) {}

func (NopLogger) Warn(string, ...any) {}

func (NopLogger) Error(string, ...any) {}

func (n NopLogger) With(...any) Logger { return n }

func (n NopLogger) WithContext(context.Context) Logger { return n }
