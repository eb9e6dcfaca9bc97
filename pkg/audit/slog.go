package audit

import (
	"context"
	"log/slog"
)

// SlogLogger writes audit events to a structured logger. It is the default
// audit sink when no database is configured.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates an audit logger backed by slog.
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

// Log writes the event as a structured log record.
func (l *SlogLogger) Log(ctx context.Context, event Event) error {
	attrs := []any{
		"event_id", event.ID,
		"operation", event.Operation,
		"session_id", event.SessionID,
		"user_id", event.UserID,
		"duration_ms", event.DurationMS,
		"success", event.Success,
	}
	if event.RequestID != "" {
		attrs = append(attrs, "request_id", event.RequestID)
	}
	if event.ErrorMessage != "" {
		attrs = append(attrs, "error", event.ErrorMessage)
	}
	l.logger.InfoContext(ctx, "audit: event", attrs...)
	return nil
}

// Close is a no-op.
func (l *SlogLogger) Close() error {
	return nil
}

// NopLogger discards all audit events.
type NopLogger struct{}

// Log discards the event.
func (NopLogger) Log(_ context.Context, _ Event) error { return nil }

// Close is a no-op.
func (NopLogger) Close() error { return nil }

// Verify interface compliance.
var (
	_ Logger = (*SlogLogger)(nil)
	_ Logger = NopLogger{}
)
