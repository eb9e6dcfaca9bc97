// Package audit provides audit logging for monitor API operations.
package audit

import (
	"context"
	"time"
)

// Logger defines the interface for recording audit events.
type Logger interface {
	// Log records an audit event.
	Log(ctx context.Context, event Event) error

	// Close releases resources.
	Close() error
}

// Querier reads recorded audit events back. Only database-backed sinks
// implement it; log-only sinks cannot answer queries.
type Querier interface {
	// Query retrieves audit events matching the filter.
	Query(ctx context.Context, filter QueryFilter) ([]Event, error)

	// Count returns the number of events matching the filter, ignoring
	// limit and offset.
	Count(ctx context.Context, filter QueryFilter) (int, error)
}

// Event represents an auditable API operation.
type Event struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	DurationMS   int64     `json:"duration_ms"`
	RequestID    string    `json:"request_id"`
	SessionID    string    `json:"session_id,omitempty"`
	Operation    string    `json:"operation"`
	UserID       string    `json:"user_id,omitempty"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// QueryFilter defines criteria for querying audit events.
type QueryFilter struct {
	StartTime *time.Time
	EndTime   *time.Time
	UserID    string
	SessionID string
	Operation string
	Success   *bool
	Limit     int
	Offset    int
}

// Config configures audit logging.
type Config struct {
	Enabled       bool `yaml:"enabled"`
	RetentionDays int  `yaml:"retention_days"`
}
