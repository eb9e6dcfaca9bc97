package tracker

import (
	"context"
	"time"
)

// ArchivedSession is the finalized form of a session, persisted after stop.
type ArchivedSession struct {
	SessionID         string      `json:"session_id"`
	CreatedAt         time.Time   `json:"created_at"`
	StoppedAt         time.Time   `json:"stopped_at"`
	TotalFocusMinutes float64     `json:"total_focus_minutes"`
	TotalLeaveMinutes float64     `json:"total_leave_minutes"`
	FocusSessions     int         `json:"focus_sessions"`
	LeaveSessions     int         `json:"leave_sessions"`
	FocusScore        int         `json:"focus_score"`
	Records           []TimeBlock `json:"records"`
	ArchivedAt        time.Time   `json:"archived_at"`
}

// ArchiveFilter defines criteria for listing archived sessions.
type ArchiveFilter struct {
	SessionID string
	Since     *time.Time
	Until     *time.Time
	Limit     int
}

// Archiver persists finalized sessions. Archiving is write-behind: tracker
// semantics never depend on it and a failed save only loses history.
type Archiver interface {
	// Save persists one finalized session.
	Save(ctx context.Context, rec ArchivedSession) error

	// List returns archived sessions matching the filter, newest first.
	List(ctx context.Context, filter ArchiveFilter) ([]ArchivedSession, error)

	// Close releases resources.
	Close() error
}

// NewArchivedSession builds an archive record from a stopped session's
// snapshot and score. The snapshot must carry a StoppedAt timestamp.
func NewArchivedSession(snap Snapshot, score Score) ArchivedSession {
	rec := ArchivedSession{
		SessionID:         snap.SessionID,
		CreatedAt:         snap.CreatedAt,
		TotalFocusMinutes: snap.Summary.TotalFocusMinutes,
		TotalLeaveMinutes: snap.Summary.TotalLeaveMinutes,
		FocusSessions:     snap.Summary.FocusSessions,
		LeaveSessions:     snap.Summary.LeaveSessions,
		FocusScore:        score.FocusScore,
		Records:           snap.Records,
	}
	if snap.StoppedAt != nil {
		rec.StoppedAt = *snap.StoppedAt
	}
	return rec
}
