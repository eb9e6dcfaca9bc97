// Package postgres provides PostgreSQL storage for the session archive.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/anchor-insight/anchor-insight/pkg/tracker"
)

const defaultListCapacity = 50

// psq is the PostgreSQL statement builder with dollar placeholders.
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// archiveColumns lists columns returned by archive SELECT queries.
var archiveColumns = []string{
	"session_id", "created_at", "stopped_at",
	"total_focus_minutes", "total_leave_minutes",
	"focus_sessions", "leave_sessions", "focus_score",
	"records", "archived_at",
}

// Store implements tracker.Archiver using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL archive store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// saveConflictClause upserts on session_id, so a session finalized again
// after a delete and restart replaces its earlier row.
const saveConflictClause = `ON CONFLICT (session_id) DO UPDATE SET
	created_at = EXCLUDED.created_at,
	stopped_at = EXCLUDED.stopped_at,
	total_focus_minutes = EXCLUDED.total_focus_minutes,
	total_leave_minutes = EXCLUDED.total_leave_minutes,
	focus_sessions = EXCLUDED.focus_sessions,
	leave_sessions = EXCLUDED.leave_sessions,
	focus_score = EXCLUDED.focus_score,
	records = EXCLUDED.records,
	archived_at = EXCLUDED.archived_at`

// Save persists one finalized session.
func (s *Store) Save(ctx context.Context, rec tracker.ArchivedSession) error {
	recordsJSON, err := json.Marshal(rec.Records)
	if err != nil {
		recordsJSON = []byte("[]")
	}

	archivedAt := rec.ArchivedAt
	if archivedAt.IsZero() {
		archivedAt = time.Now()
	}

	query, args, err := psq.Insert("session_archive").
		Columns(archiveColumns...).
		Values(
			rec.SessionID, rec.CreatedAt, rec.StoppedAt,
			rec.TotalFocusMinutes, rec.TotalLeaveMinutes,
			rec.FocusSessions, rec.LeaveSessions, rec.FocusScore,
			recordsJSON, archivedAt,
		).
		Suffix(saveConflictClause).
		ToSql()
	if err != nil {
		return fmt.Errorf("building archive insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting archived session: %w", err)
	}
	return nil
}

// applyArchiveFilter adds filter conditions to a SELECT builder.
func applyArchiveFilter(qb sq.SelectBuilder, filter tracker.ArchiveFilter) sq.SelectBuilder {
	if filter.SessionID != "" {
		qb = qb.Where(sq.Eq{"session_id": filter.SessionID})
	}
	if filter.Since != nil {
		qb = qb.Where(sq.GtOrEq{"stopped_at": *filter.Since})
	}
	if filter.Until != nil {
		qb = qb.Where(sq.LtOrEq{"stopped_at": *filter.Until})
	}
	return qb
}

// List returns archived sessions matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter tracker.ArchiveFilter) ([]tracker.ArchivedSession, error) {
	qb := applyArchiveFilter(psq.Select(archiveColumns...).From("session_archive"), filter)
	qb = qb.OrderBy("stopped_at DESC")
	if filter.Limit > 0 {
		qb = qb.Limit(uint64(filter.Limit))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building archive query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying archive: %w", err)
	}
	defer rows.Close()

	capacity := filter.Limit
	if capacity <= 0 {
		capacity = defaultListCapacity
	}
	result := make([]tracker.ArchivedSession, 0, capacity)
	for rows.Next() {
		rec, err := scanArchived(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating archive rows: %w", err)
	}
	return result, nil
}

func scanArchived(rows *sql.Rows) (tracker.ArchivedSession, error) {
	var rec tracker.ArchivedSession
	var recordsJSON []byte

	err := rows.Scan(
		&rec.SessionID, &rec.CreatedAt, &rec.StoppedAt,
		&rec.TotalFocusMinutes, &rec.TotalLeaveMinutes,
		&rec.FocusSessions, &rec.LeaveSessions, &rec.FocusScore,
		&recordsJSON, &rec.ArchivedAt,
	)
	if err != nil {
		return tracker.ArchivedSession{}, fmt.Errorf("scanning archived session: %w", err)
	}

	if len(recordsJSON) > 0 {
		if err := json.Unmarshal(recordsJSON, &rec.Records); err != nil {
			return tracker.ArchivedSession{}, fmt.Errorf("decoding archived records: %w", err)
		}
	}
	return rec, nil
}

// Close is a no-op; the *sql.DB is owned by the caller.
func (s *Store) Close() error {
	return nil
}

// Verify interface compliance.
var _ tracker.Archiver = (*Store)(nil)
