// Package tracker converts streams of boolean presence observations into
// closed focus/leave time blocks and answers derived queries (status, score,
// records, summary). It is the in-process core consumed by the HTTP
// controller layer; it performs no I/O of its own.
package tracker

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// State is the presence state of a session.
type State string

// Session states. A session starts uninitialized and flips between focus
// and leave on presence transitions.
const (
	StateUninitialized State = "uninitialized"
	StateFocus         State = "focus"
	StateLeave         State = "leave"
)

// BlockType labels a closed time block.
type BlockType string

// Block types.
const (
	BlockFocus BlockType = "focus"
	BlockLeave BlockType = "leave"
)

// Confidence levels reported with a focus score.
const (
	ConfidenceHigh = "high"
	ConfidenceLow  = "low"
)

// Sentinel errors surfaced to callers.
var (
	// ErrSessionNotFound is returned for operations on an unknown session ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionStopped is returned when observing a session that has
	// already been stopped.
	ErrSessionStopped = errors.New("session already stopped")
)

// TimeBlock is a closed interval of one state. End is always after Start;
// zero-length blocks are never recorded.
type TimeBlock struct {
	Type            BlockType `json:"type"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes float64   `json:"duration_minutes"`
	Formatted       string    `json:"formatted"`
}

// Status is the read-only view of a session's current state.
type Status struct {
	SessionID                   string  `json:"session_id"`
	State                       State   `json:"state"`
	PersonDetected              *bool   `json:"person_detected"`
	ElapsedMinutesCurrentPeriod float64 `json:"elapsed_minutes_current_period"`
	TotalRecords                int     `json:"total_records"`
}

// Score is a normalized 0-100 focus metric derived from closed records only.
type Score struct {
	FocusScore int    `json:"focus_score"`
	Confidence string `json:"confidence"`
}

// Summary aggregates closed records by type.
type Summary struct {
	TotalFocusMinutes float64 `json:"total_focus_minutes"`
	TotalLeaveMinutes float64 `json:"total_leave_minutes"`
	FocusSessions     int     `json:"focus_sessions"`
	LeaveSessions     int     `json:"leave_sessions"`
}

// Snapshot is the full immutable view of a session, used when archiving
// finalized sessions.
type Snapshot struct {
	SessionID string      `json:"session_id"`
	State     State       `json:"state"`
	CreatedAt time.Time   `json:"created_at"`
	StoppedAt *time.Time  `json:"stopped_at,omitempty"`
	Records   []TimeBlock `json:"records"`
	Summary   Summary     `json:"summary"`
}

// session holds the per-session state machine. All fields are guarded by mu;
// the registry serializes operations per session through it, so concurrent
// ticks for the same session never race while distinct sessions proceed in
// parallel.
type session struct {
	mu sync.Mutex

	id        string
	createdAt time.Time

	state       State
	periodStart time.Time
	records     []TimeBlock

	stoppedAt  time.Time
	finalStats *Summary
}

func newSession(id string, now time.Time) *session {
	return &session{
		id:        id,
		createdAt: now,
		state:     StateUninitialized,
	}
}

// observe applies one presence tick. It returns the block closed by a
// transition, or nil when the tick continued the current period.
func (s *session) observe(personDetected bool, now time.Time) (*TimeBlock, error) {
	if s.stopped() {
		return nil, ErrSessionStopped
	}

	if s.state == StateUninitialized {
		if personDetected {
			s.state = StateFocus
		} else {
			s.state = StateLeave
		}
		s.periodStart = now
		return nil, nil
	}

	if personDetected == (s.state == StateFocus) {
		// Same period continues.
		return nil, nil
	}

	closed := s.closePeriod(now)
	if s.state == StateFocus {
		s.state = StateLeave
	} else {
		s.state = StateFocus
	}
	s.periodStart = now
	return closed, nil
}

// closePeriod appends a TimeBlock covering the open period, or discards it
// as a zero-duration glitch when now does not advance past the period start.
func (s *session) closePeriod(now time.Time) *TimeBlock {
	if !now.After(s.periodStart) {
		return nil
	}
	block := newTimeBlock(BlockType(s.state), s.periodStart, now)
	s.records = append(s.records, block)
	return &block
}

// stop closes any open period and finalizes the session. The bool reports
// whether this call performed the finalization; stopping twice returns the
// stats computed the first time.
func (s *session) stop(now time.Time) (Summary, bool) {
	if s.stopped() {
		return *s.finalStats, false
	}

	if s.state != StateUninitialized {
		s.closePeriod(now)
	}
	s.stoppedAt = now
	stats := s.summary()
	s.finalStats = &stats
	return stats, true
}

func (s *session) stopped() bool {
	return !s.stoppedAt.IsZero()
}

func (s *session) status(now time.Time) Status {
	st := Status{
		SessionID:    s.id,
		State:        s.state,
		TotalRecords: len(s.records),
	}
	if s.state != StateUninitialized {
		detected := s.state == StateFocus
		st.PersonDetected = &detected
		if !s.stopped() {
			st.ElapsedMinutesCurrentPeriod = now.Sub(s.periodStart).Minutes()
		}
	}
	return st
}

// summary aggregates closed records only; the open period is excluded since
// its final duration is not yet known.
func (s *session) summary() Summary {
	var sum Summary
	for _, r := range s.records {
		switch r.Type {
		case BlockFocus:
			sum.TotalFocusMinutes += r.DurationMinutes
			sum.FocusSessions++
		case BlockLeave:
			sum.TotalLeaveMinutes += r.DurationMinutes
			sum.LeaveSessions++
		}
	}
	return sum
}

// score derives the normalized focus score from closed records.
func (s *session) score(minBlocksHighConfidence int) Score {
	sum := s.summary()
	total := sum.TotalFocusMinutes + sum.TotalLeaveMinutes
	if total == 0 {
		return Score{FocusScore: 0, Confidence: ConfidenceLow}
	}

	raw := int(100*sum.TotalFocusMinutes/total + 0.5)
	if raw < 0 {
		raw = 0
	}
	if raw > 100 {
		raw = 100
	}

	confidence := ConfidenceLow
	closed := sum.FocusSessions + sum.LeaveSessions
	if sum.FocusSessions >= 1 && sum.LeaveSessions >= 1 && closed >= minBlocksHighConfidence {
		confidence = ConfidenceHigh
	}
	return Score{FocusScore: raw, Confidence: confidence}
}

func (s *session) latest() *TimeBlock {
	if len(s.records) == 0 {
		return nil
	}
	block := s.records[len(s.records)-1]
	return &block
}

func (s *session) snapshot() Snapshot {
	snap := Snapshot{
		SessionID: s.id,
		State:     s.state,
		CreatedAt: s.createdAt,
		Records:   append([]TimeBlock(nil), s.records...),
		Summary:   s.summary(),
	}
	if s.stopped() {
		stopped := s.stoppedAt
		snap.StoppedAt = &stopped
	}
	return snap
}

// newTimeBlock builds a closed block with derived duration and formatted
// rendering.
func newTimeBlock(typ BlockType, start, end time.Time) TimeBlock {
	return TimeBlock{
		Type:            typ,
		Start:           start,
		End:             end,
		DurationMinutes: end.Sub(start).Minutes(),
		Formatted:       formatTimeBlock(typ, start, end),
	}
}

// formatTimeBlock renders a block as e.g.
// "08/12/2025 Focus time: 09:00 am - 09:42 am".
func formatTimeBlock(typ BlockType, start, end time.Time) string {
	label := strings.ToUpper(string(typ)[:1]) + string(typ)[1:]
	return fmt.Sprintf("%s %s time: %s - %s",
		start.Format("02/01/2006"),
		label,
		start.Format("03:04 pm"),
		end.Format("03:04 pm"),
	)
}
