package tracker

import (
	"sort"
	"sync"
	"time"
)

const defaultMinBlocksHighConfidence = 2

// Config configures a Tracker.
type Config struct {
	// MinBlocksHighConfidence is the minimum number of closed blocks
	// (with at least one of each type) before a score is reported with
	// high confidence. Zero selects the default of 2.
	MinBlocksHighConfidence int
}

// Tracker owns the session registry. It is safe for concurrent use: the
// registry map is guarded by an RWMutex and each session carries its own
// mutex, so mutations for one session are serialized while independent
// sessions are processed in parallel.
type Tracker struct {
	mu       sync.RWMutex
	sessions map[string]*session

	minBlocksHighConfidence int
}

// New creates an empty Tracker.
func New(cfg Config) *Tracker {
	minBlocks := cfg.MinBlocksHighConfidence
	if minBlocks == 0 {
		minBlocks = defaultMinBlocksHighConfidence
	}
	return &Tracker{
		sessions:                make(map[string]*session),
		minBlocksHighConfidence: minBlocks,
	}
}

// Start creates a session if none exists for id, or returns the existing
// one unchanged. Starting twice never resets state.
func (t *Tracker) Start(id string, now time.Time) (Status, bool) {
	t.mu.Lock()
	s, ok := t.sessions[id]
	if !ok {
		s = newSession(id, now)
		t.sessions[id] = s
	}
	t.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status(now), !ok
}

// Observe applies one presence tick to the session. It returns the block
// closed by a transition, or nil when the current period continues.
func (t *Tracker) Observe(id string, personDetected bool, now time.Time) (*TimeBlock, error) {
	s, err := t.get(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.observe(personDetected, now)
}

// Status reports the session's current state without mutating it.
func (t *Tracker) Status(id string, now time.Time) (Status, error) {
	s, err := t.get(id)
	if err != nil {
		return Status{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status(now), nil
}

// Score derives the focus score from the session's closed records.
func (t *Tracker) Score(id string) (Score, error) {
	s, err := t.get(id)
	if err != nil {
		return Score{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score(t.minBlocksHighConfidence), nil
}

// Latest returns the most recently closed block, or nil when the session
// has no records yet.
func (t *Tracker) Latest(id string) (*TimeBlock, error) {
	s, err := t.get(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest(), nil
}

// Records returns the session's full closed-block history in chronological
// order. The returned slice is a copy.
func (t *Tracker) Records(id string) ([]TimeBlock, error) {
	s, err := t.get(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]TimeBlock(nil), s.records...), nil
}

// Summary aggregates the session's closed records by type.
func (t *Tracker) Summary(id string) (Summary, error) {
	s, err := t.get(id)
	if err != nil {
		return Summary{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary(), nil
}

// Stop closes any open period and finalizes the session. The bool reports
// whether this call performed the finalization; it is true for exactly one
// caller even under concurrent stops, since the decision is made under the
// session lock. Stop is idempotent: calling it again returns the same final
// stats with finalized false.
func (t *Tracker) Stop(id string, now time.Time) (Summary, bool, error) {
	s, err := t.get(id)
	if err != nil {
		return Summary{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stats, finalized := s.stop(now)
	return stats, finalized, nil
}

// Snapshot returns the full immutable view of a session for archiving.
func (t *Tracker) Snapshot(id string) (Snapshot, error) {
	s, err := t.get(id)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

// List returns the IDs of all known sessions, sorted for determinism.
func (t *Tracker) List() []string {
	t.mu.RLock()
	ids := make([]string, 0, len(t.sessions))
	for id := range t.sessions {
		ids = append(ids, id)
	}
	t.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Delete stops the session if active and removes all its state. Deleting
// an unknown session is a no-op.
func (t *Tracker) Delete(id string, now time.Time) {
	t.mu.Lock()
	s, ok := t.sessions[id]
	if ok {
		delete(t.sessions, id)
	}
	t.mu.Unlock()

	if !ok {
		return
	}

	s.mu.Lock()
	s.stop(now)
	s.mu.Unlock()
}

func (t *Tracker) get(id string) (*session, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}
