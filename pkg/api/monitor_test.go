package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchor-insight/anchor-insight/pkg/audit"
	"github.com/anchor-insight/anchor-insight/pkg/tracker"
)

var apiTestBase = time.Date(2025, time.December, 8, 9, 0, 0, 0, time.UTC)

// testClock is a manually advanced clock for handler tests.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memArchiver is an in-memory Archiver that signals saves on a channel.
type memArchiver struct {
	mu    sync.Mutex
	saved []tracker.ArchivedSession
	ch    chan tracker.ArchivedSession
}

func newMemArchiver() *memArchiver {
	return &memArchiver{ch: make(chan tracker.ArchivedSession, 16)}
}

func (m *memArchiver) Save(_ context.Context, rec tracker.ArchivedSession) error {
	m.mu.Lock()
	m.saved = append(m.saved, rec)
	m.mu.Unlock()
	m.ch <- rec
	return nil
}

func (m *memArchiver) List(_ context.Context, filter tracker.ArchiveFilter) ([]tracker.ArchivedSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []tracker.ArchivedSession
	for _, rec := range m.saved {
		if filter.SessionID != "" && rec.SessionID != filter.SessionID {
			continue
		}
		out = append(out, rec)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *memArchiver) Close() error { return nil }

// captureAudit records audit events in memory.
type captureAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (c *captureAudit) Log(_ context.Context, event audit.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *captureAudit) Query(_ context.Context, filter audit.QueryFilter) ([]audit.Event, error) {
	matched := c.matching(filter)
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (c *captureAudit) Count(_ context.Context, filter audit.QueryFilter) (int, error) {
	return len(c.matching(filter)), nil
}

func (c *captureAudit) matching(filter audit.QueryFilter) []audit.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []audit.Event
	for _, e := range c.events {
		if filter.SessionID != "" && e.SessionID != filter.SessionID {
			continue
		}
		if filter.Operation != "" && e.Operation != filter.Operation {
			continue
		}
		if filter.Success != nil && e.Success != *filter.Success {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (c *captureAudit) Close() error { return nil }

func (c *captureAudit) operations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ops := make([]string, len(c.events))
	for i, e := range c.events {
		ops[i] = e.Operation
	}
	return ops
}

type handlerFixture struct {
	handler *Handler
	clock   *testClock
	archive *memArchiver
	audit   *captureAudit
}

func newFixture(t *testing.T) *handlerFixture {
	t.Helper()
	clock := &testClock{now: apiTestBase}
	archive := newMemArchiver()
	auditLog := &captureAudit{}
	h := NewHandler(Deps{
		Tracker:    tracker.New(tracker.Config{}),
		Archive:    archive,
		Audit:      auditLog,
		AuditQuery: auditLog,
		Version:    "test",
	})
	h.now = clock.Now
	return &handlerFixture{handler: h, clock: clock, archive: archive, audit: auditLog}
}

func (f *handlerFixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func TestStartMonitoring(t *testing.T) {
	f := newFixture(t)

	t.Run("creates session", func(t *testing.T) {
		rr := f.do(t, "POST", "/api/v1/monitor/start?session_id=alpha", "")
		require.Equal(t, http.StatusOK, rr.Code)

		resp := decodeBody[startResponse](t, rr)
		assert.Equal(t, "started", resp.Status)
		assert.Equal(t, "alpha", resp.SessionID)
	})

	t.Run("existing session reports already_running", func(t *testing.T) {
		rr := f.do(t, "POST", "/api/v1/monitor/start?session_id=alpha", "")
		require.Equal(t, http.StatusOK, rr.Code)

		resp := decodeBody[startResponse](t, rr)
		assert.Equal(t, "already_running", resp.Status)
	})

	t.Run("absent session_id uses default", func(t *testing.T) {
		rr := f.do(t, "POST", "/api/v1/monitor/start", "")
		resp := decodeBody[startResponse](t, rr)
		assert.Equal(t, "default", resp.SessionID)
	})

	t.Run("blank session_id generates an ID", func(t *testing.T) {
		rr := f.do(t, "POST", "/api/v1/monitor/start?session_id=", "")
		resp := decodeBody[startResponse](t, rr)
		assert.Equal(t, "started", resp.Status)
		assert.NotEmpty(t, resp.SessionID)
		assert.NotEqual(t, "default", resp.SessionID)
	})
}

func TestObserve(t *testing.T) {
	t.Run("transition closes a record", func(t *testing.T) {
		f := newFixture(t)
		f.do(t, "POST", "/api/v1/monitor/start?session_id=s1", "")

		rr := f.do(t, "POST", "/api/v1/monitor/observe?session_id=s1", `{"person_detected": true}`)
		require.Equal(t, http.StatusOK, rr.Code)
		resp := decodeBody[observeResponse](t, rr)
		assert.Equal(t, tracker.StateFocus, resp.State)
		assert.Nil(t, resp.ClosedRecord)

		f.clock.Advance(10 * time.Minute)
		rr = f.do(t, "POST", "/api/v1/monitor/observe?session_id=s1", `{"person_detected": false}`)
		resp = decodeBody[observeResponse](t, rr)
		assert.Equal(t, tracker.StateLeave, resp.State)
		require.NotNil(t, resp.ClosedRecord)
		assert.Equal(t, tracker.BlockFocus, resp.ClosedRecord.Type)
		assert.InDelta(t, 10.0, resp.ClosedRecord.DurationMinutes, 1e-9)
	})

	t.Run("missing body", func(t *testing.T) {
		f := newFixture(t)
		f.do(t, "POST", "/api/v1/monitor/start?session_id=s1", "")

		rr := f.do(t, "POST", "/api/v1/monitor/observe?session_id=s1", `{}`)
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown session", func(t *testing.T) {
		f := newFixture(t)
		rr := f.do(t, "POST", "/api/v1/monitor/observe?session_id=ghost", `{"person_detected": true}`)
		require.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("stopped session conflicts", func(t *testing.T) {
		f := newFixture(t)
		f.do(t, "POST", "/api/v1/monitor/start?session_id=s1", "")
		f.do(t, "POST", "/api/v1/monitor/stop?session_id=s1", "")

		rr := f.do(t, "POST", "/api/v1/monitor/observe?session_id=s1", `{"person_detected": true}`)
		require.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestStopMonitoring(t *testing.T) {
	f := newFixture(t)
	f.do(t, "POST", "/api/v1/monitor/start?session_id=s1", "")
	f.do(t, "POST", "/api/v1/monitor/observe?session_id=s1", `{"person_detected": true}`)
	f.clock.Advance(10 * time.Minute)
	f.do(t, "POST", "/api/v1/monitor/observe?session_id=s1", `{"person_detected": false}`)
	f.clock.Advance(5 * time.Minute)
	f.do(t, "POST", "/api/v1/monitor/observe?session_id=s1", `{"person_detected": true}`)
	f.clock.Advance(27 * time.Minute)

	rr := f.do(t, "POST", "/api/v1/monitor/stop?session_id=s1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeBody[stopResponse](t, rr)
	assert.Equal(t, "stopped", resp.Status)
	assert.InDelta(t, 37.0, resp.FinalStats.TotalFocusMinutes, 1e-9)
	assert.InDelta(t, 5.0, resp.FinalStats.TotalLeaveMinutes, 1e-9)
	assert.Equal(t, 2, resp.FinalStats.FocusSessions)
	assert.Equal(t, 1, resp.FinalStats.LeaveSessions)

	// Write-behind archive save.
	select {
	case rec := <-f.archive.ch:
		assert.Equal(t, "s1", rec.SessionID)
		assert.Equal(t, 88, rec.FocusScore)
		assert.Len(t, rec.Records, 3)
	case <-time.After(2 * time.Second):
		t.Fatal("archived session never saved")
	}

	t.Run("second stop is a no-op", func(t *testing.T) {
		rr := f.do(t, "POST", "/api/v1/monitor/stop?session_id=s1", "")
		require.Equal(t, http.StatusOK, rr.Code)
		resp := decodeBody[stopResponse](t, rr)
		assert.Equal(t, "not_running", resp.Status)
		assert.InDelta(t, 37.0, resp.FinalStats.TotalFocusMinutes, 1e-9)
	})

	t.Run("unknown session", func(t *testing.T) {
		rr := f.do(t, "POST", "/api/v1/monitor/stop?session_id=ghost", "")
		require.Equal(t, http.StatusNotFound, rr.Code)
	})
}

// Racing first-time stops for one session must produce exactly one
// "stopped" response and exactly one archive row.
func TestStopMonitoring_ConcurrentStopsArchiveOnce(t *testing.T) {
	const stoppers = 16
	const trials = 25

	for trial := 0; trial < trials; trial++ {
		f := newFixture(t)
		f.do(t, "POST", "/api/v1/monitor/start?session_id=race", "")
		f.do(t, "POST", "/api/v1/monitor/observe?session_id=race", `{"person_detected": true}`)
		f.clock.Advance(10 * time.Minute)

		var wg sync.WaitGroup
		statuses := make([]string, stoppers)
		for g := 0; g < stoppers; g++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				req := httptest.NewRequest("POST", "/api/v1/monitor/stop?session_id=race", nil)
				rr := httptest.NewRecorder()
				f.handler.ServeHTTP(rr, req)
				var resp stopResponse
				if err := json.Unmarshal(rr.Body.Bytes(), &resp); err == nil {
					statuses[n] = resp.Status
				}
			}(g)
		}
		wg.Wait()

		stopped := 0
		for _, status := range statuses {
			if status == "stopped" {
				stopped++
			}
		}
		require.Equal(t, 1, stopped, "exactly one stop must report stopped")

		select {
		case rec := <-f.archive.ch:
			assert.Equal(t, "race", rec.SessionID)
		case <-time.After(2 * time.Second):
			t.Fatal("archived session never saved")
		}
		select {
		case rec := <-f.archive.ch:
			t.Fatalf("session archived twice: %s", rec.SessionID)
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestReadEndpoints(t *testing.T) {
	f := newFixture(t)
	f.do(t, "POST", "/api/v1/monitor/start?session_id=s1", "")
	f.do(t, "POST", "/api/v1/monitor/observe?session_id=s1", `{"person_detected": true}`)
	f.clock.Advance(10 * time.Minute)
	f.do(t, "POST", "/api/v1/monitor/observe?session_id=s1", `{"person_detected": false}`)

	t.Run("status", func(t *testing.T) {
		rr := f.do(t, "GET", "/api/v1/monitor/status?session_id=s1", "")
		require.Equal(t, http.StatusOK, rr.Code)
		status := decodeBody[tracker.Status](t, rr)
		assert.Equal(t, tracker.StateLeave, status.State)
		assert.Equal(t, 1, status.TotalRecords)
	})

	t.Run("score", func(t *testing.T) {
		rr := f.do(t, "GET", "/api/v1/monitor/score?session_id=s1", "")
		require.Equal(t, http.StatusOK, rr.Code)
		score := decodeBody[tracker.Score](t, rr)
		assert.Equal(t, 100, score.FocusScore)
		assert.Equal(t, tracker.ConfidenceLow, score.Confidence)
	})

	t.Run("records", func(t *testing.T) {
		rr := f.do(t, "GET", "/api/v1/monitor/records?session_id=s1", "")
		resp := decodeBody[recordsResponse](t, rr)
		assert.Equal(t, 1, resp.Total)
		require.Len(t, resp.Records, 1)
		assert.Equal(t, "08/12/2025 Focus time: 09:00 am - 09:10 am", resp.Records[0].Formatted)
	})

	t.Run("summary", func(t *testing.T) {
		rr := f.do(t, "GET", "/api/v1/monitor/summary?session_id=s1", "")
		summary := decodeBody[tracker.Summary](t, rr)
		assert.InDelta(t, 10.0, summary.TotalFocusMinutes, 1e-9)
	})

	t.Run("latest", func(t *testing.T) {
		rr := f.do(t, "GET", "/api/v1/monitor/latest?session_id=s1", "")
		resp := decodeBody[latestResponse](t, rr)
		assert.Equal(t, "ok", resp.Message)
		require.NotNil(t, resp.LatestRecord)
		assert.Equal(t, tracker.BlockFocus, resp.LatestRecord.Type)
	})

	t.Run("latest with no records", func(t *testing.T) {
		f.do(t, "POST", "/api/v1/monitor/start?session_id=empty", "")
		rr := f.do(t, "GET", "/api/v1/monitor/latest?session_id=empty", "")
		resp := decodeBody[latestResponse](t, rr)
		assert.Equal(t, "no records", resp.Message)
		assert.Nil(t, resp.LatestRecord)
	})

	t.Run("unknown session is 404", func(t *testing.T) {
		for _, path := range []string{"status", "score", "records", "summary", "latest"} {
			rr := f.do(t, "GET", "/api/v1/monitor/"+path+"?session_id=ghost", "")
			assert.Equal(t, http.StatusNotFound, rr.Code, path)
		}
	})
}

func TestListAndRemoveSessions(t *testing.T) {
	f := newFixture(t)
	f.do(t, "POST", "/api/v1/monitor/start?session_id=beta", "")
	f.do(t, "POST", "/api/v1/monitor/start?session_id=alpha", "")

	rr := f.do(t, "GET", "/api/v1/monitor/sessions", "")
	resp := decodeBody[sessionsResponse](t, rr)
	require.Equal(t, 2, resp.TotalSessions)
	assert.Equal(t, "alpha", resp.Sessions[0].SessionID)
	assert.Equal(t, "beta", resp.Sessions[1].SessionID)

	rr = f.do(t, "DELETE", "/api/v1/monitor/session/alpha", "")
	require.Equal(t, http.StatusOK, rr.Code)
	removed := decodeBody[removeResponse](t, rr)
	assert.Equal(t, "removed", removed.Status)
	assert.Equal(t, "alpha", removed.SessionID)

	rr = f.do(t, "GET", "/api/v1/monitor/sessions", "")
	resp = decodeBody[sessionsResponse](t, rr)
	assert.Equal(t, 1, resp.TotalSessions)

	t.Run("removing unknown session succeeds", func(t *testing.T) {
		rr := f.do(t, "DELETE", "/api/v1/monitor/session/ghost", "")
		require.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestListArchive(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		h := NewHandler(Deps{Tracker: tracker.New(tracker.Config{})})
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/monitor/archive", nil))
		require.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("lists archived sessions", func(t *testing.T) {
		f := newFixture(t)
		f.archive.saved = []tracker.ArchivedSession{
			{SessionID: "s1", FocusScore: 80},
			{SessionID: "s2", FocusScore: 50},
		}

		rr := f.do(t, "GET", "/api/v1/monitor/archive?session_id=s2", "")
		require.Equal(t, http.StatusOK, rr.Code)
		resp := decodeBody[archiveResponse](t, rr)
		require.Equal(t, 1, resp.Total)
		assert.Equal(t, "s2", resp.Sessions[0].SessionID)
	})

	t.Run("invalid since", func(t *testing.T) {
		f := newFixture(t)
		rr := f.do(t, "GET", "/api/v1/monitor/archive?since=yesterday", "")
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("invalid limit", func(t *testing.T) {
		f := newFixture(t)
		rr := f.do(t, "GET", "/api/v1/monitor/archive?limit=-3", "")
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAuditTrail(t *testing.T) {
	f := newFixture(t)
	f.do(t, "POST", "/api/v1/monitor/start?session_id=s1", "")
	f.do(t, "POST", "/api/v1/monitor/observe?session_id=s1", `{"person_detected": true}`)
	f.do(t, "POST", "/api/v1/monitor/stop?session_id=s1", "")
	f.do(t, "DELETE", "/api/v1/monitor/session/s1", "")

	ops := f.audit.operations()
	assert.Equal(t, []string{
		"monitor.start",
		"monitor.observe",
		"monitor.stop",
		"monitor.remove_session",
	}, ops)

	for _, e := range f.audit.events {
		assert.Equal(t, "s1", e.SessionID)
		assert.True(t, e.Success)
	}
}
