package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/anchor-insight/anchor-insight/pkg/tracker"
)

// archiveSaveTimeout bounds the write-behind archive save after a stop.
const archiveSaveTimeout = 5 * time.Second

type startResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type observeRequest struct {
	PersonDetected *bool `json:"person_detected"`
}

type observeResponse struct {
	SessionID      string             `json:"session_id"`
	PersonDetected bool               `json:"person_detected"`
	State          tracker.State      `json:"state"`
	ClosedRecord   *tracker.TimeBlock `json:"closed_record,omitempty"`
}

type stopResponse struct {
	Status     string          `json:"status"`
	Message    string          `json:"message"`
	FinalStats tracker.Summary `json:"final_stats"`
}

type recordsResponse struct {
	SessionID string              `json:"session_id"`
	Records   []tracker.TimeBlock `json:"records"`
	Total     int                 `json:"total"`
}

type latestResponse struct {
	LatestRecord *tracker.TimeBlock `json:"latest_record"`
	Message      string             `json:"message"`
}

type sessionInfo struct {
	SessionID    string        `json:"session_id"`
	State        tracker.State `json:"state"`
	TotalRecords int           `json:"total_records"`
}

type sessionsResponse struct {
	Sessions      []sessionInfo `json:"sessions"`
	TotalSessions int           `json:"total_sessions"`
}

type removeResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
}

type archiveResponse struct {
	Sessions []tracker.ArchivedSession `json:"sessions"`
	Total    int                       `json:"total"`
}

// writeTrackerError maps tracker sentinel errors to HTTP status codes.
func writeTrackerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tracker.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, tracker.ErrSessionStopped):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// startMonitoring handles POST /api/v1/monitor/start.
//
// @Summary      Start monitoring
// @Description  Creates a tracking session, or reports the existing one. An empty session_id generates a fresh ID.
// @Tags         Monitor
// @Produce      json
// @Param        session_id  query  string  false  "Session ID"
// @Success      200  {object}  startResponse
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /monitor/start [post]
func (h *Handler) startMonitoring(w http.ResponseWriter, r *http.Request) {
	started := h.now()

	id := h.sessionID(r)
	if id == "" {
		id = uuid.NewString()
	}

	_, created := h.tracker.Start(id, h.now())
	resp := startResponse{SessionID: id}
	if created {
		resp.Status = "started"
		resp.Message = "monitoring started for session " + id
	} else {
		resp.Status = "already_running"
		resp.Message = "session " + id + " already running"
	}

	h.recordAudit(r, "monitor.start", id, started, nil)
	writeJSON(w, http.StatusOK, resp)
}

// observe handles POST /api/v1/monitor/observe.
//
// @Summary      Record an observation
// @Description  Feeds one presence observation into the session state machine.
// @Tags         Monitor
// @Accept       json
// @Produce      json
// @Param        session_id  query  string          false  "Session ID"
// @Param        body        body   observeRequest  true   "Observation"
// @Success      200  {object}  observeResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /monitor/observe [post]
func (h *Handler) observe(w http.ResponseWriter, r *http.Request) {
	started := h.now()
	id := h.sessionID(r)

	var req observeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.PersonDetected == nil {
		writeError(w, http.StatusBadRequest, "person_detected is required")
		return
	}

	closed, err := h.tracker.Observe(id, *req.PersonDetected, h.now())
	h.recordAudit(r, "monitor.observe", id, started, err)
	if err != nil {
		writeTrackerError(w, err)
		return
	}

	status, err := h.tracker.Status(id, h.now())
	if err != nil {
		writeTrackerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, observeResponse{
		SessionID:      id,
		PersonDetected: *req.PersonDetected,
		State:          status.State,
		ClosedRecord:   closed,
	})
}

// stopMonitoring handles POST /api/v1/monitor/stop.
//
// @Summary      Stop monitoring
// @Description  Finalizes the session and returns its summary. Stopping twice is a no-op.
// @Tags         Monitor
// @Produce      json
// @Param        session_id  query  string  false  "Session ID"
// @Success      200  {object}  stopResponse
// @Failure      404  {object}  map[string]string
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /monitor/stop [post]
func (h *Handler) stopMonitoring(w http.ResponseWriter, r *http.Request) {
	started := h.now()
	id := h.sessionID(r)

	stats, finalized, err := h.tracker.Stop(id, h.now())
	h.recordAudit(r, "monitor.stop", id, started, err)
	if err != nil {
		writeTrackerError(w, err)
		return
	}

	// The tracker decides finalization under the session lock, so exactly
	// one of any concurrent stops archives the session.
	resp := stopResponse{FinalStats: stats}
	if finalized {
		resp.Status = "stopped"
		resp.Message = "monitoring stopped for session " + id
		h.archiveSession(id)
	} else {
		resp.Status = "not_running"
		resp.Message = "session " + id + " not running"
	}

	writeJSON(w, http.StatusOK, resp)
}

// archiveSession persists the finalized session in the background. Archiving
// is write-behind; a failed save only loses history.
func (h *Handler) archiveSession(id string) {
	if h.archive == nil {
		return
	}

	snap, err := h.tracker.Snapshot(id)
	if err != nil {
		return
	}
	score, err := h.tracker.Score(id)
	if err != nil {
		return
	}

	rec := tracker.NewArchivedSession(snap, score)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), archiveSaveTimeout)
		defer cancel()
		if err := h.archive.Save(ctx, rec); err != nil {
			slog.Error("api: archiving session failed", "session_id", id, "error", err)
		}
	}()
}

// getStatus handles GET /api/v1/monitor/status.
//
// @Summary      Session status
// @Tags         Monitor
// @Produce      json
// @Param        session_id  query  string  false  "Session ID"
// @Success      200  {object}  tracker.Status
// @Failure      404  {object}  map[string]string
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /monitor/status [get]
func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.tracker.Status(h.sessionID(r), h.now())
	if err != nil {
		writeTrackerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// getScore handles GET /api/v1/monitor/score.
//
// @Summary      Focus score
// @Description  Returns the 0-100 focus score derived from closed records.
// @Tags         Monitor
// @Produce      json
// @Param        session_id  query  string  false  "Session ID"
// @Success      200  {object}  tracker.Score
// @Failure      404  {object}  map[string]string
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /monitor/score [get]
func (h *Handler) getScore(w http.ResponseWriter, r *http.Request) {
	score, err := h.tracker.Score(h.sessionID(r))
	if err != nil {
		writeTrackerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

// getRecords handles GET /api/v1/monitor/records.
//
// @Summary      Closed time records
// @Tags         Monitor
// @Produce      json
// @Param        session_id  query  string  false  "Session ID"
// @Success      200  {object}  recordsResponse
// @Failure      404  {object}  map[string]string
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /monitor/records [get]
func (h *Handler) getRecords(w http.ResponseWriter, r *http.Request) {
	id := h.sessionID(r)
	records, err := h.tracker.Records(id)
	if err != nil {
		writeTrackerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordsResponse{
		SessionID: id,
		Records:   records,
		Total:     len(records),
	})
}

// getSummary handles GET /api/v1/monitor/summary.
//
// @Summary      Session summary
// @Tags         Monitor
// @Produce      json
// @Param        session_id  query  string  false  "Session ID"
// @Success      200  {object}  tracker.Summary
// @Failure      404  {object}  map[string]string
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /monitor/summary [get]
func (h *Handler) getSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.tracker.Summary(h.sessionID(r))
	if err != nil {
		writeTrackerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// getLatest handles GET /api/v1/monitor/latest.
//
// @Summary      Latest closed record
// @Tags         Monitor
// @Produce      json
// @Param        session_id  query  string  false  "Session ID"
// @Success      200  {object}  latestResponse
// @Failure      404  {object}  map[string]string
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /monitor/latest [get]
func (h *Handler) getLatest(w http.ResponseWriter, r *http.Request) {
	latest, err := h.tracker.Latest(h.sessionID(r))
	if err != nil {
		writeTrackerError(w, err)
		return
	}
	resp := latestResponse{LatestRecord: latest, Message: "ok"}
	if latest == nil {
		resp.Message = "no records"
	}
	writeJSON(w, http.StatusOK, resp)
}

// listSessions handles GET /api/v1/monitor/sessions.
//
// @Summary      List sessions
// @Tags         Monitor
// @Produce      json
// @Success      200  {object}  sessionsResponse
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /monitor/sessions [get]
func (h *Handler) listSessions(w http.ResponseWriter, _ *http.Request) {
	ids := h.tracker.List()
	sessions := make([]sessionInfo, 0, len(ids))
	for _, id := range ids {
		status, err := h.tracker.Status(id, h.now())
		if err != nil {
			// Session removed between List and Status.
			continue
		}
		sessions = append(sessions, sessionInfo{
			SessionID:    id,
			State:        status.State,
			TotalRecords: status.TotalRecords,
		})
	}
	writeJSON(w, http.StatusOK, sessionsResponse{
		Sessions:      sessions,
		TotalSessions: len(sessions),
	})
}

// removeSession handles DELETE /api/v1/monitor/session/{id}.
//
// @Summary      Remove a session
// @Description  Stops and removes a session. Removing an unknown session is a no-op.
// @Tags         Monitor
// @Produce      json
// @Param        id  path  string  true  "Session ID"
// @Success      200  {object}  removeResponse
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /monitor/session/{id} [delete]
func (h *Handler) removeSession(w http.ResponseWriter, r *http.Request) {
	started := h.now()
	id := r.PathValue("id")

	h.tracker.Delete(id, h.now())
	h.recordAudit(r, "monitor.remove_session", id, started, nil)

	writeJSON(w, http.StatusOK, removeResponse{Status: "removed", SessionID: id})
}

// listArchive handles GET /api/v1/monitor/archive.
//
// @Summary      List archived sessions
// @Description  Returns finalized sessions from the archive database, newest first.
// @Tags         Monitor
// @Produce      json
// @Param        session_id  query  string  false  "Session ID"
// @Param        since       query  string  false  "RFC 3339 lower bound on stop time"
// @Param        until       query  string  false  "RFC 3339 upper bound on stop time"
// @Param        limit       query  int     false  "Maximum results"
// @Success      200  {object}  archiveResponse
// @Failure      404  {object}  map[string]string
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /monitor/archive [get]
func (h *Handler) listArchive(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		writeError(w, http.StatusNotFound, "session archive is not configured")
		return
	}

	filter, err := parseArchiveFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessions, err := h.archive.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, archiveResponse{Sessions: sessions, Total: len(sessions)})
}

// parseArchiveFilter builds an ArchiveFilter from query parameters.
func parseArchiveFilter(r *http.Request) (tracker.ArchiveFilter, error) {
	q := r.URL.Query()
	filter := tracker.ArchiveFilter{SessionID: q.Get("session_id")}

	if raw := q.Get("since"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errors.New("invalid since timestamp: " + raw)
		}
		filter.Since = &ts
	}
	if raw := q.Get("until"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errors.New("invalid until timestamp: " + raw)
		}
		filter.Until = &ts
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, errors.New("invalid limit: " + raw)
		}
		filter.Limit = limit
	}
	return filter, nil
}
