package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/anchor-insight/anchor-insight/pkg/audit"
)

const defaultAuditLimit = 50

// auditEventsResponse wraps a paginated list of audit events.
type auditEventsResponse struct {
	Events []audit.Event `json:"events"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// listAuditEvents handles GET /api/v1/audit/events.
//
// @Summary      List audit events
// @Description  Returns recorded audit events, newest first, with optional filtering.
// @Tags         Audit
// @Produce      json
// @Param        session_id  query  string  false  "Filter by session ID"
// @Param        user_id     query  string  false  "Filter by user ID"
// @Param        operation   query  string  false  "Filter by operation"
// @Param        success     query  boolean false  "Filter by success/failure"
// @Param        start_time  query  string  false  "Events after this time (RFC 3339)"
// @Param        end_time    query  string  false  "Events before this time (RFC 3339)"
// @Param        limit       query  int     false  "Maximum results (default: 50)"
// @Param        offset      query  int     false  "Results to skip"
// @Success      200  {object}  auditEventsResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /audit/events [get]
func (h *Handler) listAuditEvents(w http.ResponseWriter, r *http.Request) {
	if h.auditQuery == nil {
		writeError(w, http.StatusNotFound, "audit query is not configured")
		return
	}

	filter, err := parseAuditFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := h.auditQuery.Query(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if events == nil {
		events = []audit.Event{}
	}

	// Count ignores limit and offset, so total covers the whole match set.
	total, err := h.auditQuery.Count(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, auditEventsResponse{
		Events: events,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// parseAuditFilter builds a QueryFilter from query parameters.
func parseAuditFilter(r *http.Request) (audit.QueryFilter, error) {
	q := r.URL.Query()
	filter := audit.QueryFilter{
		SessionID: q.Get("session_id"),
		UserID:    q.Get("user_id"),
		Operation: q.Get("operation"),
		Limit:     defaultAuditLimit,
	}

	if raw := q.Get("success"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errors.New("invalid success flag: " + raw)
		}
		filter.Success = &b
	}
	if raw := q.Get("start_time"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errors.New("invalid start_time timestamp: " + raw)
		}
		filter.StartTime = &ts
	}
	if raw := q.Get("end_time"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, errors.New("invalid end_time timestamp: " + raw)
		}
		filter.EndTime = &ts
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return filter, errors.New("invalid limit: " + raw)
		}
		filter.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filter, errors.New("invalid offset: " + raw)
		}
		filter.Offset = offset
	}
	return filter, nil
}
