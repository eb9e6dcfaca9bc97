// Package api provides the REST endpoints for session tracking and
// screenshot analysis.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/anchor-insight/anchor-insight/pkg/analyzer"
	"github.com/anchor-insight/anchor-insight/pkg/audit"
	"github.com/anchor-insight/anchor-insight/pkg/auth"
	"github.com/anchor-insight/anchor-insight/pkg/tracker"
)

// requestIDHeader carries a caller-assigned correlation ID into audit events.
const requestIDHeader = "X-Request-Id"

// Scorer is the analyzer surface the analyze endpoints depend on.
type Scorer interface {
	AnalyzeImage(ctx context.Context, data []byte, contentType string) (analyzer.Result, error)
	Model() string
	MaxFileSizeMB() int
	Ping(ctx context.Context) error
}

// Deps holds the collaborators wired into the handler. Archive, Audit,
// AuditQuery, and Analyzer are optional; endpoints depending on a missing
// collaborator report that instead of failing.
type Deps struct {
	Tracker          *tracker.Tracker
	Analyzer         Scorer
	Archive          tracker.Archiver
	Audit            audit.Logger
	AuditQuery       audit.Querier
	DefaultSessionID string
	Version          string
}

// Handler provides the monitor, analyze, and audit REST endpoints.
type Handler struct {
	mux              *http.ServeMux
	tracker          *tracker.Tracker
	analyzer         Scorer
	archive          tracker.Archiver
	audit            audit.Logger
	auditQuery       audit.Querier
	defaultSessionID string
	version          string

	// now is injectable for tests.
	now func() time.Time
}

// NewHandler creates the REST handler.
func NewHandler(deps Deps) *Handler {
	h := &Handler{
		mux:              http.NewServeMux(),
		tracker:          deps.Tracker,
		analyzer:         deps.Analyzer,
		archive:          deps.Archive,
		audit:            deps.Audit,
		auditQuery:       deps.AuditQuery,
		defaultSessionID: deps.DefaultSessionID,
		version:          deps.Version,
		now:              time.Now,
	}
	if h.defaultSessionID == "" {
		h.defaultSessionID = "default"
	}
	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// registerRoutes registers all monitor and analyze routes.
func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("POST /api/v1/monitor/start", h.startMonitoring)
	h.mux.HandleFunc("POST /api/v1/monitor/observe", h.observe)
	h.mux.HandleFunc("POST /api/v1/monitor/stop", h.stopMonitoring)
	h.mux.HandleFunc("GET /api/v1/monitor/status", h.getStatus)
	h.mux.HandleFunc("GET /api/v1/monitor/score", h.getScore)
	h.mux.HandleFunc("GET /api/v1/monitor/records", h.getRecords)
	h.mux.HandleFunc("GET /api/v1/monitor/summary", h.getSummary)
	h.mux.HandleFunc("GET /api/v1/monitor/latest", h.getLatest)
	h.mux.HandleFunc("GET /api/v1/monitor/sessions", h.listSessions)
	h.mux.HandleFunc("DELETE /api/v1/monitor/session/{id}", h.removeSession)
	h.mux.HandleFunc("GET /api/v1/monitor/archive", h.listArchive)
	h.mux.HandleFunc("GET /api/v1/audit/events", h.listAuditEvents)
	h.mux.HandleFunc("POST /api/v1/analyze/upload", h.analyzeUpload)
	h.mux.HandleFunc("GET /api/v1/analyze/health", h.analyzeHealth)
	h.mux.HandleFunc("GET /api/v1/analyze/health/detail", h.analyzeHealthDetail)
}

// sessionID resolves the session_id query parameter, falling back to the
// configured default when the parameter is absent.
func (h *Handler) sessionID(r *http.Request) string {
	if !r.URL.Query().Has("session_id") {
		return h.defaultSessionID
	}
	return r.URL.Query().Get("session_id")
}

// recordAudit emits one audit event for a mutating operation. No-op when
// audit logging is not configured.
func (h *Handler) recordAudit(r *http.Request, operation, sessionID string, started time.Time, opErr error) {
	if h.audit == nil {
		return
	}

	event := audit.NewEvent(operation).
		WithSession(sessionID).
		WithRequestID(r.Header.Get(requestIDHeader))
	if user := auth.GetUser(r.Context()); user != nil {
		event.WithUser(user.UserID)
	}

	errMsg := ""
	if opErr != nil {
		errMsg = opErr.Error()
	}
	event.WithResult(opErr == nil, errMsg, h.now().Sub(started).Milliseconds())

	_ = h.audit.Log(r.Context(), *event)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
