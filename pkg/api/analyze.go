package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/anchor-insight/anchor-insight/pkg/analyzer"
)

// uploadFormField is the multipart field carrying the screenshot.
const uploadFormField = "file"

// maxUploadMemory caps the in-memory portion of multipart parsing.
const maxUploadMemory = 32 << 20

type analyzeResponse struct {
	FocusScore     int     `json:"focus_score"`
	Confidence     string  `json:"confidence,omitempty"`
	ProcessingTime float64 `json:"processing_time,omitempty"`
	Timestamp      string  `json:"timestamp"`
}

type analyzeHealthResponse struct {
	Status    string `json:"status"`
	Enabled   bool   `json:"enabled"`
	Model     string `json:"model,omitempty"`
	Timestamp string `json:"timestamp"`
}

type analyzeHealthDetailResponse struct {
	Status        string `json:"status"`
	OpenAIAPI     string `json:"openai_api"`
	Model         string `json:"model"`
	MaxFileSizeMB int    `json:"max_file_size_mb"`
	Timestamp     string `json:"timestamp"`
}

// analyzeUpload handles POST /api/v1/analyze/upload.
//
// @Summary      Analyze a screenshot
// @Description  Scores a screenshot 0-100 for work focus using the vision model.
// @Tags         Analyze
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Screenshot image"
// @Success      200  {object}  analyzeResponse
// @Failure      400  {object}  map[string]string
// @Failure      413  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Security     ApiKeyAuth
// @Security     BearerAuth
// @Router       /analyze/upload [post]
func (h *Handler) analyzeUpload(w http.ResponseWriter, r *http.Request) {
	started := h.now()

	if h.analyzer == nil {
		writeError(w, http.StatusServiceUnavailable, "analyzer is not configured")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file upload: "+err.Error())
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading upload: "+err.Error())
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	result, err := h.analyzer.AnalyzeImage(r.Context(), data, contentType)
	h.recordAudit(r, "analyze.upload", "", started, err)
	if err != nil {
		writeAnalyzerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		FocusScore:     result.FocusScore,
		Confidence:     result.Confidence,
		ProcessingTime: result.ProcessingTime,
		Timestamp:      h.now().UTC().Format(time.RFC3339),
	})
}

// writeAnalyzerError maps analyzer errors to HTTP status codes. Upstream
// model failures surface as 502.
func writeAnalyzerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, analyzer.ErrEmptyImage), errors.Is(err, analyzer.ErrInvalidImageType):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, analyzer.ErrImageTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

// analyzeHealth handles GET /api/v1/analyze/health.
//
// @Summary      Analyzer health
// @Tags         Analyze
// @Produce      json
// @Success      200  {object}  analyzeHealthResponse
// @Router       /analyze/health [get]
func (h *Handler) analyzeHealth(w http.ResponseWriter, _ *http.Request) {
	resp := analyzeHealthResponse{
		Status:    "ok",
		Enabled:   h.analyzer != nil,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	}
	if h.analyzer != nil {
		resp.Model = h.analyzer.Model()
	}
	writeJSON(w, http.StatusOK, resp)
}

// analyzeHealthDetail handles GET /api/v1/analyze/health/detail.
//
// @Summary      Detailed analyzer health
// @Description  Probes connectivity to the vision model API.
// @Tags         Analyze
// @Produce      json
// @Success      200  {object}  analyzeHealthDetailResponse
// @Failure      503  {object}  map[string]string
// @Router       /analyze/health/detail [get]
func (h *Handler) analyzeHealthDetail(w http.ResponseWriter, r *http.Request) {
	if h.analyzer == nil {
		writeError(w, http.StatusServiceUnavailable, "analyzer is not configured")
		return
	}

	resp := analyzeHealthDetailResponse{
		Status:        "healthy",
		OpenAIAPI:     "connected",
		Model:         h.analyzer.Model(),
		MaxFileSizeMB: h.analyzer.MaxFileSizeMB(),
		Timestamp:     h.now().UTC().Format(time.RFC3339),
	}
	if err := h.analyzer.Ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.OpenAIAPI = "error: " + err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
