package handler

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"sentiscope/internal/csvexport"
	"sentiscope/internal/export"
	"sentiscope/internal/report"
)

// AnalysisHandler handles submit, reset and report endpoints.
type AnalysisHandler struct {
	sessions SessionRegistry
	locale   string
}

// NewAnalysisHandler creates a new AnalysisHandler. locale selects the
// timestamp format of report views.
func NewAnalysisHandler(sessions SessionRegistry, locale string) *AnalysisHandler {
	return &AnalysisHandler{sessions: sessions, locale: locale}
}

// AnalyzeRequest is the body of POST /api/v1/sessions/:id/analyze.
type AnalyzeRequest struct {
	SearchKeyword string `json:"search_keyword"`
}

// Analyze handles POST /api/v1/sessions/:id/analyze
// The attempt runs in the background; progress is observed via GET on the
// session or the stream endpoint.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}

	var req AnalyzeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "body must be JSON with an optional search_keyword")
			return
		}
	}

	if _, err := s.Start(req.SearchKeyword); err != nil {
		HandleError(c, err)
		return
	}
	log.Printf("analysisHandler.Analyze: session %s started", s.ID)
	RespondAccepted(c, s.Snapshot())
}

// Reset handles POST /api/v1/sessions/:id/reset
func (h *AnalysisHandler) Reset(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}
	if err := s.Reset(c.Request.Context()); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, s.Snapshot())
}

// Report handles GET /api/v1/sessions/:id/report
func (h *AnalysisHandler) Report(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}
	r, err := s.Report()
	if err != nil {
		HandleError(c, err)
		return
	}
	locale := c.DefaultQuery("locale", h.locale)
	RespondOK(c, report.BuildView(r, locale))
}

// Export handles GET /api/v1/sessions/:id/report/export
// The workbook is the default; ?format=csv downloads the posts as CSV.
func (h *AnalysisHandler) Export(c *gin.Context) {
	s, ok := lookupSession(c, h.sessions)
	if !ok {
		return
	}
	r, err := s.Report()
	if err != nil {
		HandleError(c, err)
		return
	}

	write, contentType, filename := export.Write, export.ContentType, export.BuildFilename(r, time.Now())
	switch strings.ToLower(c.DefaultQuery("format", "xlsx")) {
	case "xlsx":
	case "csv":
		write, contentType, filename = csvexport.Write, csvexport.ContentType, csvexport.BuildFilename(r, time.Now())
	default:
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be xlsx or csv")
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, r); err != nil {
		HandleError(c, fmt.Errorf("exporting report %s: %w", r.AnalysisID, err))
		return
	}

	fallback := "report" + filepath.Ext(filename)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q; filename*=UTF-8''%s`, fallback, url.PathEscape(filename)))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
