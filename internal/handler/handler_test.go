package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sentiscope/internal/domain"
	"sentiscope/internal/handler"
	"sentiscope/internal/port"
	"sentiscope/internal/session"
	"sentiscope/internal/workflow"
	"sentiscope/mocks"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func init() {
	gin.SetMode(gin.TestMode)
}

func newManager(t *testing.T, svc *mocks.MockAnalysisService) *session.Manager {
	t.Helper()
	m, err := session.NewManager(8, svc, nil, nil, workflow.WithStageDelay(0))
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func testContext(method, target string, body *bytes.Buffer, params gin.Params) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	if body == nil {
		body = &bytes.Buffer{}
	}
	c.Request, _ = http.NewRequest(method, target, body)
	c.Params = params
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) (handler.APIResponse, map[string]any) {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, _ := resp.Data.(map[string]any)
	return resp, data
}

func multipartBody(t *testing.T, field string, files map[string][]byte, order ...string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, name := range order {
		part, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, _ = part.Write(files[name])
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func idParam(id string) gin.Params {
	return gin.Params{{Key: "id", Value: id}}
}

func TestSessionHandler_Create(t *testing.T) {
	m := newManager(t, new(mocks.MockAnalysisService))
	h := handler.NewSessionHandler(m)

	c, w := testContext(http.MethodPost, "/api/v1/sessions", bytes.NewBufferString(`{"mode":"single"}`), nil)
	c.Request.Header.Set("Content-Type", "application/json")
	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	resp, data := decode(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "single", data["mode"])
	assert.Equal(t, float64(1), data["max_files"])
	assert.Equal(t, "idle", data["status"])
	assert.Equal(t, 1, m.Len())
}

func TestSessionHandler_CreateDefaultsToMulti(t *testing.T) {
	m := newManager(t, new(mocks.MockAnalysisService))
	h := handler.NewSessionHandler(m)

	c, w := testContext(http.MethodPost, "/api/v1/sessions", nil, nil)
	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	_, data := decode(t, w)
	assert.Equal(t, "multi", data["mode"])
	assert.Equal(t, float64(20), data["max_files"])
}

func TestSessionHandler_GetUnknown(t *testing.T) {
	h := handler.NewSessionHandler(newManager(t, new(mocks.MockAnalysisService)))

	c, w := testContext(http.MethodGet, "/api/v1/sessions/nope", nil, idParam("nope"))
	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp, _ := decode(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "SESSION_NOT_FOUND", resp.Error.Code)
}

func TestSessionHandler_AddFiles(t *testing.T) {
	m := newManager(t, new(mocks.MockAnalysisService))
	s := m.Create(domain.SelectionModeMulti)
	h := handler.NewSessionHandler(m)

	body, ct := multipartBody(t, "files", map[string][]byte{
		"a.png": pngHeader,
		"b.gif": []byte("GIF89a...."),
	}, "a.png", "b.gif")

	c, w := testContext(http.MethodPost, "/", body, idParam(s.ID))
	c.Request.Header.Set("Content-Type", ct)
	h.AddFiles(c)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	_, data := decode(t, w)
	assert.Len(t, data["accepted"], 1)
	rejected := data["rejected"].([]any)
	require.Len(t, rejected, 1)
	assert.Equal(t, "b.gif", rejected[0].(map[string]any)["name"])
	assert.Equal(t, "unsupported_type", rejected[0].(map[string]any)["reason"])
	notice := data["notice"].(map[string]any)
	assert.Equal(t, "partially_applied", notice["kind"])
	assert.Len(t, s.Snapshot().Selection, 1)
}

func TestSessionHandler_AddFilesMissingField(t *testing.T) {
	m := newManager(t, new(mocks.MockAnalysisService))
	s := m.Create(domain.SelectionModeMulti)
	h := handler.NewSessionHandler(m)

	body, ct := multipartBody(t, "other", map[string][]byte{"a.png": pngHeader}, "a.png")
	c, w := testContext(http.MethodPost, "/", body, idParam(s.ID))
	c.Request.Header.Set("Content-Type", ct)
	h.AddFiles(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp, _ := decode(t, w)
	assert.Equal(t, "MISSING_FILES", resp.Error.Code)
}

func TestSessionHandler_RemoveFile(t *testing.T) {
	m := newManager(t, new(mocks.MockAnalysisService))
	s := m.Create(domain.SelectionModeMulti)
	_, err := s.AddFiles(t.Context(), []domain.FileCandidate{
		domain.NewFileCandidate("a.png", domain.MimePNG, []byte("1")),
		domain.NewFileCandidate("b.png", domain.MimePNG, []byte("22")),
	})
	require.NoError(t, err)
	h := handler.NewSessionHandler(m)

	c, w := testContext(http.MethodDelete, "/", nil, gin.Params{{Key: "id", Value: s.ID}, {Key: "index", Value: "0"}})
	h.RemoveFile(c)
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, s.Snapshot().Selection, 1)
	assert.Equal(t, "b.png", s.Snapshot().Selection[0].File.Name)

	c, w = testContext(http.MethodDelete, "/", nil, gin.Params{{Key: "id", Value: s.ID}, {Key: "index", Value: "5"}})
	h.RemoveFile(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp, _ := decode(t, w)
	assert.Equal(t, "INDEX_OUT_OF_RANGE", resp.Error.Code)

	c, w = testContext(http.MethodDelete, "/", nil, gin.Params{{Key: "id", Value: s.ID}, {Key: "index", Value: "x"}})
	h.RemoveFile(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandler_ClearAndDelete(t *testing.T) {
	m := newManager(t, new(mocks.MockAnalysisService))
	s := m.Create(domain.SelectionModeMulti)
	_, err := s.AddFiles(t.Context(), []domain.FileCandidate{domain.NewFileCandidate("a.png", domain.MimePNG, []byte("1"))})
	require.NoError(t, err)
	h := handler.NewSessionHandler(m)

	c, w := testContext(http.MethodDelete, "/", nil, idParam(s.ID))
	h.ClearFiles(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, s.Snapshot().Selection)

	c, w = testContext(http.MethodDelete, "/", nil, idParam(s.ID))
	h.Delete(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, m.Len())
}

func TestAnalysisHandler_AnalyzeEmptySelection(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	m := newManager(t, svc)
	s := m.Create(domain.SelectionModeMulti)
	h := handler.NewAnalysisHandler(m, "zh-CN")

	c, w := testContext(http.MethodPost, "/", bytes.NewBufferString(`{"search_keyword":"coffee"}`), idParam(s.ID))
	c.Request.Header.Set("Content-Type", "application/json")
	h.Analyze(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp, _ := decode(t, w)
	assert.Equal(t, "SELECTION_REQUIRED", resp.Error.Code)
	assert.Equal(t, domain.StatusIdle, s.State().Status)
	svc.AssertNotCalled(t, "SubmitAnalysis", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalysisHandler_AnalyzeReportExportReset(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	m := newManager(t, svc)
	s := m.Create(domain.SelectionModeMulti)
	_, err := s.AddFiles(t.Context(), []domain.FileCandidate{domain.NewFileCandidate("a.png", domain.MimePNG, []byte("1"))})
	require.NoError(t, err)
	h := handler.NewAnalysisHandler(m, "zh-CN")

	kw := "coffee"
	report := &domain.Report{
		AnalysisID:            "a1b2c3d4",
		SearchKeyword:         &kw,
		TotalPosts:            2,
		SentimentDistribution: domain.SentimentDistribution{PositiveCount: 1, NegativeCount: 1},
		Posts: []domain.PostInfo{
			{Title: "p1", Sentiment: domain.SentimentPositive},
			{Title: "p2", Sentiment: domain.SentimentNegative},
		},
		CreatedAt: "2024-01-15T14:30:05",
	}
	svc.On("SubmitAnalysis", mock.Anything, mock.Anything, "coffee").Return(port.Success(report))

	// Report before completion
	c, w := testContext(http.MethodGet, "/", nil, idParam(s.ID))
	h.Report(c)
	assert.Equal(t, http.StatusConflict, w.Code)

	c, w = testContext(http.MethodPost, "/", bytes.NewBufferString(`{"search_keyword":" coffee "}`), idParam(s.ID))
	c.Request.Header.Set("Content-Type", "application/json")
	h.Analyze(c)
	require.Equal(t, http.StatusAccepted, w.Code)

	require.Eventually(t, func() bool {
		return s.State().Status == domain.StatusComplete
	}, 2*time.Second, 10*time.Millisecond)

	// A second submit needs a reset first
	c, w = testContext(http.MethodPost, "/", nil, idParam(s.ID))
	h.Analyze(c)
	assert.Equal(t, http.StatusConflict, w.Code)
	resp, _ := decode(t, w)
	assert.Equal(t, "RESET_REQUIRED", resp.Error.Code)

	c, w = testContext(http.MethodGet, "/?locale=en-US", nil, idParam(s.ID))
	h.Report(c)
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decode(t, w)
	assert.Equal(t, "1/15/2024, 2:30:05 PM", data["created_at_display"])
	slices := data["slices"].([]any)
	require.Len(t, slices, 3)
	assert.Equal(t, 0.5, slices[0].(map[string]any)["ratio"])

	c, w = testContext(http.MethodGet, "/", nil, idParam(s.ID))
	h.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "report_coffee_a1b2c3d4_")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))

	c, w = testContext(http.MethodGet, "/?format=csv", nil, idParam(s.ID))
	h.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="report.csv"`)
	assert.Contains(t, w.Body.String(), "p1")

	c, w = testContext(http.MethodGet, "/?format=pdf", nil, idParam(s.ID))
	h.Export(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = testContext(http.MethodPost, "/", nil, idParam(s.ID))
	h.Reset(c)
	assert.Equal(t, http.StatusOK, w.Code)
	_, data = decode(t, w)
	assert.Equal(t, "idle", data["status"])
	assert.Empty(t, data["selection"])
}

func TestAnalysisHandler_AnalyzeWhileBusy(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	m := newManager(t, svc)
	s := m.Create(domain.SelectionModeMulti)
	_, err := s.AddFiles(t.Context(), []domain.FileCandidate{domain.NewFileCandidate("a.png", domain.MimePNG, []byte("1"))})
	require.NoError(t, err)
	h := handler.NewAnalysisHandler(m, "")

	release := make(chan struct{})
	svc.On("SubmitAnalysis", mock.Anything, mock.Anything, "").
		Run(func(mock.Arguments) { <-release }).
		Return(port.ApplicationFailure("quota exceeded"))

	c, w := testContext(http.MethodPost, "/", nil, idParam(s.ID))
	h.Analyze(c)
	require.Equal(t, http.StatusAccepted, w.Code)

	for _, call := range []func(*gin.Context){h.Analyze, h.Reset} {
		c, w = testContext(http.MethodPost, "/", nil, idParam(s.ID))
		call(c)
		assert.Equal(t, http.StatusConflict, w.Code)
		resp, _ := decode(t, w)
		assert.Equal(t, "WORKFLOW_BUSY", resp.Error.Code)
	}

	close(release)
	require.Eventually(t, func() bool {
		return s.State().Status == domain.StatusError
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "quota exceeded", s.State().Message)
}

func TestAnalysisHandler_InvalidBody(t *testing.T) {
	m := newManager(t, new(mocks.MockAnalysisService))
	s := m.Create(domain.SelectionModeMulti)
	h := handler.NewAnalysisHandler(m, "")

	c, w := testContext(http.MethodPost, "/", bytes.NewBufferString(`{bad`), idParam(s.ID))
	c.Request.Header.Set("Content-Type", "application/json")
	h.Analyze(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthHandler(t *testing.T) {
	svc := new(mocks.MockAnalysisService)
	h := handler.NewHealthHandler(svc)

	c, w := testContext(http.MethodGet, "/healthz", nil, nil)
	h.Liveness(c)
	assert.Equal(t, http.StatusOK, w.Code)

	svc.On("CheckAvailability", mock.Anything).Return(true).Once()
	c, w = testContext(http.MethodGet, "/readyz", nil, nil)
	h.Readiness(c)
	assert.Equal(t, http.StatusOK, w.Code)

	svc.On("CheckAvailability", mock.Anything).Return(false).Once()
	c, w = testContext(http.MethodGet, "/readyz", nil, nil)
	h.Readiness(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "unavailable"))
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrSessionNotFound, http.StatusNotFound, "SESSION_NOT_FOUND"},
		{domain.ErrSessionClosed, http.StatusGone, "SESSION_CLOSED"},
		{fmt.Errorf("remove: %w", domain.ErrIndexOutOfRange), http.StatusBadRequest, "INDEX_OUT_OF_RANGE"},
		{domain.ErrSelectionRequired, http.StatusBadRequest, "SELECTION_REQUIRED"},
		{domain.ErrWorkflowBusy, http.StatusConflict, "WORKFLOW_BUSY"},
		{domain.ErrReportNotReady, http.StatusConflict, "REPORT_NOT_READY"},
		{domain.ErrServiceUnavailable, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		status, code, msg := handler.MapDomainError(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, code)
		assert.NotEmpty(t, msg)
	}
}
