package router_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sentiscope/internal/domain"
	"sentiscope/internal/handler"
	"sentiscope/internal/port"
	"sentiscope/internal/preview"
	"sentiscope/internal/router"
	"sentiscope/internal/session"
	"sentiscope/internal/storage/memory"
	"sentiscope/internal/workflow"
	"sentiscope/mocks"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type testServer struct {
	*httptest.Server
	svc     *mocks.MockAnalysisService
	objects *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := new(mocks.MockAnalysisService)
	objects := memory.NewStore("")
	previews := preview.NewProvider(objects, "previews", time.Hour)
	sessions, err := session.NewManager(8, svc, previews, nil, workflow.WithStageDelay(10*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(sessions.Close)

	r := router.Setup(router.Handlers{
		Health:   handler.NewHealthHandler(svc),
		Session:  handler.NewSessionHandler(sessions),
		Analysis: handler.NewAnalysisHandler(sessions, "en-US"),
		Stream:   handler.NewStreamHandler(sessions, nil),
	}, nil)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, svc: svc, objects: objects}
}

func (s *testServer) do(t *testing.T, method, path string, body *bytes.Buffer, contentType string) (int, map[string]any) {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req, err := http.NewRequest(method, s.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var out handler.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	data, _ := out.Data.(map[string]any)
	return resp.StatusCode, data
}

func uploadBody(t *testing.T, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, n := range names {
		part, err := mw.CreateFormFile("files", n)
		require.NoError(t, err)
		_, _ = part.Write(append(append([]byte{}, pngHeader...), []byte(n)...))
	}
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestRouter_FullFlowWithStream(t *testing.T) {
	srv := newTestServer(t)
	srv.svc.On("SubmitAnalysis", mock.Anything, mock.Anything, "coffee").
		Return(port.Success(&domain.Report{AnalysisID: "a1b2c3d4", TotalPosts: 0, CreatedAt: "2024-01-15T14:30:05"}))

	status, data := srv.do(t, http.MethodPost, "/api/v1/sessions", nil, "")
	require.Equal(t, http.StatusCreated, status)
	id := data["id"].(string)

	body, ct := uploadBody(t, "a.png", "b.png")
	status, data = srv.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/files", body, ct)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, data["accepted"], 2)
	assert.Equal(t, 2, srv.objects.Len())

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/sessions/" + id + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first handler.StreamEvent
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "state", first.Type)
	assert.Equal(t, domain.StatusIdle, first.State.Status)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	var pong handler.StreamEvent
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, "pong", pong.Type)

	status, _ = srv.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/analyze",
		bytes.NewBufferString(`{"search_keyword":"coffee"}`), "application/json")
	require.Equal(t, http.StatusAccepted, status)

	var seen []domain.AnalysisStatus
	for {
		var ev handler.StreamEvent
		require.NoError(t, conn.ReadJSON(&ev))
		if ev.Type != "state" {
			continue
		}
		seen = append(seen, ev.State.Status)
		if ev.State.Status == domain.StatusComplete {
			break
		}
	}
	assert.Equal(t, []domain.AnalysisStatus{domain.StatusUploading, domain.StatusAnalyzing, domain.StatusComplete}, seen)

	status, data = srv.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/report", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "1/15/2024, 2:30:05 PM", data["created_at_display"])

	status, _ = srv.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/reset", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Zero(t, srv.objects.Len())

	status, _ = srv.do(t, http.MethodDelete, "/api/v1/sessions/"+id, nil, "")
	require.Equal(t, http.StatusOK, status)

	status, _ = srv.do(t, http.MethodGet, "/api/v1/sessions/"+id, nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRouter_StreamUnknownSession(t *testing.T) {
	srv := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/sessions/missing/stream"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_Health(t *testing.T) {
	srv := newTestServer(t)
	srv.svc.On("CheckAvailability", mock.Anything).Return(true)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
