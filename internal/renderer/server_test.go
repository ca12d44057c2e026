package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neron/internal/bridge"
	"neron/internal/graph"
	"neron/internal/theme"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, *bridge.StreamConn) {
	t.Helper()
	hostSide, rendSide := bridge.Pipe()
	t.Cleanup(func() {
		_ = hostSide.Close()
		_ = rendSide.Close()
	})
	return New(rendSide, Options{Page: []byte("<html>viewer</html>")}), hostSide
}

func recv(t *testing.T, conn *bridge.StreamConn) bridge.Inbound {
	t.Helper()
	select {
	case data, ok := <-conn.Messages():
		require.True(t, ok)
		msg, err := bridge.DecodeInbound(data)
		require.NoError(t, err)
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for renderer message")
	}
	return nil
}

func loadDemo(s *Server) graph.GraphData {
	data := graph.Transform(graph.DemoDataset(), theme.MustGet(theme.Matrix))
	s.Apply(bridge.LoadGraphData{Data: data, Theme: theme.Matrix})
	return data
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func TestRunHandshake(t *testing.T) {
	s, host := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Equal(t, bridge.InitializationComplete{}, recv(t, host))
	logMsg, ok := recv(t, host).(bridge.Log)
	require.True(t, ok)
	assert.Contains(t, logMsg.Message, "http://127.0.0.1:")
	assert.Equal(t, bridge.RequestGraphData{}, recv(t, host))
	assert.NotEmpty(t, s.URL())

	th := theme.MustGet(theme.Regular)
	payload, err := bridge.Encode(bridge.LoadGraphData{Data: graph.Transform(graph.DemoDataset(), th), Theme: th.Name})
	require.NoError(t, err)
	require.NoError(t, host.Send(payload))

	require.Eventually(t, func() bool { return s.Snapshot().HasData }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, theme.Regular, s.Snapshot().Theme)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestRunListenFailure(t *testing.T) {
	hostSide, rendSide := bridge.Pipe()
	defer hostSide.Close()
	defer rendSide.Close()
	s := New(rendSide, Options{Addr: "256.0.0.1:99999"})

	go func() { _ = s.Run(context.Background()) }()
	failed, ok := recv(t, hostSide).(bridge.InitializationFailed)
	require.True(t, ok)
	assert.Contains(t, failed.Error, "listen")
}

func TestPage(t *testing.T) {
	s, _ := newTestServer(t)
	rr := do(t, s, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "viewer")
}

func TestGraphSnapshot(t *testing.T) {
	s, _ := newTestServer(t)

	rr := do(t, s, http.MethodGet, "/api/graph", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var empty Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &empty))
	assert.False(t, empty.HasData)
	assert.Equal(t, theme.Matrix, empty.Theme)
	assert.Equal(t, 1.5, empty.Render.BloomStrength)

	loadDemo(s)
	rr = do(t, s, http.MethodGet, "/api/graph", nil)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.True(t, snap.HasData)
	assert.Equal(t, 1, snap.Version)
	assert.Len(t, snap.Data.Nodes, 4)
	assert.Equal(t, s.ID(), snap.ID)
}

func TestUpdateThemeRecolors(t *testing.T) {
	s, _ := newTestServer(t)
	loadDemo(s)

	s.Apply(bridge.UpdateTheme{Theme: theme.Regular})
	snap := s.Snapshot()
	assert.Equal(t, theme.Regular, snap.Theme)
	assert.Equal(t, 2, snap.Version)
	assert.Equal(t, "#3b82f6", snap.Data.Nodes[0].Color)
	assert.Equal(t, "#1e293b", snap.Render.Background)
}

func TestUnknownThemeFallsBackToRegular(t *testing.T) {
	s, _ := newTestServer(t)
	s.Apply(bridge.UpdateTheme{Theme: "neon"})
	assert.Equal(t, theme.Regular, s.Snapshot().Theme)
}

func TestClickRelaysNode(t *testing.T) {
	s, host := newTestServer(t)
	loadDemo(s)

	rr := do(t, s, http.MethodPost, "/api/click", map[string]string{"id": "node3"})
	require.Equal(t, http.StatusOK, rr.Code)

	clicked, ok := recv(t, host).(bridge.NodeClicked)
	require.True(t, ok)
	assert.Equal(t, "node3", clicked.Node.Name)
	assert.Equal(t, 15, clicked.Node.Val)
	require.NotNil(t, clicked.AllData)
	assert.Len(t, clicked.AllData.Entities, 4)
	assert.Len(t, clicked.AllData.Relations, 3)
}

func TestClickErrors(t *testing.T) {
	s, _ := newTestServer(t)
	loadDemo(s)

	rr := do(t, s, http.MethodPost, "/api/click", map[string]string{"id": "missing"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, s, http.MethodPost, "/api/click", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRenderErrorAndLogRelay(t *testing.T) {
	s, host := newTestServer(t)

	rr := do(t, s, http.MethodPost, "/api/error", map[string]string{"error": "context lost"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, bridge.WebGLError{Error: "context lost"}, recv(t, host))

	rr = do(t, s, http.MethodPost, "/api/log", map[string]string{"message": "hello"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, bridge.Log{Message: "hello", Level: "info"}, recv(t, host))

	rr = do(t, s, http.MethodPost, "/api/log", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
