package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mazesync/protocol"
)

func newAdminMux(s *Server) *http.ServeMux {
	mux := http.NewServeMux()
	s.Routes(mux)
	return mux
}

func TestAdmin_Maze(t *testing.T) {
	s := newTestServer(t)
	mux := newAdminMux(s)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/maze", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got mazeExport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 5, got.Width)
	assert.Equal(t, 5, got.Height)
	assert.Equal(t, s.Maze().Export(), got.Cells)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/admin/maze", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestAdmin_ConfigThenRegenerate(t *testing.T) {
	s := newTestServer(t)
	_, aliceT := addMember(t, s, "alice")
	mux := newAdminMux(s)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/config", bytes.NewBufferString(`{"mazeWidth":10}`)))
	require.Equal(t, http.StatusOK, w.Code)
	width, height := s.MazeSize()
	assert.Equal(t, 10, width)
	assert.Equal(t, 5, height)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/maze", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got mazeExport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 11, got.Width)
	assert.Equal(t, []protocol.Type{protocol.TypeMaze}, aliceT.types(t))

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/config", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"mazeWidth":10,"mazeHeight":5,"tickRate":20}`, w.Body.String())
}

func TestAdmin_ConfigInvalid(t *testing.T) {
	s := newTestServer(t)
	mux := newAdminMux(s)

	for _, body := range []string{`not json`, `{"mazeHeight":0}`, `{"tickRate":30}`, `{"mazeWidth":100000,"mazeHeight":100000}`} {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/config", bytes.NewBufferString(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	width, height := s.MazeSize()
	assert.Equal(t, 5, width)
	assert.Equal(t, 5, height)
}

func TestAdmin_MazePNG(t *testing.T) {
	s := newTestServer(t)
	mux := newAdminMux(s)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/maze.png?size=40", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	assert.LessOrEqual(t, img.Bounds().Dx(), 40)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/maze.png?size=-1", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdmin_SessionsAndMetrics(t *testing.T) {
	s := newTestServer(t)
	mux := newAdminMux(s)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/sessions", nil))
	assert.JSONEq(t, `[]`, w.Body.String())

	bob, _ := addMember(t, s, "bob")
	bob.SetReady(true)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/sessions", nil))
	assert.JSONEq(t, `[{"name":"bob","position":{"x":0,"y":0},"isReady":true}]`, w.Body.String())

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var payload struct {
		Sessions int            `json:"sessions"`
		Metrics  map[string]any `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, 1, payload.Sessions)
	assert.Equal(t, float64(1), payload.Metrics["mazes_generated"])

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "ok", w.Body.String())
}
