// FILE: internal/http/http_test.go
package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repertoire/internal/core"
	"repertoire/internal/metrics"
	"repertoire/internal/processor"
	"repertoire/internal/service"
	"repertoire/internal/storage"
)

type testServer struct {
	app *fiber.App
	svc *service.Service
}

func newTestServer(t *testing.T, cfg service.Config) *testServer {
	t.Helper()
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	svc, err := service.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Shutdown(time.Second) })

	app := NewFiberApp(processor.New(svc), svc, cfg.Metrics, true, nil)
	return &testServer{app: app, svc: svc}
}

func (s *testServer) do(t *testing.T, method, target string, body any, headers ...string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, service.Config{})
	resp, body := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	health := decode[map[string]any](t, body)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "disabled", health["storage"])
	assert.Equal(t, false, health["auth"])
}

func TestAddMoveAndPosition(t *testing.T) {
	s := newTestServer(t, service.Config{})

	resp, body := s.do(t, http.MethodPost, "/api/v1/repertoires/white/moves", core.MoveRequest{FEN: "start", SAN: "e4"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
	assert.Equal(t, core.ErrInvalidFEN, decode[core.ErrorResponse](t, body).Code)

	root := decode[core.PositionResponse](t, func() []byte {
		_, b := s.do(t, http.MethodGet, "/api/v1/repertoires/white/positions", nil)
		return b
	}())
	assert.True(t, root.Known)
	assert.Empty(t, root.Moves)

	resp, body = s.do(t, http.MethodPost, "/api/v1/repertoires/white/moves", core.MoveRequest{FEN: root.FEN, SAN: "e4"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	added := decode[core.AddMoveResponse](t, body)
	assert.True(t, added.Added)
	assert.Equal(t, "e4", added.SAN)
	assert.Equal(t, uint64(1), added.Revision)

	resp, body = s.do(t, http.MethodPost, "/api/v1/repertoires/white/moves", core.MoveRequest{FEN: root.FEN, SAN: "e4"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[core.AddMoveResponse](t, body).Added)

	_, body = s.do(t, http.MethodGet, "/api/v1/repertoires/white/positions", nil)
	pos := decode[core.PositionResponse](t, body)
	require.Len(t, pos.Moves, 1)
	assert.Equal(t, "e4", pos.Moves[0].SAN)
	assert.Equal(t, added.FEN, pos.Moves[0].FEN)
	assert.Equal(t, "white", pos.Turn)
	assert.NotEmpty(t, pos.Board)

	resp, body = s.do(t, http.MethodPost, "/api/v1/repertoires/white/moves", core.MoveRequest{FEN: added.FEN, SAN: "e4"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, core.ErrInvalidMove, decode[core.ErrorResponse](t, body).Code)
}

func TestRequestValidation(t *testing.T) {
	s := newTestServer(t, service.Config{})

	resp, body := s.do(t, http.MethodPost, "/api/v1/repertoires/white/moves", map[string]string{"fen": "x"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errResp := decode[core.ErrorResponse](t, body)
	assert.Equal(t, "validation failed", errResp.Error)
	assert.Contains(t, errResp.Details, "SAN is required")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/repertoires/white/pgn", bytes.NewBufferString("1. e4 *"))
	req.Header.Set("Content-Type", "text/plain")
	r, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnsupportedMediaType, r.StatusCode)

	resp, body = s.do(t, http.MethodPost, "/api/v1/training/sessions", core.SessionRequest{Modes: []string{"weekly"}})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[core.ErrorResponse](t, body).Details, "must be one of")

	resp, _ = s.do(t, http.MethodGet, "/api/v1/repertoires/purple", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/api/v1/repertoires/white/wait?revision=-1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteMove(t *testing.T) {
	s := newTestServer(t, service.Config{})
	_, body := s.do(t, http.MethodPost, "/api/v1/repertoires/black/moves", core.MoveRequest{FEN: "", SAN: "d4"})

	resp, _ := s.do(t, http.MethodDelete, "/api/v1/repertoires/black/moves?san=e4", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = s.do(t, http.MethodDelete, "/api/v1/repertoires/black/moves?san=d4", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	deleted := decode[core.DeleteMoveResponse](t, body)
	assert.Equal(t, "d4", deleted.SAN)
	assert.Len(t, deleted.Removed, 1)

	resp, _ = s.do(t, http.MethodDelete, "/api/v1/repertoires/black/moves", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPGNRoundTrip(t *testing.T) {
	s := newTestServer(t, service.Config{})

	resp, body := s.do(t, http.MethodPost, "/api/v1/repertoires/white/pgn", core.ImportPGNRequest{PGN: "1. e4 e5 (1... c5 2. Nf3) 2. Nf3 *"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	imported := decode[core.ImportResponse](t, body)
	assert.Equal(t, 1, imported.Games)
	assert.Equal(t, 5, imported.Moves)

	resp, body = s.do(t, http.MethodGet, "/api/v1/repertoires/white/pgn", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, pgnContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), "1. e4")
	assert.Contains(t, string(body), "c5")

	_, body = s.do(t, http.MethodGet, "/api/v1/repertoires/white/variations", nil)
	assert.Len(t, decode[core.VariationsResponse](t, body).Variations, 2)

	resp, body = s.do(t, http.MethodPost, "/api/v1/repertoires/white/pgn", core.ImportPGNRequest{PGN: "1. e4 {unterminated"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, core.ErrInvalidPGN, decode[core.ErrorResponse](t, body).Code)
}

func TestTagsEndpoints(t *testing.T) {
	s := newTestServer(t, service.Config{})
	_, body := s.do(t, http.MethodPost, "/api/v1/repertoires/white/moves", core.MoveRequest{FEN: "", SAN: "e4"})
	after := decode[core.AddMoveResponse](t, body)

	tag := core.TagRequest{Name: "Open", FEN: after.FEN}
	resp, body := s.do(t, http.MethodPost, "/api/v1/repertoires/white/tags", tag)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, _ = s.do(t, http.MethodPost, "/api/v1/repertoires/white/tags", tag)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = s.do(t, http.MethodPost, "/api/v1/repertoires/white/tags", core.TagRequest{Name: "a/b", FEN: after.FEN})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, body = s.do(t, http.MethodGet, "/api/v1/repertoires/white/tags", nil)
	listed := decode[core.TagsResponse](t, body)
	require.Len(t, listed.Tags, 1)
	assert.Equal(t, "Open", listed.Tags[0].Path)

	resp, body = s.do(t, http.MethodDelete, "/api/v1/repertoires/white/tags?path=Open", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[core.TagsResponse](t, body).Tags)

	resp, _ = s.do(t, http.MethodDelete, "/api/v1/repertoires/white/tags?path=Open", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTrainingEndpoints(t *testing.T) {
	s := newTestServer(t, service.Config{})
	_, body := s.do(t, http.MethodPost, "/api/v1/repertoires/white/moves", core.MoveRequest{FEN: "", SAN: "e4"})
	added := decode[core.AddMoveResponse](t, body)

	resp, body := s.do(t, http.MethodPost, "/api/v1/training/sessions", core.SessionRequest{
		Sides: []string{"white"},
		Modes: []string{"new"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	session := decode[core.SessionResponse](t, body)
	assert.NotEmpty(t, session.SessionID)
	require.Len(t, session.Drills, 1)

	resp, body = s.do(t, http.MethodPost, "/api/v1/training/events", core.TrainingEventRequest{
		SessionID:           session.SessionID,
		Side:                "white",
		FEN:                 added.From,
		SAN:                 "e4",
		Attempts:            1,
		ElapsedMilliseconds: 1500,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	event := decode[core.TrainingEventResponse](t, body)
	assert.Len(t, event.Record.History, 1)
	assert.NotEmpty(t, event.Grade)

	resp, body = s.do(t, http.MethodPost, "/api/v1/training/events", core.TrainingEventRequest{
		Side: "white",
		FEN:  added.From,
		SAN:  "e4",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
	assert.Equal(t, core.ErrInvalidRequest, decode[core.ErrorResponse](t, body).Code)

	_, body = s.do(t, http.MethodGet, "/api/v1/repertoires/white/records?san=e4", nil)
	record := decode[core.RecordResponse](t, body)
	assert.Len(t, record.Record.History, 1)
}

func TestWaitReturnsOnStaleRevision(t *testing.T) {
	s := newTestServer(t, service.Config{})
	s.do(t, http.MethodPost, "/api/v1/repertoires/white/moves", core.MoveRequest{FEN: "", SAN: "e4"})

	resp, body := s.do(t, http.MethodGet, "/api/v1/repertoires/white/wait?revision=0", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	wait := decode[core.WaitResponse](t, body)
	assert.True(t, wait.Changed)
	assert.Equal(t, uint64(1), wait.Revision)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, service.Config{})
	s.do(t, http.MethodPost, "/api/v1/repertoires/white/moves", core.MoveRequest{FEN: "", SAN: "e4"})

	resp, body := s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "repertoire_moves_added_total 1")
}

func TestAuthenticatedAPI(t *testing.T) {
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "http.db"), false, nil)
	require.NoError(t, err)
	require.NoError(t, store.InitDB())

	s := newTestServer(t, service.Config{
		Store:  store,
		Secret: []byte("0123456789abcdef0123456789abcdef"),
	})
	_, err = s.svc.CreateUser("coach", "s3cret")
	require.NoError(t, err)

	resp, body := s.do(t, http.MethodGet, "/api/v1/repertoires", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, core.ErrUnauthorized, decode[core.ErrorResponse](t, body).Code)

	resp, _ = s.do(t, http.MethodPost, "/api/v1/auth/login", core.LoginRequest{Username: "coach", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = s.do(t, http.MethodPost, "/api/v1/auth/login", core.LoginRequest{Username: "coach", Password: "s3cret"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	auth := decode[core.AuthResponse](t, body)
	require.NotEmpty(t, auth.Token)

	resp, body = s.do(t, http.MethodGet, "/api/v1/repertoires", nil, "Authorization", "Bearer "+auth.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Len(t, decode[[]core.RepertoireResponse](t, body), 2)

	resp, _ = s.do(t, http.MethodGet, "/api/v1/repertoires", nil, "Authorization", "Bearer "+auth.Token+"x")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginDisabledWithoutSecret(t *testing.T) {
	s := newTestServer(t, service.Config{})
	resp, _ := s.do(t, http.MethodPost, "/api/v1/auth/login", core.LoginRequest{Username: "a", Password: "b"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExtractBearerToken(t *testing.T) {
	assert.Equal(t, "abc", extractBearerToken("Bearer abc"))
	assert.Equal(t, "abc", extractBearerToken("bearer abc "))
	assert.Empty(t, extractBearerToken("Basic abc"))
	assert.Empty(t, extractBearerToken(""))
}
