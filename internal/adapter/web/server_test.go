package web_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/joseon-weather-bot/internal/adapter/web"
	"github.com/couchcryptid/joseon-weather-bot/internal/bot"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockPreviewer struct {
	lastOpts bot.RunOptions
	result   bot.RunResult
	err      error
}

func (m *mockPreviewer) RunOnce(_ context.Context, opts bot.RunOptions) (bot.RunResult, error) {
	m.lastOpts = opts
	return m.result, m.err
}

func newTestServer(readyErr error, previewer *mockPreviewer) *web.Server {
	if previewer == nil {
		previewer = &mockPreviewer{}
	}
	return web.NewServer(":0", &mockReadiness{err: readyErr}, previewer, slog.Default())
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("no run completed"), nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "no run completed", body["error"])
}

func TestPreview(t *testing.T) {
	t.Run("returns the composed text as dry run", func(t *testing.T) {
		previewer := &mockPreviewer{result: bot.RunResult{Text: "2026-09-01 서울\n오늘(예상 평균): 24.0℃"}}
		srv := newTestServer(nil, previewer)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/preview?place=부산&date=2026-09-01&tag=아침", nil)

		srv.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, previewer.lastOpts.DryRun)
		assert.Equal(t, "부산", previewer.lastOpts.Place)
		assert.Equal(t, "아침", previewer.lastOpts.Tag)
		assert.Equal(t, "2026-09-01", previewer.lastOpts.Date.Format("2006-01-02"))

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, body["text"], "2026-09-01 서울")
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		srv := newTestServer(nil, nil)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/preview?date=20260901", nil)

		srv.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("run failure maps to 502", func(t *testing.T) {
		previewer := &mockPreviewer{err: fmt.Errorf("geocoding failed")}
		srv := newTestServer(nil, previewer)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/preview", nil)

		srv.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadGateway, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "geocoding failed", body["error"])
	})
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
