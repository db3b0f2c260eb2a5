package httpadapter_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/fuel-price-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/fuel-price-etl/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRuns struct {
	err  error
	last *pipeline.RunStatus
}

func (m *mockRuns) CheckReadiness(_ context.Context) error { return m.err }

func (m *mockRuns) LastRun() *pipeline.RunStatus { return m.last }

func newTestServer(runs *mockRuns) *httpadapter.Server {
	return httpadapter.NewServer(":0", runs, slog.Default())
}

func serve(srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := serve(newTestServer(&mockRuns{}), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := serve(newTestServer(&mockRuns{}), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := serve(newTestServer(&mockRuns{err: fmt.Errorf("pipeline has not completed a run yet")}), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatusBeforeFirstRun(t *testing.T) {
	rec := serve(newTestServer(&mockRuns{}), "/status")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusReportsLastRun(t *testing.T) {
	finished := time.Date(2024, time.March, 2, 9, 31, 0, 0, time.UTC)
	runs := &mockRuns{last: &pipeline.RunStatus{
		RunID:       "3f1c",
		Stations:    9876,
		WindowStart: "2023-03-03",
		WindowEnd:   "2024-03-01",
		FinishedAt:  finished,
		Duration:    "1m2s",
	}}

	rec := serve(newTestServer(runs), "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got pipeline.RunStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, *runs.last, got)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(newTestServer(&mockRuns{}), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
