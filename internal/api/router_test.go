package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/themecast/backend/internal/api/handlers"
	"github.com/wonny/themecast/backend/internal/contracts"
	"github.com/wonny/themecast/backend/pkg/database"
	"github.com/wonny/themecast/backend/pkg/logger"
)

var kst = time.FixedZone("KST", 9*60*60)

type fakeReporter struct {
	report contracts.AccuracyReport
	err    error
}

func (f *fakeReporter) Report(context.Context) (contracts.AccuracyReport, error) {
	return f.report, f.err
}

type fakeLister struct {
	preds  []contracts.Prediction
	err    error
	filter contracts.PredictionFilter
	limit  int
}

func (f *fakeLister) ListRecent(_ context.Context, filter contracts.PredictionFilter, limit int) ([]contracts.Prediction, error) {
	f.filter = filter
	f.limit = limit
	return f.preds, f.err
}

type fakeDB struct {
	status database.HealthStatus
}

func (f fakeDB) HealthCheck(context.Context) database.HealthStatus { return f.status }

func newTestRouter(rep *fakeReporter, lst *fakeLister, db handlers.HealthChecker) http.Handler {
	return NewRouter(
		handlers.NewHealthHandler(db),
		handlers.NewBacktestHandler(rep, lst, kst, zerolog.Nop()),
		logger.Nop(),
	)
}

func do(t *testing.T, h http.Handler, method, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		db         handlers.HealthChecker
		wantCode   int
		wantStatus string
	}{
		{"no database", nil, http.StatusOK, "ok"},
		{"healthy", fakeDB{database.HealthStatus{Healthy: true}}, http.StatusOK, "ok"},
		{"unhealthy", fakeDB{database.HealthStatus{Error: "refused"}}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, newTestRouter(&fakeReporter{}, &fakeLister{}, tt.db), "GET", "/health")
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantStatus, body["status"])
		})
	}
}

func TestGetAccuracy(t *testing.T) {
	rep := &fakeReporter{report: contracts.AccuracyReport{
		Overall:      contracts.AccuracyGroup{Total: 4, Hit: 3, Accuracy: 75},
		ByConfidence: map[string]contracts.AccuracyGroup{"high": {Total: 4, Hit: 3, Accuracy: 75}},
		ByCategory:   map[string]contracts.AccuracyGroup{"today": {Total: 4, Hit: 3, Accuracy: 75}},
	}}

	rec, body := do(t, newTestRouter(rep, &fakeLister{}, nil), "GET", "/api/backtest/accuracy")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	overall := body["overall"].(map[string]interface{})
	assert.Equal(t, 75.0, overall["accuracy"])
}

func TestGetAccuracy_Error(t *testing.T) {
	rec, body := do(t, newTestRouter(&fakeReporter{err: errors.New("db down")}, &fakeLister{}, nil), "GET", "/api/backtest/accuracy")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, body["error"])
}

func TestListPredictions(t *testing.T) {
	lst := &fakeLister{preds: []contracts.Prediction{{ID: 1, ThemeName: "반도체", Status: contracts.StatusHit}}}

	rec, body := do(t, newTestRouter(&fakeReporter{}, lst, nil), "GET", "/api/backtest/predictions?status=hit,missed&date=2026-03-02&limit=10")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1.0, body["count"])

	assert.Equal(t, []contracts.Status{contracts.StatusHit, contracts.StatusMissed}, lst.filter.Statuses)
	require.NotNil(t, lst.filter.PredictionDate)
	assert.Equal(t, "2026-03-02", lst.filter.PredictionDate.Format(contracts.DateLayout))
	assert.Equal(t, 10, lst.limit)
}

func TestListPredictions_Defaults(t *testing.T) {
	lst := &fakeLister{}
	rec, _ := do(t, newTestRouter(&fakeReporter{}, lst, nil), "GET", "/api/backtest/predictions?limit=100000")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Empty(t, lst.filter.Statuses)
	assert.Nil(t, lst.filter.PredictionDate)
	assert.Equal(t, 500, lst.limit)
}

func TestListPredictions_BadInput(t *testing.T) {
	targets := []string{
		"/api/backtest/predictions?status=pending",
		"/api/backtest/predictions?date=03/02/2026",
		"/api/backtest/predictions?limit=-1",
		"/api/backtest/predictions?limit=abc",
	}

	for _, target := range targets {
		t.Run(target, func(t *testing.T) {
			rec, body := do(t, newTestRouter(&fakeReporter{}, &fakeLister{}, nil), "GET", target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec, body := do(t, h, "GET", "/x")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", body["error"])
}
