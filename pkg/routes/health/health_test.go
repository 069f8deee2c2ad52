package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping() error { return f.err }

func doHealth(t *testing.T, checker *Checker) (*httptest.ResponseRecorder, *Report) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, checker.Health(e.NewContext(req, rec)))

	var report Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	return rec, &report
}

func TestHealthWithoutDatabaseIsDegraded(t *testing.T) {
	checker := NewChecker(nil, nil, "test")

	rec, report := doHealth(t, checker)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", report.Status)
	require.Contains(t, report.Dependencies, "postgres")
	assert.False(t, report.Dependencies["postgres"].Healthy)
	// Redis is optional; no pinger means no check at all.
	assert.NotContains(t, report.Dependencies, "redis")
}

func TestHealthReportsRedisFailure(t *testing.T) {
	checker := NewChecker(nil, &fakePinger{err: errors.New("connection refused")}, "test")

	rec, report := doHealth(t, checker)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, report.Dependencies, "redis")
	assert.False(t, report.Dependencies["redis"].Healthy)
	assert.Equal(t, "connection refused", report.Dependencies["redis"].Error)
}

func TestReadyFollowsReadinessFlag(t *testing.T) {
	checker := NewChecker(nil, nil, "test")
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, checker.Ready(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	checker.SetReady(true)
	rec = httptest.NewRecorder()
	require.NoError(t, checker.Ready(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
}
