package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceCountsConflicts(t *testing.T) {
	metrics := NewMetricsService()
	metrics.RecordConflict("classroom")
	metrics.RecordConflict("classroom")
	metrics.RecordConflict("teacher")

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `occupancy_conflicts_total{kind="classroom"} 2`)
	assert.Contains(t, body, `occupancy_conflicts_total{kind="teacher"} 1`)
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ObserveDBQuery("occupancy_overlap_classroom", 3*time.Millisecond)
	metrics.RecordMutation("create", 1)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `db_query_duration_seconds_count{query="occupancy_overlap_classroom"} 1`)
	assert.Contains(t, body, `occupancy_mutations_total{operation="create"} 1`)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var metrics *MetricsService
	metrics.RecordConflict("classroom")
	metrics.ObserveDBQuery("x", time.Millisecond)
	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
