package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-ipcrf-api/internal/models"
	"github.com/noah-isme/sma-ipcrf-api/pkg/rating"
)

func TestMetricsServiceRecordsDomainCollectors(t *testing.T) {
	m := NewMetricsService()
	m.RecordSubmission(rating.StatusDraft, 4.0)
	m.RecordSubmission(rating.StatusDraft, 2.0)
	m.RecordSubmission(rating.StatusApproved, 4.0)
	m.RecordReportJob(models.ReportTypeIPCRF, models.ReportStatusFinished)

	assert.Equal(t, uint64(2), m.Snapshot().SubmissionsRecorded)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `ipcrf_submissions_total{status="draft"} 2`))
	assert.True(t, strings.Contains(body, `ipcrf_submissions_total{status="approved"} 1`))
	assert.True(t, strings.Contains(body, `report_jobs_total{status="FINISHED",type="ipcrf"} 1`))
	assert.True(t, strings.Contains(body, "ipcrf_numerical_rating_count 2"))
}

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest("GET", "/api/v1/ipcrf", 200, 10*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)

	snap := m.Snapshot()
	assert.Equal(t, uint64(1), snap.RequestsTotal)
	assert.InDelta(t, 0.5, snap.CacheHitRatio, 1e-9)
	assert.InDelta(t, 10, snap.AverageRequestDurationMs, 1e-6)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, "cache_hit_ratio 0.5")
	assert.Contains(t, body, `cache_lookup_seconds_count{result="hit"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.RecordSubmission(rating.StatusDraft, 3)
	m.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
	assert.Equal(t, models.SystemMetrics{}, m.Snapshot())
}
