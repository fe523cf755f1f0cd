package service

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/placement-api/internal/models"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
)

func TestMetricsServiceExposesLifecycleCollectors(t *testing.T) {
	m := NewMetricsService()
	m.ObserveOperation("apply", nil)
	m.ObserveOperation("apply", appErrors.Clone(appErrors.ErrLimitExceeded, "full"))
	m.ObserveOperation("apply", errors.New("boom"))
	m.ObserveFilledSlots([]models.Internship{{ID: "i1", FilledSlots: 2}})
	m.ObserveHTTPRequest(http.MethodGet, "/health", http.StatusOK, 10*time.Millisecond)
	m.ObservePersistWrite("changes", 2*time.Millisecond)
	m.ObservePersistWrite("changes", 4*time.Millisecond)

	snapshot := m.Snapshot()
	assert.Equal(t, uint64(1), snapshot.Operations["apply:ok"])
	assert.Equal(t, uint64(1), snapshot.Operations["apply:LIMIT_EXCEEDED"])
	assert.Equal(t, uint64(1), snapshot.Operations["apply:INTERNAL_ERROR"])
	assert.Equal(t, uint64(1), snapshot.Requests.Total)
	assert.InDelta(t, 10.0, snapshot.Requests.AverageMs, 0.001)
	assert.Equal(t, uint64(2), snapshot.PersistWrites.Total)
	assert.InDelta(t, 3.0, snapshot.PersistWrites.AverageMs, 0.001)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `placement_filled_slots{internship_id="i1"} 2`))
	assert.True(t, strings.Contains(body, `placement_operations_total{operation="apply",outcome="ok"} 1`))
	assert.True(t, strings.Contains(body, `placement_persistence_write_duration_seconds_count{job="changes"} 2`))
	assert.True(t, strings.Contains(body, "go_goroutines"))

	m.ForgetInternship("i1")
	rec = httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.False(t, strings.Contains(rec.Body.String(), `internship_id="i1"`))
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveOperation("apply", nil)
	m.ObserveFilledSlots(nil)
	m.ForgetInternship("x")
	m.ObserveCacheLookup(true, time.Millisecond)
	m.ObservePersistWrite("changes", time.Millisecond)
	assert.Equal(t, models.SystemMetrics{}, m.Snapshot())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
