package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticCheck(name string, status HealthStatus) HealthCheckerFunc {
	return func() HealthCheck {
		return HealthCheck{Name: name, Status: status, LastChecked: time.Now()}
	}
}

func TestReport_AggregatesWorstStatus(t *testing.T) {
	hm := NewHealthManager("display-board")
	hm.RegisterChecker("push", staticCheck("push_channel", HealthStatusHealthy))

	report := hm.Report()
	assert.Equal(t, HealthStatusHealthy, report.Status)
	assert.Equal(t, "display-board", report.Service)
	assert.Len(t, report.Checks, 1)

	hm.RegisterChecker("canonical", staticCheck("canonical_state", HealthStatusDegraded))
	assert.Equal(t, HealthStatusDegraded, hm.Report().Status)

	hm.RegisterChecker("broken", staticCheck("broken", HealthStatusUnhealthy))
	assert.Equal(t, HealthStatusUnhealthy, hm.Report().Status)
}

func TestHandler_DegradedStillAnswers200(t *testing.T) {
	hm := NewHealthManager("display-board")
	hm.RegisterChecker("push", staticCheck("push_channel", HealthStatusDegraded))

	rec := httptest.NewRecorder()
	hm.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	// Degraded means poll fallback is carrying the view, not that the
	// process should be restarted.
	assert.Equal(t, http.StatusOK, rec.Code)

	var report HealthReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, HealthStatusDegraded, report.Status)
}

func TestHandler_Unhealthy503(t *testing.T) {
	hm := NewHealthManager("display-board")
	hm.RegisterChecker("broken", staticCheck("broken", HealthStatusUnhealthy))

	rec := httptest.NewRecorder()
	hm.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
