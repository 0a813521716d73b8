package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	return string(body)
}

func TestRecordCommand(t *testing.T) {
	m := New()
	m.RecordCommand("handoff", "ok", 0.01)
	m.RecordCommand("handoff", "forbidden", 0.002)
	m.RecordCommand("handoff", "ok", 0.01)

	body := scrape(t, m)
	assert.Contains(t, body, `energy_commands_total{command="handoff",outcome="ok"} 2`)
	assert.Contains(t, body, `energy_commands_total{command="handoff",outcome="forbidden"} 1`)
	assert.Contains(t, body, `energy_command_duration_seconds_count{command="handoff"} 3`)
}

func TestAddReleasedPings_IgnoresZero(t *testing.T) {
	m := New()
	m.AddReleasedPings(0)
	m.AddReleasedPings(3)
	assert.Contains(t, scrape(t, m), "energy_queued_pings_released_total 3")
}

func TestHandler_ExposesEngineMetrics(t *testing.T) {
	m := New()
	m.RecordTransition("work_item", "dormant", "kindling")
	m.ObserveEnergy(75)
	m.RecordHTTP("GET", "/api/v1/streams", "200")

	body := scrape(t, m)
	assert.Contains(t, body, `energy_transitions_total{entity="work_item",from="dormant",to="kindling"} 1`)
	assert.Contains(t, body, "energy_level_served_count 1")
	assert.Contains(t, body, `energy_http_requests_total{method="GET",route="/api/v1/streams",status="200"} 1`)
}

func TestAddPurgedPings(t *testing.T) {
	m := New()
	m.AddPurgedPings("read", 2)
	m.AddPurgedPings("expired", 0)

	body := scrape(t, m)
	assert.Contains(t, body, `energy_pings_purged_total{reason="read"} 2`)
	assert.NotContains(t, body, `reason="expired"`)
}
