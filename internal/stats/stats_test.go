package stats

import (
	"encoding/json"
	"expvar"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStatsUpdater(t *testing.T) {
	mux := http.NewServeMux()
	su := NewStatsUpdater(mux)
	assert.NotNil(t, su, "expected StatsUpdater to be non-nil")
	assert.NotNil(t, su.updateChan, "expected updateChan to be initialized")
	handler, pattern := mux.Handler(&http.Request{URL: &url.URL{Path: "/debug/vars"}, Method: http.MethodGet})
	assert.NotNil(t, handler, "expected handler for /debug/vars to be set")
	assert.Equal(t, "GET /debug/vars", pattern, "expected handler to be registered for GET method on /debug/vars")

	for _, name := range Metrics {
		assert.NotNil(t, su.vars.Get(name), "expected metric %s to be registered", name)
	}
}

func TestStatsUpdater_Updates(t *testing.T) {
	su := newStatsUpdater(new(expvar.Map).Init())
	su.Run()

	su.Incr(StampsSent)
	su.Incr(StampsSent)
	su.Add(StampsPurged, 7)
	su.Stop()

	assert.Eventually(t, func() bool {
		return su.vars.Get(StampsSent).(*expvar.Int).Value() == 2 &&
			su.vars.Get(StampsPurged).(*expvar.Int).Value() == 7
	}, time.Second, 10*time.Millisecond)
}

func TestStatsUpdater_Handler(t *testing.T) {
	su := newStatsUpdater(new(expvar.Map).Init())

	rr := httptest.NewRecorder()
	su.expvarHandler(rr, httptest.NewRequest(http.MethodGet, "/debug/vars", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Contains(t, body, "Uptime")
	assert.Equal(t, float64(0), body[JoinRequests])
}
