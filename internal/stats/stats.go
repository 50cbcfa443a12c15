package stats

import (
	"encoding/json"
	"expvar"
	"net/http"
	"time"
)

const (
	JoinRequests    = "JoinRequests"
	AutoApprovals   = "AutoApprovals"
	Approvals       = "Approvals"
	Rejections      = "Rejections"
	StampsSent      = "StampsSent"
	StampsThrottled = "StampsThrottled"
	BreakMessages   = "BreakMessages"
	SessionsStarted = "SessionsStarted"
	SessionsEnded   = "SessionsEnded"
	StampsPurged    = "StampsPurged"
)

// Metrics lists every counter the service updates.
var Metrics = []string{
	JoinRequests,
	AutoApprovals,
	Approvals,
	Rejections,
	StampsSent,
	StampsThrottled,
	BreakMessages,
	SessionsStarted,
	SessionsEnded,
	StampsPurged,
}

type StatsProvider interface {
	Incr(name string)
	Add(name string, delta int64)
	RegisterMetric(name string)
	Run()
}

type StatsUpdater struct {
	vars       *expvar.Map
	updateChan chan *metricsUpdateReq
}

type metricsUpdateReq struct {
	name  string
	value int64
}

func (su *StatsUpdater) expvarHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	expvarData := make(map[string]any)
	su.vars.Do(func(kv expvar.KeyValue) {
		var value any
		json.Unmarshal([]byte(kv.Value.String()), &value)
		expvarData[kv.Key] = value
	})

	json.NewEncoder(w).Encode(expvarData)
}

// NewStatsUpdater publishes the "wakuwork-stats" map and serves it on
// GET /debug/vars. expvar names are process-global, so it must be called once.
func NewStatsUpdater(mux *http.ServeMux) *StatsUpdater {
	su := newStatsUpdater(expvar.NewMap("wakuwork-stats"))
	mux.Handle("GET /debug/vars", http.HandlerFunc(su.expvarHandler))
	return su
}

func newStatsUpdater(vars *expvar.Map) *StatsUpdater {
	su := &StatsUpdater{
		vars:       vars,
		updateChan: make(chan *metricsUpdateReq, 512),
	}
	su.initializeMetrics()

	return su
}

func (su *StatsUpdater) initializeMetrics() {
	startTime := time.Now()
	su.vars.Set("Uptime", expvar.Func(func() any {
		return time.Since(startTime).Milliseconds()
	}))
	for _, name := range Metrics {
		su.RegisterMetric(name)
	}
}

func (su *StatsUpdater) updateMetrics() {
	for req := range su.updateChan {
		metric := su.vars.Get(req.name)
		if metric == nil {
			panic("metric not found: " + req.name)
		}

		metric.(*expvar.Int).Add(req.value)
	}
}

func (su *StatsUpdater) Incr(name string) {
	su.Add(name, 1)
}

func (su *StatsUpdater) Add(name string, delta int64) {
	su.updateChan <- &metricsUpdateReq{name: name, value: delta}
}

func (su *StatsUpdater) RegisterMetric(name string) {
	su.vars.Set(name, new(expvar.Int))
}

func (su *StatsUpdater) Run() {
	go su.updateMetrics()
}

func (su *StatsUpdater) Stop() {
	close(su.updateChan)
}
