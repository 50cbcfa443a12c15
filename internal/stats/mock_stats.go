package stats

import "github.com/stretchr/testify/mock"

type MockStatsUpdater struct {
	mock.Mock
}

func (m *MockStatsUpdater) Incr(name string) {
	m.Called(name)
}
func (m *MockStatsUpdater) Add(name string, delta int64) {
	m.Called(name, delta)
}
func (m *MockStatsUpdater) RegisterMetric(name string) {
	m.Called(name)
}
func (m *MockStatsUpdater) Run() {
	m.Called()
}

// NopStats discards every update.
type NopStats struct{}

func (NopStats) Incr(string)           {}
func (NopStats) Add(string, int64)     {}
func (NopStats) RegisterMetric(string) {}
func (NopStats) Run()                  {}
