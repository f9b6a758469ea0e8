package reactor

import (
	"sync"
	"time"
)

// Metrics tracks the wait loop's latency distribution and pending-event
// fan-out. Attaching one via WithMetrics is optional; a Reactor with no
// Metrics configured skips every call below.
type Metrics struct {
	mu       sync.Mutex
	p50      *quantileEstimator
	p99      *quantileEstimator
	waits    int64
	timeouts int64
	fanout   int64
}

// NewMetrics constructs a Metrics collector tracking p50 and p99
// wait-loop latency.
func NewMetrics() *Metrics {
	return &Metrics{
		p50: newQuantileEstimator(0.50),
		p99: newQuantileEstimator(0.99),
	}
}

func (m *Metrics) recordWait(d time.Duration, newlyPending int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waits++
	m.fanout += int64(newlyPending)
	ms := float64(d.Microseconds()) / 1000
	m.p50.observe(ms)
	m.p99.observe(ms)
}

func (m *Metrics) recordTimeout() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeouts++
}

// Snapshot is a point-in-time copy of a Metrics collector's counters.
type Snapshot struct {
	Waits        int64
	Timeouts     int64
	TotalPending int64
	P50Millis    float64
	P99Millis    float64
}

// Snapshot returns the collector's current state.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Waits:        m.waits,
		Timeouts:     m.timeouts,
		TotalPending: m.fanout,
		P50Millis:    m.p50.value(),
		P99Millis:    m.p99.value(),
	}
}
