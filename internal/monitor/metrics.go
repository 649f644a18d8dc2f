// Package monitor collects lightweight in-process API metrics exposed
// on /api/metrics. No external metrics backend; counters reset on
// restart.
package monitor

import (
	"strconv"
	"sync"
	"time"
)

// latencyBuckets are the upper bounds (inclusive) of the request
// latency histogram, in milliseconds. The final bucket is unbounded.
var latencyBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000}

// Metrics aggregates request counts and latency.
type Metrics struct {
	mu             sync.Mutex
	startedAt      time.Time
	totalRequests  uint64
	statusClasses  map[string]uint64 // "2xx", "4xx", ...
	histogram      []uint64          // len(latencyBuckets)+1
	totalLatencyMs float64
	signalsCreated uint64
	settlements    uint64
	backtestRuns   uint64
}

// New creates an empty metrics collector.
func New() *Metrics {
	return &Metrics{
		startedAt:     time.Now(),
		statusClasses: make(map[string]uint64),
		histogram:     make([]uint64, len(latencyBuckets)+1),
	}
}

// RecordRequest tallies one finished HTTP request.
func (m *Metrics) RecordRequest(status int, elapsed time.Duration) {
	ms := float64(elapsed.Milliseconds())

	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalRequests++
	m.totalLatencyMs += ms
	m.statusClasses[statusClass(status)]++

	idx := len(latencyBuckets)
	for i, bound := range latencyBuckets {
		if ms <= bound {
			idx = i
			break
		}
	}
	m.histogram[idx]++
}

// CountSignalCreated tallies one generated or manually created signal.
func (m *Metrics) CountSignalCreated() {
	m.mu.Lock()
	m.signalsCreated++
	m.mu.Unlock()
}

// CountSettlement tallies one completed settlement.
func (m *Metrics) CountSettlement() {
	m.mu.Lock()
	m.settlements++
	m.mu.Unlock()
}

// CountBacktest tallies one simulator run.
func (m *Metrics) CountBacktest() {
	m.mu.Lock()
	m.backtestRuns++
	m.mu.Unlock()
}

// Snapshot is a point-in-time copy safe to serialize.
type Snapshot struct {
	UptimeSeconds  float64           `json:"uptimeSeconds"`
	TotalRequests  uint64            `json:"totalRequests"`
	StatusClasses  map[string]uint64 `json:"statusClasses"`
	AvgLatencyMs   float64           `json:"avgLatencyMs"`
	LatencyBuckets map[string]uint64 `json:"latencyBuckets"`
	SignalsCreated uint64            `json:"signalsCreated"`
	Settlements    uint64            `json:"settlements"`
	BacktestRuns   uint64            `json:"backtestRuns"`
}

// Snapshot returns the current counters.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	classes := make(map[string]uint64, len(m.statusClasses))
	for k, v := range m.statusClasses {
		classes[k] = v
	}

	buckets := make(map[string]uint64, len(m.histogram))
	for i, count := range m.histogram {
		buckets[bucketLabel(i)] = count
	}

	var avg float64
	if m.totalRequests > 0 {
		avg = m.totalLatencyMs / float64(m.totalRequests)
	}

	return Snapshot{
		UptimeSeconds:  time.Since(m.startedAt).Seconds(),
		TotalRequests:  m.totalRequests,
		StatusClasses:  classes,
		AvgLatencyMs:   avg,
		LatencyBuckets: buckets,
		SignalsCreated: m.signalsCreated,
		Settlements:    m.settlements,
		BacktestRuns:   m.backtestRuns,
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

func bucketLabel(i int) string {
	if i == len(latencyBuckets) {
		return "+Inf"
	}
	return strconv.FormatFloat(latencyBuckets[i], 'f', -1, 64) + "ms"
}
