package monitor

import (
	"testing"
	"time"
)

func TestMetricsSnapshot(t *testing.T) {
	m := New()
	m.RecordRequest(200, 3*time.Millisecond)
	m.RecordRequest(404, 40*time.Millisecond)
	m.RecordRequest(500, 2*time.Second)
	m.CountSignalCreated()
	m.CountSettlement()
	m.CountBacktest()

	s := m.Snapshot()
	if s.TotalRequests != 3 {
		t.Errorf("totalRequests = %d, want 3", s.TotalRequests)
	}
	if s.StatusClasses["2xx"] != 1 || s.StatusClasses["4xx"] != 1 || s.StatusClasses["5xx"] != 1 {
		t.Errorf("statusClasses = %v", s.StatusClasses)
	}
	if s.LatencyBuckets["5ms"] != 1 || s.LatencyBuckets["50ms"] != 1 || s.LatencyBuckets["+Inf"] != 1 {
		t.Errorf("latencyBuckets = %v", s.LatencyBuckets)
	}
	if s.SignalsCreated != 1 || s.Settlements != 1 || s.BacktestRuns != 1 {
		t.Errorf("domain counters = %+v", s)
	}
	if s.AvgLatencyMs <= 0 {
		t.Errorf("avgLatencyMs = %v", s.AvgLatencyMs)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	m := New()
	m.RecordRequest(200, time.Millisecond)
	s := m.Snapshot()
	s.StatusClasses["2xx"] = 99

	if got := m.Snapshot().StatusClasses["2xx"]; got != 1 {
		t.Errorf("snapshot mutation leaked back: %d", got)
	}
}
