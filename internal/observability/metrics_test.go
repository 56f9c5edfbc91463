package observability

import (
	"testing"
	"time"
)

func TestMetricsSnapshot(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.RecordRequest("/issues", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/issues", "GET", 200, 30*time.Millisecond)
	m.RecordError("/issues", "POST", "VALIDATION_FAILED")
	m.RecordAIFailure()
	m.RecordRefresh()

	snap := m.Snapshot()
	if got := snap.Requests["/issues|GET|200"]; got != 2 {
		t.Errorf("requests = %d, want 2", got)
	}
	if got := snap.AvgLatency["/issues|GET|200"]; got != 20 {
		t.Errorf("avg latency = %d, want 20", got)
	}
	if snap.Errors["/issues|POST|VALIDATION_FAILED"] != 1 || snap.AIFailures != 1 || snap.Refreshes != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
	if keys := snap.Keys(); len(keys) != 1 {
		t.Errorf("keys = %v", keys)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	m.RecordAIFailure()
	if snap := m.Snapshot(); len(snap.Requests) != 0 {
		t.Errorf("nil snapshot = %+v", snap)
	}
}
