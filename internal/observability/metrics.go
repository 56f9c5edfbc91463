package observability

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	latency      map[string]time.Duration
	aiFailures   int64
	refreshes    int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Requests   map[string]int64 `json:"requests"`
	Errors     map[string]int64 `json:"errors"`
	AvgLatency map[string]int64 `json:"avg_latency_ms"`
	AIFailures int64            `json:"ai_failures"`
	Refreshes  int64            `json:"replica_refreshes"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		latency:      make(map[string]time.Duration),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.latency[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordAIFailure counts a contained AI backend failure.
func (m *Metrics) RecordAIFailure() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.aiFailures++
	m.mu.Unlock()
}

// RecordRefresh counts a completed replica refresh.
func (m *Metrics) RecordRefresh() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.refreshes++
	m.mu.Unlock()
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{
		Requests:   map[string]int64{},
		Errors:     map[string]int64{},
		AvgLatency: map[string]int64{},
	}
	if m == nil {
		return snap
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, count := range m.requestCount {
		snap.Requests[key] = count
		if count > 0 {
			snap.AvgLatency[key] = (m.latency[key] / time.Duration(count)).Milliseconds()
		}
	}
	for key, count := range m.errorCount {
		snap.Errors[key] = count
	}
	snap.AIFailures = m.aiFailures
	snap.Refreshes = m.refreshes
	return snap
}

// Keys returns the request keys in sorted order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.Requests))
	for key := range s.Requests {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
