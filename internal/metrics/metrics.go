package metrics

import (
	"sort"
	"sync"
	"time"
)

type Metrics struct {
	mutex         sync.RWMutex
	totalRequests int64
	redirects     map[string]int64
	proxied       map[string]int64
	unmatched     int64
	responseTimes map[string][]time.Duration
	statusCodes   map[int]int64
	healthStatus  map[string]bool
	startTime     time.Time
}

type Snapshot struct {
	TotalRequests int64                    `json:"total_requests"`
	Uptime        time.Duration            `json:"uptime"`
	Unmatched     int64                    `json:"unmatched"`
	Redirects     map[string]int64         `json:"redirects"`
	StatusCodes   map[int]int64            `json:"status_codes"`
	Targets       map[string]TargetMetrics `json:"targets"`
}

type TargetMetrics struct {
	Proxied     int64         `json:"proxied"`
	Healthy     bool          `json:"healthy"`
	AvgResponse time.Duration `json:"avg_response"`
	P50Response time.Duration `json:"p50_response"`
	P95Response time.Duration `json:"p95_response"`
	P99Response time.Duration `json:"p99_response"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		redirects:     make(map[string]int64),
		proxied:       make(map[string]int64),
		responseTimes: make(map[string][]time.Duration),
		statusCodes:   make(map[int]int64),
		healthStatus:  make(map[string]bool),
		startTime:     time.Now(),
	}
}

func (m *Metrics) IncrementRequests() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.totalRequests++
}

func (m *Metrics) RecordRedirect(rule string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.redirects[rule]++
}

func (m *Metrics) RecordProxied(target string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.proxied[target]++
}

func (m *Metrics) RecordUnmatched() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.unmatched++
}

func (m *Metrics) RecordResponse(target string, duration time.Duration, statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if target != "" {
		m.responseTimes[target] = append(m.responseTimes[target], duration)

		if len(m.responseTimes[target]) > 1000 {
			m.responseTimes[target] = m.responseTimes[target][1:]
		}
	}

	m.statusCodes[statusCode]++
}

func (m *Metrics) UpdateHealthStatus(target string, healthy bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.healthStatus[target] = healthy
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		TotalRequests: m.totalRequests,
		Uptime:        time.Since(m.startTime),
		Unmatched:     m.unmatched,
		Redirects:     make(map[string]int64, len(m.redirects)),
		StatusCodes:   make(map[int]int64, len(m.statusCodes)),
		Targets:       make(map[string]TargetMetrics),
	}

	for rule, count := range m.redirects {
		snap.Redirects[rule] = count
	}
	for code, count := range m.statusCodes {
		snap.StatusCodes[code] = count
	}

	// Collect all known targets
	allTargets := make(map[string]bool)
	for target := range m.proxied {
		allTargets[target] = true
	}
	for target := range m.responseTimes {
		allTargets[target] = true
	}
	for target := range m.healthStatus {
		allTargets[target] = true
	}

	for target := range allTargets {
		tm := TargetMetrics{
			Proxied: m.proxied[target],
			Healthy: m.healthStatus[target],
		}

		durations := m.responseTimes[target]
		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			tm.AvgResponse = average(sorted)
			tm.P50Response = percentile(sorted, 0.50)
			tm.P95Response = percentile(sorted, 0.95)
			tm.P99Response = percentile(sorted, 0.99)
		}

		snap.Targets[target] = tm
	}

	return snap
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
