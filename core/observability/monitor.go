package observability

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Monitor collects per-route request metrics. It is safe for concurrent use.
type Monitor struct {
	routes sync.Map // route name -> *RouteMetrics
	global struct {
		totalRequests atomic.Uint64
		totalErrors   atomic.Uint64
		parseErrors   atomic.Uint64
		readTimeouts  atomic.Uint64
		writeErrors   atomic.Uint64
	}
}

// RouteMetrics stores counters for one route
type RouteMetrics struct {
	Count         atomic.Uint64
	Errors        atomic.Uint64
	TotalDuration atomic.Uint64 // nanoseconds
	MaxDuration   atomic.Uint64 // nanoseconds
}

// NewMonitor creates a monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// RecordRequest records one dispatched request. Status codes of 500 and
// above count as errors.
func (m *Monitor) RecordRequest(route string, status int, duration time.Duration) {
	val, _ := m.routes.LoadOrStore(route, &RouteMetrics{})
	metrics := val.(*RouteMetrics)

	m.global.totalRequests.Add(1)
	metrics.Count.Add(1)
	if status >= 500 {
		m.global.totalErrors.Add(1)
		metrics.Errors.Add(1)
	}

	ns := uint64(duration.Nanoseconds())
	metrics.TotalDuration.Add(ns)
	for {
		cur := metrics.MaxDuration.Load()
		if ns <= cur || metrics.MaxDuration.CompareAndSwap(cur, ns) {
			break
		}
	}
}

// RecordParseError counts a connection dropped because its request could
// not be parsed
func (m *Monitor) RecordParseError() {
	m.global.parseErrors.Add(1)
}

// RecordReadTimeout counts a connection dropped because the request did
// not arrive before the read deadline
func (m *Monitor) RecordReadTimeout() {
	m.global.readTimeouts.Add(1)
}

// RecordWriteError counts a response that could not be written
func (m *Monitor) RecordWriteError() {
	m.global.writeErrors.Add(1)
}

// Snapshot is a point-in-time copy of the collected metrics
type Snapshot struct {
	TotalRequests uint64          `json:"total_requests"`
	TotalErrors   uint64          `json:"total_errors"`
	ParseErrors   uint64          `json:"parse_errors"`
	ReadTimeouts  uint64          `json:"read_timeouts"`
	WriteErrors   uint64          `json:"write_errors"`
	Routes        []RouteSnapshot `json:"routes"`
}

// RouteSnapshot summarizes one route
type RouteSnapshot struct {
	Route       string        `json:"route"`
	Count       uint64        `json:"count"`
	Errors      uint64        `json:"errors"`
	AvgDuration time.Duration `json:"avg_duration_ns"`
	MaxDuration time.Duration `json:"max_duration_ns"`
}

// Snapshot returns the current metrics, routes sorted by name
func (m *Monitor) Snapshot() Snapshot {
	s := Snapshot{
		TotalRequests: m.global.totalRequests.Load(),
		TotalErrors:   m.global.totalErrors.Load(),
		ParseErrors:   m.global.parseErrors.Load(),
		ReadTimeouts:  m.global.readTimeouts.Load(),
		WriteErrors:   m.global.writeErrors.Load(),
	}

	m.routes.Range(func(key, value any) bool {
		metrics := value.(*RouteMetrics)
		rs := RouteSnapshot{
			Route:       key.(string),
			Count:       metrics.Count.Load(),
			Errors:      metrics.Errors.Load(),
			MaxDuration: time.Duration(metrics.MaxDuration.Load()),
		}
		if rs.Count > 0 {
			rs.AvgDuration = time.Duration(metrics.TotalDuration.Load() / rs.Count)
		}
		s.Routes = append(s.Routes, rs)
		return true
	})

	sort.Slice(s.Routes, func(i, j int) bool {
		return s.Routes[i].Route < s.Routes[j].Route
	})
	return s
}
