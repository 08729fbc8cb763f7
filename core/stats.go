package core

import (
	"encoding/json"
	"fmt"

	"github.com/searchktools/tcp-dispatch/core/observability"
	"github.com/searchktools/tcp-dispatch/core/pools"
)

// Stats represents engine statistics
type Stats struct {
	Routes   int                    `json:"routes"`
	Pool     pools.WorkerPoolStats  `json:"pool"`
	Buffers  pools.BufferStats      `json:"buffers"`
	Requests observability.Snapshot `json:"requests"`
}

// Stats returns a snapshot of pool and request statistics. Pool fields are
// zero before serving starts.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	pool := e.pool
	e.mu.Unlock()

	stats := Stats{
		Routes:   e.router.Len(),
		Buffers:  e.buffers.Stats(),
		Requests: e.monitor.Snapshot(),
	}
	if pool != nil {
		stats.Pool = pool.Stats()
	}
	return stats
}

// StatsJSON returns statistics as an indented JSON string
func (e *Engine) StatsJSON() string {
	data, _ := json.MarshalIndent(e.Stats(), "", "  ")
	return string(data)
}

// StatsText returns statistics as human-readable text
func (e *Engine) StatsText() string {
	s := e.Stats()
	return fmt.Sprintf(`Engine Statistics
=================

Routes: %d

Worker Pool:
  Workers:   %d
  Queue:     %d
  Submitted: %d
  Completed: %d
  Panicked:  %d
  Pending:   %d

Response Buffers:
  Gets:      %d
  Oversized: %d

Requests:
  Total:        %d
  Errors:       %d
  Parse errors: %d
  Timeouts:     %d
  Write errors: %d
`,
		s.Routes,
		s.Pool.NumWorkers, s.Pool.QueueCapacity, s.Pool.TasksSubmitted,
		s.Pool.TasksCompleted, s.Pool.TasksPanicked, s.Pool.TasksPending,
		s.Buffers.Gets, s.Buffers.Oversized,
		s.Requests.TotalRequests, s.Requests.TotalErrors,
		s.Requests.ParseErrors, s.Requests.ReadTimeouts, s.Requests.WriteErrors,
	)
}
