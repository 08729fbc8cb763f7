package observability

import (
	"sync"
	"testing"
	"time"
)

func TestMonitorRecordRequest(t *testing.T) {
	m := NewMonitor()

	m.RecordRequest("GET /a", 200, 10*time.Millisecond)
	m.RecordRequest("GET /a", 500, 30*time.Millisecond)
	m.RecordRequest("GET /b", 404, time.Millisecond)
	m.RecordParseError()
	m.RecordReadTimeout()
	m.RecordWriteError()

	s := m.Snapshot()
	if s.TotalRequests != 3 || s.TotalErrors != 1 {
		t.Errorf("Expected 3 requests and 1 error, got %d and %d", s.TotalRequests, s.TotalErrors)
	}
	if s.ParseErrors != 1 || s.WriteErrors != 1 {
		t.Errorf("Expected 1 parse and 1 write error, got %d and %d", s.ParseErrors, s.WriteErrors)
	}
	if s.ReadTimeouts != 1 {
		t.Errorf("Expected 1 read timeout, got %d", s.ReadTimeouts)
	}

	if len(s.Routes) != 2 {
		t.Fatalf("Expected 2 routes, got %d", len(s.Routes))
	}
	a := s.Routes[0]
	if a.Route != "GET /a" || a.Count != 2 || a.Errors != 1 {
		t.Errorf("Unexpected route snapshot %+v", a)
	}
	if a.AvgDuration != 20*time.Millisecond {
		t.Errorf("Expected avg 20ms, got %v", a.AvgDuration)
	}
	if a.MaxDuration != 30*time.Millisecond {
		t.Errorf("Expected max 30ms, got %v", a.MaxDuration)
	}
}

func TestMonitorConcurrent(t *testing.T) {
	m := NewMonitor()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.RecordRequest("GET /", 200, time.Microsecond)
			}
		}()
	}
	wg.Wait()

	if got := m.Snapshot().TotalRequests; got != 1000 {
		t.Errorf("Expected 1000 requests, got %d", got)
	}
}
