package pools

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPool_Basic(t *testing.T) {
	pool := NewWorkerPool(4, 16)

	var counter atomic.Int64

	// Submit 100 tasks
	for i := 0; i < 100; i++ {
		if err := pool.Submit(func() {
			counter.Add(1)
		}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	pool.Close()

	if counter.Load() != 100 {
		t.Errorf("Expected 100 tasks completed, got %d", counter.Load())
	}

	stats := pool.Stats()
	if stats.TasksSubmitted != 100 || stats.TasksCompleted != 100 || stats.TasksPending != 0 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

// Every job runs exactly once when jobs outnumber workers
func TestWorkerPool_ExactlyOnce(t *testing.T) {
	const numJobs = 500
	pool := NewWorkerPool(3, 0)

	var runs [numJobs]atomic.Int32
	var wg sync.WaitGroup
	wg.Add(numJobs)

	for i := 0; i < numJobs; i++ {
		i := i
		pool.Submit(func() {
			defer wg.Done()
			runs[i].Add(1)
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Test timeout")
	}

	for i := range runs {
		if n := runs[i].Load(); n != 1 {
			t.Errorf("Job %d ran %d times", i, n)
		}
	}
	pool.Close()
}

// A panicking task must not take its worker down
func TestWorkerPool_PanicIsolation(t *testing.T) {
	var panics atomic.Int64
	pool := NewWorkerPool(1, 4, WithPanicHandler(func(id int, r any) {
		panics.Add(1)
	}))

	var ran atomic.Bool
	pool.Submit(func() { panic("boom") })
	pool.Submit(func() { ran.Store(true) })
	pool.Close()

	if !ran.Load() {
		t.Error("Expected task after panic to run on the same worker")
	}
	if panics.Load() != 1 {
		t.Errorf("Expected 1 panic reported, got %d", panics.Load())
	}
	if stats := pool.Stats(); stats.TasksPanicked != 1 || stats.TasksCompleted != 2 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

// Close runs queued tasks before returning and rejects later submissions
func TestWorkerPool_CloseDrains(t *testing.T) {
	pool := NewWorkerPool(1, 10)

	release := make(chan struct{})
	var counter atomic.Int64
	pool.Submit(func() {
		<-release
		counter.Add(1)
	})
	for i := 0; i < 5; i++ {
		pool.Submit(func() { counter.Add(1) })
	}

	closed := make(chan struct{})
	go func() {
		pool.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while a task was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}

	if counter.Load() != 6 {
		t.Errorf("Expected 6 tasks completed, got %d", counter.Load())
	}
	if err := pool.Submit(func() {}); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Expected ErrPoolClosed, got %v", err)
	}

	// Second Close is a no-op
	pool.Close()
}

func TestWorkerPool_InvalidSize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for zero workers")
		}
	}()
	NewWorkerPool(0, 1)
}

func TestWorkerPool_NilTask(t *testing.T) {
	pool := NewWorkerPool(1, 1)
	defer pool.Close()

	if err := pool.Submit(nil); err == nil {
		t.Error("Expected error for nil task")
	}
}

func BenchmarkWorkerPool_Submit(b *testing.B) {
	pool := NewWorkerPool(8, 1024)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			pool.Submit(func() {
				// Simulate some work
				_ = 1 + 1
			})
		}
	})

	pool.Close()
}
