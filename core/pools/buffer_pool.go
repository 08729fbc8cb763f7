package pools

import (
	"sync"
	"sync/atomic"
)

// Buffer tiers for serialized responses
const (
	SmallBufferSize  = 1 * 1024  // status line, headers and a short body
	MediumBufferSize = 8 * 1024  // typical JSON
	LargeBufferSize  = 64 * 1024 // file contents and large payloads
)

// BufferPool hands out byte slices for response serialization in three
// capacity tiers. Requests larger than the largest tier get a fresh
// slice that is not pooled.
type BufferPool struct {
	small  sync.Pool
	medium sync.Pool
	large  sync.Pool

	// Statistics
	gets      atomic.Uint64
	oversized atomic.Uint64
}

func newBuffer(size int) func() any {
	return func() any {
		buf := make([]byte, 0, size)
		return &buf
	}
}

// NewBufferPool creates a new buffer pool
func NewBufferPool() *BufferPool {
	bp := &BufferPool{}
	bp.small.New = newBuffer(SmallBufferSize)
	bp.medium.New = newBuffer(MediumBufferSize)
	bp.large.New = newBuffer(LargeBufferSize)
	return bp
}

// Get returns an empty buffer with capacity for at least size bytes
func (bp *BufferPool) Get(size int) *[]byte {
	bp.gets.Add(1)

	switch {
	case size <= SmallBufferSize:
		return bp.small.Get().(*[]byte)
	case size <= MediumBufferSize:
		return bp.medium.Get().(*[]byte)
	case size <= LargeBufferSize:
		return bp.large.Get().(*[]byte)
	default:
		bp.oversized.Add(1)
		buf := make([]byte, 0, size)
		return &buf
	}
}

// Put returns a buffer to the tier matching its capacity. Each tier only
// holds buffers at least as large as its nominal size.
func (bp *BufferPool) Put(buf *[]byte) {
	if buf == nil {
		return
	}

	// Reset buffer but keep capacity
	*buf = (*buf)[:0]

	switch c := cap(*buf); {
	case c >= LargeBufferSize && c < 2*LargeBufferSize:
		bp.large.Put(buf)
	case c >= MediumBufferSize && c < LargeBufferSize:
		bp.medium.Put(buf)
	case c >= SmallBufferSize && c < MediumBufferSize:
		bp.small.Put(buf)
	}
	// Anything else is left to the GC
}

// Stats returns buffer pool statistics
func (bp *BufferPool) Stats() BufferStats {
	return BufferStats{
		Gets:      bp.gets.Load(),
		Oversized: bp.oversized.Load(),
	}
}

// BufferStats contains buffer pool statistics
type BufferStats struct {
	Gets      uint64 `json:"gets"`
	Oversized uint64 `json:"oversized"`
}
