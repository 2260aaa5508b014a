package capture

import (
	"sync"

	"github.com/decentraland/voicecapture-go/internal/errors"
)

// Ring buffer sentinel errors.
var (
	// ErrBufferFull is returned by Write when the buffer cannot hold the
	// whole input. The bytes that fit were written; the newest excess bytes
	// are rejected. The pipeline never overwrites unread audio.
	ErrBufferFull = errors.NewStd("ring buffer full")

	// ErrBufferDisposed is returned by operations on a disposed buffer.
	ErrBufferDisposed = errors.NewStd("ring buffer disposed")
)

// RingBuffer is a fixed-capacity circular byte buffer. All operations execute
// under one exclusive lock, so callers never observe a torn read or write.
// Capacity is fixed at construction; format changes dispose the buffer and
// allocate a new one.
type RingBuffer struct {
	mu       sync.Mutex
	data     []byte
	readPos  int
	writePos int
	size     int // bytes currently readable
	disposed bool
}

// NewRingBuffer allocates a ring buffer with the given capacity in bytes.
func NewRingBuffer(capacity int) (*RingBuffer, error) {
	if capacity <= 0 {
		return nil, errors.Newf("invalid ring buffer capacity: %d, must be greater than 0", capacity).
			Component("capture").
			Category(errors.CategoryBuffer).
			Build()
	}
	// Guard against runaway format values (e.g. over 1GB)
	if capacity > 1<<30 {
		return nil, errors.Newf("requested buffer capacity too large: %d bytes (>1GB)", capacity).
			Component("capture").
			Category(errors.CategoryBuffer).
			Build()
	}
	return &RingBuffer{data: make([]byte, capacity)}, nil
}

// Write copies p into the buffer. When p exceeds the free space, the bytes
// that fit are written and ErrBufferFull is returned with the count actually
// written (reject-newest overflow policy).
func (rb *RingBuffer) Write(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.disposed {
		return 0, ErrBufferDisposed
	}
	if len(p) == 0 {
		return 0, nil
	}

	free := len(rb.data) - rb.size
	n := len(p)
	var err error
	if n > free {
		n = free
		err = ErrBufferFull
	}

	first := copy(rb.data[rb.writePos:], p[:n])
	if first < n {
		copy(rb.data, p[first:n])
	}
	rb.writePos = (rb.writePos + n) % len(rb.data)
	rb.size += n

	return n, err
}

// Read copies up to len(p) buffered bytes into p and returns the count read.
// A read on an empty buffer returns 0, nil.
func (rb *RingBuffer) Read(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.disposed {
		return 0, ErrBufferDisposed
	}

	n := len(p)
	if n > rb.size {
		n = rb.size
	}
	if n == 0 {
		return 0, nil
	}

	first := copy(p[:n], rb.data[rb.readPos:])
	if first < n {
		copy(p[first:n], rb.data)
	}
	rb.readPos = (rb.readPos + n) % len(rb.data)
	rb.size -= n

	return n, nil
}

// AvailableRead returns the number of buffered bytes.
func (rb *RingBuffer) AvailableRead() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.size
}

// AvailableWrite returns the free space in bytes.
func (rb *RingBuffer) AvailableWrite() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if rb.disposed {
		return 0
	}
	return len(rb.data) - rb.size
}

// Capacity returns the fixed capacity in bytes, or 0 once disposed.
func (rb *RingBuffer) Capacity() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return len(rb.data)
}

// Dispose releases the backing storage. Idempotent; subsequent operations
// return ErrBufferDisposed.
func (rb *RingBuffer) Dispose() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if rb.disposed {
		return
	}
	rb.disposed = true
	rb.data = nil
	rb.readPos, rb.writePos, rb.size = 0, 0, 0
}
