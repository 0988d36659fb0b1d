package audio

import (
	"io"
	"sync"
)

// RingBuffer is a byte FIFO shared by the playback goroutine, which
// writes submitted chunks, and oto, which pulls PCM through Read. Read
// blocks while empty. Write never blocks: on overflow the oldest bytes
// are discarded.
type RingBuffer struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []byte
	head   int
	size   int
	closed bool
}

// NewRingBuffer creates a buffer holding up to capacity bytes.
func NewRingBuffer(capacity int) *RingBuffer {
	rb := &RingBuffer{buf: make([]byte, capacity)}
	rb.cond = sync.NewCond(&rb.mu)
	return rb
}

// Write appends p. After Close it is a no-op.
func (rb *RingBuffer) Write(p []byte) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if rb.closed || len(p) == 0 {
		return
	}

	capacity := len(rb.buf)
	if len(p) > capacity {
		p = p[len(p)-capacity:]
	}
	if over := rb.size + len(p) - capacity; over > 0 {
		rb.head = (rb.head + over) % capacity
		rb.size -= over
	}

	tail := (rb.head + rb.size) % capacity
	n := copy(rb.buf[tail:], p)
	copy(rb.buf, p[n:])
	rb.size += len(p)
	rb.cond.Signal()
}

// Read implements io.Reader. It waits for data and returns io.EOF once
// the buffer is closed and drained.
func (rb *RingBuffer) Read(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	for rb.size == 0 {
		if rb.closed {
			return 0, io.EOF
		}
		rb.cond.Wait()
	}

	want := len(p)
	if want > rb.size {
		want = rb.size
	}
	n := copy(p[:want], rb.buf[rb.head:])
	copy(p[n:want], rb.buf)
	rb.head = (rb.head + want) % len(rb.buf)
	rb.size -= want
	return want, nil
}

// Buffered returns the number of unread bytes.
func (rb *RingBuffer) Buffered() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.size
}

// Clear discards unread bytes.
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.head = 0
	rb.size = 0
}

// Close wakes any blocked reader. Remaining bytes can still be read.
func (rb *RingBuffer) Close() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.closed = true
	rb.cond.Broadcast()
}
