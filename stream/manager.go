// Package stream moves rendered PCM from a sample accumulator to a
// playback device through a small bounded queue.
//
// Production and consumption are interleaved on one goroutine. The
// Scheduler renders ticks only while the queue has room and hands at most
// one chunk to the device per step, polling the device instead of waiting
// on it.
package stream

import "errors"

var (
	// ErrNotReady is returned by TakeChunk when the accumulator does not
	// hold a full chunk.
	ErrNotReady = errors.New("stream: chunk not ready")

	// ErrQueueFull is returned when a chunk is taken while the queue is at
	// its window.
	ErrQueueFull = errors.New("stream: queue full")
)

// Accumulator is the rendering side of a sound slot.
type Accumulator interface {
	// IsStreamFilled reports whether a full chunk is buffered.
	IsStreamFilled() bool
	// Stream removes one chunk of interleaved s16le stereo PCM. The
	// returned slice may be reused by the next call.
	Stream() []byte
	// Buffered returns the number of stereo frames not yet streamed.
	Buffered() int
}

// Manager copies chunks out of an Accumulator into a Queue.
type Manager struct {
	acc   Accumulator
	queue *Queue
}

// NewManager creates a manager with a queue of the given window.
func NewManager(acc Accumulator, window int) *Manager {
	return &Manager{acc: acc, queue: NewQueue(window)}
}

// IsChunkReady reports whether the accumulator holds a full chunk.
func (m *Manager) IsChunkReady() bool {
	return m.acc.IsStreamFilled()
}

// TakeChunk copies one chunk out of the accumulator and enqueues it. The
// queued copy is returned.
func (m *Manager) TakeChunk() ([]byte, error) {
	if m.queue.Full() {
		return nil, ErrQueueFull
	}
	if !m.acc.IsStreamFilled() {
		return nil, ErrNotReady
	}
	return m.take(), nil
}

// Flush enqueues whatever the accumulator holds as a final, zero padded
// chunk. It returns nil and no error when nothing is buffered.
func (m *Manager) Flush() ([]byte, error) {
	if m.acc.Buffered() == 0 {
		return nil, nil
	}
	if m.queue.Full() {
		return nil, ErrQueueFull
	}
	return m.take(), nil
}

func (m *Manager) take() []byte {
	chunk := append([]byte(nil), m.acc.Stream()...)
	// Full was checked by the caller.
	_ = m.queue.Push(chunk)
	return chunk
}

// PopForPlayback removes the head chunk, if any. It never blocks.
func (m *Manager) PopForPlayback() ([]byte, bool) {
	return m.queue.Pop()
}

// Queued returns the number of chunks waiting for the device.
func (m *Manager) Queued() int {
	return m.queue.Len()
}

// Full reports whether production must pause.
func (m *Manager) Full() bool {
	return m.queue.Full()
}

// Window returns the queue capacity.
func (m *Manager) Window() int {
	return m.queue.Window()
}

// Pending reports whether any audio is buffered or queued.
func (m *Manager) Pending() bool {
	return m.queue.Len() > 0 || m.acc.Buffered() > 0
}
