package stream

// DefaultWindow is the number of chunks that may wait for the device
// before production pauses.
const DefaultWindow = 2

// Queue is a bounded FIFO of PCM chunks. It never holds more than its
// window.
type Queue struct {
	chunks [][]byte
	head   int
	count  int
}

// NewQueue creates a queue holding at most window chunks. A window below 1
// uses DefaultWindow.
func NewQueue(window int) *Queue {
	if window < 1 {
		window = DefaultWindow
	}
	return &Queue{chunks: make([][]byte, window)}
}

// Len returns the number of queued chunks.
func (q *Queue) Len() int {
	return q.count
}

// Window returns the queue capacity.
func (q *Queue) Window() int {
	return len(q.chunks)
}

// Full reports whether the queue is at capacity.
func (q *Queue) Full() bool {
	return q.count == len(q.chunks)
}

// Push appends chunk at the tail. ErrQueueFull is returned when the window
// is already used up.
func (q *Queue) Push(chunk []byte) error {
	if q.Full() {
		return ErrQueueFull
	}
	q.chunks[(q.head+q.count)%len(q.chunks)] = chunk
	q.count++
	return nil
}

// Pop removes the head chunk. It returns false when the queue is empty.
func (q *Queue) Pop() ([]byte, bool) {
	if q.count == 0 {
		return nil, false
	}
	c := q.chunks[q.head]
	q.chunks[q.head] = nil
	q.head = (q.head + 1) % len(q.chunks)
	q.count--
	return c, true
}

// Clear drops every queued chunk.
func (q *Queue) Clear() {
	for i := range q.chunks {
		q.chunks[i] = nil
	}
	q.head = 0
	q.count = 0
}
