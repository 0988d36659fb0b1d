package instance

import (
	"errors"
	"io"

	"github.com/user-none/chipstream/driver"
)

// Source adapts one instance to the stream scheduler. Every Tick plays
// one chunk, which is then the accumulator's only content.
type Source struct {
	r         *Registry
	id        int
	chunkSize int

	chunk   []byte
	pending bool
	ended   bool
	loops   int
}

// Source returns an adapter for id. Chunks hold chunkSize stereo samples.
func (r *Registry) Source(id, chunkSize int) *Source {
	return &Source{r: r, id: id, chunkSize: chunkSize}
}

// Tick plays one chunk. It returns io.EOF once the final chunk has been
// played or the instance is gone.
func (s *Source) Tick() error {
	if s.ended {
		return io.EOF
	}
	st, err := s.r.Play(s.id)
	if errors.Is(err, ErrInvalidHandle) {
		s.ended = true
		return io.EOF
	}
	if c, cerr := s.r.SampleChunk(s.id); cerr == nil && c != nil {
		s.chunk = c
		s.pending = true
	}
	if st == driver.StatusEnd {
		s.ended = true
	} else {
		s.loops = st
	}
	return err
}

// Loops returns the loop count reported by the last Play.
func (s *Source) Loops() int {
	return s.loops
}

// IsStreamFilled reports whether a played chunk waits to be taken.
func (s *Source) IsStreamFilled() bool {
	return s.pending
}

// Stream hands out the played chunk.
func (s *Source) Stream() []byte {
	s.pending = false
	return s.chunk
}

// Buffered returns the number of stereo samples waiting.
func (s *Source) Buffered() int {
	if s.pending {
		return s.chunkSize
	}
	return 0
}
