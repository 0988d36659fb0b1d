package stream

import (
	"fmt"
	"io"
)

// Ticker renders one logical tick into an accumulator. It returns io.EOF
// when the source has nothing more to render. Any other error is reported
// by Step, but the source keeps being ticked.
type Ticker interface {
	Tick() error
}

// Device is a playback sink polled for readiness.
type Device interface {
	// IsBusy reports whether the device still has enough audio queued
	// that another chunk should wait.
	IsBusy() bool
	// Submit hands one chunk of interleaved s16le stereo PCM to the device.
	Submit(chunk []byte) error
	Close() error
}

// Status describes what a single Step did.
type Status struct {
	Produced  bool // a chunk was taken from the accumulator
	Submitted bool // a chunk was handed to the device
	Queued    int  // chunks waiting after the step
	Underrun  bool // the device was idle with nothing to play
	Done      bool // the source ended and everything was submitted
}

// Scheduler interleaves production and consumption. Each Step is
// non-blocking and performs at most one tick and one submission.
type Scheduler struct {
	src      Ticker
	mgr      *Manager
	dev      Device
	finished bool

	ticks     uint64
	submitted uint64
	underruns uint64
}

// NewScheduler creates a scheduler that ticks src, takes chunks from acc
// and submits them to dev, with at most window chunks in flight.
func NewScheduler(src Ticker, acc Accumulator, dev Device, window int) *Scheduler {
	return &Scheduler{
		src: src,
		mgr: NewManager(acc, window),
		dev: dev,
	}
}

// Manager returns the buffer manager.
func (s *Scheduler) Manager() *Manager {
	return s.mgr
}

// Finished reports whether the source returned io.EOF.
func (s *Scheduler) Finished() bool {
	return s.finished
}

// Stats returns the number of ticks run, chunks submitted and underruns
// seen so far.
func (s *Scheduler) Stats() (ticks, submitted, underruns uint64) {
	return s.ticks, s.submitted, s.underruns
}

// Step runs one scheduling cycle. While the queue has room it takes a
// ready chunk, or ticks the source once and takes a chunk if that filled
// one. Then, if the device is idle and a chunk is queued, it submits one.
//
// A source error other than io.EOF is returned after the cycle completes;
// the cycle itself is not abandoned. A device error aborts the cycle.
func (s *Scheduler) Step() (Status, error) {
	var st Status
	var srcErr error

	if !s.mgr.Full() {
		if !s.mgr.IsChunkReady() && !s.finished {
			switch err := s.src.Tick(); err {
			case nil:
				s.ticks++
			case io.EOF:
				s.finished = true
			default:
				s.ticks++
				srcErr = err
			}
		}
		if s.mgr.IsChunkReady() {
			if _, err := s.mgr.TakeChunk(); err == nil {
				st.Produced = true
			}
		} else if s.finished {
			if c, _ := s.mgr.Flush(); c != nil {
				st.Produced = true
			}
		}
	}

	if !s.dev.IsBusy() {
		if c, ok := s.mgr.PopForPlayback(); ok {
			if err := s.dev.Submit(c); err != nil {
				st.Queued = s.mgr.Queued()
				return st, fmt.Errorf("stream: submit: %w", err)
			}
			st.Submitted = true
			s.submitted++
		} else if !s.finished {
			st.Underrun = true
			s.underruns++
		}
	}

	st.Queued = s.mgr.Queued()
	st.Done = s.finished && !s.mgr.Pending()
	return st, srcErr
}
