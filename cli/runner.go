// Package cli provides a command-line runner for playback.
// It drives a stream scheduler in real time, paced by the output device,
// and handles single-key commands from the terminal.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/user-none/chipstream/stream"
)

// Pacing bounds for the playback loop.
const (
	minSleep  = time.Millisecond
	idlePoll  = 10 * time.Millisecond
	busySlice = 4
)

// Options configures a Runner.
type Options struct {
	SampleRate int
	ChunkSize  int

	// Out receives status lines. Nil disables them.
	Out            io.Writer
	StatusInterval time.Duration

	// Loops reports the current loop count for the status line.
	Loops func() int
}

// Runner plays a scheduler to a device.
// Production runs as fast as the window allows; when the device is busy
// and the window is full the loop sleeps a fraction of a chunk period.
type Runner struct {
	sched   *stream.Scheduler
	dev     stream.Device
	control *Control
	opts    Options

	chunkTime time.Duration
}

// NewRunner creates a runner. The device is not closed by the runner.
func NewRunner(sched *stream.Scheduler, dev stream.Device, opts Options) *Runner {
	chunkTime := idlePoll
	if opts.SampleRate > 0 && opts.ChunkSize > 0 {
		chunkTime = time.Duration(float64(time.Second) * float64(opts.ChunkSize) / float64(opts.SampleRate))
	}
	if opts.StatusInterval <= 0 {
		opts.StatusInterval = 250 * time.Millisecond
	}
	return &Runner{
		sched:     sched,
		dev:       dev,
		control:   NewControl(),
		opts:      opts,
		chunkTime: chunkTime,
	}
}

// Control returns the pause/stop control of the playback loop.
func (r *Runner) Control() *Control {
	return r.control
}

// Run steps the scheduler until the stream is done, ctx is cancelled or
// the control is stopped. Cancellation is not an error. After the last
// chunk Run waits for devices that report Idle.
func (r *Runner) Run(ctx context.Context) error {
	defer r.control.Stop()
	lastStatus := time.Now()

	for {
		if ctx.Err() != nil || !r.control.CheckPause() {
			return nil
		}

		st, err := r.sched.Step()
		if err != nil {
			return err
		}
		if st.Done {
			r.drain(ctx)
			r.status(true)
			return nil
		}

		if time.Since(lastStatus) >= r.opts.StatusInterval {
			r.status(false)
			lastStatus = time.Now()
		}

		if sleep := r.pace(st); sleep > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(sleep):
			}
		}
	}
}

// pace returns how long to wait before the next step.
func (r *Runner) pace(st stream.Status) time.Duration {
	if st.Produced || st.Submitted || st.Underrun {
		return 0
	}
	if st.Queued < r.sched.Manager().Window() && !r.sched.Finished() {
		return 0
	}
	// Device busy with nothing left to produce.
	sleep := r.chunkTime / busySlice
	if sleep < minSleep {
		return minSleep
	}
	return sleep
}

type idler interface {
	Idle() bool
}

// drain waits until the device has played everything submitted.
func (r *Runner) drain(ctx context.Context) {
	d, ok := r.dev.(idler)
	if !ok {
		return
	}
	for !d.Idle() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(idlePoll):
		}
	}
}

func (r *Runner) status(final bool) {
	if r.opts.Out == nil {
		return
	}
	_, submitted, underruns := r.sched.Stats()
	loops := 0
	if r.opts.Loops != nil {
		loops = r.opts.Loops()
	}
	line := FormatStatus(submitted*uint64(r.opts.ChunkSize), r.opts.SampleRate, loops, underruns, r.control.IsPaused())
	end := ""
	if final {
		end = "\r\n"
	}
	fmt.Fprintf(r.opts.Out, "\r%s\x1b[K%s", line, end)
}

// Play runs the playback loop together with a key handler reading from
// in: 'q', Escape or Ctrl-C stop playback, space toggles pause. When in
// is a terminal it is switched to raw mode for the duration.
func (r *Runner) Play(ctx context.Context, in io.Reader) error {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		old, err := term.MakeRaw(int(f.Fd()))
		if err == nil {
			defer term.Restore(int(f.Fd()), old)
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	keys := make(chan byte)
	go readKeys(ctx, in, keys)

	g.Go(func() error {
		defer cancel()
		return r.Run(ctx)
	})
	g.Go(func() error {
		r.handleKeys(ctx, keys)
		return nil
	})
	return g.Wait()
}

func (r *Runner) handleKeys(ctx context.Context, keys <-chan byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case k, ok := <-keys:
			if !ok {
				return
			}
			switch k {
			case 'q', 'Q', 0x03, 0x1b:
				r.control.Stop()
				return
			case ' ':
				r.control.Toggle()
				r.status(false)
			}
		}
	}
}

// readKeys forwards bytes from in until it fails or ctx ends. A blocked
// Read keeps the goroutine alive until the next byte arrives.
func readKeys(ctx context.Context, in io.Reader, keys chan<- byte) {
	defer close(keys)
	buf := make([]byte, 1)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			select {
			case keys <- buf[0]:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			return
		}
	}
}

type loopLimit struct {
	src   stream.Ticker
	loops func() int
	limit int
}

// LimitLoops wraps src so that it reports io.EOF once loops returns limit
// or more. A limit of zero or less returns src unchanged.
func LimitLoops(src stream.Ticker, loops func() int, limit int) stream.Ticker {
	if limit <= 0 {
		return src
	}
	return &loopLimit{src: src, loops: loops, limit: limit}
}

func (l *loopLimit) Tick() error {
	if l.loops() >= l.limit {
		return io.EOF
	}
	return l.src.Tick()
}
