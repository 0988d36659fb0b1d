package sequencer

import (
	"errors"
	"io"
)

// Updater renders ticks of audio into an accumulator.
type Updater interface {
	Update(ticks int)
}

// Driver advances every track of a Sequencer once per tick and then asks
// the chip backend to render that tick.
type Driver struct {
	seq      *Sequencer
	out      Updater
	maxLoops int
}

// NewDriver creates a driver. When maxLoops is positive, Tick reports
// io.EOF once the reference track has looped that many times.
func NewDriver(seq *Sequencer, out Updater, maxLoops int) *Driver {
	return &Driver{seq: seq, out: out, maxLoops: maxLoops}
}

// Sequencer returns the driven sequencer.
func (d *Driver) Sequencer() *Sequencer {
	return d.seq
}

// Done reports whether playback is finished: the loop limit was reached
// or no track is still running.
func (d *Driver) Done() bool {
	if d.maxLoops > 0 && d.seq.LoopCount() >= d.maxLoops {
		return true
	}
	return !d.seq.Active()
}

// Tick runs one logical tick. Decode errors from individual tracks are
// joined and returned; the tick is still rendered so the remaining
// tracks keep playing. io.EOF is returned once Done.
func (d *Driver) Tick() error {
	if d.Done() {
		return io.EOF
	}
	var errs []error
	for t := 0; t < d.seq.Tracks(); t++ {
		if err := d.seq.AdvanceTick(t); err != nil {
			errs = append(errs, err)
		}
	}
	d.out.Update(1)
	return errors.Join(errs...)
}
