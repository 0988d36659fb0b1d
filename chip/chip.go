// Package chip implements the sound chips a SoundSlot can host.
//
// Every chip accepts register writes and renders stereo float32 samples at
// the output sample rate it was created with. Samples are added into the
// destination buffers so a slot can sum several devices in place.
package chip

import (
	"errors"
	"fmt"
)

// Type identifies a sound chip family. The numeric values are stable and
// match the chip type ids used by score files and the instance API.
type Type int

const (
	YM2149 Type = iota
	YM2151
	YM2203
	YM2413
	YM2608
	YM2610
	YM2612
	YM3526
	Y8950
	YM3812
	YMF262
	YMF278B
	SEGAPSG
	SN76489
	PWM
	SEGAPCM
	OKIM6258
	C140
	C219
)

var typeNames = [...]string{
	YM2149:   "YM2149",
	YM2151:   "YM2151",
	YM2203:   "YM2203",
	YM2413:   "YM2413",
	YM2608:   "YM2608",
	YM2610:   "YM2610",
	YM2612:   "YM2612",
	YM3526:   "YM3526",
	Y8950:    "Y8950",
	YM3812:   "YM3812",
	YMF262:   "YMF262",
	YMF278B:  "YMF278B",
	SEGAPSG:  "SEGAPSG",
	SN76489:  "SN76489",
	PWM:      "PWM",
	SEGAPCM:  "SEGAPCM",
	OKIM6258: "OKIM6258",
	C140:     "C140",
	C219:     "C219",
}

func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ErrUnsupported is returned by New for chip types without an emulation.
var ErrUnsupported = errors.New("chip: unsupported chip type")

// Chip is a sound chip emulation.
type Chip interface {
	// Write sets a register. For two-part chips the port carries the part
	// in bit 8 (0x100 selects the second register bank).
	Write(port uint16, data uint8)

	// Render produces len(l) samples at the output rate and adds them
	// into l and r. len(r) must equal len(l).
	Render(l, r []float32)

	// Type returns the chip family.
	Type() Type
}

// New creates a chip of the given type running at clock Hz and producing
// samples at sampleRate Hz.
func New(t Type, clock, sampleRate int) (Chip, error) {
	if clock <= 0 || sampleRate <= 0 {
		return nil, fmt.Errorf("chip: %v: invalid clock %d or sample rate %d", t, clock, sampleRate)
	}
	switch t {
	case YM2612:
		return NewOPN2(clock, sampleRate), nil
	case YM2149:
		return NewSSG(clock, sampleRate), nil
	case SEGAPSG:
		return NewPSG(clock, sampleRate, true), nil
	case SN76489:
		return NewPSG(clock, sampleRate, false), nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupported, t)
}

// clampInt32 clamps v to [min, max].
func clampInt32(v, min, max int32) int32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
