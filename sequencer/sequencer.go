// Package sequencer interprets byte-coded scores into YM2149 register
// writes, one tick at a time.
//
// A score has up to three tracks, one per SSG channel. Each track is a
// byte stream of control commands, which take effect immediately, and
// note or rest events, which carry a wait operand measured in ticks.
package sequencer

import (
	"errors"
	"fmt"

	"github.com/user-none/chipstream/chip"
	"github.com/user-none/chipstream/slot"
)

// MaxTracks is the number of tone channels on a YM2149.
const MaxTracks = 3

// InitialMixing is the mixer register value written by Init: all noise
// off, all tones on and the I/O port bits set.
const InitialMixing uint8 = 0b10111000

// YM2149 register numbers used by the sequencer.
const (
	regNoise  = 0x06
	regMixer  = 0x07
	regVolume = 0x08
)

// ErrDecode is returned when a track holds a byte that is neither a
// control command nor a valid note, or when a track ends without a loop
// command.
var ErrDecode = errors.New("sequencer: decode error")

// TrackState is the playback cursor of one track.
type TrackState struct {
	PC     int
	Wait   int
	Detune int8
	Halted bool
	Err    error
}

// Sequencer decodes score tracks and writes the resulting register values
// to a YM2149 through a Sink.
type Sequencer struct {
	sink  slot.Sink
	index int

	tracks [][]byte
	state  [MaxTracks]TrackState
	mixing uint8
	loops  int
	ref    int
}

// New creates a sequencer for tracks targeting YM2149 index 0 on sink.
// Tracks may be empty; more than MaxTracks is an error.
func New(sink slot.Sink, tracks [][]byte) (*Sequencer, error) {
	if len(tracks) > MaxTracks {
		return nil, fmt.Errorf("sequencer: %d tracks, at most %d supported", len(tracks), MaxTracks)
	}
	s := &Sequencer{
		sink:   sink,
		tracks: make([][]byte, len(tracks)),
		ref:    -1,
	}
	for i, t := range tracks {
		s.tracks[i] = append([]byte(nil), t...)
		if s.ref < 0 && len(t) > 0 {
			s.ref = i
		}
	}
	s.Reset()
	return s, nil
}

// SetChipIndex selects which YM2149 in the slot receives writes.
func (s *Sequencer) SetChipIndex(index int) {
	s.index = index
}

// Reset rewinds every track and clears the loop counter. The mixing
// register is not written; call Init for that.
func (s *Sequencer) Reset() {
	for i := range s.state {
		s.state[i] = TrackState{}
	}
	s.mixing = InitialMixing
	s.loops = 0
}

// Init writes the initial mixer value to the chip.
func (s *Sequencer) Init() {
	s.mixing = InitialMixing
	s.write(regMixer, s.mixing)
}

// Tracks returns the number of tracks, including empty ones.
func (s *Sequencer) Tracks() int {
	return len(s.tracks)
}

// State returns a copy of a track's cursor.
func (s *Sequencer) State(track int) TrackState {
	return s.state[track]
}

// Mixing returns the shared mixer register value.
func (s *Sequencer) Mixing() uint8 {
	return s.mixing
}

// LoopCount returns how many times the reference track has looped. The
// reference track is the lowest-numbered non-empty track.
func (s *Sequencer) LoopCount() int {
	return s.loops
}

// Active reports whether any non-empty track is still running.
func (s *Sequencer) Active() bool {
	for i, t := range s.tracks {
		if len(t) > 0 && !s.state[i].Halted {
			return true
		}
	}
	return false
}

func (s *Sequencer) write(port uint16, data uint8) {
	s.sink.Write(chip.YM2149, s.index, port, data)
}

// halt stops a track with a decode error.
func (s *Sequencer) halt(track int, format string, args ...any) error {
	st := &s.state[track]
	st.Halted = true
	st.Err = fmt.Errorf("%w: track %d: %s", ErrDecode, track, fmt.Sprintf(format, args...))
	return st.Err
}

// operand reads the byte following the command at pc.
func (s *Sequencer) operand(track, pc int) (uint8, error) {
	data := s.tracks[track]
	if pc+1 >= len(data) {
		return 0, s.halt(track, "missing operand at pc %d", pc)
	}
	return data[pc+1], nil
}

// AdvanceTick runs one tick of track. Empty and halted tracks are skipped.
// A pending wait is decremented; otherwise control commands are applied
// until a note, rest or loop command ends the tick.
func (s *Sequencer) AdvanceTick(track int) error {
	if track < 0 || track >= len(s.tracks) {
		return fmt.Errorf("sequencer: track %d out of range", track)
	}
	data := s.tracks[track]
	st := &s.state[track]
	if len(data) == 0 || st.Halted {
		return nil
	}
	if st.Wait > 0 {
		st.Wait--
		return nil
	}

	for {
		if st.PC >= len(data) {
			return s.halt(track, "end of track at pc %d without loop", st.PC)
		}
		op := Opcode(data[st.PC])
		switch {
		case op == OpLoop:
			st.PC = 0
			if track == s.ref {
				s.loops++
			}
			return nil

		case op.IsControl():
			v, err := s.operand(track, st.PC)
			if err != nil {
				return err
			}
			s.control(track, op, v)
			st.PC += 2

		case op == OpRest || op.IsNote():
			w, err := s.operand(track, st.PC)
			if err != nil {
				return err
			}
			if op.IsNote() {
				tone := ToneTable[op]
				lo := uint8((int(tone) + int(st.Detune)) & 0xFF)
				s.write(uint16(track*2), lo)
				s.write(uint16(track*2+1), uint8(tone>>8))
			}
			st.Wait = int(w) - 1
			if st.Wait < 0 {
				st.Wait = 0
			}
			st.PC += 2
			return nil

		default:
			return s.halt(track, "invalid %v at pc %d", op, st.PC)
		}
	}
}

// control applies a zero-time command.
func (s *Sequencer) control(track int, op Opcode, v uint8) {
	switch op {
	case OpVolume:
		s.write(uint16(regVolume+track), v)
	case OpMixing:
		tone := (v & 0b10) << uint(track+2)
		noise := (v & 0b01) << uint(track)
		s.mixing |= tone | noise
		s.write(regMixer, s.mixing)
	case OpNoise:
		s.write(regNoise, v)
	case OpDetune:
		s.state[track].Detune = int8(v)
	}
}
