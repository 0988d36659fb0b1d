// Package slot hosts a set of sound chips driven at an external tick rate
// and accumulates their mixed output into fixed-size PCM chunks.
package slot

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/user-none/chipstream/chip"
)

// Sink receives chip register writes.
type Sink interface {
	Write(t chip.Type, index int, port uint16, data uint8)
}

// Slot is a SoundSlot: a registry of chips keyed by (type, index), a
// tick-to-sample accumulator and the chunk stream drained from it.
//
// Update advances the devices by whole ticks. Output samples are generated
// whenever the fractional output position crosses a sample boundary, so a
// tick rate lower than the sample rate yields one or more samples per tick.
type Slot struct {
	tickRate   int
	sampleRate int
	chunkSize  int

	pos  float64
	step float64

	devices map[chip.Type][]chip.Chip
	order   []chip.Type

	bufL, bufR []float32
	outL, outR []float32
	pcm        []byte

	blocks  map[int][]byte
	streams map[int]*dataStream
	ids     []int
}

// Compile-time interface check.
var _ Sink = (*Slot)(nil)

// New creates a slot. sampleRate must be at least tickRate.
func New(tickRate, sampleRate, chunkSize int) (*Slot, error) {
	if tickRate <= 0 || sampleRate <= 0 || chunkSize <= 0 {
		return nil, fmt.Errorf("slot: invalid rates tick=%d sample=%d chunk=%d", tickRate, sampleRate, chunkSize)
	}
	if sampleRate < tickRate {
		return nil, fmt.Errorf("slot: sample rate %d below tick rate %d", sampleRate, tickRate)
	}
	return &Slot{
		tickRate:   tickRate,
		sampleRate: sampleRate,
		chunkSize:  chunkSize,
		step:       float64(tickRate) / float64(sampleRate),
		devices:    make(map[chip.Type][]chip.Chip),
		bufL:       make([]float32, 0, chunkSize*2),
		bufR:       make([]float32, 0, chunkSize*2),
		outL:       make([]float32, chunkSize),
		outR:       make([]float32, chunkSize),
		pcm:        make([]byte, chunkSize*4),
		blocks:     make(map[int][]byte),
		streams:    make(map[int]*dataStream),
	}, nil
}

// SampleRate returns the output sample rate.
func (s *Slot) SampleRate() int { return s.sampleRate }

// TickRate returns the external tick rate.
func (s *Slot) TickRate() int { return s.tickRate }

// ChunkSize returns the number of stereo samples per chunk.
func (s *Slot) ChunkSize() int { return s.chunkSize }

// SetTickRate changes the external tick rate. It only behaves correctly
// before the first Update.
func (s *Slot) SetTickRate(tickRate int) error {
	if tickRate <= 0 || tickRate > s.sampleRate {
		return fmt.Errorf("slot: invalid tick rate %d", tickRate)
	}
	s.tickRate = tickRate
	s.step = float64(tickRate) / float64(s.sampleRate)
	return nil
}

// AddDevice creates count chips of type t clocked at clock Hz. Indexes
// continue after any devices of the same type already present.
func (s *Slot) AddDevice(t chip.Type, count, clock int) error {
	for i := 0; i < count; i++ {
		c, err := chip.New(t, clock, s.sampleRate)
		if err != nil {
			return err
		}
		s.Attach(c)
	}
	return nil
}

// Attach adds an existing chip and returns its index within its type.
func (s *Slot) Attach(c chip.Chip) int {
	t := c.Type()
	if _, ok := s.devices[t]; !ok {
		s.order = append(s.order, t)
		sort.Slice(s.order, func(i, j int) bool { return s.order[i] < s.order[j] })
	}
	s.devices[t] = append(s.devices[t], c)
	return len(s.devices[t]) - 1
}

// Device returns the chip at (t, index), or nil when there is none.
func (s *Slot) Device(t chip.Type, index int) chip.Chip {
	list := s.devices[t]
	if index < 0 || index >= len(list) {
		return nil
	}
	return list[index]
}

// DeviceCount returns the number of chips of type t.
func (s *Slot) DeviceCount(t chip.Type) int {
	return len(s.devices[t])
}

// Write implements Sink. Writes to a device that does not exist are
// ignored.
func (s *Slot) Write(t chip.Type, index int, port uint16, data uint8) {
	if c := s.Device(t, index); c != nil {
		c.Write(port, data)
	}
}

// Update advances the slot by ticks external ticks.
func (s *Slot) Update(ticks int) {
	for ; ticks > 0; ticks-- {
		s.stepStreams()

		n := 0
		for s.pos < 1 {
			n++
			s.pos += s.step
		}
		s.pos--
		if n == 0 {
			continue
		}

		start := len(s.bufL)
		for i := 0; i < n; i++ {
			s.bufL = append(s.bufL, 0)
			s.bufR = append(s.bufR, 0)
		}
		l, r := s.bufL[start:], s.bufR[start:]
		for _, t := range s.order {
			for _, c := range s.devices[t] {
				c.Render(l, r)
			}
		}
	}
}

// Buffered returns the number of accumulated samples not yet streamed.
func (s *Slot) Buffered() int {
	return len(s.bufL)
}

// IsStreamFilled reports whether a full chunk is accumulated.
func (s *Slot) IsStreamFilled() bool {
	return len(s.bufL) >= s.chunkSize
}

// Stream drains one chunk from the accumulator and returns it as
// interleaved little-endian signed 16-bit stereo. A final partial chunk is
// zero-padded. The returned slice is reused by the next call.
func (s *Slot) Stream() []byte {
	n := s.chunkSize
	if len(s.bufL) < n {
		n = len(s.bufL)
		for i := range s.outL {
			s.outL[i] = 0
			s.outR[i] = 0
		}
	}
	copy(s.outL, s.bufL[:n])
	copy(s.outR, s.bufR[:n])
	s.bufL = append(s.bufL[:0], s.bufL[n:]...)
	s.bufR = append(s.bufR[:0], s.bufR[n:]...)

	for i := 0; i < s.chunkSize; i++ {
		binary.LittleEndian.PutUint16(s.pcm[i*4:], uint16(ToS16(s.outL[i])))
		binary.LittleEndian.PutUint16(s.pcm[i*4+2:], uint16(ToS16(s.outR[i])))
	}
	return s.pcm
}

// Float returns the left and right float samples of the last streamed
// chunk. The slices are reused by the next Stream call.
func (s *Slot) Float() ([]float32, []float32) {
	return s.outL, s.outR
}

// ToS16 converts a float sample to signed 16-bit, saturating at the range
// limits.
func ToS16(f float32) int16 {
	v := f * 32768
	if v < -32768 {
		v = -32768
	}
	if v > 32767 {
		v = 32767
	}
	return int16(v)
}
