// Package driver replays recorded sound chip logs. VGM and XGM files are
// decoded into register writes on a slot.Slot and rendered one chunk at a
// time.
package driver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/user-none/chipstream/slot"
)

// StatusEnd is returned by Play once the log has ended and every rendered
// sample has been streamed.
const StatusEnd = -1

// ErrFormat is returned for data that is not a supported log, or a log
// whose command stream is truncated or malformed.
var ErrFormat = errors.New("driver: invalid format")

// Meta holds parsed header or tag fields keyed by name.
type Meta map[string]any

// JSON renders m as a JSON object. Keys are sorted.
func (m Meta) JSON() string {
	b, err := json.Marshal(map[string]any(m))
	if err != nil {
		return ""
	}
	return string(b)
}

// Uint returns a numeric field, or 0 when absent.
func (m Meta) Uint(key string) uint32 {
	v, _ := m[key].(uint32)
	return v
}

// Str returns a string field, or "" when absent.
func (m Meta) Str(key string) string {
	v, _ := m[key].(string)
	return v
}

// Player replays one log.
type Player interface {
	// Tick renders one tick of the log into the slot. It returns io.EOF
	// once the log has ended.
	Tick() error
	// Play renders exactly one chunk and returns the loop count, or
	// StatusEnd when nothing is left. The error reports a malformed
	// command stream; the chunk rendered up to that point is still kept.
	Play() (int, error)
	// Chunk returns the most recent chunk from Play. It is only valid
	// until the next call to Play.
	Chunk() []byte
	// Slot returns the slot the log renders into.
	Slot() *slot.Slot
	// SetRepeat makes the log loop forever instead of ending.
	SetRepeat(repeat bool)
	Header() Meta
	Tags() Meta
}

// Open detects the format of data, decompressing it first when gzipped,
// and returns a player rendering at sampleRate in chunks of chunkSize
// stereo samples.
func Open(data []byte, sampleRate, chunkSize int) (Player, error) {
	raw, err := Extract(data)
	if err != nil {
		return nil, err
	}
	var p Player
	switch {
	case bytes.HasPrefix(raw, []byte(vgmMagic)):
		p, err = NewVGM(raw, sampleRate, chunkSize)
	case bytes.HasPrefix(raw, []byte(xgmMagic)):
		p, err = NewXGM(raw, sampleRate, chunkSize)
	default:
		err = fmt.Errorf("%w: unknown file signature", ErrFormat)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// core holds what VGM and XGM playback share.
type core struct {
	slot   *slot.Slot
	header Meta
	tags   Meta
	repeat bool
	loops  int
	end    bool
	chunk  []byte
}

func (c *core) Slot() *slot.Slot      { return c.slot }
func (c *core) Header() Meta          { return c.header }
func (c *core) Tags() Meta            { return c.tags }
func (c *core) Chunk() []byte         { return c.chunk }
func (c *core) SetRepeat(repeat bool) { c.repeat = repeat }

// fill calls advance until the slot holds a chunk or the log ends, then
// streams one chunk.
func (c *core) fill(advance func() error) (int, error) {
	var err error
	for !c.slot.IsStreamFilled() {
		if e := advance(); e != nil {
			if e != io.EOF {
				err = e
			}
			break
		}
	}
	c.chunk = c.slot.Stream()
	if c.end && c.slot.Buffered() == 0 {
		return StatusEnd, err
	}
	return c.loops, err
}

// ticksToFill returns how many ticks render at least the samples missing
// from the current chunk.
func (c *core) ticksToFill() int {
	need := c.slot.ChunkSize() - c.slot.Buffered()
	if need <= 0 {
		return 1
	}
	sr := c.slot.SampleRate()
	n := (need*c.slot.TickRate() + sr - 1) / sr
	if n < 1 {
		n = 1
	}
	return n
}

// reader walks a byte slice. Reads past the end return zero and set short.
type reader struct {
	data  []byte
	pos   int
	short bool
}

func (r *reader) u8() uint8 {
	if r.pos >= len(r.data) {
		r.short = true
		r.pos++
		return 0
	}
	v := r.data[r.pos]
	r.pos++
	return v
}

func (r *reader) u16() uint16 {
	return uint16(r.u8()) | uint16(r.u8())<<8
}

func (r *reader) u24() uint32 {
	return uint32(r.u16()) | uint32(r.u8())<<16
}

func (r *reader) u32() uint32 {
	return uint32(r.u16()) | uint32(r.u16())<<16
}

func (r *reader) skip(n int) {
	r.pos += n
	if r.pos > len(r.data) {
		r.short = true
	}
}

// take returns the next n bytes without copying.
func (r *reader) take(n int) []byte {
	if n < 0 || r.pos+n > len(r.data) {
		r.short = true
		r.pos = len(r.data)
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

// le reads a little-endian field of size bytes at off, or 0 when it lies
// past the end of data.
func le(data []byte, off, size int) uint32 {
	var v uint32
	for i := size - 1; i >= 0; i-- {
		v <<= 8
		if off+i < len(data) {
			v |= uint32(data[off+i])
		}
	}
	return v
}
