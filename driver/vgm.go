package driver

import (
	"fmt"
	"io"
	"math"

	"github.com/user-none/chipstream/chip"
	"github.com/user-none/chipstream/slot"
)

// VGMTickRate is the VGM wait unit: one tick per 44.1 kHz sample.
const VGMTickRate = 44100

const (
	dualChipBit = 0x40000000
	clockMask   = 0x3fffffff
)

// vgmStream remembers the rate of a DAC stream set up by commands 0x90
// and 0x92.
type vgmStream struct {
	freq uint32
}

// VGM replays a Video Game Music log.
type VGM struct {
	core
	r reader

	start      int
	loopOffset int
	remain     int

	psgType   chip.Type
	blockID   int
	pcmPos    int
	pcmOffset int
	streams   map[int]*vgmStream
}

// NewVGM parses an uncompressed VGM file and creates its chips.
func NewVGM(data []byte, sampleRate, chunkSize int) (*VGM, error) {
	header, err := parseVGMHeader(data)
	if err != nil {
		return nil, err
	}
	s, err := slot.New(VGMTickRate, sampleRate, chunkSize)
	if err != nil {
		return nil, err
	}
	v := &VGM{
		core: core{
			slot:   s,
			header: header,
			tags:   blankTags(),
		},
		r:       reader{data: data},
		psgType: chip.SN76489,
		streams: make(map[int]*vgmStream),
	}
	if off := header.Uint("offset_gd3"); off != 0 && 0x14+int(off) < len(data) {
		v.tags = parseGD3(data[0x14+int(off):])
	}

	v.start = vgmDataStart(data, header.Uint("version"))
	if v.start >= len(data) {
		return nil, fmt.Errorf("%w: VGM data offset 0x%x past end of file", ErrFormat, v.start)
	}
	if off := header.Uint("offset_loop"); off != 0 {
		v.loopOffset = 0x1C + int(off)
		if v.loopOffset >= len(data) {
			v.loopOffset = 0
		}
	}
	v.r.pos = v.start

	if err := v.addChips(); err != nil {
		return nil, err
	}
	return v, nil
}

func chipCount(clock uint32) int {
	if clock&dualChipBit != 0 {
		return 2
	}
	return 1
}

// addChips creates every supported chip with a non-zero clock.
func (v *VGM) addChips() error {
	h := v.header
	if c := h.Uint("clock_sn76489"); c != 0 {
		// Sega VDP PSG variants use a 16-bit shift register tapped at 0x0009.
		if h.Uint("sn76489_fb") == 0x0009 && h.Uint("sn76489_w") == 16 {
			v.psgType = chip.SEGAPSG
		}
		if err := v.slot.AddDevice(v.psgType, chipCount(c), int(c&clockMask)); err != nil {
			return err
		}
	}
	if c := h.Uint("clock_ym2612"); c != 0 {
		if err := v.slot.AddDevice(chip.YM2612, chipCount(c), int(c&clockMask)); err != nil {
			return err
		}
	}
	if c := h.Uint("clock_ay8910"); c != 0 {
		if err := v.slot.AddDevice(chip.YM2149, chipCount(c), int(c&clockMask)); err != nil {
			return err
		}
	}
	return nil
}

// Tick implements Player.
func (v *VGM) Tick() error {
	return v.advance(1)
}

// Play implements Player.
func (v *VGM) Play() (int, error) {
	return v.fill(func() error {
		return v.advance(v.ticksToFill())
	})
}

// advance parses commands until a wait is pending and then renders up to
// limit ticks of it.
func (v *VGM) advance(limit int) error {
	jumps := 0
	for v.remain == 0 {
		if v.end {
			return io.EOF
		}
		loops := v.loops
		w, err := v.parse()
		if err != nil {
			v.end = true
			return err
		}
		// A second jump without a wait means the loop never advances time.
		if v.loops != loops {
			if jumps++; jumps > 1 {
				v.end = true
				return fmt.Errorf("%w: VGM loop at 0x%x has no wait", ErrFormat, v.loopOffset)
			}
		}
		v.remain = w
	}
	n := v.remain
	if n > limit {
		n = limit
	}
	v.slot.Update(n)
	v.remain -= n
	return nil
}

// parse runs one command and returns the ticks to wait after it.
func (v *VGM) parse() (int, error) {
	r := &v.r
	at := r.pos
	if r.pos >= len(r.data) {
		return 0, fmt.Errorf("%w: VGM data ends without end command", ErrFormat)
	}
	wait := 0
	cmd := r.u8()
	switch {
	case cmd == 0x30:
		v.slot.Write(v.psgType, 1, 0, r.u8())
	case cmd == 0x50:
		v.slot.Write(v.psgType, 0, 0, r.u8())
	case cmd == 0x52 || cmd == 0xa2:
		reg, dat := r.u8(), r.u8()
		v.slot.Write(chip.YM2612, int(cmd>>7), uint16(reg), dat)
	case cmd == 0x53 || cmd == 0xa3:
		reg, dat := r.u8(), r.u8()
		v.slot.Write(chip.YM2612, int(cmd>>7), uint16(reg)|0x100, dat)
	case cmd == 0xa0:
		reg, dat := r.u8(), r.u8()
		v.slot.Write(chip.YM2149, int(reg>>7), uint16(reg&0x7f), dat)
	case cmd == 0x61:
		wait = int(r.u16())
	case cmd == 0x62:
		wait = 735
	case cmd == 0x63:
		wait = 882
	case cmd == 0x66:
		if v.loopOffset != 0 && v.repeat {
			r.pos = v.loopOffset
			v.loops++
		} else {
			v.end = true
		}
	case cmd == 0x67:
		if err := v.dataBlock(); err != nil {
			return 0, err
		}
	case cmd >= 0x70 && cmd <= 0x7f:
		wait = int(cmd&0x0f) + 1
	case cmd >= 0x80 && cmd <= 0x8f:
		if bank := v.slot.DataBlock(0); v.pcmPos+v.pcmOffset < len(bank) {
			v.slot.Write(chip.YM2612, 0, 0x2a, bank[v.pcmPos+v.pcmOffset])
		}
		v.pcmOffset++
		wait = int(cmd & 0x0f)
	case cmd >= 0x90 && cmd <= 0x95:
		v.streamCommand(cmd)
	case cmd == 0xe0:
		v.pcmPos = int(r.u32())
		v.pcmOffset = 0

	// Commands for chips without an emulation are skipped by length.
	case cmd >= 0x31 && cmd <= 0x3f, cmd == 0x4f:
		r.skip(1)
	case cmd >= 0x40 && cmd <= 0x4e, cmd >= 0x51 && cmd <= 0x5f,
		cmd >= 0xa1 && cmd <= 0xbf:
		r.skip(2)
	case cmd == 0x64:
		r.skip(3)
	case cmd == 0x68:
		r.skip(11)
	case cmd >= 0xc0 && cmd <= 0xdf:
		r.skip(3)
	case cmd >= 0xe1:
		r.skip(4)
	default:
		return 0, fmt.Errorf("%w: unknown VGM command 0x%02x at 0x%x", ErrFormat, cmd, at)
	}
	if r.short {
		return 0, fmt.Errorf("%w: truncated VGM command 0x%02x at 0x%x", ErrFormat, cmd, at)
	}
	return wait, nil
}

// dataBlock handles 0x67 0x66 tt ss ss ss ss. Uncompressed stream data
// (types 0x00 to 0x3f) is stored under sequential block ids; other types
// are skipped.
func (v *VGM) dataBlock() error {
	r := &v.r
	at := r.pos - 1
	if r.u8() != 0x66 {
		return fmt.Errorf("%w: bad data block at 0x%x", ErrFormat, at)
	}
	typ := r.u8()
	size := int(r.u32())
	data := r.take(size)
	if r.short {
		return fmt.Errorf("%w: data block at 0x%x overruns file", ErrFormat, at)
	}
	if typ <= 0x3f {
		v.slot.AddDataBlock(v.blockID, data)
		v.blockID++
	}
	return nil
}

// streamChipType maps a DAC stream chip id to a chip type.
func (v *VGM) streamChipType(id uint8) (chip.Type, bool) {
	switch id & 0x7f {
	case 0x00:
		return v.psgType, true
	case 0x02:
		return chip.YM2612, true
	case 0x12:
		return chip.YM2149, true
	}
	return 0, false
}

// streamCommand handles the DAC stream control commands 0x90 to 0x95.
func (v *VGM) streamCommand(cmd uint8) {
	r := &v.r
	id := int(r.u8())
	switch cmd {
	case 0x90:
		tt, port, reg := r.u8(), r.u8(), r.u8()
		if t, ok := v.streamChipType(tt); ok {
			v.slot.AddDataStream(id, t, int(tt>>7), port, reg)
			v.streams[id] = &vgmStream{}
		}
	case 0x91:
		block := r.u8()
		r.skip(2) // step size and base
		v.slot.AttachDataBlock(id, int(block))
	case 0x92:
		freq := r.u32()
		if st, ok := v.streams[id]; ok {
			st.freq = freq
		}
		v.slot.SetDataStreamFrequency(id, int(freq))
	case 0x93:
		off, mode, length := r.u32(), r.u8(), r.u32()
		v.slot.StartDataStream(id, int(off), v.streamLength(id, mode, length))
	case 0x94:
		v.slot.StopDataStream(id)
	case 0x95:
		block := r.u16()
		r.skip(1) // flags
		v.slot.StartDataStreamBlock(id, int(block))
	}
}

// streamLength converts a 0x93 length in the given mode to bytes.
func (v *VGM) streamLength(id int, mode uint8, length uint32) int {
	switch mode & 0x03 {
	case 0x01:
		return int(length)
	case 0x02:
		if st, ok := v.streams[id]; ok {
			return int(uint64(length) * uint64(st.freq) / 1000)
		}
		return 0
	}
	// Play until the end of the block.
	return math.MaxInt32
}
