package driver

import (
	"fmt"
	"io"

	"github.com/user-none/chipstream/chip"
	"github.com/user-none/chipstream/slot"
)

// XGMTickRate is the PCM rate of the XGM Z80 driver. Frame waits are
// converted to ticks of this rate.
const XGMTickRate = 14000

const (
	xgmMagic       = "XGM "
	xgmSampleTable = 0x04
	xgmSampleCount = 63
	xgmSampleData  = 0x104
	xgmChannels    = 4

	masterClockNTSC = 53693175
	masterClockPAL  = 53203424
)

// pcmChannel is one of the four XGM sample voices.
type pcmChannel struct {
	data     []byte
	pos      int
	priority uint8
}

func (c *pcmChannel) active() bool {
	return c.pos < len(c.data)
}

// XGM replays a Sega Genesis XGM music file. Samples started by the music
// are mixed into the YM2612 DAC at XGMTickRate.
type XGM struct {
	core
	r reader

	music    int
	musicEnd int
	samples  [xgmSampleCount][]byte

	fps      int
	frameAcc int
	remain   int

	pcm       [xgmChannels]pcmChannel
	dacActive bool
}

// NewXGM parses an uncompressed XGM file and creates its chips.
func NewXGM(data []byte, sampleRate, chunkSize int) (*XGM, error) {
	if len(data) < xgmSampleData+4 || string(data[:4]) != xgmMagic {
		return nil, fmt.Errorf("%w: not an XGM file", ErrFormat)
	}
	slen := int(le(data, 0x100, 2)) * 256
	version := data[0x102]
	flags := data[0x103]
	music := xgmSampleData + slen + 4
	if music > len(data) {
		return nil, fmt.Errorf("%w: XGM sample data overruns file", ErrFormat)
	}
	mlen := int(le(data, music-4, 4))
	musicEnd := music + mlen
	if musicEnd > len(data) {
		musicEnd = len(data)
	}

	x := &XGM{
		r:        reader{data: data, pos: music},
		music:    music,
		musicEnd: musicEnd,
		fps:      60,
	}
	mode, master := "NTSC", masterClockNTSC
	if flags&0x01 != 0 {
		mode, master, x.fps = "PAL", masterClockPAL, 50
	}

	count := 0
	for i := range x.samples {
		addr := le(data, xgmSampleTable+i*4, 2)
		size := int(le(data, xgmSampleTable+i*4+2, 2)) * 256
		if addr == 0xFFFF {
			continue
		}
		start := xgmSampleData + int(addr)*256
		end := start + size
		if start >= music-4 || size == 0 {
			continue
		}
		if end > music-4 {
			end = music - 4
		}
		x.samples[i] = data[start:end]
		count++
	}

	x.header = Meta{
		"sample_data_bloc_size": uint32(slen / 256),
		"version":               uint32(version),
		"vdp_mode":              mode,
		"gd3_tag":               flags&0x02 != 0,
		"multi_track_file":      flags&0x04 != 0,
		"music_data_bloc_size":  uint32(mlen),
		"sample_count":          uint32(count),
	}
	x.tags = blankTags()
	if flags&0x02 != 0 && music+mlen < len(data) {
		x.tags = parseGD3(data[music+mlen:])
	}

	s, err := slot.New(XGMTickRate, sampleRate, chunkSize)
	if err != nil {
		return nil, err
	}
	x.slot = s
	if err := s.AddDevice(chip.YM2612, 1, master/7); err != nil {
		return nil, err
	}
	if err := s.AddDevice(chip.SEGAPSG, 1, master/15); err != nil {
		return nil, err
	}
	return x, nil
}

// Tick implements Player.
func (x *XGM) Tick() error {
	jumps := 0
	for x.remain == 0 {
		if x.end {
			return io.EOF
		}
		loops := x.loops
		if err := x.parse(); err != nil {
			x.end = true
			return err
		}
		if x.loops != loops {
			if jumps++; jumps > 1 {
				x.end = true
				return fmt.Errorf("%w: XGM loop has no frame wait", ErrFormat)
			}
		}
	}
	x.mixPCM()
	x.slot.Update(1)
	x.remain--
	return nil
}

// Play implements Player.
func (x *XGM) Play() (int, error) {
	return x.fill(x.Tick)
}

// frameTicks spreads XGMTickRate over fps frames so that every second
// has exactly XGMTickRate ticks.
func (x *XGM) frameTicks() int {
	x.frameAcc += XGMTickRate
	n := x.frameAcc / x.fps
	x.frameAcc %= x.fps
	return n
}

// parse runs one music command.
func (x *XGM) parse() error {
	r := &x.r
	at := r.pos
	if r.pos >= x.musicEnd {
		return fmt.Errorf("%w: XGM music data ends without end command", ErrFormat)
	}
	cmd := r.u8()
	n := int(cmd&0x0f) + 1
	switch cmd >> 4 {
	case 0x0:
		if cmd != 0x00 {
			return fmt.Errorf("%w: unknown XGM command 0x%02x at 0x%x", ErrFormat, cmd, at)
		}
		x.remain = x.frameTicks()
	case 0x1:
		for i := 0; i < n; i++ {
			x.slot.Write(chip.SEGAPSG, 0, 0, r.u8())
		}
	case 0x2, 0x3:
		var bank uint16
		if cmd>>4 == 0x3 {
			bank = 0x100
		}
		for i := 0; i < n; i++ {
			reg, dat := r.u8(), r.u8()
			x.slot.Write(chip.YM2612, 0, bank|uint16(reg), dat)
		}
	case 0x4:
		for i := 0; i < n; i++ {
			x.slot.Write(chip.YM2612, 0, 0x28, r.u8())
		}
	case 0x5:
		x.startPCM(int(cmd&0x03), (cmd>>2)&0x03, r.u8())
	case 0x7:
		switch cmd {
		case 0x7e:
			off := int(r.u24())
			if x.repeat {
				r.pos = x.music + off
				x.loops++
			} else {
				x.end = true
			}
		case 0x7f:
			x.end = true
		default:
			return fmt.Errorf("%w: unknown XGM command 0x%02x at 0x%x", ErrFormat, cmd, at)
		}
	default:
		return fmt.Errorf("%w: unknown XGM command 0x%02x at 0x%x", ErrFormat, cmd, at)
	}
	if r.short {
		return fmt.Errorf("%w: truncated XGM command 0x%02x at 0x%x", ErrFormat, cmd, at)
	}
	return nil
}

// startPCM plays sample id on channel ch. Id 0 stops the channel. A
// playing sample is only replaced by one of equal or higher priority.
func (x *XGM) startPCM(ch int, priority, id uint8) {
	c := &x.pcm[ch]
	if id == 0 {
		*c = pcmChannel{}
		return
	}
	if c.active() && priority < c.priority {
		return
	}
	if int(id) > xgmSampleCount {
		return
	}
	*c = pcmChannel{data: x.samples[id-1], priority: priority}
}

// mixPCM sums one signed 8-bit sample from each playing channel into the
// DAC register. The DAC is centered once the last channel stops.
func (x *XGM) mixPCM() {
	var sum int
	playing := false
	for i := range x.pcm {
		c := &x.pcm[i]
		if !c.active() {
			continue
		}
		sum += int(int8(c.data[c.pos]))
		c.pos++
		playing = true
	}
	if !playing {
		if x.dacActive {
			x.slot.Write(chip.YM2612, 0, 0x2a, 0x80)
			x.dacActive = false
		}
		return
	}
	if sum > 127 {
		sum = 127
	} else if sum < -128 {
		sum = -128
	}
	x.slot.Write(chip.YM2612, 0, 0x2a, uint8(sum+128))
	x.dacActive = true
}
