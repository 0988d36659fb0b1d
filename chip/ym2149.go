package chip

import (
	"github.com/arl/blip"
)

// ymVolume is the YM2149 logarithmic DAC curve for the 16 fixed levels.
var ymVolume = [16]int32{
	62, 161, 265, 377, 580, 774, 1155, 1575,
	2260, 3088, 4570, 6233, 9330, 13187, 21220, 32767,
}

const (
	ymFrameSteps  = 64
	ymRenderPiece = 1024
)

// SSG is the Yamaha YM2149: three square-wave tone channels, a shared
// noise generator and a 32-step envelope.
//
// The input clock is halved internally as with the SEL pin held low, so a
// 3.58 MHz clock plays the tone table in concert pitch. The generators run
// at clock/16 and are band-limited into the output rate with blip.
type SSG struct {
	regs [16]uint8

	tone     [3]uint16
	toneCnt  [3]uint16
	toneBit  [3]uint8
	noisePer uint16
	noiseCnt uint16
	lfsr     uint32

	envPer   uint32
	envCnt   uint32
	envStep  uint8
	envInv   uint8
	envHold  bool
	envShape uint8

	buf *blip.Buffer
	amp int32
	tmp []int16
}

// NewSSG creates a YM2149 clocked at clock Hz rendering at sampleRate Hz.
func NewSSG(clock, sampleRate int) *SSG {
	buf := blip.NewBuffer(sampleRate / 10)
	buf.SetRates(float64(clock/16), float64(sampleRate))
	piece := ymRenderPiece
	if limit := sampleRate / 20; limit > 0 && piece > limit {
		piece = limit
	}
	y := &SSG{
		lfsr: 1,
		buf:  buf,
		tmp:  make([]int16, piece),
	}
	y.regs[7] = 0x3F
	for i := range y.tone {
		y.tone[i] = 1
	}
	y.noisePer = 1
	y.envPer = 1
	return y
}

// Type implements Chip.
func (y *SSG) Type() Type { return YM2149 }

// Write implements Chip. Ports 0-13 address the SSG registers.
func (y *SSG) Write(port uint16, data uint8) {
	reg := int(port & 0x0F)
	if reg > 13 {
		return
	}
	y.regs[reg] = data
	switch reg {
	case 0, 1, 2, 3, 4, 5:
		ch := reg >> 1
		p := uint16(y.regs[ch*2]) | uint16(y.regs[ch*2+1]&0x0F)<<8
		if p == 0 {
			p = 1
		}
		y.tone[ch] = p
	case 6:
		y.noisePer = uint16(data & 0x1F)
		if y.noisePer == 0 {
			y.noisePer = 1
		}
	case 11, 12:
		y.envPer = uint32(y.regs[11]) | uint32(y.regs[12])<<8
		if y.envPer == 0 {
			y.envPer = 1
		}
	case 13:
		y.envShape = data & 0x0F
		y.envStep = 0
		y.envCnt = 0
		y.envHold = false
		if y.envShape&0x04 != 0 {
			y.envInv = 0
		} else {
			y.envInv = 0x1F
		}
	}
}

// Register returns the last value written to reg.
func (y *SSG) Register(reg int) uint8 {
	return y.regs[reg&0x0F]
}

func (y *SSG) envLevel() uint8 {
	return (y.envStep ^ y.envInv) & 0x1F
}

func (y *SSG) stepEnvelope() {
	if y.envHold {
		return
	}
	y.envCnt++
	if y.envCnt < y.envPer {
		return
	}
	y.envCnt = 0
	if y.envStep < 31 {
		y.envStep++
		return
	}
	switch {
	case y.envShape&0x08 == 0:
		y.envHold = true
		y.envInv = 0x1F
	case y.envShape&0x01 != 0:
		y.envHold = true
		if y.envShape&0x02 != 0 {
			y.envInv ^= 0x1F
		}
	case y.envShape&0x02 != 0:
		y.envInv ^= 0x1F
		y.envStep = 0
	default:
		y.envStep = 0
	}
}

// output returns the mixed level of the three channels for the current
// generator state.
func (y *SSG) output() int32 {
	mixer := y.regs[7]
	noise := uint8(y.lfsr & 1)
	var sum int32
	for ch := 0; ch < 3; ch++ {
		toneOn := y.toneBit[ch] | (mixer>>uint(ch))&1
		noiseOn := noise | (mixer>>uint(ch+3))&1
		if toneOn&noiseOn == 0 {
			continue
		}
		vol := y.regs[8+ch]
		if vol&0x10 != 0 {
			sum += ymVolume[y.envLevel()>>1]
		} else {
			sum += ymVolume[vol&0x0F]
		}
	}
	return sum >> 2
}

// run advances the generators by steps and feeds level changes to blip.
func (y *SSG) run(steps int) {
	for t := 0; t < steps; t++ {
		for ch := range y.tone {
			y.toneCnt[ch]++
			if y.toneCnt[ch] >= y.tone[ch] {
				y.toneCnt[ch] = 0
				y.toneBit[ch] ^= 1
			}
		}
		y.noiseCnt++
		if y.noiseCnt >= 2*y.noisePer {
			y.noiseCnt = 0
			bit := (y.lfsr ^ y.lfsr>>3) & 1
			y.lfsr = y.lfsr>>1 | bit<<16
		}
		y.stepEnvelope()

		if out := y.output(); out != y.amp {
			y.buf.AddDelta(uint64(t), out-y.amp)
			y.amp = out
		}
	}
}

// Render implements Chip. The mono output is copied to both channels.
func (y *SSG) Render(l, r []float32) {
	for done := 0; done < len(l); {
		n := len(l) - done
		if n > len(y.tmp) {
			n = len(y.tmp)
		}
		for y.buf.SamplesAvailable() < n {
			y.run(ymFrameSteps)
			y.buf.EndFrame(ymFrameSteps)
		}
		got := y.buf.ReadSamples(y.tmp[:n], n, blip.Mono)
		for i := 0; i < got; i++ {
			s := float32(y.tmp[i]) / 32768
			l[done+i] += s
			r[done+i] += s
		}
		done += got
		if got == 0 {
			break
		}
	}
}
