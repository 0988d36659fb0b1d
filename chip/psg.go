package chip

import (
	sn76489 "github.com/user-none/go-chip-sn76489"
)

const (
	psgBufferSize = 1024
	psgGain       = 1898.0
)

// PSG wraps the SN76489 core. The Sega variant models the VDP-integrated
// PSG of the Mega Drive and Master System (16-bit noise LFSR with taps on
// bits 0 and 3); the plain variant models the discrete TI part (15-bit
// LFSR, tone register 0 counting as 1024).
type PSG struct {
	psg  *sn76489.SN76489
	sega bool

	clocksPerSample float64
	clockAcc        float64

	pending []float32
	last    float32
}

// NewPSG creates a PSG clocked at clock Hz producing sampleRate Hz output.
func NewPSG(clock, sampleRate int, sega bool) *PSG {
	var psg *sn76489.SN76489
	if sega {
		psg = sn76489.New(clock, sampleRate, psgBufferSize, sn76489.Sega)
	} else {
		psg = sn76489.New(clock, sampleRate, psgBufferSize, sn76489.TI)
	}
	psg.SetGain(psgGain)
	return &PSG{
		psg:             psg,
		sega:            sega,
		clocksPerSample: float64(clock) / float64(sampleRate),
	}
}

// Type implements Chip.
func (p *PSG) Type() Type {
	if p.sega {
		return SEGAPSG
	}
	return SN76489
}

// Write implements Chip. The PSG has a single write port so the port
// argument is ignored.
func (p *PSG) Write(_ uint16, data uint8) {
	p.psg.Write(data)
}

// Render implements Chip. The mono output is copied to both channels.
func (p *PSG) Render(l, r []float32) {
	need := len(l)
	for len(p.pending) < need {
		// Run at most half a buffer at a time so the core never drops
		// samples.
		want := need - len(p.pending)
		if want > psgBufferSize/2 {
			want = psgBufferSize / 2
		}
		p.clockAcc += float64(want) * p.clocksPerSample
		clocks := int(p.clockAcc)
		p.clockAcc -= float64(clocks)

		p.psg.ResetBuffer()
		p.psg.Run(clocks)
		buf, n := p.psg.GetBuffer()
		if n == 0 {
			break
		}
		p.pending = append(p.pending, buf[:n]...)
	}

	for i := 0; i < need; i++ {
		if i < len(p.pending) {
			p.last = p.pending[i] / 32768
		}
		l[i] += p.last
		r[i] += p.last
	}
	if need >= len(p.pending) {
		p.pending = p.pending[:0]
	} else {
		p.pending = append(p.pending[:0], p.pending[need:]...)
	}
}
