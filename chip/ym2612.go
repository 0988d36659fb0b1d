package chip

// Envelope phases.
const (
	egAttack  = 0
	egDecay   = 1
	egSustain = 2
	egRelease = 3
)

// fmOperator holds the decoded register state and the running generator
// state of one operator slot.
type fmOperator struct {
	dt  uint8 // detune, bit 2 is the sign
	mul uint8 // 0 means x0.5
	tl  uint8 // 7-bit attenuation
	rs  uint8 // rate scaling
	ar  uint8
	d1r uint8
	d2r uint8
	d1l uint8
	rr  uint8
	am  bool

	ssgEG       uint8
	ssgInverted bool

	phase    uint32 // 20-bit accumulator
	phaseInc uint32
	keyCode  uint8

	egState uint8
	egLevel uint16 // 10-bit attenuation, 0x3FF is silent
	keyOn   bool

	out [2]int16 // last two outputs, used by feedback
}

// fmChannel is one of the six FM voices.
type fmChannel struct {
	op [4]fmOperator

	fNum  uint16
	block uint8

	algorithm uint8
	feedback  uint8
	panL      bool
	panR      bool
	ams       uint8
	fms       uint8
}

// OPN2 is the Yamaha YM2612 FM synthesizer.
//
// The chip runs at its native rate (clock / 144) and is resampled to the
// output rate by sample-and-hold with a Bresenham accumulator.
type OPN2 struct {
	sampleRate  int
	nativeClock int
	resampAcc   int

	ch [6]fmChannel

	dacEnable bool
	dacSample uint8

	lfoEnable bool
	lfoFreq   uint8
	lfoCnt    uint16
	lfoStep   uint8
	lfoAMOut  uint8

	ch3Special bool
	ch3Freq    [3]uint16
	ch3Block   [3]uint8

	egCounter uint16
	egClock   uint8

	lastL, lastR int32
}

// NewOPN2 creates a YM2612 clocked at clock Hz (the 68000 clock on a
// Mega Drive, 7670453 NTSC) rendering at sampleRate Hz.
func NewOPN2(clock, sampleRate int) *OPN2 {
	y := &OPN2{
		sampleRate:  sampleRate,
		nativeClock: clock / 144,
		dacSample:   0x80,
	}
	for c := range y.ch {
		y.ch[c].panL = true
		y.ch[c].panR = true
		for o := range y.ch[c].op {
			y.ch[c].op[o].egState = egRelease
			y.ch[c].op[o].egLevel = 0x3FF
		}
	}
	return y
}

// Type implements Chip.
func (y *OPN2) Type() Type { return YM2612 }

// Write implements Chip. Bit 8 of port selects part II (channels 4-6).
func (y *OPN2) Write(port uint16, data uint8) {
	part := int(port>>8) & 1
	addr := uint8(port)
	switch {
	case addr < 0x20:
	case addr < 0x30:
		if part == 0 {
			y.writeGlobal(addr, data)
		}
	case addr < 0xA0:
		y.writeOperator(part, addr, data)
	default:
		y.writeChannel(part, addr, data)
	}
}

func (y *OPN2) writeGlobal(addr, val uint8) {
	switch addr {
	case 0x22:
		y.lfoEnable = val&0x08 != 0
		y.lfoFreq = val & 0x07
		if !y.lfoEnable {
			y.lfoStep = 0
			y.lfoCnt = 0
		}
	case 0x27:
		// Bits 7-6: channel 3 mode. CSM is treated as special mode since
		// timers are not emulated.
		special := val&0xC0 != 0
		if special != y.ch3Special {
			y.ch3Special = special
			y.updateChannelFrequency(2)
		}
	case 0x28:
		y.writeKey(val)
	case 0x2A:
		y.dacSample = val
	case 0x2B:
		y.dacEnable = val&0x80 != 0
	}
}

// slotOrder maps the register slot field (S1, S3, S2, S4) to operator index.
var slotOrder = [4]int{0, 2, 1, 3}

func (y *OPN2) writeOperator(part int, addr, val uint8) {
	cs := int(addr & 0x03)
	if cs == 3 {
		return
	}
	ci := cs + part*3
	oi := slotOrder[(addr>>2)&0x03]
	op := &y.ch[ci].op[oi]

	switch addr & 0xF0 {
	case 0x30:
		op.dt = (val >> 4) & 0x07
		op.mul = val & 0x0F
		y.updatePhaseInc(ci, oi)
	case 0x40:
		op.tl = val & 0x7F
	case 0x50:
		op.rs = (val >> 6) & 0x03
		op.ar = val & 0x1F
	case 0x60:
		op.am = val&0x80 != 0
		op.d1r = val & 0x1F
	case 0x70:
		op.d2r = val & 0x1F
	case 0x80:
		op.d1l = (val >> 4) & 0x0F
		op.rr = val & 0x0F
	case 0x90:
		v := val & 0x0F
		if v&ssgEnable == 0 {
			v = 0
		}
		if (v^op.ssgEG)&ssgAttack != 0 {
			op.ssgInverted = !op.ssgInverted
		}
		op.ssgEG = v
	}
}

func (y *OPN2) writeChannel(part int, addr, val uint8) {
	cs := int(addr & 0x03)
	if cs == 3 {
		return
	}
	ci := cs + part*3
	ch := &y.ch[ci]

	switch addr & 0xFC {
	case 0xA0:
		ch.fNum = ch.fNum&0x700 | uint16(val)
		y.updateChannelFrequency(ci)
	case 0xA4:
		// Latched until the low byte is written.
		ch.block = (val >> 3) & 0x07
		ch.fNum = ch.fNum&0x0FF | uint16(val&0x07)<<8
	case 0xA8:
		if part == 0 {
			y.ch3Freq[cs] = y.ch3Freq[cs]&0x700 | uint16(val)
			if y.ch3Special {
				y.updateChannelFrequency(2)
			}
		}
	case 0xAC:
		if part == 0 {
			y.ch3Block[cs] = (val >> 3) & 0x07
			y.ch3Freq[cs] = y.ch3Freq[cs]&0x0FF | uint16(val&0x07)<<8
		}
	case 0xB0:
		ch.algorithm = val & 0x07
		ch.feedback = (val >> 3) & 0x07
	case 0xB4:
		ch.panL = val&0x80 != 0
		ch.panR = val&0x40 != 0
		ch.ams = (val >> 4) & 0x03
		ch.fms = val & 0x07
	}
}

// writeKey handles register $28: bits 0-2 select the channel, bits 4-7
// the operators S1, S2, S3, S4.
func (y *OPN2) writeKey(val uint8) {
	ci := int(val & 0x03)
	if ci == 3 {
		return
	}
	if val&0x04 != 0 {
		ci += 3
	}
	ch := &y.ch[ci]
	for i := range ch.op {
		op := &ch.op[i]
		on := val&(0x10<<uint(i)) != 0
		switch {
		case on && !op.keyOn:
			op.keyOn = true
			op.phase = 0
			op.egState = egAttack
			op.ssgInverted = op.ssgEG&ssgAttack != 0
			if effectiveRate(op.ar, op) >= 62 {
				op.egLevel = 0
				op.egState = egDecay
			}
		case !on && op.keyOn:
			op.keyOn = false
			if op.ssgEG&ssgEnable != 0 && op.ssgInverted {
				op.egLevel = (ssgCenter - op.egLevel) & 0x3FF
				op.ssgInverted = false
			}
			op.egState = egRelease
		}
	}
}

// operatorFrequency returns the F-number and block driving an operator,
// honoring channel 3 special mode.
func (y *OPN2) operatorFrequency(ci, oi int) (uint16, uint8) {
	ch := &y.ch[ci]
	if ci == 2 && y.ch3Special {
		if s := ch3Slot(oi); s >= 0 {
			return y.ch3Freq[s], y.ch3Block[s]
		}
	}
	return ch.fNum, ch.block
}

func (y *OPN2) updatePhaseInc(ci, oi int) {
	op := &y.ch[ci].op[oi]
	fNum, block := y.operatorFrequency(ci, oi)
	op.keyCode = keyCode(fNum, block)
	op.phaseInc = phaseIncrement(uint32(fNum)<<1, block, op.keyCode, op.dt, op.mul)
}

func (y *OPN2) updateChannelFrequency(ci int) {
	for oi := range y.ch[ci].op {
		y.updatePhaseInc(ci, oi)
	}
}

// step advances the chip by one native sample and latches its output.
func (y *OPN2) step() {
	y.stepLFO()

	// The envelope generator runs on every third native sample.
	y.egClock++
	if y.egClock == 3 {
		y.egClock = 0
		y.egCounter++
		if y.egCounter >= 4096 {
			y.egCounter = 1
		}
		for ci := range y.ch {
			for oi := range y.ch[ci].op {
				stepEnvelope(&y.ch[ci].op[oi], y.egCounter)
			}
		}
	}

	var left, right int32
	for ci := range y.ch {
		l, r := y.evalChannel(ci)
		left += int32(l)
		right += int32(r)
	}
	y.lastL = clampInt32(left>>1, -32768, 32767)
	y.lastR = clampInt32(right>>1, -32768, 32767)
}

// Render implements Chip.
func (y *OPN2) Render(l, r []float32) {
	for i := range l {
		y.resampAcc += y.nativeClock
		for y.resampAcc >= y.sampleRate {
			y.resampAcc -= y.sampleRate
			y.step()
		}
		l[i] += float32(y.lastL) / 32768
		r[i] += float32(y.lastR) / 32768
	}
}
