package chip

import "math"

// logSine is a quarter-wave -log2(sin) table in 4.8 fixed point and exp2
// maps the fractional part of an attenuation back to an 11-bit linear
// amplitude.
var (
	logSine [256]uint16
	exp2    [256]uint16
)

func init() {
	for i := range logSine {
		s := math.Sin(float64(2*i+1) / 512 * math.Pi / 2)
		logSine[i] = uint16(math.Round(-math.Log2(s) * 256))
		exp2[i] = uint16(math.Round(math.Pow(2, 1-float64(i+1)/256) * 1024))
	}
}

// algorithm describes one of the eight operator connection layouts.
// mod[i] is the set of operators whose outputs modulate operator i and
// carriers is the set summed into the channel output.
type algorithm struct {
	mod      [4]uint8
	carriers uint8
}

var algorithms = [8]algorithm{
	{mod: [4]uint8{0, 1 << 0, 1 << 1, 1 << 2}, carriers: 1 << 3},
	{mod: [4]uint8{0, 0, 1<<0 | 1<<1, 1 << 2}, carriers: 1 << 3},
	{mod: [4]uint8{0, 0, 1 << 1, 1<<0 | 1<<2}, carriers: 1 << 3},
	{mod: [4]uint8{0, 1 << 0, 0, 1<<1 | 1<<2}, carriers: 1 << 3},
	{mod: [4]uint8{0, 1 << 0, 0, 1 << 2}, carriers: 1<<1 | 1<<3},
	{mod: [4]uint8{0, 1 << 0, 1 << 0, 1 << 0}, carriers: 1<<1 | 1<<2 | 1<<3},
	{mod: [4]uint8{0, 1 << 0, 0, 0}, carriers: 1<<1 | 1<<2 | 1<<3},
	{carriers: 0x0F},
}

// operatorOutput returns the signed 14-bit output for a 20-bit phase and a
// 10-bit attenuation.
func operatorOutput(phase uint32, atten uint16) int16 {
	idx := (phase >> 10) & 0x3FF
	i := idx & 0xFF
	if idx&0x100 != 0 {
		i = 0xFF - i
	}
	total := uint32(logSine[i]) + uint32(atten)<<2
	linear := (uint32(exp2[total&0xFF]) << 2) >> (total >> 8)
	if idx&0x200 != 0 {
		return -int16(linear)
	}
	return int16(linear)
}

func totalLevel(egLevel uint16, tl uint8) uint16 {
	t := egLevel + uint16(tl)<<3
	if t > 0x3FF {
		return 0x3FF
	}
	return t
}

// render computes one operator sample. mod is in phase-index units.
func (op *fmOperator) render(mod int32, am uint16) int16 {
	level := op.egLevel
	if op.ssgEG&ssgEnable != 0 {
		level = ssgLevel(op)
	}
	atten := totalLevel(level, op.tl)
	if op.am {
		atten += am
		if atten > 0x3FF {
			atten = 0x3FF
		}
	}
	out := operatorOutput(op.phase+uint32(mod<<10), atten)
	op.out[1] = op.out[0]
	op.out[0] = out
	return out
}

func (op *fmOperator) feedback(level uint8) int32 {
	if level == 0 {
		return 0
	}
	return (int32(op.out[0]) + int32(op.out[1])) >> (10 - uint(level))
}

// evalChannel advances the channel's phase generators and returns its
// panned left and right samples.
func (y *OPN2) evalChannel(ci int) (int16, int16) {
	ch := &y.ch[ci]

	if ci == 5 && y.dacEnable {
		dac := (int16(y.dacSample) - 128) << 6
		return ladder(dac, ch.panL), ladder(dac, ch.panR)
	}

	for oi := range ch.op {
		op := &ch.op[oi]
		inc := op.phaseInc
		if ch.fms != 0 && y.lfoEnable {
			fNum, block := y.operatorFrequency(ci, oi)
			f12 := uint32(int32(fNum)<<1+y.pmDelta(ch.fms, fNum)) & 0xFFF
			inc = phaseIncrement(f12, block, op.keyCode, op.dt, op.mul)
		}
		op.phase = (op.phase + inc) & 0xFFFFF
	}

	am := y.amAttenuation(ch.ams)
	alg := &algorithms[ch.algorithm]
	var outs [4]int16
	var acc int32
	for oi := range ch.op {
		var mod int32
		if oi == 0 {
			mod = ch.op[0].feedback(ch.feedback)
		} else if m := alg.mod[oi]; m != 0 {
			for src := 0; src < oi; src++ {
				if m&(1<<uint(src)) != 0 {
					mod += int32(outs[src])
				}
			}
			mod >>= 1
		}
		outs[oi] = ch.op[oi].render(mod, am)
		if alg.carriers&(1<<uint(oi)) != 0 {
			acc = clampAccum(acc + int32(quantize9(outs[oi])))
		}
	}
	out := int16(acc)
	return ladder(out, ch.panL), ladder(out, ch.panR)
}

// clampAccum limits the carrier sum to the 9-bit DAC range.
func clampAccum(v int32) int32 {
	return clampInt32(v, -0x1FF0, 0x1FE0)
}

// ladder applies the DAC crossover offset. A muted output still carries a
// small residual of the sample's sign.
func ladder(s int16, enabled bool) int16 {
	switch {
	case !enabled && s >= 0:
		return 128
	case !enabled:
		return -128
	case s >= 0:
		return s + 128
	}
	return s - 96
}

func quantize9(v int16) int16 {
	return v &^ 0x1F
}
