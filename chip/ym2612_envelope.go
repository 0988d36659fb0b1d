package chip

// SSG-EG register bits and the boundary level (10-bit scale).
const (
	ssgEnable    = 0x08
	ssgAttack    = 0x04
	ssgAlternate = 0x02
	ssgHold      = 0x01
	ssgCenter    = 0x200
)

// egPattern holds the 8-step increment patterns for rates below 48,
// selected by rate&3.
var egPattern = [4][8]uint8{
	{0, 1, 0, 1, 0, 1, 0, 1},
	{0, 1, 0, 1, 1, 1, 0, 1},
	{0, 1, 1, 1, 0, 1, 1, 1},
	{0, 1, 1, 1, 1, 1, 1, 1},
}

// egFastPattern holds the per-rate increment patterns for rates 48-63,
// which update on every envelope tick.
var egFastPattern = [16][8]uint8{
	{1, 1, 1, 1, 1, 1, 1, 1},
	{1, 1, 1, 2, 1, 1, 1, 2},
	{1, 2, 1, 2, 1, 2, 1, 2},
	{1, 2, 2, 2, 1, 2, 2, 2},
	{2, 2, 2, 2, 2, 2, 2, 2},
	{2, 2, 2, 4, 2, 2, 2, 4},
	{2, 4, 2, 4, 2, 4, 2, 4},
	{2, 4, 4, 4, 2, 4, 4, 4},
	{4, 4, 4, 4, 4, 4, 4, 4},
	{4, 4, 4, 8, 4, 4, 4, 8},
	{4, 8, 4, 8, 4, 8, 4, 8},
	{4, 8, 8, 8, 4, 8, 8, 8},
	{8, 8, 8, 8, 8, 8, 8, 8},
	{8, 8, 8, 8, 8, 8, 8, 8},
	{8, 8, 8, 8, 8, 8, 8, 8},
	{8, 8, 8, 8, 8, 8, 8, 8},
}

// effectiveRate computes 2*rate + key scaling, clamped to 63. A zero rate
// stays zero (frozen envelope).
func effectiveRate(rate uint8, op *fmOperator) uint8 {
	if rate == 0 {
		return 0
	}
	r := int(2*rate) + int(op.keyCode>>(3-op.rs))
	if r > 63 {
		r = 63
	}
	return uint8(r)
}

// sustainLevel converts D1L to a 10-bit attenuation; 15 maps to the floor.
func sustainLevel(d1l uint8) uint16 {
	if d1l >= 15 {
		return 0x3E0
	}
	return uint16(d1l) << 5
}

// egIncrement returns the attenuation step for a rate at the given global
// envelope counter, or 0 when the operator does not update this tick.
func egIncrement(rate uint8, counter uint16) uint8 {
	if rate == 0 {
		return 0
	}
	if rate >= 48 {
		return egFastPattern[rate-48][counter&7]
	}
	shift := uint(11 - rate>>2)
	if counter&(1<<shift-1) != 0 {
		return 0
	}
	return egPattern[rate&3][(counter>>shift)&7]
}

// stepEnvelope advances one operator by one envelope tick.
func stepEnvelope(op *fmOperator, counter uint16) {
	// The sustain check happens before the increment so a zero sustain
	// level never overshoots.
	if op.egState == egDecay && op.egLevel >= sustainLevel(op.d1l) {
		op.egState = egSustain
	}

	var rate uint8
	switch op.egState {
	case egAttack:
		rate = effectiveRate(op.ar, op)
	case egDecay:
		rate = effectiveRate(op.d1r, op)
	case egSustain:
		rate = effectiveRate(op.d2r, op)
	case egRelease:
		rate = effectiveRate(2*op.rr+1, op)
	}

	inc := egIncrement(rate, counter)
	if inc == 0 {
		return
	}

	ssg := op.ssgEG&ssgEnable != 0
	if ssg && op.egState != egAttack {
		if op.egLevel < ssgCenter {
			inc *= 4
		} else {
			return
		}
	}

	if op.egState == egAttack {
		if rate >= 62 {
			op.egLevel = 0
		} else {
			// Exponential approach to zero attenuation.
			next := int32(op.egLevel) + (^int32(op.egLevel)*int32(inc))>>4
			if next < 0 {
				next = 0
			}
			op.egLevel = uint16(next)
		}
		if op.egLevel == 0 {
			op.egState = egDecay
		}
		return
	}

	op.egLevel += uint16(inc)
	if ssg && op.egState == egRelease && op.egLevel >= ssgCenter {
		op.egLevel = 0x3FF
	}
	if op.egLevel > 0x3FF {
		op.egLevel = 0x3FF
	}
}

// ssgLevel applies SSG-EG boundary handling and inversion, returning the
// attenuation used for output.
func ssgLevel(op *fmOperator) uint16 {
	if op.egState == egRelease {
		return op.egLevel
	}
	if op.egLevel >= ssgCenter {
		if op.ssgEG&ssgAlternate != 0 {
			hold := op.ssgEG&ssgHold != 0
			if !hold || (op.ssgEG&ssgAttack != 0) == op.ssgInverted {
				op.ssgInverted = !op.ssgInverted
			}
		} else if op.ssgEG&ssgHold == 0 {
			op.phase = 0
		}
		if op.ssgEG&ssgHold == 0 && (op.egState == egDecay || op.egState == egSustain) {
			op.egState = egAttack
		}
	}
	if op.ssgInverted {
		return (ssgCenter - op.egLevel) & 0x3FF
	}
	return op.egLevel
}
