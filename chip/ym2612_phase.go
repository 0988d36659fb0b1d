package chip

// detuneTable holds phase increment deltas indexed by [keyCode][dt&3].
// Values from the OPN application manual and Nemesis' hardware research.
var detuneTable = [32][4]uint32{
	{0, 0, 1, 2}, {0, 0, 1, 2}, {0, 0, 1, 2}, {0, 0, 1, 2},
	{0, 1, 2, 2}, {0, 1, 2, 3}, {0, 1, 2, 3}, {0, 1, 2, 3},
	{0, 1, 2, 4}, {0, 1, 3, 4}, {0, 1, 3, 4}, {0, 1, 3, 5},
	{0, 2, 4, 5}, {0, 2, 4, 6}, {0, 2, 4, 6}, {0, 2, 5, 7},
	{0, 2, 5, 8}, {0, 3, 6, 8}, {0, 3, 6, 9}, {0, 3, 7, 10},
	{0, 4, 8, 11}, {0, 4, 8, 12}, {0, 4, 9, 13}, {0, 5, 10, 14},
	{0, 5, 11, 16}, {0, 6, 12, 17}, {0, 6, 13, 19}, {0, 7, 14, 20},
	{0, 8, 16, 22}, {0, 8, 16, 22}, {0, 8, 16, 22}, {0, 8, 16, 22},
}

// phaseIncrement computes the 20-bit phase increment from a 12-bit
// F-number (the register value shifted left once, optionally offset by
// vibrato), the block, key code, detune and multiplier.
func phaseIncrement(fNum12 uint32, block, kc, dt, mul uint8) uint32 {
	base := (fNum12 << block) >> 2

	delta := detuneTable[kc&0x1F][dt&0x03]
	if dt&0x04 != 0 {
		// Negative detune wraps on underflow like the hardware.
		base -= delta
	} else {
		base += delta
	}
	base &= 0x1FFFF

	if mul == 0 {
		return (base >> 1) & 0xFFFFF
	}
	return (base * uint32(mul)) & 0xFFFFF
}

// keyCode derives the 5-bit key code: block in bits 4-2, F11 in bit 1 and
// the OPN2 "N3" bit in bit 0.
func keyCode(fNum uint16, block uint8) uint8 {
	f11 := (fNum >> 10) & 1
	f10 := (fNum >> 9) & 1
	f9 := (fNum >> 8) & 1
	f8 := (fNum >> 7) & 1
	n3 := f11&(f10|f9|f8) | (1^f11)&f10&f9&f8
	return block<<2 | uint8(f11<<1) | uint8(n3)
}

// ch3Slot returns the channel 3 special-mode frequency slot for an
// operator: OP1 uses $A9, OP2 $AA, OP3 $A8, and OP4 the channel registers.
func ch3Slot(oi int) int {
	switch oi {
	case 0:
		return 1
	case 1:
		return 2
	case 2:
		return 0
	}
	return -1
}
