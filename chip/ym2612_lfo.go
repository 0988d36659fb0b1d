package chip

// lfoPeriod is the number of native samples between LFO steps for each
// frequency setting.
var lfoPeriod = [8]uint16{108, 77, 71, 67, 62, 44, 8, 5}

// lfoAMShift scales the 7-bit AM triangle per AMS setting; 8 disables it.
var lfoAMShift = [4]uint8{8, 3, 1, 0}

// pmBase is the vibrato delta for F-number bit 10 indexed by [FMS][step]
// over a quarter wave. Lower F-number bits contribute proportionally less.
var pmBase = [8][8]int32{
	{0, 0, 0, 0, 0, 0, 0, 0},
	{0, 0, 0, 0, 4, 4, 4, 4},
	{0, 0, 0, 4, 4, 4, 8, 8},
	{0, 0, 4, 4, 8, 8, 12, 12},
	{0, 0, 4, 8, 8, 8, 12, 16},
	{0, 0, 8, 12, 16, 16, 20, 24},
	{0, 0, 16, 24, 32, 32, 40, 48},
	{0, 0, 32, 48, 64, 64, 80, 96},
}

func (y *OPN2) stepLFO() {
	if !y.lfoEnable {
		y.lfoAMOut = 0
		return
	}
	y.lfoCnt++
	if y.lfoCnt >= lfoPeriod[y.lfoFreq] {
		y.lfoCnt = 0
		y.lfoStep = (y.lfoStep + 1) & 0x7F
	}
	// Triangle: 126 down to 0 over the first half, back up over the second.
	if y.lfoStep < 64 {
		y.lfoAMOut = (63 - y.lfoStep) * 2
	} else {
		y.lfoAMOut = (y.lfoStep - 64) * 2
	}
}

func (y *OPN2) amAttenuation(ams uint8) uint16 {
	shift := lfoAMShift[ams&3]
	if shift >= 8 {
		return 0
	}
	return uint16(y.lfoAMOut) >> shift
}

// pmDelta returns the signed vibrato offset to add to the 12-bit F-number.
func (y *OPN2) pmDelta(fms uint8, fNum uint16) int32 {
	if fms == 0 || !y.lfoEnable {
		return 0
	}
	step := y.lfoStep >> 2
	idx := step & 0x07
	if step&0x08 != 0 {
		idx = 7 - idx
	}
	base := pmBase[fms][idx]

	var delta int32
	for bit := uint(4); bit <= 10; bit++ {
		if fNum&(1<<bit) != 0 {
			delta += base >> (10 - bit)
		}
	}
	if step&0x10 != 0 {
		delta = -delta
	}
	return delta
}
