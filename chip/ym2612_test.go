package chip

import "testing"

const testYMClock = 7670453

// setupTone configures channel 0 as a single sine carrier (algorithm 7 with
// only OP4 audible) at roughly 440 Hz and keys it on.
func setupTone(y *OPN2) {
	y.Write(0xB0, 0x07) // algorithm 7, no feedback
	y.Write(0xB4, 0xC0) // L+R
	for _, slot := range []uint8{0x00, 0x04, 0x08, 0x0C} {
		y.Write(0x30+uint16(slot), 0x01) // MUL=1
		y.Write(0x40+uint16(slot), 0x7F) // silent
		y.Write(0x50+uint16(slot), 0x1F) // AR=31
		y.Write(0x80+uint16(slot), 0x0F) // RR=15
	}
	y.Write(0x4C, 0x00) // OP4 full volume
	y.Write(0xA4, 0x22) // block 4, fnum high 2
	y.Write(0xA0, 0x69)
	y.Write(0x28, 0xF0) // key on all operators, channel 0
}

func TestYM2612_DACValue(t *testing.T) {
	y := NewOPN2(testYMClock, 44100)
	y.Write(0x2B, 0x80)
	y.Write(0x2A, 0x00)

	l, r := y.evalChannel(5)
	expected := int16((0x00-128)<<6) - 96
	if l != expected || r != expected {
		t.Errorf("DAC 0x00: expected %d, got l=%d r=%d", expected, l, r)
	}
}

func TestYM2612_DACCenter(t *testing.T) {
	y := NewOPN2(testYMClock, 44100)
	y.Write(0x2B, 0x80)
	y.Write(0x2A, 0x80)

	l, _ := y.evalChannel(5)
	if l != 128 {
		t.Errorf("DAC center: expected ladder offset 128, got %d", l)
	}
}

func TestYM2612_DACPanMuted(t *testing.T) {
	y := NewOPN2(testYMClock, 44100)
	y.Write(0x2B, 0x80)
	y.Write(0x2A, 0x10)
	y.Write(0x1B6, 0x80) // channel 6 left only

	l, r := y.evalChannel(5)
	if l != int16((0x10-128)<<6)-96 {
		t.Errorf("expected left DAC output, got %d", l)
	}
	if r != -128 {
		t.Errorf("expected muted right residual -128, got %d", r)
	}
}

func TestYM2612_DACDisabledUsesFM(t *testing.T) {
	y := NewOPN2(testYMClock, 44100)
	y.Write(0x2B, 0x00)
	y.Write(0x2A, 0x00)

	l, _ := y.evalChannel(5)
	if l != 128 {
		t.Errorf("expected silent FM channel, got %d", l)
	}
}

func TestYM2612_KeyOnOff(t *testing.T) {
	y := NewOPN2(testYMClock, 44100)
	y.Write(0x50, 0x0A) // OP1 AR=10
	y.Write(0x28, 0x10) // key on OP1 of channel 0

	op := &y.ch[0].op[0]
	if !op.keyOn || op.egState != egAttack {
		t.Fatalf("expected attack after key on, got keyOn=%v state=%d", op.keyOn, op.egState)
	}
	y.Write(0x28, 0x00)
	if op.keyOn || op.egState != egRelease {
		t.Errorf("expected release after key off, got keyOn=%v state=%d", op.keyOn, op.egState)
	}
}

func TestYM2612_KeyPart2(t *testing.T) {
	y := NewOPN2(testYMClock, 44100)
	y.Write(0x28, 0xF6) // channel 6

	for i := range y.ch[5].op {
		if !y.ch[5].op[i].keyOn {
			t.Errorf("channel 6 op %d: expected key on", i)
		}
	}
	if y.ch[2].op[0].keyOn {
		t.Error("channel 3 must not be keyed")
	}
}

func TestYM2612_Part2Registers(t *testing.T) {
	y := NewOPN2(testYMClock, 44100)
	y.Write(0x1B0, 0x3D) // channel 4: fb 7, algo 5

	if y.ch[3].algorithm != 5 || y.ch[3].feedback != 7 {
		t.Errorf("expected algo 5 fb 7 on channel 4, got algo %d fb %d", y.ch[3].algorithm, y.ch[3].feedback)
	}
	if y.ch[0].algorithm != 0 {
		t.Error("part II write leaked into channel 1")
	}
}

func TestYM2612_FrequencyLatch(t *testing.T) {
	y := NewOPN2(testYMClock, 44100)
	y.Write(0xA4, 0x22)
	if y.ch[0].op[0].phaseInc != 0 {
		t.Error("phase increment must not change until the low byte is written")
	}
	y.Write(0xA0, 0x69)
	if y.ch[0].fNum != 0x269 || y.ch[0].block != 4 {
		t.Errorf("expected fnum 0x269 block 4, got 0x%X block %d", y.ch[0].fNum, y.ch[0].block)
	}
	if y.ch[0].op[0].phaseInc == 0 {
		t.Error("expected non-zero phase increment")
	}
}

func TestYM2612_Ch3Special(t *testing.T) {
	y := NewOPN2(testYMClock, 44100)
	y.Write(0x27, 0x40)
	y.Write(0xAD, 0x1A) // OP1 slot: block 3
	y.Write(0xA9, 0x00)

	fNum, block := y.operatorFrequency(2, 0)
	if fNum != 0x200 || block != 3 {
		t.Errorf("expected OP1 fnum 0x200 block 3, got 0x%X block %d", fNum, block)
	}
	_, block = y.operatorFrequency(2, 3)
	if block != y.ch[2].block {
		t.Error("OP4 must use the channel frequency")
	}
}

func TestPhaseIncrement_BlockDoubles(t *testing.T) {
	a := phaseIncrement(2000, 4, 0, 0, 1)
	b := phaseIncrement(2000, 5, 0, 0, 1)
	if a != 8000 || b != 16000 {
		t.Errorf("expected 8000 and 16000, got %d and %d", a, b)
	}
}

func TestPhaseIncrement_MulZeroHalves(t *testing.T) {
	one := phaseIncrement(2000, 4, 0, 0, 1)
	half := phaseIncrement(2000, 4, 0, 0, 0)
	if half != one/2 {
		t.Errorf("expected %d, got %d", one/2, half)
	}
}

func TestPhaseIncrement_DetuneSign(t *testing.T) {
	base := phaseIncrement(2000, 4, 20, 0, 1)
	up := phaseIncrement(2000, 4, 20, 3, 1)
	down := phaseIncrement(2000, 4, 20, 7, 1)
	if up-base != base-down || up == base {
		t.Errorf("expected symmetric detune, got base=%d up=%d down=%d", base, up, down)
	}
}

func TestKeyCode(t *testing.T) {
	if kc := keyCode(0x400, 4); kc != 18 {
		t.Errorf("expected 18, got %d", kc)
	}
	if kc := keyCode(0x780, 4); kc != 19 {
		t.Errorf("expected 19, got %d", kc)
	}
	if kc := keyCode(0x380, 2); kc != 9 {
		t.Errorf("expected 9, got %d", kc)
	}
}

func TestOperatorOutput_Peaks(t *testing.T) {
	if v := operatorOutput(0xFF<<10, 0); v != 8168 {
		t.Errorf("positive peak: expected 8168, got %d", v)
	}
	if v := operatorOutput(0x2FF<<10, 0); v != -8168 {
		t.Errorf("negative peak: expected -8168, got %d", v)
	}
	if v := operatorOutput(0xFF<<10, 0x3FF); v != 0 {
		t.Errorf("full attenuation: expected 0, got %d", v)
	}
}

func TestTotalLevel_Clamps(t *testing.T) {
	if v := totalLevel(0x300, 0x7F); v != 0x3FF {
		t.Errorf("expected 0x3FF, got 0x%X", v)
	}
	if v := totalLevel(0x10, 2); v != 0x20 {
		t.Errorf("expected 0x20, got 0x%X", v)
	}
}

func TestAlgorithms_CarrierCount(t *testing.T) {
	expected := [8]int{1, 1, 1, 1, 2, 3, 3, 4}
	for i, alg := range algorithms {
		n := 0
		for b := alg.carriers; b != 0; b &= b - 1 {
			n++
		}
		if n != expected[i] {
			t.Errorf("algorithm %d: expected %d carriers, got %d", i, expected[i], n)
		}
		for oi, m := range alg.mod {
			if m>>uint(oi) != 0 {
				t.Errorf("algorithm %d: operator %d modulated by a later operator", i, oi)
			}
		}
	}
}

func TestEgIncrement_Rates(t *testing.T) {
	if egIncrement(0, 0) != 0 {
		t.Error("rate 0 must never increment")
	}
	if egIncrement(63, 5) != 8 {
		t.Errorf("rate 63: expected 8, got %d", egIncrement(63, 5))
	}
	// Rate 4 updates only on counters that are multiples of 1024.
	if egIncrement(4, 1023) != 0 {
		t.Error("rate 4 must skip counter 1023")
	}
}

func TestStepEnvelope_DecayToSustain(t *testing.T) {
	op := &fmOperator{egState: egDecay, egLevel: 0x40, d1l: 2, d1r: 31}
	for i := uint16(0); i < 64 && op.egState == egDecay; i++ {
		stepEnvelope(op, i)
	}
	if op.egState != egSustain {
		t.Errorf("expected sustain, got state %d level 0x%X", op.egState, op.egLevel)
	}
}

func TestStepEnvelope_AttackReachesZero(t *testing.T) {
	op := &fmOperator{egState: egAttack, egLevel: 0x3FF, ar: 31}
	stepEnvelope(op, 1)
	if op.egLevel != 0 || op.egState != egDecay {
		t.Errorf("expected instant attack, got level 0x%X state %d", op.egLevel, op.egState)
	}
}

func TestYM2612_IdleIsConstant(t *testing.T) {
	y := NewOPN2(testYMClock, 44100)
	buf := renderMono(y, 2048)
	for i, s := range buf {
		if s != buf[0] {
			t.Fatalf("sample %d: expected constant %v, got %v", i, buf[0], s)
		}
	}
}

func TestYM2612_ToneRenders(t *testing.T) {
	y := NewOPN2(testYMClock, 44100)
	setupTone(y)
	buf := renderMono(y, 4410)

	if !inRange(buf) {
		t.Fatal("samples out of range")
	}
	var lo, hi float32
	for _, s := range buf {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	if hi-lo < 0.1 {
		t.Errorf("expected audible tone, got range %v..%v", lo, hi)
	}
}

func TestYM2612_RenderAdds(t *testing.T) {
	y := NewOPN2(testYMClock, 44100)
	l := []float32{1, 1, 1, 1}
	r := []float32{2, 2, 2, 2}
	y.Render(l, r)
	if l[0] <= 1-0.1 || r[0] <= 2-0.1 {
		t.Errorf("expected render to add into buffers, got l=%v r=%v", l[0], r[0])
	}
	if l[0] == 1 && r[0] == 2 {
		t.Error("expected idle ladder offset to be added")
	}
}
