package chip

import "testing"

func TestYM2149_TonePeriod(t *testing.T) {
	y := NewSSG(3579545, 44100)
	y.Write(0, 0xFE)
	y.Write(1, 0x10) // upper nibble ignored
	if y.tone[0] != 0x0FE {
		t.Errorf("expected period 0x0FE, got 0x%X", y.tone[0])
	}
	y.Write(0, 0x00)
	y.Write(1, 0x00)
	if y.tone[0] != 1 {
		t.Errorf("expected zero period to act as 1, got %d", y.tone[0])
	}
}

func TestYM2149_Register(t *testing.T) {
	y := NewSSG(3579545, 44100)
	y.Write(7, 0xB8)
	if y.Register(7) != 0xB8 {
		t.Errorf("expected 0xB8, got 0x%X", y.Register(7))
	}
	y.Write(14, 0xFF)
	if y.Register(14) != 0 {
		t.Error("I/O port registers must be ignored")
	}
}

func TestYM2149_NoisePeriodMask(t *testing.T) {
	y := NewSSG(3579545, 44100)
	y.Write(6, 0xFF)
	if y.noisePer != 0x1F {
		t.Errorf("expected 0x1F, got 0x%X", y.noisePer)
	}
}

// stepEnv advances the envelope by n periods with a period of 1.
func stepEnv(y *SSG, n int) {
	for i := 0; i < n; i++ {
		y.stepEnvelope()
	}
}

func TestYM2149_EnvelopeDecayOnce(t *testing.T) {
	y := NewSSG(3579545, 44100)
	y.Write(11, 1)
	y.Write(12, 0)
	y.Write(13, 0x00)

	if y.envLevel() != 31 {
		t.Fatalf("expected start at 31, got %d", y.envLevel())
	}
	stepEnv(y, 31)
	if y.envLevel() != 0 {
		t.Errorf("expected 0 after 31 steps, got %d", y.envLevel())
	}
	stepEnv(y, 100)
	if y.envLevel() != 0 || !y.envHold {
		t.Errorf("expected hold at 0, got %d hold=%v", y.envLevel(), y.envHold)
	}
}

func TestYM2149_EnvelopeAttackHold(t *testing.T) {
	y := NewSSG(3579545, 44100)
	y.Write(11, 1)
	y.Write(13, 0x0D)

	if y.envLevel() != 0 {
		t.Fatalf("expected start at 0, got %d", y.envLevel())
	}
	stepEnv(y, 200)
	if y.envLevel() != 31 {
		t.Errorf("expected hold at 31, got %d", y.envLevel())
	}
}

func TestYM2149_EnvelopeAttackAlternateHold(t *testing.T) {
	y := NewSSG(3579545, 44100)
	y.Write(11, 1)
	y.Write(13, 0x0F)
	stepEnv(y, 200)
	if y.envLevel() != 0 {
		t.Errorf("expected hold at 0, got %d", y.envLevel())
	}
}

func TestYM2149_EnvelopeTriangle(t *testing.T) {
	y := NewSSG(3579545, 44100)
	y.Write(11, 1)
	y.Write(13, 0x0E)

	stepEnv(y, 31)
	if y.envLevel() != 31 {
		t.Fatalf("expected peak 31, got %d", y.envLevel())
	}
	stepEnv(y, 1)
	if y.envLevel() != 31 {
		t.Errorf("expected direction change to restart at 31, got %d", y.envLevel())
	}
	stepEnv(y, 1)
	if y.envLevel() != 30 {
		t.Errorf("expected 30 on the way down, got %d", y.envLevel())
	}
}

func TestYM2149_EnvelopeSawtooth(t *testing.T) {
	y := NewSSG(3579545, 44100)
	y.Write(11, 1)
	y.Write(13, 0x08)

	stepEnv(y, 32)
	if y.envLevel() != 31 {
		t.Errorf("expected wrap back to 31, got %d", y.envLevel())
	}
}

func TestYM2149_MixerSilencesChannel(t *testing.T) {
	y := NewSSG(3579545, 44100)
	y.Write(8, 0x0F)
	y.Write(7, 0x3F)
	// Tone and noise disabled: the channel holds its level.
	full := y.output()
	y.Write(8, 0x00)
	quiet := y.output()
	if full <= quiet {
		t.Errorf("expected volume 15 louder than 0, got %d vs %d", full, quiet)
	}
}

func TestYM2149_ToneFrequency(t *testing.T) {
	const rate = 44100
	y := NewSSG(3579545, rate)
	y.Write(7, 0x3E) // tone A only
	y.Write(8, 0x0F) // full volume
	y.Write(0, 0xFE) // period 254, 440 Hz with the halved clock
	y.Write(1, 0x00)
	buf := renderMono(y, rate)
	if !inRange(buf) {
		t.Fatal("samples out of range")
	}

	half := buf[rate/2:]
	var mean float64
	for _, s := range half {
		mean += float64(s)
	}
	mean /= float64(len(half))

	crossings := 0
	for i := 1; i < len(half); i++ {
		a := float64(half[i-1]) - mean
		b := float64(half[i]) - mean
		if (a < 0) != (b < 0) {
			crossings++
		}
	}
	// Half a second of a 440 Hz square has about 440 crossings.
	if crossings < 380 || crossings > 500 {
		t.Errorf("expected about 440 crossings, got %d", crossings)
	}
}

func TestYM2149_RenderLongBuffer(t *testing.T) {
	y := NewSSG(3579545, 44100)
	y.Write(7, 0x3E)
	y.Write(8, 0x0F)
	y.Write(0, 0x40)
	l := make([]float32, 5000)
	r := make([]float32, 5000)
	y.Render(l, r)
	for i := range l {
		if l[i] != r[i] {
			t.Fatalf("sample %d: expected mono output, got l=%v r=%v", i, l[i], r[i])
		}
	}
}
