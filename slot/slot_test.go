package slot

import (
	"encoding/binary"
	"testing"

	"github.com/user-none/chipstream/chip"
)

type write struct {
	port uint16
	data uint8
}

// fakeChip renders a constant level and records register writes.
type fakeChip struct {
	typ    chip.Type
	level  float32
	writes []write
	frames int
}

func (f *fakeChip) Write(port uint16, data uint8) {
	f.writes = append(f.writes, write{port, data})
}

func (f *fakeChip) Render(l, r []float32) {
	for i := range l {
		l[i] += f.level
		r[i] -= f.level
	}
	f.frames += len(l)
}

func (f *fakeChip) Type() chip.Type { return f.typ }

func sampleAt(pcm []byte, i int) (int16, int16) {
	l := int16(binary.LittleEndian.Uint16(pcm[i*4:]))
	r := int16(binary.LittleEndian.Uint16(pcm[i*4+2:]))
	return l, r
}

func TestNew_RejectsSampleRateBelowTickRate(t *testing.T) {
	if _, err := New(48000, 44100, 1024); err == nil {
		t.Error("expected error when sample rate is below tick rate")
	}
	if _, err := New(60, 44100, 0); err == nil {
		t.Error("expected error for zero chunk size")
	}
}

func TestUpdate_OneSamplePerTickAtEqualRates(t *testing.T) {
	s, _ := New(44100, 44100, 16)
	s.Update(10)
	if s.Buffered() != 10 {
		t.Errorf("expected 10 samples, got %d", s.Buffered())
	}
}

func TestUpdate_LowTickRate(t *testing.T) {
	s, _ := New(60, 44100, 4096)
	s.Update(1)
	if n := s.Buffered(); n < 735 || n > 736 {
		t.Errorf("expected 735 samples for one tick, got %d", n)
	}
	s.Update(59)
	if n := s.Buffered(); n < 44098 || n > 44102 {
		t.Errorf("expected about 44100 samples for 60 ticks, got %d", n)
	}
}

func TestIsStreamFilled(t *testing.T) {
	s, _ := New(44100, 44100, 8)
	s.Update(7)
	if s.IsStreamFilled() {
		t.Error("expected not filled with 7 of 8 samples")
	}
	s.Update(1)
	if !s.IsStreamFilled() {
		t.Error("expected filled with 8 samples")
	}
}

func TestStream_DrainsOneChunk(t *testing.T) {
	s, _ := New(44100, 44100, 4)
	c := &fakeChip{typ: chip.YM2149, level: 0.5}
	s.Attach(c)
	s.Update(6)

	pcm := s.Stream()
	if len(pcm) != 16 {
		t.Fatalf("expected 16 bytes, got %d", len(pcm))
	}
	if s.Buffered() != 2 {
		t.Errorf("expected 2 samples left, got %d", s.Buffered())
	}
	l, r := sampleAt(pcm, 0)
	if l != 16384 || r != -16384 {
		t.Errorf("expected 16384/-16384, got %d/%d", l, r)
	}
}

func TestStream_LastChunkZeroPadded(t *testing.T) {
	s, _ := New(44100, 44100, 4)
	s.Attach(&fakeChip{typ: chip.YM2149, level: 0.25})
	s.Update(4)
	s.Stream()
	s.Update(1)

	pcm := s.Stream()
	l, _ := sampleAt(pcm, 0)
	if l != 8192 {
		t.Errorf("expected first sample 8192, got %d", l)
	}
	for i := 1; i < 4; i++ {
		if l, r := sampleAt(pcm, i); l != 0 || r != 0 {
			t.Errorf("sample %d: expected zero padding, got %d/%d", i, l, r)
		}
	}
	if s.Buffered() != 0 {
		t.Errorf("expected empty accumulator, got %d", s.Buffered())
	}
}

func TestUpdate_SumsDevices(t *testing.T) {
	s, _ := New(44100, 44100, 2)
	s.Attach(&fakeChip{typ: chip.YM2149, level: 0.25})
	s.Attach(&fakeChip{typ: chip.YM2612, level: 0.25})
	s.Update(2)

	l, _ := sampleAt(s.Stream(), 0)
	if l != 16384 {
		t.Errorf("expected summed 16384, got %d", l)
	}
}

func TestToS16(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{0.5, 16384},
		{-0.5, -16384},
		{1, 32767},
		{-1, -32768},
		{2, 32767},
		{-2, -32768},
	}
	for _, tt := range tests {
		if got := ToS16(tt.in); got != tt.want {
			t.Errorf("ToS16(%v): expected %d, got %d", tt.in, tt.want, got)
		}
	}
}

func TestWrite_RoutesByTypeAndIndex(t *testing.T) {
	s, _ := New(44100, 44100, 16)
	a := &fakeChip{typ: chip.YM2612}
	b := &fakeChip{typ: chip.YM2612}
	if s.Attach(a) != 0 || s.Attach(b) != 1 {
		t.Fatal("expected indexes 0 and 1")
	}

	s.Write(chip.YM2612, 1, 0x12A, 0x80)
	s.Write(chip.YM2612, 2, 0x2A, 0x80) // no such device
	s.Write(chip.YM2149, 0, 0x07, 0xB8) // no such type

	if len(a.writes) != 0 {
		t.Errorf("expected no writes to index 0, got %v", a.writes)
	}
	if len(b.writes) != 1 || b.writes[0] != (write{0x12A, 0x80}) {
		t.Errorf("expected one write to index 1, got %v", b.writes)
	}
}

func TestAddDevice(t *testing.T) {
	s, _ := New(44100, 44100, 16)
	if err := s.AddDevice(chip.YM2612, 2, 7670453); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.DeviceCount(chip.YM2612) != 2 {
		t.Errorf("expected 2 devices, got %d", s.DeviceCount(chip.YM2612))
	}
	if err := s.AddDevice(chip.C140, 1, 1000000); err == nil {
		t.Error("expected error for unsupported chip")
	}
}

func TestDataBlock_Copied(t *testing.T) {
	s, _ := New(44100, 44100, 16)
	data := []byte{1, 2, 3}
	s.AddDataBlock(0, data)
	data[0] = 9
	if got := s.DataBlock(0); got[0] != 1 {
		t.Errorf("expected stored copy, got %v", got)
	}
	if s.DataBlock(5) != nil {
		t.Error("expected nil for missing block")
	}
}

func TestDataStream_WritesAtFrequency(t *testing.T) {
	s, _ := New(44100, 44100, 64)
	c := &fakeChip{typ: chip.YM2612}
	s.Attach(c)
	s.AddDataBlock(0, []byte{10, 20, 30, 40})
	s.AddDataStream(0, chip.YM2612, 0, 0, 0x2A)
	s.AttachDataBlock(0, 0)
	s.SetDataStreamFrequency(0, 22050)
	s.StartDataStream(0, 1, 2)

	s.Update(4)
	if len(c.writes) != 2 {
		t.Fatalf("expected 2 writes, got %v", c.writes)
	}
	if c.writes[0] != (write{0x2A, 20}) || c.writes[1] != (write{0x2A, 30}) {
		t.Errorf("unexpected writes %v", c.writes)
	}
	s.Update(4)
	if s.DataStreamActive(0) {
		t.Error("expected stream to stop at its end")
	}
}

func TestDataStream_FastStartAndStop(t *testing.T) {
	s, _ := New(44100, 44100, 64)
	c := &fakeChip{typ: chip.YM2612}
	s.Attach(c)
	s.AddDataBlock(3, []byte{1, 2, 3, 4, 5, 6})
	s.AddDataStream(1, chip.YM2612, 0, 1, 0x2A)
	s.SetDataStreamFrequency(1, 44100)
	s.StartDataStreamBlock(1, 3)

	s.Update(2)
	s.StopDataStream(1)
	s.Update(4)
	if len(c.writes) != 2 {
		t.Fatalf("expected 2 writes before stop, got %v", c.writes)
	}
	if c.writes[0].port != 0x12A {
		t.Errorf("expected port 0x12A, got 0x%X", c.writes[0].port)
	}
}

func TestDataStream_MissingDevice(t *testing.T) {
	s, _ := New(44100, 44100, 64)
	s.AddDataStream(0, chip.YM2612, 0, 0, 0x2A)
	s.StartDataStream(0, 0, 10)
	if s.DataStreamActive(0) {
		t.Error("stream for a missing device must not exist")
	}
}
