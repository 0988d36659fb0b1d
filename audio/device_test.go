package audio

import (
	"encoding/binary"
	"testing"

	"github.com/go-audio/wav"
	"github.com/spf13/afero"
)

func TestCheckChunkSize(t *testing.T) {
	for _, n := range []int{1, 2, 256, 4096} {
		if err := CheckChunkSize(n); err != nil {
			t.Errorf("%d: unexpected error %v", n, err)
		}
	}
	for _, n := range []int{0, -4, 3, 735, 1000} {
		if err := CheckChunkSize(n); err == nil {
			t.Errorf("%d: expected error", n)
		}
	}
}

func TestNewOtoDevice_RejectsChunkSize(t *testing.T) {
	if _, err := NewOtoDevice(44100, 735, 1); err == nil {
		t.Error("expected error for a chunk size that is not a power of two")
	}
}

func TestNullDevice(t *testing.T) {
	d := &NullDevice{}
	d.Submit(make([]byte, 16))
	d.Submit(make([]byte, 16))
	if d.IsBusy() || d.Chunks != 2 || d.Bytes != 32 {
		t.Errorf("unexpected state %+v", d)
	}
}

func s16le(samples ...int16) []byte {
	b := make([]byte, 0, len(samples)*2)
	for _, s := range samples {
		b = binary.LittleEndian.AppendUint16(b, uint16(s))
	}
	return b
}

func TestWAVDevice_RoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	d, err := CreateWAV(fs, "/out.wav", 44100)
	if err != nil {
		t.Fatalf("CreateWAV: %v", err)
	}
	if err := d.Submit(s16le(100, -100, 32767, -32768)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := d.Submit(s16le(1, 2, 3, 4)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if d.Frames() != 4 {
		t.Errorf("expected 4 frames, got %d", d.Frames())
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := fs.Open("/out.wav")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("expected a valid WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer: %v", err)
	}
	if buf.Format.NumChannels != 2 || buf.Format.SampleRate != 44100 {
		t.Errorf("unexpected format %+v", buf.Format)
	}
	want := []int{100, -100, 32767, -32768, 1, 2, 3, 4}
	if len(buf.Data) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(buf.Data))
	}
	for i := range want {
		if buf.Data[i] != want[i] {
			t.Errorf("sample %d: expected %d, got %d", i, want[i], buf.Data[i])
		}
	}
}
