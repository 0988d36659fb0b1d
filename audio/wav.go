package audio

import (
	"encoding/binary"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"
)

// WAVDevice writes chunks to a 16-bit stereo WAV file. It never reports
// busy, so playback runs as fast as rendering allows.
type WAVDevice struct {
	enc    *wav.Encoder
	buf    *goaudio.IntBuffer
	closer io.Closer
	frames int
}

var _ Device = (*WAVDevice)(nil)

// NewWAVDevice writes to w. Close finalizes the header but does not close
// w.
func NewWAVDevice(w io.WriteSeeker, sampleRate int) *WAVDevice {
	return &WAVDevice{
		enc: wav.NewEncoder(w, sampleRate, 16, 2, 1),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: 2, SampleRate: sampleRate},
			SourceBitDepth: 16,
		},
	}
}

// CreateWAV creates path on fs and returns a device writing to it. Close
// also closes the file.
func CreateWAV(fs afero.Fs, path string, sampleRate int) (*WAVDevice, error) {
	f, err := fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("audio: failed to create %s: %w", path, err)
	}
	d := NewWAVDevice(f, sampleRate)
	d.closer = f
	return d, nil
}

// IsBusy implements Device.
func (d *WAVDevice) IsBusy() bool { return false }

// Submit appends one chunk of s16le stereo samples.
func (d *WAVDevice) Submit(chunk []byte) error {
	n := len(chunk) / 2
	if cap(d.buf.Data) < n {
		d.buf.Data = make([]int, n)
	}
	d.buf.Data = d.buf.Data[:n]
	for i := range d.buf.Data {
		d.buf.Data[i] = int(int16(binary.LittleEndian.Uint16(chunk[i*2:])))
	}
	if err := d.enc.Write(d.buf); err != nil {
		return fmt.Errorf("audio: wav write: %w", err)
	}
	d.frames += n / 2
	return nil
}

// Frames returns the number of stereo samples written.
func (d *WAVDevice) Frames() int {
	return d.frames
}

// Close writes the final header sizes.
func (d *WAVDevice) Close() error {
	err := d.enc.Close()
	if d.closer != nil {
		if cerr := d.closer.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("audio: wav close: %w", err)
	}
	return nil
}
