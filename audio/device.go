// Package audio provides playback devices for rendered PCM chunks: the
// system sound output through oto, a WAV file writer and a null sink.
//
// All devices take interleaved little-endian signed 16-bit stereo chunks.
package audio

import (
	"fmt"
	"math/bits"

	"github.com/user-none/chipstream/stream"
)

// Device is a chunk sink polled for readiness.
type Device = stream.Device

// CheckChunkSize reports an error unless n is a positive power of two.
func CheckChunkSize(n int) error {
	if n <= 0 || bits.OnesCount(uint(n)) != 1 {
		return fmt.Errorf("audio: chunk size %d is not a power of two", n)
	}
	return nil
}

// NullDevice discards chunks. It is never busy.
type NullDevice struct {
	Chunks int
	Bytes  int
}

var _ Device = (*NullDevice)(nil)

// IsBusy implements Device.
func (d *NullDevice) IsBusy() bool { return false }

// Submit implements Device.
func (d *NullDevice) Submit(chunk []byte) error {
	d.Chunks++
	d.Bytes += len(chunk)
	return nil
}

// Close implements Device.
func (d *NullDevice) Close() error { return nil }
