package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// oto allows one context per process.
var (
	otoCtx      *oto.Context
	otoRate     int
	otoInitOnce sync.Once
	otoInitErr  error
)

func ensureOtoContext(sampleRate int) (*oto.Context, error) {
	otoInitOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		}
		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr != nil {
			return
		}
		<-ready
		otoRate = sampleRate
	})
	if otoInitErr != nil {
		return nil, otoInitErr
	}
	if otoRate != sampleRate {
		return nil, fmt.Errorf("audio: output already opened at %d Hz", otoRate)
	}
	return otoCtx, nil
}

// OtoDevice plays chunks on the system audio output. Submitted chunks go
// into a ring buffer that oto drains from its own goroutine.
type OtoDevice struct {
	player     *oto.Player
	ring       *RingBuffer
	chunkBytes int
}

var _ Device = (*OtoDevice)(nil)

// NewOtoDevice opens the audio output at sampleRate. chunkSize is the
// number of stereo samples per chunk and must be a power of two.
func NewOtoDevice(sampleRate, chunkSize int, volume float64) (*OtoDevice, error) {
	if err := CheckChunkSize(chunkSize); err != nil {
		return nil, err
	}
	ctx, err := ensureOtoContext(sampleRate)
	if err != nil {
		return nil, fmt.Errorf("oto audio not available: %w", err)
	}

	chunkBytes := chunkSize * 4
	ring := NewRingBuffer(chunkBytes * 4)
	player := ctx.NewPlayer(ring)
	player.SetBufferSize(chunkBytes)
	player.SetVolume(volume)
	player.Play()

	return &OtoDevice{
		player:     player,
		ring:       ring,
		chunkBytes: chunkBytes,
	}, nil
}

// IsBusy reports whether a full chunk is still waiting to be pulled by
// the output.
func (d *OtoDevice) IsBusy() bool {
	return d.ring.Buffered() >= d.chunkBytes
}

// Submit queues one chunk.
func (d *OtoDevice) Submit(chunk []byte) error {
	d.ring.Write(chunk)
	return nil
}

// Idle reports whether everything submitted has been handed to the
// output.
func (d *OtoDevice) Idle() bool {
	return d.ring.Buffered() == 0 && d.player.BufferedSize() == 0
}

// SetVolume sets the playback volume (0.0 = silent, 1.0 = full).
func (d *OtoDevice) SetVolume(vol float64) {
	d.player.SetVolume(vol)
}

// Close stops playback and releases the player.
func (d *OtoDevice) Close() error {
	d.ring.Close()
	return d.player.Close()
}
