// Package instance manages recorded-log playback instances by id.
//
// An instance moves through Created, Initialized, Playing and Ended, and
// disappears when dropped. Created is held only while Create loads the
// file; an instance is registered once it is Initialized, so State never
// reports Created. Operations on an id that was never created or has been
// dropped fail with ErrInvalidHandle.
package instance

import (
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"

	"github.com/user-none/chipstream/driver"
)

var (
	// ErrInvalidHandle is returned for ids that do not name a live
	// instance.
	ErrInvalidHandle = errors.New("instance: invalid handle")

	// ErrHandleInUse is returned by Create when the id is taken.
	ErrHandleInUse = errors.New("instance: handle in use")

	// ErrEnded is returned by Play after the terminal status was
	// reported. It matches ErrInvalidHandle.
	ErrEnded = fmt.Errorf("%w: playback ended", ErrInvalidHandle)
)

// DefaultCacheSize is the number of decoded files kept by a Registry.
const DefaultCacheSize = 8

// State is the lifecycle position of an instance.
type State int

const (
	// Created is transient inside Create and never stored in the registry.
	Created State = iota
	Initialized
	Playing
	Ended
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Initialized:
		return "initialized"
	case Playing:
		return "playing"
	case Ended:
		return "ended"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type instance struct {
	state  State
	path   string
	player driver.Player
}

// Registry owns playback instances keyed by caller-chosen ids. It is safe
// for concurrent use.
type Registry struct {
	mu        sync.Mutex
	fs        afero.Fs
	cache     *lru.Cache[string, []byte]
	instances map[int]*instance
}

// NewRegistry creates a registry reading files from fs and keeping up to
// cacheSize decompressed files in memory.
func NewRegistry(fs afero.Fs, cacheSize int) (*Registry, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, []byte](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("instance: cache: %w", err)
	}
	return &Registry{
		fs:        fs,
		cache:     cache,
		instances: make(map[int]*instance),
	}, nil
}

// load returns the decompressed contents of path, from the cache when
// possible.
func (r *Registry) load(path string) ([]byte, error) {
	if data, ok := r.cache.Get(path); ok {
		return data, nil
	}
	raw, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return nil, fmt.Errorf("instance: failed to read %s: %w", path, err)
	}
	data, err := driver.Extract(raw)
	if err != nil {
		return nil, fmt.Errorf("instance: %s: %w", path, err)
	}
	r.cache.Add(path, data)
	return data, nil
}

// Create loads path and prepares it for playback at sampleRate in chunks
// of chunkSize stereo samples. The parsed header and tags are returned.
// Nothing is registered when loading fails.
func (r *Registry) Create(id int, path string, sampleRate, chunkSize int) (header, tags driver.Meta, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.instances[id]; ok {
		return nil, nil, fmt.Errorf("%w: %d", ErrHandleInUse, id)
	}
	inst := &instance{state: Created, path: path}

	data, err := r.load(path)
	if err != nil {
		return nil, nil, err
	}
	p, err := driver.Open(data, sampleRate, chunkSize)
	if err != nil {
		return nil, nil, fmt.Errorf("instance: %s: %w", path, err)
	}
	inst.player = p
	inst.state = Initialized
	r.instances[id] = inst
	return p.Header(), p.Tags(), nil
}

func (r *Registry) get(id int) (*instance, error) {
	inst, ok := r.instances[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHandle, id)
	}
	return inst, nil
}

// SetRepeat makes the instance loop instead of ending.
func (r *Registry) SetRepeat(id int, repeat bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, err := r.get(id)
	if err != nil {
		return err
	}
	inst.player.SetRepeat(repeat)
	return nil
}

// Play renders exactly one chunk. It returns the loop count (0 unless
// repeating) while data remains and driver.StatusEnd for the final chunk.
// Later calls fail with ErrEnded until the instance is dropped and created
// again. A malformed log ends playback early; its error is returned along
// with the status of the chunk that was still rendered.
func (r *Registry) Play(id int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, err := r.get(id)
	if err != nil {
		return 0, err
	}
	if inst.state == Ended {
		return 0, fmt.Errorf("%w: %d", ErrEnded, id)
	}
	inst.state = Playing
	st, err := inst.player.Play()
	if st == driver.StatusEnd {
		inst.state = Ended
	}
	return st, err
}

// SampleChunk returns the chunk produced by the last Play, or nil before
// the first one. It stays valid until the next Play on id.
func (r *Registry) SampleChunk(id int) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, err := r.get(id)
	if err != nil {
		return nil, err
	}
	return inst.player.Chunk(), nil
}

// Header returns the parsed file header.
func (r *Registry) Header(id int) (driver.Meta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, err := r.get(id)
	if err != nil {
		return nil, err
	}
	return inst.player.Header(), nil
}

// Tags returns the GD3 tags, blank when the file has none.
func (r *Registry) Tags(id int) (driver.Meta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, err := r.get(id)
	if err != nil {
		return nil, err
	}
	return inst.player.Tags(), nil
}

// State returns the lifecycle state of id.
func (r *Registry) State(id int) (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, err := r.get(id)
	if err != nil {
		return 0, err
	}
	return inst.state, nil
}

// Drop releases the instance. A Play running in another goroutine
// finishes first.
func (r *Registry) Drop(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.get(id); err != nil {
		return err
	}
	delete(r.instances, id)
	return nil
}

// Len returns the number of live instances.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instances)
}
