// Package config loads player settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"math/bits"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "~/.config/chipstream/config.toml"

// ErrInvalid is returned for settings outside their allowed range.
var ErrInvalid = errors.New("config: invalid setting")

// Config holds every tunable of the player.
type Config struct {
	// SampleRate is the output rate in Hz. Recorded logs need at least
	// 44100.
	SampleRate int `toml:"sample_rate"`
	// ChunkSize is the number of stereo samples per chunk, a power of two.
	ChunkSize int `toml:"chunk_size"`
	// Window is the number of chunks that may wait for the device.
	Window int     `toml:"window"`
	Volume float64 `toml:"volume"`

	// Loops stops playback after this many passes; 0 plays until the
	// source ends on its own.
	Loops  int  `toml:"loops"`
	Repeat bool `toml:"repeat"`

	CacheSize int    `toml:"cache_size"`
	MusicDir  string `toml:"music_dir"`
	StatsAddr string `toml:"stats_addr"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		SampleRate: 44100,
		ChunkSize:  2048,
		Window:     2,
		Volume:     1.0,
		Loops:      2,
		CacheSize:  8,
		StatsAddr:  "localhost:18066",
	}
}

// Load reads path from fs over the defaults. A leading ~ in path is
// expanded. A missing file at DefaultPath is not an error.
func Load(fs afero.Fs, path string) (Config, error) {
	cfg := Default()
	usingDefault := path == ""
	if usingDefault {
		path = DefaultPath
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}

	data, err := afero.ReadFile(fs, expanded)
	if err != nil {
		if usingDefault && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: failed to read %s: %w", expanded, err)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("config: %s: %w", expanded, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("%w: unknown key %q in %s", ErrInvalid, undecoded[0].String(), expanded)
	}
	if cfg.MusicDir != "" {
		if cfg.MusicDir, err = homedir.Expand(cfg.MusicDir); err != nil {
			return cfg, fmt.Errorf("config: music_dir: %w", err)
		}
	}
	return cfg, cfg.Validate()
}

// Validate checks every setting.
func (c Config) Validate() error {
	switch {
	case c.SampleRate < 8000 || c.SampleRate > 192000:
		return fmt.Errorf("%w: sample_rate %d", ErrInvalid, c.SampleRate)
	case c.ChunkSize <= 0 || bits.OnesCount(uint(c.ChunkSize)) != 1:
		return fmt.Errorf("%w: chunk_size %d is not a power of two", ErrInvalid, c.ChunkSize)
	case c.Window < 1:
		return fmt.Errorf("%w: window %d", ErrInvalid, c.Window)
	case c.Volume < 0 || c.Volume > 1:
		return fmt.Errorf("%w: volume %g", ErrInvalid, c.Volume)
	case c.Loops < 0:
		return fmt.Errorf("%w: loops %d", ErrInvalid, c.Loops)
	case c.CacheSize < 1:
		return fmt.Errorf("%w: cache_size %d", ErrInvalid, c.CacheSize)
	}
	return nil
}

// Resolve returns path expanded for ~ and, when relative, joined to
// MusicDir.
func (c Config) Resolve(path string) (string, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}
	if c.MusicDir == "" || filepath.IsAbs(p) {
		return p, nil
	}
	return filepath.Join(c.MusicDir, p), nil
}
