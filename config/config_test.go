package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

func TestLoad_MissingDefaultUsesDefaults(t *testing.T) {
	cfg, err := Load(afero.NewMemMapFs(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != Default() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_MissingExplicitPath(t *testing.T) {
	if _, err := Load(afero.NewMemMapFs(), "/etc/chipstream.toml"); err == nil {
		t.Error("expected error for missing explicit file")
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/cfg.toml", []byte(`
sample_rate = 48000
chunk_size = 1024
volume = 0.5
repeat = true
music_dir = "/music"
`), 0o644)

	cfg, err := Load(fs, "/cfg.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SampleRate != 48000 || cfg.ChunkSize != 1024 {
		t.Errorf("expected 48000/1024, got %d/%d", cfg.SampleRate, cfg.ChunkSize)
	}
	if cfg.Volume != 0.5 || !cfg.Repeat {
		t.Errorf("expected volume 0.5 and repeat, got %g/%v", cfg.Volume, cfg.Repeat)
	}
	if cfg.Window != 2 {
		t.Errorf("expected default window 2, got %d", cfg.Window)
	}
	if cfg.MusicDir != "/music" {
		t.Errorf("expected /music, got %q", cfg.MusicDir)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		invalid bool
	}{
		{"syntax", "sample_rate = ", false},
		{"unknown key", "sampel_rate = 44100", true},
		{"chunk not power of two", "chunk_size = 735", true},
		{"window zero", "window = 0", true},
		{"volume too high", "volume = 1.5", true},
		{"negative loops", "loops = -1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			afero.WriteFile(fs, "/c.toml", []byte(tt.body), 0o644)
			_, err := Load(fs, "/c.toml")
			if err == nil {
				t.Fatal("expected error")
			}
			if errors.Is(err, ErrInvalid) != tt.invalid {
				t.Errorf("expected ErrInvalid=%v, got %v", tt.invalid, err)
			}
		})
	}
}

func TestValidate_Default(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("expected defaults to be valid, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	cfg := Default()
	cfg.MusicDir = "/music"

	got, err := cfg.Resolve("sonic/green_hill.vgz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join("/music", "sonic/green_hill.vgz"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if got, _ := cfg.Resolve("/abs/song.vgm"); got != "/abs/song.vgm" {
		t.Errorf("expected absolute path unchanged, got %q", got)
	}
}
