package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/user-none/chipstream/audio"
	"github.com/user-none/chipstream/chip"
	"github.com/user-none/chipstream/cli"
	"github.com/user-none/chipstream/config"
	"github.com/user-none/chipstream/instance"
	"github.com/user-none/chipstream/sequencer"
	"github.com/user-none/chipstream/slot"
	"github.com/user-none/chipstream/stream"
)

// headerKeys are the header fields printed before playback.
var headerKeys = []string{"version", "total_samples", "loop_samples", "rate", "vdp_mode", "sample_count"}

func main() {
	configPath := flag.String("config", "", "path to TOML config file (default "+config.DefaultPath+")")
	logPath := flag.String("vgm", "", "path to a VGM, VGZ, XGM or XGZ file")
	scorePath := flag.String("score", "", "path to a Lua score file (default: built-in demo)")
	wavPath := flag.String("wav", "", "write a WAV file instead of playing")
	nullOut := flag.Bool("null", false, "render without any output")
	loops := flag.Int("loops", 0, "stop after this many loops (0 = config value)")
	repeat := flag.Bool("repeat", false, "loop recorded logs instead of stopping at their end")
	volume := flag.Float64("volume", -1, "playback volume 0.0-1.0 (default: config value)")
	stats := flag.Bool("statsview", false, "serve runtime statistics on the configured address")
	memvizPath := flag.String("memviz", "", "write the final sequencer state as a dot graph")
	flag.Parse()

	fs := afero.NewOsFs()
	cfg, err := config.Load(fs, *configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *loops > 0 {
		cfg.Loops = *loops
	}
	if *repeat {
		cfg.Repeat = true
	}
	if *volume >= 0 {
		cfg.Volume = *volume
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid settings: %v", err)
	}

	if *stats {
		stop := cli.LaunchStats(cfg.StatsAddr, os.Stderr)
		defer stop()
	}

	dev, err := openDevice(fs, cfg, *wavPath, *nullOut)
	if err != nil {
		log.Fatalf("Failed to open output: %v", err)
	}
	defer dev.Close()

	var (
		src     stream.Ticker
		acc     stream.Accumulator
		loopsFn func() int
		seq     *sequencer.Sequencer
	)
	if *logPath != "" {
		s, err := openLog(fs, cfg, *logPath)
		if err != nil {
			log.Fatalf("Failed to load %s: %v", *logPath, err)
		}
		src, acc, loopsFn = s, s, s.Loops
		if !cfg.Repeat {
			cfg.Loops = 0
		}
	} else {
		d, sl, err := openScore(fs, cfg, *scorePath)
		if err != nil {
			log.Fatalf("Failed to load score: %v", err)
		}
		seq = d.Sequencer()
		src, acc, loopsFn = d, sl, seq.LoopCount
	}
	src = cli.LimitLoops(src, loopsFn, cfg.Loops)

	sched := stream.NewScheduler(src, acc, dev, cfg.Window)
	runner := cli.NewRunner(sched, dev, cli.Options{
		SampleRate: cfg.SampleRate,
		ChunkSize:  cfg.ChunkSize,
		Out:        os.Stderr,
		Loops:      loopsFn,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if err := runner.Play(ctx, os.Stdin); err != nil {
		log.Printf("Warning: playback stopped: %v", err)
	}

	if *memvizPath != "" && seq != nil {
		if err := writeMemviz(fs, *memvizPath, seq); err != nil {
			log.Printf("Warning: memviz dump failed: %v", err)
		}
	}
}

func openDevice(fs afero.Fs, cfg config.Config, wavPath string, null bool) (stream.Device, error) {
	switch {
	case null:
		return &audio.NullDevice{}, nil
	case wavPath != "":
		p, err := homedir.Expand(wavPath)
		if err != nil {
			return nil, err
		}
		return audio.CreateWAV(fs, p, cfg.SampleRate)
	}
	d, err := audio.NewOtoDevice(cfg.SampleRate, cfg.ChunkSize, cfg.Volume)
	if err != nil {
		log.Printf("Warning: audio initialization failed: %v", err)
		return &audio.NullDevice{}, nil
	}
	return d, nil
}

func openLog(fs afero.Fs, cfg config.Config, path string) (*instance.Source, error) {
	p, err := cfg.Resolve(path)
	if err != nil {
		return nil, err
	}
	reg, err := instance.NewRegistry(fs, cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	const id = 1
	header, tags, err := reg.Create(id, p, cfg.SampleRate, cfg.ChunkSize)
	if err != nil {
		return nil, err
	}
	if err := reg.SetRepeat(id, cfg.Repeat); err != nil {
		return nil, err
	}
	fmt.Fprint(os.Stderr, cli.FormatMeta(header, tags, headerKeys...))
	return reg.Source(id, cfg.ChunkSize), nil
}

func openScore(fs afero.Fs, cfg config.Config, path string) (*sequencer.Driver, *slot.Slot, error) {
	var (
		sc  *sequencer.Score
		err error
	)
	if path == "" {
		sc, err = sequencer.Demo()
	} else {
		var p string
		if p, err = cfg.Resolve(path); err == nil {
			sc, err = sequencer.LoadScore(fs, p)
		}
	}
	if err != nil {
		return nil, nil, err
	}

	sl, err := slot.New(sc.TickRate, cfg.SampleRate, cfg.ChunkSize)
	if err != nil {
		return nil, nil, err
	}
	if err := sl.AddDevice(chip.YM2149, 1, sc.Clock); err != nil {
		return nil, nil, err
	}
	seq, err := sequencer.New(sl, sc.Tracks)
	if err != nil {
		return nil, nil, err
	}
	seq.Init()

	name := strings.TrimSuffix(sc.Name, ".lua")
	fmt.Fprintf(os.Stderr, "%s: %d tracks at %d Hz\n", name, len(sc.Tracks), sc.TickRate)
	return sequencer.NewDriver(seq, sl, 0), sl, nil
}

func writeMemviz(fs afero.Fs, path string, seq *sequencer.Sequencer) error {
	p, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	f, err := fs.Create(p)
	if err != nil {
		return err
	}
	defer f.Close()
	cli.DumpSequencer(f, seq)
	return nil
}
