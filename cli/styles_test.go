package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/user-none/chipstream/chip"
	"github.com/user-none/chipstream/driver"
	"github.com/user-none/chipstream/sequencer"
	"github.com/user-none/chipstream/slot"
)

func TestFormatMeta(t *testing.T) {
	header := driver.Meta{"version": uint32(0x171), "loop_offset": uint32(0x40)}
	tags := driver.Meta{
		"track_name":   "Green Hill Zone",
		"game_name":    "Sonic the Hedgehog",
		"track_author": "",
	}
	got := FormatMeta(header, tags, "version", "missing")

	for _, want := range []string{"Green Hill Zone", "Sonic the Hedgehog", "version", "369"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
	if strings.Contains(got, "Author") {
		t.Error("expected empty author to be skipped")
	}
	if strings.Contains(got, "loop_offset") || strings.Contains(got, "missing") {
		t.Error("expected only requested and present header keys")
	}
}

func TestFormatMeta_Untitled(t *testing.T) {
	if got := FormatMeta(nil, driver.Meta{}); !strings.Contains(got, "(untitled)") {
		t.Errorf("expected untitled, got %q", got)
	}
}

func TestFormatStatus(t *testing.T) {
	got := FormatStatus(44100*61+22050, 44100, 2, 3, false)
	for _, want := range []string{"01:01.50", "loop 2", "underruns 3"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
	if strings.Contains(got, "PAUSED") {
		t.Error("expected no pause marker")
	}
	if !strings.Contains(FormatStatus(0, 44100, 0, 0, true), "PAUSED") {
		t.Error("expected pause marker")
	}
}

func TestDumpSequencer(t *testing.T) {
	sl, err := slot.New(60, 44100, 1024)
	if err != nil {
		t.Fatal(err)
	}
	if err := sl.AddDevice(chip.YM2149, 1, sequencer.DefaultClock); err != nil {
		t.Fatal(err)
	}
	seq, err := sequencer.New(sl, [][]byte{{10, 2, 255}})
	if err != nil {
		t.Fatal(err)
	}
	seq.AdvanceTick(0)

	var buf bytes.Buffer
	DumpSequencer(&buf, seq)
	if !strings.Contains(buf.String(), "digraph") {
		t.Errorf("expected a dot graph, got %q", buf.String())
	}
}
