package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/user-none/chipstream/driver"
)

type styles struct {
	title  lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	status lipgloss.Style
	warn   lipgloss.Style
}

// ANSI colors: 3 yellow, 4 blue, 6 cyan, 7 white, 1 red.
func newStyles() styles {
	return styles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(3)),
		label:  lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(4)),
		value:  lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(7)),
		status: lipgloss.NewStyle().Foreground(lipgloss.ANSIColor(6)),
		warn:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.ANSIColor(7)).Background(lipgloss.ANSIColor(1)),
	}
}

// tagOrder lists GD3 fields shown in the header block.
var tagOrder = []struct{ key, label string }{
	{"track_name", "Track"},
	{"game_name", "Game"},
	{"system_name", "System"},
	{"track_author", "Author"},
	{"date", "Released"},
	{"converted", "Ripped by"},
}

// FormatMeta renders tags and selected header fields as a labelled block.
// Empty tags are skipped; header keys are listed alphabetically.
func FormatMeta(header, tags driver.Meta, headerKeys ...string) string {
	st := newStyles()
	var b strings.Builder

	title := tags.Str("track_name")
	if title == "" {
		title = "(untitled)"
	}
	b.WriteString(st.title.Render(title))
	b.WriteByte('\n')

	for _, f := range tagOrder[1:] {
		if v := tags.Str(f.key); v != "" {
			fmt.Fprintf(&b, "%s %s\n", st.label.Render(fmt.Sprintf("%-10s", f.label)), st.value.Render(v))
		}
	}

	keys := append([]string(nil), headerKeys...)
	sort.Strings(keys)
	for _, k := range keys {
		v, ok := header[k]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s %s\n", st.label.Render(fmt.Sprintf("%-10s", k)), st.value.Render(fmt.Sprint(v)))
	}
	return b.String()
}

// FormatStatus renders a one-line progress report.
func FormatStatus(samples uint64, sampleRate, loops int, underruns uint64, paused bool) string {
	st := newStyles()
	secs := 0.0
	if sampleRate > 0 {
		secs = float64(samples) / float64(sampleRate)
	}
	line := fmt.Sprintf("%02d:%05.2f  loop %d  underruns %d", int(secs)/60, secs-float64(int(secs)/60*60), loops, underruns)
	if paused {
		return st.status.Render(line) + " " + st.warn.Render("PAUSED")
	}
	return st.status.Render(line)
}
