package cli

import (
	"fmt"
	"io"

	"github.com/bradleyjkemp/memviz"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"

	"github.com/user-none/chipstream/sequencer"
)

const statsPath = "/debug/statsview"

// LaunchStats starts a runtime statistics server on addr in a new
// goroutine. The returned function shuts it down.
func LaunchStats(addr string, out io.Writer) func() {
	viewer.SetConfiguration(viewer.WithAddr(addr))
	mgr := statsview.New()
	go mgr.Start()
	fmt.Fprintf(out, "stats server available at http://%s%s\n", addr, statsPath)
	return func() { mgr.Stop() }
}

// sequencerState is the graph written by DumpSequencer.
type sequencerState struct {
	Mixing uint8
	Loops  int
	Tracks []sequencer.TrackState
}

// DumpSequencer writes the state of seq as a Graphviz dot graph.
func DumpSequencer(w io.Writer, seq *sequencer.Sequencer) {
	st := &sequencerState{
		Mixing: seq.Mixing(),
		Loops:  seq.LoopCount(),
	}
	for t := 0; t < seq.Tracks(); t++ {
		st.Tracks = append(st.Tracks, seq.State(t))
	}
	memviz.Map(w, st)
}
