package sequencer

import (
	_ "embed"
	"fmt"

	"github.com/spf13/afero"
	lua "github.com/yuin/gopher-lua"
)

// Defaults used when a score does not set them.
const (
	DefaultTickRate = 60
	DefaultClock    = 3579545
)

//go:embed demo.lua
var demoScore []byte

// Score is a loaded music script.
type Score struct {
	Name     string
	Tracks   [][]byte
	TickRate int
	Clock    int
}

// Demo returns the built-in score.
func Demo() (*Score, error) {
	return ParseScore("demo.lua", demoScore)
}

// LoadScore reads and parses a Lua score file from fs.
func LoadScore(fs afero.Fs, path string) (*Score, error) {
	src, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read score: %w", err)
	}
	return ParseScore(path, src)
}

// ParseScore evaluates a Lua score. The script must define a global
// "tracks" table holding up to three arrays of byte values; "tick_rate"
// and "clock" are optional. Only the package, base, table and math
// libraries are opened.
func ParseScore(name string, src []byte) (*Score, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	if err := L.DoString(string(src)); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	sc := &Score{
		Name:     name,
		TickRate: DefaultTickRate,
		Clock:    DefaultClock,
	}
	tbl, ok := L.GetGlobal("tracks").(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%s: missing tracks table", name)
	}
	n := tbl.Len()
	if n > MaxTracks {
		return nil, fmt.Errorf("%s: %d tracks, at most %d supported", name, n, MaxTracks)
	}
	for i := 1; i <= n; i++ {
		tr, ok := tbl.RawGetInt(i).(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("%s: track %d is not a table", name, i)
		}
		data := make([]byte, 0, tr.Len())
		for j := 1; j <= tr.Len(); j++ {
			v, ok := tr.RawGetInt(j).(lua.LNumber)
			if !ok || v < 0 || v > 255 || v != lua.LNumber(int(v)) {
				return nil, fmt.Errorf("%s: track %d entry %d is not a byte", name, i, j)
			}
			data = append(data, byte(v))
		}
		sc.Tracks = append(sc.Tracks, data)
	}

	if v, ok := L.GetGlobal("tick_rate").(lua.LNumber); ok {
		sc.TickRate = int(v)
	}
	if v, ok := L.GetGlobal("clock").(lua.LNumber); ok {
		sc.Clock = int(v)
	}
	if sc.TickRate <= 0 || sc.Clock <= 0 {
		return nil, fmt.Errorf("%s: invalid tick_rate %d or clock %d", name, sc.TickRate, sc.Clock)
	}
	return sc, nil
}
