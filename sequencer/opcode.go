package sequencer

import "fmt"

// Opcode is a score command byte. Values 1 through MaxNote are notes.
type Opcode uint8

const (
	OpRest   Opcode = 0
	OpVolume Opcode = 200
	OpMixing Opcode = 201
	OpNoise  Opcode = 202
	OpDetune Opcode = 210
	OpLoop   Opcode = 255
)

// IsNote reports whether op is a note code.
func (op Opcode) IsNote() bool {
	return op >= 1 && int(op) <= MaxNote
}

// IsControl reports whether op is a control command that consumes no
// time.
func (op Opcode) IsControl() bool {
	switch op {
	case OpVolume, OpMixing, OpNoise, OpDetune, OpLoop:
		return true
	}
	return false
}

func (op Opcode) String() string {
	switch op {
	case OpRest:
		return "rest"
	case OpVolume:
		return "volume"
	case OpMixing:
		return "mixing"
	case OpNoise:
		return "noise"
	case OpDetune:
		return "detune"
	case OpLoop:
		return "loop"
	}
	if op.IsNote() {
		return fmt.Sprintf("note(%d)", uint8(op))
	}
	return fmt.Sprintf("Opcode(%d)", uint8(op))
}
