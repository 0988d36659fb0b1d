package slot

import (
	"sort"

	"github.com/user-none/chipstream/chip"
)

// dataStream feeds bytes from a data block to one chip register at a
// fixed frequency.
type dataStream struct {
	typ   chip.Type
	index int
	port  uint16

	block   int
	freq    int
	acc     int
	pos     int
	end     int
	running bool
}

// AddDataBlock stores a copy of data under id, replacing any block with
// the same id.
func (s *Slot) AddDataBlock(id int, data []byte) {
	s.blocks[id] = append([]byte(nil), data...)
}

// DataBlock returns the block stored under id, or nil.
func (s *Slot) DataBlock(id int) []byte {
	return s.blocks[id]
}

// DataBlockCount returns the number of stored blocks.
func (s *Slot) DataBlockCount() int {
	return len(s.blocks)
}

// AddDataStream sets up stream id to write to register reg of bank port
// on chip (t, index). Streams targeting a missing chip are not created.
func (s *Slot) AddDataStream(id int, t chip.Type, index int, port, reg uint8) {
	if s.Device(t, index) == nil {
		return
	}
	if _, ok := s.streams[id]; !ok {
		s.ids = append(s.ids, id)
		sort.Ints(s.ids)
	}
	s.streams[id] = &dataStream{
		typ:   t,
		index: index,
		port:  uint16(port)<<8 | uint16(reg),
	}
}

// AttachDataBlock selects the data block a stream reads from.
func (s *Slot) AttachDataBlock(id, block int) {
	if ds, ok := s.streams[id]; ok {
		ds.block = block
	}
}

// SetDataStreamFrequency sets the stream's write rate in Hz.
func (s *Slot) SetDataStreamFrequency(id, hz int) {
	if ds, ok := s.streams[id]; ok {
		ds.freq = hz
		ds.acc = 0
	}
}

// StartDataStream plays length bytes of the attached block from offset.
func (s *Slot) StartDataStream(id, offset, length int) {
	ds, ok := s.streams[id]
	if !ok {
		return
	}
	ds.pos = offset
	ds.end = offset + length
	ds.acc = 0
	ds.running = length > 0
}

// StartDataStreamBlock attaches block to the stream and plays all of it.
func (s *Slot) StartDataStreamBlock(id, block int) {
	ds, ok := s.streams[id]
	if !ok {
		return
	}
	data, ok := s.blocks[block]
	if !ok {
		return
	}
	ds.block = block
	s.StartDataStream(id, 0, len(data))
}

// StopDataStream halts a stream.
func (s *Slot) StopDataStream(id int) {
	if ds, ok := s.streams[id]; ok {
		ds.running = false
	}
}

// DataStreamActive reports whether a stream is playing.
func (s *Slot) DataStreamActive(id int) bool {
	ds, ok := s.streams[id]
	return ok && ds.running
}

// stepStreams advances every running stream by one tick, in id order.
func (s *Slot) stepStreams() {
	for _, id := range s.ids {
		ds := s.streams[id]
		if !ds.running || ds.freq <= 0 {
			continue
		}
		data := s.blocks[ds.block]
		ds.acc += ds.freq
		for ds.acc >= s.tickRate {
			ds.acc -= s.tickRate
			if ds.pos >= ds.end || ds.pos >= len(data) {
				ds.running = false
				break
			}
			s.Write(ds.typ, ds.index, ds.port, data[ds.pos])
			ds.pos++
		}
	}
}
