package core

import (
	"encoding/binary"
	"errors"
)

// Frame limits
const (
	MaxTimes    = 16            // Distinct durations per frame (4-bit index)
	MaxPulses   = 256           // Edges per frame, must be even
	MaxSequence = MaxPulses / 2 // Two indices per byte
	MaxTimeDiff = 100           // Tolerance in microseconds

	// FrameBlobSize is the encoded size of a Frame:
	// times (32) + sequence (128) + times count (1) + length (2)
	FrameBlobSize = MaxTimes*2 + MaxSequence + 1 + 2
)

// ErrFrameCorrupt is returned when a frame blob violates the frame invariants
var ErrFrameCorrupt = errors.New("frame blob corrupt")

// Frame is a learned pulse train: a table of distinct durations plus the
// chronological sequence of edges as 4-bit indices into that table.
type Frame struct {
	times      [MaxTimes]uint16
	sequence   [MaxSequence]uint8
	timesCount uint8
	length     uint16
}

// TimeMatch reports whether two durations are equal within MaxTimeDiff.
// The relation is symmetric but not transitive.
func TimeMatch(a, b uint32) bool {
	return absDiff(a, b) <= MaxTimeDiff
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}

// Clear empties the frame
func (f *Frame) Clear() {
	f.timesCount = 0
	f.length = 0
}

// Len returns the number of edges in the frame
func (f *Frame) Len() int {
	return int(f.length)
}

// TimesCount returns the number of distinct durations
func (f *Frame) TimesCount() int {
	return int(f.timesCount)
}

// Times returns a copy of the duration table in discovery order
func (f *Frame) Times() []uint16 {
	out := make([]uint16, f.timesCount)
	copy(out, f.times[:f.timesCount])
	return out
}

// Add appends one edge duration. The first table entry within tolerance
// is reused (first match, not closest match); otherwise the duration is
// appended to the table. Add returns false, leaving the frame untouched,
// when the table is full with no match or the sequence is full.
func (f *Frame) Add(time uint16) bool {
	if f.length >= MaxPulses {
		return false
	}

	index := -1
	for i := uint8(0); i < f.timesCount; i++ {
		if TimeMatch(uint32(f.times[i]), uint32(time)) {
			index = int(i)
			break
		}
	}
	if index == -1 {
		if f.timesCount >= MaxTimes {
			return false
		}
		f.times[f.timesCount] = time
		index = int(f.timesCount)
		f.timesCount++
	}

	f.setIndex(int(f.length), uint8(index))
	f.length++
	return true
}

// Get returns the duration of edge i. i must be < Len().
func (f *Frame) Get(i int) uint16 {
	if i >= int(f.length) {
		panic("frame: edge index out of range")
	}
	return f.times[f.index(i)]
}

// Durations decodes every edge in order
func (f *Frame) Durations() []uint16 {
	out := make([]uint16, f.length)
	for i := range out {
		out[i] = f.Get(i)
	}
	return out
}

// Equal reports whether both frames hold the same table and sequence
func (f *Frame) Equal(other *Frame) bool {
	if f.timesCount != other.timesCount || f.length != other.length {
		return false
	}
	for i := uint8(0); i < f.timesCount; i++ {
		if f.times[i] != other.times[i] {
			return false
		}
	}
	for i := 0; i < int(f.length); i++ {
		if f.index(i) != other.index(i) {
			return false
		}
	}
	return true
}

// index returns the packed 4-bit table index of edge i.
// Even edges live in the low nibble, odd edges in the high nibble.
func (f *Frame) index(i int) uint8 {
	shift := uint8(0)
	if i&1 != 0 {
		shift = 4
	}
	return (f.sequence[i>>1] >> shift) & 0x0f
}

func (f *Frame) setIndex(i int, index uint8) {
	b := &f.sequence[i>>1]
	if i&1 != 0 {
		*b = (*b & 0x0f) | index<<4
	} else {
		*b = (*b & 0xf0) | index
	}
}

// MarshalBinary encodes the frame in its fixed non-volatile layout
func (f *Frame) MarshalBinary() ([]byte, error) {
	buf := make([]byte, FrameBlobSize)
	f.encode(buf)
	return buf, nil
}

func (f *Frame) encode(buf []byte) {
	pos := 0
	for i := 0; i < MaxTimes; i++ {
		binary.LittleEndian.PutUint16(buf[pos:], f.times[i])
		pos += 2
	}
	pos += copy(buf[pos:], f.sequence[:])
	buf[pos] = f.timesCount
	pos++
	binary.LittleEndian.PutUint16(buf[pos:], f.length)
}

// UnmarshalBinary decodes a frame blob, rejecting blobs that break the
// table or sequence bounds.
func (f *Frame) UnmarshalBinary(data []byte) error {
	if len(data) < FrameBlobSize {
		return ErrFrameCorrupt
	}

	var next Frame
	pos := 0
	for i := 0; i < MaxTimes; i++ {
		next.times[i] = binary.LittleEndian.Uint16(data[pos:])
		pos += 2
	}
	pos += copy(next.sequence[:], data[pos:pos+MaxSequence])
	next.timesCount = data[pos]
	pos++
	next.length = binary.LittleEndian.Uint16(data[pos:])

	if next.timesCount > MaxTimes || next.length > MaxPulses {
		return ErrFrameCorrupt
	}
	for i := 0; i < int(next.length); i++ {
		if next.index(i) >= next.timesCount {
			return ErrFrameCorrupt
		}
	}

	*f = next
	return nil
}
