package memory

import (
	"encoding/binary"

	"github.com/wippyai/dynarray"
	"github.com/wippyai/dynarray/errors"
)

// PageSize is the growth granularity of every memory in this package.
const PageSize = 65536

// DefaultMaxPages bounds memories whose Config leaves MaxPages unset (1 GiB).
const DefaultMaxPages = 16384

// MaxPages is the largest page count whose byte size fits in a uint32.
const MaxPages = 65535

// Grower is implemented by memories that can be extended in whole pages.
type Grower interface {
	// Grow adds deltaPages pages and returns the previous page count.
	// It returns false, leaving the memory unchanged, when the limit would be exceeded.
	Grow(deltaPages uint32) (previousPages uint32, ok bool)
}

// Growable is a memory that reports its size and can grow.
type Growable interface {
	dynarray.Memory
	dynarray.MemorySizer
	Grower
}

// Config holds configuration for memory creation
type Config struct {
	// InitialPages is the starting size in pages. 0 means 1.
	InitialPages uint32

	// MaxPages caps growth. 0 means DefaultMaxPages.
	MaxPages uint32
}

func (c *Config) limits() (initial, max uint32) {
	initial, max = 1, DefaultMaxPages
	if c != nil {
		if c.InitialPages > 0 {
			initial = c.InitialPages
		}
		if c.MaxPages > 0 {
			max = c.MaxPages
		}
	}
	if max > MaxPages {
		max = MaxPages
	}
	if initial > max {
		initial = max
	}
	return initial, max
}

// spanner exposes a bounds-checked view of a memory region. Writes to the
// view must reach the memory.
type spanner interface {
	span(offset uint32, length uint64) ([]byte, bool)
}

func read(s spanner, offset uint32, length uint64) ([]byte, error) {
	b, ok := s.span(offset, length)
	if !ok {
		return nil, outOfBounds("read", offset, length)
	}
	return b, nil
}

func write(s spanner, offset uint32, data []byte) error {
	b, ok := s.span(offset, uint64(len(data)))
	if !ok {
		return outOfBounds("write", offset, uint64(len(data)))
	}
	copy(b, data)
	return nil
}

func readU8(s spanner, offset uint32) (uint8, error) {
	b, err := read(s, offset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func readU16(s spanner, offset uint32) (uint16, error) {
	b, err := read(s, offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func readU32(s spanner, offset uint32) (uint32, error) {
	b, err := read(s, offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func readU64(s spanner, offset uint32) (uint64, error) {
	b, err := read(s, offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func writeU8(s spanner, offset uint32, v uint8) error {
	return write(s, offset, []byte{v})
}

func writeU16(s spanner, offset uint32, v uint16) error {
	return write(s, offset, binary.LittleEndian.AppendUint16(nil, v))
}

func writeU32(s spanner, offset uint32, v uint32) error {
	return write(s, offset, binary.LittleEndian.AppendUint32(nil, v))
}

func writeU64(s spanner, offset uint32, v uint64) error {
	return write(s, offset, binary.LittleEndian.AppendUint64(nil, v))
}

func outOfBounds(op string, offset uint32, length uint64) error {
	return errors.New(errors.PhaseMemory, errors.KindOutOfBounds).
		Detail("memory %s out of bounds: offset=%d, length=%d", op, offset, length).
		Value(offset).
		Build()
}
