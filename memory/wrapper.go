package memory

import (
	"math"

	"github.com/tetratelabs/wazero/api"
)

// WrapMemory wraps a wazero api.Memory so arrays can be stored in it.
func WrapMemory(mem api.Memory) *Wrapper {
	if mem == nil {
		return nil
	}
	return &Wrapper{Mem: mem}
}

// Wrapper adapts wazero api.Memory to the Growable interface.
// Views returned by Read alias the guest memory and are invalidated by Grow.
type Wrapper struct {
	Mem api.Memory
}

func (m *Wrapper) span(offset uint32, length uint64) ([]byte, bool) {
	if length > math.MaxUint32 {
		return nil, false
	}
	return m.Mem.Read(offset, uint32(length))
}

// Size returns the memory size in bytes.
func (m *Wrapper) Size() uint32 { return m.Mem.Size() }

// Grow extends the memory by deltaPages pages.
func (m *Wrapper) Grow(deltaPages uint32) (uint32, bool) { return m.Mem.Grow(deltaPages) }

// Read returns a view of length bytes at offset.
func (m *Wrapper) Read(offset, length uint32) ([]byte, error) {
	return read(m, offset, uint64(length))
}

// Write copies data into memory at offset.
func (m *Wrapper) Write(offset uint32, data []byte) error { return write(m, offset, data) }

func (m *Wrapper) ReadU8(offset uint32) (uint8, error)   { return readU8(m, offset) }
func (m *Wrapper) ReadU16(offset uint32) (uint16, error) { return readU16(m, offset) }
func (m *Wrapper) ReadU32(offset uint32) (uint32, error) { return readU32(m, offset) }
func (m *Wrapper) ReadU64(offset uint32) (uint64, error) { return readU64(m, offset) }

func (m *Wrapper) WriteU8(offset uint32, v uint8) error   { return writeU8(m, offset, v) }
func (m *Wrapper) WriteU16(offset uint32, v uint16) error { return writeU16(m, offset, v) }
func (m *Wrapper) WriteU32(offset uint32, v uint32) error { return writeU32(m, offset, v) }
func (m *Wrapper) WriteU64(offset uint32, v uint64) error { return writeU64(m, offset, v) }
