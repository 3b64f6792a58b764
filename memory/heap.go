package memory

// Heap is a growable memory backed by a Go byte slice.
// Heap is not safe for concurrent use.
type Heap struct {
	data     []byte
	maxPages uint32
}

// NewHeap creates a heap memory. A nil cfg uses defaults.
func NewHeap(cfg *Config) *Heap {
	initial, max := cfg.limits()
	return &Heap{
		data:     make([]byte, uint64(initial)*PageSize),
		maxPages: max,
	}
}

// Size returns the memory size in bytes.
func (h *Heap) Size() uint32 {
	return uint32(len(h.data))
}

// Pages returns the memory size in pages.
func (h *Heap) Pages() uint32 {
	return uint32(len(h.data) / PageSize)
}

// Grow extends the memory by deltaPages zeroed pages.
// Slices previously returned by Read must not be used after a successful Grow.
func (h *Heap) Grow(deltaPages uint32) (uint32, bool) {
	prev := h.Pages()
	if deltaPages == 0 {
		return prev, true
	}
	if uint64(prev)+uint64(deltaPages) > uint64(h.maxPages) {
		return prev, false
	}
	grown := make([]byte, uint64(prev+deltaPages)*PageSize)
	copy(grown, h.data)
	h.data = grown
	return prev, true
}

func (h *Heap) span(offset uint32, length uint64) ([]byte, bool) {
	end := uint64(offset) + length
	if end > uint64(len(h.data)) {
		return nil, false
	}
	return h.data[offset:end:end], true
}

// Read returns a view of length bytes at offset.
func (h *Heap) Read(offset, length uint32) ([]byte, error) {
	return read(h, offset, uint64(length))
}

// Write copies data into memory at offset.
func (h *Heap) Write(offset uint32, data []byte) error { return write(h, offset, data) }

// Fixed-width accessors are little-endian.

func (h *Heap) ReadU8(offset uint32) (uint8, error)   { return readU8(h, offset) }
func (h *Heap) ReadU16(offset uint32) (uint16, error) { return readU16(h, offset) }
func (h *Heap) ReadU32(offset uint32) (uint32, error) { return readU32(h, offset) }
func (h *Heap) ReadU64(offset uint32) (uint64, error) { return readU64(h, offset) }

func (h *Heap) WriteU8(offset uint32, v uint8) error   { return writeU8(h, offset, v) }
func (h *Heap) WriteU16(offset uint32, v uint16) error { return writeU16(h, offset, v) }
func (h *Heap) WriteU32(offset uint32, v uint32) error { return writeU32(h, offset, v) }
func (h *Heap) WriteU64(offset uint32, v uint64) error { return writeU64(h, offset, v) }
