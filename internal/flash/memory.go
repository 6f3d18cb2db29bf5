package flash

import (
	"bytes"
	"fmt"
)

// Memory is an in-RAM model of NOR flash. Erase sets a page to ErasedByte,
// a write can only clear bits and is verified by reading back, and writes
// are rejected outside the unlock window or off the write granularity.
type Memory struct {
	geom     Geometry
	data     []byte
	unlocked bool
}

// NewMemory returns a fully erased bank with the given geometry.
func NewMemory(geom Geometry) *Memory {
	data := bytes.Repeat([]byte{ErasedByte}, int(geom.Size()))
	return &Memory{geom: geom, data: data}
}

// NewMemoryFrom returns a bank initialized from an existing image. The image
// length must match the geometry.
func NewMemoryFrom(geom Geometry, contents []byte) (*Memory, error) {
	if uint64(len(contents)) != uint64(geom.Size()) {
		return nil, fmt.Errorf("image is %d bytes, geometry needs %d", len(contents), geom.Size())
	}
	data := make([]byte, len(contents))
	copy(data, contents)
	return &Memory{geom: geom, data: data}, nil
}

// Geometry returns the page layout of the bank.
func (m *Memory) Geometry() Geometry {
	return m.geom
}

// PageAddress implements Device.
func (m *Memory) PageAddress(page int) uint32 {
	return m.geom.PageAddress(page)
}

// PageSize implements Device.
func (m *Memory) PageSize(page int) uint32 {
	return m.geom.PageSize(page)
}

// ErasePage implements Device.
func (m *Memory) ErasePage(page int) bool {
	r := m.geom.PageRegion(page)
	if r.Len == 0 {
		return false
	}
	off := m.geom.Span().Offset(r.Addr)
	for i := off; i < off+r.Len; i++ {
		m.data[i] = ErasedByte
	}
	return true
}

// Write implements Device.
func (m *Memory) Write(addr uint32, data []byte) bool {
	if !m.unlocked {
		return false
	}
	if addr%WriteGranularity != 0 || len(data)%WriteGranularity != 0 {
		return false
	}
	r, err := NewRegion(m.geom.Span(), addr, uint32(len(data)))
	if err != nil {
		return false
	}
	off := m.geom.Span().Offset(r.Addr)
	dst := m.data[off : off+r.Len]
	for i, b := range data {
		dst[i] &= b
	}
	return bytes.Equal(dst, data)
}

// SetWriteUnlocked implements Device.
func (m *Memory) SetWriteUnlocked(unlocked bool) {
	m.unlocked = unlocked
}

// Unlocked reports whether the unlock window is currently open.
func (m *Memory) Unlocked() bool {
	return m.unlocked
}

// Read implements Device.
func (m *Memory) Read(r Region) ([]byte, error) {
	if _, err := NewRegion(m.geom.Span(), r.Addr, r.Len); err != nil {
		return nil, err
	}
	off := m.geom.Span().Offset(r.Addr)
	out := make([]byte, r.Len)
	copy(out, m.data[off:off+r.Len])
	return out, nil
}

// Bytes returns a copy of the whole bank.
func (m *Memory) Bytes() []byte {
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out
}
