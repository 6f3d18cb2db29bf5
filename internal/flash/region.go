package flash

import "fmt"

// Region is a contiguous address range [Addr, Addr+Len).
type Region struct {
	Addr uint32
	Len  uint32
}

// RangeError reports a region that does not fit inside its bounds.
type RangeError struct {
	Addr   uint64
	Len    uint64
	Bounds Region
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("region [0x%x, 0x%x) out of bounds [0x%x, 0x%x)",
		e.Addr, e.Addr+e.Len, e.Bounds.Addr, e.Bounds.end())
}

// NewRegion returns the region of length bytes at addr, checking that it lies
// entirely inside bounds.
func NewRegion(bounds Region, addr, length uint32) (Region, error) {
	r := Region{Addr: addr, Len: length}
	if !bounds.Contains(r) {
		return Region{}, &RangeError{Addr: uint64(addr), Len: uint64(length), Bounds: bounds}
	}
	return r, nil
}

// End returns the first address past the region.
func (r Region) End() uint64 {
	return r.end()
}

func (r Region) end() uint64 {
	return uint64(r.Addr) + uint64(r.Len)
}

// Contains reports whether o lies entirely inside r.
func (r Region) Contains(o Region) bool {
	return o.Addr >= r.Addr && o.end() <= r.end()
}

// Sub returns the region of length bytes starting offset bytes into r.
func (r Region) Sub(offset, length uint32) (Region, error) {
	addr := uint64(r.Addr) + uint64(offset)
	if addr > 0xFFFFFFFF {
		return Region{}, &RangeError{Addr: addr, Len: uint64(length), Bounds: r}
	}
	return NewRegion(r, uint32(addr), length)
}

// Offset returns the distance of addr from the start of r.
func (r Region) Offset(addr uint32) uint32 {
	return addr - r.Addr
}

func (r Region) String() string {
	return fmt.Sprintf("[0x%08X, 0x%08X)", r.Addr, r.end())
}
