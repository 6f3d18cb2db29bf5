package flash

import (
	"errors"
	"testing"
)

func TestRoundUp(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 0},
		{1, 32},
		{31, 32},
		{32, 32},
		{33, 64},
		{5000, 5024},
	}

	for _, tc := range tests {
		got := RoundUp(tc.in)
		if got != tc.want {
			t.Errorf("RoundUp(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestRoundUp_Invariant(t *testing.T) {
	for n := 0; n < 1024; n++ {
		got := RoundUp(n)
		if got%WriteGranularity != 0 || got < n || got-n >= WriteGranularity {
			t.Fatalf("RoundUp(%d) = %d breaks alignment", n, got)
		}
	}
}

func TestNewRegion_InBounds(t *testing.T) {
	bounds := Region{Addr: 0x08000000, Len: 0x4000}
	r, err := NewRegion(bounds, 0x08003FE0, 0x20)
	if err != nil {
		t.Fatalf("NewRegion() error = %v", err)
	}
	if r.End() != 0x08004000 {
		t.Errorf("End() = 0x%X, want 0x08004000", r.End())
	}
}

func TestNewRegion_OutOfBounds(t *testing.T) {
	bounds := Region{Addr: 0x08000000, Len: 0x4000}
	tests := []struct {
		name   string
		addr   uint32
		length uint32
	}{
		{"before base", 0x07FFFFE0, 0x40},
		{"past end", 0x08003FE0, 0x40},
		{"wraps", 0xFFFFFFF0, 0x20},
	}

	for _, tc := range tests {
		_, err := NewRegion(bounds, tc.addr, tc.length)
		var rangeErr *RangeError
		if !errors.As(err, &rangeErr) {
			t.Errorf("%s: NewRegion() error = %v, want *RangeError", tc.name, err)
		}
	}
}

func TestRegion_Sub(t *testing.T) {
	page := Region{Addr: 0x1000, Len: 0x100}

	tail, err := page.Sub(0xE0, 0x20)
	if err != nil {
		t.Fatalf("Sub() error = %v", err)
	}
	if tail.Addr != 0x10E0 || tail.Len != 0x20 {
		t.Errorf("Sub() = %v, want [0x10E0, 0x1100)", tail)
	}

	if _, err := page.Sub(0xF0, 0x20); err == nil {
		t.Error("Sub() past end should fail")
	}
}

func TestGeometry(t *testing.T) {
	g := Geometry{BaseAddress: 0x08000000, Pages: []uint32{0x4000, 0x4000, 0x10000}}

	if got := g.PageAddress(2); got != 0x08008000 {
		t.Errorf("PageAddress(2) = 0x%X, want 0x08008000", got)
	}
	if got := g.PageSize(3); got != 0 {
		t.Errorf("PageSize(3) = %d, want 0", got)
	}
	if got := g.PageSize(-1); got != 0 {
		t.Errorf("PageSize(-1) = %d, want 0", got)
	}
	if got := g.Size(); got != 0x18000 {
		t.Errorf("Size() = 0x%X, want 0x18000", got)
	}
}
