package flash

// Geometry describes a flash bank as an ordered list of page sizes starting
// at BaseAddress. Pages need not be uniform (STM32F4 sectors are 16K, 16K,
// 16K, 16K, 64K, 128K...).
type Geometry struct {
	BaseAddress uint32
	Pages       []uint32
}

// PageAddress returns the start address of page, or 0 for an unknown page.
func (g Geometry) PageAddress(page int) uint32 {
	if page < 0 || page >= len(g.Pages) {
		return 0
	}
	addr := g.BaseAddress
	for _, size := range g.Pages[:page] {
		addr += size
	}
	return addr
}

// PageSize returns the size of page, or 0 for an unknown page.
func (g Geometry) PageSize(page int) uint32 {
	if page < 0 || page >= len(g.Pages) {
		return 0
	}
	return g.Pages[page]
}

// PageRegion returns the address range covered by page.
func (g Geometry) PageRegion(page int) Region {
	return Region{Addr: g.PageAddress(page), Len: g.PageSize(page)}
}

// Size returns the total number of bytes in the bank.
func (g Geometry) Size() uint32 {
	var total uint32
	for _, size := range g.Pages {
		total += size
	}
	return total
}

// Span returns the region covering the whole bank.
func (g Geometry) Span() Region {
	return Region{Addr: g.BaseAddress, Len: g.Size()}
}
