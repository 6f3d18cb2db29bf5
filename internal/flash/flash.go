package flash

// Flash parameters
const (
	WriteGranularity = 32   // bytes per program operation
	ErasedByte       = 0xFF // value of an erased cell
)

// Device is an on-chip flash controller addressed by page.
//
// PageSize returns 0 for a page the device does not know about. Writes and
// erases report success as a bool; callers are expected to retry.
type Device interface {
	PageAddress(page int) uint32
	PageSize(page int) uint32
	ErasePage(page int) bool
	Write(addr uint32, data []byte) bool
	SetWriteUnlocked(unlocked bool)
	Read(r Region) ([]byte, error)
}

// RoundUp rounds n up to the next multiple of WriteGranularity.
func RoundUp(n int) int {
	return (n + WriteGranularity - 1) &^ (WriteGranularity - 1)
}
