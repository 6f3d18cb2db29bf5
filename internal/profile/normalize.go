package profile

// Defaults match an STM32F4-class board: 16K bootloader sector at the start
// of internal flash.
const (
	DefaultImageName         = "bootloader.bin"
	DefaultMaxAttempts       = 10
	DefaultRetryDelayMs      = 100
	DefaultWatchdogTimeoutMs = 2000
	DefaultBaseAddress       = 0x08000000
)

var defaultPages = []uint32{0x4000, 0x4000, 0x4000, 0x4000}

func normalize(p *Profile) {
	if p.Flash.BaseAddress == 0 {
		p.Flash.BaseAddress = DefaultBaseAddress
	}
	if len(p.Flash.Pages) == 0 {
		p.Flash.Pages = append([]uint32(nil), defaultPages...)
	}
	if p.Update.ImageName == "" {
		p.Update.ImageName = DefaultImageName
	}
	if p.Update.MaxAttempts == 0 {
		p.Update.MaxAttempts = DefaultMaxAttempts
	}
	if p.Update.RetryDelayMs == 0 {
		p.Update.RetryDelayMs = DefaultRetryDelayMs
	}
	if p.Update.WatchdogTimeoutMs == 0 {
		p.Update.WatchdogTimeoutMs = DefaultWatchdogTimeoutMs
	}
}

// Default returns a normalized profile with no calibration.
func Default() *Profile {
	var p Profile
	normalize(&p)
	return &p
}
