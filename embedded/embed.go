package embedded

import (
	"embed"
	"io/fs"
)

//go:embed romfs
var romfs embed.FS

// ROMFS returns the read-only resource store compiled into the firmware.
// It carries bootloader.bin, the secondary bootloader image.
func ROMFS() fs.FS {
	sub, err := fs.Sub(romfs, "romfs")
	if err != nil {
		panic(err)
	}
	return sub
}
