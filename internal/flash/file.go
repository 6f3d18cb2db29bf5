package flash

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// File is a flash bank backed by a dump file on disk. Every successful erase
// or write is written through to the file.
type File struct {
	*Memory
	backingStore *os.File
	fileName     string
	log          logrus.FieldLogger
}

// CreateFile creates a blank (fully erased) dump file for geom at path.
func CreateFile(path string, geom Geometry) error {
	if geom.Size() == 0 {
		return fmt.Errorf("geometry has no pages")
	}
	blank := bytes.Repeat([]byte{ErasedByte}, int(geom.Size()))
	if err := os.WriteFile(path, blank, 0o644); err != nil {
		return fmt.Errorf("failed to create flash dump %s: %w", path, err)
	}
	return nil
}

// OpenFile opens an existing dump file. The file size must match geom.
func OpenFile(path string, geom Geometry) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open flash dump: %w", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read flash dump: %w", err)
	}

	mem, err := NewMemoryFrom(geom, contents)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("flash dump %s: %w", path, err)
	}

	return &File{
		Memory:       mem,
		backingStore: f,
		fileName:     path,
		log:          logrus.WithField("flash", path),
	}, nil
}

// Name returns the dump file path.
func (f *File) Name() string {
	return f.fileName
}

// ErasePage implements Device.
func (f *File) ErasePage(page int) bool {
	if !f.Memory.ErasePage(page) {
		return false
	}
	return f.sync(f.geom.PageRegion(page))
}

// Write implements Device.
func (f *File) Write(addr uint32, data []byte) bool {
	if !f.Memory.Write(addr, data) {
		return false
	}
	return f.sync(Region{Addr: addr, Len: uint32(len(data))})
}

// sync writes r from memory through to the backing file.
func (f *File) sync(r Region) bool {
	off := f.geom.Span().Offset(r.Addr)
	if _, err := f.backingStore.WriteAt(f.data[off:off+r.Len], int64(off)); err != nil {
		f.log.WithError(err).WithField("region", r.String()).Error("write-through failed")
		return false
	}
	return true
}

// Close closes the backing file.
func (f *File) Close() error {
	if f.backingStore == nil {
		return fmt.Errorf("already closed")
	}
	err := f.backingStore.Close()
	f.backingStore = nil
	return err
}
