// Package romfs hands out images from a read-only resource store.
package romfs

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/sirupsen/logrus"
)

// Source finds images in fsys. An entry may be stored as-is or gzip
// compressed under name + ".gz".
type Source struct {
	fsys        fs.FS
	log         logrus.FieldLogger
	outstanding map[*byte]string
}

// New returns a source reading from fsys.
func New(fsys fs.FS, log logrus.FieldLogger) *Source {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Source{
		fsys:        fsys,
		log:         log.WithField("component", "romfs"),
		outstanding: make(map[*byte]string),
	}
}

// Find returns the decompressed contents of name. The buffer stays
// outstanding until it is handed back to Release.
func (s *Source) Find(name string) ([]byte, bool) {
	data, err := s.load(name)
	if err != nil {
		s.log.WithError(err).WithField("name", name).Debug("image not found")
		return nil, false
	}
	if len(data) == 0 {
		s.log.WithField("name", name).Warn("image is empty")
		return nil, false
	}
	s.outstanding[&data[0]] = name
	return data, true
}

func (s *Source) load(name string) ([]byte, error) {
	data, err := fs.ReadFile(s.fsys, name)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	compressed, err := fs.ReadFile(s.fsys, name+".gz")
	if err != nil {
		return nil, err
	}
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s.gz: %w", name, err)
	}
	defer zr.Close()

	data, err = io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s.gz: %w", name, err)
	}
	return data, nil
}

// Release hands a buffer returned by Find back to the store.
func (s *Source) Release(data []byte) {
	if len(data) == 0 {
		return
	}
	name, ok := s.outstanding[&data[0]]
	if !ok {
		s.log.Error("release of a buffer that is not outstanding")
		return
	}
	delete(s.outstanding, &data[0])
	s.log.WithField("name", name).Debug("released")
}

// Outstanding returns the number of buffers not yet released.
func (s *Source) Outstanding() int {
	return len(s.outstanding)
}
