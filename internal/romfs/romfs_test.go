package romfs

import (
	"bytes"
	"compress/gzip"
	"testing"
	"testing/fstest"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/bigbag/fcboot/embedded"
)

func gz(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestFind_Plain(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := New(fstest.MapFS{"bootloader.bin": {Data: []byte("plain image")}}, logger)

	data, ok := s.Find("bootloader.bin")
	if !ok {
		t.Fatal("Find() = false")
	}
	if string(data) != "plain image" {
		t.Errorf("Find() = %q", data)
	}
	if s.Outstanding() != 1 {
		t.Errorf("Outstanding() = %d, want 1", s.Outstanding())
	}

	s.Release(data)
	if s.Outstanding() != 0 {
		t.Errorf("Outstanding() after Release = %d, want 0", s.Outstanding())
	}
}

func TestFind_Compressed(t *testing.T) {
	logger, _ := test.NewNullLogger()
	image := bytes.Repeat([]byte{0x20, 0x02, 0x00, 0x08}, 300)
	s := New(fstest.MapFS{"bootloader.bin.gz": {Data: gz(t, image)}}, logger)

	data, ok := s.Find("bootloader.bin")
	if !ok {
		t.Fatal("Find() = false")
	}
	if !bytes.Equal(data, image) {
		t.Errorf("decompressed %d bytes, want %d", len(data), len(image))
	}
}

func TestFind_Missing(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := New(fstest.MapFS{
		"empty.bin":      {Data: nil},
		"corrupt.bin.gz": {Data: []byte("not gzip")},
	}, logger)

	for _, name := range []string{"bootloader.bin", "empty.bin", "corrupt.bin"} {
		if _, ok := s.Find(name); ok {
			t.Errorf("Find(%q) = true, want false", name)
		}
	}
	if s.Outstanding() != 0 {
		t.Errorf("Outstanding() = %d, want 0", s.Outstanding())
	}
}

func TestRelease_Twice(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := New(fstest.MapFS{"bootloader.bin": {Data: []byte("x")}}, logger)

	data, _ := s.Find("bootloader.bin")
	s.Release(data)
	s.Release(data)

	if len(hook.Entries) == 0 || hook.LastEntry().Message != "release of a buffer that is not outstanding" {
		t.Error("double release was not reported")
	}
}

func TestEmbeddedBootloader(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := New(embedded.ROMFS(), logger)

	data, ok := s.Find("bootloader.bin")
	if !ok {
		t.Fatal("embedded ROMFS has no bootloader.bin")
	}
	defer s.Release(data)

	if len(data) < 8 {
		t.Fatalf("bootloader.bin is %d bytes", len(data))
	}
	// Cortex-M vector table: initial stack pointer in SRAM.
	if data[3] != 0x20 {
		t.Errorf("initial SP = %X, want SRAM address", data[:4])
	}
}
