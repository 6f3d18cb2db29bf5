// Package persist carries a small set of calibration values across a
// bootloader re-flash by storing them as text at the tail of the bootloader
// sector.
//
// A block looks like:
//
//	{{PERSISTENT_START_V1}}
//	INS_ACCOFFS_X=0.0125
//	INS_ACCOFFS_Y=-0.031
//	<spaces up to a multiple of 32 bytes>
package persist

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/bigbag/fcboot/internal/console"
)

// Producer appends name=value records for the parameters it owns.
type Producer interface {
	PersistentParams(b *Builder)
}

// Store receives decoded parameters as defaults.
type Store interface {
	SetDefault(name string, value float32) bool
	InvalidateCount()
}

// Codec encodes, locates and applies persistent parameter blocks.
type Codec struct {
	producers []Producer
	store     Store
	sink      console.Sink
	limit     int
}

// New returns a codec that encodes from producers and applies into store.
func New(store Store, sink console.Sink, producers ...Producer) *Codec {
	if sink == nil {
		sink = console.Discard
	}
	return &Codec{
		producers: producers,
		store:     store,
		sink:      sink,
		limit:     DefaultLimit,
	}
}

// SetLimit changes the builder capacity used by Encode.
func (c *Codec) SetLimit(limit int) {
	c.limit = limit
}

// Encode builds a fresh block from the registered producers. It returns nil
// when no producer wrote anything or the block did not fit in the builder.
func (c *Codec) Encode() []byte {
	b := NewBuilder(c.limit)
	b.Append([]byte(Header))
	for _, p := range c.producers {
		p.PersistentParams(b)
	}
	if b.Failed() || b.Len() <= len(Header) {
		return nil
	}

	for !b.Failed() && b.Len()%Alignment != 0 {
		b.Append([]byte{' '})
	}
	if b.Failed() {
		return nil
	}
	return b.Bytes()
}

// Decode finds a block inside sector. The block runs from the header to the
// end of the sector, padding included. It returns nil if there is no header.
func Decode(sector []byte) []byte {
	i := bytes.Index(sector, []byte(Header))
	if i < 0 {
		return nil
	}
	block := make([]byte, len(sector)-i)
	copy(block, sector[i:])
	return block
}

// Decode locates a block in sector. See the package-level Decode.
func (c *Codec) Decode(sector []byte) []byte {
	return Decode(sector)
}

// Apply installs every name=value record in block as a parameter default and
// returns how many were accepted. Records without '=', with an unparsable
// value, or naming an unknown parameter are skipped.
func (c *Codec) Apply(block []byte) int {
	if c.store == nil || !bytes.HasPrefix(block, []byte(Header)) {
		return 0
	}

	count := 0
	for _, line := range strings.Split(string(block[len(Header):]), "\n") {
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 32)
		if err != nil {
			continue
		}
		if c.store.SetDefault(strings.TrimSpace(name), float32(v)) {
			count++
		}
	}

	if count > 0 {
		c.store.InvalidateCount()
		c.sink.Printf("Loaded %d persistent parameters", count)
	}
	return count
}

// FormatValue renders v with the fewest digits that parse back to the same
// float32.
func FormatValue(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}
