package persist

import "fmt"

// Block framing
const (
	Header       = "{{PERSISTENT_START_V1}}\n" // marks a valid block
	Alignment    = 32                          // block length granularity
	DefaultLimit = 8192                        // builder capacity
)

// Builder accumulates block text up to a fixed capacity. Once an append
// would exceed the capacity the builder is marked failed and stops growing,
// so a block is either complete or discarded, never truncated.
type Builder struct {
	buf    []byte
	limit  int
	failed bool
}

// NewBuilder returns a builder that holds at most limit bytes.
func NewBuilder(limit int) *Builder {
	return &Builder{limit: limit}
}

// Append adds p to the builder.
func (b *Builder) Append(p []byte) {
	if b.failed {
		return
	}
	if len(b.buf)+len(p) > b.limit {
		b.failed = true
		return
	}
	b.buf = append(b.buf, p...)
}

// Printf appends formatted text.
func (b *Builder) Printf(format string, args ...any) {
	b.Append([]byte(fmt.Sprintf(format, args...)))
}

// Len returns the number of bytes accumulated.
func (b *Builder) Len() int {
	return len(b.buf)
}

// Bytes returns the accumulated bytes.
func (b *Builder) Bytes() []byte {
	return b.buf
}

// Failed reports whether an append was refused for lack of space.
func (b *Builder) Failed() bool {
	return b.failed
}
