package bitvector

import (
	"github.com/pkg/errors"
)

// Buffer carries the contents of a BitVector across an ownership boundary (e.g. to the
// worker and back) without copying the words.
//
// It is move-only by convention: once a Buffer is sent, the sender must not use it again,
// and only the receiver may Adopt it.
type Buffer struct {
	Size  int
	Words []uint32
}

// Transfer moves the contents of v into a Buffer. The words are not copied, and v becomes
// invalid: any further use of v panics.
func (v *BitVector) Transfer() Buffer {
	v.checkValid()
	buf := Buffer{Size: v.size, Words: v.words}
	v.words = nil
	v.count = 0
	v.transferred = true
	return buf
}

// Adopt takes ownership of the buffer words and returns the corresponding BitVector.
// The words are validated against the buffer size, and an error is returned for
// malformed buffers.
func Adopt(buf Buffer) (*BitVector, error) {
	v, err := fromWords(buf.Size, buf.Words)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to adopt transferred buffer")
	}
	return v, nil
}

// IsZero returns whether the buffer is empty (never filled or already adopted-and-cleared).
func (buf Buffer) IsZero() bool {
	return buf.Size == 0 && buf.Words == nil
}
