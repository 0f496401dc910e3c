package gguf

import (
	"fmt"
	"io"
)

// Source is a random-access byte source of known size.
type Source interface {
	io.ReaderAt
	Size() int64
}

// byteSlicer is implemented by sources that already hold their bytes in memory.
// The cursor slices them directly instead of copying through ReadAt.
type byteSlicer interface {
	Bytes() []byte
}

// Bytes is an in-memory Source.
type Bytes []byte

func (b Bytes) Size() int64 { return int64(len(b)) }

func (b Bytes) Bytes() []byte { return b }

func (b Bytes) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("gguf: negative offset %d", off)
	}
	if off >= int64(len(b)) {
		return 0, io.EOF
	}
	n := copy(p, b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
