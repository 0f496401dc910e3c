package gguf

import (
	"errors"
	"io"
)

// Cursor reads forward through a Source. Every read in the decoder goes
// through ReadExact, which refuses to run past the end of the source.
type Cursor struct {
	src  Source
	buf  []byte
	off  int64
	size int64
}

// NewCursor starts a cursor at offset 0 of src.
func NewCursor(src Source) *Cursor {
	c := &Cursor{src: src, size: src.Size()}
	if bs, ok := src.(byteSlicer); ok {
		if b := bs.Bytes(); int64(len(b)) == c.size {
			c.buf = b
		}
	}
	return c
}

// Position returns the number of bytes consumed so far.
func (c *Cursor) Position() int64 { return c.off }

// Remaining returns the number of bytes left in the source.
func (c *Cursor) Remaining() int64 { return c.size - c.off }

// ReadExact returns the next n bytes and advances past them. It fails with
// ErrTruncated, without moving, when fewer than n bytes remain.
//
// For in-memory sources the returned slice aliases the source.
func (c *Cursor) ReadExact(n uint64) ([]byte, error) {
	if n > uint64(c.Remaining()) {
		return nil, c.fail("read", ErrTruncated)
	}
	if n == 0 {
		return []byte{}, nil
	}
	end := c.off + int64(n)
	if c.buf != nil {
		b := c.buf[c.off:end:end]
		c.off = end
		return b, nil
	}

	b := make([]byte, n)
	if _, err := c.src.ReadAt(b, c.off); err != nil {
		// A short read on a source whose Size promised more bytes.
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, c.fail("read", ErrTruncated)
		}
		return nil, c.fail("read", err)
	}
	c.off = end
	return b, nil
}

func (c *Cursor) fail(op string, err error) error {
	return &DecodeError{Op: op, Offset: c.off, Err: err}
}
