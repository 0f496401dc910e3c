package gguf

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
)

func (c *Cursor) readU8() (uint8, error) {
	b, err := c.ReadExact(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Cursor) readI8() (int8, error) {
	v, err := c.readU8()
	return int8(v), err
}

func (c *Cursor) readU16() (uint16, error) {
	b, err := c.ReadExact(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *Cursor) readI16() (int16, error) {
	v, err := c.readU16()
	return int16(v), err
}

func (c *Cursor) readU32() (uint32, error) {
	b, err := c.ReadExact(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *Cursor) readI32() (int32, error) {
	v, err := c.readU32()
	return int32(v), err
}

func (c *Cursor) readU64() (uint64, error) {
	b, err := c.ReadExact(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (c *Cursor) readI64() (int64, error) {
	v, err := c.readU64()
	return int64(v), err
}

func (c *Cursor) readF32() (float32, error) {
	u, err := c.readU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(u), nil
}

func (c *Cursor) readF64() (float64, error) {
	u, err := c.readU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(u), nil
}

// readBool accepts only 0 and 1; any other byte means a corrupt file.
func (c *Cursor) readBool() (bool, error) {
	start := c.off
	v, err := c.readU8()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, &DecodeError{Op: "bool", Offset: start, Err: ErrInvalidBool}
	}
}

// readString reads a u64 length followed by that many UTF-8 bytes. Strings
// are not NUL-terminated and embedded NULs are kept.
func (c *Cursor) readString() (string, error) {
	n, err := c.readU64()
	if err != nil {
		return "", err
	}
	if n > uint64(c.Remaining()) {
		return "", c.fail("string length", ErrImplausibleLength)
	}
	start := c.off
	b, err := c.ReadExact(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", &DecodeError{Op: "string", Offset: start, Err: ErrInvalidUTF8}
	}
	return string(b), nil
}
