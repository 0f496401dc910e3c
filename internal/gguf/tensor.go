package gguf

import (
	"errors"
	"fmt"
	"math/bits"
)

var errTensorSize = errors.New("gguf: tensor size overflows")

// TensorInfo describes one tensor. Offset is relative to the start of the
// tensor-data section and is not checked against the file size.
type TensorInfo struct {
	Name   string
	NDim   uint32
	Dims   []uint64
	Type   TensorType
	Offset uint64
}

// Elements returns the product of the dimensions.
func (t TensorInfo) Elements() (uint64, error) {
	n := uint64(1)
	for _, d := range t.Dims {
		hi, lo := bits.Mul64(n, d)
		if hi != 0 {
			return 0, fmt.Errorf("tensor %s: %w", t.Name, errTensorSize)
		}
		n = lo
	}
	return n, nil
}

// ByteSize returns the length in bytes of the tensor's payload.
func (t TensorInfo) ByteSize() (uint64, error) {
	n, err := t.Elements()
	if err != nil {
		return 0, err
	}
	block, size := t.Type.BlockSize(), t.Type.TypeSize()
	if block == 0 {
		return 0, fmt.Errorf("tensor %s: %w %d", t.Name, ErrUnknownTensorType, uint32(t.Type))
	}
	if n%block != 0 {
		return 0, fmt.Errorf("tensor %s: %d elements not a multiple of %s block size %d", t.Name, n, t.Type, block)
	}
	hi, lo := bits.Mul64(n/block, size)
	if hi != 0 {
		return 0, fmt.Errorf("tensor %s: %w", t.Name, errTensorSize)
	}
	return lo, nil
}

// minTensorInfoSize is an empty name, zero dims, a type and an offset.
const minTensorInfoSize = 8 + 4 + 4 + 8

// decodeTensors reads exactly count tensor descriptors. The first failure
// aborts the table.
func decodeTensors(c *Cursor, count uint64) ([]TensorInfo, error) {
	if count > uint64(c.Remaining())/minTensorInfoSize {
		return nil, c.fail("tensor count", ErrImplausibleLength)
	}

	tensors := make([]TensorInfo, 0, count)
	for i := range count {
		name, err := c.readString()
		if err != nil {
			return nil, fmt.Errorf("read tensor name %d: %w", i, err)
		}
		nDim, err := c.readU32()
		if err != nil {
			return nil, fmt.Errorf("read tensor dims %s: %w", name, err)
		}
		if uint64(nDim) > uint64(c.Remaining())/8 {
			return nil, fmt.Errorf("read tensor dims %s: %w", name, c.fail("dimension count", ErrImplausibleLength))
		}
		dims := make([]uint64, nDim)
		for d := range nDim {
			v, err := c.readU64()
			if err != nil {
				return nil, fmt.Errorf("read tensor dim %s[%d]: %w", name, d, err)
			}
			dims[d] = v
		}
		typeOff := c.Position()
		ttype, err := c.readU32()
		if err != nil {
			return nil, fmt.Errorf("read tensor type %s: %w", name, err)
		}
		if !TensorType(ttype).Known() {
			return nil, fmt.Errorf("read tensor type %s: %w", name, &DecodeError{
				Op:     "tensor type",
				Offset: typeOff,
				Err:    &UnknownTypeError{Tag: ttype, kind: ErrUnknownTensorType},
			})
		}
		offset, err := c.readU64()
		if err != nil {
			return nil, fmt.Errorf("read tensor offset %s: %w", name, err)
		}
		tensors = append(tensors, TensorInfo{
			Name:   name,
			NDim:   nDim,
			Dims:   dims,
			Type:   TensorType(ttype),
			Offset: offset,
		})
	}
	return tensors, nil
}
