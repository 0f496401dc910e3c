package gguf

import "fmt"

// TensorType is the ggml storage type of a tensor.
type TensorType uint32

const (
	GGMLTypeF32     TensorType = 0
	GGMLTypeF16     TensorType = 1
	GGMLTypeQ4_0    TensorType = 2
	GGMLTypeQ4_1    TensorType = 3
	GGMLTypeQ5_0    TensorType = 6
	GGMLTypeQ5_1    TensorType = 7
	GGMLTypeQ8_0    TensorType = 8
	GGMLTypeQ8_1    TensorType = 9
	GGMLTypeQ2_K    TensorType = 10
	GGMLTypeQ3_K    TensorType = 11
	GGMLTypeQ4_K    TensorType = 12
	GGMLTypeQ5_K    TensorType = 13
	GGMLTypeQ6_K    TensorType = 14
	GGMLTypeQ8_K    TensorType = 15
	GGMLTypeIQ2_XXS TensorType = 16
	GGMLTypeIQ2_XS  TensorType = 17
	GGMLTypeIQ3_XXS TensorType = 18
	GGMLTypeIQ1_S   TensorType = 19
	GGMLTypeIQ4_NL  TensorType = 20
	GGMLTypeIQ3_S   TensorType = 21
	GGMLTypeIQ2_S   TensorType = 22
	GGMLTypeIQ4_XS  TensorType = 23
	GGMLTypeI8      TensorType = 24
	GGMLTypeI16     TensorType = 25
	GGMLTypeI32     TensorType = 26
	GGMLTypeI64     TensorType = 27
	GGMLTypeF64     TensorType = 28
	GGMLTypeIQ1_M   TensorType = 29
	GGMLTypeBF16    TensorType = 30
	GGMLTypeTQ1_0   TensorType = 34
	GGMLTypeTQ2_0   TensorType = 35
	GGMLTypeMXFP4   TensorType = 39
)

type typeTrait struct {
	name      string
	blockSize uint64 // elements per block
	typeSize  uint64 // bytes per block
}

// Ids 4, 5, 31-33 and 36-38 belonged to layouts ggml has since removed and
// are left out, so they decode as unknown.
var typeTraits = map[TensorType]typeTrait{
	GGMLTypeF32:     {"F32", 1, 4},
	GGMLTypeF16:     {"F16", 1, 2},
	GGMLTypeQ4_0:    {"Q4_0", 32, 18},
	GGMLTypeQ4_1:    {"Q4_1", 32, 20},
	GGMLTypeQ5_0:    {"Q5_0", 32, 22},
	GGMLTypeQ5_1:    {"Q5_1", 32, 24},
	GGMLTypeQ8_0:    {"Q8_0", 32, 34},
	GGMLTypeQ8_1:    {"Q8_1", 32, 36},
	GGMLTypeQ2_K:    {"Q2_K", 256, 84},
	GGMLTypeQ3_K:    {"Q3_K", 256, 110},
	GGMLTypeQ4_K:    {"Q4_K", 256, 144},
	GGMLTypeQ5_K:    {"Q5_K", 256, 176},
	GGMLTypeQ6_K:    {"Q6_K", 256, 210},
	GGMLTypeQ8_K:    {"Q8_K", 256, 292},
	GGMLTypeIQ2_XXS: {"IQ2_XXS", 256, 66},
	GGMLTypeIQ2_XS:  {"IQ2_XS", 256, 74},
	GGMLTypeIQ3_XXS: {"IQ3_XXS", 256, 98},
	GGMLTypeIQ1_S:   {"IQ1_S", 256, 50},
	GGMLTypeIQ4_NL:  {"IQ4_NL", 32, 18},
	GGMLTypeIQ3_S:   {"IQ3_S", 256, 110},
	GGMLTypeIQ2_S:   {"IQ2_S", 256, 82},
	GGMLTypeIQ4_XS:  {"IQ4_XS", 256, 136},
	GGMLTypeI8:      {"I8", 1, 1},
	GGMLTypeI16:     {"I16", 1, 2},
	GGMLTypeI32:     {"I32", 1, 4},
	GGMLTypeI64:     {"I64", 1, 8},
	GGMLTypeF64:     {"F64", 1, 8},
	GGMLTypeIQ1_M:   {"IQ1_M", 256, 56},
	GGMLTypeBF16:    {"BF16", 1, 2},
	GGMLTypeTQ1_0:   {"TQ1_0", 256, 54},
	GGMLTypeTQ2_0:   {"TQ2_0", 256, 66},
	GGMLTypeMXFP4:   {"MXFP4", 32, 17},
}

// Known reports whether t is a storage type this package can size.
func (t TensorType) Known() bool {
	_, ok := typeTraits[t]
	return ok
}

// BlockSize is the number of elements per quantization block, 0 if unknown.
func (t TensorType) BlockSize() uint64 { return typeTraits[t].blockSize }

// TypeSize is the number of bytes per block, 0 if unknown.
func (t TensorType) TypeSize() uint64 { return typeTraits[t].typeSize }

func (t TensorType) Quantized() bool { return t.BlockSize() > 1 }

func (t TensorType) String() string {
	if tr, ok := typeTraits[t]; ok {
		return tr.name
	}
	return fmt.Sprintf("type(%d)", uint32(t))
}

// ParseTensorType maps a name such as "Q4_K" back to its type.
func ParseTensorType(s string) (TensorType, error) {
	for t, tr := range typeTraits {
		if tr.name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTensorType, s)
}
