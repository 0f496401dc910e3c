package gguf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/samcharles93/gguflens/internal/logger"
)

type recordingLogger struct {
	msgs []string
}

func (l *recordingLogger) Debug(msg string, args ...any)  { l.msgs = append(l.msgs, msg) }
func (l *recordingLogger) Info(msg string, args ...any)   { l.msgs = append(l.msgs, msg) }
func (l *recordingLogger) Warn(msg string, args ...any)   { l.msgs = append(l.msgs, msg) }
func (l *recordingLogger) Error(msg string, args ...any)  { l.msgs = append(l.msgs, msg) }
func (l *recordingLogger) With(args ...any) logger.Logger { return l }
func (l *recordingLogger) WithGroup(string) logger.Logger { return l }

func TestDecodeTensorInfos(t *testing.T) {
	t.Parallel()

	raw := sampleFile(t)
	f, err := DecodeBytes(raw, Options{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	wantNames := []string{"token_embd.weight", "blk.0.attn_q.weight", "output_norm.weight"}
	if diff := cmp.Diff(wantNames, f.TensorNames()); diff != "" {
		t.Fatalf("tensor names (-want +got):\n%s", diff)
	}

	q, ok := f.Tensor("blk.0.attn_q.weight")
	if !ok {
		t.Fatalf("tensor not found")
	}
	want := TensorInfo{Name: "blk.0.attn_q.weight", NDim: 2, Dims: []uint64{256, 4}, Type: GGMLTypeQ4_K, Offset: 8192}
	if diff := cmp.Diff(want, q); diff != "" {
		t.Fatalf("tensor info (-want +got):\n%s", diff)
	}
	if _, ok := f.Tensor("missing"); ok {
		t.Fatalf("missing tensor should not be found")
	}

	if f.Alignment != 32 {
		t.Fatalf("alignment: got %d", f.Alignment)
	}
	if f.DataOffset%32 != 0 || f.DataOffset < uint64(len(raw)) || f.DataOffset >= uint64(len(raw))+32 {
		t.Fatalf("data offset %d not the aligned end of %d", f.DataOffset, len(raw))
	}

	start, end, err := f.TensorDataRange("blk.0.attn_q.weight")
	if err != nil {
		t.Fatalf("data range: %v", err)
	}
	if start != f.DataOffset+8192 || end-start != 4*144 {
		t.Fatalf("data range: got [%d,%d)", start, end)
	}

	params, err := f.ParameterCount()
	if err != nil {
		t.Fatalf("parameter count: %v", err)
	}
	if params != 64*32+256*4+64 {
		t.Fatalf("parameters: got %d", params)
	}

	if f.Architecture() != "llama" {
		t.Fatalf("architecture: got %q", f.Architecture())
	}
}

func TestCheckTensorBounds(t *testing.T) {
	t.Parallel()

	f, err := DecodeBytes(sampleFile(t), Options{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	end := f.DataOffset + 8768 + 64*2
	if err := f.CheckTensorBounds(int64(end)); err != nil {
		t.Fatalf("exact size should fit: %v", err)
	}
	if err := f.CheckTensorBounds(int64(end) - 1); !errors.Is(err, ErrTensorOutOfBounds) {
		t.Fatalf("expected ErrTensorOutOfBounds, got %v", err)
	}
}

func TestDecodeUnknownTensorType(t *testing.T) {
	t.Parallel()

	for _, tag := range []uint32{4, 5, 31, 38, 40, 1000} {
		var b builder
		b.header(3, 1, 0).str("w").u32(1).u64(8).u32(tag).u64(0)
		_, err := DecodeBytes(b.bytes(), Options{})
		if !errors.Is(err, ErrUnknownTensorType) {
			t.Fatalf("tag %d: expected ErrUnknownTensorType, got %v", tag, err)
		}
		var ute *UnknownTypeError
		if !errors.As(err, &ute) || ute.Tag != tag {
			t.Fatalf("tag %d: expected UnknownTypeError carrying the tag, got %v", tag, err)
		}
		if Kind(err) != "unknown_tensor_type" {
			t.Fatalf("tag %d: kind %q", tag, Kind(err))
		}
	}
}

func TestDecodeImplausibleDimensionCount(t *testing.T) {
	t.Parallel()

	var b builder
	b.header(3, 1, 0).str("w").u32(1 << 30).u64(1).u32(0).u64(0)
	if _, err := DecodeBytes(b.bytes(), Options{}); !errors.Is(err, ErrImplausibleLength) {
		t.Fatalf("expected ErrImplausibleLength, got %v", err)
	}
}

func TestAlignmentFromMetadata(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		v    Value
		want uint64
	}{
		{"u32 64", Uint32Value(64), 64},
		{"u64 256", Uint64Value(256), 256},
		{"not power of two", Uint32Value(48), DefaultAlignment},
		{"zero", Uint32Value(0), DefaultAlignment},
		{"negative", Int32Value(-32), DefaultAlignment},
		{"string", StringValue("64"), DefaultAlignment},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var b builder
			b.header(3, 0, 1).kv("general.alignment", tc.v)
			f, err := DecodeBytes(b.bytes(), Options{})
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if f.Alignment != tc.want {
				t.Fatalf("alignment: got %d want %d", f.Alignment, tc.want)
			}
			if f.DataOffset%tc.want != 0 {
				t.Fatalf("data offset %d not aligned to %d", f.DataOffset, tc.want)
			}
		})
	}
}

func TestTensorByteSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		info    TensorInfo
		want    uint64
		wantErr bool
	}{
		{"f32", TensorInfo{Dims: []uint64{3, 5}, Type: GGMLTypeF32}, 60, false},
		{"bf16", TensorInfo{Dims: []uint64{10}, Type: GGMLTypeBF16}, 20, false},
		{"q8_0", TensorInfo{Dims: []uint64{64, 2}, Type: GGMLTypeQ8_0}, 4 * 34, false},
		{"q6_k", TensorInfo{Dims: []uint64{512}, Type: GGMLTypeQ6_K}, 2 * 210, false},
		{"mxfp4", TensorInfo{Dims: []uint64{32}, Type: GGMLTypeMXFP4}, 17, false},
		{"scalar", TensorInfo{Type: GGMLTypeF64}, 8, false},
		{"partial block", TensorInfo{Dims: []uint64{100}, Type: GGMLTypeQ4_K}, 0, true},
		{"overflow", TensorInfo{Dims: []uint64{1 << 40, 1 << 40}, Type: GGMLTypeF32}, 0, true},
		{"unknown type", TensorInfo{Dims: []uint64{1}, Type: TensorType(4)}, 0, true},
	}
	for _, tc := range tests {
		got, err := tc.info.ByteSize()
		if tc.wantErr {
			if err == nil {
				t.Errorf("%s: expected error, got %d", tc.name, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s: got %d want %d", tc.name, got, tc.want)
		}
	}
}

func TestParseTensorType(t *testing.T) {
	t.Parallel()

	for tt := range typeTraits {
		got, err := ParseTensorType(tt.String())
		if err != nil {
			t.Fatalf("%s: %v", tt, err)
		}
		if got != tt {
			t.Fatalf("%s: round trip gave %s", tt, got)
		}
	}
	if _, err := ParseTensorType("Q4_2"); !errors.Is(err, ErrUnknownTensorType) {
		t.Fatalf("expected ErrUnknownTensorType, got %v", err)
	}
	if s := TensorType(4).String(); s != "type(4)" {
		t.Fatalf("unknown type string: %q", s)
	}
}

func TestDecodeFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "model.gguf")
	if err := os.WriteFile(path, sampleFile(t), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := DecodeFile(path, Options{})
	if err != nil {
		t.Fatalf("decode file: %v", err)
	}
	if len(f.Tensors) != 3 {
		t.Fatalf("tensors: got %d", len(f.Tensors))
	}

	if _, err := DecodeFile(filepath.Join(t.TempDir(), "missing.gguf"), Options{}); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestDecodeFileTruncated(t *testing.T) {
	t.Parallel()

	raw := sampleFile(t)
	path := filepath.Join(t.TempDir(), "short.gguf")
	if err := os.WriteFile(path, raw[:len(raw)/2], 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := DecodeFile(path, Options{}); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}
