package gguf

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// builder writes GGUF bytes for fixtures. It mirrors the decoder layout so
// tests can check that decode and re-encode agree byte for byte.
type builder struct {
	buf bytes.Buffer
}

func (b *builder) bytes() []byte { return b.buf.Bytes() }

func (b *builder) raw(p []byte) *builder {
	b.buf.Write(p)
	return b
}

func (b *builder) u8(v uint8) *builder {
	b.buf.WriteByte(v)
	return b
}

func (b *builder) u32(v uint32) *builder {
	b.buf.Write(binary.LittleEndian.AppendUint32(nil, v))
	return b
}

func (b *builder) u64(v uint64) *builder {
	b.buf.Write(binary.LittleEndian.AppendUint64(nil, v))
	return b
}

func (b *builder) str(s string) *builder {
	b.u64(uint64(len(s)))
	b.buf.WriteString(s)
	return b
}

func (b *builder) header(version uint32, tensors, kvs uint64) *builder {
	return b.raw([]byte(magicGGUF)).u32(version).u64(tensors).u64(kvs)
}

// value writes a type tag followed by the payload.
func (b *builder) value(v Value) *builder {
	b.u32(uint32(v.Type))
	return b.payload(v)
}

func (b *builder) payload(v Value) *builder {
	switch v.Type {
	case TypeUint8, TypeInt8, TypeBool:
		b.u8(uint8(v.num))
	case TypeUint16, TypeInt16:
		b.buf.Write(binary.LittleEndian.AppendUint16(nil, uint16(v.num)))
	case TypeUint32, TypeInt32, TypeFloat32:
		b.u32(uint32(v.num))
	case TypeUint64, TypeInt64, TypeFloat64:
		b.u64(v.num)
	case TypeString:
		b.str(v.str)
	case TypeArray:
		b.u32(uint32(v.arr.Elem))
		b.u64(uint64(len(v.arr.Values)))
		for _, e := range v.arr.Values {
			b.payload(e)
		}
	}
	return b
}

func (b *builder) kv(key string, v Value) *builder {
	return b.str(key).value(v)
}

func (b *builder) tensor(t TensorInfo) *builder {
	b.str(t.Name).u32(uint32(len(t.Dims)))
	for _, d := range t.Dims {
		b.u64(d)
	}
	return b.u32(uint32(t.Type)).u64(t.Offset)
}

// encodeFile lays out f up to the end of the tensor-info table.
func encodeFile(f *File) []byte {
	var b builder
	b.raw(f.Header.Magic[:]).u32(f.Header.Version).u64(f.Header.TensorCount).u64(f.Header.KVCount)
	for _, e := range f.Metadata {
		b.kv(e.Key, e.Value)
	}
	for _, t := range f.Tensors {
		b.tensor(t)
	}
	return b.bytes()
}

// sampleFile covers every value type, nested arrays, duplicate keys and a
// few tensors.
func sampleFile(t *testing.T) []byte {
	t.Helper()

	md := []KV{
		{"general.architecture", StringValue("llama")},
		{"general.name", StringValue("tiny é\x00model")},
		{"general.alignment", Uint32Value(32)},
		{"u8", Uint8Value(200)},
		{"i8", Int8Value(-5)},
		{"u16", Uint16Value(65000)},
		{"i16", Int16Value(-30000)},
		{"u32", Uint32Value(4000000000)},
		{"i32", Int32Value(-2000000000)},
		{"u64", Uint64Value(1 << 63)},
		{"i64", Int64Value(-1 << 62)},
		{"f32", Float32Value(1.5)},
		{"f64", Float64Value(-2.25)},
		{"flag", BoolValue(true)},
		{"off", BoolValue(false)},
		{"tokenizer.ggml.tokens", ArrayValue(TypeString, StringValue("a"), StringValue("bb"), StringValue(""))},
		{"nested", ArrayValue(TypeArray,
			ArrayValue(TypeInt32, Int32Value(1), Int32Value(2)),
			ArrayValue(TypeInt32),
			ArrayValue(TypeInt32, Int32Value(-3)),
		)},
		{"empty", ArrayValue(TypeFloat64)},
		{"u8", Uint8Value(7)},
	}
	tensors := []TensorInfo{
		{Name: "token_embd.weight", Dims: []uint64{64, 32}, Type: GGMLTypeF32, Offset: 0},
		{Name: "blk.0.attn_q.weight", Dims: []uint64{256, 4}, Type: GGMLTypeQ4_K, Offset: 8192},
		{Name: "output_norm.weight", Dims: []uint64{64}, Type: GGMLTypeF16, Offset: 8768},
	}

	var b builder
	b.header(3, uint64(len(tensors)), uint64(len(md)))
	for _, e := range md {
		b.kv(e.Key, e.Value)
	}
	for _, ti := range tensors {
		b.tensor(ti)
	}
	return b.bytes()
}
