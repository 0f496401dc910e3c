// Package report turns a decoded GGUF file into a presentation model for
// JSON export and terminal tables.
package report

import (
	"math"
	"strconv"

	"github.com/samcharles93/gguflens/internal/gguf"
)

// DefaultArrayLimit is the longest array shown in full without ExpandArrays.
const DefaultArrayLimit = 16

type Options struct {
	// ArrayLimit caps array values shown inline; longer arrays are summarized.
	// Zero means DefaultArrayLimit.
	ArrayLimit   int
	ExpandArrays bool

	// Tensors limits the tensor list: negative keeps all, zero drops it.
	Tensors int
}

func (o Options) arrayLimit() int {
	if o.ArrayLimit <= 0 {
		return DefaultArrayLimit
	}
	return o.ArrayLimit
}

type Report struct {
	Path         string   `json:"path,omitempty"`
	Magic        string   `json:"magic"`
	MagicValid   bool     `json:"magic_valid"`
	Version      uint32   `json:"version"`
	TensorCount  uint64   `json:"tensor_count"`
	KVCount      uint64   `json:"kv_count"`
	Alignment    uint64   `json:"alignment"`
	DataOffset   uint64   `json:"data_offset"`
	Architecture string   `json:"architecture,omitempty"`
	Parameters   uint64   `json:"parameters,omitempty"`
	FileType     string   `json:"file_type,omitempty"`
	Metadata     []Entry  `json:"metadata"`
	Tensors      []Tensor `json:"tensors,omitempty"`
}

// Entry is one metadata pair. Summarized arrays carry Len but no Value.
type Entry struct {
	Key        string `json:"key"`
	Type       string `json:"type"`
	Value      any    `json:"value,omitempty"`
	Len        *int   `json:"len,omitempty"`
	Summarized bool   `json:"summarized,omitempty"`
}

type Tensor struct {
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	Dims   []uint64 `json:"dims"`
	Offset uint64   `json:"offset"`
	Bytes  uint64   `json:"bytes,omitempty"`
}

// FromFile builds a Report. path is informational and may be empty.
func FromFile(path string, f *gguf.File, opts Options) Report {
	r := Report{
		Path:         path,
		Magic:        strconv.Quote(string(f.Header.Magic[:])),
		MagicValid:   f.MagicValid(),
		Version:      f.Version(),
		TensorCount:  f.Header.TensorCount,
		KVCount:      f.Header.KVCount,
		Alignment:    f.Alignment,
		DataOffset:   f.DataOffset,
		Architecture: f.Architecture(),
		Metadata:     make([]Entry, 0, len(f.Metadata)),
	}
	if f.MagicValid() {
		r.Magic = string(f.Header.Magic[:])
	}
	if n, err := f.ParameterCount(); err == nil {
		r.Parameters = n
	}
	if ft, ok := f.FileType(); ok {
		r.FileType = ft.String()
	}

	for _, kv := range f.Metadata {
		r.Metadata = append(r.Metadata, entry(kv, opts))
	}

	tensors := f.Tensors
	if opts.Tensors >= 0 && opts.Tensors < len(tensors) {
		tensors = tensors[:opts.Tensors]
	}
	for _, t := range tensors {
		size, _ := t.ByteSize()
		r.Tensors = append(r.Tensors, Tensor{
			Name:   t.Name,
			Type:   t.Type.String(),
			Dims:   t.Dims,
			Offset: t.Offset,
			Bytes:  size,
		})
	}
	return r
}

func entry(kv gguf.KV, opts Options) Entry {
	e := Entry{Key: kv.Key, Type: typeName(kv.Value)}
	arr, ok := kv.Value.Array()
	if !ok {
		e.Value = jsonValue(kv.Value)
		return e
	}
	n := arr.Len()
	e.Len = &n
	if !opts.ExpandArrays && n > opts.arrayLimit() {
		e.Summarized = true
		return e
	}
	e.Value = jsonValue(kv.Value)
	return e
}

// typeName is "array(elem)" for arrays and the scalar type name otherwise.
func typeName(v gguf.Value) string {
	if arr, ok := v.Array(); ok {
		return "array(" + arr.Elem.String() + ")"
	}
	return v.Type.String()
}

// jsonValue converts v to something every JSON encoder accepts. Non-finite
// floats become strings.
func jsonValue(v gguf.Value) any {
	if arr, ok := v.Array(); ok {
		out := make([]any, len(arr.Values))
		for i, e := range arr.Values {
			out[i] = jsonValue(e)
		}
		return out
	}
	if f, ok := v.Float64(); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return v.Any()
}
