package gguf

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/samcharles93/gguflens/internal/logger"
)

const (
	// DefaultMaxDepth bounds array nesting when Options.MaxDepth is zero.
	DefaultMaxDepth = 64

	// DefaultAlignment applies when general.alignment is absent or unusable.
	DefaultAlignment = 32
)

// Options tunes decoding. The zero value is the strict default.
type Options struct {
	// MaxDepth caps array nesting. Zero means DefaultMaxDepth, negative means no limit.
	MaxDepth int
	// AllowBadMagic keeps decoding after a magic mismatch; File.MagicValid reports it.
	AllowBadMagic bool
	// Logger receives debug records per section. Nil disables logging.
	Logger logger.Logger
}

func (o Options) maxDepth() int {
	switch {
	case o.MaxDepth == 0:
		return DefaultMaxDepth
	case o.MaxDepth < 0:
		return 0
	default:
		return o.MaxDepth
	}
}

// File is a decoded GGUF header, metadata table and tensor-info table.
// It is not modified after Decode returns.
type File struct {
	Header   Header
	Metadata Metadata
	Tensors  []TensorInfo

	// Alignment of the tensor-data section.
	Alignment uint64
	// DataOffset is the absolute file offset where tensor data starts.
	DataOffset uint64
}

// Decode reads a complete GGUF header section from src. It does not close src.
func Decode(src Source, opts Options) (*File, error) {
	return DecodeCursor(NewCursor(src), opts)
}

// DecodeBytes decodes an in-memory GGUF stream.
func DecodeBytes(b []byte, opts Options) (*File, error) {
	return Decode(Bytes(b), opts)
}

// DecodeFile opens path, decodes it and closes it again on every path.
func DecodeFile(path string, opts Options) (f *File, err error) {
	src, err := OpenMapped(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil && err == nil {
			f, err = nil, cerr
		}
	}()
	return Decode(src, opts)
}

// DecodeCursor decodes header, metadata and tensor infos from c, strictly in
// that order. The first error is returned and no partial File is.
func DecodeCursor(c *Cursor, opts Options) (*File, error) {
	log := opts.Logger

	hdr, err := decodeHeader(c, opts.AllowBadMagic)
	if err != nil {
		return nil, err
	}
	if log != nil {
		log.Debug("gguf header",
			"magic_valid", hdr.MagicValid(),
			"version", hdr.Version,
			"tensors", hdr.TensorCount,
			"kv", hdr.KVCount,
		)
	}

	kv, err := decodeMetadata(c, hdr.KVCount, valueDecoder{maxDepth: opts.maxDepth()})
	if err != nil {
		return nil, err
	}
	if log != nil {
		log.Debug("gguf metadata", "entries", len(kv), "end", c.Position())
	}

	tensors, err := decodeTensors(c, hdr.TensorCount)
	if err != nil {
		return nil, err
	}
	if log != nil {
		log.Debug("gguf tensor infos", "tensors", len(tensors), "end", c.Position())
	}

	alignment := uint64(DefaultAlignment)
	if v, ok := kv.Lookup("general.alignment"); ok {
		if u, ok := v.Uint64(); ok && u > 0 && u&(u-1) == 0 {
			alignment = u
		} else if log != nil {
			log.Warn("ignoring general.alignment", "value", v.String())
		}
	}

	return &File{
		Header:     hdr,
		Metadata:   kv,
		Tensors:    tensors,
		Alignment:  alignment,
		DataOffset: align(uint64(c.Position()), alignment),
	}, nil
}

func (f *File) MagicValid() bool { return f.Header.MagicValid() }

func (f *File) Version() uint32 { return f.Header.Version }

// Lookup returns the first metadata value stored under key.
func (f *File) Lookup(key string) (Value, bool) {
	return f.Metadata.Lookup(key)
}

// TensorNames lists tensor names in file order.
func (f *File) TensorNames() []string {
	out := make([]string, len(f.Tensors))
	for i := range f.Tensors {
		out[i] = f.Tensors[i].Name
	}
	return out
}

// Tensor returns the first tensor info named name.
func (f *File) Tensor(name string) (TensorInfo, bool) {
	for _, t := range f.Tensors {
		if t.Name == name {
			return t, true
		}
	}
	return TensorInfo{}, false
}

// Architecture returns general.architecture, or "" when absent.
func (f *File) Architecture() string {
	s, _ := GetString(f.Metadata, "general.architecture")
	return s
}

// ParameterCount sums the element counts of all tensors.
func (f *File) ParameterCount() (uint64, error) {
	var total uint64
	for _, t := range f.Tensors {
		n, err := t.Elements()
		if err != nil {
			return 0, err
		}
		var carry uint64
		total, carry = bits.Add64(total, n, 0)
		if carry != 0 {
			return 0, errTensorSize
		}
	}
	return total, nil
}

// TensorDataRange returns the absolute [start, end) file range of a tensor's payload.
func (f *File) TensorDataRange(name string) (start, end uint64, err error) {
	t, ok := f.Tensor(name)
	if !ok {
		return 0, 0, fmt.Errorf("tensor not found: %s", name)
	}
	return f.dataRange(t)
}

func (f *File) dataRange(t TensorInfo) (uint64, uint64, error) {
	size, err := t.ByteSize()
	if err != nil {
		return 0, 0, err
	}
	start, carry := bits.Add64(f.DataOffset, t.Offset, 0)
	if carry != 0 {
		return 0, 0, fmt.Errorf("tensor %s: %w", t.Name, errTensorSize)
	}
	end, carry := bits.Add64(start, size, 0)
	if carry != 0 {
		return 0, 0, fmt.Errorf("tensor %s: %w", t.Name, errTensorSize)
	}
	return start, end, nil
}

// ErrTensorOutOfBounds is returned by CheckTensorBounds.
var ErrTensorOutOfBounds = errors.New("gguf: tensor data out of bounds")

// CheckTensorBounds verifies every tensor payload fits in a file of fileSize
// bytes. Decode itself never does this.
func (f *File) CheckTensorBounds(fileSize int64) error {
	for _, t := range f.Tensors {
		_, end, err := f.dataRange(t)
		if err != nil {
			return err
		}
		if fileSize < 0 || end > uint64(fileSize) {
			return fmt.Errorf("tensor %s ends at %d, file has %d bytes: %w", t.Name, end, fileSize, ErrTensorOutOfBounds)
		}
	}
	return nil
}

func align(offset, alignment uint64) uint64 {
	if alignment == 0 {
		return offset
	}
	rem := offset % alignment
	if rem == 0 {
		return offset
	}
	return offset + (alignment - rem)
}
