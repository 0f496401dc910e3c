package catalog

import (
	"time"

	"github.com/samcharles93/gguflens/internal/gguf"
)

// Summarize builds the catalog entry for a decoded file. Exactly one of f
// and decodeErr should be non-nil.
func Summarize(path string, size int64, modTime time.Time, f *gguf.File, decodeErr error) Entry {
	e := Entry{
		Path:      path,
		Size:      size,
		ModTime:   modTime,
		DecodedAt: time.Now().UTC(),
	}
	if decodeErr != nil {
		e.Err = decodeErr.Error()
		e.ErrKind = gguf.Kind(decodeErr)
		return e
	}

	e.Version = f.Version()
	e.TensorCount = f.Header.TensorCount
	e.KVCount = f.Header.KVCount
	e.Architecture = f.Architecture()
	e.Name, _ = gguf.GetString(f.Metadata, "general.name")
	if n, err := f.ParameterCount(); err == nil {
		e.Parameters = n
	}
	if ft, ok := f.FileType(); ok {
		e.FileType = ft.String()
	}
	return e
}
