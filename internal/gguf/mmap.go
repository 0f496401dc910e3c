package gguf

import (
	"errors"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Mapped is a file-backed Source. Open maps the file read-only where mmap is
// available and falls back to ReadAt on the open file otherwise.
// The caller owns it and must Close it.
type Mapped struct {
	path string
	data []byte
	f    *os.File
	size int64
}

// OpenMapped opens path as a Source.
func OpenMapped(path string) (*Mapped, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	size := st.Size()
	if size < 0 || size > int64(int(^uint(0)>>1)) {
		_ = f.Close()
		return nil, errors.New("gguf: file size out of range")
	}

	m := &Mapped{path: path, size: size}

	// mmap rejects zero-length mappings; those use the ReadAt path.
	if size > 0 {
		data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
		if err == nil {
			_ = f.Close()
			m.data = data
			return m, nil
		}
	}

	m.f = f
	return m, nil
}

func (m *Mapped) Path() string { return m.path }

func (m *Mapped) Size() int64 { return m.size }

// Mmapped reports whether the file is memory-mapped.
func (m *Mapped) Mmapped() bool { return m.data != nil }

// Bytes returns the mapping, or nil when reads go through the file.
// The slice must not be used after Close.
func (m *Mapped) Bytes() []byte { return m.data }

func (m *Mapped) ReadAt(p []byte, off int64) (int, error) {
	if m.data == nil {
		if m.f == nil {
			return 0, os.ErrClosed
		}
		return m.f.ReadAt(p, off)
	}
	if off < 0 || off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Close unmaps or closes the underlying file. It is safe to call twice.
func (m *Mapped) Close() error {
	if m == nil {
		return nil
	}
	var err error
	if m.data != nil {
		err = unix.Munmap(m.data)
		m.data = nil
	}
	if m.f != nil {
		if cerr := m.f.Close(); err == nil {
			err = cerr
		}
		m.f = nil
	}
	return err
}
