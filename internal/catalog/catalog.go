// Package catalog persists one summary per decoded GGUF file in a bbolt
// database so repeated scans can skip unchanged files.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"
)

var (
	filesBucket = []byte("files")
	idsBucket   = []byte("ids")
)

var (
	ErrNotFound = errors.New("catalog: entry not found")
	ErrIDInUse  = errors.New("catalog: id already assigned to another path")
)

// Entry summarizes one file. Err is set instead of the decoded fields when
// the file failed to decode.
type Entry struct {
	ID           string    `msgpack:"id" json:"id"`
	Path         string    `msgpack:"path" json:"path"`
	Size         int64     `msgpack:"size" json:"size"`
	ModTime      time.Time `msgpack:"mtime" json:"mod_time"`
	Version      uint32    `msgpack:"ver" json:"version"`
	TensorCount  uint64    `msgpack:"tc" json:"tensor_count"`
	KVCount      uint64    `msgpack:"kc" json:"kv_count"`
	Architecture string    `msgpack:"arch,omitempty" json:"architecture,omitempty"`
	Name         string    `msgpack:"name,omitempty" json:"name,omitempty"`
	Parameters   uint64    `msgpack:"params,omitempty" json:"parameters,omitempty"`
	FileType     string    `msgpack:"ftype,omitempty" json:"file_type,omitempty"`
	DecodedAt    time.Time `msgpack:"at" json:"decoded_at"`
	Err          string    `msgpack:"err,omitempty" json:"error,omitempty"`
	ErrKind      string    `msgpack:"kind,omitempty" json:"error_kind,omitempty"`
}

type Options struct {
	// Timeout bounds waiting for the file lock held by another process.
	Timeout time.Duration
	// NoSync skips fsync per commit. Tests only.
	NoSync bool
}

type Catalog struct {
	db *bbolt.DB
}

// Open opens or creates the database at path.
func Open(path string, opts Options) (*Catalog, error) {
	bopt := &bbolt.Options{}
	*bopt = *bbolt.DefaultOptions
	bopt.Timeout = opts.Timeout
	if bopt.Timeout == 0 {
		bopt.Timeout = 5 * time.Second
	}
	bopt.NoSync = opts.NoSync
	bopt.FreelistType = bbolt.FreelistMapType

	db, err := bbolt.Open(path, 0o644, bopt)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{filesBucket, idsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog: init %s: %w", path, err)
	}
	return &Catalog{db: db}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// Path is the database file location.
func (c *Catalog) Path() string {
	return c.db.Path()
}

// Put stores e keyed by e.Path. A path already in the catalog keeps its ID;
// a new path gets e.ID, or a fresh UUID when that is empty. An e.ID already
// held by another path fails with ErrIDInUse. The stored entry is returned.
func (c *Catalog) Put(e Entry) (Entry, error) {
	if e.Path == "" {
		return Entry{}, errors.New("catalog: entry has no path")
	}
	err := c.db.Update(func(tx *bbolt.Tx) error {
		files := tx.Bucket(filesBucket)
		ids := tx.Bucket(idsBucket)

		if raw := files.Get([]byte(e.Path)); raw != nil {
			var old Entry
			if err := decodeEntry(raw, &old); err != nil {
				return err
			}
			e.ID = old.ID
		} else if e.ID != "" {
			if owner := ids.Get([]byte(e.ID)); owner != nil && !bytes.Equal(owner, []byte(e.Path)) {
				return fmt.Errorf("%w: %s", ErrIDInUse, owner)
			}
		}
		if e.ID == "" {
			e.ID = uuid.NewString()
		}

		raw, err := encodeEntry(e)
		if err != nil {
			return err
		}
		if err := files.Put([]byte(e.Path), raw); err != nil {
			return err
		}
		return ids.Put([]byte(e.ID), []byte(e.Path))
	})
	if err != nil {
		return Entry{}, fmt.Errorf("catalog: put %s: %w", e.Path, err)
	}
	return e, nil
}

func (c *Catalog) Get(path string) (Entry, error) {
	var e Entry
	err := c.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(filesBucket).Get([]byte(path))
		if raw == nil {
			return ErrNotFound
		}
		return decodeEntry(raw, &e)
	})
	return e, err
}

func (c *Catalog) GetByID(id string) (Entry, error) {
	var e Entry
	err := c.db.View(func(tx *bbolt.Tx) error {
		path := tx.Bucket(idsBucket).Get([]byte(id))
		if path == nil {
			return ErrNotFound
		}
		raw := tx.Bucket(filesBucket).Get(path)
		if raw == nil {
			return ErrNotFound
		}
		return decodeEntry(raw, &e)
	})
	return e, err
}

// List returns every entry ordered by path.
func (c *Catalog) List() ([]Entry, error) {
	var out []Entry
	err := c.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(filesBucket).ForEach(func(_, raw []byte) error {
			var e Entry
			if err := decodeEntry(raw, &e); err != nil {
				return err
			}
			out = append(out, e)
			return nil
		})
	})
	return out, err
}

// Delete removes the entry for path. Deleting a missing path is not an error.
func (c *Catalog) Delete(path string) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		files := tx.Bucket(filesBucket)
		raw := files.Get([]byte(path))
		if raw == nil {
			return nil
		}
		var e Entry
		if err := decodeEntry(raw, &e); err != nil {
			return err
		}
		ids := tx.Bucket(idsBucket)
		if bytes.Equal(ids.Get([]byte(e.ID)), []byte(path)) {
			if err := ids.Delete([]byte(e.ID)); err != nil {
				return err
			}
		}
		return files.Delete([]byte(path))
	})
}

// Fresh reports whether the stored entry for path was decoded from a file of
// the same size and modification time.
func (c *Catalog) Fresh(path string, size int64, modTime time.Time) bool {
	e, err := c.Get(path)
	if err != nil {
		return false
	}
	return e.Size == size && e.ModTime.Equal(modTime)
}

func encodeEntry(e Entry) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	defer msgpack.PutEncoder(enc)
	enc.Reset(&buf)
	if err := enc.Encode(&e); err != nil {
		return nil, fmt.Errorf("encode entry: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeEntry(raw []byte, e *Entry) error {
	dec := msgpack.GetDecoder()
	defer msgpack.PutDecoder(dec)
	dec.Reset(bytes.NewReader(raw))
	if err := dec.Decode(e); err != nil {
		return fmt.Errorf("decode entry: %w", err)
	}
	return nil
}
