package gguf

import "fmt"

// KV is one metadata entry.
type KV struct {
	Key   string
	Value Value
}

// Metadata holds entries in file order. The format allows duplicate keys;
// Lookup returns the first.
type Metadata []KV

func (m Metadata) Lookup(key string) (Value, bool) {
	for i := range m {
		if m[i].Key == key {
			return m[i].Value, true
		}
	}
	return Value{}, false
}

// LookupAll returns every value stored under key, in file order.
func (m Metadata) LookupAll(key string) []Value {
	var out []Value
	for i := range m {
		if m[i].Key == key {
			out = append(out, m[i].Value)
		}
	}
	return out
}

// Keys returns the keys in file order, duplicates included.
func (m Metadata) Keys() []string {
	out := make([]string, len(m))
	for i := range m {
		out[i] = m[i].Key
	}
	return out
}

// minKVSize is a key length, a type tag and a one-byte payload.
const minKVSize = 8 + 4 + 1

// decodeMetadata reads exactly count entries. Any failure aborts the table:
// after a bad entry the position of the next one is unknown.
func decodeMetadata(c *Cursor, count uint64, vd valueDecoder) (Metadata, error) {
	if count > uint64(c.Remaining())/minKVSize {
		return nil, c.fail("metadata count", ErrImplausibleLength)
	}

	kv := make(Metadata, 0, count)
	for i := range count {
		key, err := c.readString()
		if err != nil {
			return nil, fmt.Errorf("read key %d: %w", i, err)
		}
		val, err := vd.decodeValue(c)
		if err != nil {
			return nil, fmt.Errorf("read value for %s: %w", key, err)
		}
		kv = append(kv, KV{Key: key, Value: val})
	}
	return kv, nil
}
