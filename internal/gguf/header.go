package gguf

const magicGGUF = "GGUF"

// headerSize is the fixed prefix: magic, version, tensor count, kv count.
const headerSize = 4 + 4 + 8 + 8

// Header is the fixed 24-byte prefix of a GGUF file.
type Header struct {
	Magic       [4]byte
	Version     uint32
	TensorCount uint64
	KVCount     uint64
}

// MagicValid reports whether the magic reads "GGUF" exactly.
func (h Header) MagicValid() bool {
	return string(h.Magic[:]) == magicGGUF
}

// decodeHeader reads the fixed header. A wrong magic fails with ErrBadMagic
// before any other field is read, unless allowBadMagic is set.
func decodeHeader(c *Cursor, allowBadMagic bool) (Header, error) {
	var h Header

	magic, err := c.ReadExact(4)
	if err != nil {
		return h, err
	}
	copy(h.Magic[:], magic)
	if !h.MagicValid() && !allowBadMagic {
		return h, &DecodeError{Op: "magic", Offset: 0, Err: ErrBadMagic}
	}

	if h.Version, err = c.readU32(); err != nil {
		return h, err
	}
	if h.TensorCount, err = c.readU64(); err != nil {
		return h, err
	}
	if h.KVCount, err = c.readU64(); err != nil {
		return h, err
	}
	return h, nil
}
