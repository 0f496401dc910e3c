package gguf

import "fmt"

func GetString(kv Metadata, key string) (string, bool) {
	v, ok := kv.Lookup(key)
	if !ok {
		return "", false
	}
	return v.Text()
}

func GetBool(kv Metadata, key string) (bool, bool) {
	v, ok := kv.Lookup(key)
	if !ok {
		return false, false
	}
	return v.Bool()
}

func GetUint64(kv Metadata, key string) (uint64, bool) {
	v, ok := kv.Lookup(key)
	if !ok {
		return 0, false
	}
	return v.Uint64()
}

func GetInt64(kv Metadata, key string) (int64, bool) {
	v, ok := kv.Lookup(key)
	if !ok {
		return 0, false
	}
	return v.Int64()
}

func GetFloat64(kv Metadata, key string) (float64, bool) {
	v, ok := kv.Lookup(key)
	if !ok {
		return 0, false
	}
	return v.Float64()
}

// GetArray retrieves a slice of type T from the key-value pairs.
// It checks that the value exists, is an array, and that every element's
// natural Go type is T.
func GetArray[T any](kv Metadata, key string) ([]T, bool) {
	v, ok := kv.Lookup(key)
	if !ok {
		return nil, false
	}
	arr, ok := v.Array()
	if !ok {
		return nil, false
	}

	out := make([]T, 0, len(arr.Values))
	for _, item := range arr.Values {
		tItem, ok := item.Any().(T)
		if !ok {
			return nil, false
		}
		out = append(out, tItem)
	}
	return out, true
}

func MustGetString(kv Metadata, key string) (string, error) {
	if s, ok := GetString(kv, key); ok {
		return s, nil
	}
	return "", fmt.Errorf("missing or invalid %s", key)
}

func MustGetUint64(kv Metadata, key string) (uint64, error) {
	if v, ok := GetUint64(kv, key); ok {
		return v, nil
	}
	return 0, fmt.Errorf("missing or invalid %s", key)
}
