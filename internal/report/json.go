package report

import (
	"io"

	"github.com/goccy/go-json"
)

// WriteJSON encodes r as a single JSON document followed by a newline.
func WriteJSON(w io.Writer, r Report, indent bool) error {
	return EncodeJSON(w, r, indent)
}

// EncodeJSON writes v with HTML escaping off, so tokenizer strings such as
// "<s>" survive unchanged.
func EncodeJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
