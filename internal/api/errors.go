package api

import (
	"errors"

	"github.com/samcharles93/gguflens/internal/gguf"
)

var ErrInvalidRequest = errors.New("invalid_request")

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

// ErrorBody is the payload under "error" in every non-2xx response.
type ErrorBody struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Kind      string `json:"kind,omitempty"`
	Offset    *int64 `json:"offset,omitempty"`
	Param     string `json:"param,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// decodeErrorBody classifies a decoder failure for clients.
func decodeErrorBody(err error) ErrorBody {
	body := ErrorBody{
		Type:    "decode_error",
		Message: err.Error(),
		Kind:    gguf.Kind(err),
	}
	var de *gguf.DecodeError
	if errors.As(err, &de) {
		off := de.Offset
		body.Offset = &off
	}
	return body
}
