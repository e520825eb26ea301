package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

// MaxRequestBodySize is the default body limit for DecodeJSON (1MB).
const MaxRequestBodySize = 1 << 20

// DecodeJSON decodes one JSON object of at most MaxRequestBodySize bytes.
func DecodeJSON[T any](r *http.Request) (T, error) {
	return DecodeJSONLimit[T](r, MaxRequestBodySize)
}

// DecodeJSONLimit decodes exactly one JSON object from the request body.
// Unknown fields, trailing data, non-JSON content types and bodies over limit
// are rejected. A missing Content-Type is accepted.
func DecodeJSONLimit[T any](r *http.Request, limit int64) (T, error) {
	var v T

	defer func() {
		_ = r.Body.Close()
	}()

	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || mt != "application/json" {
			return v, fmt.Errorf("unsupported content type %q", ct)
		}
	}

	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, limit))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&v); err != nil {
		var zero T
		return zero, decodeError(err, limit)
	}
	if dec.More() {
		var zero T
		return zero, errors.New("request body contains multiple JSON objects")
	}
	return v, nil
}

func decodeError(err error, limit int64) error {
	var (
		syntaxErr    *json.SyntaxError
		unmarshalErr *json.UnmarshalTypeError
		maxBytesErr  *http.MaxBytesError
	)

	switch {
	case errors.As(err, &syntaxErr):
		return fmt.Errorf("malformed JSON at position %d", syntaxErr.Offset)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return errors.New("malformed JSON: unexpected end of body")
	case errors.As(err, &unmarshalErr):
		return fmt.Errorf("invalid value for field %q", unmarshalErr.Field)
	case errors.As(err, &maxBytesErr):
		return fmt.Errorf("request body too large (max %d bytes)", limit)
	case errors.Is(err, io.EOF):
		return errors.New("request body is empty")
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return fmt.Errorf("unknown field %s", strings.TrimPrefix(err.Error(), "json: unknown field "))
	default:
		return fmt.Errorf("failed to decode JSON: %w", err)
	}
}
