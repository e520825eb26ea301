package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sundayezeilo/shortlinks/internal/errx"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// fallbackBody is sent when a response value cannot be encoded.
const fallbackBody = `{"error":"internal_error"}` + "\n"

// WriteJSON encodes v before writing anything, so a value that cannot be
// encoded turns into a 500 rather than a truncated body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	w.Header().Set("Content-Type", "application/json")

	if err != nil {
		slog.Error("failed to encode JSON response",
			"error", err.Error(),
			"status", status,
		)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(fallbackBody))
		return
	}

	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// WriteError writes an ErrorResponse with an explicit status and code.
func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	WriteJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
		Details: details,
	})
}

// WriteKind writes an ErrorResponse whose status and code follow kind.
func WriteKind(w http.ResponseWriter, kind errx.Kind, message string, details any) {
	WriteError(w, ErrorKindToStatus(kind), ErrorKindToCode(kind), message, details)
}
