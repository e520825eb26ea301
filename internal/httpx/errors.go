package httpx

import (
	"net/http"

	"github.com/sundayezeilo/shortlinks/internal/errx"
)

type kindResponse struct {
	status int
	code   string
}

var kindResponses = map[errx.Kind]kindResponse{
	errx.NotFound:    {http.StatusNotFound, "not_found"},
	errx.Conflict:    {http.StatusConflict, "conflict"},
	errx.Invalid:     {http.StatusBadRequest, "invalid_input"},
	errx.Capacity:    {http.StatusServiceUnavailable, "capacity_exhausted"},
	errx.Unavailable: {http.StatusServiceUnavailable, "unavailable"},
}

var internalResponse = kindResponse{http.StatusInternalServerError, "internal_error"}

func responseFor(kind errx.Kind) kindResponse {
	if r, ok := kindResponses[kind]; ok {
		return r
	}
	return internalResponse
}

// ErrorKindToStatus maps an errx.Kind to its HTTP status. Kinds without a
// mapping, including Internal and Unknown, become 500.
func ErrorKindToStatus(kind errx.Kind) int {
	return responseFor(kind).status
}

// ErrorKindToCode maps an errx.Kind to the error code of an ErrorResponse.
func ErrorKindToCode(kind errx.Kind) string {
	return responseFor(kind).code
}
