package feedback

import (
	"errors"
	"net/http"

	"github.com/docrelay/docrelay/internal/classifier"
)

// Domain errors for feedback operations.
var (
	ErrNotFound     = errors.New("feedback entry not found")
	ErrDuplicate    = errors.New("feedback entry already exists")
	ErrInvalidInput = errors.New("invalid feedback input")
	ErrNoAnnotation = errors.New("feedback entry has no annotation")
)

// MapHTTPStatus maps feedback domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoAnnotation):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return classifier.MapHTTPStatus(err)
	}
}
