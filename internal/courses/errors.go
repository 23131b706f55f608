package courses

import (
	"errors"
	"net/http"

	"github.com/docrelay/docrelay/internal/classifier"
)

// Domain errors for course operations.
var (
	ErrNotFound     = errors.New("course not found")
	ErrDuplicate    = errors.New("course already exists")
	ErrInvalidInput = errors.New("invalid course input")
	ErrForbidden    = errors.New("operation not permitted for this user")
)

// MapHTTPStatus maps course domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return classifier.MapHTTPStatus(err)
	}
}
