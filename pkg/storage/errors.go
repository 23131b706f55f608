package storage

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound indicates the requested blob does not exist.
	ErrNotFound = errors.New("blob not found")
	// ErrEmptyPath indicates an empty blob path or name was provided.
	ErrEmptyPath = errors.New("blob path must not be empty")
	// ErrInvalidPath indicates the blob path escapes the content directory.
	ErrInvalidPath = errors.New("blob path outside content directory")
)

// MapHTTPStatus maps storage errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrEmptyPath) || errors.Is(err, ErrInvalidPath) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
