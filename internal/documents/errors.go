package documents

import (
	"errors"
	"net/http"

	"github.com/docrelay/docrelay/internal/classifier"
	"github.com/docrelay/docrelay/pkg/storage"
)

// Domain errors for document operations.
var (
	ErrNotFound           = errors.New("document not found")
	ErrDuplicate          = errors.New("document already exists")
	ErrFileTooLarge       = errors.New("file exceeds maximum upload size")
	ErrInvalidFile        = errors.New("invalid file")
	ErrUnsupportedType    = errors.New("unsupported file type")
	ErrNoStoredFile       = errors.New("document has no stored file")
	ErrForbidden          = errors.New("operation not permitted for this user")
	ErrPreviewUnsupported = errors.New("text preview not supported for this file type")
)

// MapHTTPStatus maps document domain errors to HTTP status codes. Errors
// surfaced by the classification client keep their own mapping, so upstream
// failure statuses pass through.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrNoStoredFile),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidFile), errors.Is(err, ErrUnsupportedType):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrPreviewUnsupported):
		return http.StatusUnsupportedMediaType
	default:
		return classifier.MapHTTPStatus(err)
	}
}
