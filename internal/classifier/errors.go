package classifier

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrKeyNotConfigured indicates the credential chain for a purpose
	// resolved to nothing usable. No network call is made.
	ErrKeyNotConfigured = errors.New("classification service api key not configured")

	// ErrTimeout indicates the outbound request exceeded its deadline.
	ErrTimeout = errors.New("classification service request timed out")

	// ErrUnavailable indicates the service could not be reached at all.
	ErrUnavailable = errors.New("classification service unreachable")
)

// ServiceError carries a non-success status returned by the classification
// service along with its response body.
type ServiceError struct {
	Status int
	Body   string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("classification service returned %d: %s", e.Status, e.Body)
}

// MapHTTPStatus translates client errors to inbound HTTP status codes.
// Upstream failure statuses pass through unchanged.
func MapHTTPStatus(err error) int {
	var serviceErr *ServiceError
	switch {
	case errors.As(err, &serviceErr):
		return serviceErr.Status
	case errors.Is(err, ErrTimeout):
		return http.StatusRequestTimeout
	case errors.Is(err, ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
