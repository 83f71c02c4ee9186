package contentapi

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrSEOUnavailable is returned by SEOData when the settings could not be loaded.
var ErrSEOUnavailable = errors.New("SEO settings not available from API")

// APIError is returned for any non-2xx response.
type APIError struct {
	Op         string // resource label, e.g. "projects"
	StatusCode int
	Status     string // status text without the code
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Failed to fetch %s: %d %s", e.Op, e.StatusCode, e.Status)
}

// Kind classifies the status code the same way the log lines do.
func (e *APIError) Kind() string {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return "unauthorized access"
	case http.StatusForbidden:
		return "access denied"
	case http.StatusBadRequest:
		return "validation failed"
	case http.StatusNotFound:
		return "resource not found"
	case http.StatusInternalServerError:
		return "server error occurred"
	default:
		return "api error"
	}
}

// IsUnauthorized reports whether err is an APIError with status 401.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
