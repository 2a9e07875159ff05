package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors returned by the client.
var (
	// ErrEmptyRequestID is returned when an operation is given an empty
	// crawl request identifier. No network call is made.
	ErrEmptyRequestID = errors.New("crawl request id is empty")

	// ErrInvalidRequestID is returned when the identifier is not a UUID.
	ErrInvalidRequestID = errors.New("crawl request id is not a valid UUID")

	// ErrInvalidBaseURL is returned by NewClient for a base URL that is not
	// an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid API base URL")

	// ErrInvalidProxy is returned by NewClient when the proxy URL cannot be
	// turned into a dialer.
	ErrInvalidProxy = errors.New("invalid proxy URL")

	// ErrEmptyDocumentURL is returned by FetchResultDocument for an empty URL.
	ErrEmptyDocumentURL = errors.New("result document url is empty")

	// ErrDocumentTooLarge is returned by FetchResultDocument when the body
	// exceeds the configured maximum size.
	ErrDocumentTooLarge = errors.New("result document is too large")
)

// maxErrorBody bounds how much of a failed response body is kept in APIError.
const maxErrorBody = 1024

// APIError is returned for any non-2xx response.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Status is the HTTP status line text, e.g. "404 Not Found".
	Status string

	// Method and URL identify the failed request.
	Method string
	URL    string

	// Body is the beginning of the response body, usually a JSON error detail.
	Body string
}

// Error implements error.
func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Status)
	}
	return fmt.Sprintf("%s %s: %s: %s", e.Method, e.URL, e.Status, e.Body)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized reports whether err is an APIError with status 401 or 403.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized) || hasStatus(err, http.StatusForbidden)
}

func hasStatus(err error, code int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == code
	}
	return false
}
