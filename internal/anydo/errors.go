package anydo

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel error kinds for the Any.do API and resource model. Use errors.Is
// to classify failures regardless of the wrapping error type.
var (
	// ErrBadRequest maps HTTP 400 responses.
	ErrBadRequest = errors.New("bad request")

	// ErrUnauthorized maps HTTP 401 responses. The session layer retries a
	// call once with a fresh session before this propagates.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict maps HTTP 409 responses (e.g. user already exists).
	ErrConflict = errors.New("conflict")

	// ErrInternalServer maps any other non-2xx response.
	ErrInternalServer = errors.New("internal server error")

	// ErrAttributeNotFound is returned when reading a key absent from a
	// resource's backing data.
	ErrAttributeNotFound = errors.New("attribute not found")

	// ErrImmutableAttribute is returned when reassigning the id of a
	// resource that already has one.
	ErrImmutableAttribute = errors.New("attribute is immutable")

	// ErrMissingArgument is returned when neither of two alternative
	// arguments was supplied to an operation that requires one.
	ErrMissingArgument = errors.New("missing argument")
)

// APIError represents a non-2xx response from the Any.do API.
type APIError struct {
	// Op is the operation that failed (e.g. "GET /me/tasks")
	Op string

	// StatusCode is the HTTP status of the response
	StatusCode int

	// Body is the raw response body, kept for diagnostics
	Body string

	kind error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("anydo %s: %v (status %d): %s", e.Op, e.kind, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("anydo %s: %v (status %d)", e.Op, e.kind, e.StatusCode)
}

// Unwrap exposes the sentinel kind for errors.Is.
func (e *APIError) Unwrap() error {
	return e.kind
}

// apiError maps a response status to the error taxonomy. Returns nil for 2xx.
func apiError(op string, statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var kind error
	switch statusCode {
	case http.StatusBadRequest:
		kind = ErrBadRequest
	case http.StatusUnauthorized:
		kind = ErrUnauthorized
	case http.StatusConflict:
		kind = ErrConflict
	default:
		kind = ErrInternalServer
	}

	return &APIError{
		Op:         op,
		StatusCode: statusCode,
		Body:       string(body),
		kind:       kind,
	}
}

// ResourceError represents a failure in the resource model (attribute access,
// dirty tracking, save preconditions).
type ResourceError struct {
	// Op is the operation that failed (e.g. "get", "set", "save")
	Op string

	// Key is the attribute involved, if any
	Key string

	kind error
}

// Error implements the error interface.
func (e *ResourceError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("anydo resource %s %q: %v", e.Op, e.Key, e.kind)
	}
	return fmt.Sprintf("anydo resource %s: %v", e.Op, e.kind)
}

// Unwrap exposes the sentinel kind for errors.Is.
func (e *ResourceError) Unwrap() error {
	return e.kind
}

func resourceError(op, key string, kind error) error {
	return &ResourceError{Op: op, Key: key, kind: kind}
}
