package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// TransportError reports a request that failed before any HTTP status was
// received: DNS failures, refused connections, TLS problems, timeouts.
type TransportError struct {
	Method string
	URL    string
	Cause  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request %s %s failed: %v", e.Method, e.URL, e.Cause)
}

// Unwrap exposes the cause so errors.Is sees through to
// context.DeadlineExceeded and friends.
func (e *TransportError) Unwrap() error { return e.Cause }

// APIError is a non-success response whose body matches the service's
// documented error shape. Message holds the top-level message and every
// entry message, joined by newlines.
type APIError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("API error (status %d, request %s): %s", e.StatusCode, e.RequestID, e.Message)
	}
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// UnrecognizedResponseError is a non-success response whose body does not
// match the service error shape. Body holds the payload verbatim so nothing
// is lost for debugging.
type UnrecognizedResponseError struct {
	StatusCode int
	Body       []byte
}

func (e *UnrecognizedResponseError) Error() string {
	return fmt.Sprintf("unrecognized API response (status %d): %s", e.StatusCode, string(e.Body))
}

// IsAPIError checks if the error is a recognized service error.
func IsAPIError(err error) bool {
	var e *APIError
	return errors.As(err, &e)
}

// IsTransportError checks if the error is a transport failure.
func IsTransportError(err error) bool {
	var e *TransportError
	return errors.As(err, &e)
}

// IsUnrecognizedResponse checks if the error is an unclassifiable response.
func IsUnrecognizedResponse(err error) bool {
	var e *UnrecognizedResponseError
	return errors.As(err, &e)
}

// IsNotFoundError checks if the error indicates a resource was not found.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404 ||
			strings.Contains(strings.ToLower(apiErr.Message), "not found")
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}

// ErrorStatus extracts the HTTP status carried by err, when err came from a
// response rather than a transport failure.
func ErrorStatus(err error) (int, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, true
	}
	var unrecognized *UnrecognizedResponseError
	if errors.As(err, &unrecognized) {
		return unrecognized.StatusCode, true
	}
	return 0, false
}

// errorBody is the service's documented error shape. Message is a pointer so
// a body that merely lacks the key is distinguishable from an empty message:
// only bodies carrying the key count as recognized.
type errorBody struct {
	Message *string      `json:"message"`
	Errors  []errorEntry `json:"errors"`
}

type errorEntry struct {
	Message string `json:"message"`
}

// isSuccess reports whether the service accepted the request. Acceptance is
// only ever signaled with 200, 201 or 202.
func isSuccess(status int) bool {
	switch status {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		return true
	}
	return false
}

// classifyResponse maps a non-success response to its error kind. A body
// carrying the documented message key becomes an *APIError with all entry
// messages folded in; anything else is an *UnrecognizedResponseError with
// the untouched payload.
func classifyResponse(status int, body []byte, requestID string) error {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != nil {
		lines := make([]string, 0, 1+len(parsed.Errors))
		lines = append(lines, *parsed.Message)
		for _, entry := range parsed.Errors {
			lines = append(lines, entry.Message)
		}
		return &APIError{
			StatusCode: status,
			Message:    strings.Join(lines, "\n"),
			RequestID:  requestID,
		}
	}
	return &UnrecognizedResponseError{StatusCode: status, Body: body}
}
