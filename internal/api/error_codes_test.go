package api

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCodeFromStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected ErrorCode
	}{
		{400, ErrBadRequest},
		{401, ErrUnauthorized},
		{403, ErrForbidden},
		{404, ErrNotFound},
		{409, ErrConflict},
		{422, ErrValidation},
		{500, ErrServerError},
		{503, ErrServerError},
		{418, ErrUnknown},
	}
	for _, tt := range tests {
		if got := ErrorCodeFromStatus(tt.status); got != tt.expected {
			t.Errorf("ErrorCodeFromStatus(%d) = %q, want %q", tt.status, got, tt.expected)
		}
	}
}

func TestStructuredErrorFromAPIError(t *testing.T) {
	apiErr := &APIError{StatusCode: 401, Message: "bad credentials", RequestID: "req-1"}
	se := StructuredErrorFromError(fmt.Errorf("call failed: %w", apiErr))

	if se.Code != ErrUnauthorized {
		t.Errorf("Code = %q, want unauthorized", se.Code)
	}
	if se.Message != "bad credentials" {
		t.Errorf("Message = %q", se.Message)
	}
	if se.Context["request_id"] != "req-1" {
		t.Errorf("Context = %v", se.Context)
	}
	if se.Suggestion == "" {
		t.Error("unauthorized should carry a suggestion")
	}
}

func TestStructuredErrorFromTransportError(t *testing.T) {
	se := StructuredErrorFromError(&TransportError{Method: "GET", URL: "https://x", Cause: errors.New("dial tcp: connection refused")})
	if se.Code != ErrNetwork {
		t.Errorf("Code = %q, want network_error", se.Code)
	}

	se = StructuredErrorFromError(&TransportError{Method: "GET", URL: "https://x", Cause: errors.New("context deadline exceeded")})
	if se.Code != ErrTimeout {
		t.Errorf("Code = %q, want timeout", se.Code)
	}
}

func TestStructuredErrorFromUnrecognizedResponse(t *testing.T) {
	se := StructuredErrorFromError(&UnrecognizedResponseError{StatusCode: 502, Body: []byte("<html>")})
	if se.Code != ErrUnrecognized {
		t.Errorf("Code = %q, want unrecognized_response", se.Code)
	}
	if se.Context["status_code"] != 502 {
		t.Errorf("Context = %v", se.Context)
	}
}

func TestStructuredErrorFromGenericError(t *testing.T) {
	se := StructuredErrorFromError(errors.New("something odd"))
	if se.Code != ErrUnknown {
		t.Errorf("Code = %q, want unknown", se.Code)
	}
	if se.Message != "something odd" {
		t.Errorf("Message = %q", se.Message)
	}

	if StructuredErrorFromError(nil) != nil {
		t.Error("nil error should map to nil")
	}
}

func TestStructuredErrorPassthrough(t *testing.T) {
	original := NewStructuredError(ErrValidation, "kind must be checking or savings")
	se := StructuredErrorFromError(fmt.Errorf("wrap: %w", original))
	if se != original {
		t.Error("existing StructuredError should pass through unchanged")
	}
}

func TestNewValidationError(t *testing.T) {
	se := NewValidationError("kind", "current", []string{"checking", "savings"})
	if se.Code != ErrValidation {
		t.Errorf("Code = %q", se.Code)
	}
	if len(se.AllowedValues) != 2 {
		t.Errorf("AllowedValues = %v", se.AllowedValues)
	}
	if se.Context["got"] != "current" {
		t.Errorf("Context = %v", se.Context)
	}
}
