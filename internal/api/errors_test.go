package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestIsSuccess(t *testing.T) {
	tests := []struct {
		status   int
		expected bool
	}{
		{200, true},
		{201, true},
		{202, true},
		{204, false}, // only 200/201/202 count
		{301, false},
		{400, false},
		{404, false},
		{500, false},
	}
	for _, tt := range tests {
		if got := isSuccess(tt.status); got != tt.expected {
			t.Errorf("isSuccess(%d) = %v, want %v", tt.status, got, tt.expected)
		}
	}
}

func TestClassifyResponseRecognized(t *testing.T) {
	body := []byte(`{"message": "validation failed", "errors": [{"message": "taxId is invalid"}, {"message": "name is required"}]}`)
	err := classifyResponse(400, body, "req-9")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	want := "validation failed\ntaxId is invalid\nname is required"
	if apiErr.Message != want {
		t.Errorf("Message = %q, want %q", apiErr.Message, want)
	}
	if apiErr.StatusCode != 400 {
		t.Errorf("StatusCode = %d, want 400", apiErr.StatusCode)
	}
	if apiErr.RequestID != "req-9" {
		t.Errorf("RequestID = %q, want req-9", apiErr.RequestID)
	}
	if !strings.Contains(apiErr.Error(), "req-9") {
		t.Errorf("Error() = %q, should mention request ID", apiErr.Error())
	}
}

func TestClassifyResponseMessageOnly(t *testing.T) {
	err := classifyResponse(404, []byte(`{"message": "payer not found"}`), "")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Message != "payer not found" {
		t.Errorf("Message = %q, want payer not found", apiErr.Message)
	}
}

func TestClassifyResponseEmptyMessageKeyStillRecognized(t *testing.T) {
	// The key being present is what counts, not its value.
	err := classifyResponse(400, []byte(`{"message": ""}`), "")
	if !IsAPIError(err) {
		t.Fatalf("expected *APIError, got %T", err)
	}
}

func TestClassifyResponseUnrecognized(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no message key", `{"detail": "boom"}`},
		{"not json", `<html>502 Bad Gateway</html>`},
		{"json array", `[1,2,3]`},
		{"empty body", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyResponse(502, []byte(tt.body), "")
			var unrecognized *UnrecognizedResponseError
			if !errors.As(err, &unrecognized) {
				t.Fatalf("expected *UnrecognizedResponseError, got %T", err)
			}
			if unrecognized.StatusCode != 502 {
				t.Errorf("StatusCode = %d, want 502", unrecognized.StatusCode)
			}
			if string(unrecognized.Body) != tt.body {
				t.Errorf("Body = %q, want %q", unrecognized.Body, tt.body)
			}
		})
	}
}

func TestTransportErrorUnwrap(t *testing.T) {
	cause := context.DeadlineExceeded
	err := error(&TransportError{Method: "GET", URL: "https://api.extrata.com.br/api/v1/payer", Cause: cause})

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("errors.Is should see through TransportError to the cause")
	}
	if !IsTransportError(err) {
		t.Error("IsTransportError should be true")
	}
	if !strings.Contains(err.Error(), "GET") {
		t.Errorf("Error() = %q, should carry the method", err.Error())
	}
}

func TestErrorKindHelpers(t *testing.T) {
	apiErr := fmt.Errorf("wrapped: %w", &APIError{StatusCode: 400, Message: "bad"})
	transportErr := fmt.Errorf("wrapped: %w", &TransportError{Cause: errors.New("refused")})
	unrecognized := fmt.Errorf("wrapped: %w", &UnrecognizedResponseError{StatusCode: 500})

	if !IsAPIError(apiErr) || IsAPIError(transportErr) || IsAPIError(unrecognized) {
		t.Error("IsAPIError misclassified")
	}
	if !IsTransportError(transportErr) || IsTransportError(apiErr) {
		t.Error("IsTransportError misclassified")
	}
	if !IsUnrecognizedResponse(unrecognized) || IsUnrecognizedResponse(apiErr) {
		t.Error("IsUnrecognizedResponse misclassified")
	}
	if IsAPIError(nil) || IsTransportError(nil) || IsUnrecognizedResponse(nil) {
		t.Error("nil should never match")
	}
}

func TestErrorStatus(t *testing.T) {
	if status, ok := ErrorStatus(&APIError{StatusCode: 404}); !ok || status != 404 {
		t.Errorf("ErrorStatus(APIError) = %d, %v", status, ok)
	}
	if status, ok := ErrorStatus(&UnrecognizedResponseError{StatusCode: 500}); !ok || status != 500 {
		t.Errorf("ErrorStatus(UnrecognizedResponseError) = %d, %v", status, ok)
	}
	if _, ok := ErrorStatus(&TransportError{Cause: errors.New("x")}); ok {
		t.Error("TransportError carries no status")
	}
	if _, ok := ErrorStatus(nil); ok {
		t.Error("nil carries no status")
	}
}

func TestIsNotFoundError(t *testing.T) {
	if !IsNotFoundError(&APIError{StatusCode: 404, Message: "gone"}) {
		t.Error("404 APIError should be not-found")
	}
	if !IsNotFoundError(&APIError{StatusCode: 400, Message: "payer not found"}) {
		t.Error("message mentioning not found should match")
	}
	if IsNotFoundError(&APIError{StatusCode: 400, Message: "bad input"}) {
		t.Error("plain 400 should not be not-found")
	}
	if IsNotFoundError(nil) {
		t.Error("nil should not be not-found")
	}
}
