package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/extrata/extrata-cli/internal/api"
)

func TestHandleError_Nil(t *testing.T) {
	if got := HandleError(nil); got != "" {
		t.Errorf("HandleError(nil) = %q", got)
	}
}

func TestHandleError_APIError(t *testing.T) {
	err := &api.APIError{StatusCode: 401, Message: "invalid credentials", RequestID: "req-123"}
	got := HandleError(err)

	if !strings.Contains(got, "API error (HTTP 401): invalid credentials") {
		t.Errorf("output = %q", got)
	}
	if !strings.Contains(got, "Run: ex auth login") {
		t.Errorf("missing 401 suggestion: %q", got)
	}
	if !strings.Contains(got, "Request ID: req-123") {
		t.Errorf("missing request ID: %q", got)
	}
}

func TestHandleError_NotFoundSuggestions(t *testing.T) {
	err := &api.APIError{StatusCode: 404, Message: "payer not found"}
	got := HandleError(err)

	if !strings.Contains(got, "Production and staging hold separate data") {
		t.Errorf("missing environment hint: %q", got)
	}
}

func TestHandleError_BadRequestRequiredField(t *testing.T) {
	err := &api.APIError{StatusCode: 400, Message: "field taxId is required"}
	got := HandleError(err)

	if !strings.Contains(got, "A required field may be missing") {
		t.Errorf("output = %q", got)
	}
}

func TestHandleError_UnrecognizedResponse(t *testing.T) {
	err := &api.UnrecognizedResponseError{StatusCode: 502, Body: []byte("<html>bad gateway</html>")}
	got := HandleError(err)

	if !strings.Contains(got, "Unrecognized response (HTTP 502).") {
		t.Errorf("output = %q", got)
	}
	if !strings.Contains(got, "proxy or gateway") {
		t.Errorf("output = %q", got)
	}
}

func TestHandleError_ConnectionRefused(t *testing.T) {
	err := errors.New("dial tcp 127.0.0.1:443: connect: connection refused")
	got := HandleError(err)

	if !strings.Contains(got, "Connection refused.") {
		t.Errorf("output = %q", got)
	}
	if !strings.Contains(got, "Check if the endpoint is reachable") {
		t.Errorf("output = %q", got)
	}
}

func TestHandleError_NoSuchHost(t *testing.T) {
	err := errors.New("lookup api.extrata.com.br: no such host")
	got := HandleError(err)

	if !strings.Contains(got, "DNS resolution failed.") {
		t.Errorf("output = %q", got)
	}
}

func TestHandleError_CertificateError(t *testing.T) {
	err := errors.New("x509: certificate signed by unknown authority")
	got := HandleError(err)

	if !strings.Contains(got, "TLS certificate error.") {
		t.Errorf("output = %q", got)
	}
}

func TestHandleError_Generic(t *testing.T) {
	got := HandleError(errors.New("boom"))
	if got != "Error: boom\n" {
		t.Errorf("output = %q", got)
	}
}
