package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Request describes one API call: everything the client needs to build and
// send it. Fields is the request body before encoding; Files switches the
// body to multipart form-data regardless of the upload mode.
type Request struct {
	Method  string
	Path    string
	Params  []Param
	Headers []Header
	Fields  map[string]any
	Files   []File
}

// Result is the outcome of one API call that produced a response, success
// or not. The status code and raw body are always captured.
type Result struct {
	StatusCode int
	Headers    http.Header
	Raw        []byte

	// Decoded holds the JSON-decoded body. Populated on success when the
	// call ran with decode mode on, and on non-success responses whose
	// body parses as JSON.
	Decoded any

	// Diagnostics is populated only when the call ran with debug mode on.
	Diagnostics *Diagnostics
}

// Diagnostics captures request detail for debugging.
type Diagnostics struct {
	Method         string
	URL            string
	Proto          string
	Duration       time.Duration
	RequestHeaders http.Header
}

// DecodeInto unmarshals the raw response body into v, regardless of the
// decode mode the call ran under. A missing body leaves v untouched.
func (r *Result) DecodeInto(v any) error {
	if len(r.Raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Raw, v); err != nil {
		return fmt.Errorf("unexpected API response format (JSON decode failed): %w", err)
	}
	return nil
}

// RequestID returns the request correlation ID the service attached to the
// response, when present.
func (r *Result) RequestID() string {
	return requestIDFromHeader(r.Headers)
}
