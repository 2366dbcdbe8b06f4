package api

import (
	"io"
	"mime"
	"mime/multipart"
	"reflect"
	"strings"
	"testing"
)

func TestFlattenFields(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]any
		expected map[string]string
	}{
		{
			name:     "flat fields untouched",
			fields:   map[string]any{"a": "1", "b": "2"},
			expected: map[string]string{"a": "1", "b": "2"},
		},
		{
			name:     "one level",
			fields:   map[string]any{"address": map[string]any{"city": "Recife"}},
			expected: map[string]string{"address[city]": "Recife"},
		},
		{
			name: "three levels",
			fields: map[string]any{
				"a": map[string]any{
					"b": map[string]any{
						"c": 1,
					},
				},
			},
			expected: map[string]string{"a[b][c]": "1"},
		},
		{
			name:   "slice elements indexed",
			fields: map[string]any{"tags": []any{"x", "y"}},
			expected: map[string]string{
				"tags[0]": "x",
				"tags[1]": "y",
			},
		},
		{
			name: "map inside slice",
			fields: map[string]any{
				"items": []any{
					map[string]any{"id": "a"},
					map[string]any{"id": "b"},
				},
			},
			expected: map[string]string{
				"items[0][id]": "a",
				"items[1][id]": "b",
			},
		},
		{
			name: "mixed scalars survive every pass",
			fields: map[string]any{
				"name": "Acme",
				"address": map[string]any{
					"city": map[string]any{"name": "Recife"},
				},
			},
			expected: map[string]string{
				"name":                "Acme",
				"address[city][name]": "Recife",
			},
		},
		{
			name:     "scalar types stringified",
			fields:   map[string]any{"active": true, "count": 3, "ratio": 2.5, "none": nil},
			expected: map[string]string{"active": "true", "count": "3", "ratio": "2.5", "none": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := flattenFields(tt.fields)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("flattenFields() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestEncodeBodyJSON(t *testing.T) {
	payload, err := encodeBody(callConfig{}, map[string]any{"name": "Acme"}, nil)
	if err != nil {
		t.Fatalf("encodeBody() error: %v", err)
	}
	if payload.contentType != "application/json" {
		t.Errorf("contentType = %q, want application/json", payload.contentType)
	}
	data, _ := io.ReadAll(payload.reader)
	if string(data) != `{"name":"Acme"}` {
		t.Errorf("body = %s", data)
	}
}

func TestEncodeBodyEmpty(t *testing.T) {
	payload, err := encodeBody(callConfig{}, nil, nil)
	if err != nil {
		t.Fatalf("encodeBody() error: %v", err)
	}
	if payload != nil {
		t.Errorf("expected nil payload for empty body, got %+v", payload)
	}
}

func TestEncodeBodyFormFields(t *testing.T) {
	cfg := callConfig{uploadMode: true}
	fields := map[string]any{
		"accountHash": "h-1",
		"meta":        map[string]any{"source": "ofx"},
	}
	payload, err := encodeBody(cfg, fields, nil)
	if err != nil {
		t.Fatalf("encodeBody() error: %v", err)
	}

	mediaType, params, err := mime.ParseMediaType(payload.contentType)
	if err != nil {
		t.Fatalf("ParseMediaType() error: %v", err)
	}
	if mediaType != "multipart/form-data" {
		t.Fatalf("mediaType = %q, want multipart/form-data", mediaType)
	}

	reader := multipart.NewReader(payload.reader, params["boundary"])
	form, err := reader.ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("ReadForm() error: %v", err)
	}
	if got := form.Value["accountHash"]; len(got) != 1 || got[0] != "h-1" {
		t.Errorf("accountHash = %v, want [h-1]", got)
	}
	if got := form.Value["meta[source]"]; len(got) != 1 || got[0] != "ofx" {
		t.Errorf("meta[source] = %v, want [ofx]", got)
	}
}

func TestEncodeBodyFilesForceForm(t *testing.T) {
	// Upload mode off: the presence of a file part still forces multipart.
	cfg := callConfig{uploadMode: false}
	files := []File{{Field: "file", Name: "extrato.ofx", Content: []byte("OFXHEADER")}}
	payload, err := encodeBody(cfg, map[string]any{"accountHash": "h-1"}, files)
	if err != nil {
		t.Fatalf("encodeBody() error: %v", err)
	}

	_, params, err := mime.ParseMediaType(payload.contentType)
	if err != nil {
		t.Fatalf("ParseMediaType() error: %v", err)
	}
	reader := multipart.NewReader(payload.reader, params["boundary"])
	form, err := reader.ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("ReadForm() error: %v", err)
	}

	fileHeaders := form.File["file"]
	if len(fileHeaders) != 1 {
		t.Fatalf("expected 1 file part, got %d", len(fileHeaders))
	}
	if fileHeaders[0].Filename != "extrato.ofx" {
		t.Errorf("filename = %q, want extrato.ofx", fileHeaders[0].Filename)
	}
	f, err := fileHeaders[0].Open()
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer f.Close()
	content, _ := io.ReadAll(f)
	if string(content) != "OFXHEADER" {
		t.Errorf("file content = %q, want OFXHEADER", content)
	}
	if got := form.Value["accountHash"]; len(got) != 1 || got[0] != "h-1" {
		t.Errorf("accountHash = %v, want [h-1]", got)
	}
}

func TestEncodeBodyJSONMarshalFailure(t *testing.T) {
	_, err := encodeBody(callConfig{}, map[string]any{"bad": func() {}}, nil)
	if err == nil {
		t.Fatal("expected error for unmarshalable field")
	}
	if !strings.Contains(err.Error(), "marshal") {
		t.Errorf("error = %v, want marshal failure", err)
	}
}
