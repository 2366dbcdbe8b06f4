package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"sort"
	"strconv"
)

// bodyPayload is an encoded request body plus the Content-Type that
// describes it.
type bodyPayload struct {
	reader      io.Reader
	contentType string
}

// encodeBody prepares the request body for one call. JSON is the default;
// upload mode (or the presence of file parts) switches to multipart
// form-data with bracket-flattened fields. A call without fields or files
// carries no body and no Content-Type.
func encodeBody(cfg callConfig, fields map[string]any, files []File) (*bodyPayload, error) {
	if len(fields) == 0 && len(files) == 0 {
		return nil, nil
	}
	if cfg.uploadMode || len(files) > 0 {
		return encodeForm(fields, files)
	}
	return encodeJSON(fields)
}

func encodeJSON(fields map[string]any) (*bodyPayload, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return &bodyPayload{reader: bytes.NewReader(data), contentType: "application/json"}, nil
}

func encodeForm(fields map[string]any, files []File) (*bodyPayload, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	flat := flattenFields(fields)
	names := make([]string, 0, len(flat))
	for name := range flat {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writer.WriteField(name, flat[name]); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", name, err)
		}
	}

	for _, f := range files {
		part, err := writer.CreateFormFile(f.Field, f.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file %s: %w", f.Name, err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, fmt.Errorf("failed to write file content: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}
	return &bodyPayload{reader: &buf, contentType: writer.FormDataContentType()}, nil
}

// flattenFields rewrites nested values into bracket notation:
// {"a": {"b": {"c": 1}}} becomes {"a[b][c]": "1"} and slice elements get
// their index, {"tags": ["x","y"]} becomes {"tags[0]": "x", "tags[1]": "y"}.
// Each pass unfolds one level; passes repeat until a pass finds no nested
// value left.
func flattenFields(fields map[string]any) map[string]string {
	work := make(map[string]any, len(fields))
	for k, v := range fields {
		work[k] = v
	}

	for {
		nested := false
		next := make(map[string]any, len(work))
		for key, value := range work {
			switch v := value.(type) {
			case map[string]any:
				for sub, subValue := range v {
					next[key+"["+sub+"]"] = subValue
				}
				nested = true
			case []any:
				for i, item := range v {
					next[key+"["+strconv.Itoa(i)+"]"] = item
				}
				nested = true
			default:
				next[key] = value
			}
		}
		work = next
		if !nested {
			break
		}
	}

	out := make(map[string]string, len(work))
	for key, value := range work {
		out[key] = fieldString(value)
	}
	return out
}

func fieldString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
