package outfmt

import (
	"encoding/json"
	"reflect"
)

// normalizeJSONOutput wraps bare slices in an {items: [...]} envelope so
// list commands emit a consistent top-level object. Raw byte payloads and
// anything already object-shaped pass through untouched.
func normalizeJSONOutput(v any) any {
	switch v.(type) {
	case nil, []byte, json.RawMessage:
		return v
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return v
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return v
	}
	if rv.IsNil() {
		// A nil slice would serialize as "items": null and break jq .items[].
		return map[string]any{"items": []any{}}
	}
	return map[string]any{"items": rv.Interface()}
}
