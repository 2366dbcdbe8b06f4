// Package outfmt selects and renders command output formats.
//
// The active mode travels on the context so helpers deep in the call
// tree can pick text or JSON without threading flags around.
package outfmt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Mode is an output format.
type Mode int

const (
	// Text is the default human-readable output.
	Text Mode = iota
	// JSON is pretty-printed structured output.
	JSON
	// JSONL is newline-delimited JSON, one value per line.
	JSONL
)

// modeNames maps accepted --output values to modes. "ndjson" is an alias
// for jsonl; the empty string keeps the default when the flag is unset.
var modeNames = map[string]Mode{
	"":       Text,
	"text":   Text,
	"json":   JSON,
	"jsonl":  JSONL,
	"ndjson": JSONL,
}

// Parse maps a --output flag value to a Mode. Values are case-sensitive.
func Parse(s string) (Mode, error) {
	if mode, ok := modeNames[s]; ok {
		return mode, nil
	}
	return Text, fmt.Errorf("invalid output format: %q (use 'text', 'json', 'jsonl', or 'ndjson')", s)
}

// String returns the canonical name of the mode.
func (m Mode) String() string {
	switch m {
	case JSON:
		return "json"
	case JSONL:
		return "jsonl"
	}
	return "text"
}

type (
	modeKey    struct{}
	compactKey struct{}
)

// WithMode returns a context carrying the output mode.
func WithMode(ctx context.Context, mode Mode) context.Context {
	return context.WithValue(ctx, modeKey{}, mode)
}

// ModeFromContext returns the mode carried by ctx. The zero Mode is Text,
// so a context without one yields the default.
func ModeFromContext(ctx context.Context) Mode {
	mode, _ := ctx.Value(modeKey{}).(Mode)
	return mode
}

// IsJSON reports whether output is any JSON variant.
func IsJSON(ctx context.Context) bool {
	switch ModeFromContext(ctx) {
	case JSON, JSONL:
		return true
	}
	return false
}

// IsJSONL reports whether output is newline-delimited JSON.
func IsJSONL(ctx context.Context) bool {
	return ModeFromContext(ctx) == JSONL
}

// WithCompact returns a context with compact JSON rendering set.
func WithCompact(ctx context.Context, compact bool) context.Context {
	return context.WithValue(ctx, compactKey{}, compact)
}

// IsCompact reports whether compact JSON rendering is active.
func IsCompact(ctx context.Context) bool {
	compact, _ := ctx.Value(compactKey{}).(bool)
	return compact
}

// WriteJSON writes v as indented JSON with a trailing newline.
func WriteJSON(w io.Writer, v any) error {
	return WriteJSONMaybeCompact(w, v, false)
}

// WriteJSONMaybeCompact writes v as JSON, indented unless compact is set.
func WriteJSONMaybeCompact(w io.Writer, v any, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
