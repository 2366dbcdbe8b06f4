// Package filter applies jq expressions to command output.
package filter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
)

// NormalizeExpression fixes shell-escaped operators in jq expressions.
// Zsh escapes ! to \! even in single quotes, breaking operators like !=.
func NormalizeExpression(expr string) string {
	return strings.ReplaceAll(expr, `\!`, `!`)
}

// Apply applies a jq filter expression to the input data.
//
// List commands wrap arrays as {items: [...]} before printing, so a query
// like `.[] | .id` that fails on the wrapper is retried against the items
// array. Explicit paths such as .items[] never trigger the retry.
func Apply(data any, expression string) (any, error) {
	if expression == "" {
		return data, nil
	}

	query, err := gojq.Parse(NormalizeExpression(expression))
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}

	results, err := runQuery(query, data)
	if err != nil && retryOnItems(expression, err) {
		if items, ok := wrappedItems(data); ok {
			if retried, retryErr := runQuery(query, items); retryErr == nil {
				return collapse(retried), nil
			}
		}
	}
	if err != nil {
		return nil, err
	}
	return collapse(results), nil
}

func runQuery(query *gojq.Query, data any) ([]any, error) {
	iter := query.Run(data)

	var results []any
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return nil, fmt.Errorf("filter error: %w", err)
		}
		results = append(results, v)
	}
	return results, nil
}

// collapse unwraps single-result queries so `.name` yields a scalar
// rather than a one-element array.
func collapse(results []any) any {
	if len(results) == 1 {
		return results[0]
	}
	return results
}

// retryOnItems reports whether the failed expression iterated the top
// level as an array, the signature of a query written against the items
// wrapper's content.
func retryOnItems(expression string, err error) bool {
	if !strings.Contains(err.Error(), "expected an object but got: array") {
		return false
	}
	expr := strings.TrimSpace(expression)
	for _, prefix := range []string{".[]", "[.[]", "(.[]"} {
		if strings.HasPrefix(expr, prefix) {
			return true
		}
	}
	return false
}

// wrappedItems extracts the array from an {items: [...]} wrapper.
func wrappedItems(data any) (any, bool) {
	m, ok := data.(map[string]any)
	if !ok {
		return nil, false
	}
	items, ok := m["items"].([]any)
	if !ok {
		return nil, false
	}
	return items, true
}

// ApplyToJSON applies a filter to JSON bytes and returns filtered JSON bytes
// (pretty-printed).
func ApplyToJSON(jsonData []byte, expression string) ([]byte, error) {
	if expression == "" {
		return jsonData, nil
	}

	result, err := ApplyFromJSON(jsonData, expression)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(result, "", "  ")
}

// ApplyFromJSON applies a jq filter to JSON bytes and returns the result as
// a Go value. Unlike ApplyToJSON, this returns the unmarshaled value for the
// caller to format.
func ApplyFromJSON(jsonData []byte, expression string) (any, error) {
	var data any
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return Apply(data, expression)
}
