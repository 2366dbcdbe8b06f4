package api

import (
	"net/url"
	"strings"
)

// Param is one query-string pair. A request carries params as a slice, and
// the encoded query preserves slice order.
type Param struct {
	Name  string
	Value string
}

// Header is one request-header pair. Header slices are additive: two pairs
// with the same name are both sent, in slice order. Nothing deduplicates
// them.
type Header struct {
	Name  string
	Value string
}

// File is one multipart part of an upload request.
type File struct {
	Field   string
	Name    string
	Content []byte
}

// encodeQuery renders params in input order. Pairs with an empty name or
// empty value are dropped. Names and values are percent-encoded. Returns ""
// when nothing survives, otherwise a string starting with "?".
func encodeQuery(params []Param) string {
	var b strings.Builder
	for _, p := range params {
		if p.Name == "" || p.Value == "" {
			continue
		}
		if b.Len() == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// withoutParams filters out every pair whose name matches one of names,
// keeping the remaining pairs in their original order. Used when an
// operation supplies a parameter itself and caller-provided duplicates
// must not survive.
func withoutParams(params []Param, names ...string) []Param {
	if len(params) == 0 {
		return nil
	}
	out := make([]Param, 0, len(params))
	for _, p := range params {
		drop := false
		for _, name := range names {
			if p.Name == name {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, p)
		}
	}
	return out
}
