// Package resolve provides fuzzy name-to-key matching for Extrata resources.
//
// Payers resolve to tax IDs and accounts resolve to hashes, so keys are
// opaque strings rather than numeric IDs. Names are folded to lowercase
// ASCII before matching, so a query typed without accents still hits
// names like "Comércio" or "São Paulo".
package resolve

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/sahilm/fuzzy"
)

// Named represents any resource with a lookup key and display name.
// Key is a tax ID for payers and a hash for accounts.
type Named struct {
	Key  string
	Name string
}

// Match is a fuzzy match result with score.
type Match struct {
	Key   string
	Name  string
	Score int
}

var (
	ErrEmptyQuery = errors.New("empty search query")
	ErrEmptyItems = errors.New("no items to match against")
)

// AmbiguousError indicates multiple candidates matched equally well.
// Matches are sorted best-first and capped (see FuzzyMatch / FuzzyMatchAll).
type AmbiguousError struct {
	Query   string
	Matches []Match
}

func (e *AmbiguousError) Error() string {
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "ambiguous match for %q", e.Query)
	if len(e.Matches) > 0 {
		b.WriteString(", candidates:")
		for _, m := range e.Matches {
			_, _ = fmt.Fprintf(&b, "\n  %s: %s", m.Key, m.Name)
		}
	}
	return b.String()
}

// foldRune lowercases r and strips the accents common in Brazilian names.
func foldRune(r rune) rune {
	switch unicode.ToLower(r) {
	case 'á', 'à', 'â', 'ã', 'ä':
		return 'a'
	case 'é', 'è', 'ê', 'ë':
		return 'e'
	case 'í', 'ì', 'î', 'ï':
		return 'i'
	case 'ó', 'ò', 'ô', 'õ', 'ö':
		return 'o'
	case 'ú', 'ù', 'û', 'ü':
		return 'u'
	case 'ç':
		return 'c'
	case 'ñ':
		return 'n'
	}
	return unicode.ToLower(r)
}

func foldName(s string) string {
	return strings.Map(foldRune, s)
}

// index holds the folded view of a candidate list that matching runs on.
// Names are folded once up front; fuzzy ranking consults them by position.
type index struct {
	items  []Named
	folded []string
}

func newIndex(items []Named) *index {
	folded := make([]string, len(items))
	for i, item := range items {
		folded[i] = foldName(item.Name)
	}
	return &index{items: items, folded: folded}
}

func (ix *index) String(i int) string { return ix.folded[i] }
func (ix *index) Len() int            { return len(ix.folded) }

// exact returns the key of the first item whose folded name equals the
// folded query.
func (ix *index) exact(folded string) (string, bool) {
	for i, name := range ix.folded {
		if name == folded {
			return ix.items[i].Key, true
		}
	}
	return "", false
}

// rank runs fuzzy matching over the folded names and returns up to limit
// results, best first.
func (ix *index) rank(folded string, limit int) []Match {
	results := fuzzy.FindFrom(folded, ix)
	if len(results) > limit {
		results = results[:limit]
	}
	matches := make([]Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, Match{
			Key:   ix.items[r.Index].Key,
			Name:  ix.items[r.Index].Name,
			Score: r.Score,
		})
	}
	return matches
}

// FuzzyMatch finds the best matching item by name and returns its key.
//
// Queries and names are compared case- and accent-insensitively. An exact
// folded match wins outright (kubectl-style: exact beats fuzzy); otherwise
// the best fuzzy result is returned, and a tie between the top two results
// is reported as *AmbiguousError.
func FuzzyMatch(query string, items []Named) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrEmptyQuery
	}
	if len(items) == 0 {
		return "", ErrEmptyItems
	}

	ix := newIndex(items)
	folded := foldName(query)
	if key, ok := ix.exact(folded); ok {
		return key, nil
	}

	matches := ix.rank(folded, 5)
	if len(matches) == 0 {
		return "", fmt.Errorf("no match found for %q", query)
	}
	if len(matches) > 1 && matches[0].Score == matches[1].Score {
		return "", &AmbiguousError{Query: query, Matches: matches}
	}
	return matches[0].Key, nil
}

// FuzzyMatchAll returns up to limit matches ranked by score (best first).
func FuzzyMatchAll(query string, items []Named, limit int) []Match {
	query = strings.TrimSpace(query)
	if query == "" || len(items) == 0 || limit <= 0 {
		return nil
	}
	return newIndex(items).rank(foldName(query), limit)
}
