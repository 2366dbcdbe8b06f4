// Package dryrun previews mutating commands without sending requests.
package dryrun

import (
	"context"
	"fmt"
	"io"
	"sort"
)

type dryRunKey struct{}

// WithDryRun returns a context with dry-run mode set.
func WithDryRun(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, dryRunKey{}, enabled)
}

// IsEnabled reports whether dry-run mode is on for this context.
func IsEnabled(ctx context.Context) bool {
	v, ok := ctx.Value(dryRunKey{}).(bool)
	return ok && v
}

// Preview describes the mutation a command would have performed.
type Preview struct {
	Operation   string
	Resource    string
	Description string
	Details     map[string]any
	Warnings    []string
}

const rule = "───────────────────────────────────────"

// Write renders the preview. Detail keys are sorted so output is stable.
func (p *Preview) Write(w io.Writer) {
	_, _ = fmt.Fprintf(w, "\n[DRY-RUN] Would %s %s\n%s\n", p.Operation, p.Resource, rule)

	if p.Description != "" {
		_, _ = fmt.Fprintf(w, "%s\n\n", p.Description)
	}

	if len(p.Details) > 0 {
		keys := make([]string, 0, len(p.Details))
		for k := range p.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			_, _ = fmt.Fprintf(w, "  %s: %v\n", k, p.Details[k])
		}
		_, _ = fmt.Fprintln(w)
	}

	if len(p.Warnings) > 0 {
		_, _ = fmt.Fprintln(w, "Warnings:")
		for _, warning := range p.Warnings {
			_, _ = fmt.Fprintf(w, "  ! %s\n", warning)
		}
		_, _ = fmt.Fprintln(w)
	}

	_, _ = fmt.Fprintf(w, "%s\nNo changes made (dry-run mode)\n", rule)
}
