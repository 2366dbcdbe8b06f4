// Package debug carries the debug flag through context and wires slog.
package debug

import (
	"context"
	"log/slog"
	"os"
)

type debugKey struct{}

// WithDebug returns a context with the debug flag set.
func WithDebug(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, debugKey{}, enabled)
}

// IsEnabled reports whether debug mode is on for this context.
func IsEnabled(ctx context.Context) bool {
	v, ok := ctx.Value(debugKey{}).(bool)
	return ok && v
}

// SetupLogger installs the default slog handler. Debug mode lowers the
// level so request diagnostics become visible.
func SetupLogger(debugEnabled bool) {
	level := slog.LevelWarn
	if debugEnabled {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
