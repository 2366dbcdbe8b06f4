package outfmt

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestFormatter_OutputJSON(t *testing.T) {
	ctx := WithMode(context.Background(), JSON)
	out := new(bytes.Buffer)
	f := NewFormatter(ctx, out, new(bytes.Buffer))

	err := f.Output(map[string]any{"hash": "abc123", "balance": 5.0})
	if err != nil {
		t.Fatalf("Output error: %v", err)
	}
	if !strings.Contains(out.String(), `"hash": "abc123"`) {
		t.Errorf("output = %q", out.String())
	}
}

func TestFormatter_OutputTextModeNoop(t *testing.T) {
	out := new(bytes.Buffer)
	f := NewFormatter(context.Background(), out, new(bytes.Buffer))

	err := f.Output(map[string]any{"hash": "abc123"})
	if err != nil {
		t.Fatalf("Output error: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("text mode Output should write nothing, got %q", out.String())
	}
}

func TestFormatter_OutputWithQuery(t *testing.T) {
	ctx := WithMode(context.Background(), JSON)
	ctx = WithQuery(ctx, ".hash")
	ctx = WithCompact(ctx, true)
	out := new(bytes.Buffer)
	f := NewFormatter(ctx, out, new(bytes.Buffer))

	err := f.Output(map[string]any{"hash": "abc123"})
	if err != nil {
		t.Fatalf("Output error: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != `"abc123"` {
		t.Errorf("output = %q, want %q", got, `"abc123"`)
	}
}

func TestFormatter_OutputWithTemplate(t *testing.T) {
	ctx := WithMode(context.Background(), JSON)
	ctx = WithTemplate(ctx, "{{.hash}}")
	out := new(bytes.Buffer)
	f := NewFormatter(ctx, out, new(bytes.Buffer))

	err := f.Output(map[string]any{"hash": "abc123"})
	if err != nil {
		t.Fatalf("Output error: %v", err)
	}
	if out.String() != "abc123" {
		t.Errorf("output = %q", out.String())
	}
}

func TestFormatter_Table(t *testing.T) {
	out := new(bytes.Buffer)
	f := NewFormatter(context.Background(), out, new(bytes.Buffer))

	if !f.StartTable([]string{"HASH", "BALANCE"}) {
		t.Fatal("StartTable should return true in text mode")
	}
	f.Row("abc123", "1250.75")
	f.Row("def456", "80.00")
	if err := f.EndTable(); err != nil {
		t.Fatalf("EndTable error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), out.String())
	}
	if !strings.HasPrefix(lines[0], "HASH") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "abc123") {
		t.Errorf("row = %q", lines[1])
	}
}

func TestFormatter_TableSkippedInJSONMode(t *testing.T) {
	ctx := WithMode(context.Background(), JSON)
	f := NewFormatter(ctx, new(bytes.Buffer), new(bytes.Buffer))

	if f.StartTable([]string{"HASH"}) {
		t.Error("StartTable should return false in JSON mode")
	}
}

func TestFormatter_Empty(t *testing.T) {
	errOut := new(bytes.Buffer)
	f := NewFormatter(context.Background(), new(bytes.Buffer), errOut)

	f.Empty("no statements in period")
	if !strings.Contains(errOut.String(), "no statements in period") {
		t.Errorf("errOut = %q", errOut.String())
	}
}
