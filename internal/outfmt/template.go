package outfmt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"text/template"
)

type templateKey struct{}

// WithTemplate stores a --template string in the context.
func WithTemplate(ctx context.Context, tmpl string) context.Context {
	return context.WithValue(ctx, templateKey{}, tmpl)
}

// GetTemplate returns the template string carried by ctx, or "".
func GetTemplate(ctx context.Context) string {
	if tmpl, ok := ctx.Value(templateKey{}).(string); ok {
		return tmpl
	}
	return ""
}

// templateFuncs are the helpers available inside --template strings:
// json renders a value as indented JSON, brl formats a numeric amount as
// Brazilian currency ("R$ 1.234,56").
var templateFuncs = template.FuncMap{
	"json": jsonFunc,
	"brl":  brlFunc,
}

func jsonFunc(v any) (string, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func brlFunc(v any) (string, error) {
	amount, err := amountOf(v)
	if err != nil {
		return "", err
	}
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	cents := int64(math.Round(amount * 100))
	return fmt.Sprintf("%sR$ %s,%02d", sign, groupThousands(cents/100), cents%100), nil
}

// amountOf accepts the numeric shapes template data shows up in: native
// numbers, json.Number, and decimal strings.
func amountOf(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case json.Number:
		return n.Float64()
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(fmt.Sprint(v)), 64)
	if err != nil {
		return 0, fmt.Errorf("brl: cannot format %T as an amount", v)
	}
	return f, nil
}

func groupThousands(n int64) string {
	digits := strconv.FormatInt(n, 10)
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// WriteTemplate renders v through a Go text/template string. Missing keys
// render as zero values rather than failing the whole output.
func WriteTemplate(w io.Writer, v any, tmpl string) error {
	t, err := template.New("output").Funcs(templateFuncs).Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return templateError("invalid template", err)
	}
	if err := t.Execute(w, v); err != nil {
		return templateError("template execution error", err)
	}
	return nil
}

var templateLocation = regexp.MustCompile(`:(\d+):(\d+):`)

// templateError points at the line and column when the engine reports one.
func templateError(kind string, err error) error {
	if err == nil {
		return nil
	}
	if m := templateLocation.FindStringSubmatch(err.Error()); len(m) == 3 {
		return fmt.Errorf("%s at line %s, column %s: %s", kind, m[1], m[2], err.Error())
	}
	return fmt.Errorf("%s: %w", kind, err)
}
