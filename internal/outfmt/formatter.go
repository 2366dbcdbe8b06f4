package outfmt

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Formatter renders command results in the mode carried by its context:
// aligned tables in text mode, filtered JSON otherwise.
type Formatter struct {
	ctx    context.Context
	out    io.Writer
	errOut io.Writer
	table  *tabwriter.Writer
}

// NewFormatter builds a Formatter bound to ctx and the command's streams.
func NewFormatter(ctx context.Context, out, errOut io.Writer) *Formatter {
	return &Formatter{
		ctx:    ctx,
		out:    out,
		errOut: errOut,
		table:  tabwriter.NewWriter(out, 0, 4, 2, ' ', 0),
	}
}

// Output writes data as JSON based on context format. Text mode is a no-op;
// callers render tables through StartTable/Row/EndTable instead.
func (f *Formatter) Output(data any) error {
	if !IsJSON(f.ctx) {
		return nil
	}
	query := GetQuery(f.ctx)
	if tmpl := GetTemplate(f.ctx); tmpl != "" {
		filtered, err := ApplyQuery(data, query)
		if err != nil {
			return err
		}
		return WriteTemplate(f.out, filtered, tmpl)
	}
	return WriteJSONFiltered(f.out, data, query, IsCompact(f.ctx))
}

// StartTable writes table headers. Returns true if in text mode.
func (f *Formatter) StartTable(headers []string) bool {
	if IsJSON(f.ctx) {
		return false
	}
	f.line(headers)
	return true
}

// Row writes a single row to the table.
func (f *Formatter) Row(columns ...string) {
	f.line(columns)
}

// EndTable flushes the table output.
func (f *Formatter) EndTable() error {
	return f.table.Flush()
}

// Empty writes a message to stderr indicating no results.
func (f *Formatter) Empty(message string) {
	_, _ = fmt.Fprintln(f.errOut, message)
}

func (f *Formatter) line(cells []string) {
	_, _ = fmt.Fprintln(f.table, strings.Join(cells, "\t"))
}
