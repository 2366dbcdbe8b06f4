package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/extrata/extrata-cli/internal/iocontext"
	"github.com/extrata/extrata-cli/internal/outfmt"
)

// writeJSONLItem emits a single list item on one line for streaming/piping.
func writeJSONLItem(w io.Writer, item any, query, tmpl string) error {
	if query != "" {
		filtered, err := outfmt.ApplyQuery(item, query)
		if err != nil {
			return err
		}
		item = filtered
	}

	if tmpl != "" {
		if err := outfmt.WriteTemplate(w, item, tmpl); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w)
		return err
	}

	data, err := json.Marshal(item)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n"))
	return err
}

// renderList writes a slice of items as a table, a JSON items envelope, or a
// JSONL stream depending on the output mode. The Extrata endpoints return
// complete lists, so there is no pagination to thread through.
func renderList[T any](cmd *cobra.Command, items []T, headers []string, rowFunc func(T) []string, emptyMessage string) error {
	ctx := cmd.Context()
	ioStreams := iocontext.GetIO(ctx)

	if outfmt.IsJSONL(ctx) {
		query := outfmt.GetQuery(ctx)
		tmpl := outfmt.GetTemplate(ctx)
		for _, item := range items {
			if err := writeJSONLItem(ioStreams.Out, item, query, tmpl); err != nil {
				return err
			}
		}
		return nil
	}

	f := outfmt.NewFormatter(ctx, ioStreams.Out, ioStreams.ErrOut)

	if outfmt.IsJSON(ctx) {
		if items == nil {
			items = make([]T, 0)
		}
		return f.Output(items)
	}

	if len(items) == 0 {
		if emptyMessage != "" {
			f.Empty(emptyMessage)
		}
		return nil
	}

	f.StartTable(headers)
	for _, item := range items {
		f.Row(rowFunc(item)...)
	}
	return f.EndTable()
}
