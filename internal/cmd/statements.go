package cmd

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/extrata/extrata-cli/internal/api"
	"github.com/extrata/extrata-cli/internal/cli"
	"github.com/extrata/extrata-cli/internal/dryrun"
	"github.com/extrata/extrata-cli/internal/iocontext"
	"github.com/spf13/cobra"
)

func newStatementsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "statements",
		Aliases: []string{"statement", "st"},
		Short:   "Upload, list, and download bank statements",
		Long:    "Upload statement files for parsing, track parse jobs, and fetch stored statements.",
	}

	cmd.AddCommand(newStatementsUploadCmd())
	cmd.AddCommand(newStatementsParseStatusCmd())
	cmd.AddCommand(newStatementsListCmd())
	cmd.AddCommand(newStatementsDownloadCmd())

	return cmd
}

func newStatementsUploadCmd() *cobra.Command {
	var (
		account string
		wait    bool
	)

	cmd := &cobra.Command{
		Use:     "upload <payer> <file>",
		Aliases: []string{"up"},
		Short:   "Upload a statement file for parsing",
		Long: `Upload a statement file (OFX, CSV, ...) to be parsed into transactions.

The upload starts an asynchronous parse job. Pass --wait to block until the
job finishes and print the final result, including the transaction count.

Files are limited to 20MB.`,
		Example: `  # Upload and return the queued job
  ex statements upload 12345678000195 extrato.ofx --account a1b2

  # Upload and wait for parsing to finish
  ex statements upload 12345678000195 extrato.ofx --account a1b2 --wait`,
		Args: cobra.ExactArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if account == "" {
				return fmt.Errorf("--account is required")
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			ctx := cmdContext(cmd)

			taxID, err := resolvePayerTaxID(client, args[0])
			if err != nil {
				return err
			}

			hash, err := resolveAccountHash(ctx, client, taxID, account)
			if err != nil {
				return err
			}

			path := args[1]
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			filename := filepath.Base(path)

			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation:   "upload",
				Resource:    "statement",
				Description: filename,
				Details: map[string]interface{}{
					"account":    hash,
					"file":       path,
					"size_bytes": len(content),
				},
			}); ok {
				return err
			}

			job, err := client.Statements().Upload(ctx, taxID, hash, filename, content)
			if err != nil {
				return fmt.Errorf("failed to upload statement: %w", err)
			}

			if wait && !job.Finished() {
				printIfNotQuiet(cmd, "Waiting for parse job %s...\n", job.ID)
				job, err = client.Statements().WaitParse(ctx, taxID, job.ID)
				if err != nil {
					return fmt.Errorf("failed while waiting for parse job: %w", err)
				}
			}

			if isJSON(cmd) {
				return printJSON(cmd, job)
			}
			return printParseJobDetails(cmd.OutOrStdout(), job)
		}),
	}

	cmd.Flags().StringVar(&account, "account", "", "Account hash, prefix, or label (required)")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the parse job to finish")
	flagAlias(cmd.Flags(), "account", "acc")
	flagAlias(cmd.Flags(), "wait", "w")

	return cmd
}

func newStatementsParseStatusCmd() *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:     "parse-status <payer> <job-id>",
		Aliases: []string{"ps"},
		Short:   "Show the status of a statement parse job",
		Long: `Show the status of a statement parse job started by an upload.

Finished jobs include the parsed transaction count; failed jobs include the
parser error message.`,
		Example: `  # Check once
  ex statements parse-status 12345678000195 job-42

  # Poll until the job finishes
  ex statements parse-status 12345678000195 job-42 --wait`,
		Args: cobra.ExactArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			ctx := cmdContext(cmd)

			taxID, err := resolvePayerTaxID(client, args[0])
			if err != nil {
				return err
			}

			var job *api.StatementParseJob
			if wait {
				job, err = client.Statements().WaitParse(ctx, taxID, args[1])
			} else {
				job, err = client.Statements().GetParse(ctx, taxID, args[1])
			}
			if err != nil {
				return fmt.Errorf("failed to get parse job %s: %w", args[1], err)
			}

			if isJSON(cmd) {
				return printJSON(cmd, job)
			}
			return printParseJobDetails(cmd.OutOrStdout(), job)
		}),
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the parse job to finish")
	flagAlias(cmd.Flags(), "wait", "w")

	return cmd
}

func newStatementsListCmd() *cobra.Command {
	var (
		start string
		end   string
	)

	cmd := &cobra.Command{
		Use:     "list <payer>",
		Aliases: []string{"ls"},
		Short:   "List stored statements for a period",
		Long: `List a payer's stored statements whose periods overlap the given range.

Dates accept YYYY-MM-DD plus relative expressions like "today", "yesterday",
"7 days ago", "2w ago", and weekday names. --end defaults to today.`,
		Example: `  # Last week of statements
  ex statements list 12345678000195 --start "7 days ago"

  # Fixed range
  ex statements list 12345678000195 --start 2026-01-01 --end 2026-01-31`,
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if start == "" {
				return fmt.Errorf("--start is required")
			}

			period, err := cli.ParsePeriod(start, end, time.Now())
			if err != nil {
				return err
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			taxID, err := resolvePayerTaxID(client, args[0])
			if err != nil {
				return err
			}

			statements, err := client.Statements().ListByPeriod(cmdContext(cmd), taxID, period.StartParam(), period.EndParam())
			if err != nil {
				return fmt.Errorf("failed to list statements: %w", err)
			}

			return renderList(cmd, statements,
				[]string{"ID", "ACCOUNT", "START", "END", "TRANSACTIONS", "UPLOADED"},
				func(stmt api.Statement) []string {
					return []string{
						stmt.ID,
						stmt.AccountHash,
						stmt.DateStart,
						stmt.DateEnd,
						strconv.Itoa(stmt.TransactionCount),
						formatTimestampShort(stmt.UploadedAt),
					}
				},
				"No statements found for the period.")
		}),
	}

	cmd.Flags().StringVar(&start, "start", "", "Period start: YYYY-MM-DD or relative (required)")
	cmd.Flags().StringVar(&end, "end", "", "Period end: YYYY-MM-DD or relative (default today)")
	flagAlias(cmd.Flags(), "start", "st")
	flagAlias(cmd.Flags(), "end", "en")

	return cmd
}

func newStatementsDownloadCmd() *cobra.Command {
	var (
		all         bool
		start       string
		end         string
		dir         string
		output      string
		force       bool
		concurrency int64
		progress    bool
		noProgress  bool
	)

	cmd := &cobra.Command{
		Use:     "download <payer> [statement-id]",
		Aliases: []string{"dl"},
		Short:   "Download statement files",
		Long: `Download the original file of one statement, or of every statement in a
period with --all.

Bulk downloads run concurrently and keep going when individual statements
fail; failures are reported at the end. Existing files are only overwritten
with --force.`,
		Example: `  # Download a single statement into the current directory
  ex statements download 12345678000195 st-42

  # Download into a specific file
  ex statements download 12345678000195 st-42 --out janeiro.ofx

  # Download everything from the last month
  ex statements download 12345678000195 --all --start "1mo ago" --dir ./extratos`,
		Args: cobra.RangeArgs(1, 2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			ctx := cmdContext(cmd)

			taxID, err := resolvePayerTaxID(client, args[0])
			if err != nil {
				return err
			}

			if all {
				if len(args) > 1 {
					return fmt.Errorf("--all cannot be combined with a statement ID")
				}
				if start == "" {
					return fmt.Errorf("--all requires --start")
				}
				return downloadAllStatements(cmd, client, taxID, downloadAllOptions{
					start:       start,
					end:         end,
					dir:         dir,
					force:       force,
					concurrency: concurrency,
					progress:    bulkProgressEnabled(cmd, progress, noProgress),
				})
			}

			if len(args) < 2 {
				return fmt.Errorf("statement ID is required (or use --all)")
			}
			return downloadOneStatement(cmd, ctx, client, taxID, args[1], dir, output, force)
		}),
	}

	cmd.Flags().BoolVar(&all, "all", false, "Download every statement in the period")
	cmd.Flags().StringVar(&start, "start", "", "Period start for --all: YYYY-MM-DD or relative")
	cmd.Flags().StringVar(&end, "end", "", "Period end for --all (default today)")
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to write downloaded files into")
	cmd.Flags().StringVar(&output, "out", "", "Output filename (single download only)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files without asking")
	cmd.Flags().Int64Var(&concurrency, "concurrency", DefaultConcurrency, "Concurrent downloads for --all")
	cmd.Flags().BoolVar(&progress, "progress", true, "Show progress for --all")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress output")
	flagAlias(cmd.Flags(), "start", "st")
	flagAlias(cmd.Flags(), "end", "en")
	flagAlias(cmd.Flags(), "out", "O")
	flagAlias(cmd.Flags(), "force", "fo")
	flagAlias(cmd.Flags(), "concurrency", "cc")

	return cmd
}

func downloadOneStatement(cmd *cobra.Command, ctx context.Context, client *api.Client, taxID, id, dir, output string, force bool) error {
	data, contentType, err := client.Statements().Download(ctx, taxID, id)
	if err != nil {
		return fmt.Errorf("failed to download statement %s: %w", id, err)
	}

	filename := output
	if filename == "" {
		filename = statementFileName(id, contentType)
	}
	dest := filepath.Join(dir, filename)

	ok, err := ensureWritable(cmd, dest, force)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}

	if isJSON(cmd) {
		return printJSON(cmd, map[string]any{
			"id":           id,
			"file":         dest,
			"bytes":        len(data),
			"content_type": contentType,
		})
	}

	printAction(cmd, "Downloaded", "statement", id, dest)
	return nil
}

type downloadAllOptions struct {
	start       string
	end         string
	dir         string
	force       bool
	concurrency int64
	progress    bool
}

func downloadAllStatements(cmd *cobra.Command, client *api.Client, taxID string, opts downloadAllOptions) error {
	period, err := cli.ParsePeriod(opts.start, opts.end, time.Now())
	if err != nil {
		return err
	}

	ctx := cmdContext(cmd)
	statements, err := client.Statements().ListByPeriod(ctx, taxID, period.StartParam(), period.EndParam())
	if err != nil {
		return fmt.Errorf("failed to list statements: %w", err)
	}

	ioStreams := iocontext.GetIO(ctx)
	if len(statements) == 0 {
		if isJSON(cmd) {
			return printJSON(cmd, map[string]any{"requested": 0, "downloaded": 0, "skipped": 0, "failed": 0, "items": []any{}})
		}
		_, _ = fmt.Fprintln(ioStreams.ErrOut, "No statements found for the period.")
		return nil
	}

	if err := os.MkdirAll(opts.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", opts.dir, err)
	}

	ids := make([]string, 0, len(statements))
	for _, stmt := range statements {
		ids = append(ids, stmt.ID)
	}

	results := runBulkOperation(ctx, ids, opts.concurrency, opts.progress, ioStreams.ErrOut,
		func(ctx context.Context, id string) (string, error) {
			data, contentType, err := client.Statements().Download(ctx, taxID, id)
			if err != nil {
				return "", err
			}
			dest := filepath.Join(opts.dir, statementFileName(id, contentType))
			if !opts.force {
				if _, err := os.Stat(dest); err == nil {
					return "", fmt.Errorf("%s already exists (use --force to overwrite)", dest)
				}
			}
			if err := os.WriteFile(dest, data, 0o644); err != nil {
				return "", fmt.Errorf("failed to write %s: %w", dest, err)
			}
			return dest, nil
		})

	succeeded, failed := countResults(results)

	// A listed statement can lack a downloadable file on the parser side;
	// not-found is a skip, not a failure.
	skipped := 0
	for _, result := range results {
		if !result.Success && api.IsNotFoundError(result.Error) {
			skipped++
		}
	}
	failed -= skipped

	if isJSON(cmd) {
		items := make([]map[string]any, 0, len(results))
		for _, result := range results {
			item := map[string]any{"id": result.ID, "success": result.Success}
			if result.Success {
				item["file"] = result.Data
			} else if api.IsNotFoundError(result.Error) {
				item["skipped"] = true
			} else if result.Error != nil {
				item["error"] = result.Error.Error()
			}
			items = append(items, item)
		}
		if err := printJSON(cmd, map[string]any{
			"requested":  len(ids),
			"downloaded": succeeded,
			"skipped":    skipped,
			"failed":     failed,
			"items":      items,
		}); err != nil {
			return err
		}
	} else {
		for _, result := range results {
			if result.Success {
				continue
			}
			if api.IsNotFoundError(result.Error) {
				_, _ = fmt.Fprintf(ioStreams.ErrOut, "Skipped %s: no downloadable file\n", result.ID)
				continue
			}
			if result.Error != nil {
				_, _ = fmt.Fprintf(ioStreams.ErrOut, "Failed %s: %v\n", result.ID, result.Error)
			}
		}
		printIfNotQuiet(cmd, "Downloaded %d of %d statements to %s\n", succeeded, len(ids), opts.dir)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", failed, len(ids))
	}
	return nil
}

// statementFileName derives a local filename from the statement ID and the
// Content-Type the service served the file with.
func statementFileName(id, contentType string) string {
	return "statement-" + id + extensionForContentType(contentType)
}

func extensionForContentType(contentType string) string {
	mediaType := contentType
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}
	switch strings.ToLower(mediaType) {
	case "application/ofx", "application/x-ofx", "text/ofx":
		return ".ofx"
	case "text/csv":
		return ".csv"
	case "application/pdf":
		return ".pdf"
	case "application/json":
		return ".json"
	case "text/plain":
		return ".txt"
	default:
		return ".dat"
	}
}

// ensureWritable checks whether dest can be written. Existing files require
// --force, a -y, or an interactive confirmation.
func ensureWritable(cmd *cobra.Command, dest string, force bool) (bool, error) {
	if _, err := os.Stat(dest); err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}
	if force {
		return true, nil
	}
	if !isInteractive() && !flags.Yes {
		return false, fmt.Errorf("%s already exists (use --force to overwrite)", dest)
	}
	return confirmAction(cmd, confirmOptions{
		Prompt:        fmt.Sprintf("%s already exists. Overwrite? (y/N): ", dest),
		CancelMessage: "Cancelled.",
	})
}
