package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
	"unicode"

	"github.com/extrata/extrata-cli/internal/api"
	"github.com/extrata/extrata-cli/internal/cache"
	"github.com/extrata/extrata-cli/internal/dryrun"
	"github.com/extrata/extrata-cli/internal/iocontext"
	"github.com/extrata/extrata-cli/internal/outfmt"
	"github.com/extrata/extrata-cli/internal/resolve"
	"github.com/extrata/extrata-cli/internal/validation"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// getJQQuery returns the jq query from --jq or --query flags.
// --jq takes precedence over --query for consistency with gh CLI.
func getJQQuery() string {
	// Check --jq first (shorter, preferred for scripts)
	if flags.JQ != "" {
		return flags.JQ
	}
	// Fall back to --query
	return flags.Query
}

// getClient creates an API client from stored credentials
func getClient() (*api.Client, error) {
	return newClientFactory().client()
}

// newTabWriter creates a tabwriter for text output
func newTabWriter(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

func newTabWriterFromCmd(cmd *cobra.Command) *tabwriter.Writer {
	ioStreams := iocontext.GetIO(cmd.Context())
	return newTabWriter(ioStreams.Out)
}

// printJSON outputs data as JSON with optional query/template filtering
func printJSON(cmd *cobra.Command, v any) error {
	ioStreams := iocontext.GetIO(cmd.Context())
	query := outfmt.GetQuery(cmd.Context())
	compact := outfmt.IsCompact(cmd.Context())
	if tmpl := outfmt.GetTemplate(cmd.Context()); tmpl != "" {
		filtered, err := outfmt.ApplyQuery(v, query)
		if err != nil {
			return err
		}
		return outfmt.WriteTemplate(ioStreams.Out, filtered, tmpl)
	}
	return outfmt.WriteJSONFiltered(ioStreams.Out, v, query, compact)
}

// printJSONErr writes a JSON value to stderr.
func printJSONErr(cmd *cobra.Command, v any) error {
	ioStreams := iocontext.GetIO(cmd.Context())
	return outfmt.WriteJSON(ioStreams.ErrOut, v)
}

// isJSON checks if the command context wants JSON output
func isJSON(cmd *cobra.Command) bool {
	return outfmt.IsJSON(cmd.Context())
}

// isQuiet returns true if --quiet/-Q flag is set
func isQuiet(_ *cobra.Command) bool {
	return flags.Quiet
}

// printIfNotQuiet prints to stdout only if not in quiet mode
func printIfNotQuiet(cmd *cobra.Command, format string, args ...any) {
	if !flags.Quiet {
		ioStreams := iocontext.GetIO(cmd.Context())
		_, _ = fmt.Fprintf(ioStreams.Out, format, args...)
	}
}

func printAction(cmd *cobra.Command, action, resource string, id any, name string) {
	if flags.Quiet || isJSON(cmd) {
		return
	}

	ioStreams := iocontext.GetIO(cmd.Context())
	message := fmt.Sprintf("%s %s", action, resource)
	if id != nil {
		if value, ok := id.(string); !ok || value != "" {
			message = fmt.Sprintf("%s %v", message, id)
		}
	}
	if name != "" {
		message = fmt.Sprintf("%s: %s", message, name)
	}
	_, _ = fmt.Fprintln(ioStreams.Out, message)
}

func bulkProgressEnabled(cmd *cobra.Command, progress, noProgress bool) bool {
	if noProgress {
		return false
	}
	if !progress {
		return false
	}
	if isJSON(cmd) {
		return false
	}
	if flags.Quiet || flags.Silent {
		return false
	}
	return true
}

// cmdContext returns the command context
func cmdContext(cmd *cobra.Command) context.Context {
	return cmd.Context()
}

// normalizeEnum normalizes and validates a flag value against a list of valid enum values.
// It lowercases and trims the input, then tries exact match followed by unique prefix match.
// Returns the matched valid value or an error.
func normalizeEnum(flagName, input string, valid []string) (string, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return "", api.NewValidationError(flagName, input, valid)
	}

	// Exact match first.
	for _, v := range valid {
		if input == v {
			return v, nil
		}
	}

	// Prefix match: find all valid values that start with input.
	var matches []string
	for _, v := range valid {
		if strings.HasPrefix(v, input) {
			matches = append(matches, v)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", api.NewValidationError(flagName, input, valid)
	default:
		return "", fmt.Errorf("ambiguous %s %q: matches %s", flagName, input, strings.Join(matches, ", "))
	}
}

// validateAccountKind validates and normalizes an account kind value
func validateAccountKind(kind string) (string, error) {
	return normalizeEnum("kind", kind, []string{"checking", "savings"})
}

func registerStaticCompletions(cmd *cobra.Command, flagName string, values []string) {
	_ = cmd.RegisterFlagCompletionFunc(flagName, cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp))
}

func maybeDryRun(cmd *cobra.Command, preview *dryrun.Preview) (bool, error) {
	if !dryrun.IsEnabled(cmd.Context()) {
		return false, nil
	}
	if preview == nil {
		preview = &dryrun.Preview{}
	}
	if isJSON(cmd) {
		payload := map[string]any{
			"dry_run":     true,
			"operation":   preview.Operation,
			"resource":    preview.Resource,
			"description": preview.Description,
			"details":     preview.Details,
			"warnings":    preview.Warnings,
		}
		return true, printJSON(cmd, payload)
	}

	ioStreams := iocontext.GetIO(cmd.Context())
	preview.Write(ioStreams.Out)
	return true, nil
}

func anyFlagChanged(cmd *cobra.Command, flags ...string) bool {
	for _, flag := range flags {
		if flagOrAliasChanged(cmd, flag) {
			return true
		}
	}
	return false
}

// flagAlias registers a hidden alias for an existing flag.
// Both flags share the same underlying Value, so setting either one sets both.
// The alias is annotated so flagOrAliasChanged() can detect it.
// aliasBridgeValue wraps a pflag.Value so that Set() on the alias also
// marks the canonical flag as Changed.  This lets aliases satisfy Cobra's
// MarkFlagRequired check transparently.
type aliasBridgeValue struct {
	pflag.Value
	canonical *pflag.Flag
}

func (v *aliasBridgeValue) Set(s string) error {
	if err := v.Value.Set(s); err != nil {
		return err
	}
	v.canonical.Changed = true
	return nil
}

// aliasBridgeSliceValue extends aliasBridgeValue to also forward the
// pflag.SliceValue interface (Append, Replace, GetSlice) when the
// underlying Value supports it.
type aliasBridgeSliceValue struct {
	aliasBridgeValue
	slice pflag.SliceValue
}

func (v *aliasBridgeSliceValue) Append(s string) error     { return v.slice.Append(s) }
func (v *aliasBridgeSliceValue) Replace(ss []string) error { return v.slice.Replace(ss) }
func (v *aliasBridgeSliceValue) GetSlice() []string        { return v.slice.GetSlice() }

func flagAlias(fs *pflag.FlagSet, name, alias string) {
	f := fs.Lookup(name)
	if f == nil {
		panic(fmt.Sprintf("flagAlias: flag %q not found", name))
	}
	a := *f // shallow copy — shares the Value interface
	a.Name = alias
	a.Shorthand = ""
	a.Usage = ""
	a.Hidden = true
	bridge := &aliasBridgeValue{Value: f.Value, canonical: f}
	if sv, ok := f.Value.(pflag.SliceValue); ok {
		a.Value = &aliasBridgeSliceValue{aliasBridgeValue: *bridge, slice: sv}
	} else {
		a.Value = bridge
	}
	// Deep-copy annotations so we don't mutate the original flag's map,
	// and strip the "required" annotation — the alias should never be
	// independently required (the canonical flag enforces that).
	newAnn := map[string][]string{"alias-of": {name}}
	for k, v := range f.Annotations {
		if k == cobra.BashCompOneRequiredFlag {
			continue
		}
		newAnn[k] = v
	}
	a.Annotations = newAnn
	fs.AddFlag(&a)
}

// flagOrAliasChanged returns true if the named flag or any of its
// hidden aliases was explicitly set by the user.
func flagOrAliasChanged(cmd *cobra.Command, name string) bool {
	if cmd.Flags().Changed(name) {
		return true
	}
	// Also check inherited persistent flags
	if cmd.InheritedFlags().Changed(name) {
		return true
	}

	aliasChanged := func(fs *pflag.FlagSet) bool {
		found := false
		fs.VisitAll(func(f *pflag.Flag) {
			if found {
				return
			}
			if ann, ok := f.Annotations["alias-of"]; ok && len(ann) > 0 && ann[0] == name {
				if fs.Changed(f.Name) {
					found = true
				}
			}
		})
		return found
	}

	return aliasChanged(cmd.Flags()) || aliasChanged(cmd.InheritedFlags())
}

func isInteractive() bool {
	if flags.NoInput || flags.Yes {
		return false
	}
	if forceInteractive() {
		return true
	}
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

func forceInteractive() bool {
	value, ok := os.LookupEnv("EXTRATA_FORCE_INTERACTIVE")
	if !ok {
		return false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	enabled, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}
	return enabled
}

type confirmOptions struct {
	Prompt              string
	Expected            string
	CancelMessage       string
	Force               bool
	RequireForceForJSON bool
}

func confirmAction(cmd *cobra.Command, opts confirmOptions) (bool, error) {
	if flags.Yes {
		opts.Force = true
	}
	if opts.RequireForceForJSON && isJSON(cmd) && !opts.Force {
		return false, fmt.Errorf("--force flag is required when using --output json")
	}
	if opts.Force {
		return true, nil
	}

	out := cmd.OutOrStdout()
	if opts.Prompt != "" {
		_, _ = fmt.Fprint(out, opts.Prompt)
	}

	ioStreams := iocontext.GetIO(cmd.Context())
	reader := bufio.NewReader(ioStreams.In)
	response, err := reader.ReadString('\n')
	if err != nil && response == "" {
		if opts.CancelMessage != "" {
			_, _ = fmt.Fprintln(out, opts.CancelMessage)
		}
		return false, nil
	}

	response = strings.TrimSpace(strings.ToLower(response))
	expected := strings.TrimSpace(strings.ToLower(opts.Expected))
	if expected == "" {
		expected = "y"
	}
	if response != expected {
		if opts.CancelMessage != "" {
			_, _ = fmt.Fprintln(out, opts.CancelMessage)
		}
		return false, nil
	}

	return true, nil
}

// errAlreadyHandled is a sentinel error indicating the error was already printed to stderr.
// Commands using RunE return this to signal Cobra that an error occurred (for exit code)
// without Cobra printing it again (since SilenceErrors is true on root command).
var errAlreadyHandled = errors.New("error already handled")

type handledError struct {
	err      error
	exitCode int
}

func (e *handledError) Error() string {
	return e.err.Error()
}

func (e *handledError) Unwrap() error {
	return errAlreadyHandled
}

func (e *handledError) ExitCode() int {
	return e.exitCode
}

// loadAtValue resolves a flag value that may use the @ convention:
// @- reads stdin, @path reads a file, anything else is returned as-is.
func loadAtValue(value string) (string, error) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "@") {
		return value, nil
	}
	target := strings.TrimPrefix(value, "@")
	if target == "" {
		return "", fmt.Errorf("invalid @ value: missing path (use @- for stdin)")
	}
	if target == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(target)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", target, err)
	}
	return string(data), nil
}

// ParseStringListFlag parses a comma/whitespace/newline separated flag value into a list of strings.
// It supports @- (stdin) and @path (file), and also accepts JSON array inputs.
func ParseStringListFlag(value string) ([]string, error) {
	value = strings.TrimSpace(value)
	raw, err := loadAtValue(value)
	if err != nil {
		return nil, err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("no values provided")
	}

	// JSON array input: ["a","b"] or [1,2]
	if strings.HasPrefix(raw, "[") {
		var arr []any
		if err := json.Unmarshal([]byte(raw), &arr); err == nil {
			out := make([]string, 0, len(arr))
			for _, v := range arr {
				switch vv := v.(type) {
				case string:
					s := strings.TrimSpace(vv)
					if s != "" {
						out = append(out, s)
					}
				case float64:
					// Allow numeric values by stringifying whole numbers.
					i := int(vv)
					if float64(i) != vv {
						return nil, fmt.Errorf("invalid value %v: expected string or integer", vv)
					}
					out = append(out, fmt.Sprintf("%d", i))
				default:
					return nil, fmt.Errorf("invalid value %v: expected string or integer", v)
				}
			}
			if len(out) == 0 {
				return nil, fmt.Errorf("no valid values provided")
			}
			return out, nil
		}
	}

	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no valid values provided")
	}
	return out, nil
}

func resolveCacheDir() string {
	if dir := os.Getenv("EXTRATA_CACHE_DIR"); dir != "" {
		return dir
	}
	dir, err := cache.DefaultDir()
	if err != nil {
		return ""
	}
	return dir
}

// payerCacheTTL is deliberately long: the payer cache is a registry of
// payers this CLI has seen, not a freshness-sensitive list. The service has
// no payer list endpoint to refill it from.
const payerCacheTTL = 30 * 24 * time.Hour

func payerStore(client *api.Client) cache.Store {
	dir := resolveCacheDir()
	if dir == "" {
		return nil
	}
	return cache.OpenWithTTL(dir, "payers", client.BaseURL(), client.CredentialID(), payerCacheTTL)
}

// rememberPayer upserts one payer into the local payer cache so later
// commands can resolve it by name.
func rememberPayer(client *api.Client, payer *api.Payer) {
	if payer == nil || payer.TaxID == "" {
		return
	}
	store := payerStore(client)
	if store == nil {
		return
	}
	var payers []api.Payer
	store.Get(&payers)
	replaced := false
	for i := range payers {
		if payers[i].TaxID == payer.TaxID {
			payers[i] = *payer
			replaced = true
			break
		}
	}
	if !replaced {
		payers = append(payers, *payer)
	}
	store.Put(payers)
}

func knownPayers(client *api.Client) []api.Payer {
	store := payerStore(client)
	if store == nil {
		return nil
	}
	var payers []api.Payer
	if !store.Get(&payers) {
		return nil
	}
	return payers
}

// resolvePayerTaxID resolves a payer identifier to a digits-only tax ID.
// Accepts a CPF/CNPJ with or without punctuation, or a payer name matched
// against the local payer cache (filled by payers get/create/update).
func resolvePayerTaxID(client *api.Client, identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", fmt.Errorf("payer is required")
	}
	if err := validation.ValidateTaxID(identifier); err == nil {
		return validation.TaxIDDigits(identifier), nil
	}

	payers := knownPayers(client)
	if len(payers) == 0 {
		return "", fmt.Errorf("%q is not a CPF/CNPJ and no payers are cached yet; pass a tax ID (payers are cached after 'ex payers get')", identifier)
	}
	return fuzzyMatchPayers(identifier, payers)
}

func fuzzyMatchPayers(query string, payers []api.Payer) (string, error) {
	items := make([]resolve.Named, len(payers))
	payerByKey := make(map[string]api.Payer, len(payers))
	for i, payer := range payers {
		items[i] = resolve.Named{Key: payer.TaxID, Name: payer.Name}
		payerByKey[payer.TaxID] = payer
	}

	key, err := resolve.FuzzyMatch(query, items)
	if err == nil {
		return key, nil
	}

	var ae *resolve.AmbiguousError
	if errors.As(err, &ae) {
		var options []string
		for _, m := range ae.Matches {
			payer := payerByKey[m.Key]
			options = append(options, fmt.Sprintf("  %s: %s", validation.FormatTaxID(payer.TaxID), payer.Name))
		}
		return "", fmt.Errorf("multiple payers match %q, specify a tax ID:\n%s", query, strings.Join(options, "\n"))
	}

	matches := resolve.FuzzyMatchAll(query, items, 5)
	if len(matches) == 0 {
		return "", fmt.Errorf("no cached payer matches %q", query)
	}
	var options []string
	for _, m := range matches {
		payer := payerByKey[m.Key]
		options = append(options, fmt.Sprintf("  %s: %s", validation.FormatTaxID(payer.TaxID), payer.Name))
	}
	return "", fmt.Errorf("no cached payer matches %q, best matches:\n%s", query, strings.Join(options, "\n"))
}

// resolveAccountHash resolves an account identifier for a payer to the full
// account hash. Accepts the exact hash, a unique hash prefix, or a fuzzy
// match on the "bank branch number" label (cached, refreshed from the API
// when the cache misses).
func resolveAccountHash(ctx context.Context, client *api.Client, taxID, identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", fmt.Errorf("account is required")
	}

	dir := resolveCacheDir()
	cacheKey := "accounts:" + taxID
	var accounts []api.Account

	if dir != "" {
		store := cache.Open(dir, cacheKey, client.BaseURL(), client.CredentialID())
		if store.Get(&accounts) {
			if hash, err := matchAccount(identifier, accounts); err == nil {
				return hash, nil
			}
			// Cache might be stale, fall through to the API.
		}
	}

	var err error
	accounts, err = client.Accounts().List(ctx, taxID)
	if err != nil {
		return "", fmt.Errorf("failed to list accounts: %w", err)
	}

	if dir != "" {
		store := cache.Open(dir, cacheKey, client.BaseURL(), client.CredentialID())
		store.Put(accounts)
	}

	return matchAccount(identifier, accounts)
}

// matchAccount picks one account by full hash, unique hash prefix, or fuzzy
// label match, in that order.
func matchAccount(identifier string, accounts []api.Account) (string, error) {
	for _, account := range accounts {
		if account.Hash == identifier {
			return account.Hash, nil
		}
	}

	var prefixed []api.Account
	for _, account := range accounts {
		if strings.HasPrefix(account.Hash, identifier) {
			prefixed = append(prefixed, account)
		}
	}
	if len(prefixed) == 1 {
		return prefixed[0].Hash, nil
	}
	if len(prefixed) > 1 {
		var options []string
		for _, account := range prefixed {
			options = append(options, fmt.Sprintf("  %s: %s", account.Hash, accountLabel(account)))
		}
		return "", fmt.Errorf("multiple accounts match prefix %q, specify the full hash:\n%s", identifier, strings.Join(options, "\n"))
	}

	items := make([]resolve.Named, len(accounts))
	accountByKey := make(map[string]api.Account, len(accounts))
	for i, account := range accounts {
		items[i] = resolve.Named{Key: account.Hash, Name: accountLabel(account)}
		accountByKey[account.Hash] = account
	}

	key, err := resolve.FuzzyMatch(identifier, items)
	if err == nil {
		return key, nil
	}

	var ae *resolve.AmbiguousError
	if errors.As(err, &ae) {
		var options []string
		for _, m := range ae.Matches {
			account := accountByKey[m.Key]
			options = append(options, fmt.Sprintf("  %s: %s", account.Hash, accountLabel(account)))
		}
		return "", fmt.Errorf("multiple accounts match %q, specify the hash:\n%s", identifier, strings.Join(options, "\n"))
	}

	matches := resolve.FuzzyMatchAll(identifier, items, 5)
	if len(matches) == 0 {
		return "", fmt.Errorf("no account found matching %q", identifier)
	}
	var options []string
	for _, m := range matches {
		account := accountByKey[m.Key]
		options = append(options, fmt.Sprintf("  %s: %s", account.Hash, accountLabel(account)))
	}
	return "", fmt.Errorf("no account found matching %q, best matches:\n%s", identifier, strings.Join(options, "\n"))
}

func accountLabel(account api.Account) string {
	label := strings.TrimSpace(fmt.Sprintf("%s %s %s", account.BankCode, account.Branch, account.Number))
	if account.Kind != "" {
		label += " (" + account.Kind + ")"
	}
	return label
}

// RunE wraps a command function with enhanced error handling
func RunE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err != nil {
			if isJSON(cmd) {
				if structured := api.StructuredErrorFromError(err); structured != nil {
					_ = printJSONErr(cmd, structured)
				}
			} else {
				// Print enhanced error to stderr
				_, _ = fmt.Fprint(cmd.ErrOrStderr(), HandleError(err))
			}
			// Return a handled error so tests can still inspect the original message.
			return &handledError{err: err, exitCode: ExitCode(err)}
		}
		return nil
	}
}
