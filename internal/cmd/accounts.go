package cmd

import (
	"fmt"

	"github.com/extrata/extrata-cli/internal/api"
	"github.com/extrata/extrata-cli/internal/cache"
	"github.com/extrata/extrata-cli/internal/dryrun"
	"github.com/extrata/extrata-cli/internal/validation"
	"github.com/spf13/cobra"
)

func newAccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "accounts",
		Aliases: []string{"account", "acc"},
		Short:   "Manage bank accounts",
		Long:    "List, inspect, attach, and update the bank accounts of a payer.",
	}

	cmd.AddCommand(newAccountsListCmd())
	cmd.AddCommand(newAccountsGetCmd())
	cmd.AddCommand(newAccountsCreateCmd())
	cmd.AddCommand(newAccountsUpdateCmd())

	return cmd
}

// cacheAccounts refreshes the per-payer account cache used by hash
// resolution. Failures are ignored; the cache is an optimization.
func cacheAccounts(client *api.Client, taxID string, accounts []api.Account) {
	dir := resolveCacheDir()
	if dir == "" {
		return
	}
	store := cache.Open(dir, "accounts:"+taxID, client.BaseURL(), client.CredentialID())
	store.Put(accounts)
}

func newAccountsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list <payer>",
		Aliases: []string{"ls"},
		Short:   "List a payer's bank accounts",
		Long: `List every bank account attached to a payer.

The payer may be given as a CPF/CNPJ tax ID or, once cached, by name.

JSON output returns an object with an "items" array for easy jq processing.`,
		Example: `  # List accounts by tax ID
  ex accounts list 12345678000195

  # List accounts by cached payer name
  ex accounts list "Acme Ltda"

  # JSON output - returns an object with an "items" array
  ex accounts list 12345678000195 --output json | jq '.items[].hash'`,
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			taxID, err := resolvePayerTaxID(client, args[0])
			if err != nil {
				return err
			}

			accounts, err := client.Accounts().List(cmdContext(cmd), taxID)
			if err != nil {
				return fmt.Errorf("failed to list accounts: %w", err)
			}

			cacheAccounts(client, taxID, accounts)

			return renderList(cmd, accounts,
				[]string{"HASH", "BANK", "BRANCH", "NUMBER", "KIND", "CREATED"},
				func(account api.Account) []string {
					return []string{
						account.Hash,
						account.BankCode,
						account.Branch,
						account.Number,
						account.Kind,
						formatTimestampShort(account.CreatedAt),
					}
				},
				"No accounts found.")
		}),
	}

	return cmd
}

func newAccountsGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "get <payer> <account>",
		Aliases: []string{"g"},
		Short:   "Get one bank account",
		Long: `Get one bank account of a payer.

The account may be given as the full hash, a unique hash prefix, or a fuzzy
match on its "bank branch number" label.`,
		Example: `  # Get account by full hash
  ex accounts get 12345678000195 a1b2c3d4e5f6

  # Get account by hash prefix
  ex accounts get 12345678000195 a1b2

  # Get account by label
  ex accounts get "Acme" "341 0001"`,
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

			hash, err := resolveAccountHash(ctx, client, taxID, args[1])
			if err != nil {
				return err
			}

			account, err := client.Accounts().Get(ctx, taxID, hash)
			if err != nil {
				return fmt.Errorf("failed to get account %s: %w", hash, err)
			}

			if isJSON(cmd) {
				return printJSON(cmd, account)
			}
			return printAccountDetails(cmd.OutOrStdout(), account)
		}),
	}

	return cmd
}

func newAccountsCreateCmd() *cobra.Command {
	var (
		bankCode string
		branch   string
		number   string
		kind     string
	)

	cmd := &cobra.Command{
		Use:     "create <payer>",
		Aliases: []string{"mk"},
		Short:   "Attach a bank account to a payer",
		Long: `Attach a new bank account to a payer.

The service answers with the stored account, including the hash that
identifies it from then on.`,
		Example: `  # Attach a checking account
  ex accounts create 12345678000195 --bank 341 --branch 0001 --number 12345-6

  # Attach a savings account
  ex accounts create 12345678000195 --bank 104 --branch 0931 --number 7013-2 --kind savings

  # Preview without calling the API
  ex accounts create 12345678000195 --bank 341 --number 12345-6 --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if bankCode == "" {
				return fmt.Errorf("--bank is required")
			}
			if number == "" {
				return fmt.Errorf("--number is required")
			}
			if kind != "" {
				normalized, err := validateAccountKind(kind)
				if err != nil {
					return err
				}
				kind = normalized
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			taxID, err := resolvePayerTaxID(client, args[0])
			if err != nil {
				return err
			}

			params := api.AccountParams{
				BankCode: bankCode,
				Branch:   branch,
				Number:   number,
				Kind:     kind,
			}

			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation:   "create",
				Resource:    "account",
				Description: fmt.Sprintf("for payer %s", validation.FormatTaxID(taxID)),
				Details:     accountDetails(params),
			}); ok {
				return err
			}

			account, err := client.Accounts().Create(cmdContext(cmd), taxID, params)
			if err != nil {
				return fmt.Errorf("failed to create account: %w", err)
			}

			if isJSON(cmd) {
				return printJSON(cmd, account)
			}

			printAction(cmd, "Created", "account", account.Hash, accountLabel(*account))
			return nil
		}),
	}

	cmd.Flags().StringVar(&bankCode, "bank", "", "Bank code (required)")
	cmd.Flags().StringVar(&branch, "branch", "", "Branch code")
	cmd.Flags().StringVar(&number, "number", "", "Account number (required)")
	cmd.Flags().StringVar(&kind, "kind", "", "Account kind: checking|savings")
	registerStaticCompletions(cmd, "kind", []string{"checking", "savings"})
	flagAlias(cmd.Flags(), "bank", "bk")
	flagAlias(cmd.Flags(), "branch", "br")
	flagAlias(cmd.Flags(), "number", "num")
	flagAlias(cmd.Flags(), "kind", "kd")

	return cmd
}

func newAccountsUpdateCmd() *cobra.Command {
	var (
		bankCode string
		branch   string
		number   string
		kind     string
	)

	cmd := &cobra.Command{
		Use:     "update <payer> <account>",
		Aliases: []string{"up"},
		Short:   "Update a bank account",
		Long: `Update a bank account identified by its hash.

Only the supplied fields are sent; the hash itself never changes.`,
		Example: `  # Move an account to another branch
  ex accounts update 12345678000195 a1b2c3d4e5f6 --branch 0002

  # Reclassify an account
  ex accounts update "Acme" a1b2 --kind savings`,
		Args: cobra.ExactArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if bankCode == "" && branch == "" && number == "" && kind == "" {
				return fmt.Errorf("at least one of --bank, --branch, --number, or --kind must be provided")
			}
			if kind != "" {
				normalized, err := validateAccountKind(kind)
				if err != nil {
					return err
				}
				kind = normalized
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

			hash, err := resolveAccountHash(ctx, client, taxID, args[1])
			if err != nil {
				return err
			}

			params := api.AccountParams{
				BankCode: bankCode,
				Branch:   branch,
				Number:   number,
				Kind:     kind,
			}

			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation:   "update",
				Resource:    "account",
				Description: hash,
				Details:     accountDetails(params),
			}); ok {
				return err
			}

			account, err := client.Accounts().Update(ctx, taxID, hash, params)
			if err != nil {
				return fmt.Errorf("failed to update account %s: %w", hash, err)
			}

			if isJSON(cmd) {
				return printJSON(cmd, account)
			}

			printAction(cmd, "Updated", "account", account.Hash, accountLabel(*account))
			return nil
		}),
	}

	cmd.Flags().StringVar(&bankCode, "bank", "", "Bank code")
	cmd.Flags().StringVar(&branch, "branch", "", "Branch code")
	cmd.Flags().StringVar(&number, "number", "", "Account number")
	cmd.Flags().StringVar(&kind, "kind", "", "Account kind: checking|savings")
	registerStaticCompletions(cmd, "kind", []string{"checking", "savings"})
	flagAlias(cmd.Flags(), "bank", "bk")
	flagAlias(cmd.Flags(), "branch", "br")
	flagAlias(cmd.Flags(), "number", "num")
	flagAlias(cmd.Flags(), "kind", "kd")

	return cmd
}

// accountDetails builds the dry-run detail map from the set account fields.
func accountDetails(params api.AccountParams) map[string]interface{} {
	details := map[string]interface{}{}
	if params.BankCode != "" {
		details["bank"] = params.BankCode
	}
	if params.Branch != "" {
		details["branch"] = params.Branch
	}
	if params.Number != "" {
		details["number"] = params.Number
	}
	if params.Kind != "" {
		details["kind"] = params.Kind
	}
	return details
}
