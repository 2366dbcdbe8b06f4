package cmd

import (
	"fmt"

	"github.com/extrata/extrata-cli/internal/api"
	"github.com/extrata/extrata-cli/internal/dryrun"
	"github.com/extrata/extrata-cli/internal/validation"
	"github.com/spf13/cobra"
)

func newPayersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "payers",
		Aliases: []string{"payer", "py"},
		Short:   "Manage payers",
		Long:    "Look up, register, and update payers identified by CPF or CNPJ.",
	}

	cmd.AddCommand(newPayersGetCmd())
	cmd.AddCommand(newPayersCreateCmd())
	cmd.AddCommand(newPayersUpdateCmd())

	return cmd
}

func newPayersGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "get <tax-id|name>",
		Aliases: []string{"g"},
		Short:   "Get payer by tax ID or cached name",
		Long: `Get a payer by CPF/CNPJ tax ID.

Punctuated tax IDs are accepted (123.456.789-09). A name works too once the
payer has been seen by this CLI; names resolve against the local payer cache.`,
		Example: `  # Get payer by CPF
  ex payers get 123.456.789-09

  # Get payer by CNPJ, digits only
  ex payers get 12345678000195

  # Get payer by cached name
  ex payers get "Acme Ltda"

  # JSON output
  ex payers get 12345678000195 --output json`,
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

			payer, err := client.Payers().Get(cmdContext(cmd), taxID)
			if err != nil {
				return fmt.Errorf("failed to get payer %s: %w", validation.FormatTaxID(taxID), err)
			}

			rememberPayer(client, payer)

			if isJSON(cmd) {
				return printJSON(cmd, payer)
			}
			return printPayerDetails(cmd.OutOrStdout(), payer)
		}),
	}

	return cmd
}

func newPayersCreateCmd() *cobra.Command {
	var (
		taxID string
		name  string
		email string
		phone string
	)
	address := addressFlags{}

	cmd := &cobra.Command{
		Use:     "create",
		Aliases: []string{"mk"},
		Short:   "Register a new payer",
		Long: `Register a new payer with the service.

The tax ID and name are required; everything else is optional registration
data the service stores as-is.`,
		Example: `  # Register a company
  ex payers create --tax-id 12.345.678/0001-95 --name "Acme Ltda" --email billing@acme.com.br

  # Register a person with an address
  ex payers create --tax-id 123.456.789-09 --name "Maria Silva" \
    --street "Av. Paulista" --number 1000 --city "São Paulo" --state SP

  # Preview without calling the API
  ex payers create --tax-id 12345678000195 --name "Acme Ltda" --dry-run`,
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if taxID == "" {
				return fmt.Errorf("--tax-id is required")
			}
			if err := validation.ValidateTaxID(taxID); err != nil {
				return err
			}
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			if err := validation.ValidateName(name); err != nil {
				return err
			}
			if err := validation.ValidateEmailFormat(email); err != nil {
				return err
			}
			if err := validation.ValidatePhoneFormat(phone); err != nil {
				return err
			}

			params := api.PayerParams{
				TaxID:   validation.TaxIDDigits(taxID),
				Name:    name,
				Email:   email,
				Phone:   phone,
				Address: address.toAddress(),
			}

			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation:   "create",
				Resource:    "payer",
				Description: name,
				Details:     payerDetails(params),
			}); ok {
				return err
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			payer, err := client.Payers().Create(cmdContext(cmd), params)
			if err != nil {
				return fmt.Errorf("failed to create payer: %w", err)
			}

			rememberPayer(client, payer)

			if isJSON(cmd) {
				return printJSON(cmd, payer)
			}

			printAction(cmd, "Created", "payer", validation.FormatTaxID(payer.TaxID), payer.Name)
			return nil
		}),
	}

	cmd.Flags().StringVar(&taxID, "tax-id", "", "Payer tax ID, CPF or CNPJ (required)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Payer legal name (required)")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Contact email address")
	cmd.Flags().StringVar(&phone, "phone", "", "Contact phone number")
	address.register(cmd)
	flagAlias(cmd.Flags(), "tax-id", "tid")
	flagAlias(cmd.Flags(), "phone", "ph")

	return cmd
}

func newPayersUpdateCmd() *cobra.Command {
	var (
		name  string
		email string
		phone string
	)
	address := addressFlags{}

	cmd := &cobra.Command{
		Use:     "update <tax-id|name>",
		Aliases: []string{"up"},
		Short:   "Update payer registration data",
		Long: `Update the registration data of an existing payer.

Only the supplied fields are sent; everything else stays untouched on the
service side.`,
		Example: `  # Rename a payer
  ex payers update 12345678000195 --name "Acme Holding Ltda"

  # Update contact data by cached name
  ex payers update "Acme" --email financeiro@acme.com.br --phone "+55 11 98765-4321"`,
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if name == "" && email == "" && phone == "" && !address.changed(cmd) {
				return fmt.Errorf("at least one of --name, --email, --phone, or an address flag must be provided")
			}

			if err := validation.ValidateName(name); err != nil {
				return err
			}
			if err := validation.ValidateEmailFormat(email); err != nil {
				return err
			}
			if err := validation.ValidatePhoneFormat(phone); err != nil {
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

			params := api.PayerParams{
				TaxID:   taxID,
				Name:    name,
				Email:   email,
				Phone:   phone,
				Address: address.toAddress(),
			}

			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation:   "update",
				Resource:    "payer",
				Description: validation.FormatTaxID(taxID),
				Details:     payerDetails(params),
			}); ok {
				return err
			}

			payer, err := client.Payers().Update(cmdContext(cmd), params)
			if err != nil {
				return fmt.Errorf("failed to update payer %s: %w", validation.FormatTaxID(taxID), err)
			}

			rememberPayer(client, payer)

			if isJSON(cmd) {
				return printJSON(cmd, payer)
			}

			printAction(cmd, "Updated", "payer", validation.FormatTaxID(payer.TaxID), payer.Name)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Payer legal name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Contact email address")
	cmd.Flags().StringVar(&phone, "phone", "", "Contact phone number")
	address.register(cmd)
	flagAlias(cmd.Flags(), "phone", "ph")

	return cmd
}

// addressFlags groups the payer address flags shared by create and update.
type addressFlags struct {
	Street     string
	Number     string
	District   string
	City       string
	State      string
	PostalCode string
}

func (a *addressFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&a.Street, "street", "", "Address street")
	cmd.Flags().StringVar(&a.Number, "number", "", "Address number")
	cmd.Flags().StringVar(&a.District, "district", "", "Address district")
	cmd.Flags().StringVar(&a.City, "city", "", "Address city")
	cmd.Flags().StringVar(&a.State, "state", "", "Address state (two-letter code)")
	cmd.Flags().StringVar(&a.PostalCode, "postal-code", "", "Address postal code (CEP)")
	flagAlias(cmd.Flags(), "postal-code", "cep")
}

func (a *addressFlags) changed(cmd *cobra.Command) bool {
	return anyFlagChanged(cmd, "street", "number", "district", "city", "state", "postal-code")
}

func (a *addressFlags) toAddress() *api.Address {
	if a.Street == "" && a.Number == "" && a.District == "" && a.City == "" && a.State == "" && a.PostalCode == "" {
		return nil
	}
	return &api.Address{
		Street:     a.Street,
		Number:     a.Number,
		District:   a.District,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
	}
}

// payerDetails builds the dry-run detail map from the set payer fields.
func payerDetails(params api.PayerParams) map[string]interface{} {
	details := map[string]interface{}{
		"tax_id": validation.FormatTaxID(params.TaxID),
	}
	if params.Name != "" {
		details["name"] = params.Name
	}
	if params.Email != "" {
		details["email"] = params.Email
	}
	if params.Phone != "" {
		details["phone"] = params.Phone
	}
	if params.Address != nil {
		details["address"] = formatAddress(params.Address)
	}
	return details
}
