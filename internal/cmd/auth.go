package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/extrata/extrata-cli/internal/config"
	"github.com/extrata/extrata-cli/internal/validation"
	"github.com/spf13/cobra"
)

// newAuthCmd returns the auth command with subcommands
func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "auth",
		Aliases: []string{"au"},
		Short:   "Manage authentication credentials",
		Long:    "Configure and manage Extrata API credentials stored securely in your OS keychain.",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthLogoutCmd())

	return cmd
}

// newAuthLoginCmd creates the auth login command
func newAuthLoginCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save API credentials to the OS keychain",
		Long: strings.TrimSpace(`
Save Extrata API credentials securely to your OS keychain.

You'll need:
- Credential ID: issued when your integration is provisioned
- Credential Token: the secret paired with the credential ID

Optional:
- Environment: production (default) or staging
- Base URL: override the environment-derived endpoint (local gateways)
- Profile: save multiple credential sets and switch between them
`),
		Example: strings.TrimSpace(`
  # Login with flags
  ex auth login --credential-id COMPANY_A --credential-token SECRET

  # Target staging under a named profile
  ex auth login --credential-id COMPANY_A --credential-token SECRET --environment staging --profile staging

  # Load credentials from a .env file
  ex auth login --env-file .extrata.env
`),
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			credentialID := strings.TrimSpace(flags.CredentialID)
			token := strings.TrimSpace(flags.CredentialToken)
			environment := flags.Environment
			baseURL := flags.BaseURL
			profile := flags.Profile

			if envFile != "" {
				envVars, err := loadAuthEnvFile(envFile)
				if err != nil {
					return err
				}
				applyAuthEnvFileRuntimeVars(envVars)

				if credentialID == "" {
					credentialID = strings.TrimSpace(envVars["EXTRATA_CREDENTIAL_ID"])
				}
				if token == "" {
					token = strings.TrimSpace(envVars["EXTRATA_CREDENTIAL_TOKEN"])
				}
				if !flagOrAliasChanged(cmd, "environment") {
					if envEnv := strings.TrimSpace(envVars["EXTRATA_ENV"]); envEnv != "" {
						environment = envEnv
					}
				}
				if baseURL == "" {
					baseURL = strings.TrimSpace(envVars["EXTRATA_BASE_URL"])
				}
				if !flagOrAliasChanged(cmd, "profile") {
					if envProfile := strings.TrimSpace(envVars["EXTRATA_PROFILE"]); envProfile != "" {
						profile = envProfile
					}
				}
			}

			if credentialID == "" {
				return fmt.Errorf("--credential-id is required (or supply it via --env-file)")
			}
			if token == "" {
				return fmt.Errorf("--credential-token is required (or supply it via --env-file)")
			}

			if err := validation.ValidateCredentialID(credentialID); err != nil {
				return fmt.Errorf("invalid credential ID: %w", err)
			}

			if baseURL != "" {
				// Normalize URL (remove trailing slash)
				baseURL = strings.TrimSuffix(baseURL, "/")

				// Validate URL to prevent SSRF attacks
				if err := validation.ValidateBaseURL(baseURL); err != nil {
					return fmt.Errorf("invalid base URL: %w", err)
				}
			}

			creds := config.Credentials{
				CredentialID:    credentialID,
				CredentialToken: token,
				Environment:     environment,
				BaseURL:         baseURL,
			}

			if err := config.SaveProfile(profile, creds); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Authentication credentials saved successfully!")
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Credential ID: %s\n", credentialID)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Environment: %s\n", environmentName(creds))
			if baseURL != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Base URL: %s\n", baseURL)
			}
			if profile != "" && profile != "default" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Profile: %s\n", profile)
			}

			return nil
		}),
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Load EXTRATA_* (and optional EXTRATA_KEYRING_*) values from a .env file")
	flagAlias(cmd.Flags(), "env-file", "ef")

	return cmd
}

func loadAuthEnvFile(path string) (map[string]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("--env-file requires a file path")
	}

	envVars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read --env-file %q: %w", path, err)
	}

	return envVars, nil
}

// applyAuthEnvFileRuntimeVars copies keyring/runtime settings from --env-file
// into process environment when they are not already exported.
func applyAuthEnvFileRuntimeVars(envVars map[string]string) {
	keys := []string{
		"EXTRATA_KEYRING_BACKEND",
		"EXTRATA_KEYRING_PASSWORD",
		"EXTRATA_CREDENTIALS_DIR",
		"EX_KEYRING_BACKEND",
		"EX_KEYRING_PASSWORD",
		"EX_CREDENTIALS_DIR",
	}

	for _, key := range keys {
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		value := strings.TrimSpace(envVars[key])
		if value == "" {
			continue
		}
		_ = os.Setenv(key, value)
	}
}

// environmentName returns the canonical environment name for display.
func environmentName(creds config.Credentials) string {
	if creds.Staging() {
		return config.EnvStaging
	}
	return config.EnvProduction
}

// newAuthStatusCmd creates the auth status command
func newAuthStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show current authentication configuration",
		Long:  "Display the currently saved authentication configuration (credential token is masked for security).",
		Example: strings.TrimSpace(`
  # Check authentication status
  ex auth status

  # JSON output for scripting
  ex auth status --json
`),
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			envID := strings.TrimSpace(os.Getenv("EXTRATA_CREDENTIAL_ID"))
			envToken := strings.TrimSpace(os.Getenv("EXTRATA_CREDENTIAL_TOKEN"))
			usingEnv := envID != "" || envToken != ""

			var creds config.Credentials
			var err error
			if flags.Profile != "" {
				creds, err = config.LoadProfile(flags.Profile)
				usingEnv = false
			} else {
				creds, err = config.LoadCredentials()
			}
			if err != nil {
				if errors.Is(err, config.ErrNotConfigured) {
					if isJSON(cmd) {
						return printJSON(cmd, map[string]any{
							"authenticated": false,
							"message":       "Not authenticated. Run 'ex auth login' to configure credentials.",
						})
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Not authenticated.")
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Run 'ex auth login' to configure credentials.")
					return nil
				}
				return fmt.Errorf("failed to load credentials: %w", err)
			}

			profile := flags.Profile
			if profile == "" && !usingEnv {
				if current, err := config.CurrentProfile(); err == nil {
					profile = current
				}
			}

			if isJSON(cmd) {
				payload := map[string]any{
					"authenticated":    true,
					"credential_id":    creds.CredentialID,
					"credential_token": maskToken(creds.CredentialToken),
					"environment":      environmentName(creds),
					"source":           map[bool]string{true: "env", false: "keychain"}[usingEnv],
				}
				if creds.BaseURL != "" {
					payload["base_url"] = creds.BaseURL
				}
				if profile != "" {
					payload["profile"] = profile
				}
				return printJSON(cmd, payload)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Authenticated")
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Credential ID: %s\n", creds.CredentialID)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Credential Token: %s\n", maskToken(creds.CredentialToken))
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Environment: %s\n", environmentName(creds))
			if creds.BaseURL != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Base URL: %s\n", creds.BaseURL)
			}
			if profile != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Profile: %s\n", profile)
			}
			if usingEnv {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "  Source: env")
			}

			return nil
		}),
	}

	return cmd
}

// newAuthLogoutCmd creates the auth logout command
func newAuthLogoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove credentials from keychain",
		Long:  "Delete the stored authentication credentials from your OS keychain.",
		Example: strings.TrimSpace(`
  # Remove stored credentials
  ex auth logout

  # Remove a named profile
  ex auth logout --profile staging
`),
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			profile := flags.Profile
			if profile == "" {
				current, err := config.CurrentProfile()
				if err == nil {
					profile = current
				}
			}

			if profile == "" && !config.HasCredentials() {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No credentials found.")
				return nil
			}

			if err := config.DeleteProfile(profile); err != nil {
				return fmt.Errorf("failed to remove credentials: %w", err)
			}

			if profile == "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Credentials removed successfully.")
			} else {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Profile %s removed successfully.\n", profile)
			}
			return nil
		}),
	}

	return cmd
}

// maskToken masks a credential token for display, showing only first and last 4 characters
func maskToken(token string) string {
	if len(token) < 8 {
		return strings.Repeat("*", len(token)) // Match actual length
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}
