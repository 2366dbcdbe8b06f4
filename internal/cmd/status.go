package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/extrata/extrata-cli/internal/config"
)

// StatusInfo holds configuration and authentication status information
type StatusInfo struct {
	Authenticated   bool   `json:"authenticated"`
	Environment     string `json:"environment,omitempty"`
	BaseURL         string `json:"base_url,omitempty"`
	CredentialID    string `json:"credential_id,omitempty"`
	TokenPreview    string `json:"token_preview,omitempty"`
	Profile         string `json:"profile,omitempty"`
	CLIVersion      string `json:"cli_version"`
	GoVersion       string `json:"go_version"`
	Platform        string `json:"platform"`
	ConfigSource    string `json:"config_source,omitempty"`
	ServerReachable *bool  `json:"server_reachable,omitempty"`
}

// getConfigSource determines where credentials are loaded from
func getConfigSource() string {
	if os.Getenv("EXTRATA_CREDENTIAL_ID") != "" &&
		os.Getenv("EXTRATA_CREDENTIAL_TOKEN") != "" {
		return "environment"
	}
	if os.Getenv("EXTRATA_PROFILE") != "" {
		return "environment (profile)"
	}
	return "keychain"
}

// collectStatus gathers everything the status command reports. The ping
// probe only runs when credentials resolved, so --ping never forces a
// login prompt.
func collectStatus(cmd *cobra.Command, ping bool) StatusInfo {
	info := StatusInfo{
		CLIVersion: version,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}

	var creds config.Credentials
	var err error
	if flags.Profile != "" {
		creds, err = config.LoadProfile(flags.Profile)
	} else {
		creds, err = config.LoadCredentials()
	}
	if err != nil {
		return info
	}

	info.Authenticated = true
	info.Environment = environmentName(creds)
	info.BaseURL = creds.BaseURL
	info.CredentialID = creds.CredentialID
	info.TokenPreview = maskToken(creds.CredentialToken)
	info.ConfigSource = getConfigSource()

	// Profile names only apply to keychain-sourced credentials.
	if info.ConfigSource == "keychain" {
		if flags.Profile != "" {
			info.Profile = flags.Profile
		} else if profile, err := config.CurrentProfile(); err == nil {
			info.Profile = profile
		}
	}

	if ping {
		if client, err := getClient(); err == nil {
			ok, _ := client.HealthCheck(cmdContext(cmd))
			info.ServerReachable = &ok
		}
	}
	return info
}

// writeStatusText renders the human-readable status block.
func writeStatusText(w io.Writer, info StatusInfo) {
	_, _ = fmt.Fprintln(w, "CLI STATUS")
	_, _ = fmt.Fprintln(w, strings.Repeat("-", 40))

	if info.Authenticated {
		_, _ = fmt.Fprintf(w, "Authenticated:\tyes\n")
		_, _ = fmt.Fprintf(w, "Environment:\t%s\n", info.Environment)
		if info.BaseURL != "" {
			_, _ = fmt.Fprintf(w, "Base URL:\t%s\n", info.BaseURL)
		}
		_, _ = fmt.Fprintf(w, "Credential ID:\t%s\n", info.CredentialID)
		_, _ = fmt.Fprintf(w, "Token:\t%s\n", info.TokenPreview)
		_, _ = fmt.Fprintf(w, "Config Source:\t%s\n", info.ConfigSource)
		if info.Profile != "" {
			_, _ = fmt.Fprintf(w, "Profile:\t%s\n", info.Profile)
		}
		if info.ServerReachable != nil {
			state := "unreachable"
			if *info.ServerReachable {
				state = "reachable"
			}
			_, _ = fmt.Fprintf(w, "Server:\t%s\n", state)
		}
	} else {
		_, _ = fmt.Fprintf(w, "Authenticated:\tno\n")
		_, _ = fmt.Fprintf(w, "Hint:\tRun 'ex auth login' to authenticate\n")
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "CLI Version:\t%s\n", info.CLIVersion)
	_, _ = fmt.Fprintf(w, "Go Version:\t%s\n", info.GoVersion)
	_, _ = fmt.Fprintf(w, "Platform:\t%s\n", info.Platform)
}

func newStatusCmd() *cobra.Command {
	var checkOnly bool
	var ping bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show current configuration and authentication status",
		Long: `Display the current CLI configuration including authentication status,
target environment, credential ID, and other useful information.

This command is useful for scripts to verify configuration before making
API calls.`,
		Example: `  # Show current status
  ex status

  # Show status as JSON
  ex status --output json

  # Check if authenticated (exits with code 1 if not)
  ex status --check

  # Also check that the API answers
  ex status --ping`,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			info := collectStatus(cmd, ping)

			if checkOnly {
				if !info.Authenticated {
					return fmt.Errorf("not authenticated - run 'ex auth login' first")
				}
				if isJSON(cmd) {
					return printJSON(cmd, info)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "authenticated")
				return nil
			}

			if isJSON(cmd) {
				return printJSON(cmd, info)
			}

			w := newTabWriterFromCmd(cmd)
			defer func() { _ = w.Flush() }()
			writeStatusText(w, info)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&checkOnly, "check", false, "Exit with code 1 if not authenticated")
	flagAlias(cmd.Flags(), "check", "ck")
	cmd.Flags().BoolVar(&ping, "ping", false, "Check if the Extrata API is reachable")
	flagAlias(cmd.Flags(), "ping", "pg")

	return cmd
}
