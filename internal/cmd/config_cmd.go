package cmd

import (
	"fmt"

	"github.com/extrata/extrata-cli/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   "Manage CLI configuration",
	}

	cmd.AddCommand(newConfigProfilesCmd())

	return cmd
}

func newConfigProfilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage credential profiles",
	}

	cmd.AddCommand(newProfilesListCmd())
	cmd.AddCommand(newProfilesUseCmd())
	cmd.AddCommand(newProfilesShowCmd())
	cmd.AddCommand(newProfilesDeleteCmd())

	return cmd
}

func newProfilesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List configured profiles",
		Example: "ex config profiles list",
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			profiles, err := config.ListProfiles()
			if err != nil {
				return err
			}
			current, _ := config.CurrentProfile()

			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{
					"current":  current,
					"profiles": profiles,
				})
			}

			if len(profiles) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No profiles configured. Run 'ex auth login' to add one.")
				return nil
			}

			w := newTabWriterFromCmd(cmd)
			defer func() { _ = w.Flush() }()
			_, _ = fmt.Fprintln(w, "CURRENT\tPROFILE\tENVIRONMENT\tCREDENTIAL_ID")
			for _, profile := range profiles {
				marker := ""
				if profile == current {
					marker = "*"
				}
				environment := "-"
				credentialID := "-"
				if creds, err := config.LoadProfile(profile); err == nil {
					environment = environmentName(creds)
					if creds.CredentialID != "" {
						credentialID = creds.CredentialID
					}
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", marker, profile, environment, credentialID)
			}

			return nil
		}),
	}
}

func newProfilesUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "use <name>",
		Short:   "Switch active profile",
		Example: "ex config profiles use staging",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			name := args[0]
			creds, err := config.LoadProfile(name)
			if err != nil {
				return fmt.Errorf("profile %q not found: %w", name, err)
			}
			if err := config.SetCurrentProfile(name); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Current profile: %s (%s)\n", name, environmentName(creds))
			return nil
		}),
	}
}

func newProfilesShowCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:     "show",
		Short:   "Show profile details",
		Example: "ex config profiles show --name staging",
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			if name == "" {
				current, err := config.CurrentProfile()
				if err != nil {
					return err
				}
				name = current
			}

			creds, err := config.LoadProfile(name)
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				payload := map[string]any{
					"profile":          name,
					"credential_id":    creds.CredentialID,
					"credential_token": maskToken(creds.CredentialToken),
					"environment":      environmentName(creds),
				}
				if creds.BaseURL != "" {
					payload["base_url"] = creds.BaseURL
				}
				return printJSON(cmd, payload)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Profile: %s\n", name)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Credential ID: %s\n", creds.CredentialID)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Credential Token: %s\n", maskToken(creds.CredentialToken))
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Environment: %s\n", environmentName(creds))
			if creds.BaseURL != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Base URL: %s\n", creds.BaseURL)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "Profile name (defaults to current)")
	flagAlias(cmd.Flags(), "name", "nm")

	return cmd
}

func newProfilesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a profile",
		Example: "ex config profiles delete staging",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := config.DeleteProfile(name); err != nil {
				return err
			}
			printAction(cmd, "Deleted", "profile", name, "")
			return nil
		}),
	}
}
