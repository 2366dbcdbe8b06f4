package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/extrata/extrata-cli/internal/api"
	"github.com/extrata/extrata-cli/internal/config"
	"github.com/extrata/extrata-cli/internal/validation"
)

type clientFactory struct {
	timeout   time.Duration
	userAgent string
}

func newClientFactory() *clientFactory {
	return &clientFactory{
		timeout:   flags.Timeout,
		userAgent: fmt.Sprintf("extrata-cli/%s", version),
	}
}

func (f *clientFactory) client() (*api.Client, error) {
	settings, err := config.ResolveClientSettings(config.Overrides{
		Profile:         flags.Profile,
		CredentialID:    flags.CredentialID,
		CredentialToken: flags.CredentialToken,
		Environment:     flags.Environment,
		BaseURL:         flags.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	opts := []api.Option{api.WithUserAgent(f.userAgent)}
	if settings.BaseURL != "" {
		// A custom endpoint only enters the client after the SSRF checks.
		// EXTRATA_TESTING=1 bypasses them so tests can point at local
		// servers, matching the api package's escape hatch.
		if os.Getenv("EXTRATA_TESTING") != "1" {
			if err := validation.ValidateBaseURL(settings.BaseURL); err != nil {
				return nil, fmt.Errorf("invalid base URL: %w", err)
			}
		}
		opts = append(opts, api.WithBaseURL(settings.BaseURL))
	}
	if flags.Debug {
		opts = append(opts, api.WithDebugMode(true))
	}

	client := api.New(settings.CredentialID, settings.CredentialToken, settings.Staging, opts...)
	if f.timeout > 0 {
		client.HTTP.Timeout = f.timeout
	}
	return client, nil
}
