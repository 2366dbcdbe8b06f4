package config

import (
	"fmt"
	"strings"
)

// ClientSettings contains resolved API client settings.
type ClientSettings struct {
	CredentialID    string
	CredentialToken string
	Staging         bool
	BaseURL         string
}

// Overrides carries command-line values that take precedence over stored
// profiles and environment variables.
type Overrides struct {
	Profile         string
	CredentialID    string
	CredentialToken string
	Environment     string
	BaseURL         string
}

// ResolveClientSettings resolves credentials in precedence order: explicit
// overrides, then environment variables, then the selected profile.
func ResolveClientSettings(ov Overrides) (ClientSettings, error) {
	var creds Credentials
	var err error

	if ov.Profile != "" {
		creds, err = LoadProfile(ov.Profile)
	} else {
		creds, err = LoadCredentials()
	}
	if err != nil {
		// Overrides alone can still form a complete configuration.
		if ov.CredentialID == "" || ov.CredentialToken == "" {
			return ClientSettings{}, err
		}
		creds = Credentials{}
	}

	if ov.CredentialID != "" {
		creds.CredentialID = ov.CredentialID
	}
	if ov.CredentialToken != "" {
		creds.CredentialToken = ov.CredentialToken
	}
	if ov.Environment != "" {
		env, err := normalizeEnvironment(ov.Environment)
		if err != nil {
			return ClientSettings{}, err
		}
		creds.Environment = env
	}
	if ov.BaseURL != "" {
		creds.BaseURL = strings.TrimSuffix(ov.BaseURL, "/")
	}

	if creds.CredentialID == "" {
		return ClientSettings{}, fmt.Errorf("credential ID not configured (set %s, use --credential-id, or run 'ex auth login')", envCredentialID)
	}
	if creds.CredentialToken == "" {
		return ClientSettings{}, fmt.Errorf("credential token not configured (set %s, use --credential-token, or run 'ex auth login')", envCredentialToken)
	}

	return ClientSettings{
		CredentialID:    creds.CredentialID,
		CredentialToken: creds.CredentialToken,
		Staging:         creds.Staging(),
		BaseURL:         creds.BaseURL,
	}, nil
}
