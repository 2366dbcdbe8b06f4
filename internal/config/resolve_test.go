package config

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/99designs/keyring"
)

func TestResolveClientSettings_FromEnv(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv(envCredentialID, "env-id")
	t.Setenv(envCredentialToken, "env-token")
	t.Setenv(envEnvironment, "staging")

	settings, err := ResolveClientSettings(Overrides{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.CredentialID != "env-id" {
		t.Fatalf("CredentialID = %q, want %q", settings.CredentialID, "env-id")
	}
	if settings.CredentialToken != "env-token" {
		t.Fatalf("CredentialToken = %q, want %q", settings.CredentialToken, "env-token")
	}
	if !settings.Staging {
		t.Fatal("Staging = false, want true")
	}
}

func TestResolveClientSettings_FromProfile(t *testing.T) {
	clearCredentialEnv(t)
	ring := testKeyring(t, nil)
	creds := Credentials{CredentialID: "work-id", CredentialToken: "work-token", Environment: EnvStaging}
	data, _ := json.Marshal(creds)
	_ = ring.Set(keyring.Item{Key: profilePrefix + "work", Data: data})
	withMockKeyring(t, ring)

	settings, err := ResolveClientSettings(Overrides{Profile: "work"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.CredentialID != "work-id" {
		t.Fatalf("CredentialID = %q, want %q", settings.CredentialID, "work-id")
	}
	if !settings.Staging {
		t.Fatal("Staging = false, want true")
	}
}

func TestResolveClientSettings_FlagsBeatStoredValues(t *testing.T) {
	clearCredentialEnv(t)
	ring := testKeyring(t, nil)
	creds := Credentials{CredentialID: "stored-id", CredentialToken: "stored-token", Environment: EnvProduction}
	data, _ := json.Marshal(creds)
	_ = ring.Set(keyring.Item{Key: credentialsKey, Data: data})
	withMockKeyring(t, ring)

	settings, err := ResolveClientSettings(Overrides{
		CredentialID: "flag-id",
		Environment:  "staging",
		BaseURL:      "https://gateway.example.com/",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.CredentialID != "flag-id" {
		t.Fatalf("CredentialID = %q, want %q", settings.CredentialID, "flag-id")
	}
	if settings.CredentialToken != "stored-token" {
		t.Fatalf("CredentialToken = %q, want %q", settings.CredentialToken, "stored-token")
	}
	if !settings.Staging {
		t.Fatal("Staging = false, want true")
	}
	if settings.BaseURL != "https://gateway.example.com" {
		t.Fatalf("BaseURL = %q, want trailing slash stripped", settings.BaseURL)
	}
}

func TestResolveClientSettings_OverridesAloneSuffice(t *testing.T) {
	clearCredentialEnv(t)
	withMockKeyring(t, testKeyring(t, nil))

	settings, err := ResolveClientSettings(Overrides{
		CredentialID:    "only-id",
		CredentialToken: "only-token",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.CredentialID != "only-id" || settings.CredentialToken != "only-token" {
		t.Fatalf("settings = %+v, want override values", settings)
	}
	if settings.Staging {
		t.Fatal("Staging = true, want false by default")
	}
}

func TestResolveClientSettings_NotConfigured(t *testing.T) {
	clearCredentialEnv(t)
	withMockKeyring(t, testKeyring(t, nil))

	_, err := ResolveClientSettings(Overrides{})
	if err == nil {
		t.Fatal("expected error when nothing is configured")
	}
}

func TestResolveClientSettings_MissingToken(t *testing.T) {
	clearCredentialEnv(t)
	ring := testKeyring(t, nil)
	creds := Credentials{CredentialID: "stored-id"}
	data, _ := json.Marshal(creds)
	_ = ring.Set(keyring.Item{Key: credentialsKey, Data: data})
	withMockKeyring(t, ring)

	_, err := ResolveClientSettings(Overrides{})
	if err == nil {
		t.Fatal("expected error for missing token")
	}
	if !strings.Contains(err.Error(), "credential token not configured") {
		t.Fatalf("error = %q, want token guidance", err.Error())
	}
}

func TestResolveClientSettings_InvalidEnvironmentFlag(t *testing.T) {
	clearCredentialEnv(t)
	withMockKeyring(t, testKeyring(t, nil))

	_, err := ResolveClientSettings(Overrides{
		CredentialID:    "id",
		CredentialToken: "token",
		Environment:     "qa",
	})
	if err == nil {
		t.Fatal("expected error for invalid environment")
	}
}
