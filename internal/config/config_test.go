package config

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/99designs/keyring"
)

// testKeyring creates a mock keyring for testing
func testKeyring(t *testing.T, initial []keyring.Item) *keyring.ArrayKeyring {
	t.Helper()
	return keyring.NewArrayKeyring(initial)
}

// withMockKeyring sets up a mock keyring for the duration of a test
func withMockKeyring(t *testing.T, ring keyring.Keyring) {
	t.Helper()
	original := openKeyring
	openKeyring = func(cfg keyring.Config) (keyring.Keyring, error) {
		return ring, nil
	}
	t.Cleanup(func() { openKeyring = original })
}

// withFailingKeyring sets up a keyring that always fails to open
func withFailingKeyring(t *testing.T, err error) {
	t.Helper()
	original := openKeyring
	openKeyring = func(cfg keyring.Config) (keyring.Keyring, error) {
		return nil, err
	}
	t.Cleanup(func() { openKeyring = original })
}

// clearCredentialEnv blanks the override variables so tests exercise the
// keyring path even when the host shell has credentials exported.
func clearCredentialEnv(t *testing.T) {
	t.Helper()
	t.Setenv(envCredentialID, "")
	t.Setenv(envCredentialToken, "")
	t.Setenv(envProfile, "")
}

func TestProfileKey(t *testing.T) {
	tests := []struct {
		name     string
		profile  string
		expected string
	}{
		{
			name:     "empty profile defaults to credentialsKey",
			profile:  "",
			expected: credentialsKey,
		},
		{
			name:     "default profile uses credentialsKey",
			profile:  "default",
			expected: credentialsKey,
		},
		{
			name:     "named profile uses prefix",
			profile:  "work",
			expected: profilePrefix + "work",
		},
		{
			name:     "another named profile",
			profile:  "sandbox",
			expected: profilePrefix + "sandbox",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := profileKey(tt.profile)
			if result != tt.expected {
				t.Errorf("profileKey(%q) = %q, want %q", tt.profile, result, tt.expected)
			}
		})
	}
}

func TestNormalizeProfiles(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "empty list",
			input:    []string{},
			expected: nil,
		},
		{
			name:     "single profile",
			input:    []string{"default"},
			expected: []string{"default"},
		},
		{
			name:     "multiple unique profiles",
			input:    []string{"default", "work", "sandbox"},
			expected: []string{"default", "work", "sandbox"},
		},
		{
			name:     "duplicates removed",
			input:    []string{"default", "work", "default", "sandbox", "work"},
			expected: []string{"default", "work", "sandbox"},
		},
		{
			name:     "whitespace trimmed",
			input:    []string{" default ", "  work  ", "sandbox"},
			expected: []string{"default", "work", "sandbox"},
		},
		{
			name:     "empty strings removed",
			input:    []string{"default", "", "work", "  ", "sandbox"},
			expected: []string{"default", "work", "sandbox"},
		},
		{
			name:     "all empty strings",
			input:    []string{"", "  ", "   "},
			expected: nil,
		},
		{
			name:     "preserves order with duplicates",
			input:    []string{"a", "b", "a", "c", "b", "d"},
			expected: []string{"a", "b", "c", "d"},
		},
		{
			name:     "nil input",
			input:    nil,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := normalizeProfiles(tt.input)
			if len(result) != len(tt.expected) {
				t.Errorf("normalizeProfiles(%v) = %v, want %v", tt.input, result, tt.expected)
				return
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("normalizeProfiles(%v)[%d] = %q, want %q", tt.input, i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestNormalizeEnvironment(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    string
		expectError bool
	}{
		{name: "empty means production", input: "", expected: EnvProduction},
		{name: "production", input: "production", expected: EnvProduction},
		{name: "prod alias", input: "prod", expected: EnvProduction},
		{name: "staging", input: "staging", expected: EnvStaging},
		{name: "sandbox alias", input: "sandbox", expected: EnvStaging},
		{name: "case insensitive", input: "STAGING", expected: EnvStaging},
		{name: "whitespace trimmed", input: "  production  ", expected: EnvProduction},
		{name: "unknown value rejected", input: "qa", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := normalizeEnvironment(tt.input)
			if tt.expectError {
				if err == nil {
					t.Fatalf("normalizeEnvironment(%q) expected error, got %q", tt.input, result)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalizeEnvironment(%q) unexpected error: %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("normalizeEnvironment(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestCredentialsStaging(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
		want  bool
	}{
		{name: "empty environment is production", creds: Credentials{}, want: false},
		{name: "production", creds: Credentials{Environment: "production"}, want: false},
		{name: "staging", creds: Credentials{Environment: "staging"}, want: true},
		{name: "staging case insensitive", creds: Credentials{Environment: "Staging"}, want: true},
		{name: "staging with whitespace", creds: Credentials{Environment: " staging "}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.creds.Staging(); got != tt.want {
				t.Errorf("Staging() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadProfileIndex(t *testing.T) {
	tests := []struct {
		name        string
		items       []keyring.Item
		expected    []string
		expectError bool
	}{
		{
			name:        "no index exists",
			items:       []keyring.Item{},
			expected:    []string{},
			expectError: false,
		},
		{
			name: "valid index with profiles",
			items: []keyring.Item{
				{
					Key:  profileIndexKey,
					Data: []byte(`["default","work","sandbox"]`),
				},
			},
			expected:    []string{"default", "work", "sandbox"},
			expectError: false,
		},
		{
			name: "empty index",
			items: []keyring.Item{
				{
					Key:  profileIndexKey,
					Data: []byte(`[]`),
				},
			},
			expected:    []string{},
			expectError: false,
		},
		{
			name: "invalid JSON",
			items: []keyring.Item{
				{
					Key:  profileIndexKey,
					Data: []byte(`not valid json`),
				},
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ring := testKeyring(t, tt.items)
			result, err := loadProfileIndex(ring)

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}

			if len(result) != len(tt.expected) {
				t.Errorf("loadProfileIndex() = %v, want %v", result, tt.expected)
				return
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("loadProfileIndex()[%d] = %q, want %q", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestSaveProfileIndex(t *testing.T) {
	tests := []struct {
		name     string
		profiles []string
	}{
		{
			name:     "empty list",
			profiles: []string{},
		},
		{
			name:     "single profile",
			profiles: []string{"default"},
		},
		{
			name:     "multiple profiles",
			profiles: []string{"default", "work", "sandbox"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ring := testKeyring(t, nil)

			err := saveProfileIndex(ring, tt.profiles)
			if err != nil {
				t.Fatalf("saveProfileIndex() error = %v", err)
			}

			// Verify it was saved correctly
			item, err := ring.Get(profileIndexKey)
			if err != nil {
				t.Fatalf("Failed to get saved index: %v", err)
			}

			var saved []string
			if err := json.Unmarshal(item.Data, &saved); err != nil {
				t.Fatalf("Failed to unmarshal saved index: %v", err)
			}

			if len(saved) != len(tt.profiles) {
				t.Errorf("Saved profiles = %v, want %v", saved, tt.profiles)
				return
			}
			for i := range saved {
				if saved[i] != tt.profiles[i] {
					t.Errorf("Saved profiles[%d] = %q, want %q", i, saved[i], tt.profiles[i])
				}
			}
		})
	}
}

func TestLoadCredentialsFromEnv(t *testing.T) {
	tests := []struct {
		name        string
		envVars     map[string]string
		expected    Credentials
		expectError bool
		errorMsg    string
	}{
		{
			name: "id and token set",
			envVars: map[string]string{
				envCredentialID:    "cred-id-123",
				envCredentialToken: "cred-token-456",
			},
			expected: Credentials{
				CredentialID:    "cred-id-123",
				CredentialToken: "cred-token-456",
				Environment:     EnvProduction,
			},
			expectError: false,
		},
		{
			name: "staging environment",
			envVars: map[string]string{
				envCredentialID:    "cred-id",
				envCredentialToken: "cred-token",
				envEnvironment:     "staging",
			},
			expected: Credentials{
				CredentialID:    "cred-id",
				CredentialToken: "cred-token",
				Environment:     EnvStaging,
			},
			expectError: false,
		},
		{
			name: "base URL override with trailing slash stripped",
			envVars: map[string]string{
				envCredentialID:    "cred-id",
				envCredentialToken: "cred-token",
				envBaseURL:         "https://gateway.internal.example.com/api/v1/",
			},
			expected: Credentials{
				CredentialID:    "cred-id",
				CredentialToken: "cred-token",
				Environment:     EnvProduction,
				BaseURL:         "https://gateway.internal.example.com/api/v1",
			},
			expectError: false,
		},
		{
			name: "missing token",
			envVars: map[string]string{
				envCredentialID:    "cred-id",
				envCredentialToken: "",
			},
			expectError: true,
			errorMsg:    "environment variables EXTRATA_CREDENTIAL_ID and EXTRATA_CREDENTIAL_TOKEN must both be set",
		},
		{
			name: "invalid environment",
			envVars: map[string]string{
				envCredentialID:    "cred-id",
				envCredentialToken: "cred-token",
				envEnvironment:     "qa",
			},
			expectError: true,
		},
		{
			name: "whitespace handling",
			envVars: map[string]string{
				envCredentialID:    "  cred-id  ",
				envCredentialToken: "  cred-token  ",
				envEnvironment:     "  staging  ",
			},
			expected: Credentials{
				CredentialID:    "cred-id",
				CredentialToken: "cred-token",
				Environment:     EnvStaging,
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearCredentialEnv(t)
			t.Setenv(envEnvironment, "")
			t.Setenv(envBaseURL, "")
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			result, err := LoadCredentials()

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got nil")
					return
				}
				if tt.errorMsg != "" && err.Error() != tt.errorMsg {
					t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
				}
				return
			}

			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}

			if result != tt.expected {
				t.Errorf("LoadCredentials() = %+v, want %+v", result, tt.expected)
			}
		})
	}
}

func TestCredentialsSerialization(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
	}{
		{
			name: "basic credentials",
			creds: Credentials{
				CredentialID:    "cred-id",
				CredentialToken: "cred-token",
				Environment:     EnvProduction,
			},
		},
		{
			name: "staging with base URL override",
			creds: Credentials{
				CredentialID:    "cred-id",
				CredentialToken: "cred-token",
				Environment:     EnvStaging,
				BaseURL:         "https://gateway.example.com",
			},
		},
		{
			name: "empty environment",
			creds: Credentials{
				CredentialID:    "cred-id",
				CredentialToken: "cred-token",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.creds)
			if err != nil {
				t.Fatalf("Marshal error: %v", err)
			}

			var result Credentials
			if err := json.Unmarshal(data, &result); err != nil {
				t.Fatalf("Unmarshal error: %v", err)
			}

			if result != tt.creds {
				t.Errorf("round trip = %+v, want %+v", result, tt.creds)
			}
		})
	}
}

func TestCredentialsJSONOmitEmpty(t *testing.T) {
	creds := Credentials{
		CredentialID:    "cred-id",
		CredentialToken: "cred-token",
		// Environment and BaseURL intentionally empty
	}

	data, err := json.Marshal(creds)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	if _, exists := m["environment"]; exists {
		t.Error("environment should be omitted when empty")
	}
	if _, exists := m["base_url"]; exists {
		t.Error("base_url should be omitted when empty")
	}
}

func TestErrNotConfigured(t *testing.T) {
	expectedMsg := "extrata not configured - run 'ex auth login' first"
	if ErrNotConfigured.Error() != expectedMsg {
		t.Errorf("ErrNotConfigured.Error() = %q, want %q", ErrNotConfigured.Error(), expectedMsg)
	}
}

func TestKeyringConfig(t *testing.T) {
	t.Setenv(envKeyringBackend, "")
	t.Setenv(envKeyringBackendLegacy, "")
	t.Setenv(envCredentialsDir, "")
	t.Setenv(envCredentialsDirLegacy, "")

	cfg := keyringConfig()
	if cfg.ServiceName != serviceName {
		t.Errorf("ServiceName = %q, want %q", cfg.ServiceName, serviceName)
	}
	if cfg.FileDir == "" {
		t.Error("FileDir should be configured in auto backend mode")
	}
	if cfg.FilePasswordFunc == nil {
		t.Error("FilePasswordFunc should be configured in auto backend mode")
	}
}

func TestKeyringConfig_FileBackendOverride(t *testing.T) {
	t.Setenv(envKeyringBackend, "file")
	t.Setenv(envKeyringBackendLegacy, "")
	t.Setenv(envCredentialsDirLegacy, "")

	base := t.TempDir()
	t.Setenv(envCredentialsDir, base)

	cfg := keyringConfig()
	if len(cfg.AllowedBackends) != 1 || cfg.AllowedBackends[0] != keyring.FileBackend {
		t.Fatalf("AllowedBackends = %v, want [%s]", cfg.AllowedBackends, keyring.FileBackend)
	}
	expectedDir := filepath.Join(base, "keyring")
	if cfg.FileDir != expectedDir {
		t.Fatalf("FileDir = %q, want %q", cfg.FileDir, expectedDir)
	}
	if cfg.FilePasswordFunc == nil {
		t.Fatal("FilePasswordFunc is nil; expected configured password function")
	}
}

func TestKeyringConfig_SystemBackendOverride(t *testing.T) {
	t.Setenv(envKeyringBackend, "system")

	cfg := keyringConfig()
	if cfg.FileDir != "" {
		t.Fatalf("FileDir = %q, want empty for system backend", cfg.FileDir)
	}
	if cfg.FilePasswordFunc != nil {
		t.Fatal("FilePasswordFunc should be nil for system backend")
	}
	if len(cfg.AllowedBackends) != 0 {
		t.Fatalf("AllowedBackends = %v, want nil/empty for system backend", cfg.AllowedBackends)
	}
}

func TestShouldForceFileBackend(t *testing.T) {
	tests := []struct {
		name     string
		goos     string
		backend  string
		dbusAddr string
		want     bool
	}{
		{
			name:     "explicit file backend always forces file",
			goos:     "darwin",
			backend:  keyringBackendFile,
			dbusAddr: "ignored",
			want:     true,
		},
		{
			name:     "auto backend on headless linux forces file",
			goos:     "linux",
			backend:  keyringBackendAuto,
			dbusAddr: "",
			want:     true,
		},
		{
			name:     "auto backend on linux desktop does not force file",
			goos:     "linux",
			backend:  keyringBackendAuto,
			dbusAddr: "unix:path=/run/user/1000/bus",
			want:     false,
		},
		{
			name:     "system backend never forces file",
			goos:     "linux",
			backend:  keyringBackendSystem,
			dbusAddr: "",
			want:     false,
		},
		{
			name:     "auto backend on non-linux does not force file",
			goos:     "windows",
			backend:  keyringBackendAuto,
			dbusAddr: "",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shouldForceFileBackend(tt.goos, tt.backend, tt.dbusAddr)
			if got != tt.want {
				t.Fatalf("shouldForceFileBackend(%q, %q, %q) = %v, want %v", tt.goos, tt.backend, tt.dbusAddr, got, tt.want)
			}
		})
	}
}

func TestKeyringBackendMode(t *testing.T) {
	tests := []struct {
		name     string
		primary  string
		legacy   string
		wantMode string
	}{
		{
			name:     "default auto",
			primary:  "",
			legacy:   "",
			wantMode: keyringBackendAuto,
		},
		{
			name:     "primary file backend",
			primary:  "file",
			legacy:   "",
			wantMode: keyringBackendFile,
		},
		{
			name:     "primary system backend",
			primary:  "system",
			legacy:   "",
			wantMode: keyringBackendSystem,
		},
		{
			name:     "legacy fallback",
			primary:  "",
			legacy:   "file",
			wantMode: keyringBackendFile,
		},
		{
			name:     "unknown value falls back to auto",
			primary:  "weird",
			legacy:   "",
			wantMode: keyringBackendAuto,
		},
		{
			name:     "native alias maps to system",
			primary:  "native",
			legacy:   "",
			wantMode: keyringBackendSystem,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(envKeyringBackend, tt.primary)
			t.Setenv(envKeyringBackendLegacy, tt.legacy)
			got := keyringBackendMode()
			if got != tt.wantMode {
				t.Fatalf("keyringBackendMode() = %q, want %q", got, tt.wantMode)
			}
		})
	}
}

func TestKeyringFileDir(t *testing.T) {
	t.Setenv(envCredentialsDirLegacy, "")
	base := t.TempDir()
	t.Setenv(envCredentialsDir, base)

	got := keyringFileDir()
	want := filepath.Join(base, "keyring")
	if got != want {
		t.Fatalf("keyringFileDir() = %q, want %q", got, want)
	}
}

func TestKeyringFileDir_DefaultsToUserConfigDir(t *testing.T) {
	t.Setenv(envCredentialsDir, "")
	t.Setenv(envCredentialsDirLegacy, "")

	fakeConfigDir := t.TempDir()
	original := userConfigDir
	userConfigDir = func() (string, error) { return fakeConfigDir, nil }
	t.Cleanup(func() { userConfigDir = original })

	got := keyringFileDir()
	want := filepath.Join(fakeConfigDir, serviceName, "keyring")
	if got != want {
		t.Fatalf("keyringFileDir() = %q, want %q", got, want)
	}
}

func TestKeyringFilePassword_FromEnv(t *testing.T) {
	t.Setenv(envKeyringPassword, "env-pass")
	t.Setenv(envKeyringPasswordLegacy, "")

	password, err := keyringFilePassword("prompt")
	if err != nil {
		t.Fatalf("keyringFilePassword() unexpected error: %v", err)
	}
	if password != "env-pass" {
		t.Fatalf("keyringFilePassword() = %q, want %q", password, "env-pass")
	}
}

func TestKeyringFilePassword_NonInteractiveError(t *testing.T) {
	t.Setenv(envKeyringPassword, "")
	t.Setenv(envKeyringPasswordLegacy, "")

	original := stdinHasTTY
	stdinHasTTY = func() bool { return false }
	t.Cleanup(func() { stdinHasTTY = original })

	_, err := keyringFilePassword("prompt")
	if err == nil {
		t.Fatal("expected error for missing keyring password in non-interactive mode")
	}
	if !strings.Contains(err.Error(), envKeyringPassword) {
		t.Fatalf("error = %q, want to mention %s", err.Error(), envKeyringPassword)
	}
}

func TestConstants(t *testing.T) {
	// Verify constants have expected values
	if serviceName != "extrata-cli" {
		t.Errorf("serviceName = %q, want %q", serviceName, "extrata-cli")
	}
	if credentialsKey != "default" {
		t.Errorf("credentialsKey = %q, want %q", credentialsKey, "default")
	}
	if defaultProfile != "default" {
		t.Errorf("defaultProfile = %q, want %q", defaultProfile, "default")
	}
	if profilePrefix != "profile:" {
		t.Errorf("profilePrefix = %q, want %q", profilePrefix, "profile:")
	}
	if profileIndexKey != "profiles_index" {
		t.Errorf("profileIndexKey = %q, want %q", profileIndexKey, "profiles_index")
	}
	if currentProfileKey != "current_profile" {
		t.Errorf("currentProfileKey = %q, want %q", currentProfileKey, "current_profile")
	}
}

func TestSaveProfile(t *testing.T) {
	tests := []struct {
		name        string
		profile     string
		creds       Credentials
		expectError bool
	}{
		{
			name:    "save default profile with empty name",
			profile: "",
			creds: Credentials{
				CredentialID:    "cred-id",
				CredentialToken: "cred-token",
			},
			expectError: false,
		},
		{
			name:    "save default profile explicitly",
			profile: "default",
			creds: Credentials{
				CredentialID:    "cred-id",
				CredentialToken: "cred-token",
			},
			expectError: false,
		},
		{
			name:    "save named profile",
			profile: "work",
			creds: Credentials{
				CredentialID:    "work-id",
				CredentialToken: "work-token",
				Environment:     "staging",
			},
			expectError: false,
		},
		{
			name:    "save profile with base URL override",
			profile: "gateway",
			creds: Credentials{
				CredentialID:    "gw-id",
				CredentialToken: "gw-token",
				BaseURL:         "https://gateway.example.com/api/v1",
			},
			expectError: false,
		},
		{
			name:    "invalid environment rejected",
			profile: "bad",
			creds: Credentials{
				CredentialID:    "id",
				CredentialToken: "token",
				Environment:     "qa",
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ring := testKeyring(t, nil)
			withMockKeyring(t, ring)

			err := SaveProfile(tt.profile, tt.creds)

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			profile := tt.profile
			if profile == "" {
				profile = defaultProfile
			}

			item, err := ring.Get(profileKey(profile))
			if err != nil {
				t.Fatalf("Failed to get saved profile: %v", err)
			}

			var saved Credentials
			if err := json.Unmarshal(item.Data, &saved); err != nil {
				t.Fatalf("Failed to unmarshal saved credentials: %v", err)
			}

			if saved.CredentialID != tt.creds.CredentialID {
				t.Errorf("Saved CredentialID = %q, want %q", saved.CredentialID, tt.creds.CredentialID)
			}
			if saved.CredentialToken != tt.creds.CredentialToken {
				t.Errorf("Saved CredentialToken = %q, want %q", saved.CredentialToken, tt.creds.CredentialToken)
			}
			if saved.BaseURL != tt.creds.BaseURL {
				t.Errorf("Saved BaseURL = %q, want %q", saved.BaseURL, tt.creds.BaseURL)
			}
		})
	}
}

func TestSaveProfileNormalizesEnvironment(t *testing.T) {
	ring := testKeyring(t, nil)
	withMockKeyring(t, ring)

	err := SaveProfile("aliased", Credentials{
		CredentialID:    "id",
		CredentialToken: "token",
		Environment:     "Prod",
	})
	if err != nil {
		t.Fatalf("SaveProfile error: %v", err)
	}

	saved, err := LoadProfile("aliased")
	if err != nil {
		t.Fatalf("LoadProfile error: %v", err)
	}
	if saved.Environment != EnvProduction {
		t.Errorf("Environment = %q, want %q", saved.Environment, EnvProduction)
	}
}

func TestSaveProfileKeyringError(t *testing.T) {
	withFailingKeyring(t, errors.New("keyring unavailable"))

	err := SaveProfile("test", Credentials{CredentialID: "id", CredentialToken: "token"})
	if err == nil {
		t.Error("Expected error but got nil")
	}
}

func TestLoadProfile(t *testing.T) {
	tests := []struct {
		name        string
		profile     string
		setup       func(*keyring.ArrayKeyring)
		expected    Credentials
		expectError bool
	}{
		{
			name:    "load existing default profile",
			profile: "",
			setup: func(ring *keyring.ArrayKeyring) {
				creds := Credentials{CredentialID: "id", CredentialToken: "token", Environment: EnvProduction}
				data, _ := json.Marshal(creds)
				_ = ring.Set(keyring.Item{Key: credentialsKey, Data: data})
			},
			expected:    Credentials{CredentialID: "id", CredentialToken: "token", Environment: EnvProduction},
			expectError: false,
		},
		{
			name:    "load existing named profile",
			profile: "work",
			setup: func(ring *keyring.ArrayKeyring) {
				creds := Credentials{CredentialID: "work-id", CredentialToken: "work-token", Environment: EnvStaging}
				data, _ := json.Marshal(creds)
				_ = ring.Set(keyring.Item{Key: profilePrefix + "work", Data: data})
			},
			expected:    Credentials{CredentialID: "work-id", CredentialToken: "work-token", Environment: EnvStaging},
			expectError: false,
		},
		{
			name:        "load non-existent profile",
			profile:     "nonexistent",
			setup:       func(ring *keyring.ArrayKeyring) {},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ring := testKeyring(t, nil)
			tt.setup(ring)
			withMockKeyring(t, ring)

			result, err := LoadProfile(tt.profile)

			if tt.expectError {
				if err == nil {
					t.Error("Expected error but got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if result != tt.expected {
				t.Errorf("LoadProfile() = %+v, want %+v", result, tt.expected)
			}
		})
	}
}

func TestLoadProfileNotConfigured(t *testing.T) {
	ring := testKeyring(t, nil)
	withMockKeyring(t, ring)

	_, err := LoadProfile("missing")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestLoadProfileInvalidJSON(t *testing.T) {
	ring := testKeyring(t, nil)
	_ = ring.Set(keyring.Item{Key: credentialsKey, Data: []byte("not valid json")})
	withMockKeyring(t, ring)

	_, err := LoadProfile("")
	if err == nil {
		t.Error("Expected error but got nil")
	}
}

func TestLoadProfileKeyringError(t *testing.T) {
	withFailingKeyring(t, errors.New("keyring unavailable"))

	_, err := LoadProfile("test")
	if err == nil {
		t.Error("Expected error but got nil")
	}
}

func TestDeleteProfile(t *testing.T) {
	tests := []struct {
		name    string
		profile string
		setup   func(*keyring.ArrayKeyring)
	}{
		{
			name:    "delete existing default profile",
			profile: "",
			setup: func(ring *keyring.ArrayKeyring) {
				creds := Credentials{CredentialID: "id", CredentialToken: "token"}
				data, _ := json.Marshal(creds)
				_ = ring.Set(keyring.Item{Key: credentialsKey, Data: data})
				_ = saveProfileIndex(ring, []string{"default"})
			},
		},
		{
			name:    "delete existing named profile",
			profile: "work",
			setup: func(ring *keyring.ArrayKeyring) {
				creds := Credentials{CredentialID: "work-id", CredentialToken: "work-token"}
				data, _ := json.Marshal(creds)
				_ = ring.Set(keyring.Item{Key: profilePrefix + "work", Data: data})
				_ = saveProfileIndex(ring, []string{"default", "work"})
			},
		},
		{
			name:    "delete non-existent profile",
			profile: "nonexistent",
			setup:   func(ring *keyring.ArrayKeyring) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ring := testKeyring(t, nil)
			tt.setup(ring)
			withMockKeyring(t, ring)

			err := DeleteProfile(tt.profile)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			profile := tt.profile
			if profile == "" {
				profile = defaultProfile
			}

			_, err = ring.Get(profileKey(profile))
			// Profile should be gone (either deleted or never existed)
			if err == nil {
				t.Error("Expected profile to be deleted")
			}
		})
	}
}

func TestDeleteProfileKeyringError(t *testing.T) {
	withFailingKeyring(t, errors.New("keyring unavailable"))

	err := DeleteProfile("test")
	if err == nil {
		t.Error("Expected error but got nil")
	}
}

func TestDeleteProfileSwitchesCurrentProfile(t *testing.T) {
	ring := testKeyring(t, nil)

	defaultCreds := Credentials{CredentialID: "default-id", CredentialToken: "default-token"}
	workCreds := Credentials{CredentialID: "work-id", CredentialToken: "work-token"}

	defaultData, _ := json.Marshal(defaultCreds)
	workData, _ := json.Marshal(workCreds)

	_ = ring.Set(keyring.Item{Key: credentialsKey, Data: defaultData})
	_ = ring.Set(keyring.Item{Key: profilePrefix + "work", Data: workData})
	_ = saveProfileIndex(ring, []string{"default", "work"})
	_ = ring.Set(keyring.Item{Key: currentProfileKey, Data: []byte("work")})

	withMockKeyring(t, ring)

	err := DeleteProfile("work")
	if err != nil {
		t.Fatalf("DeleteProfile error: %v", err)
	}

	item, err := ring.Get(currentProfileKey)
	if err != nil {
		t.Fatalf("Failed to get current profile: %v", err)
	}
	if string(item.Data) != "default" {
		t.Errorf("Current profile = %q, want %q", string(item.Data), "default")
	}
}

func TestListProfiles(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*keyring.ArrayKeyring)
		expected []string
	}{
		{
			name: "list profiles from index",
			setup: func(ring *keyring.ArrayKeyring) {
				_ = saveProfileIndex(ring, []string{"default", "work", "sandbox"})
			},
			expected: []string{"default", "work", "sandbox"},
		},
		{
			name: "empty index but default credentials exist",
			setup: func(ring *keyring.ArrayKeyring) {
				creds := Credentials{CredentialID: "id", CredentialToken: "token"}
				data, _ := json.Marshal(creds)
				_ = ring.Set(keyring.Item{Key: credentialsKey, Data: data})
			},
			expected: []string{"default"},
		},
		{
			name:     "no profiles",
			setup:    func(ring *keyring.ArrayKeyring) {},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ring := testKeyring(t, nil)
			tt.setup(ring)
			withMockKeyring(t, ring)

			result, err := ListProfiles()
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if len(result) != len(tt.expected) {
				t.Errorf("ListProfiles() = %v, want %v", result, tt.expected)
				return
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("ListProfiles()[%d] = %q, want %q", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestListProfilesKeyringError(t *testing.T) {
	withFailingKeyring(t, errors.New("keyring unavailable"))

	_, err := ListProfiles()
	if err == nil {
		t.Error("Expected error but got nil")
	}
}

func TestCurrentProfile(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*keyring.ArrayKeyring)
		expected string
	}{
		{
			name: "current profile is set",
			setup: func(ring *keyring.ArrayKeyring) {
				_ = ring.Set(keyring.Item{Key: currentProfileKey, Data: []byte("work")})
			},
			expected: "work",
		},
		{
			name:     "no current profile set returns default",
			setup:    func(ring *keyring.ArrayKeyring) {},
			expected: "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ring := testKeyring(t, nil)
			tt.setup(ring)
			withMockKeyring(t, ring)

			result, err := CurrentProfile()
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if result != tt.expected {
				t.Errorf("CurrentProfile() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestCurrentProfileKeyringError(t *testing.T) {
	withFailingKeyring(t, errors.New("keyring unavailable"))

	_, err := CurrentProfile()
	if err == nil {
		t.Error("Expected error but got nil")
	}
}

func TestSetCurrentProfile(t *testing.T) {
	tests := []struct {
		name     string
		profile  string
		expected string
	}{
		{
			name:     "set empty profile defaults to default",
			profile:  "",
			expected: "default",
		},
		{
			name:     "set named profile",
			profile:  "work",
			expected: "work",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ring := testKeyring(t, nil)
			withMockKeyring(t, ring)

			err := SetCurrentProfile(tt.profile)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			item, err := ring.Get(currentProfileKey)
			if err != nil {
				t.Fatalf("Failed to get current profile: %v", err)
			}

			if string(item.Data) != tt.expected {
				t.Errorf("Current profile = %q, want %q", string(item.Data), tt.expected)
			}
		})
	}
}

func TestSetCurrentProfileKeyringError(t *testing.T) {
	withFailingKeyring(t, errors.New("keyring unavailable"))

	err := SetCurrentProfile("test")
	if err == nil {
		t.Error("Expected error but got nil")
	}
}

func TestSaveCredentials(t *testing.T) {
	ring := testKeyring(t, nil)
	withMockKeyring(t, ring)

	creds := Credentials{CredentialID: "id", CredentialToken: "token"}
	err := SaveCredentials(creds)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Verify saved under default key
	item, err := ring.Get(credentialsKey)
	if err != nil {
		t.Fatalf("Failed to get saved credentials: %v", err)
	}

	var saved Credentials
	if err := json.Unmarshal(item.Data, &saved); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if saved.CredentialID != creds.CredentialID {
		t.Errorf("CredentialID = %q, want %q", saved.CredentialID, creds.CredentialID)
	}
}

func TestDeleteCredentials(t *testing.T) {
	ring := testKeyring(t, nil)

	creds := Credentials{CredentialID: "id", CredentialToken: "token"}
	data, _ := json.Marshal(creds)
	_ = ring.Set(keyring.Item{Key: credentialsKey, Data: data})
	_ = saveProfileIndex(ring, []string{"default"})

	withMockKeyring(t, ring)

	err := DeleteCredentials()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	_, err = ring.Get(credentialsKey)
	if !errors.Is(err, keyring.ErrKeyNotFound) {
		t.Error("Expected credentials to be deleted")
	}
}

func TestHasCredentialsWithEnvVars(t *testing.T) {
	t.Setenv(envCredentialID, "cred-id")
	t.Setenv(envCredentialToken, "cred-token")

	if !HasCredentials() {
		t.Error("HasCredentials() = false, want true when env vars are set")
	}
}

func TestHasCredentialsWithInvalidEnvVars(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv(envCredentialID, "cred-id")
	t.Setenv(envCredentialToken, "")

	if HasCredentials() {
		t.Error("HasCredentials() = true, want false when env vars are incomplete")
	}
}

func TestHasCredentialsWithKeyring(t *testing.T) {
	clearCredentialEnv(t)
	ring := testKeyring(t, nil)

	creds := Credentials{CredentialID: "id", CredentialToken: "token"}
	data, _ := json.Marshal(creds)
	_ = ring.Set(keyring.Item{Key: credentialsKey, Data: data})

	withMockKeyring(t, ring)

	if !HasCredentials() {
		t.Error("HasCredentials() = false, want true when credentials in keyring")
	}
}

func TestLoadCredentialsFromProfile(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv(envProfile, "work")

	ring := testKeyring(t, nil)

	creds := Credentials{CredentialID: "work-id", CredentialToken: "work-token", Environment: EnvStaging}
	data, _ := json.Marshal(creds)
	_ = ring.Set(keyring.Item{Key: profilePrefix + "work", Data: data})

	withMockKeyring(t, ring)

	result, err := LoadCredentials()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.CredentialID != creds.CredentialID {
		t.Errorf("CredentialID = %q, want %q", result.CredentialID, creds.CredentialID)
	}
}

func TestLoadCredentialsFromCurrentProfile(t *testing.T) {
	clearCredentialEnv(t)
	ring := testKeyring(t, nil)

	creds := Credentials{CredentialID: "sandbox-id", CredentialToken: "sandbox-token", Environment: EnvStaging}
	data, _ := json.Marshal(creds)
	_ = ring.Set(keyring.Item{Key: profilePrefix + "sandbox", Data: data})
	_ = ring.Set(keyring.Item{Key: currentProfileKey, Data: []byte("sandbox")})

	withMockKeyring(t, ring)

	result, err := LoadCredentials()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.CredentialID != creds.CredentialID {
		t.Errorf("CredentialID = %q, want %q", result.CredentialID, creds.CredentialID)
	}
}

func TestProfileKeyEdgeCases(t *testing.T) {
	tests := []struct {
		name     string
		profile  string
		expected string
	}{
		{
			name:     "profile with spaces",
			profile:  "my profile",
			expected: profilePrefix + "my profile",
		},
		{
			name:     "profile with special chars",
			profile:  "profile@work",
			expected: profilePrefix + "profile@work",
		},
		{
			name:     "profile with numbers",
			profile:  "profile123",
			expected: profilePrefix + "profile123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := profileKey(tt.profile)
			if result != tt.expected {
				t.Errorf("profileKey(%q) = %q, want %q", tt.profile, result, tt.expected)
			}
		})
	}
}

func TestSaveProfileUpdatesIndex(t *testing.T) {
	ring := testKeyring(t, nil)
	withMockKeyring(t, ring)

	err := SaveProfile("work", Credentials{CredentialID: "id1", CredentialToken: "token1"})
	if err != nil {
		t.Fatalf("SaveProfile error: %v", err)
	}

	err = SaveProfile("sandbox", Credentials{CredentialID: "id2", CredentialToken: "token2", Environment: "staging"})
	if err != nil {
		t.Fatalf("SaveProfile error: %v", err)
	}

	profiles, err := loadProfileIndex(ring)
	if err != nil {
		t.Fatalf("loadProfileIndex error: %v", err)
	}

	if len(profiles) != 2 {
		t.Errorf("Expected 2 profiles, got %d", len(profiles))
	}

	hasWork := false
	hasSandbox := false
	for _, p := range profiles {
		if p == "work" {
			hasWork = true
		}
		if p == "sandbox" {
			hasSandbox = true
		}
	}
	if !hasWork {
		t.Error("Missing 'work' profile in index")
	}
	if !hasSandbox {
		t.Error("Missing 'sandbox' profile in index")
	}
}

func TestDeleteProfileRemovesFromIndex(t *testing.T) {
	ring := testKeyring(t, nil)
	withMockKeyring(t, ring)

	_ = saveProfileIndex(ring, []string{"default", "work", "sandbox"})
	creds := Credentials{CredentialID: "work-id", CredentialToken: "work-token"}
	data, _ := json.Marshal(creds)
	_ = ring.Set(keyring.Item{Key: profilePrefix + "work", Data: data})

	err := DeleteProfile("work")
	if err != nil {
		t.Fatalf("DeleteProfile error: %v", err)
	}

	profiles, err := loadProfileIndex(ring)
	if err != nil {
		t.Fatalf("loadProfileIndex error: %v", err)
	}

	for _, p := range profiles {
		if p == "work" {
			t.Error("'work' profile should be removed from index")
		}
	}
}
