package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/extrata/extrata-cli/internal/api"
)

func TestNormalizeEnum(t *testing.T) {
	valid := []string{"checking", "savings"}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr string
	}{
		{name: "exact match", input: "checking", want: "checking"},
		{name: "case insensitive", input: "SAVINGS", want: "savings"},
		{name: "trims whitespace", input: "  checking  ", want: "checking"},
		{name: "unique prefix", input: "sav", want: "savings"},
		{name: "single letter prefix", input: "c", want: "checking"},
		{name: "no match", input: "current", wantErr: `invalid kind "current": must be one of checking, savings`},
		{name: "empty input", input: "", wantErr: `invalid kind "": must be one of checking, savings`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeEnum("kind", tt.input, valid)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("normalizeEnum(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeEnum_AmbiguousPrefix(t *testing.T) {
	_, err := normalizeEnum("mode", "s", []string{"start", "stop"})
	if err == nil || !strings.Contains(err.Error(), `ambiguous mode "s": matches start, stop`) {
		t.Errorf("error = %v", err)
	}
}

func TestValidateAccountKind(t *testing.T) {
	if got, err := validateAccountKind("sav"); err != nil || got != "savings" {
		t.Errorf("validateAccountKind(sav) = %q, %v", got, err)
	}
	if _, err := validateAccountKind("current"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestLoadAtValue(t *testing.T) {
	if got, err := loadAtValue("plain"); err != nil || got != "plain" {
		t.Errorf("loadAtValue(plain) = %q, %v", got, err)
	}

	file := filepath.Join(t.TempDir(), "value.txt")
	if err := os.WriteFile(file, []byte("from file\n"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if got, err := loadAtValue("@" + file); err != nil || got != "from file\n" {
		t.Errorf("loadAtValue(@file) = %q, %v", got, err)
	}

	if _, err := loadAtValue("@" + filepath.Join(t.TempDir(), "missing.txt")); err == nil || !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("error = %v", err)
	}

	if _, err := loadAtValue("@"); err == nil || !strings.Contains(err.Error(), "invalid @ value") {
		t.Errorf("error = %v", err)
	}
}

func TestParseStringListFlag(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr string
	}{
		{name: "comma separated", input: "a,b,c", want: []string{"a", "b", "c"}},
		{name: "whitespace separated", input: "a b\nc", want: []string{"a", "b", "c"}},
		{name: "mixed separators with blanks", input: "a, ,b", want: []string{"a", "b"}},
		{name: "json array", input: `["a","b"]`, want: []string{"a", "b"}},
		{name: "json integer array", input: `[1,2]`, want: []string{"1", "2"}},
		{name: "json float rejected", input: `[1.5]`, wantErr: "expected string or integer"},
		{name: "empty input", input: "", wantErr: "no values provided"},
		{name: "only separators", input: ", ,", wantErr: "no valid values provided"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStringListFlag(tt.input)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestParseStringListFlag_FromFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "list.txt")
	if err := os.WriteFile(file, []byte("one\ntwo three\n"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	got, err := ParseStringListFlag("@" + file)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"one", "two", "three"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}
}

func TestAccountLabel(t *testing.T) {
	account := api.Account{BankCode: "341", Branch: "0001", Number: "12345-6", Kind: "checking"}
	if got := accountLabel(account); got != "341 0001 12345-6 (checking)" {
		t.Errorf("accountLabel = %q", got)
	}

	account.Kind = ""
	if got := accountLabel(account); got != "341 0001 12345-6" {
		t.Errorf("accountLabel = %q", got)
	}
}

func TestFlagAliasBridgesChanged(t *testing.T) {
	cmd := &cobra.Command{Use: "x", Run: func(*cobra.Command, []string) {}}
	cmd.Flags().String("name", "", "")
	flagAlias(cmd.Flags(), "name", "nm")

	if err := cmd.Flags().Set("nm", "value"); err != nil {
		t.Fatalf("set alias: %v", err)
	}

	if !cmd.Flags().Changed("name") {
		t.Error("setting the alias should mark the canonical flag as changed")
	}
	got, err := cmd.Flags().GetString("name")
	if err != nil || got != "value" {
		t.Errorf("canonical flag = %q, %v", got, err)
	}
	if !anyFlagChanged(cmd, "name") {
		t.Error("anyFlagChanged should see the alias write")
	}
}

func TestLoadAtValueTrimsInput(t *testing.T) {
	if got, err := loadAtValue("  spaced  "); err != nil || got != "spaced" {
		t.Errorf("loadAtValue = %q, %v", got, err)
	}
}
