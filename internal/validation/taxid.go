package validation

import (
	"fmt"
	"strings"
)

// Tax ID digit counts: CPF identifies a person, CNPJ a company.
const (
	CPFLength  = 11
	CNPJLength = 14
)

// TaxIDDigits strips everything but digits from a CPF or CNPJ, so
// "123.456.789-09" and "12345678909" identify the same payer. The service
// matches on digits only.
func TaxIDDigits(taxID string) string {
	var b strings.Builder
	b.Grow(len(taxID))
	for _, r := range taxID {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateTaxID checks that a tax ID has a CPF or CNPJ digit count after
// stripping punctuation. Check-digit verification is left to the service.
func ValidateTaxID(taxID string) error {
	digits := TaxIDDigits(taxID)
	if digits == "" {
		return fmt.Errorf("tax ID cannot be empty")
	}
	if len(digits) != CPFLength && len(digits) != CNPJLength {
		return fmt.Errorf("tax ID must have %d (CPF) or %d (CNPJ) digits, got %d", CPFLength, CNPJLength, len(digits))
	}
	return nil
}

// FormatTaxID renders a normalized tax ID with its customary punctuation:
// 123.456.789-09 for CPF, 12.345.678/0001-95 for CNPJ. Inputs with other
// digit counts come back unchanged.
func FormatTaxID(taxID string) string {
	digits := TaxIDDigits(taxID)
	switch len(digits) {
	case CPFLength:
		return digits[0:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:11]
	case CNPJLength:
		return digits[0:2] + "." + digits[2:5] + "." + digits[5:8] + "/" + digits[8:12] + "-" + digits[12:14]
	}
	return taxID
}
