package validation

import (
	"fmt"
	"net/mail"
	"unicode"
	"unicode/utf8"
)

// Input length limits to prevent resource exhaustion
const (
	MaxNameLength         = 255
	MaxEmailLength        = 320     // RFC 5321: 64 chars (local) + 1 (@) + 255 (domain) = 320
	MaxPhoneLength        = 20      // International E.164 format
	MaxJSONPayload        = 1048576 // 1MB for JSON payloads
	MaxURLLength          = 2048    // Standard browser URL limit
	MaxCredentialIDLength = 128
)

// ValidateName validates a payer name length
func ValidateName(name string) error {
	if name == "" {
		return nil // Optional in update contexts
	}

	length := utf8.RuneCountInString(name)
	if length > MaxNameLength {
		return fmt.Errorf("name exceeds maximum length of %d characters (got %d)", MaxNameLength, length)
	}

	return nil
}

// ValidateEmailFormat validates the format of an email address.
// Returns nil for empty emails (optional field).
func ValidateEmailFormat(email string) error {
	if email == "" {
		return nil
	}
	if utf8.RuneCountInString(email) > MaxEmailLength {
		return fmt.Errorf("email exceeds maximum length of %d characters", MaxEmailLength)
	}
	_, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	return nil
}

// ValidatePhoneFormat validates phone number format (basic validation).
// Returns nil for empty phones (optional field).
// Allows digits, spaces, dashes, parentheses, and leading +.
func ValidatePhoneFormat(phone string) error {
	if phone == "" {
		return nil
	}
	if utf8.RuneCountInString(phone) > MaxPhoneLength {
		return fmt.Errorf("phone number exceeds maximum length of %d characters", MaxPhoneLength)
	}
	for i, r := range phone {
		if r == '+' && i == 0 {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		if r == ' ' || r == '-' || r == '(' || r == ')' {
			continue
		}
		return fmt.Errorf("invalid phone format: contains invalid character '%c'", r)
	}
	return nil
}

// ValidateCredentialID validates a credential identifier before it is
// stored or sent. Credential IDs are opaque service-issued strings; the
// only structural rule is no whitespace and a sane length.
func ValidateCredentialID(id string) error {
	if id == "" {
		return fmt.Errorf("credential ID cannot be empty")
	}
	if utf8.RuneCountInString(id) > MaxCredentialIDLength {
		return fmt.Errorf("credential ID exceeds maximum length of %d characters", MaxCredentialIDLength)
	}
	for _, r := range id {
		if unicode.IsSpace(r) {
			return fmt.Errorf("credential ID cannot contain whitespace")
		}
		if unicode.IsControl(r) {
			return fmt.Errorf("credential ID cannot contain control characters")
		}
	}
	return nil
}

// ValidateJSONPayload validates JSON payload size
func ValidateJSONPayload(payload string) error {
	if payload == "" {
		return fmt.Errorf("JSON payload cannot be empty")
	}

	length := len(payload)
	if length > MaxJSONPayload {
		return fmt.Errorf("JSON payload exceeds maximum size of %d bytes (got %d)", MaxJSONPayload, length)
	}

	return nil
}
