// Package validate holds the pure field rules shared by the create and
// update paths. Messages here are part of the API contract, so the rules are
// written out by hand instead of leaning on binding tags.
package validate

import (
	"strings"
	"unicode"
)

// Error is a user-facing validation failure. Handlers map it to HTTP 400 and
// return the message verbatim.
type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrNamePhoneRequired Error = "Name and phone required"
	ErrPhoneNotTenDigits Error = "Phone number must be exactly 10 digits"
)

// NormalizePhone strips every non-digit character and accepts only a result
// of exactly 10 ASCII digits.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder

	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()

	if len(digits) != 10 {
		return "", ErrPhoneNotTenDigits
	}

	return digits, nil
}

// RequireNonEmpty trims value and fails with a field-specific message when
// nothing is left.
func RequireNonEmpty(field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)

	if trimmed == "" {
		return "", Error(field + " is required")
	}

	return trimmed, nil
}

// RequireNamePhone is the create/update presence gate for the two mandatory
// contact fields.
func RequireNamePhone(name, phone string) error {
	if name == "" || phone == "" {
		return ErrNamePhoneRequired
	}

	return nil
}

// PasswordPolicy applies the registration rules in order; the first failing
// rule decides the message.
func PasswordPolicy(password string) error {
	if len(password) < 8 {
		return Error("Password must be at least 8 characters")
	}

	if !containsFunc(password, unicode.IsUpper) {
		return Error("Password must contain at least one uppercase letter")
	}

	if !containsFunc(password, unicode.IsLower) {
		return Error("Password must contain at least one lowercase letter")
	}

	if !containsFunc(password, unicode.IsDigit) {
		return Error("Password must contain at least one number")
	}

	return nil
}

func containsFunc(s string, fn func(rune) bool) bool {
	for _, r := range s {
		if fn(r) {
			return true
		}
	}

	return false
}
