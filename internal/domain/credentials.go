package domain

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var ErrValidation = errors.New("validation error")

// ValidationError carries the user-facing message for a rejected input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

const (
	// MinPasswordLength counts characters, not bytes.
	MinPasswordLength = 8
	// bcrypt ignores everything past 72 bytes and newer x/crypto refuses it.
	MaxPasswordBytes = 72
	PasswordSymbols  = "!@#$%^&*"
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func ValidateEmail(email string) error {
	if !emailRe.MatchString(email) {
		return NewValidationError("email", "Invalid email format")
	}
	return nil
}

func ValidatePassword(password string) error {
	const msg = "Password must be at least 8 characters long and contain at least one number, one uppercase letter, and one special character"

	if utf8.RuneCountInString(password) < MinPasswordLength {
		return NewValidationError("password", msg)
	}
	if len(password) > MaxPasswordBytes {
		return NewValidationError("password", "Password must be at most 72 bytes long")
	}

	var upper, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		}
	}
	if !upper || !digit || !symbol {
		return NewValidationError("password", msg)
	}
	return nil
}

// Required returns a validation error with msg when any value is blank.
func Required(msg string, values ...string) error {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return NewValidationError("", msg)
		}
	}
	return nil
}
