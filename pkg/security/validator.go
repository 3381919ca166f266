package security

import (
	"errors"
	"unicode"
)

const (
	// MaxEmailLength is the longest address accepted as a login key
	MaxEmailLength = 254

	// MaxPasswordBytes is the bcrypt input limit; longer input would be
	// silently truncated by most implementations.
	MaxPasswordBytes = 72
)

var (
	ErrEmailTooLong      = errors.New("email too long")
	ErrEmailInvalidChars = errors.New("email contains invalid characters")
	ErrPasswordTooLong   = errors.New("password too long")
)

// ValidateEmail checks that an email is usable as a login key. Format is
// not enforced; anything without control characters is accepted.
func ValidateEmail(email string) error {
	if len(email) > MaxEmailLength {
		return ErrEmailTooLong
	}

	for _, char := range email {
		if !isValidEmailChar(char) {
			return ErrEmailInvalidChars
		}
	}

	return nil
}

// ValidatePassword checks that a password fits the hasher's input limit
func ValidatePassword(password string) error {
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// isValidEmailChar rejects control characters, which covers CR/LF log
// and header injection
func isValidEmailChar(char rune) bool {
	return !unicode.IsControl(char)
}
