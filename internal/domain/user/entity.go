package user

import (
	"errors"
	"time"
)

// User represents a registered account.
type User struct {
	ID           int64     // ID is the system-assigned, immutable identifier
	Email        string    // Email is the unique login key
	PasswordHash string    // PasswordHash is the bcrypt digest; never logged or returned
	CreatedAt    time.Time // CreatedAt is when the account was registered
}

// Store-level outcomes the usecase needs to tell apart.
var (
	// ErrDuplicateEmail is returned when an insert violates email uniqueness.
	ErrDuplicateEmail = errors.New("email already exists")
	// ErrNotFound is returned when no user matches a lookup by id.
	ErrNotFound = errors.New("user not found")
)
