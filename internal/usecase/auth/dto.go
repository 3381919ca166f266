package auth

import "time"

// RegisterRequest represents the request payload for creating an account.
type RegisterRequest struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// RegisterResponse represents the response payload after registering.
type RegisterResponse struct {
	UserID int64
}

// LoginRequest represents the request payload for a credential check.
type LoginRequest struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// LoginResponse carries the signed session token and its expiry.
type LoginResponse struct {
	Token     string
	ExpiresAt time.Time
}

// Principal is the identity proven by a verified session token.
type Principal struct {
	UserID    int64
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// CurrentUserResponse represents the profile of the authenticated user.
type CurrentUserResponse struct {
	UserID    int64
	Email     string
	CreatedAt time.Time
}
