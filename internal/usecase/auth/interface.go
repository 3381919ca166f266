package auth

import "context"

// Service is the authentication API the transports depend on.
// *Usecase implements it.
type Service interface {
	Register(ctx context.Context, in RegisterRequest) (*RegisterResponse, error)
	Login(ctx context.Context, in LoginRequest) (*LoginResponse, error)
	VerifyToken(ctx context.Context, token string) (*Principal, error)
	Logout(ctx context.Context, p *Principal) error
	CurrentUser(ctx context.Context, userID int64) (*CurrentUserResponse, error)
}

var _ Service = (*Usecase)(nil)
