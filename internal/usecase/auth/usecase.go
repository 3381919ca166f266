package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "docbot-auth-service/internal/domain/user"
	apperrors "docbot-auth-service/pkg/errors"
	"docbot-auth-service/pkg/logger"
	"docbot-auth-service/pkg/security"
	"docbot-auth-service/pkg/token"
)

// Repository defines the user store operations the auth flow needs.
// GetByEmail returns (nil, nil) when no user matches.
type Repository interface {
	Create(ctx context.Context, u *domain.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	Issue(userID int64, email string) (string, *token.Claims, error)
	Verify(tokenString string) (*token.Claims, error)
}

// RevocationStore remembers token ids that were logged out before expiry.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Options holds the account policies that are configurable per deployment.
type Options struct {
	EmailPolicy domain.EmailPolicy
	// DuplicateEmailConflict reports duplicate registrations as a conflict.
	// When false they surface as a generic persistence failure.
	DuplicateEmailConflict bool
}

// dummyPassword is hashed once and compared against on unknown emails so
// both login failures cost one bcrypt comparison.
const dummyPassword = "docbot-auth-timing-equalizer"

// Usecase implements registration, login and token verification.
type Usecase struct {
	repo     Repository
	hasher   security.PasswordHasher
	tokens   TokenIssuer
	revoked  RevocationStore // nil disables revocation
	opts     Options
	log      *zap.Logger
	validate *validator.Validate

	dummyOnce   sync.Once
	dummyDigest string
}

// New creates a new auth Usecase. A nil revocation store makes tokens
// purely stateless.
func New(r Repository, h security.PasswordHasher, t TokenIssuer, rs RevocationStore, opts Options, log *zap.Logger) *Usecase {
	if opts.EmailPolicy == "" {
		opts.EmailPolicy = domain.EmailPolicyExact
	}
	return &Usecase{
		repo:     r,
		hasher:   h,
		tokens:   t,
		revoked:  rs,
		opts:     opts,
		log:      log,
		validate: validator.New(),
	}
}

// validateCredentials converts validator.ValidationErrors into the single
// client-facing "both fields required" error.
func (uc *Usecase) validateCredentials(in any) error {
	err := uc.validate.Struct(in)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		return apperrors.NewValidationError(validationErrors[0].Field(), apperrors.MsgCredentialsRequired)
	}
	return apperrors.NewValidationError("", apperrors.MsgCredentialsRequired)
}

// Register creates an account and returns its id.
func (uc *Usecase) Register(ctx context.Context, in RegisterRequest) (*RegisterResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	if err := uc.validateCredentials(in); err != nil {
		log.Warn("register validation failed", zap.Error(err))
		return nil, err
	}

	email := uc.opts.EmailPolicy.Normalize(in.Email)
	if email == "" {
		return nil, apperrors.NewValidationError("Email", apperrors.MsgCredentialsRequired)
	}
	if err := security.ValidateEmail(email); err != nil {
		log.Warn("register rejected email", zap.Error(err))
		if errors.Is(err, security.ErrEmailTooLong) {
			return nil, apperrors.NewValidationError("Email", "Email must be at most 254 characters")
		}
		return nil, apperrors.NewValidationError("Email", "Email contains invalid characters")
	}

	digest, err := uc.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			return nil, apperrors.NewValidationError("Password", apperrors.MsgPasswordTooLong)
		}
		log.Error("failed to hash password", zap.Error(err))
		return nil, apperrors.NewPersistenceError(apperrors.MsgRegisterFailed, err)
	}

	id, err := uc.repo.Create(ctx, &domain.User{
		Email:        email,
		PasswordHash: digest,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			log.Warn("register rejected", zap.String("reason", "duplicate_email"))
			if uc.opts.DuplicateEmailConflict {
				return nil, apperrors.NewDuplicateEmailError(email)
			}
		} else {
			log.Error("failed to create user", zap.Error(err))
		}
		return nil, apperrors.NewPersistenceError(apperrors.MsgRegisterFailed, err)
	}

	log.Info("user registered", zap.Int64("user_id", id))
	return &RegisterResponse{UserID: id}, nil
}

// Login checks credentials and issues a session token. Unknown emails and
// wrong passwords produce the same error; the reason is only logged.
func (uc *Usecase) Login(ctx context.Context, in LoginRequest) (*LoginResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	if err := uc.validateCredentials(in); err != nil {
		log.Warn("login validation failed", zap.Error(err))
		return nil, err
	}

	email := uc.opts.EmailPolicy.Normalize(in.Email)

	u, err := uc.repo.GetByEmail(ctx, email)
	if err != nil {
		log.Error("failed to look up user", zap.Error(err))
		return nil, apperrors.NewPersistenceError(apperrors.MsgLoginFailed, err)
	}

	if u == nil {
		uc.hasher.Verify(in.Password, uc.dummyHash())
		log.Warn("login rejected", zap.String("reason", "unknown_email"))
		return nil, apperrors.ErrInvalidCredentials
	}

	if !uc.hasher.Verify(in.Password, u.PasswordHash) {
		log.Warn("login rejected", zap.String("reason", "password_mismatch"), zap.Int64("user_id", u.ID))
		return nil, apperrors.ErrInvalidCredentials
	}

	signed, claims, err := uc.tokens.Issue(u.ID, u.Email)
	if err != nil {
		log.Error("failed to issue token", zap.Int64("user_id", u.ID), zap.Error(err))
		return nil, err
	}

	log.Info("login successful", zap.Int64("user_id", u.ID))
	return &LoginResponse{
		Token:     signed,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// VerifyToken checks signature, expiry and revocation and returns the
// identity carried by the token.
func (uc *Usecase) VerifyToken(ctx context.Context, tokenString string) (*Principal, error) {
	if tokenString == "" {
		return nil, apperrors.ErrMissingToken
	}

	claims, err := uc.tokens.Verify(tokenString)
	if err != nil {
		logger.WithContext(ctx, uc.log).Debug("token rejected", zap.Error(err))
		return nil, apperrors.NewUnauthorizedError(apperrors.MsgInvalidToken, err)
	}

	if uc.revoked != nil && claims.ID != "" {
		revoked, err := uc.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			// Fail closed: a token that cannot be checked is not trusted.
			logger.WithContext(ctx, uc.log).Error("failed to check token revocation", zap.Error(err))
			return nil, apperrors.NewUnauthorizedError(apperrors.MsgInvalidToken, err)
		}
		if revoked {
			return nil, apperrors.ErrInvalidToken
		}
	}

	p := &Principal{
		UserID:  claims.UserID,
		Email:   claims.Email,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

// Logout revokes the presented token until its natural expiry. Without a
// revocation store it only acknowledges the client-side discard.
func (uc *Usecase) Logout(ctx context.Context, p *Principal) error {
	if uc.revoked == nil || p == nil || p.TokenID == "" {
		return nil
	}

	if err := uc.revoked.Revoke(ctx, p.TokenID, p.ExpiresAt); err != nil {
		logger.WithContext(ctx, uc.log).Error("failed to revoke token", zap.Int64("user_id", p.UserID), zap.Error(err))
		return apperrors.NewPersistenceError("Error logging out", err)
	}
	return nil
}

// CurrentUser returns the profile of an authenticated user.
func (uc *Usecase) CurrentUser(ctx context.Context, userID int64) (*CurrentUserResponse, error) {
	u, err := uc.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("user", "User not found")
		}
		logger.WithContext(ctx, uc.log).Error("failed to get user", zap.Int64("user_id", userID), zap.Error(err))
		return nil, apperrors.NewPersistenceError("Error loading user", err)
	}

	return &CurrentUserResponse{
		UserID:    u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}, nil
}

func (uc *Usecase) dummyHash() string {
	uc.dummyOnce.Do(func() {
		digest, err := uc.hasher.Hash(dummyPassword)
		if err != nil {
			uc.log.Error("failed to prepare dummy digest", zap.Error(err))
			return
		}
		uc.dummyDigest = digest
	})
	return uc.dummyDigest
}
