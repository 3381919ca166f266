package middleware

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"docbot-auth-service/internal/usecase/auth"
	apperrors "docbot-auth-service/pkg/errors"
	"docbot-auth-service/pkg/logger"
)

// PrincipalKey is the gin context key holding the verified *auth.Principal
const PrincipalKey = "auth.principal"

// TokenVerifier is the part of the auth usecase the guard needs
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*auth.Principal, error)
}

// RequireAuth rejects requests without a valid "Authorization: Bearer"
// token. Signature, expiry and revocation are checked on every request.
func RequireAuth(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			abortWithError(c, apperrors.ErrMissingToken)
			return
		}

		p, err := v.VerifyToken(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(PrincipalKey, p)
		c.Request = c.Request.WithContext(
			logger.ContextWithUserID(c.Request.Context(), strconv.FormatInt(p.UserID, 10)),
		)
		c.Next()
	}
}

// PrincipalFrom returns the identity stored by RequireAuth
func PrincipalFrom(c *gin.Context) (*auth.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*auth.Principal)
	return p, ok
}

func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

func abortWithError(c *gin.Context, err error) {
	status, msg := apperrors.HTTPStatus(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
