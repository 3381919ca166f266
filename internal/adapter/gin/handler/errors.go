package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "docbot-auth-service/pkg/errors"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// respondError writes the client-safe form of err. Store details are
// included only when exposeDetails is set.
func respondError(c *gin.Context, err error, exposeDetails bool) {
	status, msg := apperrors.HTTPStatus(err)
	resp := ErrorResponse{Error: msg}

	if exposeDetails {
		var pe *apperrors.PersistenceError
		if errors.As(err, &pe) {
			resp.Details = pe.Details()
		}
	}

	_ = c.Error(err)
	c.JSON(status, resp)
}
