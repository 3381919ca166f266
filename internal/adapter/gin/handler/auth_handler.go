package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docbot-auth-service/internal/adapter/gin/middleware"
	"docbot-auth-service/internal/usecase/auth"
	apperrors "docbot-auth-service/pkg/errors"
)

// AuthHandler handles HTTP requests for account operations
type AuthHandler struct {
	uc            auth.Service
	log           *zap.Logger
	exposeDetails bool
}

// NewAuthHandler creates a new AuthHandler instance. exposeDetails echoes
// store error text in a "details" field on 500 responses.
func NewAuthHandler(uc auth.Service, log *zap.Logger, exposeDetails bool) *AuthHandler {
	return &AuthHandler{
		uc:            uc,
		log:           log,
		exposeDetails: exposeDetails,
	}
}

// CredentialsRequest represents the body of /register and /login
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse represents the HTTP response after registering
type RegisterResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

// LoginResponse represents the HTTP response after a successful login
type LoginResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// MeResponse represents the profile of the authenticated user
type MeResponse struct {
	UserID    int64     `json:"userId"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}

// bindCredentials decodes the JSON body. Malformed bodies are reported
// the same way as missing fields.
func (h *AuthHandler) bindCredentials(c *gin.Context) (CredentialsRequest, bool) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug("invalid credentials body", zap.Error(err))
		respondError(c, apperrors.NewValidationError("", apperrors.MsgCredentialsRequired), false)
		return req, false
	}
	return req, true
}

// Register handles POST /register
func (h *AuthHandler) Register(c *gin.Context) {
	req, ok := h.bindCredentials(c)
	if !ok {
		return
	}

	resp, err := h.uc.Register(c.Request.Context(), auth.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err, h.exposeDetails)
		return
	}

	c.JSON(http.StatusCreated, RegisterResponse{
		Message: "User registered",
		UserID:  resp.UserID,
	})
}

// Login handles POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	req, ok := h.bindCredentials(c)
	if !ok {
		return
	}

	resp, err := h.uc.Login(c.Request.Context(), auth.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err, h.exposeDetails)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Message:   "Login successful",
		Token:     resp.Token,
		ExpiresAt: resp.ExpiresAt.UTC(),
	})
}

// Me handles GET /me
func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		respondError(c, apperrors.ErrMissingToken, false)
		return
	}

	resp, err := h.uc.CurrentUser(c.Request.Context(), p.UserID)
	if err != nil {
		respondError(c, err, h.exposeDetails)
		return
	}

	c.JSON(http.StatusOK, MeResponse{
		UserID:    resp.UserID,
		Email:     resp.Email,
		CreatedAt: resp.CreatedAt.UTC(),
	})
}

// Logout handles POST /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		respondError(c, apperrors.ErrMissingToken, false)
		return
	}

	if err := h.uc.Logout(c.Request.Context(), p); err != nil {
		respondError(c, err, h.exposeDetails)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Logged out"})
}
