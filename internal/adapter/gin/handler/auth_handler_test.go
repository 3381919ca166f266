package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"docbot-auth-service/internal/adapter/gin/middleware"
	"docbot-auth-service/internal/usecase/auth"
	apperrors "docbot-auth-service/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockService is a mock implementation of auth.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Register(ctx context.Context, in auth.RegisterRequest) (*auth.RegisterResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.RegisterResponse), args.Error(1)
}

func (m *MockService) Login(ctx context.Context, in auth.LoginRequest) (*auth.LoginResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.LoginResponse), args.Error(1)
}

func (m *MockService) VerifyToken(ctx context.Context, token string) (*auth.Principal, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Principal), args.Error(1)
}

func (m *MockService) Logout(ctx context.Context, p *auth.Principal) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockService) CurrentUser(ctx context.Context, userID int64) (*auth.CurrentUserResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.CurrentUserResponse), args.Error(1)
}

func setupAuthRouter(t *testing.T, uc auth.Service, exposeDetails bool, p *auth.Principal) *gin.Engine {
	h := NewAuthHandler(uc, zaptest.NewLogger(t), exposeDetails)
	r := gin.New()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)

	withPrincipal := func(c *gin.Context) {
		if p != nil {
			c.Set(middleware.PrincipalKey, p)
		}
	}
	r.GET("/me", withPrincipal, h.Me)
	r.POST("/logout", withPrincipal, h.Logout)
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRegister_Created(t *testing.T) {
	uc := new(MockService)
	uc.On("Register", mock.Anything, auth.RegisterRequest{Email: "a@x.com", Password: "secret1"}).
		Return(&auth.RegisterResponse{UserID: 1}, nil)

	w := postJSON(setupAuthRouter(t, uc, false, nil), "/register", `{"email":"a@x.com","password":"secret1"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"message":"User registered","userId":1}`, w.Body.String())
}

func TestRegister_MalformedBody(t *testing.T) {
	uc := new(MockService)
	r := setupAuthRouter(t, uc, false, nil)

	for _, body := range []string{`{`, `{"email":123,"password":"x"}`, ``} {
		w := postJSON(r, "/register", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, apperrors.MsgCredentialsRequired, decode(t, w)["error"])
	}
	uc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestRegister_ErrorMapping(t *testing.T) {
	storeErr := apperrors.NewPersistenceError(apperrors.MsgRegisterFailed, errors.New("pq: connection reset"))

	tests := []struct {
		name   string
		err    error
		expose bool
		status int
		body   string
	}{
		{"validation", apperrors.NewValidationError("Email", apperrors.MsgCredentialsRequired), false,
			http.StatusBadRequest, `{"error":"Email and password required"}`},
		{"duplicate", apperrors.NewDuplicateEmailError("a@x.com"), false,
			http.StatusConflict, `{"error":"Email already registered"}`},
		{"store failure hides details", storeErr, false,
			http.StatusInternalServerError, `{"error":"Error registering user"}`},
		{"store failure with details", storeErr, true,
			http.StatusInternalServerError, `{"error":"Error registering user","details":"pq: connection reset"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := new(MockService)
			uc.On("Register", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := postJSON(setupAuthRouter(t, uc, tt.expose, nil), "/register", `{"email":"a@x.com","password":"p"}`)

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestLogin_OK(t *testing.T) {
	exp := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	uc := new(MockService)
	uc.On("Login", mock.Anything, auth.LoginRequest{Email: "a@x.com", Password: "secret1"}).
		Return(&auth.LoginResponse{Token: "jwt", ExpiresAt: exp}, nil)

	w := postJSON(setupAuthRouter(t, uc, false, nil), "/login", `{"email":"a@x.com","password":"secret1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Login successful","token":"jwt","expiresAt":"2030-06-01T12:00:00Z"}`, w.Body.String())
}

func TestLogin_InvalidCredentials(t *testing.T) {
	uc := new(MockService)
	uc.On("Login", mock.Anything, mock.Anything).Return(nil, apperrors.ErrInvalidCredentials)

	w := postJSON(setupAuthRouter(t, uc, true, nil), "/login", `{"email":"a@x.com","password":"wrong"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid email or password"}`, w.Body.String())
}

func TestMe(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	uc := new(MockService)
	uc.On("CurrentUser", mock.Anything, int64(4)).
		Return(&auth.CurrentUserResponse{UserID: 4, Email: "d@x.com", CreatedAt: created}, nil)

	w := httptest.NewRecorder()
	setupAuthRouter(t, uc, false, &auth.Principal{UserID: 4}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userId":4,"email":"d@x.com","createdAt":"2024-01-01T00:00:00Z"}`, w.Body.String())
}

func TestMe_WithoutPrincipal(t *testing.T) {
	w := httptest.NewRecorder()
	setupAuthRouter(t, new(MockService), false, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout(t *testing.T) {
	p := &auth.Principal{UserID: 4, TokenID: "jti"}
	uc := new(MockService)
	uc.On("Logout", mock.Anything, p).Return(nil)

	w := postJSON(setupAuthRouter(t, uc, false, p), "/logout", ``)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Logged out"}`, w.Body.String())
	uc.AssertExpectations(t)
}
