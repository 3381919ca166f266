package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	grpcmiddleware "docbot-auth-service/internal/adapter/grpc/middleware"
	"docbot-auth-service/internal/usecase/auth"
	apperrors "docbot-auth-service/pkg/errors"
	"docbot-auth-service/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubVerifier accepts exactly one token
type stubVerifier struct {
	token string
	p     *auth.Principal
}

func (s stubVerifier) VerifyToken(_ context.Context, token string) (*auth.Principal, error) {
	if token == s.token {
		return s.p, nil
	}
	return nil, apperrors.ErrInvalidToken
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, logger.GetRequestID(c.Request.Context()))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Body.String())
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Body.String())
	assert.Equal(t, w.Body.String(), w.Header().Get("X-Request-ID"))
}

func TestRequireAuth(t *testing.T) {
	verifier := stubVerifier{token: "good", p: &auth.Principal{UserID: 7, Email: "a@x.com"}}

	r := gin.New()
	r.GET("/me", RequireAuth(verifier), func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{
			"userId":    p.UserID,
			"logUserId": logger.GetUserID(c.Request.Context()),
		})
	})

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing header", "", http.StatusUnauthorized, "Authorization token required"},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, "Authorization token required"},
		{"invalid token", "Bearer bad", http.StatusUnauthorized, apperrors.MsgInvalidToken},
		{"valid token", "Bearer good", http.StatusOK, ""},
		{"case-insensitive scheme", "bearer good", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, decodeError(t, w))
				return
			}
			assert.JSONEq(t, `{"userId":7,"logUserId":"7"}`, w.Body.String())
		})
	}
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	r := gin.New()
	r.Use(Recovery(zap.New(core)))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "An internal error occurred", decodeError(t, w))
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestLogger_LevelsByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(RequestID(), Logger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bad", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Contains(t, entries[0].ContextMap(), "request_id")
}

func TestCORS(t *testing.T) {
	t.Run("allow list", func(t *testing.T) {
		r := gin.New()
		r.Use(CORS([]string{"http://app.test"}))
		r.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/login", nil)
		req.Header.Set("Origin", "http://app.test")
		req.Header.Set("Access-Control-Request-Method", "POST")
		r.ServeHTTP(w, req)
		assert.Equal(t, "http://app.test", w.Header().Get("Access-Control-Allow-Origin"))

		w = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodPost, "/login", nil)
		req.Header.Set("Origin", "http://evil.test")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("preflight for session delete", func(t *testing.T) {
		r := gin.New()
		r.Use(CORS([]string{"http://app.test"}))
		r.DELETE("/chat/sessions/:name", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/chat/sessions/s1", nil)
		req.Header.Set("Origin", "http://app.test")
		req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "http://app.test", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
	})

	t.Run("wildcard", func(t *testing.T) {
		r := gin.New()
		r.Use(CORS([]string{"*"}))
		r.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.Header.Set("Origin", "http://anything.test")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	limiter := grpcmiddleware.NewRateLimiter(rdb, grpcmiddleware.RateLimiterConfig{
		RequestsPerSecond: 0.001,
		BurstCapacity:     2,
		Enabled:           true,
	}, zaptest.NewLogger(t))

	r := gin.New()
	r.Use(RateLimiter(limiter))
	r.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/register", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = "10.0.0.1:5555"
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send("/login").Code)
	assert.Equal(t, http.StatusOK, send("/login").Code)
	w := send("/login")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, decodeError(t, w), "Rate limit exceeded")

	// separate bucket per route
	assert.Equal(t, http.StatusOK, send("/register").Code)
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := grpcmiddleware.NewRateLimiter(nil, grpcmiddleware.RateLimiterConfig{Enabled: true}, zaptest.NewLogger(t))

	r := gin.New()
	r.Use(RateLimiter(limiter))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
