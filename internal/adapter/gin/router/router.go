package router

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"docbot-auth-service/internal/adapter/gin/handler"
	"docbot-auth-service/internal/adapter/gin/middleware"
	grpcmiddleware "docbot-auth-service/internal/adapter/grpc/middleware"
)

//go:embed openapi.json
var openAPIDoc []byte

// Options collects what the router needs beyond the handlers
type Options struct {
	AllowedOrigins []string
	RateLimiter    *grpcmiddleware.RateLimiter // nil disables rate limiting
	Verifier       middleware.TokenVerifier
	// Chat is optional; chat routes are only mounted when it is set.
	Chat *handler.ChatHandler
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(authHandler *handler.AuthHandler, opts Options, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.RateLimiter(opts.RateLimiter))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "docbot-auth-service",
		})
	})

	router.GET("/openapi.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", openAPIDoc)
	})
	router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/openapi.json"))))

	router.POST("/register", authHandler.Register)
	router.POST("/login", authHandler.Login)

	protected := router.Group("")
	protected.Use(middleware.RequireAuth(opts.Verifier))
	{
		protected.GET("/me", authHandler.Me)
		protected.POST("/logout", authHandler.Logout)

		if opts.Chat != nil {
			chat := protected.Group("/chat")
			{
				chat.POST("/ask", opts.Chat.Ask)
				chat.POST("/upload_pdfs", opts.Chat.UploadPDFs)
				chat.GET("/sessions", opts.Chat.Sessions)
				chat.DELETE("/sessions/:name", opts.Chat.DeleteSession)
			}
		}
	}

	return router
}
