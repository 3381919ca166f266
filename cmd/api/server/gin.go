package server

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	ginhandler "docbot-auth-service/internal/adapter/gin/handler"
	ginrouter "docbot-auth-service/internal/adapter/gin/router"
)

// SetupGinServer creates and configures the Gin REST API server
func SetupGinServer(
	authHandler *ginhandler.AuthHandler,
	opts ginrouter.Options,
	ginAddr string,
	l *zap.Logger,
) *http.Server {
	router := ginrouter.SetupRouter(authHandler, opts, l)

	l.Info("Gin REST API configured",
		zap.String("address", ginAddr),
		zap.Bool("chat_routes", opts.Chat != nil),
	)

	return &http.Server{
		Addr:              ginAddr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       30 * time.Second,
		// chat answers can take as long as the backend timeout
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
