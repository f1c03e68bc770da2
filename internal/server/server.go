package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"amen-chat/config"
	"amen-chat/internal/handler"
	"amen-chat/internal/middleware"
	"amen-chat/internal/redis"
	"amen-chat/internal/services"
	"amen-chat/internal/transport/httpdto"
	"amen-chat/internal/websocket"
	"amen-chat/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Conversations *handler.ConversationHandler
	Messages      *handler.MessageHandler
	Relations     *handler.RelationHandler
	Socket        *websocket.Handler
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.AppPort),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

func (s *Server) SetupRoutes(handlers *Handlers, tokens *services.TokenService, limiter *redis.RateLimiter) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	auth := middleware.AuthMiddleware(tokens)
	messageLimit := middleware.MessageRateLimitMiddleware(limiter)
	relationLimit := middleware.RelationRateLimitMiddleware(limiter)

	conversations := s.engine.Group("/v1/conversations", auth)
	{
		conversations.POST("", handlers.Conversations.Open)
		conversations.GET("", handlers.Conversations.List)
		conversations.GET("/:id", handlers.Conversations.GetByID)
		conversations.POST("/:id/accept", handlers.Conversations.Accept)
		conversations.POST("/:id/decline", handlers.Conversations.Decline)
		conversations.POST("/:id/mute", handlers.Conversations.Mute)
		conversations.DELETE("/:id/mute", handlers.Conversations.Unmute)
		conversations.POST("/:id/pin", handlers.Conversations.Pin)
		conversations.DELETE("/:id/pin", handlers.Conversations.Unpin)
		conversations.POST("/:id/archive", handlers.Conversations.Archive)
		conversations.DELETE("/:id/archive", handlers.Conversations.Unarchive)

		conversations.GET("/:id/messages", handlers.Messages.List)
		conversations.POST("/:id/messages/:message_id/read", handlers.Messages.MarkRead)
		conversations.PUT("/:id/messages/:message_id/reaction", handlers.Messages.React)
		conversations.DELETE("/:id/messages/:message_id/reaction", handlers.Messages.Unreact)
		conversations.POST("/:id/typing", handlers.Messages.Typing)
	}

	messages := s.engine.Group("/v1/messages", auth)
	{
		messages.POST("", messageLimit, handlers.Messages.Send)
	}

	relations := s.engine.Group("/v1/relations", auth)
	{
		relations.PUT("/blocks/:user_id", relationLimit, handlers.Relations.Block)
		relations.DELETE("/blocks/:user_id", relationLimit, handlers.Relations.Unblock)
		relations.PUT("/follows/:user_id", relationLimit, handlers.Relations.Follow)
		relations.DELETE("/follows/:user_id", relationLimit, handlers.Relations.Unfollow)
		relations.GET("/privacy", handlers.Relations.GetPrivacy)
		relations.PUT("/privacy", handlers.Relations.SetPrivacy)
	}

	// Token auth happens inside the handler; browsers cannot set headers
	// on WebSocket upgrades.
	s.engine.GET("/v1/ws", handlers.Socket.Connect)
}

func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	if s.logger != nil {
		s.logger.Infof("Server is running on :%s", s.config.AppPort)
	}

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
