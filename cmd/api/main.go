package main

import (
	"context"
	"log"
	"time"

	"amen-chat/config"
	"amen-chat/internal/events"
	"amen-chat/internal/handler"
	"amen-chat/internal/redis"
	"amen-chat/internal/repository"
	"amen-chat/internal/server"
	"amen-chat/internal/services"
	"amen-chat/internal/store"
	"amen-chat/internal/websocket"
	"amen-chat/pkg/logger"
	"amen-chat/pkg/retry"
)

func main() {
	cfg := config.LoadConfig()

	l := logger.New(cfg.AppMode)
	logger.SetGlobalLogger(l)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dynamoClient, err := store.NewClient(ctx, store.ClientConfig{
		Region:    cfg.AWSRegion,
		Endpoint:  cfg.AWSEndpoint,
		AccessKey: cfg.AWSAccessKey,
		SecretKey: cfg.AWSSecretKey,
	})
	if err != nil {
		log.Fatalf("Failed to connect to DynamoDB: %v", err)
	}

	st := store.New(dynamoClient, store.Tables{
		Conversations: cfg.ConversationsTable,
		Messages:      cfg.MessagesTable,
		Blocks:        cfg.BlocksTable,
		Follows:       cfg.FollowsTable,
		Settings:      cfg.SettingsTable,
	})

	redisClient := redis.NewClient(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	conversationRepo := repository.NewConversationRepository(st)
	messageRepo := repository.NewMessageRepository(st)
	relationRepo := repository.NewRelationRepository(st)

	relationCache := redis.NewRelationCache(redisClient, relationRepo, redis.CacheConfig{
		BlockTTL:   cfg.BlockCacheTTL,
		FollowTTL:  cfg.FollowCacheTTL,
		PrivacyTTL: cfg.PrivacyCacheTTL,
	})

	limiterConfig := redis.DefaultRateLimitConfig()
	limiterConfig.MessageLimit = cfg.MessageRateLimit
	limiterConfig.RelationLimit = cfg.RelationRateLimit
	limiter := redis.NewRateLimiter(redisClient, limiterConfig)

	bus := events.NewBus()

	policy := retry.DefaultPolicy()
	policy.MaxAttempts = cfg.RetryMaxAttempts
	policy.BaseDelay = time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond

	permissions := services.NewPermissionService(relationCache, relationCache, relationCache, conversationRepo)
	conversationService := services.NewConversationService(conversationRepo, permissions, bus, policy)
	messageService := services.NewMessageService(conversationRepo, messageRepo, permissions, bus, policy)
	relationService := services.NewRelationService(relationRepo, relationCache, bus)
	tokenService := services.NewTokenService([]byte(cfg.JWTSecret), time.Duration(cfg.JWTExpiryMin)*time.Minute)

	hub := websocket.NewHub()
	go hub.Run(ctx)

	bridge := websocket.NewBusBridge(bus, hub)
	go bridge.Run(ctx)

	srv := server.New(cfg, l)
	srv.SetupRoutes(&server.Handlers{
		Conversations: handler.NewConversationHandler(conversationService),
		Messages:      handler.NewMessageHandler(messageService),
		Relations:     handler.NewRelationHandler(relationService),
		Socket:        websocket.NewHandler(tokenService, messageService, hub),
	}, tokenService, limiter)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
