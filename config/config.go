package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string
	AppMode string

	AWSRegion    string
	AWSEndpoint  string
	AWSAccessKey string
	AWSSecretKey string

	ConversationsTable string
	MessagesTable      string
	BlocksTable        string
	FollowsTable       string
	SettingsTable      string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	JWTSecret    string
	JWTExpiryMin int

	BlockCacheTTL   time.Duration
	FollowCacheTTL  time.Duration
	PrivacyCacheTTL time.Duration

	RetryMaxAttempts int
	RetryBaseDelayMs int

	MessageRateLimit  int
	RelationRateLimit int
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort: getEnv("APP_PORT", "8080"),
		AppMode: getEnv("APP_MODE", "debug"),

		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		AWSEndpoint:  getEnv("AWS_ENDPOINT", ""),
		AWSAccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),

		ConversationsTable: getEnv("CONVERSATIONS_TABLE", "conversations"),
		MessagesTable:      getEnv("MESSAGES_TABLE", "messages"),
		BlocksTable:        getEnv("BLOCKS_TABLE", "blocks"),
		FollowsTable:       getEnv("FOLLOWS_TABLE", "follows"),
		SettingsTable:      getEnv("SETTINGS_TABLE", "user_settings"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		JWTSecret:    getEnv("JWT_SECRET", "change-me"),
		JWTExpiryMin: getEnvAsInt("JWT_EXPIRY_MIN", 15),

		BlockCacheTTL:   getEnvAsDuration("BLOCK_CACHE_TTL", 5*time.Second),
		FollowCacheTTL:  getEnvAsDuration("FOLLOW_CACHE_TTL", 30*time.Second),
		PrivacyCacheTTL: getEnvAsDuration("PRIVACY_CACHE_TTL", 60*time.Second),

		RetryMaxAttempts: getEnvAsInt("RETRY_MAX_ATTEMPTS", 4),
		RetryBaseDelayMs: getEnvAsInt("RETRY_BASE_DELAY_MS", 50),

		MessageRateLimit:  getEnvAsInt("MESSAGE_RATE_LIMIT", 60),
		RelationRateLimit: getEnvAsInt("RELATION_RATE_LIMIT", 30),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}
