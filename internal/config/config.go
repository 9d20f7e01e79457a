package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Storage drivers
const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	MongoDB    MongoDBConfig
	Redis      RedisConfig
	S3         S3Config
	OTEL       OTELConfig
	Membership MembershipConfig
	LogLevel   string `validate:"oneof=trace debug info warn error"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        string `validate:"required,numeric"`
	BodyLimitKB int    `validate:"gt=0"`
}

// StorageConfig selects the membership store
type StorageConfig struct {
	Driver string `validate:"oneof=mongo memory"`
}

// MongoDBConfig holds MongoDB connection configuration
type MongoDBConfig struct {
	URI      string `validate:"required_if=Enabled true"`
	Database string `validate:"required_if=Enabled true"`
	// Transactions requires a replica set deployment
	Transactions bool
	Enabled      bool
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string `validate:"required_if=Enabled true"`
	Password string
	Enabled  bool
}

// S3Config holds the snapshot bucket configuration
type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// OTELConfig holds OpenTelemetry exporter configuration
type OTELConfig struct {
	Enabled        bool
	Endpoint       string `validate:"required_if=Enabled true"`
	ServiceName    string
	ServiceVersion string
	Environment    string
	InstanceID     string
	Token          string
}

// MembershipConfig holds the business defaults of the membership service
type MembershipConfig struct {
	DefaultUserID  int64  `validate:"gt=0"`
	IDFormat       string `validate:"oneof=uuid ulid"`
	ListCacheTTL   time.Duration
	IdempotencyTTL time.Duration
}

// Load reads configuration from environment variables
// It attempts to load from .env file first, then falls back to system env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "3099"),
			BodyLimitKB: int(getEnvAsInt64("BODY_LIMIT_KB", 64)),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageMongo)),
		},
		MongoDB: MongoDBConfig{
			URI:          getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:     getEnv("MONGODB_DATABASE", "memberships"),
			Transactions: getEnvAsBool("MONGODB_TRANSACTIONS", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},
		S3: S3Config{
			Endpoint:  getEnv("S3_ENDPOINT", "http://localhost:8333"),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Bucket:    getEnv("S3_BUCKET", "membership-snapshots"),
			AccessKey: getEnv("S3_ACCESS_KEY", "any"),
			SecretKey: getEnv("S3_SECRET_KEY", "any"),
		},
		OTEL: OTELConfig{
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "membership-service"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			Environment:    getEnv("OTEL_ENVIRONMENT", "development"),
			InstanceID:     getEnv("OTEL_INSTANCE_ID", ""),
			Token:          getEnv("OTEL_TOKEN", ""),
		},
		Membership: MembershipConfig{
			DefaultUserID:  getEnvAsInt64("MEMBERSHIP_DEFAULT_USER_ID", 2000),
			IDFormat:       strings.ToLower(getEnv("MEMBERSHIP_ID_FORMAT", "uuid")),
			ListCacheTTL:   getEnvAsDuration("MEMBERSHIP_LIST_CACHE_TTL", time.Minute),
			IdempotencyTTL: getEnvAsDuration("MEMBERSHIP_IDEMPOTENCY_TTL", 24*time.Hour),
		},
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
	cfg.MongoDB.Enabled = cfg.Storage.Driver == StorageMongo

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt64 retrieves an environment variable as int64 or returns a default value
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
