package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers selectable via STORE_DRIVER
const (
	StorePostgres = "postgres"
	StoreDynamoDB = "dynamodb"
	StoreMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Persistence
	StoreDriver   string
	PostgresDSN   string
	AWSRegion     string
	DynamoDBTable string
	ParentIndex   string // GSI for children and sibling lookups

	// Eventing
	EventBusName string

	// Lambda configuration
	IsLambda bool

	// Logging
	LogLevel string

	// Authentication
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration

	// Feature flags
	EnableCORS bool

	// Rate limiting (requests per minute per client IP; 0 disables)
	RateLimitPerMinute int
}

// LoadConfig loads configuration from the environment. A .env file in
// the working directory is folded in first when present.
func LoadConfig() (*Config, error) {
	// Missing .env is the normal case outside local dev
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		StoreDriver:   getEnv("STORE_DRIVER", StoreMemory),
		PostgresDSN:   getEnv("POSTGRES_DSN", ""),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", "arbor"),
		ParentIndex:   getEnv("PARENT_INDEX_NAME", "ParentIndex"),

		EventBusName: getEnv("EVENT_BUS_NAME", ""),

		IsLambda: getEnvBool("IS_LAMBDA", false),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTIssuer:   getEnv("JWT_ISSUER", "arbor"),
		JWTAudience: getEnv("JWT_AUDIENCE", "arbor-api"),
		AccessTTL:   getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTTL:  getEnvDuration("REFRESH_TOKEN_TTL", 720*time.Hour),

		EnableCORS:         getEnvBool("ENABLE_CORS", true),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StorePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when STORE_DRIVER is postgres")
		}
	case StoreDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("TABLE_NAME is required when STORE_DRIVER is dynamodb")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.IsProduction() {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.StoreDriver == StoreMemory {
			return fmt.Errorf("the memory store is not allowed in production")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default
// value, e.g. "15m" or "720h"
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
