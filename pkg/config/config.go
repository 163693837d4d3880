package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Storage       StorageConfig
	Textract      TextractConfig
	Upload        UploadConfig
	Observability ObservabilityConfig
	Environment   string
}

type ServerConfig struct {
	Host               string
	Port               int
	BaseURL            string
	RateLimitPerSecond int
	RateLimitBurst     int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type AuthConfig struct {
	JWTSecret string
}

// StorageConfig selects the object-store backend for receipt artifacts.
type StorageConfig struct {
	Type              string // "s3" or "local"
	LocalPath         string
	S3Bucket          string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Endpoint        string // For S3-compatible services (MinIO, etc.)
	SignedURLTTL      time.Duration
	LocalRetention    time.Duration // How long the janitor keeps local uploads
}

// TextractConfig configures the document analysis clients.
type TextractConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// UploadConfig bounds incoming receipt documents.
type UploadConfig struct {
	MaxBytes int64
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "localhost"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			BaseURL:            getEnv("BASE_URL", "http://localhost:8080"),
			RateLimitPerSecond: getEnvAsInt("SERVER_RATE_LIMIT_PER_SECOND", 100),
			RateLimitBurst:     getEnvAsInt("SERVER_RATE_LIMIT_BURST", 200),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "receipts-dev"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "changeme"),
		},
		Storage: StorageConfig{
			Type:              getEnv("STORAGE_TYPE", "local"),
			LocalPath:         getEnv("STORAGE_LOCAL_PATH", "./uploads"),
			S3Bucket:          getEnv("STORAGE_S3_BUCKET", ""),
			S3Region:          getEnv("STORAGE_S3_REGION", ""),
			S3AccessKeyID:     getEnv("STORAGE_S3_ACCESS_KEY_ID", ""),
			S3SecretAccessKey: getEnv("STORAGE_S3_SECRET_ACCESS_KEY", ""),
			S3Endpoint:        getEnv("STORAGE_S3_ENDPOINT", ""),
			SignedURLTTL:      getEnvAsDuration("STORAGE_SIGNED_URL_TTL", 15*time.Minute),
			LocalRetention:    getEnvAsDuration("STORAGE_LOCAL_RETENTION", 30*24*time.Hour),
		},
		Textract: TextractConfig{
			Region:          getEnv("TEXTRACT_REGION", getEnv("STORAGE_S3_REGION", "")),
			AccessKeyID:     getEnv("TEXTRACT_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("TEXTRACT_SECRET_ACCESS_KEY", ""),
		},
		Upload: UploadConfig{
			MaxBytes: getEnvAsInt64("UPLOAD_MAX_BYTES", 4*1024*1024),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
		Environment: getEnv("APP_ENV", "development"),
	}

	if cfg.Storage.Type == "s3" && cfg.Storage.S3Bucket == "" {
		return nil, errors.New("STORAGE_S3_BUCKET is required when STORAGE_TYPE=s3")
	}

	if cfg.Upload.MaxBytes <= 0 {
		return nil, errors.New("UPLOAD_MAX_BYTES must be positive")
	}

	return cfg, nil
}

// IsProduction reports whether the app runs with production error redaction.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
