package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/kevin07696/settlement-service/internal/adapters/secrets"
)

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Replica     ReplicaConfig
	Settlement  SettlementConfig
	Ledger      LedgerConfig
	Secrets     SecretsConfig
	RateLimit   RateLimitConfig
	Logger      LoggerConfig
}

// ServerConfig holds listener configuration
type ServerConfig struct {
	Port        int // gRPC health/reflection
	HTTPPort    int // REST gateway
	Host        string
	MetricsPort int
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Driver   string // postgres or memory
	URL      string // overrides the discrete fields when set
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// ReplicaConfig selects the read source of the Aggregation Reporter
type ReplicaConfig struct {
	Driver string // mysql, sqlite or empty for the primary
	DSN    string
}

// SettlementConfig holds settlement calendar configuration
type SettlementConfig struct {
	Timezone  string
	DelayDays int
}

// LedgerConfig holds ledger write retry configuration
type LedgerConfig struct {
	MaxRetries int
}

// SecretsConfig selects the secret backend and names the secrets the service reads
type SecretsConfig struct {
	Backend secrets.Config

	WebhookSecretName    string
	AdminSecretName      string
	CronSecretName       string
	DBPasswordSecretName string
}

// RateLimitConfig holds per-IP rate limiting for public routes
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads configuration from environment variables.
// A .env file in the working directory is applied first when present.
func LoadFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:        getEnvAsInt("SERVER_PORT", 50051),
			HTTPPort:    getEnvAsInt("HTTP_PORT", 8081),
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			MetricsPort: getEnvAsInt("METRICS_PORT", 9090),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("STORE_DRIVER", StoreDriverPostgres),
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "settlement_service"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 5)),
		},
		Replica: ReplicaConfig{
			Driver: getEnv("REPLICA_DRIVER", ""),
			DSN:    getEnv("REPLICA_DSN", ""),
		},
		Settlement: SettlementConfig{
			Timezone:  getEnv("SETTLEMENT_TIMEZONE", "UTC"),
			DelayDays: getEnvAsInt("SETTLEMENT_DELAY_DAYS", 1),
		},
		Ledger: LedgerConfig{
			MaxRetries: getEnvAsInt("LEDGER_MAX_RETRIES", 5),
		},
		Secrets: SecretsConfig{
			Backend: secrets.Config{
				Backend:        getEnv("SECRET_MANAGER", secrets.BackendEnv),
				LocalPath:      getEnv("SECRET_LOCAL_PATH", "./secrets.env"),
				CacheTTL:       time.Duration(getEnvAsInt("SECRET_CACHE_TTL_MINUTES", 5)) * time.Minute,
				AWSRegion:      getEnv("AWS_REGION", "ap-south-1"),
				AWSProfile:     getEnv("AWS_PROFILE", ""),
				AWSEndpoint:    getEnv("AWS_SECRETS_ENDPOINT", ""),
				VaultAddress:   getEnv("VAULT_ADDR", "http://localhost:8200"),
				VaultToken:     getEnv("VAULT_TOKEN", ""),
				VaultRoleID:    getEnv("VAULT_ROLE_ID", ""),
				VaultSecretID:  getEnv("VAULT_SECRET_ID", ""),
				VaultMountPath: getEnv("VAULT_MOUNT_PATH", "secret"),
			},
			WebhookSecretName:    getEnv("WEBHOOK_SECRET_NAME", "GATEWAY_WEBHOOK_SECRET"),
			AdminSecretName:      getEnv("ADMIN_SECRET_NAME", "ADMIN_API_SECRET"),
			CronSecretName:       getEnv("CRON_SECRET_NAME", "CRON_SECRET"),
			DBPasswordSecretName: getEnv("DB_PASSWORD_SECRET_NAME", ""),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 20),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 40),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and value ranges
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case StoreDriverMemory:
	case StoreDriverPostgres:
		if c.Database.URL == "" && c.Database.Password == "" && c.Secrets.DBPasswordSecretName == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.Database.Driver)
	}

	if _, err := c.Settlement.Location(); err != nil {
		return err
	}
	if c.Settlement.DelayDays < 0 {
		return fmt.Errorf("SETTLEMENT_DELAY_DAYS must not be negative")
	}
	if c.Ledger.MaxRetries < 0 {
		return fmt.Errorf("LEDGER_MAX_RETRIES must not be negative")
	}
	if c.Replica.Driver != "" && c.Replica.DSN == "" {
		return fmt.Errorf("REPLICA_DSN is required when REPLICA_DRIVER is set")
	}
	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Location loads the zone settlement calendar days are cut in
func (c SettlementConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid SETTLEMENT_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ConnectionString returns PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
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
