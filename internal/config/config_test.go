package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 50051, cfg.Server.Port)
	assert.Equal(t, 8081, cfg.Server.HTTPPort)
	assert.Equal(t, 9090, cfg.Server.MetricsPort)
	assert.Equal(t, StoreDriverMemory, cfg.Database.Driver)
	assert.Equal(t, 1, cfg.Settlement.DelayDays)
	assert.Equal(t, 5, cfg.Ledger.MaxRetries)
	assert.Equal(t, "env", cfg.Secrets.Backend.Backend)
	assert.Equal(t, "GATEWAY_WEBHOOK_SECRET", cfg.Secrets.WebhookSecretName)
	assert.False(t, cfg.IsProduction())

	loc, err := cfg.Settlement.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_MAX_CONNS", "50")
	t.Setenv("SETTLEMENT_TIMEZONE", "Asia/Kolkata")
	t.Setenv("SETTLEMENT_DELAY_DAYS", "2")
	t.Setenv("RATE_LIMIT_RPS", "7.5")
	t.Setenv("SERVER_PORT", "not-a-number")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, int32(50), cfg.Database.MaxConns)
	assert.Equal(t, 2, cfg.Settlement.DelayDays)
	assert.Equal(t, 7.5, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 50051, cfg.Server.Port, "unparseable values fall back to the default")
	assert.Equal(t, "host=localhost port=5432 user=postgres password=pw dbname=settlement_service sslmode=disable",
		cfg.Database.ConnectionString())
}

func TestLoadFromEnv_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeFile(t, dir, ".env", "STORE_DRIVER=memory\nSETTLEMENT_DELAY_DAYS=3\n")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Settlement.DelayDays)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Database:   DatabaseConfig{Driver: StoreDriverPostgres, Password: "pw"},
			Settlement: SettlementConfig{Timezone: "UTC", DelayDays: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"url_without_password", func(c *Config) { c.Database.Password = ""; c.Database.URL = "postgres://x" }, ""},
		{"secret_named_password", func(c *Config) { c.Database.Password = ""; c.Secrets.DBPasswordSecretName = "db/password" }, ""},
		{"missing_password", func(c *Config) { c.Database.Password = "" }, "DB_PASSWORD is required"},
		{"unknown_driver", func(c *Config) { c.Database.Driver = "mongo" }, "STORE_DRIVER"},
		{"bad_timezone", func(c *Config) { c.Settlement.Timezone = "Mars/Olympus" }, "SETTLEMENT_TIMEZONE"},
		{"negative_delay", func(c *Config) { c.Settlement.DelayDays = -1 }, "SETTLEMENT_DELAY_DAYS"},
		{"replica_without_dsn", func(c *Config) { c.Replica.Driver = "mysql" }, "REPLICA_DSN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
}
