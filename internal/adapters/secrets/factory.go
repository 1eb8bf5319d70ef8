package secrets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/adapters/ports"
)

// Supported backends
const (
	BackendEnv   = "env"
	BackendLocal = "local"
	BackendAWS   = "aws"
	BackendVault = "vault"
)

// Config selects and configures a secret backend
type Config struct {
	Backend   string
	LocalPath string
	CacheTTL  time.Duration

	AWSRegion   string
	AWSProfile  string
	AWSEndpoint string

	VaultAddress   string
	VaultToken     string
	VaultRoleID    string
	VaultSecretID  string
	VaultMountPath string
}

// NewSecretManager builds the configured backend
func NewSecretManager(ctx context.Context, cfg Config, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	switch cfg.Backend {
	case "", BackendEnv:
		return NewEnvSecretManager(logger), nil

	case BackendLocal:
		logger.Warn("Using LOCAL secret manager - NOT for production use!",
			zap.String("path", cfg.LocalPath))
		return NewLocalSecretManager(cfg.LocalPath, logger), nil

	case BackendAWS:
		awsCfg := DefaultAWSSecretsManagerConfig(cfg.AWSRegion)
		awsCfg.Profile = cfg.AWSProfile
		awsCfg.Endpoint = cfg.AWSEndpoint
		if cfg.CacheTTL > 0 {
			awsCfg.CacheTTL = cfg.CacheTTL
		}
		return NewAWSSecretsManagerAdapter(ctx, awsCfg, logger)

	case BackendVault:
		vaultCfg := DefaultVaultConfig(cfg.VaultAddress)
		if cfg.VaultMountPath != "" {
			vaultCfg.MountPath = cfg.VaultMountPath
		}
		if cfg.CacheTTL > 0 {
			vaultCfg.CacheTTL = cfg.CacheTTL
		}
		vaultCfg.Token = cfg.VaultToken
		vaultCfg.RoleID = cfg.VaultRoleID
		vaultCfg.SecretID = cfg.VaultSecretID
		return NewVaultAdapter(ctx, vaultCfg, logger)
	}
	return nil, fmt.Errorf("unsupported secret manager %q", cfg.Backend)
}

// Resolve returns the secret value at path, or fallback when path is empty
func Resolve(ctx context.Context, sm ports.SecretManagerAdapter, path, fallback string) (string, error) {
	if path == "" {
		return fallback, nil
	}
	secret, err := sm.GetSecret(ctx, path)
	if err != nil {
		return "", err
	}
	return secret.Value, nil
}
