package secrets

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/adapters/ports"
)

// VaultConfig configures the Vault KV v2 backend. Token auth wins when Token is set,
// otherwise the adapter logs in with AppRole.
type VaultConfig struct {
	Address   string
	MountPath string

	Token    string
	RoleID   string
	SecretID string

	CacheTTL time.Duration
}

// DefaultVaultConfig returns the settings used when only an address is configured
func DefaultVaultConfig(address string) *VaultConfig {
	return &VaultConfig{
		Address:   address,
		MountPath: "secret",
		CacheTTL:  5 * time.Minute,
	}
}

type vaultAdapter struct {
	kv     *vault.KVv2
	logger *zap.Logger
	cache  *secretCache
}

// NewVaultAdapter authenticates against Vault and reads secrets from the KV v2 mount
func NewVaultAdapter(ctx context.Context, cfg *VaultConfig, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if err := authenticateVault(ctx, client, cfg); err != nil {
		return nil, fmt.Errorf("failed to authenticate with Vault: %w", err)
	}

	logger.Info("Vault adapter initialized",
		zap.String("address", cfg.Address),
		zap.String("mount_path", cfg.MountPath),
	)

	return &vaultAdapter{
		kv:     client.KVv2(cfg.MountPath),
		logger: logger,
		cache:  newSecretCache(cfg.CacheTTL),
	}, nil
}

func authenticateVault(ctx context.Context, client *vault.Client, cfg *VaultConfig) error {
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
		return nil
	}
	if cfg.RoleID == "" || cfg.SecretID == "" {
		return errors.New("vault needs a token or an AppRole role_id and secret_id")
	}

	resp, err := client.Logical().WriteWithContext(ctx, "auth/approle/login", map[string]interface{}{
		"role_id":   cfg.RoleID,
		"secret_id": cfg.SecretID,
	})
	if err != nil {
		return fmt.Errorf("approle login failed: %w", err)
	}
	if resp == nil || resp.Auth == nil {
		return errors.New("approle login returned no auth info")
	}
	client.SetToken(resp.Auth.ClientToken)
	return nil
}

// GetSecret reads the "value" field of the latest version at path
func (a *vaultAdapter) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	if cached := a.cache.get(path); cached != nil {
		a.logger.Debug("Secret retrieved from cache", zap.String("path", path))
		return cached, nil
	}

	startTime := time.Now()
	kv, err := a.kv.Get(ctx, path)
	if err != nil {
		if errors.Is(err, vault.ErrSecretNotFound) {
			return nil, fmt.Errorf("secret not found: %s", path)
		}
		a.logger.Error("Failed to retrieve secret from Vault",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to read secret from Vault: %w", err)
	}

	value, _ := kv.Data["value"].(string)
	if value == "" {
		return nil, fmt.Errorf("secret %s has no value field", path)
	}

	a.logger.Info("Secret retrieved from Vault",
		zap.String("path", path),
		zap.Duration("elapsed", time.Since(startTime)),
	)

	secret := &ports.Secret{Value: value}
	if kv.VersionMetadata != nil {
		secret.Version = strconv.Itoa(kv.VersionMetadata.Version)
	}
	a.cache.set(path, secret)
	return secret, nil
}
