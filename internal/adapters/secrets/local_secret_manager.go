package secrets

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/adapters/ports"
)

// localSecretManager reads secrets from a dotenv file kept outside the repository.
// Keys follow EnvName so a name resolves the same way here and in the env backend.
// Development only.
type localSecretManager struct {
	path   string
	logger *zap.Logger
}

// NewLocalSecretManager reads secrets from the dotenv file at path
func NewLocalSecretManager(path string, logger *zap.Logger) ports.SecretManagerAdapter {
	return &localSecretManager{
		path:   path,
		logger: logger,
	}
}

// GetSecret re-reads the file on every call
func (m *localSecretManager) GetSecret(ctx context.Context, name string) (*ports.Secret, error) {
	info, err := os.Stat(m.path)
	if err != nil {
		return nil, fmt.Errorf("secrets file %s: %w", m.path, err)
	}
	values, err := godotenv.Read(m.path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse secrets file %s: %w", m.path, err)
	}

	key := EnvName(name)
	value := values[key]
	if value == "" {
		return nil, fmt.Errorf("secret not found: %s (key %s in %s)", name, key, m.path)
	}

	m.logger.Debug("Secret read from local file",
		zap.String("name", name),
		zap.String("key", key),
	)

	return &ports.Secret{
		Value:   value,
		Version: info.ModTime().UTC().Format(time.RFC3339),
	}, nil
}
