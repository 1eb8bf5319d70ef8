package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/adapters/ports"
)

// envSecretManager reads secrets from the process environment
type envSecretManager struct {
	logger *zap.Logger
}

// NewEnvSecretManager creates a secret manager backed by environment variables
func NewEnvSecretManager(logger *zap.Logger) ports.SecretManagerAdapter {
	return &envSecretManager{logger: logger}
}

var envNameReplacer = strings.NewReplacer("/", "_", "-", "_", ".", "_")

// EnvName maps a secret path to the environment variable that holds it
func EnvName(path string) string {
	return strings.ToUpper(envNameReplacer.Replace(strings.Trim(path, "/")))
}

func (m *envSecretManager) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	name := EnvName(path)
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return nil, fmt.Errorf("secret not found: %s (env %s)", path, name)
	}
	m.logger.Debug("Secret read from environment", zap.String("env", name))
	return &ports.Secret{Value: value, Version: "env"}, nil
}
