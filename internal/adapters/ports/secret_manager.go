package ports

import (
	"context"
)

// Secret is a resolved secret value
type Secret struct {
	Value   string
	Version string
}

// SecretManagerAdapter resolves the webhook, admin, cron and database secrets at startup.
// Remote backends cache values for a TTL.
type SecretManagerAdapter interface {
	// GetSecret retrieves a secret by name. Naming per backend:
	//   - Env and local file: "settlement-service/webhook" reads SETTLEMENT_SERVICE_WEBHOOK
	//   - AWS: secret name or full ARN
	//   - Vault: path under the configured KV v2 mount
	GetSecret(ctx context.Context, name string) (*Secret, error)
}
