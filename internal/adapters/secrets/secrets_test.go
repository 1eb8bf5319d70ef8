package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/adapters/ports"
)

func TestEnvName(t *testing.T) {
	assert.Equal(t, "SETTLEMENT_SERVICE_WEBHOOK", EnvName("settlement-service/webhook"))
	assert.Equal(t, "GATEWAY_WEBHOOK_SECRET", EnvName("GATEWAY_WEBHOOK_SECRET"))
	assert.Equal(t, "DB_PASSWORD", EnvName("/db.password/"))
}

func TestEnvSecretManager(t *testing.T) {
	t.Setenv("SETTLEMENT_WEBHOOK", "s3cret")
	sm := NewEnvSecretManager(zap.NewNop())

	secret, err := sm.GetSecret(context.Background(), "settlement/webhook")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", secret.Value)

	_, err = sm.GetSecret(context.Background(), "missing/secret")
	assert.ErrorContains(t, err, "MISSING_SECRET")
}

func TestLocalSecretManager(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.env")
	require.NoError(t, os.WriteFile(path, []byte(
		"GATEWAY_WEBHOOK_SECRET=whsec\n"+
			"# rotated 2025-01-01\n"+
			"SETTLEMENT_SERVICE_ADMIN=\"quoted value\"\n"), 0600))

	sm := NewLocalSecretManager(path, zap.NewNop())
	ctx := context.Background()

	secret, err := sm.GetSecret(ctx, "GATEWAY_WEBHOOK_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "whsec", secret.Value)
	assert.NotEmpty(t, secret.Version)

	secret, err = sm.GetSecret(ctx, "settlement-service/admin")
	require.NoError(t, err)
	assert.Equal(t, "quoted value", secret.Value)

	_, err = sm.GetSecret(ctx, "cron")
	assert.ErrorContains(t, err, "key CRON")

	_, err = NewLocalSecretManager(filepath.Join(t.TempDir(), "absent.env"), zap.NewNop()).GetSecret(ctx, "cron")
	assert.Error(t, err)
}

func TestSecretCache_Expires(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newSecretCache(time.Minute)
	c.now = func() time.Time { return now }

	c.set("k", &ports.Secret{Value: "v"})
	assert.NotNil(t, c.get("k"))

	now = now.Add(2 * time.Minute)
	assert.Nil(t, c.get("k"))

	disabled := newSecretCache(0)
	disabled.set("k", &ports.Secret{Value: "v"})
	assert.Nil(t, disabled.get("k"))
}

type fakeSecretsManager struct {
	calls int
	out   *secretsmanager.GetSecretValueOutput
	err   error
}

func (f *fakeSecretsManager) GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	return f.out, f.err
}

func TestAWSSecretsManager_CachesValue(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	fake := &fakeSecretsManager{out: &secretsmanager.GetSecretValueOutput{
		ARN:          aws.String("arn:aws:secretsmanager:ap-south-1:1:secret:webhook"),
		Name:         aws.String("settlement-service/webhook"),
		SecretString: aws.String("whsec"),
		VersionId:    aws.String("v7"),
		CreatedDate:  &created,
	}}
	sm := newAWSSecretsManagerAdapter(fake, DefaultAWSSecretsManagerConfig("ap-south-1"), zap.NewNop())

	for i := 0; i < 3; i++ {
		secret, err := sm.GetSecret(context.Background(), "settlement-service/webhook")
		require.NoError(t, err)
		assert.Equal(t, "whsec", secret.Value)
		assert.Equal(t, "v7", secret.Version)
	}
	assert.Equal(t, 1, fake.calls)
}

func TestAWSSecretsManager_Errors(t *testing.T) {
	sm := newAWSSecretsManagerAdapter(&fakeSecretsManager{err: errors.New("AccessDenied")},
		DefaultAWSSecretsManagerConfig("ap-south-1"), zap.NewNop())
	_, err := sm.GetSecret(context.Background(), "x")
	assert.ErrorContains(t, err, "AccessDenied")

	sm = newAWSSecretsManagerAdapter(&fakeSecretsManager{out: &secretsmanager.GetSecretValueOutput{}},
		DefaultAWSSecretsManagerConfig("ap-south-1"), zap.NewNop())
	_, err = sm.GetSecret(context.Background(), "binary")
	assert.ErrorContains(t, err, "no string value")
}

func TestVaultAdapter_KVv2(t *testing.T) {
	var reads int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "root-token", r.Header.Get("X-Vault-Token"))
		if r.URL.Path != "/v1/secret/data/settlement-service/webhook" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		reads++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"data":     map[string]interface{}{"value": "whsec", "owner": "payments"},
				"metadata": map[string]interface{}{"version": 3, "created_time": "2025-01-01T00:00:00Z"},
			},
		})
	}))
	defer server.Close()

	cfg := DefaultVaultConfig(server.URL)
	cfg.Token = "root-token"
	sm, err := NewVaultAdapter(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	secret, err := sm.GetSecret(context.Background(), "settlement-service/webhook")
	require.NoError(t, err)
	assert.Equal(t, "whsec", secret.Value)
	assert.Equal(t, "3", secret.Version)

	_, err = sm.GetSecret(context.Background(), "settlement-service/webhook")
	require.NoError(t, err)
	assert.Equal(t, 1, reads, "second read is served from cache")

	_, err = sm.GetSecret(context.Background(), "unknown")
	assert.Error(t, err)
}

func TestAuthenticateVault_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  VaultConfig
		want string
	}{
		{"no_credentials", VaultConfig{}, "token or an AppRole"},
		{"role_without_secret", VaultConfig{RoleID: "settlement"}, "token or an AppRole"},
		{"secret_without_role", VaultConfig{SecretID: "s"}, "token or an AppRole"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := authenticateVault(context.Background(), nil, &tt.cfg)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestNewSecretManager(t *testing.T) {
	ctx := context.Background()

	sm, err := NewSecretManager(ctx, Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &envSecretManager{}, sm)

	sm, err = NewSecretManager(ctx, Config{Backend: BackendLocal, LocalPath: filepath.Join(t.TempDir(), "secrets.env")}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &localSecretManager{}, sm)

	_, err = NewSecretManager(ctx, Config{Backend: "gcp"}, zap.NewNop())
	assert.ErrorContains(t, err, "unsupported secret manager")
}

func TestResolve(t *testing.T) {
	t.Setenv("ADMIN_API_SECRET", "from-env")
	sm := NewEnvSecretManager(zap.NewNop())
	ctx := context.Background()

	v, err := Resolve(ctx, sm, "", "literal")
	require.NoError(t, err)
	assert.Equal(t, "literal", v)

	v, err = Resolve(ctx, sm, "ADMIN_API_SECRET", "literal")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)

	_, err = Resolve(ctx, sm, "NOPE", "literal")
	assert.Error(t, err)
}
