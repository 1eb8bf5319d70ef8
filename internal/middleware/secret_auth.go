package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/handlers"
	pkgmiddleware "github.com/kevin07696/settlement-service/pkg/middleware"
)

// SharedSecretAuth guards operator and scheduler routes with a pre-shared token, sent either
// in a dedicated header or as a bearer token
type SharedSecretAuth struct {
	header string
	secret []byte
	logger *zap.Logger
}

// NewSharedSecretAuth creates an authenticator reading the token from header
func NewSharedSecretAuth(header, secret string, logger *zap.Logger) *SharedSecretAuth {
	return &SharedSecretAuth{
		header: header,
		secret: []byte(secret),
		logger: logger,
	}
}

// Authenticate reports whether r carries the shared secret. An empty secret rejects everything.
func (a *SharedSecretAuth) Authenticate(r *http.Request) bool {
	if len(a.secret) == 0 {
		return false
	}
	token := r.Header.Get(a.header)
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	return subtle.ConstantTimeCompare([]byte(token), a.secret) == 1
}

// Wrap rejects unauthenticated requests with 401
func (a *SharedSecretAuth) Wrap(next runtime.HandlerFunc) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		if !a.Authenticate(r) {
			a.logger.Warn("Unauthorized request",
				zap.String("client_ip", pkgmiddleware.ClientIP(r)),
				zap.String("path", r.URL.Path))
			handlers.WriteUnauthorized(w, a.logger)
			return
		}
		next(w, r, params)
	}
}
