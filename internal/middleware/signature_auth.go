package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"

	"github.com/kevin07696/settlement-service/internal/handlers"
	pkgmiddleware "github.com/kevin07696/settlement-service/pkg/middleware"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw webhook body
const SignatureHeader = "X-Gateway-Signature"

// maxWebhookBytes caps the body read for signature verification
const maxWebhookBytes = 1 << 20

// SignatureAuth verifies payment gateway webhook signatures
type SignatureAuth struct {
	secret []byte
	logger *zap.Logger
}

// NewSignatureAuth creates a webhook authenticator for the shared HMAC secret
func NewSignatureAuth(secret string, logger *zap.Logger) *SignatureAuth {
	return &SignatureAuth{
		secret: []byte(secret),
		logger: logger,
	}
}

// Sign returns the signature the gateway sends for body
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Wrap rejects requests whose signature does not match the body. The body is restored
// for the next handler.
func (a *SignatureAuth) Wrap(next runtime.HandlerFunc) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		// Anyone can compute an HMAC under an empty key
		if len(a.secret) == 0 {
			a.logger.Warn("Webhook rejected, no signing secret configured",
				zap.String("client_ip", pkgmiddleware.ClientIP(r)),
				zap.String("path", r.URL.Path))
			handlers.WriteUnauthorized(w, a.logger)
			return
		}

		signature := strings.TrimPrefix(r.Header.Get(SignatureHeader), "sha256=")
		if signature == "" {
			a.logger.Warn("Webhook missing signature",
				zap.String("client_ip", pkgmiddleware.ClientIP(r)),
				zap.String("path", r.URL.Path))
			handlers.WriteUnauthorized(w, a.logger)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
		if err != nil {
			a.logger.Error("Failed to read webhook body", zap.Error(err))
			handlers.WriteBadRequest(w, a.logger, "unreadable body")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		expected := Sign(string(a.secret), body)
		if !hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected)) {
			a.logger.Warn("Webhook signature verification failed",
				zap.String("client_ip", pkgmiddleware.ClientIP(r)),
				zap.String("path", r.URL.Path))
			handlers.WriteUnauthorized(w, a.logger)
			return
		}

		next(w, r, params)
	}
}
