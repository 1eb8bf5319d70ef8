package middleware

import (
	"context"
	"net/http"
	"strings"
)

// Deadline bounds each request's context with create. Paths under an exempt prefix keep
// the incoming context and are expected to set their own budget.
func Deadline(create func(context.Context) (context.Context, context.CancelFunc), next http.Handler, exempt ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range exempt {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		ctx, cancel := create(r.Context())
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
