package middleware

import (
	"context"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
)

// RouteMiddleware wraps a single gateway route
type RouteMiddleware func(runtime.HandlerFunc) runtime.HandlerFunc

// Chain applies mws so the first one runs outermost
func Chain(mws ...RouteMiddleware) RouteMiddleware {
	return func(next runtime.HandlerFunc) runtime.HandlerFunc {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

// WithContext runs the route under the context create derives from the request's
func WithContext(create func(context.Context) (context.Context, context.CancelFunc)) RouteMiddleware {
	return func(next runtime.HandlerFunc) runtime.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request, params map[string]string) {
			ctx, cancel := create(r.Context())
			defer cancel()
			next(w, r.WithContext(ctx), params)
		}
	}
}
