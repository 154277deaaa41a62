// Package middleware binds owslog to a web request lifecycle: every request
// gets a correlation id (propagated from the Correlation-Id header or
// freshly generated) and a request-scoped Adapter carrying it, available
// from the request context for the lifetime of that request.
package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/orchardws/owslog/core"
)

// CorrelationHeader is the request and response header carrying the
// correlation id.
const CorrelationHeader = "Correlation-Id"

// correlationField is the payload key the id is bound under.
const correlationField = "correlation_id"

// contextKey is the private type for request-context values.
type contextKey string

const (
	adapterKey       contextKey = "owslog_adapter"
	correlationIDKey contextKey = "owslog_correlation_id"
)

// RequestLogging returns a middleware that derives a per-request Adapter
// from base. The correlation id is taken from the Correlation-Id request
// header when present, otherwise generated, and is echoed on the response
// so callers can reference it.
func RequestLogging(base *core.BaseLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			correlationID := r.Header.Get(CorrelationHeader)
			generated := correlationID == ""
			if generated {
				correlationID = uuid.NewString()
			}

			adapter := base.WithBindings(core.Fields{correlationField: correlationID})
			if generated {
				adapter.Info("Correlation-Id created")
			} else {
				adapter.Info("Correlation-Id received")
			}

			w.Header().Set(CorrelationHeader, correlationID)

			ctx := context.WithValue(r.Context(), adapterKey, adapter)
			ctx = context.WithValue(ctx, correlationIDKey, correlationID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// InstallRequestLogging registers RequestLogging on a chi router.
func InstallRequestLogging(r chi.Router, base *core.BaseLogger) {
	r.Use(RequestLogging(base))
}

// FromContext returns the request-scoped Adapter installed by
// RequestLogging.
func FromContext(ctx context.Context) (*core.Adapter, bool) {
	adapter, ok := ctx.Value(adapterKey).(*core.Adapter)
	return adapter, ok
}

// CorrelationID returns the request's correlation id.
func CorrelationID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(correlationIDKey).(string)
	return id, ok
}
