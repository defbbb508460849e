package middleware

import (
	"log/slog"
	"net/http"

	"github.com/Pratikmahatara/Shoe/pkg/logger"
)

// CartIDHeader names the header a client may use to present its cart id.
const CartIDHeader = "X-Cart-ID"

// RequestLogger stores a request-scoped logger in the context, enriched with
// correlation_id, cart_id, trace_id and span_id. Handlers fetch it with
// logger.FromContext.
//
// Mount it after RequestLogging and Tracing so those fields are present.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if logger.CartIDFromContext(ctx) == "" {
				if cartID := r.Header.Get(CartIDHeader); cartID != "" {
					ctx = logger.WithCartID(ctx, cartID)
				}
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
