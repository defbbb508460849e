package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Pratikmahatara/Shoe/pkg/httputil"
	"github.com/Pratikmahatara/Shoe/pkg/logger"
	"github.com/Pratikmahatara/Shoe/pkg/middleware"
)

// CartCookie holds the cart id of browser surfaces.
const CartCookie = "cart_id"

// CartIDConfig controls how minted cart ids are handed back to browsers.
type CartIDConfig struct {
	CookieMaxAge time.Duration
	SecureCookie bool
}

// CartID resolves the shopper's cart id from the X-Cart-ID header, then the
// cart_id cookie, and mints a new one when neither is present. The id only
// names a slot; it is not an authentication token. A malformed header is
// rejected, a malformed cookie is replaced.
func CartID(cfg CartIDConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := resolveCartID(r)
			if !ok {
				httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "INVALID_INPUT",
						Message: middleware.CartIDHeader + " must be a UUID",
					},
				})
				return
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     CartCookie,
					Value:    id,
					Path:     "/",
					MaxAge:   int(cfg.CookieMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   cfg.SecureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Set(middleware.CartIDHeader, id)

			ctx := r.Context()
			if logger.CartIDFromContext(ctx) != id {
				ctx = logger.WithCartID(ctx, id)
				ctx = logger.NewContext(ctx, logger.FromContext(ctx).With(slog.String("cart_id", id)))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolveCartID returns "" with ok when a new id must be minted, and ok
// false when the header is malformed.
func resolveCartID(r *http.Request) (string, bool) {
	if h := strings.TrimSpace(r.Header.Get(middleware.CartIDHeader)); h != "" {
		if _, err := uuid.Parse(h); err != nil {
			return "", false
		}
		return h, true
	}
	if c, err := r.Cookie(CartCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value, true
		}
	}
	return "", true
}

// cartIDFromRequest returns the id stored by CartID.
func cartIDFromRequest(r *http.Request) string {
	return logger.CartIDFromContext(r.Context())
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNSUPPORTED_MEDIA_TYPE", Message: "Content-Type must be application/json"},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
