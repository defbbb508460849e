package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Pratikmahatara/Shoe/internal/cart"
	"github.com/Pratikmahatara/Shoe/internal/checkout"
	"github.com/Pratikmahatara/Shoe/pkg/health"
	"github.com/Pratikmahatara/Shoe/pkg/middleware"
)

const serviceName = "storefront"

// RouterConfig carries the dependencies and settings of the HTTP surface.
type RouterConfig struct {
	Registry *cart.Registry
	Catalog  Catalog
	Checkout *checkout.Manager
	Health   *health.Handler
	Logger   *slog.Logger

	CORS           middleware.CORSConfig
	CartID         CartIDConfig
	PprofCIDRs     []string
	RequestTimeout time.Duration
	CatalogMaxAge  int
	Heartbeat      time.Duration
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	logger := cfg.Logger

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(middleware.RequestLogging(logger, "/health/live", "/health/ready", "/metrics"))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	catalogHandler := NewCatalogHandler(cfg.Catalog, logger)
	cartHandler := NewCartHandler(cfg.Registry, cfg.Catalog, logger)
	eventsHandler := NewEventsHandler(cfg.Registry, cfg.Heartbeat, logger)
	checkoutHandler := NewCheckoutHandler(cfg.Checkout, logger)

	r.Route("/api/v1", func(r chi.Router) {
		// Event streams are long-lived and stay outside the request timeout.
		r.Group(func(r chi.Router) {
			r.Use(CartID(cfg.CartID))
			r.Use(middleware.NoStore)
			r.Get("/cart/events", eventsHandler.Stream)
		})

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(cfg.RequestTimeout))

			r.Route("/catalog", func(r chi.Router) {
				r.Use(middleware.CacheControl(cfg.CatalogMaxAge))

				r.Get("/categories", catalogHandler.ListCategories)
				r.Get("/categories/{slug}/products", catalogHandler.CategoryProducts)
				r.Get("/brands", catalogHandler.ListBrands)
				r.Get("/products", catalogHandler.ListProducts)
				r.Get("/products/{id}", catalogHandler.GetProduct)
			})

			r.Group(func(r chi.Router) {
				r.Use(ContentTypeJSON)
				r.Use(CartID(cfg.CartID))
				r.Use(middleware.NoStore)

				r.Get("/cart", cartHandler.GetCart)
				r.Delete("/cart", cartHandler.ClearCart)
				r.Get("/cart/count", cartHandler.GetCount)
				r.Post("/cart/items", cartHandler.AddItem)
				r.Put("/cart/items", cartHandler.UpdateItem)
				r.Delete("/cart/items", cartHandler.RemoveItem)

				r.Get("/checkout", checkoutHandler.GetCheckout)
				r.Post("/checkout", checkoutHandler.Submit)
				r.Delete("/checkout", checkoutHandler.CloseCheckout)
			})
		})
	})

	return r
}
