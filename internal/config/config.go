package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/Pratikmahatara/Shoe/pkg/config"
)

// Cart slot backends.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort              int `env:"STOREFRONT_HTTP_PORT" envDefault:"8010"`
	RequestTimeoutSeconds int `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"30"`

	// InstanceID names this replica in cart events. Empty means one is
	// generated at startup.
	InstanceID string `env:"STOREFRONT_INSTANCE_ID"`

	// Cart slots
	CartBackend  string `env:"CART_BACKEND" envDefault:"redis"`
	CartTTL      int    `env:"CART_TTL_HOURS" envDefault:"168"`
	CookieSecure bool   `env:"CART_COOKIE_SECURE" envDefault:"false"`

	// Redis
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass     string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`

	// Slow command logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"100"`

	// Upstream APIs
	CatalogAPIURL          string `env:"CATALOG_API_URL" envDefault:"http://127.0.0.1:8000/api"`
	OrderAPIURL            string `env:"ORDER_API_URL" envDefault:"http://127.0.0.1:8000/api"`
	MediaBaseURL           string `env:"MEDIA_BASE_URL" envDefault:"http://127.0.0.1:8000"`
	UpstreamTimeoutSeconds int    `env:"UPSTREAM_TIMEOUT_SECONDS" envDefault:"10"`
	CatalogCacheMaxAge     int    `env:"CATALOG_CACHE_MAX_AGE" envDefault:"60"`

	// Circuit breaker settings for upstream calls
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Kafka
	KafkaBrokers      []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	CartEventsEnabled bool     `env:"CART_EVENTS_ENABLED" envDefault:"false"`

	// Checkout
	CheckoutSessionLimit int `env:"CHECKOUT_SESSION_LIMIT" envDefault:"10000"`

	// Event streams
	SSEHeartbeatSeconds int `env:"SSE_HEARTBEAT_SECONDS" envDefault:"15"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// CORS
	CORSAllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	CORSAllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg, err := pkgconfig.Load[Config]()
	if err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.CartBackend {
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis cart backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("CART_BACKEND must be %q or %q, got %q", BackendRedis, BackendMemory, c.CartBackend)
	}
	if c.CartTTL < 0 {
		return fmt.Errorf("CART_TTL_HOURS must not be negative, got %d", c.CartTTL)
	}
	if c.CartEventsEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when CART_EVENTS_ENABLED is set")
	}
	if c.CheckoutSessionLimit < 1 {
		return fmt.Errorf("CHECKOUT_SESSION_LIMIT must be positive, got %d", c.CheckoutSessionLimit)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	for name, rawURL := range map[string]string{
		"CATALOG_API_URL": c.CatalogAPIURL,
		"ORDER_API_URL":   c.OrderAPIURL,
	} {
		if rawURL == "" {
			return fmt.Errorf("%s is required", name)
		}
		if _, err := url.ParseRequestURI(rawURL); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, rawURL, err)
		}
	}
	return nil
}

// CartTTLDuration is the sliding expiry of a cart slot. Zero keeps slots
// forever.
func (c *Config) CartTTLDuration() time.Duration {
	return time.Duration(c.CartTTL) * time.Hour
}

// UpstreamTimeout bounds each call to the catalog and order APIs.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.UpstreamTimeoutSeconds) * time.Second
}

// RequestTimeout bounds non-streaming HTTP handlers.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// SSEHeartbeat is the comment interval on idle event streams.
func (c *Config) SSEHeartbeat() time.Duration {
	return time.Duration(c.SSEHeartbeatSeconds) * time.Second
}
