package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/Pratikmahatara/Shoe/internal/cart"
	"github.com/Pratikmahatara/Shoe/internal/catalog"
	"github.com/Pratikmahatara/Shoe/internal/checkout"
	"github.com/Pratikmahatara/Shoe/internal/config"
	"github.com/Pratikmahatara/Shoe/internal/event"
	handler "github.com/Pratikmahatara/Shoe/internal/handler/http"
	"github.com/Pratikmahatara/Shoe/internal/repository"
	"github.com/Pratikmahatara/Shoe/internal/repository/memory"
	redisrepo "github.com/Pratikmahatara/Shoe/internal/repository/redis"
	"github.com/Pratikmahatara/Shoe/pkg/database"
	"github.com/Pratikmahatara/Shoe/pkg/health"
	"github.com/Pratikmahatara/Shoe/pkg/httpclient"
	pkgkafka "github.com/Pratikmahatara/Shoe/pkg/kafka"
	"github.com/Pratikmahatara/Shoe/pkg/middleware"
	"github.com/Pratikmahatara/Shoe/pkg/tracing"
)

const serviceName = "storefront"

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	instanceID     string
	redis          *redis.Client
	producer       *pkgkafka.Producer
	consumer       *pkgkafka.Consumer
	checkout       *checkout.Manager
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	a := &App{
		cfg:            cfg,
		logger:         logger,
		instanceID:     instanceID(cfg),
		tracerShutdown: tracerShutdown,
	}
	logger = logger.With(slog.String("instance_id", a.instanceID))
	a.logger = logger

	slots, err := a.newCartSlots(ctx)
	if err != nil {
		return nil, err
	}

	// Cart events. The producer doubles as the cart change notifier and
	// the checkout completion notifier; the consumer relays changes made
	// on other replicas to local streams.
	hub := cart.NewHub()
	var (
		registryOpts []cart.Option
		completion   checkout.CompletionNotifier
	)
	if cfg.CartEventsEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		events := event.NewProducer(a.producer, a.instanceID, logger)
		registryOpts = append(registryOpts, cart.WithNotifier(events))
		completion = events

		seen, err := pkgkafka.NewLRUIdempotencyStore(10000, 10*time.Minute)
		if err != nil {
			return nil, fmt.Errorf("create idempotency store: %w", err)
		}
		fanOut := event.NewFanOut(hub, a.instanceID, logger)
		a.consumer = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:       cfg.KafkaBrokers,
			GroupID:       event.GroupID(a.instanceID),
			Topic:         event.TopicCartUpdated,
			MinBytes:      1,
			MaxBytes:      1 << 20,
			StartAtLatest: true,
		}, fanOut.Handler(seen), logger)
		logger.Info("cart events enabled", slog.Any("brokers", cfg.KafkaBrokers))
	}

	registry := cart.NewRegistry(slots, hub, logger, registryOpts...)

	// Upstream clients. Catalog reads are idempotent and retried; order
	// creation is never retried so a slow response cannot place a second
	// order. Both sit behind their own circuit breaker.
	catalogHTTP := httpclient.New(httpclient.Config{
		Timeout:         cfg.UpstreamTimeout(),
		MaxRetries:      3,
		RetryWaitMin:    200 * time.Millisecond,
		RetryWaitMax:    2 * time.Second,
		MaxConnsPerHost: 100,
	})
	catalogClient := catalog.NewClient(
		httpclient.NewCircuitBreakerClient(catalogHTTP, a.breakerConfig("catalog"), logger),
		cfg.CatalogAPIURL, cfg.MediaBaseURL, logger,
	)

	orderCfg := httpclient.NoRetryConfig()
	orderCfg.Timeout = cfg.UpstreamTimeout()
	orderClient := checkout.NewOrderClient(
		httpclient.NewCircuitBreakerClient(httpclient.New(orderCfg), a.breakerConfig("orders"), logger),
		cfg.OrderAPIURL, logger,
	)

	a.checkout, err = checkout.NewManager(registry, orderClient, completion, cfg.CheckoutSessionLimit, logger)
	if err != nil {
		a.closeBackends()
		return nil, fmt.Errorf("create checkout manager: %w", err)
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("cart_slots", registry.Ping)
	healthHandler.RegisterOptional("catalog", catalogClient.Ping)
	if a.producer != nil {
		healthHandler.RegisterOptional("kafka", a.producer.Ping)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	cors.AllowCredentials = cfg.CORSAllowCredentials
	cors.Environment = cfg.Environment

	router := handler.NewRouter(handler.RouterConfig{
		Registry:       registry,
		Catalog:        catalogClient,
		Checkout:       a.checkout,
		Health:         healthHandler,
		Logger:         logger,
		CORS:           cors,
		CartID:         handler.CartIDConfig{CookieMaxAge: cfg.CartTTLDuration(), SecureCookie: cfg.CookieSecure},
		PprofCIDRs:     cfg.PprofAllowedCIDRs,
		RequestTimeout: cfg.RequestTimeout(),
		CatalogMaxAge:  cfg.CatalogCacheMaxAge,
		Heartbeat:      cfg.SSEHeartbeat(),
	})

	// Event streams hang off streamCtx so shutdown can end them; the
	// server would otherwise wait on them until its drain budget runs out.
	streamCtx, stopStreams := context.WithCancel(context.Background())
	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		BaseContext:       func(net.Listener) context.Context { return streamCtx },
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout() + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.httpServer.RegisterOnShutdown(stopStreams)

	return a, nil
}

// newCartSlots opens the configured slot backend.
func (a *App) newCartSlots(ctx context.Context) (repository.CartSlots, error) {
	if a.cfg.CartBackend == config.BackendMemory {
		a.logger.Warn("using in-memory cart slots; carts are lost on restart and not shared between replicas")
		return memory.NewCartSlots(), nil
	}

	redisCfg := database.DefaultRedisConfig()
	redisCfg.Addr = a.cfg.RedisAddr
	redisCfg.Password = a.cfg.RedisPass
	redisCfg.DB = a.cfg.RedisDB
	redisCfg.PoolSize = a.cfg.RedisPoolSize

	hook := database.NewTracingHook(time.Duration(a.cfg.SlowQueryThresholdMs)*time.Millisecond, a.logger)
	client, err := database.NewRedisClient(ctx, redisCfg, hook)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = client
	a.logger.Info("connected to Redis",
		slog.String("addr", a.cfg.RedisAddr),
		slog.Int("db", a.cfg.RedisDB),
		slog.Duration("cart_ttl", a.cfg.CartTTLDuration()),
	)

	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, client, serviceName); err != nil {
		var dup prometheus.AlreadyRegisteredError
		if !errors.As(err, &dup) {
			a.logger.Warn("redis pool metrics not registered", slog.String("error", err.Error()))
		}
	}

	return redisrepo.NewCartSlots(client, a.cfg.CartTTLDuration()), nil
}

func (a *App) breakerConfig(name string) httpclient.CircuitBreakerConfig {
	return httpclient.CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  a.cfg.CBMaxRequests,
		Interval:     time.Duration(a.cfg.CBInterval) * time.Second,
		Timeout:      time.Duration(a.cfg.CBTimeout) * time.Second,
		FailureRatio: a.cfg.CBFailureRatio,
		MinRequests:  a.cfg.CBMinRequests,
	}
}

// instanceID returns the configured replica id, else hostname plus a
// random suffix so restarted pods get fresh consumer groups.
func instanceID(cfg *config.Config) string {
	if cfg.InstanceID != "" {
		return cfg.InstanceID
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = serviceName
	}
	return host + "-" + uuid.NewString()[:8]
}

// Handler exposes the HTTP surface.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("cart event consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (end event streams, drain in-flight requests)
// 2. Checkout sessions (drop results of submissions still in flight)
// 3. Tracer (flush pending spans from drained requests)
// 4. Kafka consumer and producer
// 5. Redis client
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (5s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Tear down checkout sessions.
	a.checkout.Shutdown()

	// 3. Flush pending spans after HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 4 and 5.
	errs = append(errs, a.closeBackends()...)

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

func (a *App) closeBackends() []error {
	var errs []error
	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	return errs
}
