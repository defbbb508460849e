package database

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/Pratikmahatara/Shoe/pkg/database"

// TracingHook is a go-redis hook that wraps every command in a client span
// and logs commands slower than SlowThreshold. A zero threshold disables
// slow-command logging.
type TracingHook struct {
	SlowThreshold time.Duration
	Logger        *slog.Logger
	tracer        trace.Tracer
}

var _ redis.Hook = (*TracingHook)(nil)

// NewTracingHook creates a hook. logger may be nil when slow logging is off.
func NewTracingHook(slowThreshold time.Duration, logger *slog.Logger) *TracingHook {
	return &TracingHook{
		SlowThreshold: slowThreshold,
		Logger:        logger,
		tracer:        otel.Tracer(tracerName),
	}
}

func (h *TracingHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *TracingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		ctx, end := h.start(ctx, "redis."+cmd.Name(), cmd.Name(), 1)
		err := next(ctx, cmd)
		end(cmdErr(err))
		return err
	}
}

func (h *TracingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		ctx, end := h.start(ctx, "redis.pipeline", "pipeline", len(cmds))
		err := next(ctx, cmds)
		end(cmdErr(err))
		return err
	}
}

func (h *TracingHook) start(ctx context.Context, spanName, operation string, n int) (context.Context, func(error)) {
	begin := time.Now()
	ctx, span := h.tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "redis"),
			attribute.String("db.operation", operation),
			attribute.Int("db.redis.num_cmd", n),
		),
	)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		if h.SlowThreshold <= 0 || h.Logger == nil {
			return
		}
		if elapsed := time.Since(begin); elapsed >= h.SlowThreshold {
			attrs := []any{
				slog.String("operation", operation),
				slog.Duration("duration", elapsed),
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}
			h.Logger.WarnContext(ctx, "slow redis command", attrs...)
		}
	}
}

// cmdErr hides redis.Nil, which signals a missing key rather than a failure.
func cmdErr(err error) error {
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
