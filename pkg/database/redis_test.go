package database

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func testConfig(addr string) RedisConfig {
	cfg := DefaultRedisConfig()
	cfg.Addr = addr
	return cfg
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), testConfig(mr.Addr()))
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(addr)
	cfg.DialTimeout = 200 * time.Millisecond
	_, err := NewRedisClient(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), addr)
}

func TestTracingHook_RecordsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})

	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), testConfig(mr.Addr()), NewTracingHook(0, nil))
	require.NoError(t, err)
	defer client.Close()

	exporter.Reset()
	ctx := context.Background()
	require.ErrorIs(t, client.Get(ctx, "missing").Err(), redis.Nil)

	_, err = client.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, "a", "1", 0)
		p.Expire(ctx, "a", time.Hour)
		return nil
	})
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "redis.get", spans[0].Name)
	assert.Equal(t, "Unset", spans[0].Status.Code.String(), "a missing key is not an error")
	assert.Equal(t, "redis.pipeline", spans[1].Name)
}

func TestTracingHook_LogsSlowCommands(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), testConfig(mr.Addr()), NewTracingHook(time.Nanosecond, logger))
	require.NoError(t, err)
	defer client.Close()

	buf.Reset()
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	assert.True(t, strings.Contains(buf.String(), "slow redis command"))
	assert.Contains(t, buf.String(), `"operation":"set"`)
}

func TestPoolStatsCollector(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), testConfig(mr.Addr()))
	require.NoError(t, err)
	defer client.Close()

	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterPoolMetrics(reg, client, "storefront"))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 6)

	assert.Error(t, RegisterPoolMetrics(reg, client, "storefront"), "duplicate registration is rejected")
}
