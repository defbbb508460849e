package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pratikmahatara/Shoe/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.InstanceID = "test-replica"
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewApp_MemoryBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.CartBackend = config.BackendMemory

	a, err := NewApp(cfg, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	assert.Nil(t, a.redis)
	assert.Nil(t, a.producer)
	assert.Nil(t, a.consumer)
	assert.Equal(t, "test-replica", a.instanceID)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Cart-ID"))
}

func TestNewApp_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.RedisAddr = mr.Addr()

	a, err := NewApp(cfg, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })
	require.NotNil(t, a.redis)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	// The catalog is unreachable but optional, so the service is degraded
	// rather than down.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"cart_slots"`)
}

func TestNewApp_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t)
	cfg.RedisAddr = addr

	_, err := NewApp(cfg, quietLogger())
	assert.ErrorContains(t, err, "connect to redis")
}

func TestNewApp_EventsEnabledWiresFanOut(t *testing.T) {
	cfg := testConfig(t)
	cfg.CartBackend = config.BackendMemory
	cfg.CartEventsEnabled = true
	cfg.KafkaBrokers = []string{"127.0.0.1:1"}

	a, err := NewApp(cfg, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })

	assert.NotNil(t, a.producer)
	assert.NotNil(t, a.consumer)
}

func TestInstanceID_Generated(t *testing.T) {
	cfg := &config.Config{}
	a, b := instanceID(cfg), instanceID(cfg)
	assert.NotEqual(t, a, b)

	cfg.InstanceID = "pod-1"
	assert.Equal(t, "pod-1", instanceID(cfg))
}
