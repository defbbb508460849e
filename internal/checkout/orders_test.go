package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pratikmahatara/Shoe/internal/domain"
	"github.com/Pratikmahatara/Shoe/pkg/httpclient"
)

func newOrderClient(url string) *OrderClient {
	cfg := httpclient.NoRetryConfig()
	cfg.Timeout = 5 * time.Second
	cb := httpclient.NewCircuitBreakerClient(httpclient.New(cfg), httpclient.DefaultCircuitBreakerConfig("orders-test"), quietLogger())
	return NewOrderClient(cb, url+"/api/", quietLogger())
}

func sampleOrder() domain.OrderRequest {
	return domain.BuildOrderRequest(validForm, []domain.LineItem{{
		Product:       domain.Product{ID: 7, Price: "109.99"},
		Quantity:      2,
		SelectedSize:  domain.NumberSize(10),
		SelectedColor: "black",
	}})
}

func TestPlaceOrder_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/orders/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ada", body["first_name"])
		items := body["items"].([]any)
		assert.Equal(t, "10", items[0].(map[string]any)["size"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":42,"status":"pending"}`))
	}))
	defer server.Close()

	conf, err := newOrderClient(server.URL).PlaceOrder(context.Background(), sampleOrder())
	require.NoError(t, err)
	assert.Equal(t, int64(42), conf.ID)
}

func TestPlaceOrder_RejectedKeepsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"email":["Enter a valid email address."]}`))
	}))
	defer server.Close()

	_, err := newOrderClient(server.URL).PlaceOrder(context.Background(), sampleOrder())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOrderRejected))

	var respErr *httpclient.ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, http.StatusBadRequest, respErr.Status)
	assert.JSONEq(t, `{"email":["Enter a valid email address."]}`, string(respErr.Body))
}

func TestPlaceOrder_ServerErrorIsRejectedAndNotRetried(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newOrderClient(server.URL).PlaceOrder(context.Background(), sampleOrder())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOrderRejected))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestPlaceOrder_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newOrderClient(url).PlaceOrder(context.Background(), sampleOrder())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOrderUnavailable))
	assert.False(t, errors.Is(err, ErrOrderRejected))
}

func TestPlaceOrder_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	_, err := newOrderClient(server.URL).PlaceOrder(context.Background(), sampleOrder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode order response")
}
