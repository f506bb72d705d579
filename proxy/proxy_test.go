package proxy

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildRoutes(t *testing.T) {
	t.Run("orders longest prefix first", func(t *testing.T) {
		routes, err := BuildRoutes([]RouteDef{
			{Prefix: "/api", Upstream: "http://localhost:3001", Service: "a"},
			{Prefix: "/api/orders/customer", Upstream: "http://localhost:3003", Service: "c"},
			{Prefix: "/api/orders", Upstream: "http://localhost:3002", Service: "b"},
		})
		require.NoError(t, err)
		assert.Equal(t, "c", routes[0].Service)
		assert.Equal(t, "b", routes[1].Service)
		assert.Equal(t, "a", routes[2].Service)
	})

	t.Run("rejects duplicate prefix", func(t *testing.T) {
		_, err := BuildRoutes([]RouteDef{
			{Prefix: "/api/orders", Upstream: "http://localhost:1", Service: "a"},
			{Prefix: "/api/orders/", Upstream: "http://localhost:2", Service: "b"},
		})
		assert.Error(t, err)
	})

	t.Run("rejects relative upstream", func(t *testing.T) {
		_, err := BuildRoutes([]RouteDef{
			{Prefix: "/api/orders", Upstream: "localhost:3003", Service: "a"},
		})
		assert.Error(t, err)
	})

	t.Run("rejects empty prefix", func(t *testing.T) {
		_, err := BuildRoutes([]RouteDef{
			{Prefix: "", Upstream: "http://localhost:3003", Service: "a"},
		})
		assert.Error(t, err)
	})
}

func TestMatch(t *testing.T) {
	routes, err := BuildRoutes([]RouteDef{
		{Prefix: "/api/products", Upstream: "http://localhost:3002", Service: "products"},
		{Prefix: "/api/orders", Upstream: "http://localhost:3003", Service: "orders"},
		{Prefix: "/api/orders/customer", Upstream: "http://localhost:3004", Service: "customer-orders"},
	})
	require.NoError(t, err)

	tests := []struct {
		path    string
		service string
		found   bool
	}{
		{path: "/api/products", service: "products", found: true},
		{path: "/api/products/42", service: "products", found: true},
		{path: "/api/productsearch", found: false},
		{path: "/api/orders/7", service: "orders", found: true},
		{path: "/api/orders/customer/c-1", service: "customer-orders", found: true},
		{path: "/api/unknown", found: false},
		{path: "/", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rt, ok := match(routes, tt.path)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.service, rt.Service)
			}
		})
	}
}

func newTestGateway(t *testing.T, upstream, service string, timeout time.Duration, opts ...Option) *Gateway {
	t.Helper()
	routes, err := BuildRoutes([]RouteDef{
		{Prefix: "/api/echo", Upstream: upstream, Service: service},
	})
	require.NoError(t, err)
	return NewGateway(routes, timeout, zap.NewNop(), opts...)
}

func TestGateway_ForwardsRequestIntact(t *testing.T) {
	type captured struct {
		method string
		path   string
		query  string
		body   []byte
		header http.Header
	}
	var got captured

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = captured{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			body:   body,
			header: r.Header.Clone(),
		}
		w.Header().Set("X-Upstream", "yes")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write(body)
	}))
	defer upstream.Close()

	gw := newTestGateway(t, upstream.URL, "echo-service", 5*time.Second)

	payload := []byte(`{"items":[1,2,3],"raw":"éÿ bytes"}`)
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch} {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/api/echo/orders?limit=5", bytes.NewReader(payload))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer tok")
			w := httptest.NewRecorder()

			gw.ServeHTTP(w, req)

			assert.Equal(t, http.StatusCreated, w.Code)
			assert.Equal(t, method, got.method)
			// The matched prefix stays on the forwarded path.
			assert.Equal(t, "/api/echo/orders", got.path)
			assert.Equal(t, "limit=5", got.query)
			assert.Equal(t, payload, got.body, "body must arrive byte-for-byte")
			assert.Equal(t, payload, w.Body.Bytes(), "response body must stream back unmodified")

			assert.Equal(t, "Bearer tok", got.header.Get("Authorization"))
			assert.Equal(t, "stylecart-gateway", got.header.Get("X-Forwarded-By"))
			assert.Equal(t, "echo-service", got.header.Get("X-Gateway-Target"))
			assert.Equal(t, "yes", w.Header().Get("X-Upstream"))
		})
	}
}

func TestGateway_StripsUpstreamCORSHeaders(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	gw := newTestGateway(t, upstream.URL, "echo-service", 5*time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/echo", nil)
	w := httptest.NewRecorder()
	gw.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestGateway_UnreachableUpstreamReturns503(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close()

	gw := newTestGateway(t, dead.URL, "order-service", 5*time.Second, WithErrorDetail())

	start := time.Now()
	req := httptest.NewRequest(http.MethodGet, "/api/echo/1", nil)
	w := httptest.NewRecorder()
	gw.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Less(t, time.Since(start), 5*time.Second, "must not hang until the timeout on connection refusal")

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "order-service is currently unavailable", body["message"])
	assert.NotEmpty(t, body["error"], "detail requested via WithErrorDetail")
}

func TestGateway_TimeoutTreatedAsFailure(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	}))
	defer slow.Close()

	gw := newTestGateway(t, slow.URL, "order-service", 100*time.Millisecond)

	start := time.Now()
	req := httptest.NewRequest(http.MethodGet, "/api/echo", nil)
	w := httptest.NewRecorder()
	gw.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Less(t, time.Since(start), 2*time.Second)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "order-service is currently unavailable", body["message"])
	assert.Nil(t, body["error"], "no detail outside development")
}

func TestGateway_UnmatchedPathReturns404(t *testing.T) {
	gw := newTestGateway(t, "http://localhost:9", "echo-service", time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/unknown/thing", nil)
	w := httptest.NewRecorder()
	gw.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
}
