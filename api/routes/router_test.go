package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/corelia-app/corelia-cart/api/controllers"
	cartstore "github.com/corelia-app/corelia-cart/internal/cart"
	"github.com/corelia-app/corelia-cart/internal/checkout"
	"github.com/corelia-app/corelia-cart/pkg/config"
	"github.com/corelia-app/corelia-cart/pkg/metrics"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubCheckout struct {
	result *checkout.Result
	err    error
}

func (s stubCheckout) Purchase(ctx context.Context) (*checkout.Result, error) {
	return s.result, s.err
}

type memRepo struct {
	saved cartstore.Snapshot
}

func (m *memRepo) Load(ctx context.Context) (cartstore.Snapshot, error) {
	return m.saved.Clone(), nil
}

func (m *memRepo) Replace(ctx context.Context, snapshot cartstore.Snapshot) error {
	m.saved = snapshot.Clone()
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
	}
}

func newTestRouter(t *testing.T, deps map[string]controllers.Pinger, svc checkout.Service) http.Handler {
	t.Helper()
	store, err := cartstore.NewStore(context.Background(), &memRepo{}, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	registry := prometheus.NewRegistry()
	metrics.NewCheckoutMetrics(registry)

	return NewRouter(testConfig(), nil, deps, nil, store, svc, registry)
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, map[string]controllers.Pinger{"sqlite": stubPinger{}}, stubCheckout{})

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)

		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
		if env := resp.Header().Get("X-Corelia-Env"); env != "test" {
			t.Fatalf("%s: missing env header, got %q", path, env)
		}
	}
}

func TestHealthReadyFailsWhenDependencyDown(t *testing.T) {
	deps := map[string]controllers.Pinger{
		"sqlite": stubPinger{},
		"redis":  stubPinger{err: errors.New("connection refused")},
	}
	router := newTestRouter(t, deps, stubCheckout{})

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	router := newTestRouter(t, nil, stubCheckout{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "checkout_") {
		t.Fatalf("expected checkout metrics in exposition, got: %.120s", resp.Body.String())
	}
}

func TestCartRoutesWired(t *testing.T) {
	router := newTestRouter(t, nil, stubCheckout{})

	add := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items",
		strings.NewReader(`{"product_id":"p-1","vendor_id":"shop-a","vendor_name":"Alpha","name":"Milk","unit_price":"3.99","quantity":2}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, add)
	if resp.Code != http.StatusCreated {
		t.Fatalf("add: expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	fetch := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, fetch)
	if resp.Code != http.StatusOK {
		t.Fatalf("fetch: expected 200 got %d", resp.Code)
	}

	patch := httptest.NewRequest(http.MethodPatch, "/api/v1/cart/items/quantity",
		strings.NewReader(`{"product_id":"p-1","vendor_id":"shop-a","quantity":5}`))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, patch)
	if resp.Code != http.StatusOK {
		t.Fatalf("patch: expected 200 got %d", resp.Code)
	}

	remove := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items?product_id=p-1&vendor_id=shop-a", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, remove)
	if resp.Code != http.StatusOK {
		t.Fatalf("remove: expected 200 got %d", resp.Code)
	}

	clear := httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, clear)
	if resp.Code != http.StatusOK {
		t.Fatalf("clear: expected 200 got %d", resp.Code)
	}
}

func TestCheckoutRouteWired(t *testing.T) {
	svc := stubCheckout{result: &checkout.Result{
		ReceiptID: "bill_1",
		Lines:     1,
		Items:     1,
		Total:     decimal.RequireFromString("3.99"),
	}}
	router := newTestRouter(t, nil, svc)

	// No redis store wired, so the idempotency middleware passes through
	// without requiring a key.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data struct {
			ReceiptID string `json:"receipt_id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ReceiptID != "bill_1" {
		t.Fatalf("unexpected receipt id %q", envelope.Data.ReceiptID)
	}
}

func TestRequestIDHeaderSet(t *testing.T) {
	router := newTestRouter(t, nil, stubCheckout{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected generated request id header")
	}
}
