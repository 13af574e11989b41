package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/mrp-dashboard/internal/orm"
)

var _ orm.CallObserver = (*Metrics)(nil)

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsRecordsRPCCalls(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveCall("custom.mo.dashboard", "generate_data", nil, 20*time.Millisecond)
	metrics.ObserveCall("mrp.production", "get_mo_overview_data", errors.New("boom"), time.Second)

	body := scrape(t, metrics)
	if !strings.Contains(body, `mrpdash_rpc_calls_total{method="generate_data",model="custom.mo.dashboard",status="ok"} 1`) {
		t.Fatalf("expected successful call to be counted, got: %s", body)
	}
	if !strings.Contains(body, `mrpdash_rpc_calls_total{method="get_mo_overview_data",model="mrp.production",status="error"} 1`) {
		t.Fatalf("expected failed call to be counted, got: %s", body)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/mrp/status/")

	req := httptest.NewRequest(http.MethodGet, "/mrp/status", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, "mrpdash_http_requests_total{code=\"418\",route=\"/mrp/status/\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, "mrpdash_http_request_duration_seconds_bucket{route=\"/mrp/status/\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveCall("stock.picking", "search_read", nil, time.Millisecond)
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
