package telemetry

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/madjik/clinic/internal/platform/db"
)

func TestNewProvider_DefaultNamespace(t *testing.T) {
	tp := NewProvider(Config{MetricsEnabled: true})
	if tp.cfg.Namespace != "clinic" {
		t.Fatalf("expected default namespace 'clinic', got %q", tp.cfg.Namespace)
	}
	if !tp.Enabled() {
		t.Fatal("expected metrics enabled")
	}
	if NewProvider(Config{}).Enabled() {
		t.Fatal("expected metrics disabled")
	}
}

func TestMetricsMiddleware_CountsRequests(t *testing.T) {
	tp := NewProvider(Config{MetricsEnabled: true})
	e := echo.New()
	e.Use(tp.MetricsMiddleware())
	e.GET("/patient/:patient_id", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/patient/%d", i+1), nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	}

	got := testutil.ToFloat64(tp.requests.WithLabelValues(http.MethodGet, "/patient/:patient_id", "200"))
	if got != 3 {
		t.Fatalf("expected 3 requests on the route template, got %v", got)
	}
	if active := testutil.ToFloat64(tp.active); active != 0 {
		t.Fatalf("expected no active requests after completion, got %v", active)
	}
}

func TestMetricsMiddleware_UsesHTTPErrorStatus(t *testing.T) {
	tp := NewProvider(Config{MetricsEnabled: true})
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/history/9", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/history/:history_id")

	h := tp.MetricsMiddleware()(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "history note not found")
	})
	if err := h(c); err == nil {
		t.Fatal("expected the handler error to pass through")
	}

	got := testutil.ToFloat64(tp.requests.WithLabelValues(http.MethodGet, "/history/:history_id", "404"))
	if got != 1 {
		t.Fatalf("expected one 404 observation, got %v", got)
	}
}

func TestRecordOperation_Outcomes(t *testing.T) {
	tp := NewProvider(Config{})
	tp.RecordOperation("patient", "create", nil)
	tp.RecordOperation("patient", "detail", db.ErrNotFound)
	tp.RecordOperation("patient", "detail", fmt.Errorf("get patient: %w", db.ErrNotFound))
	tp.RecordOperation("visit", "delete", errors.New("disk I/O error"))

	tests := []struct {
		entity, op, outcome string
		want                float64
	}{
		{"patient", "create", "ok", 1},
		{"patient", "detail", "not_found", 2},
		{"visit", "delete", "error", 1},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(tp.operations.WithLabelValues(tt.entity, tt.op, tt.outcome))
		if got != tt.want {
			t.Errorf("%s/%s/%s = %v, want %v", tt.entity, tt.op, tt.outcome, got, tt.want)
		}
	}
}

func TestPrometheusHandler_ExposesMetrics(t *testing.T) {
	tp := NewProvider(Config{MetricsEnabled: true})
	tp.RecordOperation("signature", "update", nil)
	tp.ObservePool(func() *db.PoolStats {
		return &db.PoolStats{Dialect: "sqlite", TotalConns: 1, MaxConns: 1}
	})

	e := echo.New()
	e.GET("/metrics", tp.PrometheusHandler())
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`clinic_record_operations_total{entity="signature",operation="update",outcome="ok"} 1`,
		"clinic_db_pool_max_connections 1",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected /metrics to contain %q", want)
		}
	}
}
