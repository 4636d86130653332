package db

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func runHealth(t *testing.T, ping func(context.Context) error) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	return runHealthPending(t, ping, nil)
}

func runHealthPending(t *testing.T, ping func(context.Context) error, pending func(context.Context) (int, error)) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health/db", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := healthHandler(ping, func() *PoolStats {
		return &PoolStats{TotalConns: 3, IdleConns: 2, AcquiredConns: 1, MaxConns: 20, Healthy: true}
	}, pending)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	return rec, body
}

func TestHealthHandler_Healthy(t *testing.T) {
	rec, body := runHealth(t, func(context.Context) error { return nil })

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if body["status"] != "healthy" {
		t.Errorf("expected healthy, got %v", body["status"])
	}
	pool, ok := body["pool"].(map[string]interface{})
	if !ok {
		t.Fatal("expected pool stats object")
	}
	if pool["total_conns"] != float64(3) {
		t.Errorf("expected total_conns 3, got %v", pool["total_conns"])
	}
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	rec, body := runHealth(t, func(context.Context) error { return errors.New("connection refused on 10.0.0.5") })

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	if body["status"] != "unhealthy" {
		t.Errorf("expected unhealthy, got %v", body["status"])
	}
	if body["error"] != "database ping failed" {
		t.Errorf("expected generic error message, got %v", body["error"])
	}
	pool := body["pool"].(map[string]interface{})
	if pool["healthy"] != false {
		t.Error("expected pool to be marked unhealthy")
	}
}

func TestHealthHandler_PingHasDeadline(t *testing.T) {
	runHealth(t, func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected ping context to carry a deadline")
		}
		return nil
	})
}

func TestHealthHandler_NoMigratorOmitsPending(t *testing.T) {
	_, body := runHealth(t, func(context.Context) error { return nil })
	if _, ok := body["pending_migrations"]; ok {
		t.Error("expected no pending_migrations without a migrator")
	}
}

func TestHealthHandler_PendingMigrations(t *testing.T) {
	ok := func(context.Context) error { return nil }

	rec, body := runHealthPending(t, ok, func(context.Context) (int, error) { return 0, nil })
	if rec.Code != http.StatusOK || body["status"] != "healthy" || body["pending_migrations"] != float64(0) {
		t.Errorf("up to date: %d %v", rec.Code, body)
	}

	rec, body = runHealthPending(t, ok, func(context.Context) (int, error) { return 2, nil })
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for a lagging schema, got %d", rec.Code)
	}
	if body["status"] != "degraded" || body["pending_migrations"] != float64(2) {
		t.Errorf("lagging schema: %v", body)
	}

	_, body = runHealthPending(t, ok, func(context.Context) (int, error) { return 0, errors.New("permission denied") })
	if v, present := body["pending_migrations"]; !present || v != nil {
		t.Errorf("expected null pending_migrations on error, got %v", v)
	}
	if body["status"] != "healthy" {
		t.Errorf("expected healthy when only the migration check fails, got %v", body["status"])
	}
}
