package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestHealthHandler_Readiness(t *testing.T) {
	e := echo.New()
	h := NewHealthHandler(map[string]HealthCheck{
		"mongodb": func(context.Context) error { return nil },
		"redis":   func(context.Context) error { return errors.New("connection refused") },
		"amqp":    nil,
	})

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	if err := h.Readiness(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	resp := decodeBody(t, rec)
	deps := resp["dependencies"].(map[string]any)
	if resp["status"] != "degraded" || len(deps) != 2 {
		t.Fatalf("unexpected body: %v", resp)
	}
	if redis := deps["redis"].(map[string]any); redis["error"] != "connection refused" {
		t.Fatalf("unexpected redis status: %v", redis)
	}
}

func TestHealthHandler_ReadyWhenAllPass(t *testing.T) {
	e := echo.New()
	h := NewHealthHandler(map[string]HealthCheck{"mongodb": func(context.Context) error { return nil }})

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	if err := h.Readiness(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || decodeBody(t, rec)["status"] != "ok" {
		t.Fatalf("expected ok, got %d %s", rec.Code, rec.Body.String())
	}
}
