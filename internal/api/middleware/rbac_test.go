package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/quotebook/estimate-system/internal/core/domain"
)

func TestRBAC_Allows(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("role", domain.RoleTrader)

	called := false
	mw := RBAC(domain.RoleAdmin, domain.RoleTrader)
	handler := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRBAC_Forbids(t *testing.T) {
	for _, role := range []string{domain.RoleCustomer, ""} {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != "" {
			c.Set("role", role)
		}

		mw := RBAC(domain.RoleAdmin, domain.RoleTrader)
		handler := mw(func(c echo.Context) error {
			t.Fatalf("should not reach next handler")
			return nil
		})

		if err := handler(c); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("role %q: expected ErrForbidden, got %v", role, err)
		}
	}
}
