package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/quotebook/estimate-system/internal/core/domain"
)

func render(t *testing.T, err error, method string) (*httptest.ResponseRecorder, errorResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/", nil)
	rec := httptest.NewRecorder()
	NewHTTPErrorHandler(zerolog.Nop())(err, e.NewContext(req, rec))

	var body errorResponse
	if method != http.MethodHead {
		if jerr := json.Unmarshal(rec.Body.Bytes(), &body); jerr != nil {
			t.Fatalf("invalid json %q: %v", rec.Body.String(), jerr)
		}
	}
	return rec, body
}

func TestErrorHandler_StatusMapping(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"http error", echo.NewHTTPError(http.StatusUnauthorized, "Token is not valid"), http.StatusUnauthorized, "Token is not valid"},
		{"credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{"forbidden", fmt.Errorf("estimate e1: %w", domain.ErrForbidden), http.StatusForbidden, "access forbidden"},
		{"pending", domain.ErrAccountPending, http.StatusForbidden, domain.ErrAccountPending.Error()},
		{"inactive", domain.ErrAccountInactive, http.StatusForbidden, "account is deactivated"},
		{"duplicate phone", domain.ErrDuplicatePhone, http.StatusBadRequest, domain.ErrDuplicatePhone.Error()},
		{"user exists", domain.ErrUserExists, http.StatusBadRequest, domain.ErrUserExists.Error()},
		{"not pending", domain.ErrNotPendingApproval, http.StatusBadRequest, "user is not pending approval"},
		{"not found hides ids", fmt.Errorf("find estimate abc123: %w", domain.ErrEstimateNotFound), http.StatusNotFound, "estimate not found"},
		{"item not found", domain.ErrItemNotFound, http.StatusNotFound, "item not found"},
		{"transition", fmt.Errorf("%w: converted -> draft", domain.ErrInvalidTransition), http.StatusConflict, "invalid status transition: converted -> draft"},
		{"locked", domain.ErrEstimateLocked, http.StatusConflict, domain.ErrEstimateLocked.Error()},
		{"stale write", domain.ErrEstimateConflict, http.StatusConflict, domain.ErrEstimateConflict.Error()},
		{"unexpected", errors.New("mongo: connection reset"), http.StatusInternalServerError, "Server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := render(t, tc.err, http.MethodGet)
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			if body.Message != tc.message {
				t.Fatalf("expected message %q, got %q", tc.message, body.Message)
			}
		})
	}
}

func TestErrorHandler_ValidationFields(t *testing.T) {
	verr := &domain.ValidationError{Fields: []domain.FieldError{
		{Param: "name", Msg: "Brand name is required"},
		{Param: "items[0].quantity", Msg: "Quantity must be greater than 0"},
	}}
	rec, body := render(t, fmt.Errorf("create: %w", verr), http.MethodPost)

	if rec.Code != http.StatusBadRequest || body.Message != "Validation failed" {
		t.Fatalf("unexpected response %d %q", rec.Code, body.Message)
	}
	if len(body.Errors) != 2 || body.Errors[1].Param != "items[0].quantity" {
		t.Fatalf("unexpected field errors: %+v", body.Errors)
	}
}

func TestErrorHandler_RejectionReason(t *testing.T) {
	rec, body := render(t, &domain.RejectedError{Reason: "Incomplete GST details"}, http.MethodPost)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if body.Message != domain.ErrAccountRejected.Error() || body.RejectionReason != "Incomplete GST details" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestErrorHandler_HeadHasNoBody(t *testing.T) {
	rec, _ := render(t, domain.ErrCustomerNotFound, http.MethodHead)
	if rec.Code != http.StatusNotFound || rec.Body.Len() != 0 {
		t.Fatalf("expected bare 404, got %d with %q", rec.Code, rec.Body.String())
	}
}
