package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/quotebook/estimate-system/internal/core/domain"
	"github.com/quotebook/estimate-system/internal/core/ports"
)

// stubAuthService implements only the calls a test sets; the embedded
// interface panics on anything else.
type stubAuthService struct {
	ports.AuthService
	registerFn func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error)
	loginFn    func(ctx context.Context, email, password string) (*ports.AuthResult, error)
	meFn       func(ctx context.Context, userID string) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.meFn(ctx, userID)
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	return resp
}

func TestAuthHandler_Register_TraderPending(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
			if in.Name != "Ravi" || in.Role != domain.RoleTrader || in.Phone != "9000000001" {
				t.Fatalf("unexpected input: %+v", in)
			}
			if in.TraderProfile == nil || in.TraderProfile.BusinessName != "Ravi Traders" {
				t.Fatalf("trader profile not passed: %+v", in.TraderProfile)
			}
			return &ports.AuthResult{User: &domain.User{ID: "u1", Name: in.Name, Role: in.Role, ApprovalStatus: domain.ApprovalPending}}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := jsonContext(e, http.MethodPost, "/auth/register",
		`{"name":"Ravi","email":"ravi@example.com","password":"secret1","phone":"9000000001","role":"trader","traderProfile":{"businessName":"Ravi Traders"}}`)
	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	resp := decodeBody(t, rec)
	if resp["message"] != pendingRegistrationMessage {
		t.Fatalf("expected pending message, got %v", resp["message"])
	}
	if _, ok := resp["token"]; ok {
		t.Fatalf("pending registration must not carry a token")
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["approvalStatus"] != "pending" {
		t.Fatalf("unexpected user payload: %+v", resp["user"])
	}
	if _, leaked := user["password"]; leaked {
		t.Fatalf("password hash leaked")
	}
}

func TestAuthHandler_Register_CustomerGetsToken(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
			return &ports.AuthResult{Token: "tok", User: &domain.User{ID: "u2", Role: in.Role}}, nil
		},
	}
	c, rec := jsonContext(e, http.MethodPost, "/auth/register",
		`{"name":"Asha","email":"asha@example.com","password":"secret1","phone":"9000000002","role":"customer"}`)
	if err := NewAuthHandler(stub).Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decodeBody(t, rec)
	if resp["token"] != "tok" || resp["message"] != "Registration successful" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
			t.Fatalf("service should not be called")
			return nil, nil
		},
	}
	c, _ := jsonContext(e, http.MethodPost, "/auth/register",
		`{"name":"","email":"not-an-email","password":"123","phone":"1","role":"root"}`)

	err := NewAuthHandler(stub).Register(c)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	got := map[string]string{}
	for _, f := range verr.Fields {
		got[f.Param] = f.Msg
	}
	want := map[string]string{
		"name":     "name is required",
		"email":    "email must be a valid email",
		"password": "password must be at least 6 characters",
		"role":     "role must be one of: admin trader customer",
	}
	for param, msg := range want {
		if got[param] != msg {
			t.Fatalf("field %s: expected %q, got %q (all: %v)", param, msg, got[param], got)
		}
	}
}

func TestAuthHandler_Register_UserExists(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
			return nil, domain.ErrUserExists
		},
	}
	c, _ := jsonContext(e, http.MethodPost, "/auth/register",
		`{"name":"Ravi","email":"ravi@example.com","password":"secret1","phone":"9000000001","role":"trader"}`)
	if err := NewAuthHandler(stub).Register(c); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthHandler_Login(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.AuthResult, error) {
			if email == "ravi@example.com" && password == "secret1" {
				return &ports.AuthResult{Token: "tok", User: &domain.User{ID: "u1"}}, nil
			}
			return nil, domain.ErrInvalidCredentials
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := jsonContext(e, http.MethodPost, "/auth/login", `{"email":"ravi@example.com","password":"secret1"}`)
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || decodeBody(t, rec)["token"] != "tok" {
		t.Fatalf("unexpected response %d: %s", rec.Code, rec.Body.String())
	}

	c, _ = jsonContext(e, http.MethodPost, "/auth/login", `{"email":"ravi@example.com","password":"wrong"}`)
	if err := handler.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Login_MalformedBody(t *testing.T) {
	e := newTestEcho()
	c, _ := jsonContext(e, http.MethodPost, "/auth/login", `{"email":`)

	err := NewAuthHandler(&stubAuthService{}).Login(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	e := newTestEcho()
	stub := &stubAuthService{
		meFn: func(ctx context.Context, userID string) (*domain.User, error) {
			return &domain.User{ID: userID, Name: "Ravi"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := jsonContext(e, http.MethodGet, "/auth/me", "")
	c.Set("user_id", "u1")
	c.Set("role", domain.RoleTrader)
	if err := handler.Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if decodeBody(t, rec)["id"] != "u1" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	c, _ = jsonContext(e, http.MethodGet, "/auth/me", "")
	err := handler.Me(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without claims, got %v", err)
	}
}
