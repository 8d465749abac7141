package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/connectify/social-api/internal/core/domain"
	"github.com/connectify/social-api/internal/core/ports"
)

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
			if in.Username != "alice" || in.Email != "a@example.com" || in.Name != "Alice" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &ports.AuthResult{
				Token:   "signed",
				Account: &domain.Account{ID: "acc-1", Name: in.Name, Username: in.Username, PasswordHash: "hash"},
			}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newTestContext(http.MethodPost, "/auth/register",
		`{"name":"Alice","username":"alice","email":"a@example.com","password":"secret1"}`, "")

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "signed" {
		t.Fatalf("expected token in response, got %v", resp["token"])
	}
	user, ok := resp["user"].(map[string]any)
	if !ok {
		t.Fatalf("expected user in response")
	}
	if user["id"] != "acc-1" || user["username"] != "alice" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if _, leaked := user["PasswordHash"]; leaked {
		t.Fatalf("password hash must not be serialised")
	}
}

func TestAuthHandler_Register_RejectsMissingFields(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
			t.Fatalf("service must not be called")
			return nil, nil
		},
	})

	c, _ := newTestContext(http.MethodPost, "/auth/register", `{"username":"bob","email":"nope"}`, "")

	err := handler.Register(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	msg, _ := he.Message.(string)
	for _, want := range []string{"name is required", "email must be a valid email", "password is required"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in %q", want, msg)
		}
	}
}

func TestAuthHandler_Register_PropagatesConflict(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
			return nil, domain.ErrAccountExists
		},
	})

	c, _ := newTestContext(http.MethodPost, "/auth/register",
		`{"name":"Bob","username":"bob","email":"b@example.com","password":"secret1"}`, "")

	err := handler.Register(c)
	if code, _, _ := MapError(err); code != http.StatusConflict {
		t.Fatalf("expected 409, got %d (%v)", code, err)
	}
}

func TestAuthHandler_Login(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.AuthResult, error) {
			if password != "secret1" {
				return nil, domain.ErrInvalidCredentials
			}
			return &ports.AuthResult{Token: "signed", Account: &domain.Account{ID: "acc-1"}}, nil
		},
	})

	c, rec := newTestContext(http.MethodPost, "/auth/login", `{"email":"a@example.com","password":"secret1"}`, "")
	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	c, _ = newTestContext(http.MethodPost, "/auth/login", `{"email":"a@example.com","password":"wrong"}`, "")
	err := handler.Login(c)
	if code, _, _ := MapError(err); code != http.StatusBadRequest {
		t.Fatalf("expected 400 on mismatch, got %d", code)
	}
}

func TestAuthHandler_InvalidJSON(t *testing.T) {
	handler := NewAuthHandler(&stubAuthService{})
	c, _ := newTestContext(http.MethodPost, "/auth/login", `{"email":`, "")

	var he *echo.HTTPError
	if err := handler.Login(c); !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}
