package ports

import (
	"context"

	"github.com/connectify/social-api/internal/core/domain"
)

// RegisterInput carries the registration form.
type RegisterInput struct {
	Name     string
	Username string
	Email    string
	Password string
}

// AuthResult is returned by a successful register or login.
type AuthResult struct {
	Token   string
	Account *domain.Account
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
}
