package ports

import (
	"context"
	"time"

	"github.com/connectify/social-api/internal/core/domain"
)

// AccountRepository persists accounts. Lookups of a missing account return
// domain.ErrAccountNotFound; unique email/username clashes return
// domain.ErrAccountExists.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	// FindByIDs returns the accounts that exist among ids, in no particular order.
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Account, error)
	// Search matches name or username case-insensitively.
	Search(ctx context.Context, query string, limit int) ([]*domain.Account, error)
	UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate, now time.Time) (*domain.Account, error)
	Delete(ctx context.Context, id string) error
}
