package repository

import (
	"context"

	"github.com/dafteam/facturation-api/internal/domain/entity"
	"github.com/dafteam/facturation-api/internal/domain/enum"
	"github.com/dafteam/facturation-api/pkg/pagination"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uint) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	List(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.User, int64, error)
	ListByRole(ctx context.Context, role enum.Role, activeOnly bool) ([]entity.User, error)
	// FindLeastLoadedTreasurer returns the active T1 user with the fewest
	// invoices currently in treasury, ties broken by lowest id. It runs as a
	// single aggregation so the assignment decision is not built from
	// per-candidate queries. Returns nil when no active treasurer exists.
	FindLeastLoadedTreasurer(ctx context.Context) (*entity.User, error)
}
