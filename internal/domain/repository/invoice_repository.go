package repository

import (
	"context"
	"time"

	"github.com/dafteam/facturation-api/internal/domain/entity"
	"github.com/dafteam/facturation-api/internal/domain/enum"
	"github.com/dafteam/facturation-api/pkg/pagination"
)

// InvoiceRepository defines the interface for invoice data operations
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id uint) (*entity.Invoice, error)
	// GetByIDForUpdate loads the invoice under an exclusive row lock. It must
	// be called inside a transaction; workflow transitions use it so that two
	// concurrent attempts on the same invoice are serialized.
	GetByIDForUpdate(ctx context.Context, id uint) (*entity.Invoice, error)
	GetByNumber(ctx context.Context, number string) (*entity.Invoice, error)
	Update(ctx context.Context, invoice *entity.Invoice) error
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, params *InvoiceFilterParams) ([]entity.Invoice, int64, error)
	ListByStatus(ctx context.Context, status enum.InvoiceStatus) ([]entity.Invoice, error)
	ListByCreator(ctx context.Context, creatorID uint) ([]entity.Invoice, error)
	ListPendingV1(ctx context.Context, validatorID uint) ([]entity.Invoice, error)
	ListPendingV2(ctx context.Context, validatorID uint) ([]entity.Invoice, error)
	ListPendingTreasury(ctx context.Context, treasurerID uint) ([]entity.Invoice, error)
	// ListDueBetween returns unpaid invoices whose due date falls inside
	// [from, to], both inclusive
	ListDueBetween(ctx context.Context, from, to time.Time) ([]entity.Invoice, error)
	// ListOverdue returns unpaid invoices whose due date is strictly before ref
	ListOverdue(ctx context.Context, ref time.Time) ([]entity.Invoice, error)

	CountByStatus(ctx context.Context) (map[enum.InvoiceStatus]int64, error)
	// CountByInvoiceYear counts invoices dated within the given year, used to
	// derive the next sequence of the generated invoice number
	CountByInvoiceYear(ctx context.Context, year int) (int64, error)
	// Workload returns per-role activity counts for one user, derived from the
	// invoice table instead of reverse indices held on the user
	Workload(ctx context.Context, userID uint) (*UserWorkload, error)
}

// InvoiceFilterParams contains filtering parameters for invoice queries
type InvoiceFilterParams struct {
	Pagination   *pagination.PaginationParams
	Search       string
	Status       *enum.InvoiceStatus
	CreatorID    *uint
	SupplierName string
	StartDate    *time.Time
	EndDate      *time.Time
	SortBy       string
	SortOrder    string
}

// UserWorkload aggregates a user's activity across the invoice table
type UserWorkload struct {
	Created     int64 `json:"created"`
	ValidatedV1 int64 `json:"validated_v1"`
	ValidatedV2 int64 `json:"validated_v2"`
	Processed   int64 `json:"processed"`
}
