package repository

import (
	"context"

	"github.com/dafteam/facturation-api/internal/domain/entity"
)

// ValidationTraceRepository defines the interface for the append-only audit
// trail. Traces are never updated or deleted.
type ValidationTraceRepository interface {
	Append(ctx context.Context, trace *entity.ValidationTrace) error
	ListByInvoice(ctx context.Context, invoiceID uint) ([]entity.ValidationTrace, error)
	ListByUser(ctx context.Context, userID uint) ([]entity.ValidationTrace, error)
}
