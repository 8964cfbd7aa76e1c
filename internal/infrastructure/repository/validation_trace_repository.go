package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dafteam/facturation-api/internal/domain/entity"
	domainRepo "github.com/dafteam/facturation-api/internal/domain/repository"
)

type validationTraceRepository struct {
	db *gorm.DB
}

// NewValidationTraceRepository creates a new validation trace repository instance
func NewValidationTraceRepository(db *gorm.DB) domainRepo.ValidationTraceRepository {
	return &validationTraceRepository{db: db}
}

func (r *validationTraceRepository) Append(ctx context.Context, trace *entity.ValidationTrace) error {
	return dbFrom(ctx, r.db).Create(trace).Error
}

func (r *validationTraceRepository) ListByInvoice(ctx context.Context, invoiceID uint) ([]entity.ValidationTrace, error) {
	var traces []entity.ValidationTrace
	err := dbFrom(ctx, r.db).
		Preload("User").
		Where("invoice_id = ?", invoiceID).
		Order("validated_at ASC, id ASC").
		Find(&traces).Error
	return traces, err
}

func (r *validationTraceRepository) ListByUser(ctx context.Context, userID uint) ([]entity.ValidationTrace, error) {
	var traces []entity.ValidationTrace
	err := dbFrom(ctx, r.db).
		Preload("Invoice").
		Where("user_id = ?", userID).
		Order("validated_at DESC").
		Find(&traces).Error
	return traces, err
}
