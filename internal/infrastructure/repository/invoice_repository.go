package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dafteam/facturation-api/internal/domain/entity"
	"github.com/dafteam/facturation-api/internal/domain/enum"
	domainRepo "github.com/dafteam/facturation-api/internal/domain/repository"
)

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository instance
func NewInvoiceRepository(db *gorm.DB) domainRepo.InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	return dbFrom(ctx, r.db).Create(invoice).Error
}

func (r *invoiceRepository) GetByID(ctx context.Context, id uint) (*entity.Invoice, error) {
	var invoice entity.Invoice
	err := dbFrom(ctx, r.db).
		Preload("Creator").
		Preload("Validator1").
		Preload("Validator2").
		Preload("Treasurer").
		First(&invoice, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) GetByIDForUpdate(ctx context.Context, id uint) (*entity.Invoice, error) {
	var invoice entity.Invoice
	// No preloads here: the locking clause must stay on the invoices row alone
	err := dbFrom(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&invoice, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) GetByNumber(ctx context.Context, number string) (*entity.Invoice, error) {
	var invoice entity.Invoice
	err := dbFrom(ctx, r.db).
		Preload("Creator").
		Preload("Validator1").
		Preload("Validator2").
		Preload("Treasurer").
		Where("number = ?", number).
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *entity.Invoice) error {
	return dbFrom(ctx, r.db).Save(invoice).Error
}

func (r *invoiceRepository) Delete(ctx context.Context, id uint) error {
	return dbFrom(ctx, r.db).Delete(&entity.Invoice{}, id).Error
}

func (r *invoiceRepository) List(ctx context.Context, params *domainRepo.InvoiceFilterParams) ([]entity.Invoice, int64, error) {
	var invoices []entity.Invoice
	var total int64

	query := dbFrom(ctx, r.db).Model(&entity.Invoice{})

	if params.Search != "" {
		searchTerm := "%" + params.Search + "%"
		query = query.Where("number ILIKE ? OR supplier_name ILIKE ? OR designation ILIKE ?",
			searchTerm, searchTerm, searchTerm)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.CreatorID != nil {
		query = query.Where("creator_id = ?", *params.CreatorID)
	}
	if params.SupplierName != "" {
		query = query.Where("supplier_name ILIKE ?", "%"+params.SupplierName+"%")
	}
	if params.StartDate != nil {
		query = query.Where("invoice_date >= ?", *params.StartDate)
	}
	if params.EndDate != nil {
		query = query.Where("invoice_date <= ?", *params.EndDate)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := params.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	sortOrder := params.SortOrder
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	err := query.
		Preload("Creator").
		Order(sortBy + " " + sortOrder).
		Offset(params.Pagination.Offset()).
		Limit(params.Pagination.PerPage).
		Find(&invoices).Error
	if err != nil {
		return nil, 0, err
	}

	return invoices, total, nil
}

func (r *invoiceRepository) ListByStatus(ctx context.Context, status enum.InvoiceStatus) ([]entity.Invoice, error) {
	var invoices []entity.Invoice
	err := dbFrom(ctx, r.db).
		Preload("Creator").
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) ListByCreator(ctx context.Context, creatorID uint) ([]entity.Invoice, error) {
	var invoices []entity.Invoice
	err := dbFrom(ctx, r.db).
		Where("creator_id = ?", creatorID).
		Order("created_at DESC").
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) ListPendingV1(ctx context.Context, validatorID uint) ([]entity.Invoice, error) {
	var invoices []entity.Invoice
	err := dbFrom(ctx, r.db).
		Preload("Creator").
		Where("status = ? AND validator1_id = ?", enum.StatusEnValidationV1, validatorID).
		Order("created_at ASC").
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) ListPendingV2(ctx context.Context, validatorID uint) ([]entity.Invoice, error) {
	var invoices []entity.Invoice
	err := dbFrom(ctx, r.db).
		Preload("Creator").
		Where("status = ? AND validator2_id = ?", enum.StatusEnValidationV2, validatorID).
		Order("created_at ASC").
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) ListPendingTreasury(ctx context.Context, treasurerID uint) ([]entity.Invoice, error) {
	var invoices []entity.Invoice
	err := dbFrom(ctx, r.db).
		Preload("Creator").
		Where("status = ? AND treasurer_id = ?", enum.StatusEnTresorerie, treasurerID).
		Order("due_date ASC NULLS LAST").
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]entity.Invoice, error) {
	var invoices []entity.Invoice
	err := dbFrom(ctx, r.db).
		Preload("Creator").
		Where("status NOT IN ? AND due_date IS NOT NULL AND due_date >= ? AND due_date <= ?",
			[]enum.InvoiceStatus{enum.StatusPayee, enum.StatusRejetee}, from, to).
		Order("due_date ASC").
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) ListOverdue(ctx context.Context, ref time.Time) ([]entity.Invoice, error) {
	var invoices []entity.Invoice
	err := dbFrom(ctx, r.db).
		Preload("Creator").
		Where("status NOT IN ? AND due_date IS NOT NULL AND due_date < ?",
			[]enum.InvoiceStatus{enum.StatusPayee, enum.StatusRejetee}, ref).
		Order("due_date ASC").
		Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepository) CountByStatus(ctx context.Context) (map[enum.InvoiceStatus]int64, error) {
	var rows []struct {
		Status enum.InvoiceStatus
		Count  int64
	}
	err := dbFrom(ctx, r.db).
		Model(&entity.Invoice{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[enum.InvoiceStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *invoiceRepository) CountByInvoiceYear(ctx context.Context, year int) (int64, error) {
	var count int64
	err := dbFrom(ctx, r.db).
		Model(&entity.Invoice{}).
		Where("EXTRACT(YEAR FROM invoice_date) = ?", year).
		Count(&count).Error
	return count, err
}

func (r *invoiceRepository) Workload(ctx context.Context, userID uint) (*domainRepo.UserWorkload, error) {
	db := dbFrom(ctx, r.db)
	workload := &domainRepo.UserWorkload{}

	if err := db.Model(&entity.Invoice{}).
		Where("creator_id = ?", userID).
		Count(&workload.Created).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Invoice{}).
		Where("validator1_id = ? AND v1_validated_at IS NOT NULL", userID).
		Count(&workload.ValidatedV1).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Invoice{}).
		Where("validator2_id = ? AND v2_validated_at IS NOT NULL", userID).
		Count(&workload.ValidatedV2).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&entity.Invoice{}).
		Where("treasurer_id = ? AND status = ?", userID, enum.StatusPayee).
		Count(&workload.Processed).Error; err != nil {
		return nil, err
	}

	return workload, nil
}
