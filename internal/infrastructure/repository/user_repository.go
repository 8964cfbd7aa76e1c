package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/dafteam/facturation-api/internal/domain/entity"
	"github.com/dafteam/facturation-api/internal/domain/enum"
	domainRepo "github.com/dafteam/facturation-api/internal/domain/repository"
	"github.com/dafteam/facturation-api/pkg/pagination"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) domainRepo.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return dbFrom(ctx, r.db).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*entity.User, error) {
	var user entity.User
	err := dbFrom(ctx, r.db).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	err := dbFrom(ctx, r.db).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	return dbFrom(ctx, r.db).Save(user).Error
}

func (r *userRepository) List(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.User, int64, error) {
	var users []entity.User
	var total int64

	query := dbFrom(ctx, r.db).Model(&entity.User{})

	if search != "" {
		searchTerm := "%" + search + "%"
		query = query.Where("first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?",
			searchTerm, searchTerm, searchTerm)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("last_name ASC, first_name ASC").
		Offset(params.Offset()).
		Limit(params.PerPage).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role enum.Role, activeOnly bool) ([]entity.User, error) {
	var users []entity.User
	query := dbFrom(ctx, r.db).Where("role = ?", role)
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	err := query.Order("last_name ASC, first_name ASC").Find(&users).Error
	return users, err
}

func (r *userRepository) FindLeastLoadedTreasurer(ctx context.Context) (*entity.User, error) {
	var user entity.User
	err := dbFrom(ctx, r.db).
		Joins("LEFT JOIN invoices ON invoices.treasurer_id = users.id AND invoices.status = ?",
			enum.StatusEnTresorerie).
		Where("users.role = ? AND users.active = ?", enum.RoleT1, true).
		Group("users.id").
		Order("COUNT(invoices.id) ASC, users.id ASC").
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
