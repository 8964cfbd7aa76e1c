package service

import (
	"context"

	"github.com/dafteam/facturation-api/internal/domain/entity"
	"github.com/dafteam/facturation-api/internal/domain/enum"
	"github.com/dafteam/facturation-api/internal/domain/repository"
	"github.com/dafteam/facturation-api/pkg/apperror"
	"github.com/dafteam/facturation-api/pkg/pagination"
	"github.com/dafteam/facturation-api/pkg/utils"
)

// UserService handles actor administration. Only admins manage users; the
// role of a user is fixed once the account is created.
type UserService struct {
	userRepo    repository.UserRepository
	invoiceRepo repository.InvoiceRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo repository.UserRepository, invoiceRepo repository.InvoiceRepository) *UserService {
	return &UserService{
		userRepo:    userRepo,
		invoiceRepo: invoiceRepo,
	}
}

// CreateUserInput represents the create user input
type CreateUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      enum.Role
}

// UpdateUserInput represents the update user input. The role is immutable.
type UpdateUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Active    *bool
}

// CreateUser creates a new workflow actor
func (s *UserService) CreateUser(ctx context.Context, input *CreateUserInput) (*entity.User, error) {
	if !input.Role.IsValid() {
		return nil, apperror.NewValidationError("Unknown role")
	}
	if input.LastName == "" || input.Email == "" {
		return nil, apperror.NewValidationError("Last name and email are required")
	}
	if len(input.Password) < 8 {
		return nil, apperror.NewValidationError("Password must be at least 8 characters")
	}

	existing, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("Email already registered")
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Password:  hashed,
		Role:      input.Role,
		Active:    true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser loads one user by id
func (s *UserService) GetUser(ctx context.Context, id uint) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User")
	}
	return user, nil
}

// UpdateUser modifies a user's identity fields and active flag
func (s *UserService) UpdateUser(ctx context.Context, id uint, input *UpdateUserInput) (*entity.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.FirstName != "" {
		user.FirstName = input.FirstName
	}
	if input.LastName != "" {
		user.LastName = input.LastName
	}
	if input.Email != "" && input.Email != user.Email {
		existing, err := s.userRepo.GetByEmail(ctx, input.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperror.NewConflictError("Email already registered")
		}
		user.Email = input.Email
	}
	if input.Active != nil {
		user.Active = *input.Active
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeactivateUser disables an account. Deactivated users keep their
// historical assignments but hold no capability anymore.
func (s *UserService) DeactivateUser(ctx context.Context, id uint) error {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	user.Active = false
	return s.userRepo.Update(ctx, user)
}

// ListUsers returns users matching the search, paginated
func (s *UserService) ListUsers(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.User, int64, error) {
	return s.userRepo.List(ctx, params, search)
}

// ListByRole returns users holding one role
func (s *UserService) ListByRole(ctx context.Context, role enum.Role, activeOnly bool) ([]entity.User, error) {
	if !role.IsValid() {
		return nil, apperror.NewValidationError("Unknown role")
	}
	return s.userRepo.ListByRole(ctx, role, activeOnly)
}

// GetWorkload returns a user's activity counts across the invoice table
func (s *UserService) GetWorkload(ctx context.Context, id uint) (*repository.UserWorkload, error) {
	if _, err := s.GetUser(ctx, id); err != nil {
		return nil, err
	}
	return s.invoiceRepo.Workload(ctx, id)
}
