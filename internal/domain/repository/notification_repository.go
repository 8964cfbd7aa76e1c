package repository

import (
	"context"
	"time"

	"github.com/dafteam/facturation-api/internal/domain/entity"
	"github.com/dafteam/facturation-api/pkg/pagination"
)

// NotificationRepository defines the interface for notification data
// operations. Rows are created by the dispatch policy and only mutated to
// mark them read.
type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	CreateBatch(ctx context.Context, notifications []entity.Notification) error
	GetByID(ctx context.Context, id uint) (*entity.Notification, error)
	ListByRecipient(ctx context.Context, recipientID uint, params *pagination.PaginationParams) ([]entity.Notification, int64, error)
	ListUnread(ctx context.Context, recipientID uint) ([]entity.Notification, error)
	CountUnread(ctx context.Context, recipientID uint) (int64, error)
	Update(ctx context.Context, notification *entity.Notification) error
	MarkAllRead(ctx context.Context, recipientID uint, at time.Time) error
}
