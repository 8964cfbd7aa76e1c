package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dafteam/facturation-api/internal/domain/entity"
	domainRepo "github.com/dafteam/facturation-api/internal/domain/repository"
	"github.com/dafteam/facturation-api/pkg/pagination"
)

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository instance
func NewNotificationRepository(db *gorm.DB) domainRepo.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	return dbFrom(ctx, r.db).Create(notification).Error
}

func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []entity.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return dbFrom(ctx, r.db).Create(&notifications).Error
}

func (r *notificationRepository) GetByID(ctx context.Context, id uint) (*entity.Notification, error) {
	var notification entity.Notification
	err := dbFrom(ctx, r.db).First(&notification, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &notification, nil
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID uint, params *pagination.PaginationParams) ([]entity.Notification, int64, error) {
	var notifications []entity.Notification
	var total int64

	query := dbFrom(ctx, r.db).Model(&entity.Notification{}).
		Where("recipient_id = ?", recipientID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.PerPage).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

func (r *notificationRepository) ListUnread(ctx context.Context, recipientID uint) ([]entity.Notification, error) {
	var notifications []entity.Notification
	err := dbFrom(ctx, r.db).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	err := dbFrom(ctx, r.db).
		Model(&entity.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

func (r *notificationRepository) Update(ctx context.Context, notification *entity.Notification) error {
	return dbFrom(ctx, r.db).Save(notification).Error
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID uint, at time.Time) error {
	return dbFrom(ctx, r.db).
		Model(&entity.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Updates(map[string]interface{}{"read": true, "read_at": at}).Error
}
