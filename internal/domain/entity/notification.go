package entity

import (
	"time"

	"github.com/dafteam/facturation-api/internal/domain/enum"
)

// Notification is an in-app message produced by a workflow transition.
// Delivery to the user is handled outside this service; rows are only
// created by the dispatch policy and mutated to mark them read.
type Notification struct {
	ID          uint                  `gorm:"primaryKey" json:"id"`
	RecipientID uint                  `gorm:"not null;index" json:"recipient_id"`
	InvoiceID   *uint                 `gorm:"index" json:"invoice_id,omitempty"`
	Title       string                `gorm:"size:200;not null" json:"title"`
	Message     string                `gorm:"size:1000;not null" json:"message"`
	Type        enum.NotificationType `gorm:"size:50" json:"type"`
	Urgent      bool                  `gorm:"default:false" json:"urgent"`
	Read        bool                  `gorm:"default:false;index" json:"read"`
	ReadAt      *time.Time            `json:"read_at,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`

	// Relationships
	Recipient User     `gorm:"foreignKey:RecipientID" json:"-"`
	Invoice   *Invoice `gorm:"foreignKey:InvoiceID" json:"-"`
}

// TableName returns the table name for the Notification model
func (Notification) TableName() string {
	return "notifications"
}

// MarkRead flags the notification as read at the given time
func (n *Notification) MarkRead(at time.Time) {
	if n.Read {
		return
	}
	n.Read = true
	n.ReadAt = &at
}
