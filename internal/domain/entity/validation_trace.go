package entity

import (
	"time"

	"github.com/dafteam/facturation-api/internal/domain/enum"
)

// ValidationTrace is the append-only audit record of one workflow
// transition. Rows are written in the same transaction as the status
// change and are never updated or deleted.
type ValidationTrace struct {
	ID             uint               `gorm:"primaryKey" json:"id"`
	InvoiceID      uint               `gorm:"not null;index" json:"invoice_id"`
	UserID         uint               `gorm:"not null;index" json:"user_id"`
	PreviousStatus enum.InvoiceStatus `gorm:"size:30;not null" json:"previous_status"`
	NewStatus      enum.InvoiceStatus `gorm:"size:30;not null" json:"new_status"`
	Approved       bool               `json:"approved"`
	Comment        string             `gorm:"size:500" json:"comment"`
	Level          string             `gorm:"size:10" json:"level"` // "U1", "V1", "V2" or "T1"
	ValidatedAt    time.Time          `gorm:"not null" json:"validated_at"`

	// Relationships
	Invoice Invoice `gorm:"foreignKey:InvoiceID" json:"-"`
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName returns the table name for the ValidationTrace model
func (ValidationTrace) TableName() string {
	return "validation_traces"
}
