package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dafteam/facturation-api/internal/domain/enum"
)

// Invoice represents a supplier invoice moving through the validation workflow
type Invoice struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Number string `gorm:"size:100;unique;not null" json:"number"`

	// Actor references. The creator is set at creation and never changes;
	// validators must be assigned before submission, the treasurer may be
	// auto-assigned when the invoice enters treasury.
	CreatorID    uint  `gorm:"not null;index" json:"creator_id"`
	Validator1ID *uint `gorm:"index" json:"validator1_id,omitempty"`
	Validator2ID *uint `gorm:"index" json:"validator2_id,omitempty"`
	TreasurerID  *uint `gorm:"index" json:"treasurer_id,omitempty"`

	// Supplier
	SupplierName string          `gorm:"size:200;not null" json:"supplier_name"`
	LegalForm    *enum.LegalForm `gorm:"size:50" json:"legal_form,omitempty"`

	// Dates
	InvoiceDate   time.Time  `gorm:"type:date;not null" json:"invoice_date"`
	ReceptionDate *time.Time `gorm:"type:date" json:"reception_date,omitempty"`
	DeliveryDate  *time.Time `gorm:"type:date" json:"delivery_date,omitempty"`
	DueDate       *time.Time `gorm:"type:date" json:"due_date,omitempty"`

	// Amounts. VAT amount and the tax-inclusive total are derived from the
	// base amount, the VAT rate and the withheld VAT on every save.
	AmountExclTax decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount_excl_tax"`
	VATRate       decimal.Decimal `gorm:"type:numeric(5,2)" json:"vat_rate"`
	VATAmount     decimal.Decimal `gorm:"type:numeric(15,2)" json:"vat_amount"`
	AmountInclTax decimal.Decimal `gorm:"type:numeric(15,2)" json:"amount_incl_tax"`
	WithheldVAT   decimal.Decimal `gorm:"type:numeric(15,2)" json:"withheld_vat"`

	PaymentTerm *enum.PaymentTerm `gorm:"size:20" json:"payment_term,omitempty"`
	Rebillable  bool              `gorm:"default:false" json:"rebillable"`

	// References
	Designation string `gorm:"size:500" json:"designation"`
	OrderRef    string `gorm:"size:100" json:"order_ref"`
	Period      string `gorm:"size:50" json:"period"`

	// Validation
	V1ValidatedAt   *time.Time `json:"v1_validated_at,omitempty"`
	V2ValidatedAt   *time.Time `json:"v2_validated_at,omitempty"`
	RejectionReason *string    `gorm:"size:500" json:"rejection_reason,omitempty"`

	// Treasury
	PaymentReference *string    `gorm:"size:200" json:"payment_reference,omitempty"`
	PaymentDate      *time.Time `gorm:"type:date" json:"payment_date,omitempty"`
	ForeignLocal     *string    `gorm:"size:50" json:"foreign_local,omitempty"`

	Status enum.InvoiceStatus `gorm:"size:30;not null;index;default:'SAISIE'" json:"status"`

	// Attachment reference, stored opaque
	AttachmentName *string `gorm:"size:255" json:"attachment_name,omitempty"`
	AttachmentPath *string `gorm:"size:500" json:"-"`
	AttachmentSize *int64  `json:"attachment_size,omitempty"`
	AttachmentMime *string `gorm:"size:100" json:"attachment_mime,omitempty"`

	Comments  string    `gorm:"size:1000" json:"comments"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Creator    User  `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Validator1 *User `gorm:"foreignKey:Validator1ID" json:"validator1,omitempty"`
	Validator2 *User `gorm:"foreignKey:Validator2ID" json:"validator2,omitempty"`
	Treasurer  *User `gorm:"foreignKey:TreasurerID" json:"treasurer,omitempty"`
}

// TableName returns the table name for the Invoice model
func (Invoice) TableName() string {
	return "invoices"
}

// BeforeSave recomputes derived amounts and the due date on every write
func (i *Invoice) BeforeSave(tx *gorm.DB) error {
	i.Recalculate()
	return nil
}

var hundred = decimal.NewFromInt(100)

// Recalculate derives the VAT amount, the tax-inclusive total and the due
// date. The VAT amount is rounded half-up to 2 decimal places. Withheld VAT
// is subtracted from the total only when positive. The due date is derived
// from the invoice date and the payment term only when not already set.
// Running it twice on the same inputs yields the same outputs.
func (i *Invoice) Recalculate() {
	i.VATAmount = i.AmountExclTax.Mul(i.VATRate).Div(hundred).Round(2)
	i.AmountInclTax = i.AmountExclTax.Add(i.VATAmount)
	if i.WithheldVAT.IsPositive() {
		i.AmountInclTax = i.AmountInclTax.Sub(i.WithheldVAT)
	}

	if i.DueDate == nil && i.PaymentTerm != nil && !i.InvoiceDate.IsZero() {
		due := i.InvoiceDate.AddDate(0, 0, i.PaymentTerm.Days())
		i.DueDate = &due
	}
}

// CanEdit reports whether fields may still be modified (draft only)
func (i *Invoice) CanEdit() bool {
	return i.Status == enum.StatusSaisie
}

// CanValidateV1 reports whether the invoice awaits level-1 validation
func (i *Invoice) CanValidateV1() bool {
	return i.Status == enum.StatusEnValidationV1
}

// CanValidateV2 reports whether the invoice awaits level-2 validation
func (i *Invoice) CanValidateV2() bool {
	return i.Status == enum.StatusEnValidationV2
}

// CanPay reports whether the invoice awaits treasury processing
func (i *Invoice) CanPay() bool {
	return i.Status == enum.StatusEnTresorerie
}

// IsValidated reports whether both validation levels have passed.
// VALIDEE only exists in data migrated from the previous system.
func (i *Invoice) IsValidated() bool {
	return i.Status == enum.StatusValidee || i.Status == enum.StatusPayee
}

// IsPaid reports whether the invoice has been paid
func (i *Invoice) IsPaid() bool {
	return i.Status == enum.StatusPayee
}

// DaysUntilDue returns the number of days between ref and the due date,
// negative when the due date has passed, 0 when no due date is set
func (i *Invoice) DaysUntilDue(ref time.Time) int {
	if i.DueDate == nil {
		return 0
	}
	return int(truncateToDay(*i.DueDate).Sub(truncateToDay(ref)).Hours() / 24)
}

// IsOverdue reports whether the due date has passed without payment
func (i *Invoice) IsOverdue(ref time.Time) bool {
	return i.DueDate != nil && truncateToDay(ref).After(truncateToDay(*i.DueDate)) && !i.IsPaid()
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
