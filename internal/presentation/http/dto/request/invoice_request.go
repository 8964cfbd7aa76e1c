package request

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dafteam/facturation-api/internal/application/service"
	"github.com/dafteam/facturation-api/internal/domain/enum"
	"github.com/dafteam/facturation-api/pkg/apperror"
)

const dateLayout = "2006-01-02"

// InvoiceRequest represents an invoice creation or update request. Dates
// travel as "YYYY-MM-DD" strings, amounts as JSON numbers or strings.
type InvoiceRequest struct {
	Number        string          `json:"number" binding:"omitempty,max=100"`
	SupplierName  string          `json:"supplier_name" binding:"required,max=200"`
	LegalForm     *string         `json:"legal_form"`
	InvoiceDate   string          `json:"invoice_date" binding:"required"`
	ReceptionDate *string         `json:"reception_date"`
	DeliveryDate  *string         `json:"delivery_date"`
	DueDate       *string         `json:"due_date"`
	AmountExclTax decimal.Decimal `json:"amount_excl_tax" binding:"required"`
	VATRate       decimal.Decimal `json:"vat_rate"`
	WithheldVAT   decimal.Decimal `json:"withheld_vat"`
	PaymentTerm   *string         `json:"payment_term"`
	Rebillable    bool            `json:"rebillable"`
	Designation   string          `json:"designation" binding:"omitempty,max=500"`
	OrderRef      string          `json:"order_ref" binding:"omitempty,max=100"`
	Period        string          `json:"period" binding:"omitempty,max=50"`
	ForeignLocal  *string         `json:"foreign_local"`
	Comments      string          `json:"comments" binding:"omitempty,max=1000"`
	Validator1ID  *uint           `json:"validator1_id"`
	Validator2ID  *uint           `json:"validator2_id"`
	TreasurerID   *uint           `json:"treasurer_id"`
}

// ToDraftInput converts the request into the service input, parsing dates
// and enum values
func (r *InvoiceRequest) ToDraftInput() (*service.InvoiceDraftInput, error) {
	invoiceDate, err := time.Parse(dateLayout, r.InvoiceDate)
	if err != nil {
		return nil, apperror.NewValidationError("Invalid invoice_date, expected YYYY-MM-DD")
	}

	input := &service.InvoiceDraftInput{
		Number:        r.Number,
		SupplierName:  r.SupplierName,
		InvoiceDate:   invoiceDate,
		AmountExclTax: r.AmountExclTax,
		VATRate:       r.VATRate,
		WithheldVAT:   r.WithheldVAT,
		Rebillable:    r.Rebillable,
		Designation:   r.Designation,
		OrderRef:      r.OrderRef,
		Period:        r.Period,
		ForeignLocal:  r.ForeignLocal,
		Comments:      r.Comments,
		Validator1ID:  r.Validator1ID,
		Validator2ID:  r.Validator2ID,
		TreasurerID:   r.TreasurerID,
	}

	if input.ReceptionDate, err = parseOptionalDate(r.ReceptionDate, "reception_date"); err != nil {
		return nil, err
	}
	if input.DeliveryDate, err = parseOptionalDate(r.DeliveryDate, "delivery_date"); err != nil {
		return nil, err
	}
	if input.DueDate, err = parseOptionalDate(r.DueDate, "due_date"); err != nil {
		return nil, err
	}

	if r.LegalForm != nil && *r.LegalForm != "" {
		form := enum.LegalForm(*r.LegalForm)
		input.LegalForm = &form
	}
	if r.PaymentTerm != nil && *r.PaymentTerm != "" {
		term := enum.PaymentTerm(*r.PaymentTerm)
		input.PaymentTerm = &term
	}

	return input, nil
}

func parseOptionalDate(value *string, field string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *value)
	if err != nil {
		return nil, apperror.NewValidationError("Invalid " + field + ", expected YYYY-MM-DD")
	}
	return &t, nil
}

// ValidationRequest carries the comment of an approval or the reason of a
// rejection
type ValidationRequest struct {
	Comment string `json:"comment" binding:"omitempty,max=500"`
}

// RejectionRequest requires a reason
type RejectionRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// PayRequest represents a treasury processing request
type PayRequest struct {
	PaymentReference string  `json:"payment_reference" binding:"required,max=200"`
	PaymentDate      *string `json:"payment_date"`
	Comment          string  `json:"comment" binding:"omitempty,max=500"`
}

// ToPayInput converts the request into the service input
func (r *PayRequest) ToPayInput() (*service.PayInput, error) {
	paymentDate, err := parseOptionalDate(r.PaymentDate, "payment_date")
	if err != nil {
		return nil, err
	}
	return &service.PayInput{
		PaymentReference: r.PaymentReference,
		PaymentDate:      paymentDate,
		Comment:          r.Comment,
	}, nil
}

// InvoiceFilterRequest represents invoice filter parameters
type InvoiceFilterRequest struct {
	Search    string `form:"search"`
	Status    string `form:"status"`
	CreatorID uint   `form:"creator_id"`
	Supplier  string `form:"supplier"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
	Page      int    `form:"page"`
	PerPage   int    `form:"per_page"`
}
