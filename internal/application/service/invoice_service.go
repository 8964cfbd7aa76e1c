package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dafteam/facturation-api/internal/domain/entity"
	"github.com/dafteam/facturation-api/internal/domain/enum"
	"github.com/dafteam/facturation-api/internal/domain/repository"
	"github.com/dafteam/facturation-api/pkg/apperror"
)

// Clock supplies the current time. Injected so workflow timestamps and
// urgency decisions can be pinned in tests.
type Clock func() time.Time

// InvoiceService owns the invoice workflow: draft management while in
// SAISIE and the transition chain SAISIE → EN_VALIDATION_V1 →
// EN_VALIDATION_V2 → EN_TRESORERIE → PAYEE, with REJETEE reachable from
// either validation level.
//
// Every transition runs inside one transaction: the invoice row is locked,
// preconditions are re-checked against the committed state, then the status
// change, the validation trace and the notifications are written together.
type InvoiceService struct {
	invoiceRepo repository.InvoiceRepository
	userRepo    repository.UserRepository
	traceRepo   repository.ValidationTraceRepository
	notifier    *NotificationService
	tx          repository.TxManager
	log         zerolog.Logger
	now         Clock
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	userRepo repository.UserRepository,
	traceRepo repository.ValidationTraceRepository,
	notifier *NotificationService,
	tx repository.TxManager,
	log zerolog.Logger,
	now Clock,
) *InvoiceService {
	if now == nil {
		now = time.Now
	}
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		userRepo:    userRepo,
		traceRepo:   traceRepo,
		notifier:    notifier,
		tx:          tx,
		log:         log,
		now:         now,
	}
}

// InvoiceDraftInput carries the editable fields of an invoice
type InvoiceDraftInput struct {
	Number        string
	SupplierName  string
	LegalForm     *enum.LegalForm
	InvoiceDate   time.Time
	ReceptionDate *time.Time
	DeliveryDate  *time.Time
	DueDate       *time.Time
	AmountExclTax decimal.Decimal
	VATRate       decimal.Decimal
	WithheldVAT   decimal.Decimal
	PaymentTerm   *enum.PaymentTerm
	Rebillable    bool
	Designation   string
	OrderRef      string
	Period        string
	ForeignLocal  *string
	Comments      string
	Validator1ID  *uint
	Validator2ID  *uint
	TreasurerID   *uint
}

// PayInput carries the treasury processing parameters
type PayInput struct {
	PaymentReference string
	PaymentDate      *time.Time
	Comment          string
}

var (
	minAmount = decimal.NewFromFloat(0.01)
	maxRate   = decimal.NewFromInt(100)
)

// CreateInvoice creates a new invoice in SAISIE on behalf of a U1 user
func (s *InvoiceService) CreateInvoice(ctx context.Context, input *InvoiceDraftInput, creatorID uint) (*entity.Invoice, error) {
	creator, err := s.getUser(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if !creator.IsCreator() {
		return nil, apperror.NewAuthorizationError("Only U1 users can create invoices")
	}

	if err := s.validateDraft(input); err != nil {
		return nil, err
	}

	invoice := &entity.Invoice{
		CreatorID:     creator.ID,
		Status:        enum.StatusSaisie,
		Number:        input.Number,
		SupplierName:  input.SupplierName,
		LegalForm:     input.LegalForm,
		InvoiceDate:   input.InvoiceDate,
		ReceptionDate: input.ReceptionDate,
		DeliveryDate:  input.DeliveryDate,
		DueDate:       input.DueDate,
		AmountExclTax: input.AmountExclTax,
		VATRate:       input.VATRate,
		WithheldVAT:   input.WithheldVAT,
		PaymentTerm:   input.PaymentTerm,
		Rebillable:    input.Rebillable,
		Designation:   input.Designation,
		OrderRef:      input.OrderRef,
		Period:        input.Period,
		ForeignLocal:  input.ForeignLocal,
		Comments:      input.Comments,
		Validator1ID:  input.Validator1ID,
		Validator2ID:  input.Validator2ID,
		TreasurerID:   input.TreasurerID,
	}

	if err := s.validateAssignments(ctx, invoice); err != nil {
		return nil, err
	}

	if invoice.Number == "" {
		number, err := s.generateNumber(ctx)
		if err != nil {
			return nil, err
		}
		invoice.Number = number
	} else if existing, err := s.invoiceRepo.GetByNumber(ctx, invoice.Number); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperror.NewConflictError(fmt.Sprintf("Invoice number %s already exists", invoice.Number))
	}

	invoice.Recalculate()
	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("number", invoice.Number).
		Uint("creator_id", creator.ID).
		Msg("invoice created")
	return invoice, nil
}

// UpdateInvoice modifies a draft. Only invoices still in SAISIE can change.
func (s *InvoiceService) UpdateInvoice(ctx context.Context, id uint, input *InvoiceDraftInput) (*entity.Invoice, error) {
	var updated *entity.Invoice
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		invoice, err := s.lockInvoice(ctx, id)
		if err != nil {
			return err
		}
		if !invoice.CanEdit() {
			return apperror.NewStateConflictError("Invoice can no longer be modified")
		}

		if err := s.validateDraft(input); err != nil {
			return err
		}

		invoice.SupplierName = input.SupplierName
		invoice.LegalForm = input.LegalForm
		invoice.InvoiceDate = input.InvoiceDate
		invoice.ReceptionDate = input.ReceptionDate
		invoice.DeliveryDate = input.DeliveryDate
		invoice.DueDate = input.DueDate
		invoice.AmountExclTax = input.AmountExclTax
		invoice.VATRate = input.VATRate
		invoice.WithheldVAT = input.WithheldVAT
		invoice.PaymentTerm = input.PaymentTerm
		invoice.Rebillable = input.Rebillable
		invoice.Designation = input.Designation
		invoice.OrderRef = input.OrderRef
		invoice.Period = input.Period
		invoice.ForeignLocal = input.ForeignLocal
		invoice.Comments = input.Comments
		if input.Validator1ID != nil {
			invoice.Validator1ID = input.Validator1ID
		}
		if input.Validator2ID != nil {
			invoice.Validator2ID = input.Validator2ID
		}
		if input.TreasurerID != nil {
			invoice.TreasurerID = input.TreasurerID
		}

		if err := s.validateAssignments(ctx, invoice); err != nil {
			return err
		}

		invoice.Recalculate()
		if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
			return err
		}
		updated = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteInvoice removes a draft. Only invoices still in SAISIE can be
// deleted, and only by their creator or an admin.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, id, callerID uint) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		invoice, err := s.lockInvoice(ctx, id)
		if err != nil {
			return err
		}
		caller, err := s.getUser(ctx, callerID)
		if err != nil {
			return err
		}
		if invoice.CreatorID != caller.ID && !caller.IsAdmin() {
			return apperror.NewAuthorizationError("Only the creator can delete this invoice")
		}
		if !invoice.CanEdit() {
			return apperror.NewStateConflictError("Invoice can no longer be deleted")
		}
		if err := s.invoiceRepo.Delete(ctx, invoice.ID); err != nil {
			return err
		}
		s.log.Info().Str("number", invoice.Number).Msg("invoice deleted")
		return nil
	})
}

// Submit moves a draft into level-1 validation. Only the creator may
// submit, and a level-1 validator must be assigned.
func (s *InvoiceService) Submit(ctx context.Context, invoiceID, callerID uint) (*entity.Invoice, error) {
	var submitted *entity.Invoice
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		invoice, err := s.lockInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		caller, err := s.getUser(ctx, callerID)
		if err != nil {
			return err
		}
		if invoice.CreatorID != caller.ID {
			return apperror.NewAuthorizationError("Only the creator can submit this invoice")
		}
		if !caller.IsCreator() {
			return apperror.NewAuthorizationError("User cannot submit invoices")
		}
		if invoice.Status != enum.StatusSaisie {
			return apperror.NewStateConflictError("Invoice must be in SAISIE to be submitted")
		}
		if invoice.Validator1ID == nil {
			return apperror.NewValidationError("No level-1 validator assigned")
		}

		invoice.Status = enum.StatusEnValidationV1
		if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
			return err
		}
		if err := s.appendTrace(ctx, invoice, caller, enum.StatusSaisie, enum.StatusEnValidationV1,
			"Soumission pour validation V1", true, "U1"); err != nil {
			return err
		}
		if err := s.notifier.NotifyValidationV1(ctx, invoice); err != nil {
			return err
		}
		submitted = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("number", submitted.Number).Msg("invoice submitted for V1 validation")
	return submitted, nil
}

// ApproveV1 passes level-1 validation and moves the invoice to level 2
func (s *InvoiceService) ApproveV1(ctx context.Context, invoiceID, callerID uint, comment string) (*entity.Invoice, error) {
	return s.validateV1(ctx, invoiceID, callerID, comment, true)
}

// RejectV1 rejects the invoice at level 1. REJETEE is terminal.
func (s *InvoiceService) RejectV1(ctx context.Context, invoiceID, callerID uint, reason string) (*entity.Invoice, error) {
	return s.validateV1(ctx, invoiceID, callerID, reason, false)
}

// ApproveV2 passes level-2 validation and moves the invoice to treasury
func (s *InvoiceService) ApproveV2(ctx context.Context, invoiceID, callerID uint, comment string) (*entity.Invoice, error) {
	return s.validateV2(ctx, invoiceID, callerID, comment, true)
}

// RejectV2 rejects the invoice at level 2. REJETEE is terminal.
func (s *InvoiceService) RejectV2(ctx context.Context, invoiceID, callerID uint, reason string) (*entity.Invoice, error) {
	return s.validateV2(ctx, invoiceID, callerID, reason, false)
}

func (s *InvoiceService) validateV1(ctx context.Context, invoiceID, callerID uint, comment string, approve bool) (*entity.Invoice, error) {
	var result *entity.Invoice
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		invoice, err := s.lockInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		validator, err := s.getUser(ctx, callerID)
		if err != nil {
			return err
		}
		if !validator.IsValidatorV1() {
			return apperror.NewAuthorizationError("User is not a level-1 validator")
		}
		if !invoice.CanValidateV1() {
			return apperror.NewStateConflictError("Invoice cannot be validated at level 1 in its current status")
		}
		if invoice.Validator1ID == nil || *invoice.Validator1ID != validator.ID {
			return apperror.NewAuthorizationError("You are not the validator assigned to this invoice")
		}

		previous := invoice.Status
		if approve {
			if invoice.Validator2ID == nil {
				return apperror.NewValidationError("No level-2 validator assigned")
			}
			now := s.now()
			invoice.Status = enum.StatusEnValidationV2
			invoice.V1ValidatedAt = &now
		} else {
			reason := "Rejetée par V1: " + comment
			invoice.Status = enum.StatusRejetee
			invoice.RejectionReason = &reason
		}

		if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
			return err
		}
		if err := s.appendTrace(ctx, invoice, validator, previous, invoice.Status, comment, approve, "V1"); err != nil {
			return err
		}
		if approve {
			if err := s.notifier.NotifyValidationV2(ctx, invoice); err != nil {
				return err
			}
		} else {
			if err := s.notifier.NotifyRejection(ctx, invoice, "V1", comment); err != nil {
				return err
			}
		}
		result = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logValidation(result, "V1", approve)
	return result, nil
}

func (s *InvoiceService) validateV2(ctx context.Context, invoiceID, callerID uint, comment string, approve bool) (*entity.Invoice, error) {
	var result *entity.Invoice
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		invoice, err := s.lockInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		validator, err := s.getUser(ctx, callerID)
		if err != nil {
			return err
		}
		if !validator.IsValidatorV2() {
			return apperror.NewAuthorizationError("User is not a level-2 validator")
		}
		if !invoice.CanValidateV2() {
			return apperror.NewStateConflictError("Invoice cannot be validated at level 2 in its current status")
		}
		if invoice.Validator2ID == nil || *invoice.Validator2ID != validator.ID {
			return apperror.NewAuthorizationError("You are not the validator assigned to this invoice")
		}

		previous := invoice.Status
		if approve {
			now := s.now()
			invoice.Status = enum.StatusEnTresorerie
			invoice.V2ValidatedAt = &now

			// Auto-assignment happens inside the same transaction as the
			// transition so the workload snapshot cannot drift
			if invoice.TreasurerID == nil {
				treasurer, err := s.userRepo.FindLeastLoadedTreasurer(ctx)
				if err != nil {
					return err
				}
				if treasurer == nil {
					return apperror.NewResourceUnavailableError("No active treasurer available")
				}
				invoice.TreasurerID = &treasurer.ID
			}
		} else {
			reason := "Rejetée par V2: " + comment
			invoice.Status = enum.StatusRejetee
			invoice.RejectionReason = &reason
		}

		if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
			return err
		}
		if err := s.appendTrace(ctx, invoice, validator, previous, invoice.Status, comment, approve, "V2"); err != nil {
			return err
		}
		if approve {
			if err := s.notifier.NotifyTreasury(ctx, invoice); err != nil {
				return err
			}
		} else {
			if err := s.notifier.NotifyRejection(ctx, invoice, "V2", comment); err != nil {
				return err
			}
		}
		result = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logValidation(result, "V2", approve)
	return result, nil
}

// Pay settles an invoice waiting in treasury. Any active treasurer may
// process it and becomes the treasurer of record.
func (s *InvoiceService) Pay(ctx context.Context, invoiceID, callerID uint, input *PayInput) (*entity.Invoice, error) {
	if input.PaymentReference == "" {
		return nil, apperror.NewValidationError("Payment reference is required")
	}

	var paid *entity.Invoice
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		invoice, err := s.lockInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		treasurer, err := s.getUser(ctx, callerID)
		if err != nil {
			return err
		}
		if !treasurer.IsTreasurer() {
			return apperror.NewAuthorizationError("User is not a treasurer")
		}
		if !invoice.CanPay() {
			return apperror.NewStateConflictError("Invoice cannot be processed by treasury in its current status")
		}

		previous := invoice.Status
		paymentDate := s.now()
		if input.PaymentDate != nil {
			paymentDate = *input.PaymentDate
		}

		invoice.Status = enum.StatusPayee
		invoice.PaymentReference = &input.PaymentReference
		invoice.PaymentDate = &paymentDate
		invoice.TreasurerID = &treasurer.ID

		if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
			return err
		}
		if err := s.appendTrace(ctx, invoice, treasurer, previous, enum.StatusPayee, input.Comment, true, "T1"); err != nil {
			return err
		}
		if err := s.notifier.NotifyPayment(ctx, invoice); err != nil {
			return err
		}
		paid = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("number", paid.Number).
		Str("payment_reference", input.PaymentReference).
		Msg("invoice paid")
	return paid, nil
}

// AttachmentInput carries the stored file reference of an invoice document
type AttachmentInput struct {
	Name string
	Path string
	Mime string
	Size int64
}

// SetAttachment records the uploaded document of a draft. Only the creator
// or an admin may attach, and only while the invoice is still in SAISIE.
func (s *InvoiceService) SetAttachment(ctx context.Context, invoiceID, callerID uint, input *AttachmentInput) (*entity.Invoice, error) {
	var updated *entity.Invoice
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		invoice, err := s.lockInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		caller, err := s.getUser(ctx, callerID)
		if err != nil {
			return err
		}
		if invoice.CreatorID != caller.ID && !caller.IsAdmin() {
			return apperror.NewAuthorizationError("Only the creator can attach a document to this invoice")
		}
		if !invoice.CanEdit() {
			return apperror.NewStateConflictError("Invoice can no longer be modified")
		}

		invoice.AttachmentName = &input.Name
		invoice.AttachmentPath = &input.Path
		invoice.AttachmentMime = &input.Mime
		invoice.AttachmentSize = &input.Size
		if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
			return err
		}
		updated = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("number", updated.Number).Str("file", input.Name).Msg("attachment stored")
	return updated, nil
}

// ===== READS =====

// GetInvoice loads one invoice by id
func (s *InvoiceService) GetInvoice(ctx context.Context, id uint) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	return invoice, nil
}

// GetInvoiceByNumber loads one invoice by business number
func (s *InvoiceService) GetInvoiceByNumber(ctx context.Context, number string) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	return invoice, nil
}

// ListInvoices returns invoices matching the filter
func (s *InvoiceService) ListInvoices(ctx context.Context, params *repository.InvoiceFilterParams) ([]entity.Invoice, int64, error) {
	return s.invoiceRepo.List(ctx, params)
}

// ListByStatus returns all invoices in the given status
func (s *InvoiceService) ListByStatus(ctx context.Context, status enum.InvoiceStatus) ([]entity.Invoice, error) {
	if !status.IsValid() {
		return nil, apperror.NewValidationError(fmt.Sprintf("Unknown status %q", status))
	}
	return s.invoiceRepo.ListByStatus(ctx, status)
}

// ListByCreator returns the invoices created by one user
func (s *InvoiceService) ListByCreator(ctx context.Context, creatorID uint) ([]entity.Invoice, error) {
	return s.invoiceRepo.ListByCreator(ctx, creatorID)
}

// ListPendingForUser returns the work queue matching the user's role:
// drafts for a creator, assigned invoices awaiting validation for a
// validator, treasury queue for a treasurer
func (s *InvoiceService) ListPendingForUser(ctx context.Context, userID uint) ([]entity.Invoice, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	switch user.Role {
	case enum.RoleU1:
		return s.invoiceRepo.ListByCreator(ctx, user.ID)
	case enum.RoleV1:
		return s.invoiceRepo.ListPendingV1(ctx, user.ID)
	case enum.RoleV2:
		return s.invoiceRepo.ListPendingV2(ctx, user.ID)
	case enum.RoleT1:
		return s.invoiceRepo.ListPendingTreasury(ctx, user.ID)
	}
	return nil, nil
}

// ListPendingV1 returns invoices awaiting level-1 validation by one validator
func (s *InvoiceService) ListPendingV1(ctx context.Context, validatorID uint) ([]entity.Invoice, error) {
	return s.invoiceRepo.ListPendingV1(ctx, validatorID)
}

// ListPendingV2 returns invoices awaiting level-2 validation by one validator
func (s *InvoiceService) ListPendingV2(ctx context.Context, validatorID uint) ([]entity.Invoice, error) {
	return s.invoiceRepo.ListPendingV2(ctx, validatorID)
}

// ListPendingTreasury returns invoices awaiting payment by one treasurer
func (s *InvoiceService) ListPendingTreasury(ctx context.Context, treasurerID uint) ([]entity.Invoice, error) {
	return s.invoiceRepo.ListPendingTreasury(ctx, treasurerID)
}

// ListDueWithin returns unpaid invoices due within the next n days
func (s *InvoiceService) ListDueWithin(ctx context.Context, days int) ([]entity.Invoice, error) {
	if days < 0 {
		return nil, apperror.NewValidationError("Days must not be negative")
	}
	now := s.now()
	return s.invoiceRepo.ListDueBetween(ctx, now, now.AddDate(0, 0, days))
}

// ListUrgent returns unpaid invoices due within 7 days
func (s *InvoiceService) ListUrgent(ctx context.Context) ([]entity.Invoice, error) {
	return s.ListDueWithin(ctx, urgencyWindowDays)
}

// ListOverdue returns unpaid invoices whose due date has passed
func (s *InvoiceService) ListOverdue(ctx context.Context) ([]entity.Invoice, error) {
	return s.invoiceRepo.ListOverdue(ctx, s.now())
}

// GetTraces returns the audit trail of one invoice, oldest first
func (s *InvoiceService) GetTraces(ctx context.Context, invoiceID uint) ([]entity.ValidationTrace, error) {
	if _, err := s.GetInvoice(ctx, invoiceID); err != nil {
		return nil, err
	}
	return s.traceRepo.ListByInvoice(ctx, invoiceID)
}

// ===== HELPERS =====

func (s *InvoiceService) lockInvoice(ctx context.Context, id uint) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	return invoice, nil
}

func (s *InvoiceService) getUser(ctx context.Context, id uint) (*entity.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NewNotFoundError("User")
	}
	return user, nil
}

func (s *InvoiceService) validateDraft(input *InvoiceDraftInput) error {
	var fields []apperror.FieldError
	if input.SupplierName == "" {
		fields = append(fields, apperror.FieldError{Field: "supplier_name", Message: "supplier name is required"})
	}
	if input.InvoiceDate.IsZero() {
		fields = append(fields, apperror.FieldError{Field: "invoice_date", Message: "invoice date is required"})
	}
	if input.AmountExclTax.LessThan(minAmount) {
		fields = append(fields, apperror.FieldError{Field: "amount_excl_tax", Message: "amount must be at least 0.01"})
	}
	if input.VATRate.IsNegative() || input.VATRate.GreaterThan(maxRate) {
		fields = append(fields, apperror.FieldError{Field: "vat_rate", Message: "VAT rate must be between 0 and 100"})
	}
	if input.WithheldVAT.IsNegative() {
		fields = append(fields, apperror.FieldError{Field: "withheld_vat", Message: "withheld VAT must not be negative"})
	}
	if input.LegalForm != nil && !input.LegalForm.IsValid() {
		fields = append(fields, apperror.FieldError{Field: "legal_form", Message: "unknown legal form"})
	}
	if input.PaymentTerm != nil && !input.PaymentTerm.IsValid() {
		fields = append(fields, apperror.FieldError{Field: "payment_term", Message: "unknown payment term"})
	}
	if len(fields) > 0 {
		return apperror.NewValidationError("Invalid invoice fields", fields...)
	}
	return nil
}

// validateAssignments enforces the role invariants on assigned actors:
// validator-1 holds V1, validator-2 holds V2, the treasurer holds T1, and
// the two validators are distinct users
func (s *InvoiceService) validateAssignments(ctx context.Context, invoice *entity.Invoice) error {
	if invoice.Validator1ID != nil {
		v1, err := s.getUser(ctx, *invoice.Validator1ID)
		if err != nil {
			return err
		}
		if !v1.IsValidatorV1() {
			return apperror.NewValidationError("Validator 1 must hold the V1 role")
		}
	}
	if invoice.Validator2ID != nil {
		v2, err := s.getUser(ctx, *invoice.Validator2ID)
		if err != nil {
			return err
		}
		if !v2.IsValidatorV2() {
			return apperror.NewValidationError("Validator 2 must hold the V2 role")
		}
	}
	if invoice.TreasurerID != nil {
		t1, err := s.getUser(ctx, *invoice.TreasurerID)
		if err != nil {
			return err
		}
		if !t1.IsTreasurer() {
			return apperror.NewValidationError("Treasurer must hold the T1 role")
		}
	}
	if invoice.Validator1ID != nil && invoice.Validator2ID != nil &&
		*invoice.Validator1ID == *invoice.Validator2ID {
		return apperror.NewValidationError("Validators V1 and V2 must be different users")
	}
	return nil
}

// generateNumber builds the next FACT-<year>-<seq> business number
func (s *InvoiceService) generateNumber(ctx context.Context) (string, error) {
	year := s.now().Year()
	count, err := s.invoiceRepo.CountByInvoiceYear(ctx, year)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("FACT-%d-%04d", year, count+1), nil
}

func (s *InvoiceService) appendTrace(ctx context.Context, invoice *entity.Invoice, actor *entity.User,
	previous, next enum.InvoiceStatus, comment string, approved bool, level string) error {
	return s.traceRepo.Append(ctx, &entity.ValidationTrace{
		InvoiceID:      invoice.ID,
		UserID:         actor.ID,
		PreviousStatus: previous,
		NewStatus:      next,
		Approved:       approved,
		Comment:        comment,
		Level:          level,
		ValidatedAt:    s.now(),
	})
}

func (s *InvoiceService) logValidation(invoice *entity.Invoice, level string, approved bool) {
	event := s.log.Info().Str("number", invoice.Number).Str("level", level)
	if approved {
		event.Msg("invoice approved")
	} else {
		event.Msg("invoice rejected")
	}
}
