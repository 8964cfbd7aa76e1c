package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dafteam/facturation-api/internal/domain/entity"
	"github.com/dafteam/facturation-api/internal/domain/enum"
	"github.com/dafteam/facturation-api/internal/domain/repository"
	"github.com/dafteam/facturation-api/pkg/apperror"
	"github.com/dafteam/facturation-api/pkg/pagination"
)

// urgencyWindowDays is the due-date window below which treasury work is
// flagged urgent
const urgencyWindowDays = 7

// NotificationService decides who must be told about each workflow
// transition and persists the resulting notification rows. Delivery to the
// user (mail, push, polling) is outside this service.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	now              Clock
}

// NewNotificationService creates a new notification service
func NewNotificationService(notificationRepo repository.NotificationRepository, now Clock) *NotificationService {
	if now == nil {
		now = time.Now
	}
	return &NotificationService{
		notificationRepo: notificationRepo,
		now:              now,
	}
}

// ===== DISPATCH POLICY =====

// NotifyValidationV1 tells the assigned level-1 validator a submitted
// invoice awaits them
func (s *NotificationService) NotifyValidationV1(ctx context.Context, invoice *entity.Invoice) error {
	if invoice.Validator1ID == nil {
		return nil
	}
	message := fmt.Sprintf("La facture %s de %s (montant: %s€) est prête pour votre validation niveau 1.",
		invoice.Number, invoice.SupplierName, invoice.AmountInclTax.StringFixed(2))
	return s.notificationRepo.Create(ctx, &entity.Notification{
		RecipientID: *invoice.Validator1ID,
		InvoiceID:   &invoice.ID,
		Title:       "Nouvelle facture à valider (V1)",
		Message:     message,
		Type:        enum.NotificationValidationV1,
	})
}

// NotifyValidationV2 tells the assigned level-2 validator the invoice
// passed level 1
func (s *NotificationService) NotifyValidationV2(ctx context.Context, invoice *entity.Invoice) error {
	if invoice.Validator2ID == nil {
		return nil
	}
	message := fmt.Sprintf("La facture %s de %s (montant: %s€) a été validée par V1 et est prête pour votre validation niveau 2.",
		invoice.Number, invoice.SupplierName, invoice.AmountInclTax.StringFixed(2))
	return s.notificationRepo.Create(ctx, &entity.Notification{
		RecipientID: *invoice.Validator2ID,
		InvoiceID:   &invoice.ID,
		Title:       "Nouvelle facture à valider (V2)",
		Message:     message,
		Type:        enum.NotificationValidationV2,
	})
}

// NotifyTreasury tells the assigned treasurer the invoice is fully
// validated. Flagged urgent when the due date is within 7 days (or absent).
func (s *NotificationService) NotifyTreasury(ctx context.Context, invoice *entity.Invoice) error {
	if invoice.TreasurerID == nil {
		return nil
	}
	dueDate := "Non définie"
	if invoice.DueDate != nil {
		dueDate = invoice.DueDate.Format("2006-01-02")
	}
	message := fmt.Sprintf("La facture %s de %s (montant: %s€) a été entièrement validée et est prête pour le paiement. Échéance: %s",
		invoice.Number, invoice.SupplierName, invoice.AmountInclTax.StringFixed(2), dueDate)
	return s.notificationRepo.Create(ctx, &entity.Notification{
		RecipientID: *invoice.TreasurerID,
		InvoiceID:   &invoice.ID,
		Title:       "Nouvelle facture à traiter (Trésorerie)",
		Message:     message,
		Type:        enum.NotificationTresorerie,
		Urgent:      invoice.DaysUntilDue(s.now()) <= urgencyWindowDays,
	})
}

// NotifyRejection tells the creator their invoice was rejected, with the
// rejecting level and reason. Always urgent.
func (s *NotificationService) NotifyRejection(ctx context.Context, invoice *entity.Invoice, level, reason string) error {
	message := fmt.Sprintf("Votre facture %s de %s a été rejetée par le validateur %s. Motif: %s",
		invoice.Number, invoice.SupplierName, level, reason)
	return s.notificationRepo.Create(ctx, &entity.Notification{
		RecipientID: invoice.CreatorID,
		InvoiceID:   &invoice.ID,
		Title:       fmt.Sprintf("Facture rejetée par %s", level),
		Message:     message,
		Type:        enum.NotificationRejet,
		Urgent:      true,
	})
}

// NotifyPayment tells the creator and both validators the invoice was paid,
// with the payment reference and date
func (s *NotificationService) NotifyPayment(ctx context.Context, invoice *entity.Invoice) error {
	paymentDate := ""
	if invoice.PaymentDate != nil {
		paymentDate = invoice.PaymentDate.Format("2006-01-02")
	}
	paymentRef := ""
	if invoice.PaymentReference != nil {
		paymentRef = *invoice.PaymentReference
	}
	message := fmt.Sprintf("La facture %s de %s (montant: %s€) a été payée le %s. Référence: %s",
		invoice.Number, invoice.SupplierName, invoice.AmountInclTax.StringFixed(2), paymentDate, paymentRef)

	recipients := []uint{invoice.CreatorID}
	if invoice.Validator1ID != nil {
		recipients = append(recipients, *invoice.Validator1ID)
	}
	if invoice.Validator2ID != nil {
		recipients = append(recipients, *invoice.Validator2ID)
	}

	notifications := make([]entity.Notification, 0, len(recipients))
	for _, recipientID := range recipients {
		notifications = append(notifications, entity.Notification{
			RecipientID: recipientID,
			InvoiceID:   &invoice.ID,
			Title:       "Facture payée",
			Message:     message,
			Type:        enum.NotificationPaiement,
		})
	}
	return s.notificationRepo.CreateBatch(ctx, notifications)
}

// ===== READ / MARK =====

// ListForUser returns a user's notifications, newest first
func (s *NotificationService) ListForUser(ctx context.Context, userID uint, params *pagination.PaginationParams) ([]entity.Notification, int64, error) {
	return s.notificationRepo.ListByRecipient(ctx, userID, params)
}

// ListUnread returns a user's unread notifications
func (s *NotificationService) ListUnread(ctx context.Context, userID uint) ([]entity.Notification, error) {
	return s.notificationRepo.ListUnread(ctx, userID)
}

// CountUnread returns the number of unread notifications of a user
func (s *NotificationService) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

// MarkRead marks one notification read. Only its recipient may do so.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, callerID uint) error {
	notification, err := s.notificationRepo.GetByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if notification == nil {
		return apperror.NewNotFoundError("Notification")
	}
	if notification.RecipientID != callerID {
		return apperror.NewAuthorizationError("Notification belongs to another user")
	}
	if notification.Read {
		return nil
	}
	notification.MarkRead(s.now())
	return s.notificationRepo.Update(ctx, notification)
}

// MarkAllRead marks every unread notification of the caller read
func (s *NotificationService) MarkAllRead(ctx context.Context, callerID uint) error {
	return s.notificationRepo.MarkAllRead(ctx, callerID, s.now())
}
