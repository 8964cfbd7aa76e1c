package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dafteam/facturation-api/internal/domain/entity"
	"github.com/dafteam/facturation-api/internal/domain/enum"
	"github.com/dafteam/facturation-api/pkg/apperror"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type workflowFixture struct {
	invoices      *fakeInvoiceRepo
	users         *fakeUserRepo
	traces        *fakeTraceRepo
	notifications *fakeNotificationRepo
	notifier      *NotificationService
	service       *InvoiceService

	creator    *entity.User
	validator1 *entity.User
	validator2 *entity.User
	treasurer  *entity.User
	treasurer2 *entity.User
	admin      *entity.User
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()

	invoices := newFakeInvoiceRepo()
	users := newFakeUserRepo(invoices)
	traces := &fakeTraceRepo{}
	notifications := &fakeNotificationRepo{}
	notifier := NewNotificationService(notifications, fixedClock)
	svc := NewInvoiceService(invoices, users, traces, notifier, &fakeTxManager{}, zerolog.Nop(), fixedClock)

	f := &workflowFixture{
		invoices:      invoices,
		users:         users,
		traces:        traces,
		notifications: notifications,
		notifier:      notifier,
		service:       svc,
	}

	f.creator = f.addUser(t, "Sophie", "Martin", enum.RoleU1, true)
	f.validator1 = f.addUser(t, "Pierre", "Dubois", enum.RoleV1, true)
	f.validator2 = f.addUser(t, "Marie", "Laurent", enum.RoleV2, true)
	f.treasurer = f.addUser(t, "Jean", "Moreau", enum.RoleT1, true)
	f.treasurer2 = f.addUser(t, "Luc", "Petit", enum.RoleT1, true)
	f.admin = f.addUser(t, "Claire", "Bernard", enum.RoleAdmin, true)
	return f
}

func (f *workflowFixture) addUser(t *testing.T, first, last string, role enum.Role, active bool) *entity.User {
	t.Helper()
	user := &entity.User{
		FirstName: first,
		LastName:  last,
		Email:     first + "." + last + "@facturation.local",
		Password:  "hashed",
		Role:      role,
		Active:    active,
	}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func (f *workflowFixture) draftInput() *InvoiceDraftInput {
	return &InvoiceDraftInput{
		SupplierName:  "Fournitures Dupont",
		InvoiceDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		AmountExclTax: decimal.RequireFromString("1000.00"),
		VATRate:       decimal.RequireFromString("20.00"),
		Validator1ID:  &f.validator1.ID,
		Validator2ID:  &f.validator2.ID,
	}
}

func (f *workflowFixture) createDraft(t *testing.T) *entity.Invoice {
	t.Helper()
	invoice, err := f.service.CreateInvoice(context.Background(), f.draftInput(), f.creator.ID)
	require.NoError(t, err)
	return invoice
}

func (f *workflowFixture) submitted(t *testing.T) *entity.Invoice {
	t.Helper()
	invoice := f.createDraft(t)
	invoice, err := f.service.Submit(context.Background(), invoice.ID, f.creator.ID)
	require.NoError(t, err)
	return invoice
}

func TestCreateInvoice(t *testing.T) {
	t.Run("creates a draft with derived amounts and generated number", func(t *testing.T) {
		f := newWorkflowFixture(t)

		invoice := f.createDraft(t)

		assert.Equal(t, enum.StatusSaisie, invoice.Status)
		assert.Equal(t, "FACT-2024-0001", invoice.Number)
		assert.Equal(t, f.creator.ID, invoice.CreatorID)
		assert.True(t, invoice.VATAmount.Equal(decimal.RequireFromString("200.00")))
		assert.True(t, invoice.AmountInclTax.Equal(decimal.RequireFromString("1200.00")))
	})

	t.Run("sequence increments within the invoice year", func(t *testing.T) {
		f := newWorkflowFixture(t)

		f.createDraft(t)
		second := f.createDraft(t)

		assert.Equal(t, "FACT-2024-0002", second.Number)
	})

	t.Run("rejects a duplicate invoice number", func(t *testing.T) {
		f := newWorkflowFixture(t)
		input := f.draftInput()
		input.Number = "FACT-2024-9999"
		_, err := f.service.CreateInvoice(context.Background(), input, f.creator.ID)
		require.NoError(t, err)

		_, err = f.service.CreateInvoice(context.Background(), input, f.creator.ID)
		assert.True(t, apperror.IsStateConflict(err))
	})

	t.Run("only U1 users can create", func(t *testing.T) {
		f := newWorkflowFixture(t)

		_, err := f.service.CreateInvoice(context.Background(), f.draftInput(), f.validator1.ID)

		assert.True(t, apperror.IsAuthorization(err))
	})

	t.Run("rejects a zero amount", func(t *testing.T) {
		f := newWorkflowFixture(t)
		input := f.draftInput()
		input.AmountExclTax = decimal.Zero

		_, err := f.service.CreateInvoice(context.Background(), input, f.creator.ID)

		appErr := apperror.GetAppError(err)
		assert.Equal(t, 422, appErr.Code)
	})

	t.Run("rejects identical validators", func(t *testing.T) {
		f := newWorkflowFixture(t)
		input := f.draftInput()
		input.Validator2ID = &f.validator1.ID

		_, err := f.service.CreateInvoice(context.Background(), input, f.creator.ID)

		appErr := apperror.GetAppError(err)
		assert.Equal(t, 422, appErr.Code)
	})

	t.Run("rejects an assignee holding the wrong role", func(t *testing.T) {
		f := newWorkflowFixture(t)
		input := f.draftInput()
		input.Validator1ID = &f.treasurer.ID

		_, err := f.service.CreateInvoice(context.Background(), input, f.creator.ID)

		appErr := apperror.GetAppError(err)
		assert.Equal(t, 422, appErr.Code)
	})
}

func TestSubmit(t *testing.T) {
	t.Run("moves the draft to level-1 validation", func(t *testing.T) {
		f := newWorkflowFixture(t)
		invoice := f.createDraft(t)

		submitted, err := f.service.Submit(context.Background(), invoice.ID, f.creator.ID)

		require.NoError(t, err)
		assert.Equal(t, enum.StatusEnValidationV1, submitted.Status)

		traces, _ := f.traces.ListByInvoice(context.Background(), invoice.ID)
		require.Len(t, traces, 1)
		assert.Equal(t, "U1", traces[0].Level)
		assert.Equal(t, enum.StatusSaisie, traces[0].PreviousStatus)
		assert.Equal(t, enum.StatusEnValidationV1, traces[0].NewStatus)

		unread, _ := f.notifications.ListUnread(context.Background(), f.validator1.ID)
		require.Len(t, unread, 1)
		assert.Equal(t, enum.NotificationValidationV1, unread[0].Type)
	})

	t.Run("only the creator may submit", func(t *testing.T) {
		f := newWorkflowFixture(t)
		invoice := f.createDraft(t)

		_, err := f.service.Submit(context.Background(), invoice.ID, f.validator1.ID)

		assert.True(t, apperror.IsAuthorization(err))
	})

	t.Run("requires an assigned level-1 validator", func(t *testing.T) {
		f := newWorkflowFixture(t)
		input := f.draftInput()
		input.Validator1ID = nil
		invoice, err := f.service.CreateInvoice(context.Background(), input, f.creator.ID)
		require.NoError(t, err)

		_, err = f.service.Submit(context.Background(), invoice.ID, f.creator.ID)

		appErr := apperror.GetAppError(err)
		assert.Equal(t, 422, appErr.Code)
	})

	t.Run("cannot submit twice", func(t *testing.T) {
		f := newWorkflowFixture(t)
		invoice := f.submitted(t)

		_, err := f.service.Submit(context.Background(), invoice.ID, f.creator.ID)

		assert.True(t, apperror.IsStateConflict(err))
	})

	t.Run("concurrent submits let exactly one through", func(t *testing.T) {
		f := newWorkflowFixture(t)
		invoice := f.createDraft(t)

		errs := make([]error, 2)
		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = f.service.Submit(context.Background(), invoice.ID, f.creator.ID)
			}(i)
		}
		wg.Wait()

		var succeeded, conflicted int
		for _, err := range errs {
			switch {
			case err == nil:
				succeeded++
			case apperror.IsStateConflict(err):
				conflicted++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, succeeded)
		assert.Equal(t, 1, conflicted)

		traces, _ := f.traces.ListByInvoice(context.Background(), invoice.ID)
		assert.Len(t, traces, 1)
	})
}

func TestValidateV1(t *testing.T) {
	t.Run("approval moves the invoice to level 2 and stamps the date", func(t *testing.T) {
		f := newWorkflowFixture(t)
		invoice := f.submitted(t)

		validated, err := f.service.ApproveV1(context.Background(), invoice.ID, f.validator1.ID, "conforme")

		require.NoError(t, err)
		assert.Equal(t, enum.StatusEnValidationV2, validated.Status)
		require.NotNil(t, validated.V1ValidatedAt)
		assert.Equal(t, testNow, *validated.V1ValidatedAt)

		unread, _ := f.notifications.ListUnread(context.Background(), f.validator2.ID)
		require.Len(t, unread, 1)
		assert.Equal(t, enum.NotificationValidationV2, unread[0].Type)
	})

	t.Run("only the assigned validator may act", func(t *testing.T) {
		f := newWorkflowFixture(t)
		other := f.addUser(t, "Anne", "Roux", enum.RoleV1, true)
		invoice := f.submitted(t)

		_, err := f.service.ApproveV1(context.Background(), invoice.ID, other.ID, "")

		assert.True(t, apperror.IsAuthorization(err))
	})

	t.Run("a deactivated validator holds no capability", func(t *testing.T) {
		f := newWorkflowFixture(t)
		invoice := f.submitted(t)
		f.validator1.Active = false
		require.NoError(t, f.users.Update(context.Background(), f.validator1))

		_, err := f.service.ApproveV1(context.Background(), invoice.ID, f.validator1.ID, "")

		assert.True(t, apperror.IsAuthorization(err))
	})

	t.Run("approval requires a level-2 validator assigned", func(t *testing.T) {
		f := newWorkflowFixture(t)
		input := f.draftInput()
		input.Validator2ID = nil
		invoice, err := f.service.CreateInvoice(context.Background(), input, f.creator.ID)
		require.NoError(t, err)
		_, err = f.service.Submit(context.Background(), invoice.ID, f.creator.ID)
		require.NoError(t, err)

		_, err = f.service.ApproveV1(context.Background(), invoice.ID, f.validator1.ID, "")

		appErr := apperror.GetAppError(err)
		assert.Equal(t, 422, appErr.Code)
	})

	t.Run("rejection is terminal and urgent for the creator", func(t *testing.T) {
		f := newWorkflowFixture(t)
		invoice := f.submitted(t)

		rejected, err := f.service.RejectV1(context.Background(), invoice.ID, f.validator1.ID, "montant incohérent")

		require.NoError(t, err)
		assert.Equal(t, enum.StatusRejetee, rejected.Status)
		require.NotNil(t, rejected.RejectionReason)
		assert.Equal(t, "Rejetée par V1: montant incohérent", *rejected.RejectionReason)

		unread, _ := f.notifications.ListUnread(context.Background(), f.creator.ID)
		require.Len(t, unread, 1)
		assert.True(t, unread[0].Urgent)
		assert.Equal(t, enum.NotificationRejet, unread[0].Type)

		// No transition leaves REJETEE
		_, err = f.service.ApproveV1(context.Background(), invoice.ID, f.validator1.ID, "")
		assert.True(t, apperror.IsStateConflict(err))
		_, err = f.service.Submit(context.Background(), invoice.ID, f.creator.ID)
		assert.True(t, apperror.IsStateConflict(err))
	})
}

func TestValidateV2(t *testing.T) {
	approveV1 := func(t *testing.T, f *workflowFixture) *entity.Invoice {
		invoice := f.submitted(t)
		invoice, err := f.service.ApproveV1(context.Background(), invoice.ID, f.validator1.ID, "")
		require.NoError(t, err)
		return invoice
	}

	t.Run("approval moves the invoice to treasury and auto-assigns", func(t *testing.T) {
		f := newWorkflowFixture(t)
		invoice := approveV1(t, f)

		validated, err := f.service.ApproveV2(context.Background(), invoice.ID, f.validator2.ID, "ok")

		require.NoError(t, err)
		assert.Equal(t, enum.StatusEnTresorerie, validated.Status)
		require.NotNil(t, validated.V2ValidatedAt)
		require.NotNil(t, validated.TreasurerID)
		assert.Equal(t, f.treasurer.ID, *validated.TreasurerID)

		unread, _ := f.notifications.ListUnread(context.Background(), f.treasurer.ID)
		require.Len(t, unread, 1)
		assert.Equal(t, enum.NotificationTresorerie, unread[0].Type)
	})

	t.Run("assignment picks the least loaded treasurer", func(t *testing.T) {
		f := newWorkflowFixture(t)

		// First invoice lands on the first treasurer, the second must go to
		// the other one
		first := approveV1(t, f)
		_, err := f.service.ApproveV2(context.Background(), first.ID, f.validator2.ID, "")
		require.NoError(t, err)

		second := approveV1(t, f)
		validated, err := f.service.ApproveV2(context.Background(), second.ID, f.validator2.ID, "")
		require.NoError(t, err)

		require.NotNil(t, validated.TreasurerID)
		assert.Equal(t, f.treasurer2.ID, *validated.TreasurerID)
	})

	t.Run("fails when no active treasurer exists", func(t *testing.T) {
		f := newWorkflowFixture(t)
		invoice := approveV1(t, f)
		for _, treasurer := range []*entity.User{f.treasurer, f.treasurer2} {
			treasurer.Active = false
			require.NoError(t, f.users.Update(context.Background(), treasurer))
		}

		_, err := f.service.ApproveV2(context.Background(), invoice.ID, f.validator2.ID, "")

		appErr := apperror.GetAppError(err)
		assert.Equal(t, 503, appErr.Code)

		// The transition did not happen
		current, getErr := f.service.GetInvoice(context.Background(), invoice.ID)
		require.NoError(t, getErr)
		assert.Equal(t, enum.StatusEnValidationV2, current.Status)
	})

	t.Run("rejection from level 2 is terminal", func(t *testing.T) {
		f := newWorkflowFixture(t)
		invoice := approveV1(t, f)

		rejected, err := f.service.RejectV2(context.Background(), invoice.ID, f.validator2.ID, "budget dépassé")

		require.NoError(t, err)
		assert.Equal(t, enum.StatusRejetee, rejected.Status)
		assert.Equal(t, "Rejetée par V2: budget dépassé", *rejected.RejectionReason)
	})

	t.Run("level-1 validator cannot act at level 2", func(t *testing.T) {
		f := newWorkflowFixture(t)
		invoice := approveV1(t, f)

		_, err := f.service.ApproveV2(context.Background(), invoice.ID, f.validator1.ID, "")

		assert.True(t, apperror.IsAuthorization(err))
	})
}

func TestPay(t *testing.T) {
	inTreasury := func(t *testing.T, f *workflowFixture) *entity.Invoice {
		invoice := f.submitted(t)
		invoice, err := f.service.ApproveV1(context.Background(), invoice.ID, f.validator1.ID, "")
		require.NoError(t, err)
		invoice, err = f.service.ApproveV2(context.Background(), invoice.ID, f.validator2.ID, "")
		require.NoError(t, err)
		return invoice
	}

	t.Run("marks the invoice paid and notifies the chain", func(t *testing.T) {
		f := newWorkflowFixture(t)
		invoice := inTreasury(t, f)

		paid, err := f.service.Pay(context.Background(), invoice.ID, f.treasurer.ID, &PayInput{
			PaymentReference: "VIR-2024-042",
		})

		require.NoError(t, err)
		assert.Equal(t, enum.StatusPayee, paid.Status)
		require.NotNil(t, paid.PaymentReference)
		assert.Equal(t, "VIR-2024-042", *paid.PaymentReference)
		require.NotNil(t, paid.PaymentDate)
		assert.Equal(t, testNow, *paid.PaymentDate)

		for _, recipient := range []uint{f.creator.ID, f.validator1.ID, f.validator2.ID} {
			unread, _ := f.notifications.ListUnread(context.Background(), recipient)
			var payments int
			for _, n := range unread {
				if n.Type == enum.NotificationPaiement {
					payments++
				}
			}
			assert.Equal(t, 1, payments, "recipient %d", recipient)
		}
	})

	t.Run("any active treasurer may process and becomes treasurer of record", func(t *testing.T) {
		f := newWorkflowFixture(t)
		invoice := inTreasury(t, f)

		paid, err := f.service.Pay(context.Background(), invoice.ID, f.treasurer2.ID, &PayInput{
			PaymentReference: "VIR-2024-043",
		})

		require.NoError(t, err)
		assert.Equal(t, f.treasurer2.ID, *paid.TreasurerID)
	})

	t.Run("requires a payment reference", func(t *testing.T) {
		f := newWorkflowFixture(t)
		invoice := inTreasury(t, f)

		_, err := f.service.Pay(context.Background(), invoice.ID, f.treasurer.ID, &PayInput{})

		appErr := apperror.GetAppError(err)
		assert.Equal(t, 422, appErr.Code)
	})

	t.Run("cannot pay twice", func(t *testing.T) {
		f := newWorkflowFixture(t)
		invoice := inTreasury(t, f)
		_, err := f.service.Pay(context.Background(), invoice.ID, f.treasurer.ID, &PayInput{PaymentReference: "VIR-1"})
		require.NoError(t, err)

		_, err = f.service.Pay(context.Background(), invoice.ID, f.treasurer.ID, &PayInput{PaymentReference: "VIR-2"})

		assert.True(t, apperror.IsStateConflict(err))
	})

	t.Run("non-treasurer cannot pay", func(t *testing.T) {
		f := newWorkflowFixture(t)
		invoice := inTreasury(t, f)

		_, err := f.service.Pay(context.Background(), invoice.ID, f.creator.ID, &PayInput{PaymentReference: "VIR-1"})

		assert.True(t, apperror.IsAuthorization(err))
	})
}

func TestFullCircuit(t *testing.T) {
	f := newWorkflowFixture(t)
	invoice := f.createDraft(t)

	var err error
	invoice, err = f.service.Submit(context.Background(), invoice.ID, f.creator.ID)
	require.NoError(t, err)
	invoice, err = f.service.ApproveV1(context.Background(), invoice.ID, f.validator1.ID, "vu")
	require.NoError(t, err)
	invoice, err = f.service.ApproveV2(context.Background(), invoice.ID, f.validator2.ID, "vu")
	require.NoError(t, err)
	invoice, err = f.service.Pay(context.Background(), invoice.ID, f.treasurer.ID, &PayInput{PaymentReference: "VIR-2024-001"})
	require.NoError(t, err)

	assert.Equal(t, enum.StatusPayee, invoice.Status)

	traces, err := f.service.GetTraces(context.Background(), invoice.ID)
	require.NoError(t, err)
	require.Len(t, traces, 4)
	levels := []string{"U1", "V1", "V2", "T1"}
	for i, trace := range traces {
		assert.Equal(t, levels[i], trace.Level)
		assert.True(t, trace.Approved)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	t.Run("draft fields can change while in SAISIE", func(t *testing.T) {
		f := newWorkflowFixture(t)
		invoice := f.createDraft(t)

		input := f.draftInput()
		input.AmountExclTax = decimal.RequireFromString("500.00")
		updated, err := f.service.UpdateInvoice(context.Background(), invoice.ID, input)

		require.NoError(t, err)
		assert.True(t, updated.AmountInclTax.Equal(decimal.RequireFromString("600.00")))
	})

	t.Run("submitted invoices are immutable", func(t *testing.T) {
		f := newWorkflowFixture(t)
		invoice := f.submitted(t)

		_, err := f.service.UpdateInvoice(context.Background(), invoice.ID, f.draftInput())
		assert.True(t, apperror.IsStateConflict(err))

		err = f.service.DeleteInvoice(context.Background(), invoice.ID, f.creator.ID)
		assert.True(t, apperror.IsStateConflict(err))
	})

	t.Run("only the creator or an admin may delete", func(t *testing.T) {
		f := newWorkflowFixture(t)
		invoice := f.createDraft(t)

		err := f.service.DeleteInvoice(context.Background(), invoice.ID, f.validator1.ID)
		assert.True(t, apperror.IsAuthorization(err))

		err = f.service.DeleteInvoice(context.Background(), invoice.ID, f.admin.ID)
		assert.NoError(t, err)
	})
}

func TestSetAttachment(t *testing.T) {
	attachment := &AttachmentInput{
		Name: "facture.pdf",
		Path: "storage/invoices/abc.pdf",
		Mime: "application/pdf",
		Size: 2048,
	}

	t.Run("stores the document reference on a draft", func(t *testing.T) {
		f := newWorkflowFixture(t)
		invoice := f.createDraft(t)

		updated, err := f.service.SetAttachment(context.Background(), invoice.ID, f.creator.ID, attachment)

		require.NoError(t, err)
		require.NotNil(t, updated.AttachmentName)
		assert.Equal(t, "facture.pdf", *updated.AttachmentName)
		require.NotNil(t, updated.AttachmentSize)
		assert.EqualValues(t, 2048, *updated.AttachmentSize)
	})

	t.Run("only the creator or an admin may attach", func(t *testing.T) {
		f := newWorkflowFixture(t)
		invoice := f.createDraft(t)

		_, err := f.service.SetAttachment(context.Background(), invoice.ID, f.validator1.ID, attachment)

		assert.True(t, apperror.IsAuthorization(err))
	})

	t.Run("submitted invoices no longer accept attachments", func(t *testing.T) {
		f := newWorkflowFixture(t)
		invoice := f.submitted(t)

		_, err := f.service.SetAttachment(context.Background(), invoice.ID, f.creator.ID, attachment)

		assert.True(t, apperror.IsStateConflict(err))
	})
}

func TestPendingQueues(t *testing.T) {
	f := newWorkflowFixture(t)

	f.createDraft(t)
	submitted := f.submitted(t)

	pending, err := f.service.ListPendingForUser(context.Background(), f.validator1.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, submitted.ID, pending[0].ID)

	mine, err := f.service.ListPendingForUser(context.Background(), f.creator.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestDueQueries(t *testing.T) {
	f := newWorkflowFixture(t)

	newDraft := func(due time.Time) {
		input := f.draftInput()
		input.DueDate = &due
		_, err := f.service.CreateInvoice(context.Background(), input, f.creator.ID)
		require.NoError(t, err)
	}

	newDraft(testNow.AddDate(0, 0, 3))  // urgent
	newDraft(testNow.AddDate(0, 0, 30)) // comfortable
	newDraft(testNow.AddDate(0, 0, -2)) // overdue

	urgent, err := f.service.ListUrgent(context.Background())
	require.NoError(t, err)
	assert.Len(t, urgent, 1)

	overdue, err := f.service.ListOverdue(context.Background())
	require.NoError(t, err)
	assert.Len(t, overdue, 1)

	_, err = f.service.ListDueWithin(context.Background(), -1)
	appErr := apperror.GetAppError(err)
	assert.Equal(t, 422, appErr.Code)
}
