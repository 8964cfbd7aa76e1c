package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dafteam/facturation-api/internal/domain/entity"
	"github.com/dafteam/facturation-api/internal/domain/enum"
	"github.com/dafteam/facturation-api/internal/domain/repository"
	"github.com/dafteam/facturation-api/pkg/pagination"
)

// In-memory repositories backing the service tests. The tx manager holds a
// mutex for the duration of each transaction, mirroring the row lock the
// real implementation takes, so racing transitions are serialized and the
// loser observes the committed state of the winner.

type fakeTxManager struct {
	mu sync.Mutex
}

func (m *fakeTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}

type fakeInvoiceRepo struct {
	mu       sync.Mutex
	invoices map[uint]entity.Invoice
	nextID   uint
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{invoices: make(map[uint]entity.Invoice), nextID: 1}
}

func (r *fakeInvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	invoice.ID = r.nextID
	r.nextID++
	invoice.CreatedAt = time.Now()
	r.invoices[invoice.ID] = *invoice
	return nil
}

func (r *fakeInvoiceRepo) GetByID(ctx context.Context, id uint) (*entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if invoice, ok := r.invoices[id]; ok {
		copied := invoice
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeInvoiceRepo) GetByIDForUpdate(ctx context.Context, id uint) (*entity.Invoice, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeInvoiceRepo) GetByNumber(ctx context.Context, number string) (*entity.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, invoice := range r.invoices {
		if invoice.Number == number {
			copied := invoice
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeInvoiceRepo) Update(ctx context.Context, invoice *entity.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	invoice.Recalculate()
	invoice.UpdatedAt = time.Now()
	r.invoices[invoice.ID] = *invoice
	return nil
}

func (r *fakeInvoiceRepo) Delete(ctx context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.invoices, id)
	return nil
}

func (r *fakeInvoiceRepo) List(ctx context.Context, params *repository.InvoiceFilterParams) ([]entity.Invoice, int64, error) {
	all := r.all()
	return all, int64(len(all)), nil
}

func (r *fakeInvoiceRepo) ListByStatus(ctx context.Context, status enum.InvoiceStatus) ([]entity.Invoice, error) {
	return r.filter(func(i *entity.Invoice) bool { return i.Status == status }), nil
}

func (r *fakeInvoiceRepo) ListByCreator(ctx context.Context, creatorID uint) ([]entity.Invoice, error) {
	return r.filter(func(i *entity.Invoice) bool { return i.CreatorID == creatorID }), nil
}

func (r *fakeInvoiceRepo) ListPendingV1(ctx context.Context, validatorID uint) ([]entity.Invoice, error) {
	return r.filter(func(i *entity.Invoice) bool {
		return i.Status == enum.StatusEnValidationV1 && i.Validator1ID != nil && *i.Validator1ID == validatorID
	}), nil
}

func (r *fakeInvoiceRepo) ListPendingV2(ctx context.Context, validatorID uint) ([]entity.Invoice, error) {
	return r.filter(func(i *entity.Invoice) bool {
		return i.Status == enum.StatusEnValidationV2 && i.Validator2ID != nil && *i.Validator2ID == validatorID
	}), nil
}

func (r *fakeInvoiceRepo) ListPendingTreasury(ctx context.Context, treasurerID uint) ([]entity.Invoice, error) {
	return r.filter(func(i *entity.Invoice) bool {
		return i.Status == enum.StatusEnTresorerie && i.TreasurerID != nil && *i.TreasurerID == treasurerID
	}), nil
}

func (r *fakeInvoiceRepo) ListDueBetween(ctx context.Context, from, to time.Time) ([]entity.Invoice, error) {
	return r.filter(func(i *entity.Invoice) bool {
		if i.Status.IsTerminal() || i.DueDate == nil {
			return false
		}
		return !i.DueDate.Before(from) && !i.DueDate.After(to)
	}), nil
}

func (r *fakeInvoiceRepo) ListOverdue(ctx context.Context, ref time.Time) ([]entity.Invoice, error) {
	return r.filter(func(i *entity.Invoice) bool {
		return !i.Status.IsTerminal() && i.DueDate != nil && i.DueDate.Before(ref)
	}), nil
}

func (r *fakeInvoiceRepo) CountByStatus(ctx context.Context) (map[enum.InvoiceStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[enum.InvoiceStatus]int64)
	for _, invoice := range r.invoices {
		counts[invoice.Status]++
	}
	return counts, nil
}

func (r *fakeInvoiceRepo) CountByInvoiceYear(ctx context.Context, year int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, invoice := range r.invoices {
		if invoice.InvoiceDate.Year() == year {
			count++
		}
	}
	return count, nil
}

func (r *fakeInvoiceRepo) Workload(ctx context.Context, userID uint) (*repository.UserWorkload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	workload := &repository.UserWorkload{}
	for _, invoice := range r.invoices {
		if invoice.CreatorID == userID {
			workload.Created++
		}
		if invoice.Validator1ID != nil && *invoice.Validator1ID == userID && invoice.V1ValidatedAt != nil {
			workload.ValidatedV1++
		}
		if invoice.Validator2ID != nil && *invoice.Validator2ID == userID && invoice.V2ValidatedAt != nil {
			workload.ValidatedV2++
		}
		if invoice.TreasurerID != nil && *invoice.TreasurerID == userID && invoice.Status == enum.StatusPayee {
			workload.Processed++
		}
	}
	return workload, nil
}

func (r *fakeInvoiceRepo) all() []entity.Invoice {
	return r.filter(func(*entity.Invoice) bool { return true })
}

func (r *fakeInvoiceRepo) filter(keep func(*entity.Invoice) bool) []entity.Invoice {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Invoice
	for _, invoice := range r.invoices {
		if keep(&invoice) {
			out = append(out, invoice)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type fakeUserRepo struct {
	mu       sync.Mutex
	users    map[uint]entity.User
	invoices *fakeInvoiceRepo
	nextID   uint
}

func newFakeUserRepo(invoices *fakeInvoiceRepo) *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]entity.User), invoices: invoices, nextID: 1}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == 0 {
		user.ID = r.nextID
	}
	if user.ID >= r.nextID {
		r.nextID = user.ID + 1
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		copied := user
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, params *pagination.PaginationParams, search string) ([]entity.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.User
	for _, user := range r.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) ListByRole(ctx context.Context, role enum.Role, activeOnly bool) ([]entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.User
	for _, user := range r.users {
		if user.Role == role && (!activeOnly || user.Active) {
			out = append(out, user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeUserRepo) FindLeastLoadedTreasurer(ctx context.Context) (*entity.User, error) {
	treasurers, err := r.ListByRole(ctx, enum.RoleT1, true)
	if err != nil {
		return nil, err
	}
	if len(treasurers) == 0 {
		return nil, nil
	}
	best := treasurers[0]
	bestLoad := r.treasuryLoad(best.ID)
	for _, candidate := range treasurers[1:] {
		if load := r.treasuryLoad(candidate.ID); load < bestLoad {
			best = candidate
			bestLoad = load
		}
	}
	return &best, nil
}

func (r *fakeUserRepo) treasuryLoad(treasurerID uint) int {
	pending, _ := r.invoices.ListPendingTreasury(context.Background(), treasurerID)
	return len(pending)
}

type fakeTraceRepo struct {
	mu     sync.Mutex
	traces []entity.ValidationTrace
}

func (r *fakeTraceRepo) Append(ctx context.Context, trace *entity.ValidationTrace) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	trace.ID = uint(len(r.traces) + 1)
	r.traces = append(r.traces, *trace)
	return nil
}

func (r *fakeTraceRepo) ListByInvoice(ctx context.Context, invoiceID uint) ([]entity.ValidationTrace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.ValidationTrace
	for _, trace := range r.traces {
		if trace.InvoiceID == invoiceID {
			out = append(out, trace)
		}
	}
	return out, nil
}

func (r *fakeTraceRepo) ListByUser(ctx context.Context, userID uint) ([]entity.ValidationTrace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.ValidationTrace
	for _, trace := range r.traces {
		if trace.UserID == userID {
			out = append(out, trace)
		}
	}
	return out, nil
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []entity.Notification
}

func (r *fakeNotificationRepo) Create(ctx context.Context, notification *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	notification.ID = uint(len(r.notifications) + 1)
	notification.CreatedAt = time.Now()
	r.notifications = append(r.notifications, *notification)
	return nil
}

func (r *fakeNotificationRepo) CreateBatch(ctx context.Context, notifications []entity.Notification) error {
	for i := range notifications {
		if err := r.Create(ctx, &notifications[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeNotificationRepo) GetByID(ctx context.Context, id uint) (*entity.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, notification := range r.notifications {
		if notification.ID == id {
			copied := notification
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeNotificationRepo) ListByRecipient(ctx context.Context, recipientID uint, params *pagination.PaginationParams) ([]entity.Notification, int64, error) {
	all := r.byRecipient(recipientID, false)
	return all, int64(len(all)), nil
}

func (r *fakeNotificationRepo) ListUnread(ctx context.Context, recipientID uint) ([]entity.Notification, error) {
	return r.byRecipient(recipientID, true), nil
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, recipientID uint) (int64, error) {
	return int64(len(r.byRecipient(recipientID, true))), nil
}

func (r *fakeNotificationRepo) Update(ctx context.Context, notification *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.notifications {
		if r.notifications[i].ID == notification.ID {
			r.notifications[i] = *notification
			return nil
		}
	}
	return nil
}

func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, recipientID uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.notifications {
		if r.notifications[i].RecipientID == recipientID {
			r.notifications[i].MarkRead(at)
		}
	}
	return nil
}

func (r *fakeNotificationRepo) byRecipient(recipientID uint, unreadOnly bool) []entity.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Notification
	for _, notification := range r.notifications {
		if notification.RecipientID == recipientID && (!unreadOnly || !notification.Read) {
			out = append(out, notification)
		}
	}
	return out
}
