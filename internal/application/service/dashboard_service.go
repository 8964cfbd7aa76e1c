package service

import (
	"context"
	"time"

	"github.com/dafteam/facturation-api/internal/domain/enum"
	"github.com/dafteam/facturation-api/internal/domain/repository"
)

// DashboardService provides workflow statistics
type DashboardService struct {
	invoiceRepo repository.InvoiceRepository
	now         Clock
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(invoiceRepo repository.InvoiceRepository, now Clock) *DashboardService {
	if now == nil {
		now = time.Now
	}
	return &DashboardService{
		invoiceRepo: invoiceRepo,
		now:         now,
	}
}

// DashboardStats represents workflow statistics
type DashboardStats struct {
	ByStatus         map[enum.InvoiceStatus]int64 `json:"by_status"`
	Total            int64                        `json:"total"`
	PendingV1        int64                        `json:"pending_v1"`
	PendingV2        int64                        `json:"pending_v2"`
	PendingTreasury  int64                        `json:"pending_treasury"`
	Rejected         int64                        `json:"rejected"`
	Paid             int64                        `json:"paid"`
	Overdue          int64                        `json:"overdue"`
	DueWithin7Days   int64                        `json:"due_within_7_days"`
}

// GetStats aggregates invoice counts for the dashboard
func (s *DashboardService) GetStats(ctx context.Context) (*DashboardStats, error) {
	byStatus, err := s.invoiceRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		ByStatus:        byStatus,
		PendingV1:       byStatus[enum.StatusEnValidationV1],
		PendingV2:       byStatus[enum.StatusEnValidationV2],
		PendingTreasury: byStatus[enum.StatusEnTresorerie],
		Rejected:        byStatus[enum.StatusRejetee],
		Paid:            byStatus[enum.StatusPayee],
	}
	for _, count := range byStatus {
		stats.Total += count
	}

	now := s.now()
	overdue, err := s.invoiceRepo.ListOverdue(ctx, now)
	if err != nil {
		return nil, err
	}
	stats.Overdue = int64(len(overdue))

	dueSoon, err := s.invoiceRepo.ListDueBetween(ctx, now, now.AddDate(0, 0, urgencyWindowDays))
	if err != nil {
		return nil, err
	}
	stats.DueWithin7Days = int64(len(dueSoon))

	return stats, nil
}
