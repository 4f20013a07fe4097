package service

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/finvoice/finvoice/internal/api/dto"
	"github.com/finvoice/finvoice/internal/cache"
	"github.com/finvoice/finvoice/internal/types"
)

// dashboardCacheExpiry keeps dashboard reads cheap; mutating services
// invalidate the key so a stale summary never outlives its data by more
// than this window.
const dashboardCacheExpiry = 30 * time.Second

const dashboardRecentActivityLimit = 10

type DashboardService interface {
	GetDashboard(ctx context.Context) (*dto.DashboardResponse, error)
}

type dashboardService struct {
	ServiceParams
}

func NewDashboardService(params ServiceParams) DashboardService {
	return &dashboardService{ServiceParams: params}
}

func (s *dashboardService) GetDashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	userID := types.GetUserID(ctx)
	cacheKey := cache.GenerateKey(cache.PrefixDashboard, userID)

	if s.Cache != nil {
		if cached, found := s.Cache.Get(ctx, cacheKey); found {
			if resp, ok := cached.(*dto.DashboardResponse); ok {
				return resp, nil
			}
		}
	}

	resp, err := s.buildDashboard(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		s.Cache.Set(ctx, cacheKey, resp, dashboardCacheExpiry)
	}
	return resp, nil
}

func (s *dashboardService) buildDashboard(ctx context.Context, userID string) (*dto.DashboardResponse, error) {
	customerCount, err := s.CustomerRepo.Count(ctx, userID, nil)
	if err != nil {
		return nil, err
	}

	invoices, err := s.InvoiceRepo.List(ctx, userID, types.NewNoLimitInvoiceFilter())
	if err != nil {
		return nil, err
	}

	resp := &dto.DashboardResponse{
		TotalCustomers:   customerCount,
		TotalInvoices:    len(invoices),
		InvoicesByStatus: make(map[types.InvoiceStatus]int),
		TotalBilled:      decimal.Zero,
		TotalCollected:   decimal.Zero,
		TotalOutstanding: decimal.Zero,
	}

	today := types.Today()
	for _, inv := range invoices {
		resp.InvoicesByStatus[inv.InvoiceStatus]++
		resp.TotalBilled = resp.TotalBilled.Add(inv.TotalAmount)
		resp.TotalCollected = resp.TotalCollected.Add(inv.AmountPaid)
		resp.TotalOutstanding = resp.TotalOutstanding.Add(inv.AmountDue)
		if inv.InvoiceStatus != types.InvoiceStatusPaid &&
			inv.InvoiceStatus != types.InvoiceStatusDraft &&
			!inv.DueDate.IsZero() && inv.DueDate.Before(today.Time) {
			resp.OverdueInvoices++
		}
	}

	historyFilter := &types.HistoryFilter{
		QueryFilter: &types.QueryFilter{
			Limit: lo.ToPtr(dashboardRecentActivityLimit),
		},
	}
	entries, err := s.HistoryRepo.List(ctx, userID, historyFilter)
	if err != nil {
		return nil, err
	}
	resp.RecentActivity = make([]*dto.HistoryResponse, len(entries))
	for i, e := range entries {
		resp.RecentActivity[i] = &dto.HistoryResponse{Entry: e}
	}
	return resp, nil
}
