package service

import (
	"context"
	"time"

	"github.com/finvoice/finvoice/internal/api/dto"
	"github.com/finvoice/finvoice/internal/domain/history"
	"github.com/finvoice/finvoice/internal/types"
)

type HistoryService interface {
	ListHistory(ctx context.Context, filter *types.HistoryFilter) (*dto.ListHistoryResponse, error)
}

type historyService struct {
	ServiceParams
}

func NewHistoryService(params ServiceParams) HistoryService {
	return &historyService{ServiceParams: params}
}

func (s *historyService) ListHistory(ctx context.Context, filter *types.HistoryFilter) (*dto.ListHistoryResponse, error) {
	if filter == nil {
		filter = types.NewHistoryFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	userID := types.GetUserID(ctx)
	entries, err := s.HistoryRepo.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	count, err := s.HistoryRepo.Count(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	resp := &dto.ListHistoryResponse{
		Items: make([]*dto.HistoryResponse, len(entries)),
	}
	for i, e := range entries {
		resp.Items[i] = &dto.HistoryResponse{Entry: e}
	}
	resp.Pagination = types.NewPaginationResponse(count, filter.GetLimit(), filter.GetOffset())
	return resp, nil
}

// recordHistory appends an audit entry after a mutation has committed.
// Best effort: a failed write is logged and never surfaced to the caller.
func (p ServiceParams) recordHistory(ctx context.Context, action types.HistoryAction, invoiceID string, paymentID *string, detail string) {
	entry := &history.Entry{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_HISTORY),
		UserID:    types.GetUserID(ctx),
		InvoiceID: invoiceID,
		PaymentID: paymentID,
		Action:    action,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
	if err := p.HistoryRepo.Create(ctx, entry); err != nil {
		p.Logger.Errorw("failed to record history entry",
			"error", err,
			"action", action,
			"invoice_id", invoiceID,
		)
	}
}
