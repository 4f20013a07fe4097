package service

import (
	"context"
	"time"

	"github.com/finvoice/finvoice/internal/api/dto"
	"github.com/finvoice/finvoice/internal/cache"
	"github.com/finvoice/finvoice/internal/domain/invoice"
	ierr "github.com/finvoice/finvoice/internal/errors"
	"github.com/finvoice/finvoice/internal/types"
)

// invoiceNumberAttempts bounds retries when a generated number collides
// with an existing one for the same owner.
const invoiceNumberAttempts = 5

type InvoiceService interface {
	CreateInvoice(ctx context.Context, req *dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	UpdateInvoice(ctx context.Context, id string, req *dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error)
	FinalizeInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	DeleteInvoice(ctx context.Context, id string) error
	ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error)
}

type invoiceService struct {
	ServiceParams
}

func NewInvoiceService(params ServiceParams) InvoiceService {
	return &invoiceService{ServiceParams: params}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, req *dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	userID := types.GetUserID(ctx)
	if _, err := s.CustomerRepo.Get(ctx, userID, req.CustomerID); err != nil {
		return nil, err
	}

	inv := req.ToInvoice(ctx)
	number, err := s.nextInvoiceNumber(ctx, userID)
	if err != nil {
		return nil, err
	}
	inv.InvoiceNumber = number

	if err := inv.Validate(); err != nil {
		return nil, err
	}

	// Invoice row and line items land atomically. The customer row lock
	// pairs with DeleteCustomer's, so the customer cannot be deleted
	// between the ownership check and the insert.
	if err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.CustomerRepo.GetForUpdate(ctx, userID, inv.CustomerID); err != nil {
			return err
		}
		return s.InvoiceRepo.Create(ctx, inv)
	}); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, types.HistoryActionInvoiceCreated, inv.ID, nil, "invoice "+inv.InvoiceNumber+" created")
	s.invalidateDashboard(ctx)
	s.Logger.Infow("created invoice",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"total_amount", inv.TotalAmount,
	)
	return &dto.InvoiceResponse{Invoice: inv}, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.getOwned(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.InvoiceResponse{Invoice: inv}, nil
}

// UpdateInvoice edits invoice fields and line items. Totals are recomputed,
// and the settlement columns are re-derived from the payment ledger inside
// the same transaction so they cannot drift from the new total.
func (s *invoiceService) UpdateInvoice(ctx context.Context, id string, req *dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	userID := types.GetUserID(ctx)
	var updated *invoice.Invoice
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		inv, err := s.InvoiceRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if inv.UserID != userID {
			return permissionDenied(id)
		}

		if req.CustomerID != nil && *req.CustomerID != inv.CustomerID {
			if _, err := s.CustomerRepo.Get(ctx, userID, *req.CustomerID); err != nil {
				return err
			}
			inv.CustomerID = *req.CustomerID
		}
		if req.IssueDate != nil {
			inv.IssueDate = *req.IssueDate
		}
		if req.DueDate != nil {
			inv.DueDate = *req.DueDate
		}
		if req.Tax != nil {
			inv.Tax = *req.Tax
		}
		if req.Discount != nil {
			inv.Discount = *req.Discount
		}
		if req.Notes != nil {
			inv.Notes = *req.Notes
		}
		if req.LineItems != nil {
			inv.LineItems = nil
			for _, li := range req.LineItems {
				item := &invoice.LineItem{
					ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LINE_ITEM),
					InvoiceID:   inv.ID,
					Description: li.Description,
					Quantity:    li.Quantity,
					UnitPrice:   li.UnitPrice,
					BaseModel:   types.GetDefaultBaseModel(ctx),
				}
				inv.LineItems = append(inv.LineItems, item)
			}
		}

		inv.CalculateTotals()

		paidSoFar, err := s.PaymentRepo.SumByInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}
		if invoice.RemainingBalance(inv.TotalAmount, paidSoFar).IsNegative() {
			return ierr.NewError("total below recorded payments").
				WithHint("Invoice total cannot drop below the amount already paid").
				WithReportableDetails(map[string]any{
					"total_amount": inv.TotalAmount,
					"amount_paid":  paidSoFar,
				}).
				Mark(ierr.ErrValidation)
		}
		inv.ApplySettlement(paidSoFar)
		inv.UpdatedAt = time.Now().UTC()
		inv.UpdatedBy = userID

		if err := inv.Validate(); err != nil {
			return err
		}
		if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordHistory(ctx, types.HistoryActionInvoiceUpdated, updated.ID, nil, "invoice "+updated.InvoiceNumber+" updated")
	s.invalidateDashboard(ctx)
	return &dto.InvoiceResponse{Invoice: updated}, nil
}

// FinalizeInvoice moves a draft to sent. Any other starting status is
// rejected; settlement owns the statuses past sent. The row is locked for
// the duration and only the status column is written, so a settlement
// committing around the same time can never have its amounts overwritten
// by a stale finalize snapshot.
func (s *invoiceService) FinalizeInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	userID := types.GetUserID(ctx)
	var finalized *invoice.Invoice
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		inv, err := s.InvoiceRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if inv.UserID != userID {
			return permissionDenied(id)
		}
		if inv.InvoiceStatus != types.InvoiceStatusDraft {
			return ierr.NewError("invoice is not a draft").
				WithHint("Only draft invoices can be finalized").
				WithReportableDetails(map[string]any{"invoice_status": inv.InvoiceStatus}).
				Mark(ierr.ErrInvalidOperation)
		}

		inv.InvoiceStatus = types.InvoiceStatusSent
		inv.UpdatedAt = time.Now().UTC()
		inv.UpdatedBy = userID
		if err := s.InvoiceRepo.UpdateStatus(ctx, inv); err != nil {
			return err
		}
		finalized = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordHistory(ctx, types.HistoryActionInvoiceFinalized, finalized.ID, nil, "invoice "+finalized.InvoiceNumber+" finalized")
	s.invalidateDashboard(ctx)
	return &dto.InvoiceResponse{Invoice: finalized}, nil
}

// DeleteInvoice removes an invoice. Once a payment has been recorded the
// invoice is part of the ledger and can no longer be deleted. The check and
// the delete share a transaction holding the row lock, so a payment being
// recorded at the same time cannot slip between them.
func (s *invoiceService) DeleteInvoice(ctx context.Context, id string) error {
	userID := types.GetUserID(ctx)
	var deleted *invoice.Invoice
	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		inv, err := s.InvoiceRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if inv.UserID != userID {
			return permissionDenied(id)
		}

		payments, err := s.PaymentRepo.FindByInvoice(ctx, id)
		if err != nil {
			return err
		}
		if len(payments) > 0 {
			return ierr.NewError("invoice has payments").
				WithHint("Cannot delete an invoice that has recorded payments").
				WithReportableDetails(map[string]any{"payment_count": len(payments)}).
				Mark(ierr.ErrConflict)
		}

		if err := s.InvoiceRepo.Delete(ctx, id); err != nil {
			return err
		}
		deleted = inv
		return nil
	})
	if err != nil {
		return err
	}

	s.recordHistory(ctx, types.HistoryActionInvoiceDeleted, deleted.ID, nil, "invoice "+deleted.InvoiceNumber+" deleted")
	s.invalidateDashboard(ctx)
	s.Logger.Infow("deleted invoice", "invoice_id", id, "user_id", deleted.UserID)
	return nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error) {
	if filter == nil {
		filter = types.NewInvoiceFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	userID := types.GetUserID(ctx)
	invoices, err := s.InvoiceRepo.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	count, err := s.InvoiceRepo.Count(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	resp := &dto.ListInvoicesResponse{
		Items: make([]*dto.InvoiceResponse, len(invoices)),
	}
	for i, inv := range invoices {
		resp.Items[i] = &dto.InvoiceResponse{Invoice: inv}
	}
	resp.Pagination = types.NewPaginationResponse(count, filter.GetLimit(), filter.GetOffset())
	return resp, nil
}

// getOwned fetches an invoice and enforces ownership.
func (s *invoiceService) getOwned(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.UserID != types.GetUserID(ctx) {
		return nil, permissionDenied(id)
	}
	return inv, nil
}

func (s *invoiceService) nextInvoiceNumber(ctx context.Context, userID string) (string, error) {
	for attempt := 0; attempt < invoiceNumberAttempts; attempt++ {
		number := types.GenerateInvoiceNumber()
		exists, err := s.InvoiceRepo.ExistsNumber(ctx, userID, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", ierr.NewError("could not allocate invoice number").
		WithHint("Failed to generate a unique invoice number, please retry").
		Mark(ierr.ErrSystem)
}

func (s *invoiceService) invalidateDashboard(ctx context.Context) {
	if s.Cache != nil {
		s.Cache.DeleteByPrefix(ctx, cache.GenerateKey(cache.PrefixDashboard, types.GetUserID(ctx)))
	}
}

func permissionDenied(invoiceID string) error {
	return ierr.NewError("invoice belongs to another user").
		WithHint("You do not have access to this invoice").
		WithReportableDetails(map[string]any{"invoice_id": invoiceID}).
		Mark(ierr.ErrPermissionDenied)
}
