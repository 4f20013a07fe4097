package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/finvoice/finvoice/internal/api/dto"
	"github.com/finvoice/finvoice/internal/cache"
	"github.com/finvoice/finvoice/internal/domain/invoice"
	"github.com/finvoice/finvoice/internal/domain/payment"
	ierr "github.com/finvoice/finvoice/internal/errors"
	"github.com/finvoice/finvoice/internal/postgres"
	"github.com/finvoice/finvoice/internal/types"
)

// settlementRetries is how many times a settlement transaction is retried
// after a lock conflict before the conflict is surfaced.
const settlementRetries = 1

// PaymentService owns the settlement workflow: every payment mutation
// re-derives the invoice's amount_paid, amount_due and status from the
// payment ledger inside one transaction, under a row lock on the invoice.
type PaymentService interface {
	RecordPayment(ctx context.Context, req *dto.RecordPaymentRequest) (*dto.PaymentResponse, error)
	GetPayment(ctx context.Context, id string) (*dto.PaymentResponse, error)
	UpdatePayment(ctx context.Context, id string, req *dto.UpdatePaymentRequest) (*dto.PaymentResponse, error)
	DeletePayment(ctx context.Context, id string) error
	ListPayments(ctx context.Context, filter *types.PaymentFilter) (*dto.ListPaymentsResponse, error)
}

type paymentService struct {
	ServiceParams
}

func NewPaymentService(params ServiceParams) PaymentService {
	return &paymentService{ServiceParams: params}
}

// RecordPayment applies a payment to an invoice. Inside one transaction it
// locks the invoice row, sums the committed ledger, validates the amount
// against the remaining balance, derives the new settlement state and
// writes the payment row plus the invoice columns together. Nothing is
// persisted when any step fails.
func (s *paymentService) RecordPayment(ctx context.Context, req *dto.RecordPaymentRequest) (*dto.PaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	userID := types.GetUserID(ctx)
	p := req.ToPayment(ctx)
	var settled *invoice.Invoice

	err := s.withSettlementRetry(ctx, func(ctx context.Context) error {
		inv, err := s.InvoiceRepo.GetForUpdate(ctx, req.InvoiceID)
		if err != nil {
			return err
		}
		if inv.UserID != userID {
			return permissionDenied(req.InvoiceID)
		}

		paidSoFar, err := s.PaymentRepo.SumByInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}

		remaining := invoice.RemainingBalance(inv.TotalAmount, paidSoFar)
		if req.AmountPaid.GreaterThan(remaining) {
			return ierr.NewError("payment exceeds balance").
				WithHint("Payment amount exceeds the remaining amount due").
				WithReportableDetails(map[string]any{
					"amount_paid":  req.AmountPaid,
					"amount_due":   remaining,
					"total_amount": inv.TotalAmount,
					"already_paid": paidSoFar,
				}).
				Mark(ierr.ErrValidation)
		}

		p.CustomerID = inv.CustomerID
		if err := p.Validate(); err != nil {
			return err
		}
		if err := s.PaymentRepo.Create(ctx, p); err != nil {
			return err
		}

		inv.ApplySettlement(paidSoFar.Add(req.AmountPaid))
		inv.UpdatedAt = time.Now().UTC()
		inv.UpdatedBy = userID
		if err := s.InvoiceRepo.UpdateSettlement(ctx, inv); err != nil {
			return err
		}
		settled = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordHistory(ctx, types.HistoryActionPaymentRecorded, settled.ID, &p.ID,
		"payment of "+p.AmountPaid.String()+" recorded against "+settled.InvoiceNumber)
	s.invalidateDashboard(ctx)
	s.Logger.Infow("recorded payment",
		"payment_id", p.ID,
		"invoice_id", settled.ID,
		"amount_paid", p.AmountPaid,
		"invoice_status", settled.InvoiceStatus,
	)
	return &dto.PaymentResponse{
		Payment: p,
		Invoice: &dto.InvoiceResponse{Invoice: settled},
	}, nil
}

func (s *paymentService) GetPayment(ctx context.Context, id string) (*dto.PaymentResponse, error) {
	p, err := s.getOwned(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.PaymentResponse{Payment: p}, nil
}

// UpdatePayment edits a payment's amount, date or note, then re-derives the
// invoice settlement state from the ledger in the same transaction.
func (s *paymentService) UpdatePayment(ctx context.Context, id string, req *dto.UpdatePaymentRequest) (*dto.PaymentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	userID := types.GetUserID(ctx)
	var (
		updated *payment.Payment
		settled *invoice.Invoice
	)

	err := s.withSettlementRetry(ctx, func(ctx context.Context) error {
		p, err := s.PaymentRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if p.UserID != userID {
			return permissionDenied(p.InvoiceID)
		}

		inv, err := s.InvoiceRepo.GetForUpdate(ctx, p.InvoiceID)
		if err != nil {
			return err
		}

		paidSoFar, err := s.PaymentRepo.SumByInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}

		if req.AmountPaid != nil {
			newSum := paidSoFar.Sub(p.AmountPaid).Add(*req.AmountPaid)
			if invoice.RemainingBalance(inv.TotalAmount, newSum).IsNegative() {
				return ierr.NewError("payment exceeds balance").
					WithHint("Payment amount exceeds the remaining amount due").
					WithReportableDetails(map[string]any{
						"amount_paid":  *req.AmountPaid,
						"total_amount": inv.TotalAmount,
					}).
					Mark(ierr.ErrValidation)
			}
			p.AmountPaid = *req.AmountPaid
		}
		if req.PaymentDate != nil {
			p.PaymentDate = *req.PaymentDate
		}
		if req.Note != nil {
			p.Note = *req.Note
		}
		p.UpdatedAt = time.Now().UTC()
		p.UpdatedBy = userID

		if err := p.Validate(); err != nil {
			return err
		}
		if err := s.PaymentRepo.Update(ctx, p); err != nil {
			return err
		}

		if err := s.recomputeSettlement(ctx, inv, userID); err != nil {
			return err
		}
		updated = p
		settled = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordHistory(ctx, types.HistoryActionPaymentUpdated, settled.ID, &updated.ID,
		"payment against "+settled.InvoiceNumber+" updated")
	s.invalidateDashboard(ctx)
	return &dto.PaymentResponse{
		Payment: updated,
		Invoice: &dto.InvoiceResponse{Invoice: settled},
	}, nil
}

// DeletePayment removes a payment and re-derives the invoice settlement
// state from what remains in the ledger.
func (s *paymentService) DeletePayment(ctx context.Context, id string) error {
	userID := types.GetUserID(ctx)
	var (
		deleted *payment.Payment
		settled *invoice.Invoice
	)

	err := s.withSettlementRetry(ctx, func(ctx context.Context) error {
		p, err := s.PaymentRepo.Get(ctx, id)
		if err != nil {
			return err
		}
		if p.UserID != userID {
			return permissionDenied(p.InvoiceID)
		}

		inv, err := s.InvoiceRepo.GetForUpdate(ctx, p.InvoiceID)
		if err != nil {
			return err
		}
		if err := s.PaymentRepo.Delete(ctx, p.ID); err != nil {
			return err
		}
		if err := s.recomputeSettlement(ctx, inv, userID); err != nil {
			return err
		}
		deleted = p
		settled = inv
		return nil
	})
	if err != nil {
		return err
	}

	s.recordHistory(ctx, types.HistoryActionPaymentDeleted, settled.ID, &deleted.ID,
		"payment against "+settled.InvoiceNumber+" deleted")
	s.invalidateDashboard(ctx)
	s.Logger.Infow("deleted payment", "payment_id", id, "invoice_id", settled.ID)
	return nil
}

func (s *paymentService) ListPayments(ctx context.Context, filter *types.PaymentFilter) (*dto.ListPaymentsResponse, error) {
	if filter == nil {
		filter = types.NewPaymentFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	userID := types.GetUserID(ctx)
	payments, err := s.PaymentRepo.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	count, err := s.PaymentRepo.Count(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	resp := &dto.ListPaymentsResponse{
		Items: make([]*dto.PaymentResponse, len(payments)),
	}
	for i, p := range payments {
		resp.Items[i] = &dto.PaymentResponse{Payment: p}
	}
	resp.Pagination = types.NewPaginationResponse(count, filter.GetLimit(), filter.GetOffset())
	return resp, nil
}

// recomputeSettlement re-derives the settlement columns from the current
// ledger sum. The invoice row must already be locked by the caller.
func (s *paymentService) recomputeSettlement(ctx context.Context, inv *invoice.Invoice, userID string) error {
	paidSoFar, err := s.PaymentRepo.SumByInvoice(ctx, inv.ID)
	if err != nil {
		return err
	}
	inv.ApplySettlement(paidSoFar)
	inv.UpdatedAt = time.Now().UTC()
	inv.UpdatedBy = userID
	return s.InvoiceRepo.UpdateSettlement(ctx, inv)
}

// withSettlementRetry runs fn in a transaction, retrying once when the
// database reports a lock or serialization conflict. A conflict that
// survives the retry is surfaced as a conflict error.
func (s *paymentService) withSettlementRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	op := func() error {
		err := s.DB.WithTx(ctx, fn)
		if err == nil {
			return nil
		}
		if postgres.IsLockConflict(err) {
			s.Logger.Warnw("settlement lock conflict, retrying", "error", err)
			return err
		}
		return backoff.Permanent(err)
	}

	err := backoff.Retry(op, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), settlementRetries))
	if err == nil {
		return nil
	}
	if postgres.IsLockConflict(err) {
		return ierr.WithError(err).
			WithHint("The invoice is being settled concurrently, please retry").
			Mark(ierr.ErrConflict)
	}
	return err
}

func (s *paymentService) getOwned(ctx context.Context, id string) (*payment.Payment, error) {
	p, err := s.PaymentRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != types.GetUserID(ctx) {
		return nil, ierr.NewError("payment belongs to another user").
			WithHint("You do not have access to this payment").
			WithReportableDetails(map[string]any{"payment_id": id}).
			Mark(ierr.ErrPermissionDenied)
	}
	return p, nil
}

func (s *paymentService) invalidateDashboard(ctx context.Context) {
	if s.Cache != nil {
		s.Cache.DeleteByPrefix(ctx, cache.GenerateKey(cache.PrefixDashboard, types.GetUserID(ctx)))
	}
}
