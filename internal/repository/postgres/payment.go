package postgres

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/finvoice/finvoice/internal/domain/payment"
	ierr "github.com/finvoice/finvoice/internal/errors"
	"github.com/finvoice/finvoice/internal/logger"
	"github.com/finvoice/finvoice/internal/postgres"
	"github.com/finvoice/finvoice/internal/types"
)

type paymentRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewPaymentRepository(client postgres.IClient, logger *logger.Logger) payment.Repository {
	return &paymentRepository{client: client, logger: logger}
}

var paymentSortColumns = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"payment_date": true,
	"amount_paid":  true,
}

func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	query := `
		INSERT INTO payments (
			id, invoice_id, user_id, customer_id, amount_paid, payment_date, note,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :invoice_id, :user_id, :customer_id, :amount_paid, :payment_date, :note,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating payment",
		"payment_id", p.ID,
		"invoice_id", p.InvoiceID,
		"amount_paid", p.AmountPaid,
	)

	if _, err := r.client.Querier(ctx).NamedExecContext(ctx, query, p); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to record payment").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *paymentRepository) Get(ctx context.Context, id string) (*payment.Payment, error) {
	query := `SELECT * FROM payments WHERE id = $1 AND status = 'published'`

	var p payment.Payment
	if err := r.client.Querier(ctx).GetContext(ctx, &p, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("payment not found").
				WithHint("Payment not found").
				WithReportableDetails(map[string]any{"payment_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get payment").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *paymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	query := `
		UPDATE payments SET
			amount_paid = :amount_paid,
			payment_date = :payment_date,
			note = :note,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id`

	r.logger.Debugw("updating payment", "payment_id", p.ID, "amount_paid", p.AmountPaid)

	if _, err := r.client.Querier(ctx).NamedExecContext(ctx, query, p); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update payment").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *paymentRepository) Delete(ctx context.Context, id string) error {
	r.logger.Debugw("deleting payment", "payment_id", id)

	if _, err := r.client.Querier(ctx).ExecContext(ctx,
		`UPDATE payments SET status = 'deleted', updated_at = NOW() WHERE id = $1`, id); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete payment").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *paymentRepository) List(ctx context.Context, userID string, filter *types.PaymentFilter) ([]*payment.Payment, error) {
	qb := r.buildConditions(userID, filter)

	var qf *types.QueryFilter
	if filter != nil {
		qf = filter.QueryFilter
	}
	query := `SELECT * FROM payments` + qb.WhereClause() + orderLimitClause(qf, paymentSortColumns)

	var payments []*payment.Payment
	if err := r.client.Querier(ctx).SelectContext(ctx, &payments, query, qb.Args()...); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list payments").
			Mark(ierr.ErrDatabase)
	}
	return payments, nil
}

func (r *paymentRepository) Count(ctx context.Context, userID string, filter *types.PaymentFilter) (int, error) {
	qb := r.buildConditions(userID, filter)
	query := `SELECT COUNT(*) FROM payments` + qb.WhereClause()

	var count int
	if err := r.client.Querier(ctx).GetContext(ctx, &count, query, qb.Args()...); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count payments").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *paymentRepository) FindByInvoice(ctx context.Context, invoiceID string) ([]*payment.Payment, error) {
	query := `SELECT * FROM payments WHERE invoice_id = $1 AND status = 'published' ORDER BY payment_date DESC, created_at DESC`

	var payments []*payment.Payment
	if err := r.client.Querier(ctx).SelectContext(ctx, &payments, query, invoiceID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list payments").
			Mark(ierr.ErrDatabase)
	}
	return payments, nil
}

// SumByInvoice totals the recorded payments against an invoice. Callers that
// need the sum to be consistent with a settlement write must run inside the
// same transaction as the invoice row lock.
func (r *paymentRepository) SumByInvoice(ctx context.Context, invoiceID string) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount_paid), 0) FROM payments WHERE invoice_id = $1 AND status = 'published'`

	var sum decimal.Decimal
	if err := r.client.Querier(ctx).GetContext(ctx, &sum, query, invoiceID); err != nil {
		return decimal.Zero, ierr.WithError(err).
			WithHint("Failed to sum payments").
			Mark(ierr.ErrDatabase)
	}
	return sum, nil
}

func (r *paymentRepository) buildConditions(userID string, filter *types.PaymentFilter) *queryBuilder {
	qb := newQueryBuilder().
		Where("user_id = %s", userID).
		Where("status = %s", string(types.StatusPublished))

	if filter == nil {
		return qb
	}
	qb.WhereIn("id", filter.PaymentIDs)
	if filter.InvoiceID != nil {
		qb.Where("invoice_id = %s", *filter.InvoiceID)
	}
	if filter.CustomerID != nil {
		qb.Where("customer_id = %s", *filter.CustomerID)
	}
	if filter.PaidBefore != nil {
		qb.Where("payment_date <= %s", filter.PaidBefore.Time)
	}
	if filter.PaidAfter != nil {
		qb.Where("payment_date >= %s", filter.PaidAfter.Time)
	}
	return qb
}
