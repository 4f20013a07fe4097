package postgres

import (
	"context"
	"database/sql"

	"github.com/finvoice/finvoice/internal/domain/invoice"
	ierr "github.com/finvoice/finvoice/internal/errors"
	"github.com/finvoice/finvoice/internal/logger"
	"github.com/finvoice/finvoice/internal/postgres"
	"github.com/finvoice/finvoice/internal/types"
)

type invoiceRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewInvoiceRepository(client postgres.IClient, logger *logger.Logger) invoice.Repository {
	return &invoiceRepository{client: client, logger: logger}
}

var invoiceSortColumns = map[string]bool{
	"created_at":     true,
	"updated_at":     true,
	"issue_date":     true,
	"due_date":       true,
	"invoice_number": true,
	"total_amount":   true,
	"amount_due":     true,
}

func (r *invoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	query := `
		INSERT INTO invoices (
			id, user_id, customer_id, invoice_number, invoice_status,
			issue_date, due_date, tax, discount, total_amount, amount_paid, amount_due,
			notes, status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :user_id, :customer_id, :invoice_number, :invoice_status,
			:issue_date, :due_date, :tax, :discount, :total_amount, :amount_paid, :amount_due,
			:notes, :status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating invoice",
		"invoice_id", inv.ID,
		"user_id", inv.UserID,
		"invoice_number", inv.InvoiceNumber,
	)

	if _, err := r.client.Querier(ctx).NamedExecContext(ctx, query, inv); err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("An invoice with this number already exists").
				WithReportableDetails(map[string]any{"invoice_number": inv.InvoiceNumber}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create invoice").
			Mark(ierr.ErrDatabase)
	}

	return r.insertLineItems(ctx, inv)
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	return r.get(ctx, id, false)
}

func (r *invoiceRepository) GetForUpdate(ctx context.Context, id string) (*invoice.Invoice, error) {
	if _, ok := postgres.TxFromContext(ctx); !ok {
		return nil, ierr.NewError("GetForUpdate requires a transaction").
			Mark(ierr.ErrSystem)
	}
	return r.get(ctx, id, true)
}

func (r *invoiceRepository) get(ctx context.Context, id string, forUpdate bool) (*invoice.Invoice, error) {
	query := `SELECT * FROM invoices WHERE id = $1 AND status = 'published'`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var inv invoice.Invoice
	if err := r.client.Querier(ctx).GetContext(ctx, &inv, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("invoice not found").
				WithHint("Invoice not found").
				WithReportableDetails(map[string]any{"invoice_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get invoice").
			Mark(ierr.ErrDatabase)
	}

	items, err := r.listLineItems(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.LineItems = items
	return &inv, nil
}

func (r *invoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	query := `
		UPDATE invoices SET
			customer_id = :customer_id,
			invoice_number = :invoice_number,
			invoice_status = :invoice_status,
			issue_date = :issue_date,
			due_date = :due_date,
			tax = :tax,
			discount = :discount,
			total_amount = :total_amount,
			amount_paid = :amount_paid,
			amount_due = :amount_due,
			notes = :notes,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND user_id = :user_id`

	r.logger.Debugw("updating invoice", "invoice_id", inv.ID, "user_id", inv.UserID)

	if _, err := r.client.Querier(ctx).NamedExecContext(ctx, query, inv); err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("An invoice with this number already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to update invoice").
			Mark(ierr.ErrDatabase)
	}

	// Replace line items wholesale; the invoice is small and this keeps
	// ordering deterministic.
	if _, err := r.client.Querier(ctx).ExecContext(ctx,
		`DELETE FROM invoice_line_items WHERE invoice_id = $1`, inv.ID); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update invoice line items").
			Mark(ierr.ErrDatabase)
	}
	return r.insertLineItems(ctx, inv)
}

func (r *invoiceRepository) UpdateSettlement(ctx context.Context, inv *invoice.Invoice) error {
	query := `
		UPDATE invoices SET
			invoice_status = :invoice_status,
			amount_paid = :amount_paid,
			amount_due = :amount_due,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id`

	r.logger.Debugw("updating invoice settlement",
		"invoice_id", inv.ID,
		"invoice_status", inv.InvoiceStatus,
		"amount_paid", inv.AmountPaid,
		"amount_due", inv.AmountDue,
	)

	if _, err := r.client.Querier(ctx).NamedExecContext(ctx, query, inv); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update invoice settlement").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) UpdateStatus(ctx context.Context, inv *invoice.Invoice) error {
	query := `
		UPDATE invoices SET
			invoice_status = :invoice_status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id`

	r.logger.Debugw("updating invoice status",
		"invoice_id", inv.ID,
		"invoice_status", inv.InvoiceStatus,
	)

	if _, err := r.client.Querier(ctx).NamedExecContext(ctx, query, inv); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update invoice status").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) Delete(ctx context.Context, id string) error {
	r.logger.Debugw("deleting invoice", "invoice_id", id)

	if _, err := r.client.Querier(ctx).ExecContext(ctx,
		`UPDATE invoices SET status = 'deleted', updated_at = NOW() WHERE id = $1`, id); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete invoice").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) List(ctx context.Context, userID string, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	qb := r.buildConditions(userID, filter)

	var qf *types.QueryFilter
	if filter != nil {
		qf = filter.QueryFilter
	}
	query := `SELECT * FROM invoices` + qb.WhereClause() + orderLimitClause(qf, invoiceSortColumns)

	var invoices []*invoice.Invoice
	if err := r.client.Querier(ctx).SelectContext(ctx, &invoices, query, qb.Args()...); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list invoices").
			Mark(ierr.ErrDatabase)
	}
	return invoices, nil
}

func (r *invoiceRepository) Count(ctx context.Context, userID string, filter *types.InvoiceFilter) (int, error) {
	qb := r.buildConditions(userID, filter)
	query := `SELECT COUNT(*) FROM invoices` + qb.WhereClause()

	var count int
	if err := r.client.Querier(ctx).GetContext(ctx, &count, query, qb.Args()...); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count invoices").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *invoiceRepository) CountByCustomer(ctx context.Context, userID, customerID string) (int, error) {
	query := `SELECT COUNT(*) FROM invoices WHERE user_id = $1 AND customer_id = $2 AND status = 'published'`

	var count int
	if err := r.client.Querier(ctx).GetContext(ctx, &count, query, userID, customerID); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count invoices").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *invoiceRepository) ExistsNumber(ctx context.Context, userID, invoiceNumber string) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM invoices WHERE user_id = $1 AND invoice_number = $2 AND status != 'deleted'
	)`

	var exists bool
	if err := r.client.Querier(ctx).GetContext(ctx, &exists, query, userID, invoiceNumber); err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to check invoice number").
			Mark(ierr.ErrDatabase)
	}
	return exists, nil
}

func (r *invoiceRepository) insertLineItems(ctx context.Context, inv *invoice.Invoice) error {
	if len(inv.LineItems) == 0 {
		return nil
	}

	query := `
		INSERT INTO invoice_line_items (
			id, invoice_id, description, quantity, unit_price, amount,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :invoice_id, :description, :quantity, :unit_price, :amount,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	for _, li := range inv.LineItems {
		if _, err := r.client.Querier(ctx).NamedExecContext(ctx, query, li); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to create invoice line items").
				Mark(ierr.ErrDatabase)
		}
	}
	return nil
}

func (r *invoiceRepository) listLineItems(ctx context.Context, invoiceID string) ([]*invoice.LineItem, error) {
	query := `SELECT * FROM invoice_line_items WHERE invoice_id = $1 ORDER BY created_at ASC, id ASC`

	var items []*invoice.LineItem
	if err := r.client.Querier(ctx).SelectContext(ctx, &items, query, invoiceID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list invoice line items").
			Mark(ierr.ErrDatabase)
	}
	return items, nil
}

func (r *invoiceRepository) buildConditions(userID string, filter *types.InvoiceFilter) *queryBuilder {
	qb := newQueryBuilder().
		Where("user_id = %s", userID).
		Where("status = %s", string(types.StatusPublished))

	if filter == nil {
		return qb
	}
	qb.WhereIn("id", filter.InvoiceIDs)
	if filter.CustomerID != nil {
		qb.Where("customer_id = %s", *filter.CustomerID)
	}
	if filter.InvoiceStatus != nil {
		qb.Where("invoice_status = %s", string(*filter.InvoiceStatus))
	}
	if filter.DueBefore != nil {
		qb.Where("due_date <= %s", filter.DueBefore.Time)
	}
	if filter.DueAfter != nil {
		qb.Where("due_date >= %s", filter.DueAfter.Time)
	}
	if filter.TimeRangeFilter != nil {
		if filter.StartTime != nil {
			qb.Where("created_at >= %s", *filter.StartTime)
		}
		if filter.EndTime != nil {
			qb.Where("created_at <= %s", *filter.EndTime)
		}
	}
	return qb
}
