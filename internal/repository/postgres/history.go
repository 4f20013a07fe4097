package postgres

import (
	"context"

	"github.com/finvoice/finvoice/internal/domain/history"
	ierr "github.com/finvoice/finvoice/internal/errors"
	"github.com/finvoice/finvoice/internal/logger"
	"github.com/finvoice/finvoice/internal/postgres"
	"github.com/finvoice/finvoice/internal/types"
)

type historyRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewHistoryRepository(client postgres.IClient, logger *logger.Logger) history.Repository {
	return &historyRepository{client: client, logger: logger}
}

var historySortColumns = map[string]bool{
	"created_at": true,
}

func (r *historyRepository) Create(ctx context.Context, e *history.Entry) error {
	query := `
		INSERT INTO histories (id, user_id, invoice_id, payment_id, action, detail, created_at)
		VALUES (:id, :user_id, :invoice_id, :payment_id, :action, :detail, :created_at)`

	if _, err := r.client.Querier(ctx).NamedExecContext(ctx, query, e); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to record history entry").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *historyRepository) List(ctx context.Context, userID string, filter *types.HistoryFilter) ([]*history.Entry, error) {
	qb := r.buildConditions(userID, filter)

	var qf *types.QueryFilter
	if filter != nil {
		qf = filter.QueryFilter
	}
	query := `SELECT * FROM histories` + qb.WhereClause() + orderLimitClause(qf, historySortColumns)

	var entries []*history.Entry
	if err := r.client.Querier(ctx).SelectContext(ctx, &entries, query, qb.Args()...); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list history").
			Mark(ierr.ErrDatabase)
	}
	return entries, nil
}

func (r *historyRepository) Count(ctx context.Context, userID string, filter *types.HistoryFilter) (int, error) {
	qb := r.buildConditions(userID, filter)
	query := `SELECT COUNT(*) FROM histories` + qb.WhereClause()

	var count int
	if err := r.client.Querier(ctx).GetContext(ctx, &count, query, qb.Args()...); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count history").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *historyRepository) buildConditions(userID string, filter *types.HistoryFilter) *queryBuilder {
	qb := newQueryBuilder().
		Where("user_id = %s", userID)

	if filter == nil {
		return qb
	}
	if filter.InvoiceID != nil {
		qb.Where("invoice_id = %s", *filter.InvoiceID)
	}
	if filter.PaymentID != nil {
		qb.Where("payment_id = %s", *filter.PaymentID)
	}
	if filter.Action != nil {
		qb.Where("action = %s", string(*filter.Action))
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
