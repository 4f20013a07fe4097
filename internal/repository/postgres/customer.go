package postgres

import (
	"context"
	"database/sql"

	"github.com/finvoice/finvoice/internal/domain/customer"
	ierr "github.com/finvoice/finvoice/internal/errors"
	"github.com/finvoice/finvoice/internal/logger"
	"github.com/finvoice/finvoice/internal/postgres"
	"github.com/finvoice/finvoice/internal/types"
)

type customerRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewCustomerRepository(client postgres.IClient, logger *logger.Logger) customer.Repository {
	return &customerRepository{client: client, logger: logger}
}

var customerSortColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"email":      true,
}

func (r *customerRepository) Create(ctx context.Context, c *customer.Customer) error {
	query := `
		INSERT INTO customers (
			id, user_id, name, email, phone, address,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :user_id, :name, :email, :phone, :address,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating customer", "customer_id", c.ID, "user_id", c.UserID)

	if _, err := r.client.Querier(ctx).NamedExecContext(ctx, query, c); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create customer").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *customerRepository) Get(ctx context.Context, userID, id string) (*customer.Customer, error) {
	return r.get(ctx, userID, id, false)
}

func (r *customerRepository) GetForUpdate(ctx context.Context, userID, id string) (*customer.Customer, error) {
	if _, ok := postgres.TxFromContext(ctx); !ok {
		return nil, ierr.NewError("GetForUpdate requires a transaction").
			Mark(ierr.ErrSystem)
	}
	return r.get(ctx, userID, id, true)
}

func (r *customerRepository) get(ctx context.Context, userID, id string, forUpdate bool) (*customer.Customer, error) {
	query := `SELECT * FROM customers WHERE id = $1 AND user_id = $2 AND status = 'published'`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var c customer.Customer
	if err := r.client.Querier(ctx).GetContext(ctx, &c, query, id, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("customer not found").
				WithHint("Customer not found").
				WithReportableDetails(map[string]any{"customer_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get customer").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}

func (r *customerRepository) Update(ctx context.Context, c *customer.Customer) error {
	query := `
		UPDATE customers SET
			name = :name,
			email = :email,
			phone = :phone,
			address = :address,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id AND user_id = :user_id`

	r.logger.Debugw("updating customer", "customer_id", c.ID, "user_id", c.UserID)

	if _, err := r.client.Querier(ctx).NamedExecContext(ctx, query, c); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update customer").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *customerRepository) Delete(ctx context.Context, userID, id string) error {
	query := `
		UPDATE customers SET
			status = 'deleted',
			updated_at = NOW(),
			updated_by = $1
		WHERE id = $2 AND user_id = $1`

	r.logger.Debugw("deleting customer", "customer_id", id, "user_id", userID)

	if _, err := r.client.Querier(ctx).ExecContext(ctx, query, userID, id); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete customer").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *customerRepository) List(ctx context.Context, userID string, filter *customer.CustomerFilter) ([]*customer.Customer, error) {
	qb := r.buildConditions(userID, filter)

	var qf *types.QueryFilter
	if filter != nil {
		qf = filter.QueryFilter
	}
	query := `SELECT * FROM customers` + qb.WhereClause() + orderLimitClause(qf, customerSortColumns)

	var customers []*customer.Customer
	if err := r.client.Querier(ctx).SelectContext(ctx, &customers, query, qb.Args()...); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list customers").
			Mark(ierr.ErrDatabase)
	}
	return customers, nil
}

func (r *customerRepository) Count(ctx context.Context, userID string, filter *customer.CustomerFilter) (int, error) {
	qb := r.buildConditions(userID, filter)
	query := `SELECT COUNT(*) FROM customers` + qb.WhereClause()

	var count int
	if err := r.client.Querier(ctx).GetContext(ctx, &count, query, qb.Args()...); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count customers").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *customerRepository) buildConditions(userID string, filter *customer.CustomerFilter) *queryBuilder {
	qb := newQueryBuilder().
		Where("user_id = %s", userID).
		Where("status = %s", string(types.StatusPublished))

	if filter == nil {
		return qb
	}
	qb.WhereIn("id", filter.CustomerIDs)
	if filter.Email != nil {
		qb.Where("email = %s", *filter.Email)
	}
	if filter.NameLike != nil {
		qb.Where("name ILIKE %s", "%"+*filter.NameLike+"%")
	}
	return qb
}
