package postgres

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	ierr "github.com/finvoice/finvoice/internal/errors"
	"github.com/finvoice/finvoice/internal/types"
)

const pqCodeUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if !ierr.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == pqCodeUniqueViolation
}

// queryBuilder accumulates WHERE clauses with positional parameters.
// sqlx named queries don't mix well with optional filters, so list queries
// assemble their conditions here.
type queryBuilder struct {
	conditions []string
	args       []interface{}
}

func newQueryBuilder() *queryBuilder {
	return &queryBuilder{}
}

// Where appends a condition; each %s verb in cond is replaced with the next
// positional parameter ($1, $2, ...).
func (b *queryBuilder) Where(cond string, args ...interface{}) *queryBuilder {
	placeholders := make([]interface{}, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", len(b.args)+i+1)
	}
	b.conditions = append(b.conditions, fmt.Sprintf(cond, placeholders...))
	b.args = append(b.args, args...)
	return b
}

// WhereIn appends an IN condition over the given values.
func (b *queryBuilder) WhereIn(column string, values []string) *queryBuilder {
	if len(values) == 0 {
		return b
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = fmt.Sprintf("$%d", len(b.args)+1)
		b.args = append(b.args, v)
	}
	b.conditions = append(b.conditions, fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")))
	return b
}

// WhereClause renders the accumulated conditions.
func (b *queryBuilder) WhereClause() string {
	if len(b.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conditions, " AND ")
}

// Args returns the positional arguments in order.
func (b *queryBuilder) Args() []interface{} {
	return b.args
}

// orderLimitClause renders ORDER BY / LIMIT / OFFSET for a query filter.
// Sort columns are restricted to a known set so filters can never inject
// arbitrary SQL.
func orderLimitClause(f *types.QueryFilter, allowedSorts map[string]bool) string {
	sort := types.FILTER_DEFAULT_SORT
	if f != nil && allowedSorts[f.GetSort()] {
		sort = f.GetSort()
	}
	order := "DESC"
	if f.GetOrder() == types.OrderAsc {
		order = "ASC"
	}

	clause := fmt.Sprintf(" ORDER BY %s %s", sort, order)
	if !f.IsUnlimited() {
		clause += fmt.Sprintf(" LIMIT %d OFFSET %d", f.GetLimit(), f.GetOffset())
	}
	return clause
}
