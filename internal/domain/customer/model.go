package customer

import (
	ierr "github.com/finvoice/finvoice/internal/errors"
	"github.com/finvoice/finvoice/internal/types"
)

// Customer is a billable party belonging to one user. Invoices and payments
// reference customers by ID but ownership checks always go through the
// owning user.
type Customer struct {
	ID      string `db:"id" json:"id"`
	UserID  string `db:"user_id" json:"user_id"`
	Name    string `db:"name" json:"name"`
	Email   string `db:"email" json:"email,omitempty"`
	Phone   string `db:"phone" json:"phone,omitempty"`
	Address string `db:"address" json:"address,omitempty"`
	types.BaseModel
}

func (c *Customer) Validate() error {
	if c.Name == "" {
		return ierr.NewError("customer name is required").
			WithHint("Customer name is required").
			Mark(ierr.ErrValidation)
	}
	if c.UserID == "" {
		return ierr.NewError("customer owner is required").
			WithHint("Customer must belong to a user").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CustomerFilter represents the filter for listing customers
type CustomerFilter struct {
	*types.QueryFilter

	CustomerIDs []string `form:"customer_ids"`
	Email       *string  `form:"email"`
	NameLike    *string  `form:"name"`
}

func (f *CustomerFilter) Validate() error {
	if f == nil {
		return nil
	}
	return f.QueryFilter.Validate()
}

func (f *CustomerFilter) GetLimit() int {
	if f == nil || f.QueryFilter == nil {
		return types.FILTER_DEFAULT_LIMIT
	}
	return f.QueryFilter.GetLimit()
}

func (f *CustomerFilter) GetOffset() int {
	if f == nil || f.QueryFilter == nil {
		return 0
	}
	return f.QueryFilter.GetOffset()
}
