package payment

import (
	"github.com/shopspring/decimal"

	ierr "github.com/finvoice/finvoice/internal/errors"
	"github.com/finvoice/finvoice/internal/types"
)

// Payment is one recorded transfer against an invoice. Rows are only ever
// created inside a committed settlement transaction; ownership for
// authorization is the payment's own UserID, not the invoice's.
type Payment struct {
	ID          string          `db:"id" json:"id"`
	InvoiceID   string          `db:"invoice_id" json:"invoice_id"`
	UserID      string          `db:"user_id" json:"user_id"`
	CustomerID  string          `db:"customer_id" json:"customer_id"`
	AmountPaid  decimal.Decimal `db:"amount_paid" json:"amount_paid"`
	PaymentDate types.Date      `db:"payment_date" json:"payment_date"`
	Note        string          `db:"note" json:"note,omitempty"`
	types.BaseModel
}

func (p *Payment) Validate() error {
	if p.InvoiceID == "" {
		return ierr.NewError("invoice reference is required").
			WithHint("Payment must reference an invoice").
			Mark(ierr.ErrValidation)
	}
	if p.UserID == "" {
		return ierr.NewError("payment owner is required").
			WithHint("Payment must belong to a user").
			Mark(ierr.ErrValidation)
	}
	if p.CustomerID == "" {
		return ierr.NewError("customer reference is required").
			WithHint("Payment must reference a customer").
			Mark(ierr.ErrValidation)
	}
	if !p.AmountPaid.IsPositive() {
		return ierr.NewError("invalid payment amount").
			WithHint("Payment amount must be greater than zero").
			Mark(ierr.ErrValidation)
	}
	if p.PaymentDate.IsZero() {
		return ierr.NewError("payment date is required").
			WithHint("Payment date is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}
