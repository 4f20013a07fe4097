package invoice

import (
	"github.com/shopspring/decimal"

	ierr "github.com/finvoice/finvoice/internal/errors"
	"github.com/finvoice/finvoice/internal/types"
)

// Invoice represents the invoice domain model. AmountPaid and AmountDue are
// derived from the payment ledger and only ever written by the settlement
// workflow; TotalAmount is derived from the line items plus tax minus
// discount at create/update time.
type Invoice struct {
	ID            string              `db:"id" json:"id"`
	UserID        string              `db:"user_id" json:"user_id"`
	CustomerID    string              `db:"customer_id" json:"customer_id"`
	InvoiceNumber string              `db:"invoice_number" json:"invoice_number"`
	InvoiceStatus types.InvoiceStatus `db:"invoice_status" json:"invoice_status"`
	IssueDate     types.Date          `db:"issue_date" json:"issue_date"`
	DueDate       types.Date          `db:"due_date" json:"due_date"`
	Tax           decimal.Decimal     `db:"tax" json:"tax"`
	Discount      decimal.Decimal     `db:"discount" json:"discount"`
	TotalAmount   decimal.Decimal     `db:"total_amount" json:"total_amount"`
	AmountPaid    decimal.Decimal     `db:"amount_paid" json:"amount_paid"`
	AmountDue     decimal.Decimal     `db:"amount_due" json:"amount_due"`
	Notes         string              `db:"notes" json:"notes,omitempty"`
	LineItems     []*LineItem         `json:"line_items,omitempty"`
	types.BaseModel
}

// LineItem represents a single line item in an invoice
type LineItem struct {
	ID          string          `db:"id" json:"id"`
	InvoiceID   string          `db:"invoice_id" json:"invoice_id"`
	Description string          `db:"description" json:"description"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	types.BaseModel
}

// Validate validates the invoice line item
func (li *LineItem) Validate() error {
	if li.Description == "" {
		return ierr.NewError("line item validation failed").
			WithHint("Line item description is required").
			Mark(ierr.ErrValidation)
	}
	if !li.Quantity.IsPositive() {
		return ierr.NewError("line item validation failed").
			WithHint("Line item quantity must be positive").
			Mark(ierr.ErrValidation)
	}
	if !li.UnitPrice.IsPositive() {
		return ierr.NewError("line item validation failed").
			WithHint("Line item unit price must be positive").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Subtotal returns the sum of line item amounts.
func (i *Invoice) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, li := range i.LineItems {
		subtotal = subtotal.Add(li.Amount)
	}
	return subtotal
}

// CalculateTotals recomputes each line item amount and the invoice total
// from quantity, unit price, tax and discount.
func (i *Invoice) CalculateTotals() {
	for _, li := range i.LineItems {
		li.Amount = li.Quantity.Mul(li.UnitPrice)
	}
	total := i.Subtotal().Add(i.Tax).Sub(i.Discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	i.TotalAmount = total
}

func (i *Invoice) Validate() error {
	if i.UserID == "" {
		return ierr.NewError("invoice owner is required").
			WithHint("Invoice must belong to a user").
			Mark(ierr.ErrValidation)
	}
	if i.CustomerID == "" {
		return ierr.NewError("customer is required").
			WithHint("Invoice must reference a customer").
			Mark(ierr.ErrValidation)
	}
	if err := i.InvoiceStatus.Validate(); err != nil {
		return err
	}
	if i.TotalAmount.IsNegative() {
		return ierr.NewError("invalid invoice amount").
			WithHint("Total amount must be non negative").
			Mark(ierr.ErrValidation)
	}
	if i.AmountPaid.IsNegative() {
		return ierr.NewError("invalid invoice amount").
			WithHint("Amount paid must be non negative").
			Mark(ierr.ErrValidation)
	}
	if i.AmountDue.IsNegative() {
		return ierr.NewError("invalid invoice amount").
			WithHint("Amount due must be non negative").
			Mark(ierr.ErrValidation)
	}
	if !i.AmountPaid.Add(i.AmountDue).Equal(i.TotalAmount) {
		return ierr.NewError("invalid invoice amount").
			WithHint("Amount due must equal total amount minus amount paid").
			Mark(ierr.ErrValidation)
	}
	if i.Tax.IsNegative() {
		return ierr.NewError("invalid invoice amount").
			WithHint("Tax must be non negative").
			Mark(ierr.ErrValidation)
	}
	if i.Discount.IsNegative() {
		return ierr.NewError("invalid invoice amount").
			WithHint("Discount must be non negative").
			Mark(ierr.ErrValidation)
	}
	if !i.IssueDate.IsZero() && !i.DueDate.IsZero() && i.DueDate.Before(i.IssueDate.Time) {
		return ierr.NewError("invalid invoice dates").
			WithHint("Due date must not be before issue date").
			Mark(ierr.ErrValidation)
	}
	for _, li := range i.LineItems {
		if err := li.Validate(); err != nil {
			return err
		}
	}
	return nil
}
