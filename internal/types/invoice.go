package types

import (
	ierr "github.com/finvoice/finvoice/internal/errors"
	"github.com/samber/lo"
)

// InvoiceStatus tracks an invoice through its lifecycle. The draft → sent
// transition is driven by the finalize operation; the unpaid /
// partially_paid / paid transitions are derived from the payment ledger and
// are only ever written by the settlement workflow.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusSent          InvoiceStatus = "sent"
	InvoiceStatusUnpaid        InvoiceStatus = "unpaid"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusPaid          InvoiceStatus = "paid"
)

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Validate() error {
	allowed := []InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusSent,
		InvoiceStatusUnpaid,
		InvoiceStatusPartiallyPaid,
		InvoiceStatusPaid,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid invoice status").
			WithHint("Please provide a valid invoice status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsSettled reports whether the status was derived from at least one
// recorded payment.
func (s InvoiceStatus) IsSettled() bool {
	return s == InvoiceStatusPartiallyPaid || s == InvoiceStatusPaid
}

// InvoiceFilter represents the filter for listing invoices
type InvoiceFilter struct {
	*QueryFilter
	*TimeRangeFilter

	InvoiceIDs    []string       `form:"invoice_ids"`
	CustomerID    *string        `form:"customer_id"`
	InvoiceStatus *InvoiceStatus `form:"invoice_status"`
	DueBefore     *Date          `form:"due_before"`
	DueAfter      *Date          `form:"due_after"`
}

// NewInvoiceFilter creates a new invoice filter with default query options
func NewInvoiceFilter() *InvoiceFilter {
	return &InvoiceFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

// NewNoLimitInvoiceFilter creates a new invoice filter with no limit
func NewNoLimitInvoiceFilter() *InvoiceFilter {
	return &InvoiceFilter{
		QueryFilter: NewNoLimitQueryFilter(),
	}
}

// Validate validates the invoice filter
func (f *InvoiceFilter) Validate() error {
	if f == nil {
		return nil
	}

	if err := f.QueryFilter.Validate(); err != nil {
		return err
	}

	if err := f.TimeRangeFilter.Validate(); err != nil {
		return err
	}

	if f.InvoiceStatus != nil {
		if err := f.InvoiceStatus.Validate(); err != nil {
			return err
		}
	}

	return nil
}

func (f *InvoiceFilter) GetLimit() int {
	if f == nil || f.QueryFilter == nil {
		return FILTER_DEFAULT_LIMIT
	}
	return f.QueryFilter.GetLimit()
}

func (f *InvoiceFilter) GetOffset() int {
	if f == nil || f.QueryFilter == nil {
		return 0
	}
	return f.QueryFilter.GetOffset()
}
