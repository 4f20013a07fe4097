package types

import (
	ierr "github.com/finvoice/finvoice/internal/errors"
	"github.com/samber/lo"
)

// HistoryAction identifies what happened to an invoice or one of its
// payments. History entries are append only.
type HistoryAction string

const (
	HistoryActionInvoiceCreated   HistoryAction = "invoice.created"
	HistoryActionInvoiceUpdated   HistoryAction = "invoice.updated"
	HistoryActionInvoiceFinalized HistoryAction = "invoice.finalized"
	HistoryActionInvoiceDeleted   HistoryAction = "invoice.deleted"
	HistoryActionPaymentRecorded  HistoryAction = "payment.recorded"
	HistoryActionPaymentUpdated   HistoryAction = "payment.updated"
	HistoryActionPaymentDeleted   HistoryAction = "payment.deleted"
)

func (a HistoryAction) String() string {
	return string(a)
}

func (a HistoryAction) Validate() error {
	allowed := []HistoryAction{
		HistoryActionInvoiceCreated,
		HistoryActionInvoiceUpdated,
		HistoryActionInvoiceFinalized,
		HistoryActionInvoiceDeleted,
		HistoryActionPaymentRecorded,
		HistoryActionPaymentUpdated,
		HistoryActionPaymentDeleted,
	}
	if !lo.Contains(allowed, a) {
		return ierr.NewError("invalid history action").
			WithHint("Please provide a valid history action").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// HistoryFilter represents the filter for listing history entries
type HistoryFilter struct {
	*QueryFilter
	*TimeRangeFilter

	InvoiceID *string        `form:"invoice_id"`
	PaymentID *string        `form:"payment_id"`
	Action    *HistoryAction `form:"action"`
}

// NewHistoryFilter creates a new history filter with default query options
func NewHistoryFilter() *HistoryFilter {
	return &HistoryFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

// Validate validates the history filter
func (f *HistoryFilter) Validate() error {
	if f == nil {
		return nil
	}

	if err := f.QueryFilter.Validate(); err != nil {
		return err
	}

	if err := f.TimeRangeFilter.Validate(); err != nil {
		return err
	}

	if f.Action != nil {
		if err := f.Action.Validate(); err != nil {
			return err
		}
	}

	return nil
}

func (f *HistoryFilter) GetLimit() int {
	if f == nil || f.QueryFilter == nil {
		return FILTER_DEFAULT_LIMIT
	}
	return f.QueryFilter.GetLimit()
}

func (f *HistoryFilter) GetOffset() int {
	if f == nil || f.QueryFilter == nil {
		return 0
	}
	return f.QueryFilter.GetOffset()
}
