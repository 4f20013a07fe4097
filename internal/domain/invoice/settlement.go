package invoice

import (
	"github.com/shopspring/decimal"

	"github.com/finvoice/finvoice/internal/types"
)

// Pure settlement arithmetic. These functions never touch storage; the
// settlement service feeds them ledger sums read inside its transaction and
// persists whatever they derive.

// RemainingBalance returns totalAmount - paidSoFar. The result can be
// negative when the ledger holds more than the total; callers must treat
// that as a state to reject, not to clamp.
func RemainingBalance(totalAmount, paidSoFar decimal.Decimal) decimal.Decimal {
	return totalAmount.Sub(paidSoFar)
}

// DeriveSettlementStatus maps the paid-so-far sum onto an invoice status.
// prior is the invoice's current status: an invoice that never received a
// payment keeps its draft/sent progression, which is owned by the
// finalize workflow, not by settlement.
func DeriveSettlementStatus(prior types.InvoiceStatus, totalAmount, paidSoFar decimal.Decimal) types.InvoiceStatus {
	switch {
	case paidSoFar.GreaterThanOrEqual(totalAmount) && totalAmount.IsPositive():
		return types.InvoiceStatusPaid
	case paidSoFar.IsPositive():
		return types.InvoiceStatusPartiallyPaid
	default:
		// No payments on record. Only fall back to unpaid when a previous
		// settlement had already moved the invoice out of draft/sent,
		// e.g. after the last payment was deleted.
		if prior.IsSettled() || prior == types.InvoiceStatusUnpaid {
			return types.InvoiceStatusUnpaid
		}
		return prior
	}
}

// ApplySettlement writes the derived amounts and status onto the invoice.
// paidSoFar must already include the payment being recorded, and must not
// exceed the total; validation happens before any write.
func (i *Invoice) ApplySettlement(paidSoFar decimal.Decimal) {
	i.InvoiceStatus = DeriveSettlementStatus(i.InvoiceStatus, i.TotalAmount, paidSoFar)
	i.AmountPaid = paidSoFar
	i.AmountDue = RemainingBalance(i.TotalAmount, paidSoFar)
}
