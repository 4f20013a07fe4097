package payment

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/finvoice/finvoice/internal/types"
)

// Repository defines the interface for payment persistence. All reads and
// writes observe the transaction carried by the context, so SumByInvoice
// sees rows written earlier in the same settlement transaction and is
// isolated from concurrent uncommitted ones.
type Repository interface {
	Create(ctx context.Context, payment *Payment) error
	Get(ctx context.Context, id string) (*Payment, error)
	Update(ctx context.Context, payment *Payment) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, userID string, filter *types.PaymentFilter) ([]*Payment, error)
	Count(ctx context.Context, userID string, filter *types.PaymentFilter) (int, error)

	// FindByInvoice returns all payments recorded against an invoice
	FindByInvoice(ctx context.Context, invoiceID string) ([]*Payment, error)

	// SumByInvoice returns the committed total paid against an invoice
	SumByInvoice(ctx context.Context, invoiceID string) (decimal.Decimal, error)
}
