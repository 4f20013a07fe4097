package invoice

import (
	"context"

	"github.com/finvoice/finvoice/internal/types"
)

// Repository defines the interface for invoice persistence operations
type Repository interface {
	// Create creates a new invoice together with its line items
	Create(ctx context.Context, invoice *Invoice) error

	// Get retrieves an invoice with its line items
	Get(ctx context.Context, id string) (*Invoice, error)

	// GetForUpdate retrieves an invoice and locks its row for the duration
	// of the context transaction (SELECT ... FOR UPDATE). Serializes
	// concurrent settlements on the same invoice.
	GetForUpdate(ctx context.Context, id string) (*Invoice, error)

	// Update updates invoice fields and replaces its line items
	Update(ctx context.Context, invoice *Invoice) error

	// UpdateSettlement persists only the settlement-owned columns
	// (invoice_status, amount_paid, amount_due)
	UpdateSettlement(ctx context.Context, invoice *Invoice) error

	// UpdateStatus persists only invoice_status. Used by the finalize
	// workflow so it never touches the settlement-owned amount columns.
	UpdateStatus(ctx context.Context, invoice *Invoice) error

	// Delete removes an invoice and its line items
	Delete(ctx context.Context, id string) error

	// List retrieves invoices owned by userID matching the filter
	List(ctx context.Context, userID string, filter *types.InvoiceFilter) ([]*Invoice, error)

	// Count returns the number of invoices owned by userID matching the filter
	Count(ctx context.Context, userID string, filter *types.InvoiceFilter) (int, error)

	// CountByCustomer returns the number of invoices referencing a customer
	CountByCustomer(ctx context.Context, userID, customerID string) (int, error)

	// ExistsNumber reports whether the owner already uses an invoice number
	ExistsNumber(ctx context.Context, userID, invoiceNumber string) (bool, error)
}
