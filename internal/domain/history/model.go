package history

import (
	"time"

	"github.com/finvoice/finvoice/internal/types"
)

// Entry is an append-only audit record of an action taken on an invoice or
// one of its payments. Entries are written best effort after the mutation
// commits; a failed write is logged, never propagated.
type Entry struct {
	ID        string              `db:"id" json:"id"`
	UserID    string              `db:"user_id" json:"user_id"`
	InvoiceID string              `db:"invoice_id" json:"invoice_id"`
	PaymentID *string             `db:"payment_id" json:"payment_id,omitempty"`
	Action    types.HistoryAction `db:"action" json:"action"`
	Detail    string              `db:"detail" json:"detail,omitempty"`
	CreatedAt time.Time           `db:"created_at" json:"created_at"`
}
