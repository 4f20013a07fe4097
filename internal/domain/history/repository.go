package history

import (
	"context"

	"github.com/finvoice/finvoice/internal/types"
)

// Repository defines the interface for history persistence. Entries are
// append only; there is no update or delete.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	List(ctx context.Context, userID string, filter *types.HistoryFilter) ([]*Entry, error)
	Count(ctx context.Context, userID string, filter *types.HistoryFilter) (int, error)
}
