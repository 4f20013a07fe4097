package dto

import (
	"github.com/finvoice/finvoice/internal/domain/history"
	"github.com/finvoice/finvoice/internal/types"
)

type HistoryResponse struct {
	*history.Entry
}

// ListHistoryResponse represents the response for listing history entries
type ListHistoryResponse = types.ListResponse[*HistoryResponse]
