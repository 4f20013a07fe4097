package dto

import (
	"github.com/shopspring/decimal"

	"github.com/finvoice/finvoice/internal/types"
)

// DashboardResponse summarizes a user's invoicing position. Amounts are
// aggregated over published invoices only.
type DashboardResponse struct {
	TotalCustomers   int                         `json:"total_customers"`
	TotalInvoices    int                         `json:"total_invoices"`
	InvoicesByStatus map[types.InvoiceStatus]int `json:"invoices_by_status"`
	TotalBilled      decimal.Decimal             `json:"total_billed"`
	TotalCollected   decimal.Decimal             `json:"total_collected"`
	TotalOutstanding decimal.Decimal             `json:"total_outstanding"`
	OverdueInvoices  int                         `json:"overdue_invoices"`
	RecentActivity   []*HistoryResponse          `json:"recent_activity"`
}
