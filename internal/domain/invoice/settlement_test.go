package invoice

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/finvoice/finvoice/internal/types"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRemainingBalance(t *testing.T) {
	tests := []struct {
		name     string
		total    string
		paid     string
		expected string
	}{
		{"nothing paid", "1000", "0", "1000"},
		{"partially paid", "1000", "400", "600"},
		{"fully paid", "1000", "1000", "0"},
		{"overpaid ledger", "1000", "1000.01", "-0.01"},
		{"fractional amounts", "99.99", "33.33", "66.66"},
		{"zero total", "0", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RemainingBalance(d(tt.total), d(tt.paid))
			assert.True(t, got.Equal(d(tt.expected)), "got %s, want %s", got, tt.expected)
		})
	}
}

func TestDeriveSettlementStatus(t *testing.T) {
	tests := []struct {
		name     string
		prior    types.InvoiceStatus
		total    string
		paid     string
		expected types.InvoiceStatus
	}{
		{"sent invoice partially paid", types.InvoiceStatusSent, "1000", "400", types.InvoiceStatusPartiallyPaid},
		{"sent invoice fully paid", types.InvoiceStatusSent, "1000", "1000", types.InvoiceStatusPaid},
		{"draft invoice receives payment", types.InvoiceStatusDraft, "1000", "1", types.InvoiceStatusPartiallyPaid},
		{"partial stays partial", types.InvoiceStatusPartiallyPaid, "1000", "500", types.InvoiceStatusPartiallyPaid},
		{"partial becomes paid", types.InvoiceStatusPartiallyPaid, "1000", "1000", types.InvoiceStatusPaid},
		{"last payment deleted reverts to unpaid", types.InvoiceStatusPartiallyPaid, "1000", "0", types.InvoiceStatusUnpaid},
		{"paid then ledger emptied", types.InvoiceStatusPaid, "1000", "0", types.InvoiceStatusUnpaid},
		{"unpaid stays unpaid with empty ledger", types.InvoiceStatusUnpaid, "1000", "0", types.InvoiceStatusUnpaid},
		{"draft with no payments keeps draft", types.InvoiceStatusDraft, "1000", "0", types.InvoiceStatusDraft},
		{"sent with no payments keeps sent", types.InvoiceStatusSent, "1000", "0", types.InvoiceStatusSent},
		{"zero total never becomes paid", types.InvoiceStatusSent, "0", "0", types.InvoiceStatusSent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveSettlementStatus(tt.prior, d(tt.total), d(tt.paid))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestApplySettlement(t *testing.T) {
	inv := &Invoice{
		InvoiceStatus: types.InvoiceStatusSent,
		TotalAmount:   d("1000"),
		AmountPaid:    decimal.Zero,
		AmountDue:     d("1000"),
	}

	inv.ApplySettlement(d("400"))
	assert.Equal(t, types.InvoiceStatusPartiallyPaid, inv.InvoiceStatus)
	assert.True(t, inv.AmountPaid.Equal(d("400")))
	assert.True(t, inv.AmountDue.Equal(d("600")))
	assert.True(t, inv.AmountPaid.Add(inv.AmountDue).Equal(inv.TotalAmount))

	inv.ApplySettlement(d("1000"))
	assert.Equal(t, types.InvoiceStatusPaid, inv.InvoiceStatus)
	assert.True(t, inv.AmountPaid.Equal(d("1000")))
	assert.True(t, inv.AmountDue.IsZero())
}

func TestCalculateTotals(t *testing.T) {
	inv := &Invoice{
		Tax:      d("10"),
		Discount: d("25"),
		LineItems: []*LineItem{
			{Quantity: d("2"), UnitPrice: d("100")},
			{Quantity: d("1.5"), UnitPrice: d("50")},
		},
	}

	inv.CalculateTotals()
	assert.True(t, inv.LineItems[0].Amount.Equal(d("200")))
	assert.True(t, inv.LineItems[1].Amount.Equal(d("75")))
	assert.True(t, inv.TotalAmount.Equal(d("260")))

	// a discount larger than the subtotal clamps to zero
	inv.Discount = d("10000")
	inv.CalculateTotals()
	assert.True(t, inv.TotalAmount.IsZero())
}
