package dto

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/finvoice/finvoice/internal/domain/invoice"
	"github.com/finvoice/finvoice/internal/types"
	"github.com/finvoice/finvoice/internal/validator"
)

type CreateInvoiceLineItemRequest struct {
	Description string          `json:"description" validate:"required,max=500"`
	Quantity    decimal.Decimal `json:"quantity" validate:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"required"`
}

type CreateInvoiceRequest struct {
	CustomerID string                          `json:"customer_id" validate:"required"`
	IssueDate  types.Date                      `json:"issue_date" validate:"required"`
	DueDate    types.Date                      `json:"due_date" validate:"required"`
	Tax        decimal.Decimal                 `json:"tax"`
	Discount   decimal.Decimal                 `json:"discount"`
	Notes      string                          `json:"notes" validate:"omitempty,max=2000"`
	LineItems  []*CreateInvoiceLineItemRequest `json:"line_items" validate:"required,min=1,dive"`
}

type UpdateInvoiceRequest struct {
	CustomerID *string                         `json:"customer_id"`
	IssueDate  *types.Date                     `json:"issue_date"`
	DueDate    *types.Date                     `json:"due_date"`
	Tax        *decimal.Decimal                `json:"tax"`
	Discount   *decimal.Decimal                `json:"discount"`
	Notes      *string                         `json:"notes" validate:"omitempty,max=2000"`
	LineItems  []*CreateInvoiceLineItemRequest `json:"line_items" validate:"omitempty,min=1,dive"`
}

type InvoiceResponse struct {
	*invoice.Invoice
}

// ListInvoicesResponse represents the response for listing invoices
type ListInvoicesResponse = types.ListResponse[*InvoiceResponse]

func (r *CreateInvoiceRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// ToInvoice builds a draft invoice from the request. Totals are computed
// from the line items; the invoice number is assigned by the service.
func (r *CreateInvoiceRequest) ToInvoice(ctx context.Context) *invoice.Invoice {
	inv := &invoice.Invoice{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		UserID:        types.GetUserID(ctx),
		CustomerID:    r.CustomerID,
		InvoiceStatus: types.InvoiceStatusDraft,
		IssueDate:     r.IssueDate,
		DueDate:       r.DueDate,
		Tax:           r.Tax,
		Discount:      r.Discount,
		Notes:         r.Notes,
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}
	for _, li := range r.LineItems {
		inv.LineItems = append(inv.LineItems, li.toLineItem(ctx, inv.ID))
	}
	inv.CalculateTotals()
	inv.AmountDue = inv.TotalAmount
	return inv
}

func (r *CreateInvoiceLineItemRequest) toLineItem(ctx context.Context, invoiceID string) *invoice.LineItem {
	return &invoice.LineItem{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LINE_ITEM),
		InvoiceID:   invoiceID,
		Description: r.Description,
		Quantity:    r.Quantity,
		UnitPrice:   r.UnitPrice,
		BaseModel:   types.GetDefaultBaseModel(ctx),
	}
}

func (r *UpdateInvoiceRequest) Validate() error {
	return validator.ValidateRequest(r)
}
