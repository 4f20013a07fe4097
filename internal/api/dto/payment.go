package dto

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/finvoice/finvoice/internal/domain/payment"
	ierr "github.com/finvoice/finvoice/internal/errors"
	"github.com/finvoice/finvoice/internal/types"
	"github.com/finvoice/finvoice/internal/validator"
)

type RecordPaymentRequest struct {
	InvoiceID   string          `json:"invoice_id" validate:"required"`
	AmountPaid  decimal.Decimal `json:"amount_paid" validate:"required"`
	PaymentDate types.Date      `json:"payment_date" validate:"required"`
	Note        string          `json:"note" validate:"omitempty,max=1000"`
}

type UpdatePaymentRequest struct {
	AmountPaid  *decimal.Decimal `json:"amount_paid"`
	PaymentDate *types.Date      `json:"payment_date"`
	Note        *string          `json:"note" validate:"omitempty,max=1000"`
}

type PaymentResponse struct {
	*payment.Payment

	// Invoice reflects the settlement state after the payment was applied.
	Invoice *InvoiceResponse `json:"invoice,omitempty"`
}

// ListPaymentsResponse represents the response for listing payments
type ListPaymentsResponse = types.ListResponse[*PaymentResponse]

func (r *RecordPaymentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if !r.AmountPaid.IsPositive() {
		return ierr.NewError("invalid payment amount").
			WithHint("Payment amount must be positive").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (r *RecordPaymentRequest) ToPayment(ctx context.Context) *payment.Payment {
	return &payment.Payment{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		InvoiceID:   r.InvoiceID,
		UserID:      types.GetUserID(ctx),
		AmountPaid:  r.AmountPaid,
		PaymentDate: r.PaymentDate,
		Note:        r.Note,
		BaseModel:   types.GetDefaultBaseModel(ctx),
	}
}

func (r *UpdatePaymentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.AmountPaid != nil && !r.AmountPaid.IsPositive() {
		return ierr.NewError("invalid payment amount").
			WithHint("Payment amount must be positive").
			Mark(ierr.ErrValidation)
	}
	return nil
}
