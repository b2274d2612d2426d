package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/railzwaylabs/wastebill/internal/invoice/domain"
	"github.com/shopspring/decimal"
)

// Service owns the PENDING to PAID transition. Gateway and manual settlements go
// through the same guard.
type Service interface {
	Settle(ctx context.Context, input SettleInput) (*SettleResult, error)
	RecordManualPayment(ctx context.Context, req ManualPaymentRequest) (*SettleResult, error)
	GetByInvoice(ctx context.Context, invoiceID snowflake.ID) (*Payment, error)
}

type Reconciler interface {
	HandleNotification(ctx context.Context, n Notification) (Outcome, error)
}

type CheckoutService interface {
	Prepare(ctx context.Context, invoiceID snowflake.ID) (*CheckoutRequest, error)
}

type SettleInput struct {
	InvoiceID     snowflake.ID
	Amount        decimal.Decimal
	Currency      string
	Method        string
	TransactionID string
	Source        PaymentSource
}

// SettleResult reports AlreadyPaid when the invoice was PAID before the call, in
// which case nothing changed and Payment is the existing row.
type SettleResult struct {
	Invoice     *invoicedomain.Invoice `json:"invoice"`
	Payment     *Payment               `json:"payment,omitempty"`
	AlreadyPaid bool                   `json:"already_paid"`
}

type ManualPaymentRequest struct {
	InvoiceID     snowflake.ID `json:"-"`
	Method        string       `json:"method" binding:"required"`
	TransactionID string       `json:"transaction_id"`
}

// CheckoutRequest is the field set posted to the gateway's checkout page.
type CheckoutRequest struct {
	Action string            `json:"action"`
	Fields map[string]string `json:"fields"`
}

var (
	ErrInvalidSignature  = errors.New("invalid_signature")
	ErrInvalidPayload    = errors.New("invalid_payload")
	ErrInvalidAmount     = errors.New("invalid_amount")
	ErrInvalidMethod     = errors.New("invalid_payment_method")
	ErrAlreadyPaid       = errors.New("invoice_already_paid")
	ErrInvoiceNotPayable = errors.New("invoice_not_payable")
	ErrPaymentNotFound   = errors.New("payment_not_found")
)
