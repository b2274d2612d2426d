package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type PaymentSource string

const (
	SourceGateway PaymentSource = "gateway"
	SourceManual  PaymentSource = "manual"
)

const PaymentStatusSuccess = "SUCCESS"

// Payment is the single successful settlement of an invoice.
type Payment struct {
	ID            snowflake.ID    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	InvoiceID     snowflake.ID    `json:"invoice_id" gorm:"not null;uniqueIndex"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:numeric(14,4);not null"`
	Currency      string          `json:"currency" gorm:"type:varchar(3);not null"`
	Method        string          `json:"method" gorm:"type:varchar(64);not null"`
	TransactionID string          `json:"transaction_id" gorm:"type:varchar(128)"`
	Status        string          `json:"status" gorm:"type:varchar(16);not null"`
	Source        PaymentSource   `json:"source" gorm:"type:varchar(16);not null"`
	CreatedAt     time.Time       `json:"created_at" gorm:"not null"`
}

func (Payment) TableName() string { return "payments" }

// Gateway status codes as reported in status_code.
const (
	StatusCodeSuccess    = "2"
	StatusCodePending    = "0"
	StatusCodeCanceled   = "-1"
	StatusCodeFailed     = "-2"
	StatusCodeChargeback = "-3"
)

// StatusName maps a gateway status code to its name, UNKNOWN when unrecognised.
func StatusName(code string) string {
	switch code {
	case StatusCodeSuccess:
		return "SUCCESS"
	case StatusCodePending:
		return "PENDING"
	case StatusCodeCanceled:
		return "CANCELED"
	case StatusCodeFailed:
		return "FAILED"
	case StatusCodeChargeback:
		return "CHARGEBACK"
	default:
		return "UNKNOWN"
	}
}

// Notification is the form-encoded callback the gateway posts to the notify URL.
// Amount is kept as the raw string the gateway signed.
type Notification struct {
	MerchantID string `form:"merchant_id" binding:"required"`
	OrderID    string `form:"order_id" binding:"required"`
	PaymentID  string `form:"payment_id"`
	Amount     string `form:"payhere_amount" binding:"required"`
	Currency   string `form:"payhere_currency" binding:"required"`
	StatusCode string `form:"status_code" binding:"required"`
	Method     string `form:"method"`
	Signature  string `form:"md5sig" binding:"required"`
}

type Outcome string

const (
	OutcomeApplied        Outcome = "applied"
	OutcomeDuplicate      Outcome = "duplicate"
	OutcomeStatusRecorded Outcome = "status_recorded"
	OutcomeOrphaned       Outcome = "orphaned"
	// OutcomeNotPayable is a verified success for an invoice that can no longer be
	// paid. It is acknowledged and left for manual reconciliation.
	OutcomeNotPayable Outcome = "not_payable"
)

// NotificationRecord keeps every authenticated notification. Orphaned and
// unpayable successes, and successes whose amount or currency differs from the
// invoice, stay here for manual reconciliation.
type NotificationRecord struct {
	ID             snowflake.ID  `json:"id" gorm:"primaryKey;autoIncrement:false"`
	OrderID        string        `json:"order_id" gorm:"type:varchar(64);not null;index"`
	PaymentID      string        `json:"payment_id" gorm:"type:varchar(128)"`
	StatusCode     string        `json:"status_code" gorm:"type:varchar(8);not null"`
	StatusName     string        `json:"status_name" gorm:"type:varchar(16);not null"`
	Amount         string        `json:"amount" gorm:"type:varchar(32);not null"`
	Currency       string        `json:"currency" gorm:"type:varchar(3);not null"`
	Method         string        `json:"method" gorm:"type:varchar(64)"`
	Outcome        Outcome       `json:"outcome" gorm:"type:varchar(32);not null;index"`
	AmountMismatch bool          `json:"amount_mismatch" gorm:"not null;default:false;index"`
	InvoiceID      *snowflake.ID `json:"invoice_id,omitempty" gorm:"index"`
	ReceivedAt     time.Time     `json:"received_at" gorm:"not null"`
}

func (NotificationRecord) TableName() string { return "payment_notifications" }
