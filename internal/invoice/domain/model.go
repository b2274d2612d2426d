// Package domain defines resident invoices and their lifecycle.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "PENDING"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusFailed  InvoiceStatus = "FAILED"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s InvoiceStatus) Terminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusFailed
}

// Invoice bills one resident for one calendar month. (ResidentID, PeriodKey) is
// unique; the payment fields are populated only by the transition to PAID.
type Invoice struct {
	ID            snowflake.ID    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	InvoiceNumber string          `json:"invoice_number" gorm:"type:varchar(64);not null;uniqueIndex"`
	ResidentID    snowflake.ID    `json:"resident_id" gorm:"not null;uniqueIndex:ux_invoices_resident_period,priority:1"`
	PeriodKey     string          `json:"period_key" gorm:"type:varchar(7);not null;uniqueIndex:ux_invoices_resident_period,priority:2"`
	PeriodStart   time.Time       `json:"period_start" gorm:"not null"`
	PeriodEnd     time.Time       `json:"period_end" gorm:"not null"`
	TotalCharges  decimal.Decimal `json:"total_charges" gorm:"type:numeric(14,4);not null"`
	TotalCredits  decimal.Decimal `json:"total_credits" gorm:"type:numeric(14,4);not null"`
	FinalAmount   decimal.Decimal `json:"final_amount" gorm:"type:numeric(14,4);not null"`
	Status        InvoiceStatus   `json:"status" gorm:"type:varchar(16);not null;index"`
	DueAt         time.Time       `json:"due_at" gorm:"not null;index"`
	PaymentMethod *string         `json:"payment_method,omitempty" gorm:"type:varchar(64)"`
	TransactionID *string         `json:"transaction_id,omitempty" gorm:"type:varchar(128)"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time       `json:"updated_at" gorm:"not null"`
}

func (Invoice) TableName() string { return "invoices" }

// Period is a closed calendar-month billing window.
type Period struct {
	Start time.Time
	End   time.Time
}

// Key identifies the period as YYYY-MM.
func (p Period) Key() string {
	return p.Start.Format("2006-01")
}

// PreviousMonth returns the calendar month before the one containing now. End is the
// last instant of the month's final day.
func PreviousMonth(now time.Time) Period {
	now = now.UTC()
	firstOfThisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := firstOfThisMonth.AddDate(0, -1, 0)
	end := firstOfThisMonth.Add(-time.Nanosecond)
	return Period{Start: start, End: end}
}
