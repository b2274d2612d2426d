// Package domain holds the collection and recycling events that invoices absorb.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	billingmodeldomain "github.com/railzwaylabs/wastebill/internal/billingmodel/domain"
	"github.com/shopspring/decimal"
)

// CollectionEvent is one bin pickup. InvoiceID is set once, when an invoice claims
// the event, and never changes afterwards.
type CollectionEvent struct {
	ID             snowflake.ID    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	ResidentID     snowflake.ID    `json:"resident_id" gorm:"not null;index"`
	BinID          snowflake.ID    `json:"bin_id" gorm:"not null;index"`
	CollectorID    snowflake.ID    `json:"collector_id" gorm:"not null"`
	BillingModelID snowflake.ID    `json:"billing_model_id" gorm:"not null"`
	CollectedAt    time.Time       `json:"collected_at" gorm:"not null"`
	WeightKg       decimal.Decimal `json:"weight_kg" gorm:"type:numeric(14,4);not null"`
	Charge         decimal.Decimal `json:"charge" gorm:"type:numeric(14,4);not null"`
	InvoiceID      *snowflake.ID   `json:"invoice_id,omitempty" gorm:"index"`
	CreatedAt      time.Time       `json:"created_at" gorm:"not null"`
}

func (CollectionEvent) TableName() string { return "collection_events" }

type RecyclingEvent struct {
	ID             snowflake.ID                     `json:"id" gorm:"primaryKey;autoIncrement:false"`
	ResidentID     snowflake.ID                     `json:"resident_id" gorm:"not null;index"`
	BillingModelID snowflake.ID                     `json:"billing_model_id" gorm:"not null"`
	Category       billingmodeldomain.WasteCategory `json:"category" gorm:"type:varchar(32);not null"`
	RecordedAt     time.Time                        `json:"recorded_at" gorm:"not null"`
	WeightKg       decimal.Decimal                  `json:"weight_kg" gorm:"type:numeric(14,4);not null"`
	Payback        decimal.Decimal                  `json:"payback" gorm:"type:numeric(14,4);not null"`
	InvoiceID      *snowflake.ID                    `json:"invoice_id,omitempty" gorm:"index"`
	CreatedAt      time.Time                        `json:"created_at" gorm:"not null"`
}

func (RecyclingEvent) TableName() string { return "recycling_events" }

// Unbilled is the set of events a resident has not yet been invoiced for.
type Unbilled struct {
	Collections []CollectionEvent
	Recycling   []RecyclingEvent
}

func (u Unbilled) Empty() bool {
	return len(u.Collections) == 0 && len(u.Recycling) == 0
}

func (u Unbilled) TotalCharges() decimal.Decimal {
	total := decimal.Zero
	for _, ev := range u.Collections {
		total = total.Add(ev.Charge)
	}
	return total
}

func (u Unbilled) TotalCredits() decimal.Decimal {
	total := decimal.Zero
	for _, ev := range u.Recycling {
		total = total.Add(ev.Payback)
	}
	return total
}

func (u Unbilled) CollectionIDs() []snowflake.ID {
	ids := make([]snowflake.ID, 0, len(u.Collections))
	for _, ev := range u.Collections {
		ids = append(ids, ev.ID)
	}
	return ids
}

func (u Unbilled) RecyclingIDs() []snowflake.ID {
	ids := make([]snowflake.ID, 0, len(u.Recycling))
	for _, ev := range u.Recycling {
		ids = append(ids, ev.ID)
	}
	return ids
}
