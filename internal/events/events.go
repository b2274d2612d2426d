// Package events carries invoice state transitions to downstream consumers.
// Events are written to the billing_events outbox in the same transaction as the
// transition and relayed by a Dispatcher, which marks each row once handed over.
package events

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	EventInvoiceCreated = "invoice.created"
	EventInvoicePaid    = "invoice.paid"
)

type Record struct {
	ID           snowflake.ID   `gorm:"primaryKey;autoIncrement:false"`
	EventType    string         `gorm:"type:varchar(64);not null;index"`
	AggregateID  snowflake.ID   `gorm:"not null;index"`
	Payload      datatypes.JSON `gorm:"not null"`
	CreatedAt    time.Time      `gorm:"not null"`
	DispatchedAt *time.Time     `gorm:"index"`
}

func (Record) TableName() string { return "billing_events" }

// Event is the message handed to consumers.
type Event struct {
	ID          snowflake.ID
	Type        string
	AggregateID snowflake.ID
	Payload     map[string]any
	OccurredAt  time.Time
}
