package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	FindByNumber(ctx context.Context, db *gorm.DB, number string) (*Invoice, error)
	FindByResidentPeriod(ctx context.Context, db *gorm.DB, residentID snowflake.ID, periodKey string) (*Invoice, error)
	ListByResident(ctx context.Context, db *gorm.DB, residentID snowflake.ID) ([]*Invoice, error)
	ListByStatus(ctx context.Context, db *gorm.DB, status InvoiceStatus) ([]*Invoice, error)
	ListOverdue(ctx context.Context, db *gorm.DB, now time.Time) ([]*Invoice, error)
	// MarkPaid moves a PENDING invoice to PAID and reports whether it did. An invoice
	// in any other status is left as is.
	MarkPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, ref PaymentReference) (bool, error)
}

type PaymentReference struct {
	Method        string
	TransactionID string
	PaidAt        time.Time
}
