package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertCollection(ctx context.Context, db *gorm.DB, ev *CollectionEvent) error
	InsertRecycling(ctx context.Context, db *gorm.DB, ev *RecyclingEvent) error
	ListUnbilled(ctx context.Context, db *gorm.DB, residentID snowflake.ID) (Unbilled, error)
	ListByInvoice(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) (Unbilled, error)
	// Claim links unbilled events to invoiceID and returns how many rows it claimed.
	// Rows that already carry an invoice are left untouched.
	ClaimCollections(ctx context.Context, db *gorm.DB, ids []snowflake.ID, invoiceID snowflake.ID) (int64, error)
	ClaimRecycling(ctx context.Context, db *gorm.DB, ids []snowflake.ID, invoiceID snowflake.ID) (int64, error)
}
