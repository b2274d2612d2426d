package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, model *BillingModel) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*BillingModel, error)
	FindActiveByLocality(ctx context.Context, db *gorm.DB, locality string) (*BillingModel, error)
	FindAnyActive(ctx context.Context, db *gorm.DB) (*BillingModel, error)
	List(ctx context.Context, db *gorm.DB) ([]*BillingModel, error)
	SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool) error
	DeactivateLocality(ctx context.Context, db *gorm.DB, locality string, exceptID snowflake.ID) (int64, error)
}
