package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, resident *Resident) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Resident, error)
	ListIDs(ctx context.Context, db *gorm.DB) ([]snowflake.ID, error)
	UpdateLocality(ctx context.Context, db *gorm.DB, id snowflake.ID, locality string) (bool, error)
}
