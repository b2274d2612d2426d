package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Service interface {
	RecordCollection(ctx context.Context, input RecordCollectionInput) (*CollectionEvent, error)
	RecordRecycling(ctx context.Context, input RecordRecyclingInput) (*RecyclingEvent, error)
	ListUnbilled(ctx context.Context, residentID snowflake.ID) (Unbilled, error)
}

type RecordCollectionInput struct {
	ResidentID  snowflake.ID
	BinID       snowflake.ID
	CollectorID snowflake.ID
	WeightKg    decimal.Decimal
	CollectedAt time.Time
}

type RecordRecyclingInput struct {
	ResidentID snowflake.ID
	Category   string
	WeightKg   decimal.Decimal
	RecordedAt time.Time
}

var (
	ErrInvalidBin      = errors.New("invalid_bin")
	ErrInvalidCategory = errors.New("invalid_waste_category")
)
