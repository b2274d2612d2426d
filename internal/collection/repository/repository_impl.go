package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/wastebill/internal/collection/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertCollection(ctx context.Context, db *gorm.DB, ev *domain.CollectionEvent) error {
	return db.WithContext(ctx).Create(ev).Error
}

func (r *repo) InsertRecycling(ctx context.Context, db *gorm.DB, ev *domain.RecyclingEvent) error {
	return db.WithContext(ctx).Create(ev).Error
}

func (r *repo) ListUnbilled(ctx context.Context, db *gorm.DB, residentID snowflake.ID) (domain.Unbilled, error) {
	var out domain.Unbilled
	if err := db.WithContext(ctx).
		Where("resident_id = ? AND invoice_id IS NULL", residentID).
		Order("collected_at ASC, id ASC").
		Find(&out.Collections).Error; err != nil {
		return domain.Unbilled{}, err
	}
	if err := db.WithContext(ctx).
		Where("resident_id = ? AND invoice_id IS NULL", residentID).
		Order("recorded_at ASC, id ASC").
		Find(&out.Recycling).Error; err != nil {
		return domain.Unbilled{}, err
	}
	return out, nil
}

func (r *repo) ListByInvoice(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) (domain.Unbilled, error) {
	var out domain.Unbilled
	if err := db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("collected_at ASC, id ASC").
		Find(&out.Collections).Error; err != nil {
		return domain.Unbilled{}, err
	}
	if err := db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("recorded_at ASC, id ASC").
		Find(&out.Recycling).Error; err != nil {
		return domain.Unbilled{}, err
	}
	return out, nil
}

func (r *repo) ClaimCollections(ctx context.Context, db *gorm.DB, ids []snowflake.ID, invoiceID snowflake.ID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).Exec(
		`UPDATE collection_events SET invoice_id = ? WHERE id IN ? AND invoice_id IS NULL`,
		invoiceID,
		ids,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) ClaimRecycling(ctx context.Context, db *gorm.DB, ids []snowflake.ID, invoiceID snowflake.ID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).Exec(
		`UPDATE recycling_events SET invoice_id = ? WHERE id IN ? AND invoice_id IS NULL`,
		invoiceID,
		ids,
	)
	return res.RowsAffected, res.Error
}
