package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/wastebill/internal/billingmodel/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, model *domain.BillingModel) error {
	record, err := toRecord(model)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Create(record).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.BillingModel, error) {
	return r.first(db.WithContext(ctx).Where("id = ?", id))
}

func (r *repo) FindActiveByLocality(ctx context.Context, db *gorm.DB, locality string) (*domain.BillingModel, error) {
	return r.first(db.WithContext(ctx).
		Where("locality_code = ? AND active = ?", locality, true).
		Order("id ASC"))
}

func (r *repo) FindAnyActive(ctx context.Context, db *gorm.DB) (*domain.BillingModel, error) {
	return r.first(db.WithContext(ctx).Where("active = ?", true).Order("id ASC"))
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]*domain.BillingModel, error) {
	var records []domain.Record
	if err := db.WithContext(ctx).Order("locality_code ASC, id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.BillingModel, 0, len(records))
	for i := range records {
		model, err := fromRecord(&records[i])
		if err != nil {
			return nil, err
		}
		out = append(out, model)
	}
	return out, nil
}

func (r *repo) SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool) error {
	return db.WithContext(ctx).Model(&domain.Record{}).
		Where("id = ?", id).
		Updates(map[string]any{"active": active, "updated_at": time.Now().UTC()}).Error
}

func (r *repo) DeactivateLocality(ctx context.Context, db *gorm.DB, locality string, exceptID snowflake.ID) (int64, error) {
	res := db.WithContext(ctx).Model(&domain.Record{}).
		Where("locality_code = ? AND active = ? AND id <> ?", locality, true, exceptID).
		Updates(map[string]any{"active": false, "updated_at": time.Now().UTC()})
	return res.RowsAffected, res.Error
}

func (r *repo) first(stmt *gorm.DB) (*domain.BillingModel, error) {
	var record domain.Record
	if err := stmt.First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return fromRecord(&record)
}

func toRecord(model *domain.BillingModel) (*domain.Record, error) {
	kind, pricing, err := domain.EncodePricing(model.Pricing)
	if err != nil {
		return nil, err
	}
	rates := model.PaybackRates
	if rates == nil {
		rates = domain.PaybackRates{}
	}
	payback, err := json.Marshal(rates)
	if err != nil {
		return nil, err
	}
	return &domain.Record{
		ID:           model.ID,
		Name:         model.Name,
		LocalityCode: model.LocalityCode,
		PricingKind:  kind,
		Pricing:      datatypes.JSON(pricing),
		PaybackRates: datatypes.JSON(payback),
		Active:       model.Active,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}, nil
}

func fromRecord(record *domain.Record) (*domain.BillingModel, error) {
	pricing, err := domain.DecodePricing(record.PricingKind, record.Pricing)
	if err != nil {
		return nil, fmt.Errorf("billing model %s: %w", record.ID, err)
	}
	rates := domain.PaybackRates{}
	if len(record.PaybackRates) > 0 {
		if err := json.Unmarshal(record.PaybackRates, &rates); err != nil {
			return nil, fmt.Errorf("billing model %s payback rates: %w", record.ID, err)
		}
	}
	return &domain.BillingModel{
		ID:           record.ID,
		Name:         record.Name,
		LocalityCode: record.LocalityCode,
		Pricing:      pricing,
		PaybackRates: rates,
		Active:       record.Active,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}, nil
}
