package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/wastebill/internal/resident/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, resident *domain.Resident) error {
	return db.WithContext(ctx).Create(resident).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Resident, error) {
	var res domain.Resident
	err := db.WithContext(ctx).Raw(
		`SELECT id, first_name, last_name, email, phone, address, city, locality_code, created_at, updated_at
		 FROM residents WHERE id = ?`,
		id,
	).Scan(&res).Error
	if err != nil {
		return nil, err
	}
	if res.ID == 0 {
		return nil, nil
	}
	return &res, nil
}

func (r *repo) ListIDs(ctx context.Context, db *gorm.DB) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(`SELECT id FROM residents ORDER BY id ASC`).Scan(&ids).Error
	return ids, err
}

func (r *repo) UpdateLocality(ctx context.Context, db *gorm.DB, id snowflake.ID, locality string) (bool, error) {
	res := db.WithContext(ctx).Model(&domain.Resident{}).
		Where("id = ?", id).
		Updates(map[string]any{"locality_code": locality, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
