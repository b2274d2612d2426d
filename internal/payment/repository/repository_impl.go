package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/wastebill/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertPayment(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *repo) FindByInvoiceID(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).Where("invoice_id = ?", invoiceID).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repo) InsertNotification(ctx context.Context, db *gorm.DB, record *domain.NotificationRecord) error {
	return db.WithContext(ctx).Create(record).Error
}

func (r *repo) ListNotifications(ctx context.Context, db *gorm.DB, orderID string) ([]domain.NotificationRecord, error) {
	var records []domain.NotificationRecord
	err := db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("received_at ASC, id ASC").
		Find(&records).Error
	return records, err
}
