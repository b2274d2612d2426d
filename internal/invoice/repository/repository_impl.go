package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/wastebill/internal/invoice/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Create(invoice).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	return first(db.WithContext(ctx).Where("id = ?", id))
}

func (r *repo) FindByNumber(ctx context.Context, db *gorm.DB, number string) (*domain.Invoice, error) {
	return first(db.WithContext(ctx).Where("invoice_number = ?", number))
}

func (r *repo) FindByResidentPeriod(ctx context.Context, db *gorm.DB, residentID snowflake.ID, periodKey string) (*domain.Invoice, error) {
	return first(db.WithContext(ctx).Where("resident_id = ? AND period_key = ?", residentID, periodKey))
}

func (r *repo) ListByResident(ctx context.Context, db *gorm.DB, residentID snowflake.ID) ([]*domain.Invoice, error) {
	var items []*domain.Invoice
	err := db.WithContext(ctx).
		Where("resident_id = ?", residentID).
		Order("period_key DESC").
		Find(&items).Error
	return items, err
}

func (r *repo) ListByStatus(ctx context.Context, db *gorm.DB, status domain.InvoiceStatus) ([]*domain.Invoice, error) {
	var items []*domain.Invoice
	err := db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	return items, err
}

func (r *repo) ListOverdue(ctx context.Context, db *gorm.DB, now time.Time) ([]*domain.Invoice, error) {
	var items []*domain.Invoice
	err := db.WithContext(ctx).
		Where("status = ? AND due_at < ?", domain.InvoiceStatusPending, now).
		Order("due_at ASC, id ASC").
		Find(&items).Error
	return items, err
}

func (r *repo) MarkPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, ref domain.PaymentReference) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET status = ?, payment_method = ?, transaction_id = ?, paid_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.InvoiceStatusPaid,
		ref.Method,
		ref.TransactionID,
		ref.PaidAt,
		ref.PaidAt,
		id,
		domain.InvoiceStatusPending,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func first(stmt *gorm.DB) (*domain.Invoice, error) {
	var inv domain.Invoice
	if err := stmt.First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}
