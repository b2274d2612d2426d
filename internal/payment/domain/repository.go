package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertPayment(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByInvoiceID(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) (*Payment, error)
	InsertNotification(ctx context.Context, db *gorm.DB, record *NotificationRecord) error
	ListNotifications(ctx context.Context, db *gorm.DB, orderID string) ([]NotificationRecord, error)
}
