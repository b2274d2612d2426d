package scheduler

import (
	"context"

	paymentdomain "github.com/railzwaylabs/wastebill/internal/payment/domain"
	"go.uber.org/zap"
)

// CleanupNotificationsJob prunes the gateway notification log. Payments and
// invoices are never touched.
func (s *Scheduler) CleanupNotificationsJob(ctx context.Context) error {
	retentionDays := s.cfg.RetentionDays
	if retentionDays <= 0 {
		return nil
	}

	cutoff := s.clock.Now(ctx).AddDate(0, 0, -retentionDays)
	result := s.db.WithContext(ctx).
		Where("received_at < ?", cutoff).
		Delete(&paymentdomain.NotificationRecord{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected > 0 {
		s.log.Info("payment notifications pruned",
			zap.Time("cutoff", cutoff),
			zap.Int64("deleted", result.RowsAffected))
	}
	return nil
}
