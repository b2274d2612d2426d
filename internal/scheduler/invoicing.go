package scheduler

import (
	"context"

	invoicedomain "github.com/railzwaylabs/wastebill/internal/invoice/domain"
	"go.uber.org/zap"
)

// MonthlyInvoicingJob bills the previous month for every resident once the
// configured day of the month has been reached. It runs at most once per period
// per process; residents already billed by another process are skipped by the
// generator.
func (s *Scheduler) MonthlyInvoicingJob(ctx context.Context) error {
	if s.cfg.InvoiceDay <= 0 {
		return nil
	}
	now := s.clock.Now(ctx)
	if now.Day() < s.cfg.InvoiceDay {
		return nil
	}
	period := invoicedomain.PreviousMonth(now).Key()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastBilledPeriod == period {
		return nil
	}

	s.log.Info("monthly invoicing started", zap.String("period", period))
	result, err := s.invoices.GenerateForAll(ctx)
	if err != nil {
		return err
	}
	s.lastBilledPeriod = result.PeriodKey

	s.log.Info("monthly invoicing completed",
		zap.String("period", result.PeriodKey),
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("failed", len(result.Failed)))
	return nil
}
