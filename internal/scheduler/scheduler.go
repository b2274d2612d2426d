// Package scheduler runs the periodic billing jobs inside the serve process.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/railzwaylabs/wastebill/internal/clock"
	"github.com/railzwaylabs/wastebill/internal/config"
	invoicedomain "github.com/railzwaylabs/wastebill/internal/invoice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("scheduler",
	fx.Provide(New),
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Cfg      config.Config
	Invoices invoicedomain.Service
}

type Scheduler struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	cfg      config.SchedulerConfig
	invoices invoicedomain.Service

	mu               sync.Mutex
	lastBilledPeriod string
}

func New(p Params) *Scheduler {
	return &Scheduler{
		db:       p.DB,
		log:      p.Log.Named("scheduler"),
		clock:    p.Clock,
		cfg:      p.Cfg.Scheduler,
		invoices: p.Invoices,
	}
}

// RunForever runs every job once per interval until ctx is cancelled.
func (s *Scheduler) RunForever(ctx context.Context) {
	interval := s.cfg.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("scheduler started", zap.Duration("interval", interval))
	for {
		s.RunOnce(ctx)
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) RunOnce(ctx context.Context) {
	if err := s.MonthlyInvoicingJob(ctx); err != nil {
		s.logJobError("monthly_invoicing", err)
	}
	if err := s.CleanupNotificationsJob(ctx); err != nil {
		s.logJobError("cleanup_notifications", err)
	}
}

func (s *Scheduler) logJobError(job string, err error) {
	s.log.Error("scheduler job failed", zap.String("job", job), zap.Error(err))
}
