package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/railzwaylabs/wastebill/internal/charge"
	"github.com/railzwaylabs/wastebill/internal/clock"
	collectiondomain "github.com/railzwaylabs/wastebill/internal/collection/domain"
	"github.com/railzwaylabs/wastebill/internal/config"
	"github.com/railzwaylabs/wastebill/internal/events"
	"github.com/railzwaylabs/wastebill/internal/invoice/domain"
	"github.com/railzwaylabs/wastebill/internal/observability"
	"github.com/railzwaylabs/wastebill/internal/redis"
	residentdomain "github.com/railzwaylabs/wastebill/internal/resident/domain"
	"github.com/railzwaylabs/wastebill/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Cfg       config.Config
	Repo      domain.Repository
	Residents residentdomain.Repository
	Events    collectiondomain.Repository
	Outbox    *events.Outbox
	Locker    redis.Locker
	Metrics   *observability.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	dueDays   int
	repo      domain.Repository
	residents residentdomain.Repository
	events    collectiondomain.Repository
	outbox    *events.Outbox
	locker    redis.Locker
	metrics   *observability.Metrics
}

func New(p Params) domain.Service {
	locker := p.Locker
	if locker == nil {
		locker = redis.NopLocker{}
	}
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("invoice.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		dueDays:   p.Cfg.Billing.DueDays,
		repo:      p.Repo,
		residents: p.Residents,
		events:    p.Events,
		outbox:    p.Outbox,
		locker:    locker,
		metrics:   p.Metrics,
	}
}

// GenerateMonthlyInvoice bills the resident for the calendar month before now.
// Every unbilled event the resident has is absorbed, including events recorded
// after the period closed.
func (s *Service) GenerateMonthlyInvoice(ctx context.Context, residentID snowflake.ID) (*domain.Invoice, error) {
	now := s.clock.Now(ctx)
	period := domain.PreviousMonth(now)

	unlock, err := s.locker.TryLock(ctx, fmt.Sprintf("invoice:%s:%s", residentID, period.Key()))
	if err != nil {
		if errors.Is(err, redis.ErrNotAcquired) {
			s.metrics.ObserveInvoice("locked")
			return nil, domain.ErrLockNotAcquired
		}
		return nil, err
	}
	defer unlock()

	var invoice *domain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		resident, err := s.residents.FindByID(ctx, tx, residentID)
		if err != nil {
			return err
		}
		if resident == nil {
			return residentdomain.ErrResidentNotFound
		}

		existing, err := s.repo.FindByResidentPeriod(ctx, tx, residentID, period.Key())
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicatePeriod
		}

		unbilled, err := s.events.ListUnbilled(ctx, tx, residentID)
		if err != nil {
			return err
		}
		if unbilled.Empty() {
			return domain.ErrNothingToInvoice
		}

		totalCharges := unbilled.TotalCharges()
		totalCredits := unbilled.TotalCredits()
		invoice = &domain.Invoice{
			ID:            s.genID.Generate(),
			InvoiceNumber: newInvoiceNumber(now),
			ResidentID:    residentID,
			PeriodKey:     period.Key(),
			PeriodStart:   period.Start,
			PeriodEnd:     period.End,
			TotalCharges:  totalCharges,
			TotalCredits:  totalCredits,
			FinalAmount:   charge.Net(totalCharges, totalCredits),
			Status:        domain.InvoiceStatusPending,
			DueAt:         period.End.AddDate(0, 0, s.dueDays),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.repo.Insert(ctx, tx, invoice); err != nil {
			if db.IsUniqueViolation(err) {
				return domain.ErrDuplicatePeriod
			}
			return err
		}

		if err := s.claim(ctx, tx, unbilled, invoice.ID); err != nil {
			return err
		}

		return s.outbox.Append(ctx, tx, events.EventInvoiceCreated, invoice.ID, map[string]any{
			"invoice_id":     invoice.ID.String(),
			"invoice_number": invoice.InvoiceNumber,
			"resident_id":    residentID.String(),
			"period":         invoice.PeriodKey,
			"final_amount":   invoice.FinalAmount.StringFixed(2),
		})
	})
	if err != nil {
		s.observeFailure(residentID, period, err)
		return nil, err
	}

	s.metrics.ObserveInvoice("created")
	s.log.Info("invoice generated",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("resident_id", residentID.String()),
		zap.String("period", invoice.PeriodKey),
		zap.String("final_amount", invoice.FinalAmount.String()),
	)
	return invoice, nil
}

func (s *Service) claim(ctx context.Context, tx *gorm.DB, unbilled collectiondomain.Unbilled, invoiceID snowflake.ID) error {
	if ids := unbilled.CollectionIDs(); len(ids) > 0 {
		n, err := s.events.ClaimCollections(ctx, tx, ids, invoiceID)
		if err != nil {
			return err
		}
		if n != int64(len(ids)) {
			return domain.ErrClaimConflict
		}
	}
	if ids := unbilled.RecyclingIDs(); len(ids) > 0 {
		n, err := s.events.ClaimRecycling(ctx, tx, ids, invoiceID)
		if err != nil {
			return err
		}
		if n != int64(len(ids)) {
			return domain.ErrClaimConflict
		}
	}
	return nil
}

func (s *Service) observeFailure(residentID snowflake.ID, period domain.Period, err error) {
	fields := []zap.Field{
		zap.String("resident_id", residentID.String()),
		zap.String("period", period.Key()),
	}
	switch {
	case errors.Is(err, domain.ErrDuplicatePeriod):
		s.metrics.ObserveInvoice("duplicate")
		s.log.Debug("invoice already exists for period", fields...)
	case errors.Is(err, domain.ErrNothingToInvoice):
		s.metrics.ObserveInvoice("empty")
		s.log.Debug("no unbilled activity", fields...)
	case errors.Is(err, residentdomain.ErrResidentNotFound):
		s.metrics.ObserveInvoice("unknown_resident")
	default:
		s.metrics.ObserveInvoice("error")
		s.log.Error("invoice generation failed", append(fields, zap.Error(err))...)
	}
}

// GenerateForAll runs GenerateMonthlyInvoice for every resident. Expected outcomes
// (already invoiced, nothing to bill, locked elsewhere) are reported as skipped.
func (s *Service) GenerateForAll(ctx context.Context) (domain.BatchResult, error) {
	result := domain.BatchResult{
		PeriodKey: domain.PreviousMonth(s.clock.Now(ctx)).Key(),
		Created:   []snowflake.ID{},
		Skipped:   map[snowflake.ID]string{},
		Failed:    map[snowflake.ID]string{},
	}

	ids, err := s.residents.ListIDs(ctx, s.db)
	if err != nil {
		return result, err
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		invoice, err := s.GenerateMonthlyInvoice(ctx, id)
		switch {
		case err == nil:
			result.Created = append(result.Created, invoice.ID)
		case errors.Is(err, domain.ErrDuplicatePeriod),
			errors.Is(err, domain.ErrNothingToInvoice),
			errors.Is(err, domain.ErrLockNotAcquired):
			result.Skipped[id] = err.Error()
		default:
			result.Failed[id] = err.Error()
		}
	}

	s.log.Info("invoice batch finished",
		zap.String("period", result.PeriodKey),
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("failed", len(result.Failed)),
	)
	return result, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, domain.ErrInvoiceNotFound
	}
	return invoice, nil
}

func (s *Service) GetByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	invoice, err := s.repo.FindByNumber(ctx, s.db, number)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, domain.ErrInvoiceNotFound
	}
	return invoice, nil
}

func (s *Service) ListByResident(ctx context.Context, residentID snowflake.ID) ([]*domain.Invoice, error) {
	return s.repo.ListByResident(ctx, s.db, residentID)
}

func (s *Service) ListByStatus(ctx context.Context, status domain.InvoiceStatus) ([]*domain.Invoice, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}
	return s.repo.ListByStatus(ctx, s.db, status)
}

func (s *Service) ListOverdue(ctx context.Context) ([]*domain.Invoice, error) {
	return s.repo.ListOverdue(ctx, s.db, s.clock.Now(ctx))
}

// newInvoiceNumber yields INV-YYYYMM-<ULID>; the ULID carries the generation instant.
func newInvoiceNumber(now time.Time) string {
	id := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy())
	return fmt.Sprintf("INV-%s-%s", now.Format("200601"), id.String())
}
