package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	billingmodeldomain "github.com/railzwaylabs/wastebill/internal/billingmodel/domain"
	"github.com/railzwaylabs/wastebill/internal/charge"
	"github.com/railzwaylabs/wastebill/internal/clock"
	"github.com/railzwaylabs/wastebill/internal/collection/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Resolver billingmodeldomain.Resolver
}

// Service records activity produced by the collection crews, priced at write time
// under the billing model in effect for the resident.
type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	resolver billingmodeldomain.Resolver
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("collection.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		resolver: p.Resolver,
	}
}

func (s *Service) RecordCollection(ctx context.Context, input domain.RecordCollectionInput) (*domain.CollectionEvent, error) {
	if input.BinID == 0 {
		return nil, domain.ErrInvalidBin
	}
	if err := charge.Validate(input.WeightKg); err != nil {
		return nil, err
	}

	model, err := s.resolver.Resolve(ctx, input.ResidentID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now(ctx)
	ev := &domain.CollectionEvent{
		ID:             s.genID.Generate(),
		ResidentID:     input.ResidentID,
		BinID:          input.BinID,
		CollectorID:    input.CollectorID,
		BillingModelID: model.ID,
		CollectedAt:    orNow(input.CollectedAt, now),
		WeightKg:       input.WeightKg,
		Charge:         charge.Charge(model.Pricing, input.WeightKg),
		CreatedAt:      now,
	}
	if err := s.repo.InsertCollection(ctx, s.db, ev); err != nil {
		return nil, err
	}

	s.log.Debug("collection recorded",
		zap.String("event_id", ev.ID.String()),
		zap.String("resident_id", ev.ResidentID.String()),
		zap.String("charge", ev.Charge.String()))
	return ev, nil
}

func (s *Service) RecordRecycling(ctx context.Context, input domain.RecordRecyclingInput) (*domain.RecyclingEvent, error) {
	category := billingmodeldomain.NormalizeCategory(input.Category)
	if category == "" {
		return nil, domain.ErrInvalidCategory
	}
	if err := charge.Validate(input.WeightKg); err != nil {
		return nil, err
	}

	model, err := s.resolver.Resolve(ctx, input.ResidentID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now(ctx)
	ev := &domain.RecyclingEvent{
		ID:             s.genID.Generate(),
		ResidentID:     input.ResidentID,
		BillingModelID: model.ID,
		Category:       category,
		RecordedAt:     orNow(input.RecordedAt, now),
		WeightKg:       input.WeightKg,
		Payback:        charge.Payback(model.PaybackRates, category, input.WeightKg),
		CreatedAt:      now,
	}
	if err := s.repo.InsertRecycling(ctx, s.db, ev); err != nil {
		return nil, err
	}

	s.log.Debug("recycling recorded",
		zap.String("event_id", ev.ID.String()),
		zap.String("resident_id", ev.ResidentID.String()),
		zap.String("category", string(category)),
		zap.String("payback", ev.Payback.String()))
	return ev, nil
}

func (s *Service) ListUnbilled(ctx context.Context, residentID snowflake.ID) (domain.Unbilled, error) {
	return s.repo.ListUnbilled(ctx, s.db, residentID)
}

func orNow(t, now time.Time) time.Time {
	if t.IsZero() {
		return now
	}
	return t.UTC()
}
