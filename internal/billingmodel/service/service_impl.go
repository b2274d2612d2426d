package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/wastebill/internal/billingmodel/domain"
	residentdomain "github.com/railzwaylabs/wastebill/internal/resident/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Repo         domain.Repository
	ResidentRepo residentdomain.Repository
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	repo         domain.Repository
	residentRepo residentdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("billingmodel.service"),
		genID:        p.GenID,
		repo:         p.Repo,
		residentRepo: p.ResidentRepo,
	}
}

// NewResolver exposes the read path on its own for consumers that only price activity.
func NewResolver(svc domain.Service) domain.Resolver {
	return svc
}

// Resolve returns the active model for the resident's locality. When the locality
// has none, any other active model is used and the fallback is logged; with no active
// model at all it fails with ErrNoActiveBillingModel.
func (s *Service) Resolve(ctx context.Context, residentID snowflake.ID) (*domain.BillingModel, error) {
	resident, err := s.residentRepo.FindByID(ctx, s.db, residentID)
	if err != nil {
		return nil, err
	}
	if resident == nil {
		return nil, residentdomain.ErrResidentNotFound
	}

	locality := residentdomain.NormalizeLocality(resident.LocalityCode)
	if locality != "" {
		model, err := s.repo.FindActiveByLocality(ctx, s.db, locality)
		if err != nil {
			return nil, err
		}
		if model != nil {
			return model, nil
		}
	}

	model, err := s.repo.FindAnyActive(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if model == nil {
		s.log.Error("no active billing model configured",
			zap.String("resident_id", residentID.String()),
			zap.String("locality_code", locality))
		return nil, domain.ErrNoActiveBillingModel
	}

	s.log.Warn("billing model fallback: locality has no active model",
		zap.String("resident_id", residentID.String()),
		zap.String("locality_code", locality),
		zap.String("fallback_model_id", model.ID.String()),
		zap.String("fallback_locality_code", model.LocalityCode))
	return model, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.BillingModel, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	locality := residentdomain.NormalizeLocality(req.LocalityCode)
	if locality == "" {
		return nil, domain.ErrInvalidLocality
	}
	if err := domain.ValidatePricing(req.Pricing); err != nil {
		return nil, err
	}
	rates, err := normalizeRates(req.PaybackRates)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	model := &domain.BillingModel{
		ID:           s.genID.Generate(),
		Name:         name,
		LocalityCode: locality,
		Pricing:      req.Pricing,
		PaybackRates: rates,
		Active:       req.Active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if model.Active {
			if _, err := s.repo.DeactivateLocality(ctx, tx, locality, model.ID); err != nil {
				return err
			}
		}
		return s.repo.Insert(ctx, tx, model)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("billing model created",
		zap.String("billing_model_id", model.ID.String()),
		zap.String("locality_code", locality),
		zap.String("pricing_kind", string(model.Pricing.Kind())),
		zap.Bool("active", model.Active))
	return model, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.BillingModel, error) {
	model, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if model == nil {
		return nil, domain.ErrBillingModelNotFound
	}
	return model, nil
}

func (s *Service) List(ctx context.Context) ([]*domain.BillingModel, error) {
	return s.repo.List(ctx, s.db)
}

// Activate makes id the single active model of its locality.
func (s *Service) Activate(ctx context.Context, id snowflake.ID) (*domain.BillingModel, error) {
	var out *domain.BillingModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if model == nil {
			return domain.ErrBillingModelNotFound
		}
		replaced, err := s.repo.DeactivateLocality(ctx, tx, model.LocalityCode, model.ID)
		if err != nil {
			return err
		}
		if err := s.repo.SetActive(ctx, tx, model.ID, true); err != nil {
			return err
		}
		if replaced > 0 {
			s.log.Info("billing model replaced active model",
				zap.String("billing_model_id", model.ID.String()),
				zap.String("locality_code", model.LocalityCode),
				zap.Int64("deactivated", replaced))
		}
		model.Active = true
		out = model
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Deactivate(ctx context.Context, id snowflake.ID) (*domain.BillingModel, error) {
	model, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, s.db, id, false); err != nil {
		return nil, err
	}
	model.Active = false
	return model, nil
}

func normalizeRates(in domain.PaybackRates) (domain.PaybackRates, error) {
	out := make(domain.PaybackRates, len(in))
	for category, rate := range in {
		key := domain.NormalizeCategory(string(category))
		if key == "" || rate.IsNegative() {
			return nil, domain.ErrInvalidPaybackRate
		}
		out[key] = rate
	}
	return out, nil
}
