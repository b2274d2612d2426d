package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/wastebill/internal/resident/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("resident.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Resident, error) {
	firstName := strings.TrimSpace(req.FirstName)
	if firstName == "" {
		return nil, domain.ErrInvalidName
	}
	locality := domain.NormalizeLocality(req.LocalityCode)
	if locality == "" {
		return nil, domain.ErrInvalidLocality
	}

	now := time.Now().UTC()
	resident := &domain.Resident{
		ID:           s.genID.Generate(),
		FirstName:    firstName,
		LastName:     strings.TrimSpace(req.LastName),
		Email:        strings.TrimSpace(req.Email),
		Phone:        strings.TrimSpace(req.Phone),
		Address:      strings.TrimSpace(req.Address),
		City:         strings.TrimSpace(req.City),
		LocalityCode: locality,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, s.db, resident); err != nil {
		return nil, err
	}
	s.log.Info("resident created",
		zap.String("resident_id", resident.ID.String()),
		zap.String("locality_code", locality))
	return resident, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Resident, error) {
	resident, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if resident == nil {
		return nil, domain.ErrResidentNotFound
	}
	return resident, nil
}

func (s *Service) UpdateLocality(ctx context.Context, id snowflake.ID, locality string) (*domain.Resident, error) {
	locality = domain.NormalizeLocality(locality)
	if locality == "" {
		return nil, domain.ErrInvalidLocality
	}
	ok, err := s.repo.UpdateLocality(ctx, s.db, id, locality)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrResidentNotFound
	}
	return s.Get(ctx, id)
}
