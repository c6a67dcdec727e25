package service

import (
	"context"

	"tablebook/internal/locations/repository"
	"tablebook/pkg/config"
	"tablebook/pkg/db/postgres"
	apperrors "tablebook/pkg/errors"
	"tablebook/pkg/model"
)

type LocationService interface {
	Create(ctx context.Context, input model.LocationInput) (*model.Location, error)
	GetAll(ctx context.Context) ([]*model.Location, error)
	Count(ctx context.Context) (int64, error)
}

type locationService struct {
	repo      repository.LocationRepository
	db        postgres.Querier
	txManager postgres.TransactionManager
	cfg       *config.Config
}

func NewLocationService(
	repo repository.LocationRepository,
	db postgres.Querier,
	txManager postgres.TransactionManager,
	cfg *config.Config,
) LocationService {
	return &locationService{
		repo:      repo,
		db:        db,
		txManager: txManager,
		cfg:       cfg,
	}
}

func (s *locationService) Create(ctx context.Context, input model.LocationInput) (*model.Location, error) {
	location, err := model.NewLocation(input)
	if err != nil {
		s.cfg.Log.Warn("Location validation failed", "error", err)
		return nil, apperrors.Validation(err.Error(), err)
	}

	err = s.txManager.ExecuteTransaction(ctx, func(ctx context.Context, q postgres.Querier) error {
		if err := s.repo.Create(ctx, q, location); err != nil {
			if postgres.IsIntegrityViolation(err) {
				return apperrors.Integrity("Location violates a storage constraint", err)
			}
			return apperrors.Internal("Failed to create location", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create location", "error", err)
		return nil, err
	}

	location.Reservations = []*model.Reservation{}
	s.cfg.Log.Info("Location created successfully", "id", location.ID, "name", location.Name)
	return location, nil
}

func (s *locationService) GetAll(ctx context.Context) ([]*model.Location, error) {
	locations, err := s.repo.FindAll(ctx, s.db)
	if err != nil {
		s.cfg.Log.Error("Failed to list locations", "error", err)
		return nil, apperrors.Internal("Failed to retrieve locations", err)
	}
	return locations, nil
}

func (s *locationService) Count(ctx context.Context) (int64, error) {
	count, err := s.repo.Count(ctx, s.db)
	if err != nil {
		return 0, apperrors.Internal("Failed to count locations", err)
	}
	return count, nil
}
