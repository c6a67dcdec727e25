package service

import (
	"context"
	"errors"

	customerserrors "tablebook/internal/customers/errors"
	"tablebook/internal/customers/repository"
	"tablebook/pkg/config"
	"tablebook/pkg/db/postgres"
	apperrors "tablebook/pkg/errors"
	"tablebook/pkg/model"
)

type CustomerService interface {
	Create(ctx context.Context, input model.CustomerInput) (*model.Customer, error)
	GetByID(ctx context.Context, id int64) (*model.Customer, error)
	GetAll(ctx context.Context) ([]*model.Customer, error)
}

type customerService struct {
	repo      repository.CustomerRepository
	db        postgres.Querier
	txManager postgres.TransactionManager
	cfg       *config.Config
}

func NewCustomerService(
	repo repository.CustomerRepository,
	db postgres.Querier,
	txManager postgres.TransactionManager,
	cfg *config.Config,
) CustomerService {
	return &customerService{
		repo:      repo,
		db:        db,
		txManager: txManager,
		cfg:       cfg,
	}
}

func (s *customerService) Create(ctx context.Context, input model.CustomerInput) (*model.Customer, error) {
	customer, err := model.NewCustomer(input)
	if err != nil {
		s.cfg.Log.Warn("Customer validation failed", "error", err)
		return nil, apperrors.Validation(err.Error(), err)
	}

	err = s.txManager.ExecuteTransaction(ctx, func(ctx context.Context, q postgres.Querier) error {
		taken, err := s.repo.ExistsByEmail(ctx, q, customer.Email)
		if err != nil {
			return apperrors.Internal("Failed to create customer", err)
		}
		if taken {
			verr := model.ErrEmailTaken()
			return apperrors.Validation(verr.Message, verr)
		}

		if err := s.repo.Create(ctx, q, customer); err != nil {
			if errors.Is(err, customerserrors.ErrEmailTaken) {
				return apperrors.Integrity("email must be unique", err)
			}
			return apperrors.Internal("Failed to create customer", err)
		}
		return nil
	})
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeInternal) {
			s.cfg.Log.Error("Failed to create customer", "error", err)
		} else {
			s.cfg.Log.Warn("Customer rejected", "email", customer.Email, "error", err)
		}
		return nil, err
	}

	customer.Reservations = []*model.Reservation{}
	s.cfg.Log.Info("Customer created successfully", "id", customer.ID)
	return customer, nil
}

func (s *customerService) GetByID(ctx context.Context, id int64) (*model.Customer, error) {
	customer, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, customerserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Customer", id)
		}
		s.cfg.Log.Error("Failed to retrieve customer", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve customer", err)
	}
	return customer, nil
}

func (s *customerService) GetAll(ctx context.Context) ([]*model.Customer, error) {
	customers, err := s.repo.FindAll(ctx, s.db)
	if err != nil {
		s.cfg.Log.Error("Failed to list customers", "error", err)
		return nil, apperrors.Internal("Failed to retrieve customers", err)
	}
	return customers, nil
}
