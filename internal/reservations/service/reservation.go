package service

import (
	"context"
	"encoding/json"
	"errors"

	"tablebook/internal/reservations/events"
	reservationserrors "tablebook/internal/reservations/errors"
	"tablebook/internal/reservations/repository"
	"tablebook/pkg/config"
	"tablebook/pkg/db/postgres"
	apperrors "tablebook/pkg/errors"
	"tablebook/pkg/model"
)

type ReservationService interface {
	Create(ctx context.Context, input model.ReservationInput) (*model.Reservation, error)
	GetByID(ctx context.Context, id int64) (*model.Reservation, error)
	GetAll(ctx context.Context) ([]*model.Reservation, error)
	Update(ctx context.Context, id int64, patch map[string]json.RawMessage) (*model.Reservation, error)
	Delete(ctx context.Context, id int64) error
}

type reservationService struct {
	repo      repository.ReservationRepository
	db        postgres.Querier
	txManager postgres.TransactionManager
	publisher events.Publisher
	cfg       *config.Config
}

func NewReservationService(
	repo repository.ReservationRepository,
	db postgres.Querier,
	txManager postgres.TransactionManager,
	publisher events.Publisher,
	cfg *config.Config,
) ReservationService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &reservationService{
		repo:      repo,
		db:        db,
		txManager: txManager,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *reservationService) Create(ctx context.Context, input model.ReservationInput) (*model.Reservation, error) {
	reservation, err := model.NewReservation(input)
	if err != nil {
		s.cfg.Log.Warn("Reservation validation failed", "error", err)
		return nil, apperrors.Validation(err.Error(), err)
	}

	var created *model.Reservation
	err = s.txManager.ExecuteTransaction(ctx, func(ctx context.Context, q postgres.Querier) error {
		if err := s.repo.Create(ctx, q, reservation); err != nil {
			return mapWriteError("Failed to create reservation", err)
		}

		loaded, err := s.repo.FindByID(ctx, q, reservation.ID)
		if err != nil {
			return apperrors.Internal("Failed to create reservation", err)
		}
		created = loaded
		return nil
	})
	if err != nil {
		s.logFailure("Failed to create reservation", 0, err)
		return nil, err
	}

	s.cfg.Log.Info("Reservation created successfully", "id", created.ID)
	s.publish(ctx, events.TypeCreated, created)
	return created, nil
}

func (s *reservationService) GetByID(ctx context.Context, id int64) (*model.Reservation, error) {
	reservation, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reservation", id)
		}
		s.cfg.Log.Error("Failed to retrieve reservation", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve reservation", err)
	}
	return reservation, nil
}

func (s *reservationService) GetAll(ctx context.Context) ([]*model.Reservation, error) {
	reservations, err := s.repo.FindAll(ctx, s.db)
	if err != nil {
		s.cfg.Log.Error("Failed to list reservations", "error", err)
		return nil, apperrors.Internal("Failed to retrieve reservations", err)
	}
	return reservations, nil
}

// Update applies patch to the stored reservation. An empty patch returns the record unchanged.
func (s *reservationService) Update(ctx context.Context, id int64, patch map[string]json.RawMessage) (*model.Reservation, error) {
	var (
		updated *model.Reservation
		changed bool
	)
	err := s.txManager.ExecuteTransaction(ctx, func(ctx context.Context, q postgres.Querier) error {
		current, err := s.repo.FindByID(ctx, q, id)
		if err != nil {
			if errors.Is(err, reservationserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Reservation", id)
			}
			return apperrors.Internal("Failed to update reservation", err)
		}

		if len(patch) == 0 {
			updated = current
			return nil
		}

		if err := current.ApplyPatch(patch); err != nil {
			return mapPatchError(err)
		}

		if err := s.repo.Update(ctx, q, current); err != nil {
			if errors.Is(err, reservationserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Reservation", id)
			}
			return mapWriteError("Failed to update reservation", err)
		}

		updated, err = s.repo.FindByID(ctx, q, id)
		if err != nil {
			return apperrors.Internal("Failed to update reservation", err)
		}
		changed = true
		return nil
	})
	if err != nil {
		s.logFailure("Failed to update reservation", id, err)
		return nil, err
	}

	if changed {
		s.cfg.Log.Info("Reservation updated successfully", "id", id)
		s.publish(ctx, events.TypeUpdated, updated)
	}
	return updated, nil
}

func (s *reservationService) Delete(ctx context.Context, id int64) error {
	var deleted *model.Reservation
	err := s.txManager.ExecuteTransaction(ctx, func(ctx context.Context, q postgres.Querier) error {
		var err error
		deleted, err = s.repo.FindByID(ctx, q, id)
		if err != nil {
			if errors.Is(err, reservationserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Reservation", id)
			}
			return apperrors.Internal("Failed to delete reservation", err)
		}

		if err := s.repo.Delete(ctx, q, id); err != nil {
			if errors.Is(err, reservationserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Reservation", id)
			}
			return apperrors.Internal("Failed to delete reservation", err)
		}
		return nil
	})
	if err != nil {
		s.logFailure("Failed to delete reservation", id, err)
		return err
	}

	s.cfg.Log.Info("Reservation deleted successfully", "id", id)
	s.publish(ctx, events.TypeDeleted, deleted)
	return nil
}

// publish runs after commit. A failed publish is logged and never fails the request.
func (s *reservationService) publish(ctx context.Context, eventType string, reservation *model.Reservation) {
	if err := s.publisher.Publish(ctx, events.NewEvent(eventType, reservation)); err != nil {
		s.cfg.Log.Error("Failed to publish reservation event",
			"event_type", eventType,
			"id", reservation.ID,
			"error", err,
		)
	}
}

func (s *reservationService) logFailure(msg string, id int64, err error) {
	if apperrors.HasCode(err, apperrors.CodeInternal) {
		s.cfg.Log.Error(msg, "id", id, "error", err)
		return
	}
	s.cfg.Log.Warn("Reservation rejected", "id", id, "error", err)
}

func mapPatchError(err error) error {
	var inputErr *model.InputError
	if errors.As(err, &inputErr) {
		return apperrors.InvalidInput(inputErr.Message)
	}
	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		return apperrors.Validation(validationErr.Message, err)
	}
	return apperrors.Internal("Failed to update reservation", err)
}

func mapWriteError(msg string, err error) error {
	switch {
	case errors.Is(err, reservationserrors.ErrCustomerNotFound):
		return apperrors.Integrity("customer_id does not reference an existing customer", err)
	case errors.Is(err, reservationserrors.ErrLocationNotFound):
		return apperrors.Integrity("location_id does not reference an existing location", err)
	case postgres.IsIntegrityViolation(err):
		return apperrors.Integrity("reservation violates a data integrity constraint", err)
	}
	return apperrors.Internal(msg, err)
}
