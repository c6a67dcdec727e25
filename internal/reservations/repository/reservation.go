package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	reservationserrors "tablebook/internal/reservations/errors"
	"tablebook/pkg/config"
	"tablebook/pkg/db/postgres"
	"tablebook/pkg/model"
)

const (
	constraintCustomerFK = "fk_reservations_customer_id_customers"
	constraintLocationFK = "fk_reservations_location_id_locations"
)

type ReservationRepository interface {
	Create(ctx context.Context, q postgres.Querier, reservation *model.Reservation) error
	FindByID(ctx context.Context, q postgres.Querier, id int64) (*model.Reservation, error)
	FindAll(ctx context.Context, q postgres.Querier) ([]*model.Reservation, error)
	Update(ctx context.Context, q postgres.Querier, reservation *model.Reservation) error
	Delete(ctx context.Context, q postgres.Querier, id int64) error
}

type postgresReservationRepository struct {
	cfg *config.Config
}

func NewPostgresReservationRepository(cfg *config.Config) ReservationRepository {
	return &postgresReservationRepository{cfg: cfg}
}

const selectReservations = `
	SELECT
		r.id,
		r.party_name,
		r.party_size,
		r.reservation_date,
		r.customer_id,
		r.location_id,
		c.name AS customer_name,
		c.email AS customer_email,
		l.name AS location_name,
		l.max_party_size AS location_max_party_size
	FROM reservations r
	JOIN customers c ON c.id = r.customer_id
	JOIN locations l ON l.id = r.location_id
`

type reservationRow struct {
	ID                   int64     `db:"id"`
	PartyName            string    `db:"party_name"`
	PartySize            int       `db:"party_size"`
	ReservationDate      time.Time `db:"reservation_date"`
	CustomerID           int64     `db:"customer_id"`
	LocationID           int64     `db:"location_id"`
	CustomerName         string    `db:"customer_name"`
	CustomerEmail        string    `db:"customer_email"`
	LocationName         string    `db:"location_name"`
	LocationMaxPartySize int       `db:"location_max_party_size"`
}

func (row reservationRow) toModel() *model.Reservation {
	return &model.Reservation{
		ID:              row.ID,
		PartyName:       row.PartyName,
		PartySize:       row.PartySize,
		ReservationDate: model.DateOf(row.ReservationDate),
		CustomerID:      row.CustomerID,
		LocationID:      row.LocationID,
		Customer: &model.Customer{
			ID:    row.CustomerID,
			Name:  row.CustomerName,
			Email: row.CustomerEmail,
		},
		Location: &model.Location{
			ID:           row.LocationID,
			Name:         row.LocationName,
			MaxPartySize: row.LocationMaxPartySize,
		},
	}
}

// classifyWriteError maps foreign key violations onto the missing side of the reservation.
func classifyWriteError(op string, err error) error {
	if postgres.IsForeignKeyViolation(err) {
		switch postgres.ConstraintName(err) {
		case constraintCustomerFK:
			return fmt.Errorf("%w: %w", reservationserrors.ErrCustomerNotFound, err)
		case constraintLocationFK:
			return fmt.Errorf("%w: %w", reservationserrors.ErrLocationNotFound, err)
		}
	}
	return fmt.Errorf("failed to %s reservation: %w", op, err)
}

func (r *postgresReservationRepository) Create(ctx context.Context, q postgres.Querier, reservation *model.Reservation) error {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	const query = `
		INSERT INTO reservations (party_name, party_size, reservation_date, customer_id, location_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := q.QueryRowxContext(ctx, query,
		reservation.PartyName,
		reservation.PartySize,
		reservation.ReservationDate.Time(),
		reservation.CustomerID,
		reservation.LocationID,
	).Scan(&reservation.ID)
	if err != nil {
		return classifyWriteError("insert", err)
	}
	return nil
}

func (r *postgresReservationRepository) FindByID(ctx context.Context, q postgres.Querier, id int64) (*model.Reservation, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var row reservationRow
	if err := q.GetContext(ctx, &row, selectReservations+` WHERE r.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, reservationserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reservation %d: %w", id, err)
	}
	return row.toModel(), nil
}

func (r *postgresReservationRepository) FindAll(ctx context.Context, q postgres.Querier) ([]*model.Reservation, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var rows []reservationRow
	if err := q.SelectContext(ctx, &rows, selectReservations+` ORDER BY r.id ASC`); err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}

	reservations := make([]*model.Reservation, 0, len(rows))
	for _, row := range rows {
		reservations = append(reservations, row.toModel())
	}
	return reservations, nil
}

func (r *postgresReservationRepository) Update(ctx context.Context, q postgres.Querier, reservation *model.Reservation) error {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	const query = `
		UPDATE reservations
		SET party_name = $1, party_size = $2, reservation_date = $3, customer_id = $4, location_id = $5
		WHERE id = $6
	`
	result, err := q.ExecContext(ctx, query,
		reservation.PartyName,
		reservation.PartySize,
		reservation.ReservationDate.Time(),
		reservation.CustomerID,
		reservation.LocationID,
		reservation.ID,
	)
	if err != nil {
		return classifyWriteError("update", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return reservationserrors.ErrNotFound
	}
	return nil
}

func (r *postgresReservationRepository) Delete(ctx context.Context, q postgres.Querier, id int64) error {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := q.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reservation %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return reservationserrors.ErrNotFound
	}
	return nil
}
