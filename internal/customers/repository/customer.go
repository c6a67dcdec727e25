package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	customerserrors "tablebook/internal/customers/errors"
	"tablebook/pkg/config"
	"tablebook/pkg/db/postgres"
	"tablebook/pkg/model"
)

type CustomerRepository interface {
	Create(ctx context.Context, q postgres.Querier, customer *model.Customer) error
	FindByID(ctx context.Context, q postgres.Querier, id int64) (*model.Customer, error)
	FindAll(ctx context.Context, q postgres.Querier) ([]*model.Customer, error)
	ExistsByEmail(ctx context.Context, q postgres.Querier, email string) (bool, error)
}

type postgresCustomerRepository struct {
	cfg *config.Config
}

func NewPostgresCustomerRepository(cfg *config.Config) CustomerRepository {
	return &postgresCustomerRepository{cfg: cfg}
}

type customerReservationRow struct {
	ID                   int64     `db:"id"`
	PartyName            string    `db:"party_name"`
	PartySize            int       `db:"party_size"`
	ReservationDate      time.Time `db:"reservation_date"`
	CustomerID           int64     `db:"customer_id"`
	LocationID           int64     `db:"location_id"`
	LocationName         string    `db:"location_name"`
	LocationMaxPartySize int       `db:"location_max_party_size"`
}

func (row customerReservationRow) toModel() *model.Reservation {
	return &model.Reservation{
		ID:              row.ID,
		PartyName:       row.PartyName,
		PartySize:       row.PartySize,
		ReservationDate: model.DateOf(row.ReservationDate),
		CustomerID:      row.CustomerID,
		LocationID:      row.LocationID,
		Location: &model.Location{
			ID:           row.LocationID,
			Name:         row.LocationName,
			MaxPartySize: row.LocationMaxPartySize,
		},
	}
}

func (r *postgresCustomerRepository) Create(ctx context.Context, q postgres.Querier, customer *model.Customer) error {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	const query = `INSERT INTO customers (name, email) VALUES ($1, $2) RETURNING id`
	if err := q.QueryRowxContext(ctx, query, customer.Name, customer.Email).Scan(&customer.ID); err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %w", customerserrors.ErrEmailTaken, err)
		}
		return fmt.Errorf("failed to insert customer: %w", err)
	}
	return nil
}

func (r *postgresCustomerRepository) FindByID(ctx context.Context, q postgres.Querier, id int64) (*model.Customer, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var customer model.Customer
	err := q.GetContext(ctx, &customer, `SELECT id, name, email FROM customers WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customerserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find customer %d: %w", id, err)
	}

	const reservationsQuery = `
		SELECT
			r.id,
			r.party_name,
			r.party_size,
			r.reservation_date,
			r.customer_id,
			r.location_id,
			l.name AS location_name,
			l.max_party_size AS location_max_party_size
		FROM reservations r
		JOIN locations l ON l.id = r.location_id
		WHERE r.customer_id = $1
		ORDER BY r.id ASC
	`
	var rows []customerReservationRow
	if err := q.SelectContext(ctx, &rows, reservationsQuery, id); err != nil {
		return nil, fmt.Errorf("failed to load reservations for customer %d: %w", id, err)
	}

	customer.Reservations = make([]*model.Reservation, 0, len(rows))
	for _, row := range rows {
		customer.Reservations = append(customer.Reservations, row.toModel())
	}
	return &customer, nil
}

func (r *postgresCustomerRepository) FindAll(ctx context.Context, q postgres.Querier) ([]*model.Customer, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	customers := []*model.Customer{}
	if err := q.SelectContext(ctx, &customers, `SELECT id, name, email FROM customers ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

func (r *postgresCustomerRepository) ExistsByEmail(ctx context.Context, q postgres.Querier, email string) (bool, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var exists bool
	if err := q.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM customers WHERE email = $1)`, email); err != nil {
		return false, fmt.Errorf("failed to check customer email: %w", err)
	}
	return exists, nil
}
