package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	customerserrors "tablebook/internal/customers/errors"
	"tablebook/pkg/config"
	"tablebook/pkg/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

func newTestRepo(t *testing.T) (CustomerRepository, *sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	cfg := &config.Config{ReadTimeout: time.Second, WriteTimeout: time.Second}
	return NewPostgresCustomerRepository(cfg), sqlx.NewDb(conn, "sqlmock"), mock
}

func TestCreate(t *testing.T) {
	repo, db, mock := newTestRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO customers (name, email) VALUES ($1, $2) RETURNING id`)).
		WithArgs("Ada", "ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	c := &model.Customer{Name: "Ada", Email: "ada@example.com"}
	if err := repo.Create(context.Background(), db, c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID != 11 {
		t.Errorf("expected id 11, got %d", c.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, db, mock := newTestRepo(t)
	mock.ExpectQuery("INSERT INTO customers").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_customers_email"})

	err := repo.Create(context.Background(), db, &model.Customer{Name: "Ada", Email: "ada@example.com"})
	if !errors.Is(err, customerserrors.ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestFindByID(t *testing.T) {
	repo, db, mock := newTestRepo(t)
	mock.ExpectQuery("SELECT id, name, email FROM customers WHERE id").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).AddRow(3, "Ada", "ada@example.com"))
	mock.ExpectQuery("FROM reservations r\\s+JOIN locations l").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "party_name", "party_size", "reservation_date", "customer_id", "location_id",
			"location_name", "location_max_party_size",
		}).AddRow(8, "Birthday", 4, time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC), 3, 2, "Rooftop", 10))

	c, err := repo.FindByID(context.Background(), db, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Name != "Ada" || len(c.Reservations) != 1 {
		t.Fatalf("unexpected customer %+v", c)
	}
	res := c.Reservations[0]
	if res.Location == nil || res.Location.Name != "Rooftop" || res.Location.MaxPartySize != 10 {
		t.Errorf("expected nested location, got %+v", res.Location)
	}
	if res.ReservationDate.String() != "2026-03-14" {
		t.Errorf("unexpected date %s", res.ReservationDate)
	}
}

func TestFindByID_NotFound(t *testing.T) {
	repo, db, mock := newTestRepo(t)
	mock.ExpectQuery("SELECT id, name, email FROM customers WHERE id").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}))

	_, err := repo.FindByID(context.Background(), db, 99)
	if !errors.Is(err, customerserrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFindAll(t *testing.T) {
	repo, db, mock := newTestRepo(t)
	mock.ExpectQuery("SELECT id, name, email FROM customers ORDER BY id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).
			AddRow(1, "Ada", "ada@example.com").
			AddRow(2, "Grace", "grace@example.com"))

	customers, err := repo.FindAll(context.Background(), db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(customers) != 2 || customers[1].Email != "grace@example.com" {
		t.Errorf("unexpected customers %+v", customers)
	}
}

func TestFindAll_Empty(t *testing.T) {
	repo, db, mock := newTestRepo(t)
	mock.ExpectQuery("FROM customers").WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}))

	customers, err := repo.FindAll(context.Background(), db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if customers == nil || len(customers) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", customers)
	}
}

func TestExistsByEmail(t *testing.T) {
	repo, db, mock := newTestRepo(t)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByEmail(context.Background(), db, "ada@example.com")
	if err != nil || !exists {
		t.Errorf("expected exists, got %v %v", exists, err)
	}
}
