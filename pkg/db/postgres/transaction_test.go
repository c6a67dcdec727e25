package postgres

import (
	"context"
	"errors"
	"testing"

	apperrors "tablebook/pkg/errors"
	"tablebook/pkg/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

var _ txBeginner = (*sqlx.DB)(nil)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return New(sqlx.NewDb(conn, "sqlmock"), logger.Discard()), mock
}

func TestExecuteTransaction_Commit(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM reservations").WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewTransactionManager(db).ExecuteTransaction(context.Background(), func(ctx context.Context, q Querier) error {
		_, err := q.ExecContext(ctx, "DELETE FROM reservations WHERE id = $1", 1)
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestExecuteTransaction_RollbackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	cause := errors.New("insert failed")
	err := NewTransactionManager(db).ExecuteTransaction(context.Background(), func(ctx context.Context, q Querier) error {
		return cause
	})
	if !errors.Is(err, cause) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestExecuteTransaction_AppErrorUnwrapped(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	appErr := apperrors.NotFound("Reservation")
	err := NewTransactionManager(db).ExecuteTransaction(context.Background(), func(ctx context.Context, q Querier) error {
		return appErr
	})
	if err != appErr {
		t.Errorf("expected AppError returned as is, got %v", err)
	}
}

func TestExecuteTransaction_CommitFailure(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("connection lost"))

	err := NewTransactionManager(db).ExecuteTransaction(context.Background(), func(ctx context.Context, q Querier) error {
		return nil
	})
	if err == nil {
		t.Fatal("expected commit error")
	}
}

func TestExecuteTransaction_BeginFailure(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	called := false
	err := NewTransactionManager(db).ExecuteTransaction(context.Background(), func(ctx context.Context, q Querier) error {
		called = true
		return nil
	})
	if err == nil || called {
		t.Errorf("expected begin error without running fn, got err=%v called=%v", err, called)
	}
}

func TestEnsureSchema(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS customers").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
