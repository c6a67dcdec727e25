package postgres

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "tablebook/pkg/errors"
	"tablebook/pkg/logger"

	"github.com/jmoiron/sqlx"
)

// TransactionFunc runs inside a transaction. Returning an error rolls the transaction back.
type TransactionFunc func(ctx context.Context, q Querier) error

type TransactionManager interface {
	ExecuteTransaction(ctx context.Context, fn TransactionFunc) error
}

type txBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type sqlTransactionManager struct {
	db  txBeginner
	log *logger.Logger
}

func NewTransactionManager(db *DB) TransactionManager {
	return &sqlTransactionManager{
		db:  db.DB,
		log: db.log,
	}
}

func (m *sqlTransactionManager) ExecuteTransaction(ctx context.Context, fn TransactionFunc) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			m.log.Error("rollback failed", "error", rbErr, "original_error", err)
		}
		if apperrors.IsAppError(err) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
