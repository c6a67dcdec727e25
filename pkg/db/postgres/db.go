package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"tablebook/pkg/logger"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const DriverName = "postgres"

//go:embed schema.sql
var schema string

type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnTimeout     time.Duration
	Tracing         bool
}

type DB struct {
	*sqlx.DB
	log *logger.Logger
}

// Querier is the subset of sqlx shared by *sqlx.DB and *sqlx.Tx. Repository calls take one so
// the caller decides whether they run inside a transaction.
type Querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// Open connects to PostgreSQL, applies pool limits and pings within ConnTimeout.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (*DB, error) {
	var (
		sqlDB *sql.DB
		err   error
	)
	if cfg.Tracing {
		sqlDB, err = xray.SQLContext(DriverName, cfg.DSN)
	} else {
		sqlDB, err = sql.Open(DriverName, cfg.DSN)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn := sqlx.NewDb(sqlDB, DriverName)
	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnTimeout)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Database connected successfully",
		"max_open_conns", cfg.MaxOpenConns,
		"max_idle_conns", cfg.MaxIdleConns,
		"tracing", cfg.Tracing,
	)
	return &DB{DB: conn, log: log}, nil
}

// New wraps an existing handle, e.g. one backed by sqlmock.
func New(conn *sqlx.DB, log *logger.Logger) *DB {
	return &DB{DB: conn, log: log}
}

// EnsureSchema creates the tables and constraints when they do not exist yet.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	db.log.Info("Database schema ensured")
	return nil
}

func (db *DB) Close() error {
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	db.log.Info("Database connection closed")
	return nil
}

// WithTimeout bounds ctx by timeout unless it already carries an earlier deadline.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}
