package repository

import (
	"context"
	"fmt"

	"tablebook/pkg/config"
	"tablebook/pkg/db/postgres"
	"tablebook/pkg/model"
)

type LocationRepository interface {
	Create(ctx context.Context, q postgres.Querier, location *model.Location) error
	FindAll(ctx context.Context, q postgres.Querier) ([]*model.Location, error)
	Count(ctx context.Context, q postgres.Querier) (int64, error)
}

type postgresLocationRepository struct {
	cfg *config.Config
}

func NewPostgresLocationRepository(cfg *config.Config) LocationRepository {
	return &postgresLocationRepository{cfg: cfg}
}

func (r *postgresLocationRepository) Create(ctx context.Context, q postgres.Querier, location *model.Location) error {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	const query = `INSERT INTO locations (name, max_party_size) VALUES ($1, $2) RETURNING id`
	if err := q.QueryRowxContext(ctx, query, location.Name, location.MaxPartySize).Scan(&location.ID); err != nil {
		return fmt.Errorf("failed to insert location: %w", err)
	}
	return nil
}

func (r *postgresLocationRepository) FindAll(ctx context.Context, q postgres.Querier) ([]*model.Location, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	locations := []*model.Location{}
	if err := q.SelectContext(ctx, &locations, `SELECT id, name, max_party_size FROM locations ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locations, nil
}

func (r *postgresLocationRepository) Count(ctx context.Context, q postgres.Querier) (int64, error) {
	ctx, cancel := postgres.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var count int64
	if err := q.GetContext(ctx, &count, `SELECT COUNT(*) FROM locations`); err != nil {
		return 0, fmt.Errorf("failed to count locations: %w", err)
	}
	return count, nil
}
