package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Room, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) GetByID(ctx context.Context, id int64) (*Room, error) {
	const query = `
		SELECT r.id, r.accommodation_id, a.name, r.name, r.base_price, r.weekend_price,
		       r.min_guests, r.max_guests, r.status, r.created_at, r.updated_at
		FROM public.rooms r
		JOIN public.accommodations a ON r.accommodation_id = a.id
		WHERE r.id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)

	var rm Room
	if err := row.Scan(
		&rm.ID, &rm.AccommodationID, &rm.AccommodationName, &rm.Name, &rm.BasePrice, &rm.WeekendPrice,
		&rm.MinGuests, &rm.MaxGuests, &rm.Status, &rm.CreatedAt, &rm.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get room failed: %w", err)
	}
	return &rm, nil
}
