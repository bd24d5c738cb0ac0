package waitlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByID(ctx context.Context, id int64) (*Entry, error)
	Delete(ctx context.Context, id int64) error

	CountActiveByUser(ctx context.Context, userID int64) (int, error)
	ExistsActive(ctx context.Context, userID, roomID int64, checkin, checkout time.Time) (bool, error)

	// ListNotNotifiedOverlapping returns entries (with the guest's email
	// joined in) waiting on the room whose desired range intersects the
	// freed [checkin, checkout) range and that have not been notified yet.
	ListNotNotifiedOverlapping(ctx context.Context, roomID int64, checkin, checkout time.Time) ([]*Entry, error)

	// MarkNotified stamps the notification and its expiry on one entry.
	MarkNotified(ctx context.Context, id int64, notifiedAt, expiresAt time.Time) error

	DeleteExpired(ctx context.Context, now time.Time) (int, error)
	DeletePastCheckin(ctx context.Context, now time.Time) (int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, entry *Entry) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.waitlist").
		Columns("user_id", "room_id", "accommodation_id", "checkin", "checkout", "guest_count").
		Values(entry.UserID, entry.RoomID, entry.AccommodationID, entry.Checkin, entry.Checkout, entry.GuestCount).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create waitlist query failed: %w", err)
	}

	return r.pool.QueryRow(ctx, query, args...).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *pgxRepository) GetByID(ctx context.Context, id int64) (*Entry, error) {
	const query = `
		SELECT id, user_id, room_id, accommodation_id, checkin, checkout,
		       guest_count, is_notified, notified_at, expires_at, created_at
		FROM public.waitlist
		WHERE id = $1
	`
	var e Entry
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.UserID, &e.RoomID, &e.AccommodationID, &e.Checkin, &e.Checkout,
		&e.GuestCount, &e.IsNotified, &e.NotifiedAt, &e.ExpiresAt, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get waitlist entry failed: %w", err)
	}
	return &e, nil
}

func (r *pgxRepository) Delete(ctx context.Context, id int64) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM public.waitlist WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete waitlist entry failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) CountActiveByUser(ctx context.Context, userID int64) (int, error) {
	const query = `SELECT count(*) FROM public.waitlist WHERE user_id = $1 AND is_notified = false`

	var count int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active waitlist failed: %w", err)
	}
	return count, nil
}

func (r *pgxRepository) ExistsActive(ctx context.Context, userID, roomID int64, checkin, checkout time.Time) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM public.waitlist
			WHERE user_id = $1 AND room_id = $2
			  AND checkin = $3 AND checkout = $4
			  AND is_notified = false
		)
	`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, roomID, checkin, checkout).Scan(&exists); err != nil {
		return false, fmt.Errorf("check duplicate waitlist failed: %w", err)
	}
	return exists, nil
}

func (r *pgxRepository) ListNotNotifiedOverlapping(ctx context.Context, roomID int64, checkin, checkout time.Time) ([]*Entry, error) {
	// Same half-open overlap predicate as reservation availability.
	const query = `
		SELECT w.id, w.user_id, u.email, w.room_id, w.accommodation_id,
		       w.checkin, w.checkout, w.guest_count, w.is_notified,
		       w.notified_at, w.expires_at, w.created_at
		FROM public.waitlist w
		JOIN public.users u ON w.user_id = u.id
		WHERE w.room_id = $1
		  AND w.is_notified = false
		  AND w.checkin < $3
		  AND w.checkout > $2
		ORDER BY w.created_at
	`
	rows, err := r.pool.Query(ctx, query, roomID, checkin, checkout)
	if err != nil {
		return nil, fmt.Errorf("list waitlist candidates failed: %w", err)
	}
	defer rows.Close()

	var result []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.UserEmail, &e.RoomID, &e.AccommodationID,
			&e.Checkin, &e.Checkout, &e.GuestCount, &e.IsNotified,
			&e.NotifiedAt, &e.ExpiresAt, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan waitlist entry failed: %w", err)
		}
		result = append(result, &e)
	}
	return result, rows.Err()
}

func (r *pgxRepository) MarkNotified(ctx context.Context, id int64, notifiedAt, expiresAt time.Time) error {
	const query = `
		UPDATE public.waitlist
		SET is_notified = true, notified_at = $2, expires_at = $3
		WHERE id = $1 AND is_notified = false
	`
	if _, err := r.pool.Exec(ctx, query, id, notifiedAt, expiresAt); err != nil {
		return fmt.Errorf("mark waitlist notified failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	return r.deleteWhere(ctx, `expires_at IS NOT NULL AND expires_at < $1`, now)
}

func (r *pgxRepository) DeletePastCheckin(ctx context.Context, now time.Time) (int, error) {
	return r.deleteWhere(ctx, `checkin < $1`, now)
}

func (r *pgxRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	return r.deleteWhere(ctx, `created_at < $1`, cutoff)
}

func (r *pgxRepository) deleteWhere(ctx context.Context, cond string, args ...interface{}) (int, error) {
	ct, err := r.pool.Exec(ctx, `DELETE FROM public.waitlist WHERE `+cond, args...)
	if err != nil {
		return 0, fmt.Errorf("waitlist sweep failed: %w", err)
	}
	return int(ct.RowsAffected()), nil
}
