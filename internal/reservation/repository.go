package reservation

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
	Create(ctx context.Context, res *Reservation) error
	GetByID(ctx context.Context, id int64) (*Reservation, error)
	ListByUser(ctx context.Context, userID int64) ([]*Reservation, error)

	// ListOverlappingActive returns every capacity-holding reservation of
	// the room whose [checkin, checkout) range intersects the given one.
	ListOverlappingActive(ctx context.Context, roomID int64, checkin, checkout time.Time) ([]*Reservation, error)

	// Update persists status, payment status and the soft-delete flag.
	Update(ctx context.Context, res *Reservation) error

	// DeleteAbandonedPending removes PENDING rows created before cutoff and
	// returns them so the caller can promote waitlists for the freed ranges.
	DeleteAbandonedPending(ctx context.Context, cutoff time.Time) ([]*Reservation, error)
}

const reservationColumns = `id, room_id, accommodation_id, user_id, checkin, checkout,
	stay_nights, guest_count, reservation_status, payment_status,
	total_amount, coupon_discount, final_amount, user_coupon_id,
	is_deleted, created_at, updated_at`

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, res *Reservation) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.reservations").
		Columns("room_id", "accommodation_id", "user_id", "checkin", "checkout",
			"stay_nights", "guest_count", "reservation_status", "payment_status",
			"total_amount", "coupon_discount", "final_amount", "user_coupon_id").
		Values(res.RoomID, res.AccommodationID, res.UserID, res.Checkin, res.Checkout,
			res.StayNights, res.GuestCount, res.Status, res.PaymentStatus,
			res.TotalAmount, res.CouponDiscount, res.FinalAmount, res.UserCouponID).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create reservation query failed: %w", err)
	}

	return r.pool.QueryRow(ctx, query, args...).
		Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
}

func (r *pgxRepository) GetByID(ctx context.Context, id int64) (*Reservation, error) {
	query := fmt.Sprintf(`SELECT %s FROM public.reservations WHERE id = $1 AND is_deleted = false`, reservationColumns)

	res, err := scanReservation(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get reservation failed: %w", err)
	}
	return res, nil
}

func (r *pgxRepository) ListByUser(ctx context.Context, userID int64) ([]*Reservation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM public.reservations
		WHERE user_id = $1 AND is_deleted = false
		ORDER BY created_at DESC`, reservationColumns)

	return r.list(ctx, query, userID)
}

func (r *pgxRepository) ListOverlappingActive(ctx context.Context, roomID int64, checkin, checkout time.Time) ([]*Reservation, error) {
	// Half-open overlap: existing.checkin < new.checkout AND existing.checkout > new.checkin.
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(reservationColumns).
		From("public.reservations").
		Where(squirrel.Eq{"room_id": roomID}).
		Where(squirrel.Eq{"is_deleted": false}).
		Where(squirrel.Eq{"reservation_status": []Status{StatusPending, StatusConfirmed, StatusCheckedIn}}).
		Where(squirrel.Lt{"checkin": checkout}).
		Where(squirrel.Gt{"checkout": checkin}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build overlap query failed: %w", err)
	}

	return r.list(ctx, query, args...)
}

func (r *pgxRepository) Update(ctx context.Context, res *Reservation) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.reservations").
		Set("reservation_status", res.Status).
		Set("payment_status", res.PaymentStatus).
		Set("is_deleted", res.IsDeleted).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": res.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update reservation query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update reservation failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) DeleteAbandonedPending(ctx context.Context, cutoff time.Time) ([]*Reservation, error) {
	query := fmt.Sprintf(`
		DELETE FROM public.reservations
		WHERE reservation_status = $1 AND created_at < $2 AND is_deleted = false
		RETURNING %s`, reservationColumns)

	return r.list(ctx, query, StatusPending, cutoff)
}

func (r *pgxRepository) list(ctx context.Context, query string, args ...interface{}) ([]*Reservation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations failed: %w", err)
	}
	defer rows.Close()

	var result []*Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation failed: %w", err)
		}
		result = append(result, res)
	}
	return result, rows.Err()
}

func scanReservation(row pgx.Row) (*Reservation, error) {
	var res Reservation
	err := row.Scan(
		&res.ID, &res.RoomID, &res.AccommodationID, &res.UserID, &res.Checkin, &res.Checkout,
		&res.StayNights, &res.GuestCount, &res.Status, &res.PaymentStatus,
		&res.TotalAmount, &res.CouponDiscount, &res.FinalAmount, &res.UserCouponID,
		&res.IsDeleted, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
