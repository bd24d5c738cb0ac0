package coupon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Coupon, error)
	ListActive(ctx context.Context) ([]*Coupon, error)
	ListLimited(ctx context.Context) ([]*Coupon, error)
}

type UserCouponRepository interface {
	// Insert persists one issuance. The table carries a unique index on
	// (user_id, coupon_id, issued_day); a violation maps to
	// ErrAlreadyIssued and is the database-side duplicate guard behind
	// the redis marker.
	Insert(ctx context.Context, uc *UserCoupon) error
	GetByID(ctx context.Context, id int64) (*UserCoupon, error)
	MarkUsed(ctx context.Context, id int64, usedAt time.Time) error

	// ListIssuedOn returns every issuance of the coupon on the given day.
	// Reconciliation rebuilds redis state from these rows.
	ListIssuedOn(ctx context.Context, couponID int64, day time.Time) ([]*UserCoupon, error)
}

const couponColumns = `id, name, discount_type, discount_value, max_discount,
	min_order_amount, valid_from, valid_until, daily_quota, is_active, created_at`

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) GetByID(ctx context.Context, id int64) (*Coupon, error) {
	query := fmt.Sprintf(`SELECT %s FROM public.coupons WHERE id = $1`, couponColumns)

	c, err := scanCoupon(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get coupon failed: %w", err)
	}
	return c, nil
}

func (r *pgxRepository) ListActive(ctx context.Context) ([]*Coupon, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM public.coupons
		WHERE is_active = true AND valid_until > now()
		ORDER BY created_at DESC`, couponColumns)

	return r.listCoupons(ctx, query)
}

func (r *pgxRepository) ListLimited(ctx context.Context) ([]*Coupon, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM public.coupons
		WHERE is_active = true AND daily_quota IS NOT NULL`, couponColumns)

	return r.listCoupons(ctx, query)
}

func (r *pgxRepository) listCoupons(ctx context.Context, query string, args ...interface{}) ([]*Coupon, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list coupons failed: %w", err)
	}
	defer rows.Close()

	var result []*Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon failed: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func scanCoupon(row pgx.Row) (*Coupon, error) {
	var c Coupon
	err := row.Scan(
		&c.ID, &c.Name, &c.DiscountType, &c.DiscountValue, &c.MaxDiscount,
		&c.MinOrderAmount, &c.ValidFrom, &c.ValidUntil, &c.DailyQuota, &c.IsActive, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

type pgxUserCouponRepository struct {
	pool *pgxpool.Pool
}

func NewPgxUserCouponRepository(pool *pgxpool.Pool) UserCouponRepository {
	return &pgxUserCouponRepository{pool: pool}
}

func (r *pgxUserCouponRepository) Insert(ctx context.Context, uc *UserCoupon) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.user_coupons").
		Columns("user_id", "coupon_id", "status", "issued_at", "issued_day", "expires_at").
		Values(uc.UserID, uc.CouponID, uc.Status, uc.IssuedAt, uc.IssuedDay, uc.ExpiresAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user coupon query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&uc.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrAlreadyIssued
		}
		return fmt.Errorf("insert user coupon failed: %w", err)
	}
	return nil
}

func (r *pgxUserCouponRepository) GetByID(ctx context.Context, id int64) (*UserCoupon, error) {
	const query = `
		SELECT id, user_id, coupon_id, status, issued_at, issued_day, expires_at, used_at
		FROM public.user_coupons
		WHERE id = $1
	`
	var uc UserCoupon
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&uc.ID, &uc.UserID, &uc.CouponID, &uc.Status, &uc.IssuedAt, &uc.IssuedDay, &uc.ExpiresAt, &uc.UsedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserCouponNot
		}
		return nil, fmt.Errorf("get user coupon failed: %w", err)
	}
	return &uc, nil
}

func (r *pgxUserCouponRepository) MarkUsed(ctx context.Context, id int64, usedAt time.Time) error {
	const query = `
		UPDATE public.user_coupons
		SET status = $2, used_at = $3
		WHERE id = $1 AND status = $4
	`
	ct, err := r.pool.Exec(ctx, query, id, UserCouponUsed, usedAt, UserCouponIssued)
	if err != nil {
		return fmt.Errorf("mark user coupon used failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotUsable
	}
	return nil
}

func (r *pgxUserCouponRepository) ListIssuedOn(ctx context.Context, couponID int64, day time.Time) ([]*UserCoupon, error) {
	const query = `
		SELECT id, user_id, coupon_id, status, issued_at, issued_day, expires_at, used_at
		FROM public.user_coupons
		WHERE coupon_id = $1 AND issued_day = $2
	`
	rows, err := r.pool.Query(ctx, query, couponID, day)
	if err != nil {
		return nil, fmt.Errorf("list issued coupons failed: %w", err)
	}
	defer rows.Close()

	var result []*UserCoupon
	for rows.Next() {
		var uc UserCoupon
		if err := rows.Scan(
			&uc.ID, &uc.UserID, &uc.CouponID, &uc.Status, &uc.IssuedAt, &uc.IssuedDay, &uc.ExpiresAt, &uc.UsedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user coupon failed: %w", err)
		}
		result = append(result, &uc)
	}
	return result, rows.Err()
}
