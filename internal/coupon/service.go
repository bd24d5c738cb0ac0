package coupon

import (
	"context"
	"log"
	"time"

	"github.com/jiwoopark/guesthouse-booking-backend/internal/lock"
)

// UserCouponTTLDays is how long an issued coupon stays redeemable.
const UserCouponTTLDays = 30

type Service interface {
	// Issue hands the coupon to the user, enforcing the per-day quota and
	// the one-per-user-per-day rule. Fails with ErrOutOfStock or
	// ErrAlreadyIssued, both retryable-tomorrow conflicts.
	Issue(ctx context.Context, userID, couponID int64) (*UserCoupon, error)

	ListActive(ctx context.Context) ([]*Coupon, error)

	// ValidateForOrder checks ownership/usability of a held coupon and
	// returns the discount it grants on orderTotal.
	ValidateForOrder(ctx context.Context, userCouponID, userID, orderTotal int64) (int64, error)

	// MarkUsed redeems a held coupon after the paying reservation commits.
	MarkUsed(ctx context.Context, userCouponID int64) error

	// Reconcile rebuilds today's redis stock counters and issued-today
	// markers from the database. Runs at startup (a restart must not grant
	// second coupons to users who already redeemed before it) and from the
	// midnight job (where it doubles as the daily reset: the new day's
	// keys start from the full quota).
	Reconcile(ctx context.Context) error
}

type service struct {
	coupons     Repository
	userCoupons UserCouponRepository
	ledger      Ledger
	locks       lock.Coordinator
	now         func() time.Time
}

func NewService(coupons Repository, userCoupons UserCouponRepository, ledger Ledger, locks lock.Coordinator) Service {
	return &service{
		coupons:     coupons,
		userCoupons: userCoupons,
		ledger:      ledger,
		locks:       locks,
		now:         time.Now,
	}
}

func (s *service) Issue(ctx context.Context, userID, couponID int64) (*UserCoupon, error) {
	c, err := s.coupons.GetByID(ctx, couponID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !c.Issuable(now) {
		return nil, ErrInactive
	}

	day := dateOf(now)

	// Issuance serializes on the coupon+day key. The ledger operations are
	// atomic on their own; the lease additionally orders them against the
	// database insert so the marker/stock/row trio can be rolled back
	// consistently on failure.
	lease, err := s.locks.Acquire(ctx, lock.CouponKey(couponID, day))
	if err != nil {
		return nil, err
	}
	defer s.release(lease)

	first, err := s.ledger.MarkIssued(ctx, couponID, day, userID)
	if err != nil {
		return nil, err
	}
	if !first {
		return nil, ErrAlreadyIssued
	}

	if c.DailyQuota != nil {
		got, err := s.ledger.TakeStock(ctx, couponID, day, *c.DailyQuota)
		if err != nil {
			s.rollbackMarker(couponID, day, userID)
			return nil, err
		}
		if !got {
			s.rollbackMarker(couponID, day, userID)
			return nil, ErrOutOfStock
		}
	}

	expiresAt := now.AddDate(0, 0, UserCouponTTLDays)
	uc := &UserCoupon{
		UserID:    userID,
		CouponID:  couponID,
		Status:    UserCouponIssued,
		IssuedAt:  now,
		IssuedDay: day,
		ExpiresAt: &expiresAt,
	}

	if err := s.userCoupons.Insert(ctx, uc); err != nil {
		// The database is the source of truth; give back whatever the
		// ledger took for this attempt.
		s.rollbackMarker(couponID, day, userID)
		if c.DailyQuota != nil {
			if rerr := s.ledger.RestoreStock(context.Background(), couponID, day); rerr != nil {
				log.Printf("restore coupon stock failed: coupon=%d err=%v", couponID, rerr)
			}
		}
		return nil, err
	}

	return uc, nil
}

func (s *service) ListActive(ctx context.Context) ([]*Coupon, error) {
	return s.coupons.ListActive(ctx)
}

func (s *service) ValidateForOrder(ctx context.Context, userCouponID, userID, orderTotal int64) (int64, error) {
	uc, err := s.userCoupons.GetByID(ctx, userCouponID)
	if err != nil {
		return 0, err
	}
	if uc.UserID != userID {
		return 0, ErrNotYours
	}
	if uc.Status != UserCouponIssued {
		return 0, ErrNotUsable
	}
	now := s.now()
	if uc.ExpiresAt != nil && uc.ExpiresAt.Before(now) {
		return 0, ErrExpired
	}

	c, err := s.coupons.GetByID(ctx, uc.CouponID)
	if err != nil {
		return 0, err
	}
	if c.MinOrderAmount != nil && orderTotal < *c.MinOrderAmount {
		return 0, ErrMinOrder
	}

	return c.Discount(orderTotal), nil
}

func (s *service) MarkUsed(ctx context.Context, userCouponID int64) error {
	return s.userCoupons.MarkUsed(ctx, userCouponID, s.now())
}

func (s *service) Reconcile(ctx context.Context) error {
	limited, err := s.coupons.ListLimited(ctx)
	if err != nil {
		return err
	}

	day := dateOf(s.now())
	for _, c := range limited {
		issued, err := s.userCoupons.ListIssuedOn(ctx, c.ID, day)
		if err != nil {
			return err
		}

		remaining := *c.DailyQuota - len(issued)
		if remaining < 0 {
			remaining = 0
		}
		if err := s.ledger.SetStock(ctx, c.ID, day, remaining); err != nil {
			return err
		}

		for _, uc := range issued {
			if _, err := s.ledger.MarkIssued(ctx, c.ID, day, uc.UserID); err != nil {
				return err
			}
		}

		log.Printf("coupon ledger reconciled: coupon=%d day=%s remaining=%d issued=%d",
			c.ID, day.Format("2006-01-02"), remaining, len(issued))
	}
	return nil
}

func (s *service) rollbackMarker(couponID int64, day time.Time, userID int64) {
	if err := s.ledger.UnmarkIssued(context.Background(), couponID, day, userID); err != nil {
		log.Printf("unmark coupon issued failed: coupon=%d user=%d err=%v", couponID, userID, err)
	}
}

func (s *service) release(lease *lock.Lease) {
	if err := s.locks.Release(context.Background(), lease); err != nil {
		log.Printf("release lock failed: key=%s err=%v", lease.Key, err)
	}
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
