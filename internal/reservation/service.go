package reservation

import (
	"context"
	"log"
	"time"

	"github.com/jiwoopark/guesthouse-booking-backend/internal/coupon"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/lock"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/refund"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/room"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/waitlist"
)

// CreateRequest carries a booking attempt. Checkin/Checkout are dates;
// the clock parts are forced to the house check-in/checkout times.
type CreateRequest struct {
	RoomID       int64
	UserID       int64
	Checkin      time.Time
	Checkout     time.Time
	GuestCount   int // 0 requests the whole room (exclusive mode)
	UserCouponID *int64
}

// CancelResult reports the outcome of a cancellation: the final state of
// the reservation and the refund actually granted.
type CancelResult struct {
	Reservation *Reservation
	Refund      refund.PolicyResult
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Reservation, error)
	GetByID(ctx context.Context, id int64) (*Reservation, error)
	ListByUser(ctx context.Context, userID int64) ([]*Reservation, error)

	// ConfirmPayment moves PENDING -> CONFIRMED after the payment provider
	// reports success, and redeems the attached coupon if any.
	ConfirmPayment(ctx context.Context, id int64) (*Reservation, error)

	// CheckIn moves CONFIRMED -> CHECKED_IN. Guarded by the paid invariant.
	CheckIn(ctx context.Context, id int64) (*Reservation, error)

	// Cancel releases the stay, executes the tiered refund and promotes
	// waitlisted guests for the freed range.
	Cancel(ctx context.Context, id, requesterID int64) (*CancelResult, error)

	// RefundQuote previews what Cancel would refund right now. It uses the
	// exact same calculator invocation as Cancel so quote and execution
	// can never disagree.
	RefundQuote(ctx context.Context, id int64) (refund.PolicyResult, error)

	// PurgeAbandoned deletes PENDING reservations older than the grace
	// window and promotes waitlists for the capacity they were holding.
	// Invoked by the scheduler; safe to run concurrently with live requests.
	PurgeAbandoned(ctx context.Context) (int, error)
}

type service struct {
	repo         Repository
	rooms        room.Repository
	availability *AvailabilityCalculator
	locks        lock.Coordinator
	waitlists    waitlist.Service
	coupons      coupon.Service
	pendingTTL   time.Duration
	now          func() time.Time
}

func NewService(
	repo Repository,
	rooms room.Repository,
	availability *AvailabilityCalculator,
	locks lock.Coordinator,
	waitlists waitlist.Service,
	coupons coupon.Service,
	pendingTTL time.Duration,
) Service {
	return &service{
		repo:         repo,
		rooms:        rooms,
		availability: availability,
		locks:        locks,
		waitlists:    waitlists,
		coupons:      coupons,
		pendingTTL:   pendingTTL,
		now:          time.Now,
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Reservation, error) {
	checkin := atHour(req.Checkin, CheckinHour)
	checkout := atHour(req.Checkout, CheckoutHour)

	// Validation happens before any lock is taken: caller errors must not
	// consume a lease slot.
	if !dateOf(checkout).After(dateOf(checkin)) {
		return nil, ErrInvalidDateRange
	}
	now := s.now()
	if dateOf(checkin).Before(dateOf(now)) {
		return nil, ErrInvalidDateRange
	}
	if dateOf(checkin).After(dateOf(now).AddDate(0, 0, BookingHorizonDays)) {
		return nil, ErrTooFarAhead
	}
	if req.GuestCount < 0 {
		return nil, ErrInvalidGuests
	}

	rm, err := s.rooms.GetByID(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if !rm.IsBookable() {
		return nil, ErrRoomNotBookable
	}
	if req.GuestCount > 0 && (req.GuestCount < rm.MinGuests || req.GuestCount > rm.MaxGuests) {
		return nil, ErrInvalidGuests
	}

	total := StayPrice(rm, checkin, checkout)

	var discount int64
	if req.UserCouponID != nil {
		discount, err = s.coupons.ValidateForOrder(ctx, *req.UserCouponID, req.UserID, total)
		if err != nil {
			return nil, err
		}
	}

	// The availability check and the insert must share one lock scope for
	// the room key; this is the serialization point that prevents
	// double-booking.
	lease, err := s.locks.Acquire(ctx, lock.RoomKey(req.RoomID))
	if err != nil {
		return nil, err
	}
	defer s.release(lease)

	ok, _, err := s.availability.IsAvailable(ctx, rm.ID, rm.MaxGuests, checkin, checkout, req.GuestCount)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCapacityExceeded
	}

	res := &Reservation{
		RoomID:          rm.ID,
		AccommodationID: rm.AccommodationID,
		UserID:          req.UserID,
		Checkin:         checkin,
		Checkout:        checkout,
		StayNights:      StayNights(checkin, checkout),
		GuestCount:      req.GuestCount,
		Status:          StatusPending,
		PaymentStatus:   PaymentNone,
		TotalAmount:     total,
		CouponDiscount:  discount,
		FinalAmount:     maxInt64(0, total-discount),
		UserCouponID:    req.UserCouponID,
	}

	if err := s.repo.Create(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*Reservation, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListByUser(ctx context.Context, userID int64) ([]*Reservation, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) ConfirmPayment(ctx context.Context, id int64) (*Reservation, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := res.MarkConfirmed(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, res); err != nil {
		return nil, err
	}

	// Redemption after the confirmed state is committed: the booking must
	// not fail because the coupon row lagged behind.
	if res.UserCouponID != nil {
		if err := s.coupons.MarkUsed(ctx, *res.UserCouponID); err != nil {
			log.Printf("mark coupon used failed: reservation=%d userCoupon=%d err=%v", res.ID, *res.UserCouponID, err)
		}
	}
	return res, nil
}

func (s *service) CheckIn(ctx context.Context, id int64) (*Reservation, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := res.MarkCheckedIn(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *service) Cancel(ctx context.Context, id, requesterID int64) (*CancelResult, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.UserID != requesterID {
		return nil, ErrPermissionDenied
	}

	// Cancellation mutates the room's capacity, so it serializes on the
	// same key as creation.
	lease, err := s.locks.Acquire(ctx, lock.RoomKey(res.RoomID))
	if err != nil {
		return nil, err
	}
	defer s.release(lease)

	// Reload under the lock: the pre-check above ran unserialized.
	res, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	result := &CancelResult{Reservation: res}
	wasPaid := res.PaymentStatus == PaymentPaid

	if res.Status == StatusPending {
		// Unpaid: nothing to refund, the row is simply dropped.
		res.IsDeleted = true
	} else {
		if err := res.MarkCancelled(); err != nil {
			return nil, err
		}
		if wasPaid {
			result.Refund = refund.Calculate(res.Checkin, s.now(), res.FinalAmount)
		}
	}

	if err := s.repo.Update(ctx, res); err != nil {
		return nil, err
	}

	// Promotion is best-effort and runs after the cancellation committed;
	// it must never undo or fail the cancellation itself.
	s.waitlists.OnCapacityFreed(ctx, res.RoomID, res.Checkin, res.Checkout)

	return result, nil
}

func (s *service) RefundQuote(ctx context.Context, id int64) (refund.PolicyResult, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return refund.PolicyResult{}, err
	}
	if res.PaymentStatus != PaymentPaid {
		return refund.PolicyResult{}, ErrNotPaid
	}
	return refund.Calculate(res.Checkin, s.now(), res.FinalAmount), nil
}

func (s *service) PurgeAbandoned(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.pendingTTL)
	purged, err := s.repo.DeleteAbandonedPending(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	for _, res := range purged {
		s.waitlists.OnCapacityFreed(ctx, res.RoomID, res.Checkin, res.Checkout)
	}
	return len(purged), nil
}

func (s *service) release(lease *lock.Lease) {
	// Release must happen even when the request context is already gone.
	if err := s.locks.Release(context.Background(), lease); err != nil {
		log.Printf("release lock failed: key=%s err=%v", lease.Key, err)
	}
}

func atHour(t time.Time, hour int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, hour, 0, 0, 0, t.Location())
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
