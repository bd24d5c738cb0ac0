package reservation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiwoopark/guesthouse-booking-backend/internal/coupon"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/lock"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/refund"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/room"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/waitlist"
)

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// memRepo is an in-memory Repository safe for concurrent use.
type memRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*Reservation
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[int64]*Reservation)}
}

func (r *memRepo) Create(_ context.Context, res *Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	res.ID = r.nextID
	res.CreatedAt = time.Now()
	res.UpdatedAt = res.CreatedAt
	stored := *res
	r.rows[res.ID] = &stored
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id int64) (*Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.rows[id]
	if !ok || res.IsDeleted {
		return nil, ErrNotFound
	}
	copied := *res
	return &copied, nil
}

func (r *memRepo) ListByUser(_ context.Context, userID int64) ([]*Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*Reservation
	for _, res := range r.rows {
		if res.UserID == userID && !res.IsDeleted {
			copied := *res
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *memRepo) ListOverlappingActive(_ context.Context, roomID int64, checkin, checkout time.Time) ([]*Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*Reservation
	for _, res := range r.rows {
		if res.RoomID == roomID && res.Active() && res.Overlaps(checkin, checkout) {
			copied := *res
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *memRepo) Update(_ context.Context, res *Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[res.ID]; !ok {
		return ErrNotFound
	}
	res.UpdatedAt = time.Now()
	stored := *res
	r.rows[res.ID] = &stored
	return nil
}

func (r *memRepo) DeleteAbandonedPending(_ context.Context, cutoff time.Time) ([]*Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var purged []*Reservation
	for id, res := range r.rows {
		if res.Status == StatusPending && !res.IsDeleted && res.CreatedAt.Before(cutoff) {
			copied := *res
			purged = append(purged, &copied)
			delete(r.rows, id)
		}
	}
	return purged, nil
}

type fakeRooms struct {
	rooms map[int64]*room.Room
}

func (f *fakeRooms) GetByID(_ context.Context, id int64) (*room.Room, error) {
	rm, ok := f.rooms[id]
	if !ok {
		return nil, room.ErrNotFound
	}
	return rm, nil
}

type freedRange struct {
	roomID            int64
	checkin, checkout time.Time
}

type fakeWaitlist struct {
	mu    sync.Mutex
	freed []freedRange
}

func (f *fakeWaitlist) Register(context.Context, waitlist.RegisterRequest) (*waitlist.Entry, error) {
	return nil, nil
}
func (f *fakeWaitlist) Cancel(context.Context, int64, int64) error { return nil }
func (f *fakeWaitlist) OnCapacityFreed(_ context.Context, roomID int64, checkin, checkout time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.freed = append(f.freed, freedRange{roomID: roomID, checkin: checkin, checkout: checkout})
}
func (f *fakeWaitlist) SweepExpired(context.Context) (int, error)     { return 0, nil }
func (f *fakeWaitlist) SweepPastCheckin(context.Context) (int, error) { return 0, nil }
func (f *fakeWaitlist) SweepStale(context.Context) (int, error)       { return 0, nil }

func (f *fakeWaitlist) freedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.freed)
}

type fakeCoupons struct {
	discount    int64
	validateErr error

	mu   sync.Mutex
	used []int64
}

func (f *fakeCoupons) Issue(context.Context, int64, int64) (*coupon.UserCoupon, error) {
	return nil, nil
}
func (f *fakeCoupons) ListActive(context.Context) ([]*coupon.Coupon, error) { return nil, nil }
func (f *fakeCoupons) ValidateForOrder(context.Context, int64, int64, int64) (int64, error) {
	if f.validateErr != nil {
		return 0, f.validateErr
	}
	return f.discount, nil
}
func (f *fakeCoupons) MarkUsed(_ context.Context, userCouponID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.used = append(f.used, userCouponID)
	return nil
}
func (f *fakeCoupons) Reconcile(context.Context) error { return nil }

type fixture struct {
	repo      *memRepo
	waitlists *fakeWaitlist
	coupons   *fakeCoupons
	service   *service
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()

	repo := newMemRepo()
	rooms := &fakeRooms{rooms: map[int64]*room.Room{
		1: {
			ID:                1,
			AccommodationID:   10,
			AccommodationName: "Haeun Guesthouse",
			Name:              "Dorm A",
			BasePrice:         50_000,
			WeekendPrice:      70_000,
			MinGuests:         1,
			MaxGuests:         4,
			Status:            room.StatusActive,
		},
		2: {
			ID:              2,
			AccommodationID: 10,
			Name:            "Closed Room",
			BasePrice:       50_000,
			WeekendPrice:    70_000,
			MinGuests:       1,
			MaxGuests:       4,
			Status:          room.StatusInactive,
		},
	}}
	waitlists := &fakeWaitlist{}
	coupons := &fakeCoupons{}
	locks := lock.NewStandaloneCoordinator(5*time.Second, time.Minute)

	svc := NewService(repo, rooms, NewAvailabilityCalculator(repo), locks, waitlists, coupons, 10*time.Minute).(*service)
	svc.now = func() time.Time { return now }

	return &fixture{repo: repo, waitlists: waitlists, coupons: coupons, service: svc}
}

// Fixed clock for most tests: Monday 2026-03-02, 10:00 UTC.
var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func TestCreateReservation(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates Pending With Forced Times And Pricing", func(t *testing.T) {
		f := newFixture(t, testNow)

		res, err := f.service.Create(ctx, CreateRequest{
			RoomID:     1,
			UserID:     7,
			Checkin:    mustDate("2026-03-05"), // Thu
			Checkout:   mustDate("2026-03-08"), // Sun
			GuestCount: 2,
		})
		require.NoError(t, err)

		assert.Equal(t, StatusPending, res.Status)
		assert.Equal(t, PaymentNone, res.PaymentStatus)
		assert.Equal(t, 15, res.Checkin.Hour())
		assert.Equal(t, 11, res.Checkout.Hour())
		assert.Equal(t, 3, res.StayNights)
		// Thu base + Fri/Sat weekend.
		assert.Equal(t, int64(50_000+2*70_000), res.TotalAmount)
		assert.Equal(t, res.TotalAmount, res.FinalAmount)
	})

	t.Run("Applies Coupon Discount", func(t *testing.T) {
		f := newFixture(t, testNow)
		f.coupons.discount = 10_000
		userCouponID := int64(33)

		res, err := f.service.Create(ctx, CreateRequest{
			RoomID:       1,
			UserID:       7,
			Checkin:      mustDate("2026-03-09"),
			Checkout:     mustDate("2026-03-10"),
			GuestCount:   1,
			UserCouponID: &userCouponID,
		})
		require.NoError(t, err)

		assert.Equal(t, int64(50_000), res.TotalAmount)
		assert.Equal(t, int64(10_000), res.CouponDiscount)
		assert.Equal(t, int64(40_000), res.FinalAmount)
	})

	t.Run("Validation Failures", func(t *testing.T) {
		f := newFixture(t, testNow)

		cases := []struct {
			name    string
			req     CreateRequest
			wantErr error
		}{
			{"Checkout Before Checkin", CreateRequest{RoomID: 1, UserID: 7, Checkin: mustDate("2026-03-10"), Checkout: mustDate("2026-03-09"), GuestCount: 1}, ErrInvalidDateRange},
			{"Zero Night Stay", CreateRequest{RoomID: 1, UserID: 7, Checkin: mustDate("2026-03-10"), Checkout: mustDate("2026-03-10"), GuestCount: 1}, ErrInvalidDateRange},
			{"Checkin In The Past", CreateRequest{RoomID: 1, UserID: 7, Checkin: mustDate("2026-03-01"), Checkout: mustDate("2026-03-03"), GuestCount: 1}, ErrInvalidDateRange},
			{"Beyond Horizon", CreateRequest{RoomID: 1, UserID: 7, Checkin: mustDate("2027-03-10"), Checkout: mustDate("2027-03-11"), GuestCount: 1}, ErrTooFarAhead},
			{"Too Many Guests", CreateRequest{RoomID: 1, UserID: 7, Checkin: mustDate("2026-03-10"), Checkout: mustDate("2026-03-11"), GuestCount: 5}, ErrInvalidGuests},
			{"Inactive Room", CreateRequest{RoomID: 2, UserID: 7, Checkin: mustDate("2026-03-10"), Checkout: mustDate("2026-03-11"), GuestCount: 1}, ErrRoomNotBookable},
			{"Unknown Room", CreateRequest{RoomID: 99, UserID: 7, Checkin: mustDate("2026-03-10"), Checkout: mustDate("2026-03-11"), GuestCount: 1}, room.ErrNotFound},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := f.service.Create(ctx, tc.req)
				assert.ErrorIs(t, err, tc.wantErr)
			})
		}
	})

	t.Run("Same Day Checkin Is Allowed", func(t *testing.T) {
		f := newFixture(t, testNow)

		_, err := f.service.Create(ctx, CreateRequest{
			RoomID: 1, UserID: 7,
			Checkin:    mustDate("2026-03-02"),
			Checkout:   mustDate("2026-03-03"),
			GuestCount: 1,
		})
		assert.NoError(t, err)
	})

	t.Run("Full Room Rejects Further Bookings", func(t *testing.T) {
		f := newFixture(t, testNow)

		_, err := f.service.Create(ctx, CreateRequest{
			RoomID: 1, UserID: 7,
			Checkin: mustDate("2026-03-10"), Checkout: mustDate("2026-03-12"), GuestCount: 4,
		})
		require.NoError(t, err)

		_, err = f.service.Create(ctx, CreateRequest{
			RoomID: 1, UserID: 8,
			Checkin: mustDate("2026-03-11"), Checkout: mustDate("2026-03-13"), GuestCount: 1,
		})
		assert.ErrorIs(t, err, ErrCapacityExceeded)
	})

	t.Run("Capacity Request Cannot Share With An Exclusive Booking", func(t *testing.T) {
		f := newFixture(t, testNow)

		_, err := f.service.Create(ctx, CreateRequest{
			RoomID: 1, UserID: 7,
			Checkin: mustDate("2026-03-10"), Checkout: mustDate("2026-03-12"), GuestCount: 0,
		})
		require.NoError(t, err)

		_, err = f.service.Create(ctx, CreateRequest{
			RoomID: 1, UserID: 8,
			Checkin: mustDate("2026-03-10"), Checkout: mustDate("2026-03-12"), GuestCount: 1,
		})
		assert.ErrorIs(t, err, ErrCapacityExceeded)
	})

	t.Run("Exclusive Request Rejects Any Overlap", func(t *testing.T) {
		f := newFixture(t, testNow)

		_, err := f.service.Create(ctx, CreateRequest{
			RoomID: 1, UserID: 7,
			Checkin: mustDate("2026-03-10"), Checkout: mustDate("2026-03-12"), GuestCount: 1,
		})
		require.NoError(t, err)

		_, err = f.service.Create(ctx, CreateRequest{
			RoomID: 1, UserID: 8,
			Checkin: mustDate("2026-03-11"), Checkout: mustDate("2026-03-13"), GuestCount: 0,
		})
		assert.ErrorIs(t, err, ErrCapacityExceeded)
	})
}

func TestCreateReservationConcurrency(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testNow)

	// 100 callers race for exclusive use of the same room and dates.
	// Exactly one may win; the rest must see a capacity conflict.
	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	conflicts := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()

			_, err := f.service.Create(ctx, CreateRequest{
				RoomID:     1,
				UserID:     userID,
				Checkin:    mustDate("2026-04-01"),
				Checkout:   mustDate("2026-04-03"),
				GuestCount: 0,
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case assert.ErrorIs(t, err, ErrCapacityExceeded):
				conflicts++
			}
		}(int64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, 1, created, "exactly one booking may win")
	assert.Equal(t, 99, conflicts)

	overlapping, err := f.repo.ListOverlappingActive(ctx, 1, mustDate("2026-04-01"), mustDate("2026-04-03"))
	require.NoError(t, err)
	assert.Len(t, overlapping, 1, "storage must hold exactly one reservation")
}

func TestConfirmPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testNow)
	f.coupons.discount = 5_000
	userCouponID := int64(21)

	res, err := f.service.Create(ctx, CreateRequest{
		RoomID: 1, UserID: 7,
		Checkin: mustDate("2026-03-10"), Checkout: mustDate("2026-03-11"),
		GuestCount: 1, UserCouponID: &userCouponID,
	})
	require.NoError(t, err)

	confirmed, err := f.service.ConfirmPayment(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)
	assert.Equal(t, PaymentPaid, confirmed.PaymentStatus)
	assert.Equal(t, []int64{userCouponID}, f.coupons.used, "coupon must be redeemed on payment")

	_, err = f.service.ConfirmPayment(ctx, res.ID)
	assert.Error(t, err, "double confirmation must fail")
}

func TestCheckIn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testNow)

	res, err := f.service.Create(ctx, CreateRequest{
		RoomID: 1, UserID: 7,
		Checkin: mustDate("2026-03-10"), Checkout: mustDate("2026-03-11"), GuestCount: 1,
	})
	require.NoError(t, err)

	t.Run("Pending Cannot Check In", func(t *testing.T) {
		_, err := f.service.CheckIn(ctx, res.ID)
		assert.Error(t, err)
	})

	_, err = f.service.ConfirmPayment(ctx, res.ID)
	require.NoError(t, err)

	t.Run("Confirmed Checks In", func(t *testing.T) {
		checked, err := f.service.CheckIn(ctx, res.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCheckedIn, checked.Status)
	})
}

func TestCancelReservation(t *testing.T) {
	ctx := context.Background()

	makePaid := func(t *testing.T, f *fixture, checkin, checkout string) *Reservation {
		t.Helper()
		res, err := f.service.Create(ctx, CreateRequest{
			RoomID: 1, UserID: 7,
			Checkin: mustDate(checkin), Checkout: mustDate(checkout), GuestCount: 2,
		})
		require.NoError(t, err)
		res, err = f.service.ConfirmPayment(ctx, res.ID)
		require.NoError(t, err)
		return res
	}

	t.Run("Paid Cancellation Refunds By Tier", func(t *testing.T) {
		f := newFixture(t, testNow)
		// Checkin 2026-03-07 with now 2026-03-02: five days out, 90% tier.
		res := makePaid(t, f, "2026-03-07", "2026-03-08")

		result, err := f.service.Cancel(ctx, res.ID, 7)
		require.NoError(t, err)

		assert.Equal(t, StatusCancelled, result.Reservation.Status)
		assert.Equal(t, PaymentRefunded, result.Reservation.PaymentStatus)
		assert.Equal(t, refund.CodeD6_5, result.Refund.PolicyCode)
		assert.Equal(t, res.FinalAmount*90/100, result.Refund.RefundAmount)
		assert.Equal(t, 1, f.waitlists.freedCount(), "cancellation must trigger waitlist promotion")
	})

	t.Run("Quote Matches Execution", func(t *testing.T) {
		f := newFixture(t, testNow)
		res := makePaid(t, f, "2026-03-07", "2026-03-08")

		quote, err := f.service.RefundQuote(ctx, res.ID)
		require.NoError(t, err)

		result, err := f.service.Cancel(ctx, res.ID, 7)
		require.NoError(t, err)
		assert.Equal(t, quote, result.Refund)
	})

	t.Run("Pending Cancellation Is A Plain Drop", func(t *testing.T) {
		f := newFixture(t, testNow)
		res, err := f.service.Create(ctx, CreateRequest{
			RoomID: 1, UserID: 7,
			Checkin: mustDate("2026-03-10"), Checkout: mustDate("2026-03-11"), GuestCount: 1,
		})
		require.NoError(t, err)

		result, err := f.service.Cancel(ctx, res.ID, 7)
		require.NoError(t, err)
		assert.Empty(t, result.Refund.PolicyCode, "nothing was paid, nothing to refund")

		_, err = f.service.GetByID(ctx, res.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, 1, f.waitlists.freedCount())
	})

	t.Run("Only The Owner May Cancel", func(t *testing.T) {
		f := newFixture(t, testNow)
		res := makePaid(t, f, "2026-03-10", "2026-03-11")

		_, err := f.service.Cancel(ctx, res.ID, 999)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("Cancelling Twice Fails", func(t *testing.T) {
		f := newFixture(t, testNow)
		res := makePaid(t, f, "2026-03-10", "2026-03-11")

		_, err := f.service.Cancel(ctx, res.ID, 7)
		require.NoError(t, err)

		_, err = f.service.Cancel(ctx, res.ID, 7)
		assert.ErrorIs(t, err, ErrAlreadyCancelled)
	})
}

func TestRefundQuoteRequiresPayment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testNow)

	res, err := f.service.Create(ctx, CreateRequest{
		RoomID: 1, UserID: 7,
		Checkin: mustDate("2026-03-10"), Checkout: mustDate("2026-03-11"), GuestCount: 1,
	})
	require.NoError(t, err)

	_, err = f.service.RefundQuote(ctx, res.ID)
	assert.ErrorIs(t, err, ErrNotPaid)
}

func TestPurgeAbandoned(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testNow)

	stale, err := f.service.Create(ctx, CreateRequest{
		RoomID: 1, UserID: 7,
		Checkin: mustDate("2026-03-10"), Checkout: mustDate("2026-03-11"), GuestCount: 1,
	})
	require.NoError(t, err)

	fresh, err := f.service.Create(ctx, CreateRequest{
		RoomID: 1, UserID: 8,
		Checkin: mustDate("2026-03-12"), Checkout: mustDate("2026-03-13"), GuestCount: 1,
	})
	require.NoError(t, err)

	paid, err := f.service.Create(ctx, CreateRequest{
		RoomID: 1, UserID: 9,
		Checkin: mustDate("2026-03-14"), Checkout: mustDate("2026-03-15"), GuestCount: 1,
	})
	require.NoError(t, err)
	_, err = f.service.ConfirmPayment(ctx, paid.ID)
	require.NoError(t, err)

	// Age the stale row past the grace window.
	f.repo.mu.Lock()
	f.repo.rows[stale.ID].CreatedAt = testNow.Add(-time.Hour)
	f.repo.rows[fresh.ID].CreatedAt = testNow.Add(-time.Minute)
	f.repo.mu.Unlock()
	f.service.now = func() time.Time { return testNow }

	n, err := f.service.PurgeAbandoned(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = f.service.GetByID(ctx, stale.ID)
	assert.ErrorIs(t, err, ErrNotFound, "stale pending must be purged")

	_, err = f.service.GetByID(ctx, fresh.ID)
	assert.NoError(t, err, "fresh pending survives the sweep")

	_, err = f.service.GetByID(ctx, paid.ID)
	assert.NoError(t, err, "confirmed reservations are never purged")

	assert.Equal(t, 1, f.waitlists.freedCount(), "purge must promote waitlists for freed capacity")

	t.Run("Second Run Is A No Op", func(t *testing.T) {
		n, err := f.service.PurgeAbandoned(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("Cancelled Pending Is Not Purged Again", func(t *testing.T) {
		f := newFixture(t, testNow)

		res, err := f.service.Create(ctx, CreateRequest{
			RoomID: 1, UserID: 7,
			Checkin: mustDate("2026-03-10"), Checkout: mustDate("2026-03-11"), GuestCount: 1,
		})
		require.NoError(t, err)

		_, err = f.service.Cancel(ctx, res.ID, 7)
		require.NoError(t, err)
		require.Equal(t, 1, f.waitlists.freedCount(), "cancel frees the range once")

		// Even aged past the grace window, the soft-deleted row stays out
		// of the sweep so waitlists are not promoted a second time.
		f.repo.mu.Lock()
		f.repo.rows[res.ID].CreatedAt = testNow.Add(-time.Hour)
		f.repo.mu.Unlock()

		n, err := f.service.PurgeAbandoned(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
		assert.Equal(t, 1, f.waitlists.freedCount())
	})
}
