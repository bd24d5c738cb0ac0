package reservation

import (
	"net/http"
	"time"

	"github.com/jiwoopark/guesthouse-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "reservation not found")
	ErrInvalidDateRange = apperror.Validation("checkout must be after checkin")
	ErrInvalidGuests    = apperror.Validation("guest count is out of range for this room")
	ErrTooFarAhead      = apperror.Validation("reservations are accepted at most 365 days ahead")
	ErrRoomNotBookable  = apperror.Validation("room is not open for booking")
	ErrCapacityExceeded = apperror.Conflict("room capacity exceeded for the requested dates")
	ErrAlreadyCancelled = apperror.Validation("reservation is already cancelled")
	ErrNotPaid          = apperror.Validation("reservation has no captured payment")
	ErrPermissionDenied = apperror.New(http.StatusForbidden, "permission denied")

	// ErrCheckinUnpaid marks the one transition that must never happen:
	// CHECKED_IN is reachable only from a PAID reservation. Hitting this is
	// a data-integrity bug, not a caller mistake.
	ErrCheckinUnpaid = apperror.Invariant("check-in attempted on an unpaid reservation")

	errTransition = apperror.Validation("reservation state does not allow this operation")
)

// Reservation lifecycle status codes (persisted as-is).
type Status int

const (
	StatusPending   Status = 0 // created, payment not captured yet
	StatusConfirmed Status = 2
	StatusCheckedIn Status = 3
	StatusCancelled Status = 9
)

// Payment status codes (persisted as-is).
type PaymentStatus int

const (
	PaymentNone     PaymentStatus = 0
	PaymentPaid     PaymentStatus = 1
	PaymentFailed   PaymentStatus = 2
	PaymentRefunded PaymentStatus = 3
)

// Check-in opens at 15:00 and checkout closes at 11:00 local time;
// requests carry dates only and the clock parts are forced server-side.
const (
	CheckinHour  = 15
	CheckoutHour = 11
)

// BookingHorizonDays bounds how far ahead a stay may start.
const BookingHorizonDays = 365

// Reservation is the aggregate root for one booking. It is loaded and
// saved as a whole; waitlist entries and coupon counters reference it but
// are coordinated by the service layer, never through cascades.
type Reservation struct {
	ID              int64
	RoomID          int64
	AccommodationID int64
	UserID          int64
	Checkin         time.Time
	Checkout        time.Time
	StayNights      int
	GuestCount      int
	Status          Status
	PaymentStatus   PaymentStatus

	TotalAmount    int64 // before any discount
	CouponDiscount int64
	FinalAmount    int64 // what the guest actually pays

	UserCouponID *int64
	IsDeleted    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Active reports whether this reservation currently holds room capacity.
// PENDING rows hold capacity for the payment grace window; the 10-minute
// sweep frees them if payment never arrives.
func (r *Reservation) Active() bool {
	return !r.IsDeleted &&
		(r.Status == StatusPending || r.Status == StatusConfirmed || r.Status == StatusCheckedIn)
}

// Overlaps is the half-open interval test shared by availability and
// waitlist promotion: [checkin, checkout) ranges touch iff each starts
// before the other ends.
func (r *Reservation) Overlaps(checkin, checkout time.Time) bool {
	return r.Checkin.Before(checkout) && r.Checkout.After(checkin)
}
