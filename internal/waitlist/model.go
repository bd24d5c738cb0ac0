package waitlist

import (
	"net/http"
	"time"

	"github.com/jiwoopark/guesthouse-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "waitlist entry not found")
	ErrLimitReached     = apperror.Conflict("waitlist limit reached (max 3 active entries)")
	ErrDuplicate        = apperror.Conflict("already waiting for this room and date range")
	ErrPermissionDenied = apperror.New(http.StatusForbidden, "permission denied")
	ErrInvalidDateRange = apperror.Validation("checkout must be after checkin")
)

const (
	// MaxActivePerUser caps how many not-yet-notified entries one guest may hold.
	MaxActivePerUser = 3

	// OfferWindow is how long a notified guest keeps the booking opportunity.
	OfferWindow = 24 * time.Hour

	// MinDaysBeforeCheckin: entries whose checkin is closer than this are
	// dropped instead of notified; the guest could not realistically plan
	// the stay anyway.
	MinDaysBeforeCheckin = 7

	// StaleAgeDays ages out entries regardless of state.
	StaleAgeDays = 30
)

// Entry records a guest waiting for a full room/date range. It references
// the room and accommodation but owns neither.
type Entry struct {
	ID              int64
	UserID          int64
	UserEmail       string // joined in by list queries, not stored here
	RoomID          int64
	AccommodationID int64
	Checkin         time.Time
	Checkout        time.Time
	GuestCount      int
	IsNotified      bool
	NotifiedAt      *time.Time
	ExpiresAt       *time.Time
	CreatedAt       time.Time
}
