package room

import (
	"net/http"
	"time"

	"github.com/jiwoopark/guesthouse-booking-backend/internal/pkg/apperror"
)

var ErrNotFound = apperror.New(http.StatusNotFound, "room not found")

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Room is a bookable unit inside an accommodation. MaxGuests is a capacity
// ceiling; per-date availability is derived from reservations, not stored.
type Room struct {
	ID                int64
	AccommodationID   int64
	AccommodationName string
	Name              string
	BasePrice         int64
	WeekendPrice      int64
	MinGuests         int
	MaxGuests         int
	Status            Status
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsBookable reports whether new reservations may target this room at all.
func (r *Room) IsBookable() bool {
	return r.Status == StatusActive
}
