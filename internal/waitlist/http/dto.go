package http

import (
	"time"

	"github.com/jiwoopark/guesthouse-booking-backend/internal/waitlist"
)

const dateLayout = "2006-01-02"

type RegisterWaitlistRequest struct {
	RoomID     int64  `json:"room_id" binding:"required,min=1"`
	Checkin    string `json:"checkin" binding:"required,datetime=2006-01-02"`
	Checkout   string `json:"checkout" binding:"required,datetime=2006-01-02"`
	GuestCount int    `json:"guest_count" binding:"min=0"`
}

type WaitlistEntryResponse struct {
	ID         int64      `json:"id"`
	RoomID     int64      `json:"room_id"`
	Checkin    time.Time  `json:"checkin"`
	Checkout   time.Time  `json:"checkout"`
	GuestCount int        `json:"guest_count"`
	IsNotified bool       `json:"is_notified"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func NewWaitlistEntryResponse(e *waitlist.Entry) WaitlistEntryResponse {
	return WaitlistEntryResponse{
		ID:         e.ID,
		RoomID:     e.RoomID,
		Checkin:    e.Checkin,
		Checkout:   e.Checkout,
		GuestCount: e.GuestCount,
		IsNotified: e.IsNotified,
		ExpiresAt:  e.ExpiresAt,
		CreatedAt:  e.CreatedAt,
	}
}
