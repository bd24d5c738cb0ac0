package http

import (
	"time"

	"github.com/jiwoopark/guesthouse-booking-backend/internal/refund"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/reservation"
)

const dateLayout = "2006-01-02"

// CreateReservationRequest carries a booking attempt. Dates are calendar
// days; check-in/checkout clock times are fixed house policy and set
// server-side.
type CreateReservationRequest struct {
	RoomID       int64  `json:"room_id" binding:"required,min=1"`
	Checkin      string `json:"checkin" binding:"required,datetime=2006-01-02"`
	Checkout     string `json:"checkout" binding:"required,datetime=2006-01-02"`
	GuestCount   int    `json:"guest_count" binding:"min=0"`
	UserCouponID *int64 `json:"user_coupon_id" binding:"omitempty,min=1"`
}

type ReservationResponse struct {
	ID             int64     `json:"id"`
	RoomID         int64     `json:"room_id"`
	UserID         int64     `json:"user_id"`
	Checkin        time.Time `json:"checkin"`
	Checkout       time.Time `json:"checkout"`
	StayNights     int       `json:"stay_nights"`
	GuestCount     int       `json:"guest_count"`
	Status         int       `json:"status"`
	PaymentStatus  int       `json:"payment_status"`
	TotalAmount    int64     `json:"total_amount"`
	CouponDiscount int64     `json:"coupon_discount"`
	FinalAmount    int64     `json:"final_amount"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func NewReservationResponse(r *reservation.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:             r.ID,
		RoomID:         r.RoomID,
		UserID:         r.UserID,
		Checkin:        r.Checkin,
		Checkout:       r.Checkout,
		StayNights:     r.StayNights,
		GuestCount:     r.GuestCount,
		Status:         int(r.Status),
		PaymentStatus:  int(r.PaymentStatus),
		TotalAmount:    r.TotalAmount,
		CouponDiscount: r.CouponDiscount,
		FinalAmount:    r.FinalAmount,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type RefundQuoteResponse struct {
	RefundRate   int    `json:"refund_rate"`
	RefundAmount int64  `json:"refund_amount"`
	PolicyCode   string `json:"policy_code"`
	DaysBefore   int    `json:"days_before_checkin"`
}

func NewRefundQuoteResponse(r refund.PolicyResult) RefundQuoteResponse {
	return RefundQuoteResponse{
		RefundRate:   r.RefundRate,
		RefundAmount: r.RefundAmount,
		PolicyCode:   r.PolicyCode,
		DaysBefore:   r.DaysBefore,
	}
}

type CancelReservationResponse struct {
	Reservation ReservationResponse  `json:"reservation"`
	Refund      *RefundQuoteResponse `json:"refund,omitempty"`
}
