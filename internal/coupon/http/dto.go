package http

import (
	"time"

	"github.com/jiwoopark/guesthouse-booking-backend/internal/coupon"
)

type CouponResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	DiscountType   string `json:"discount_type"`
	DiscountValue  int64  `json:"discount_value"`
	MaxDiscount    *int64 `json:"max_discount,omitempty"`
	MinOrderAmount *int64 `json:"min_order_amount,omitempty"`
	ValidUntil     string `json:"valid_until"`
	DailyQuota     *int   `json:"daily_quota,omitempty"`
}

func NewCouponResponse(c *coupon.Coupon) CouponResponse {
	return CouponResponse{
		ID:             c.ID,
		Name:           c.Name,
		DiscountType:   string(c.DiscountType),
		DiscountValue:  c.DiscountValue,
		MaxDiscount:    c.MaxDiscount,
		MinOrderAmount: c.MinOrderAmount,
		ValidUntil:     c.ValidUntil.Format(time.RFC3339),
		DailyQuota:     c.DailyQuota,
	}
}

type UserCouponResponse struct {
	ID        int64      `json:"id"`
	CouponID  int64      `json:"coupon_id"`
	Status    string     `json:"status"`
	IssuedAt  time.Time  `json:"issued_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func NewUserCouponResponse(uc *coupon.UserCoupon) UserCouponResponse {
	return UserCouponResponse{
		ID:        uc.ID,
		CouponID:  uc.CouponID,
		Status:    string(uc.Status),
		IssuedAt:  uc.IssuedAt,
		ExpiresAt: uc.ExpiresAt,
	}
}
