package coupon

import (
	"net/http"
	"time"

	"github.com/jiwoopark/guesthouse-booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound      = apperror.New(http.StatusNotFound, "coupon not found")
	ErrUserCouponNot = apperror.New(http.StatusNotFound, "user coupon not found")
	ErrOutOfStock    = apperror.Conflict("today's quota for this coupon is exhausted")
	ErrAlreadyIssued = apperror.Conflict("coupon already issued to this user today")
	ErrInactive      = apperror.Validation("coupon is not currently issuable")
	ErrExpired       = apperror.Validation("coupon has expired")
	ErrNotYours      = apperror.Validation("coupon belongs to another user")
	ErrNotUsable     = apperror.Validation("coupon is not in a usable state")
	ErrMinOrder      = apperror.Validation("order amount below the coupon minimum")
)

type DiscountType string

const (
	DiscountPercent DiscountType = "PERCENT"
	DiscountAmount  DiscountType = "AMOUNT"
)

// Coupon is the definition; live per-day stock is tracked separately in
// redis under a day-keyed counter (see Ledger).
type Coupon struct {
	ID             int64
	Name           string
	DiscountType   DiscountType
	DiscountValue  int64  // percent points or fixed amount
	MaxDiscount    *int64 // cap for PERCENT coupons
	MinOrderAmount *int64
	ValidFrom      time.Time
	ValidUntil     time.Time
	DailyQuota     *int // nil means unlimited
	IsActive       bool
	CreatedAt      time.Time
}

// Issuable reports whether the coupon may be handed out at the given time.
func (c *Coupon) Issuable(at time.Time) bool {
	return c.IsActive && !at.Before(c.ValidFrom) && at.Before(c.ValidUntil)
}

// Discount computes the discount this coupon grants on orderTotal.
// PERCENT discounts floor and honor the max cap; AMOUNT discounts never
// exceed the order total.
func (c *Coupon) Discount(orderTotal int64) int64 {
	var discount int64
	switch c.DiscountType {
	case DiscountPercent:
		discount = orderTotal * c.DiscountValue / 100
		if c.MaxDiscount != nil && discount > *c.MaxDiscount {
			discount = *c.MaxDiscount
		}
	case DiscountAmount:
		discount = c.DiscountValue
	}
	if discount > orderTotal {
		discount = orderTotal
	}
	return discount
}

type UserCouponStatus string

const (
	UserCouponIssued UserCouponStatus = "ISSUED"
	UserCouponUsed   UserCouponStatus = "USED"
)

// UserCoupon is one issuance of a coupon to one user.
type UserCoupon struct {
	ID        int64
	UserID    int64
	CouponID  int64
	Status    UserCouponStatus
	IssuedAt  time.Time
	IssuedDay time.Time // calendar day of issuance; part of the uniqueness key
	ExpiresAt *time.Time
	UsedAt    *time.Time
}
