// Package refund computes the time-tiered refund for a cancellation.
// The calculator is pure: both the quote endpoint and the actual refund
// execution call it with the same inputs and must get the same answer.
package refund

import "time"

// Tier policy codes, keyed by how many whole days remain before check-in.
const (
	CodeD7     = "D7"        // >= 7 days: full refund
	CodeD6_5   = "D6_5"      // 5-6 days: 90%
	CodeD4_3   = "D4_3"      // 3-4 days: 70%
	CodeD2_1   = "D2_1"      // 1-2 days: 50%
	CodeNoShow = "D0_NOSHOW" // day of check-in or later: nothing
)

// PolicyResult is a derived value object, never persisted.
type PolicyResult struct {
	RefundRate   int    `json:"refundRate"`
	RefundAmount int64  `json:"refundAmount"`
	PolicyCode   string `json:"policyCode"`
	DaysBefore   int    `json:"daysBeforeCheckin"`
}

// Calculate derives the refund for cancelling at cancelAt a stay starting
// at checkin, with paidAmount already captured. Days are counted between
// the calendar dates of cancelAt and checkin, not between instants, so a
// cancellation any time on D-7 still earns the full refund.
// RefundAmount is floor(paidAmount * rate / 100); integer math keeps the
// quote and the execution path bit-identical.
func Calculate(checkin, cancelAt time.Time, paidAmount int64) PolicyResult {
	checkinDate := truncateToDate(checkin)
	cancelDate := truncateToDate(cancelAt)
	daysBefore := int(checkinDate.Sub(cancelDate).Hours() / 24)

	var rate int
	var code string
	switch {
	case daysBefore >= 7:
		rate, code = 100, CodeD7
	case daysBefore >= 5:
		rate, code = 90, CodeD6_5
	case daysBefore >= 3:
		rate, code = 70, CodeD4_3
	case daysBefore >= 1:
		rate, code = 50, CodeD2_1
	default:
		rate, code = 0, CodeNoShow
	}

	return PolicyResult{
		RefundRate:   rate,
		RefundAmount: paidAmount * int64(rate) / 100,
		PolicyCode:   code,
		DaysBefore:   daysBefore,
	}
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
