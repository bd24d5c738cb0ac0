package reservation

import (
	"context"
	"time"
)

// AvailabilityCalculator decides whether a room can take another booking.
// It only reads; the caller must hold the room lock when the answer is used
// to insert a reservation, otherwise two requests can both see "available"
// and both book (check-then-act race).
type AvailabilityCalculator struct {
	repo Repository
}

func NewAvailabilityCalculator(repo Repository) *AvailabilityCalculator {
	return &AvailabilityCalculator{repo: repo}
}

// IsAvailable reports whether the room can accept guestCount more guests
// over [checkin, checkout), and how many guests still fit on the tightest
// day of that range.
//
// Two modes:
//   - guestCount == 0 (exclusive): the whole room is requested; available
//     iff no active reservation overlaps the range at all.
//   - guestCount > 0 (capacity): for every calendar day in the range, the
//     sum of overlapping active guest counts plus the request must stay
//     within maxGuests. An overlapping exclusive reservation counts as
//     maxGuests on its days, so no capacity request can share with it.
func (a *AvailabilityCalculator) IsAvailable(ctx context.Context, roomID int64, maxGuests int, checkin, checkout time.Time, guestCount int) (bool, int, error) {
	existing, err := a.repo.ListOverlappingActive(ctx, roomID, checkin, checkout)
	if err != nil {
		return false, 0, err
	}

	if guestCount <= 0 {
		if len(existing) > 0 {
			return false, 0, nil
		}
		return true, maxGuests, nil
	}

	remaining := maxGuests
	for day := dateOf(checkin); day.Before(dateOf(checkout)); day = day.AddDate(0, 0, 1) {
		dayEnd := day.AddDate(0, 0, 1)

		occupied := 0
		for _, res := range existing {
			if !res.Overlaps(day, dayEnd) {
				continue
			}
			// An exclusive booking carries guest count 0 but owns the whole
			// room for its nights; it occupies every bed, not zero of them.
			if res.GuestCount <= 0 {
				occupied = maxGuests
				break
			}
			occupied += res.GuestCount
		}

		if maxGuests-occupied < remaining {
			remaining = maxGuests - occupied
		}
	}

	return guestCount <= remaining, remaining, nil
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
