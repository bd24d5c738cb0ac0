package reservation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jiwoopark/guesthouse-booking-backend/internal/room"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStayPrice(t *testing.T) {
	rm := &room.Room{BasePrice: 100_000, WeekendPrice: 150_000}

	t.Run("Weekday Nights Bill Base Rate", func(t *testing.T) {
		// Mon 2026-03-02 -> Wed 2026-03-04: two weekday nights.
		total := StayPrice(rm, date(2026, 3, 2), date(2026, 3, 4))
		assert.Equal(t, int64(200_000), total)
	})

	t.Run("Friday And Saturday Nights Bill Weekend Rate", func(t *testing.T) {
		// Thu 2026-03-05 -> Sun 2026-03-08: Thu base, Fri+Sat weekend.
		total := StayPrice(rm, date(2026, 3, 5), date(2026, 3, 8))
		assert.Equal(t, int64(100_000+2*150_000), total)
	})

	t.Run("Checkout Day Is Not A Night", func(t *testing.T) {
		// Sat 2026-03-07 -> Sun 2026-03-08: one weekend night only.
		total := StayPrice(rm, date(2026, 3, 7), date(2026, 3, 8))
		assert.Equal(t, int64(150_000), total)
	})

	t.Run("Clock Parts Do Not Change The Price", func(t *testing.T) {
		lateCheckin := time.Date(2026, 3, 5, 15, 0, 0, 0, time.UTC)
		earlyCheckout := time.Date(2026, 3, 8, 11, 0, 0, 0, time.UTC)
		assert.Equal(t,
			StayPrice(rm, date(2026, 3, 5), date(2026, 3, 8)),
			StayPrice(rm, lateCheckin, earlyCheckout))
	})
}

func TestStayNights(t *testing.T) {
	assert.Equal(t, 1, StayNights(date(2026, 3, 7), date(2026, 3, 8)))
	assert.Equal(t, 3, StayNights(date(2026, 3, 5), date(2026, 3, 8)))
	assert.Equal(t, 3, StayNights(
		time.Date(2026, 3, 5, 15, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 8, 11, 0, 0, 0, time.UTC)))
}
