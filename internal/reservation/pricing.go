package reservation

import (
	"time"

	"github.com/jiwoopark/guesthouse-booking-backend/internal/room"
)

// StayPrice totals the nightly rate over [checkin, checkout).
// Friday and Saturday nights bill at the weekend price.
func StayPrice(rm *room.Room, checkin, checkout time.Time) int64 {
	var total int64
	for night := dateOf(checkin); night.Before(dateOf(checkout)); night = night.AddDate(0, 0, 1) {
		if wd := night.Weekday(); wd == time.Friday || wd == time.Saturday {
			total += rm.WeekendPrice
		} else {
			total += rm.BasePrice
		}
	}
	return total
}

// StayNights counts whole nights between the checkin and checkout dates.
func StayNights(checkin, checkout time.Time) int {
	return int(dateOf(checkout).Sub(dateOf(checkin)).Hours() / 24)
}
