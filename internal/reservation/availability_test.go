package reservation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedActive(t *testing.T, repo *memRepo, roomID int64, checkin, checkout string, guests int, status Status) {
	t.Helper()
	res := &Reservation{
		RoomID:     roomID,
		Checkin:    mustDate(checkin),
		Checkout:   mustDate(checkout),
		GuestCount: guests,
		Status:     status,
	}
	require.NoError(t, repo.Create(context.Background(), res))
}

func TestAvailabilityExclusiveMode(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	calc := NewAvailabilityCalculator(repo)

	t.Run("Empty Room Is Available", func(t *testing.T) {
		ok, remaining, err := calc.IsAvailable(ctx, 1, 8, mustDate("2026-03-10"), mustDate("2026-03-12"), 0)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 8, remaining)
	})

	seedActive(t, repo, 1, "2026-03-11", "2026-03-13", 2, StatusConfirmed)

	t.Run("Any Overlap Blocks The Whole Room", func(t *testing.T) {
		ok, _, err := calc.IsAvailable(ctx, 1, 8, mustDate("2026-03-10"), mustDate("2026-03-12"), 0)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Back To Back Does Not Overlap", func(t *testing.T) {
		// New stay checks out the day the existing one checks in.
		ok, _, err := calc.IsAvailable(ctx, 1, 8, mustDate("2026-03-09"), mustDate("2026-03-11"), 0)
		require.NoError(t, err)
		assert.True(t, ok)

		// And a stay starting on the existing checkout day.
		ok, _, err = calc.IsAvailable(ctx, 1, 8, mustDate("2026-03-13"), mustDate("2026-03-15"), 0)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestAvailabilityCapacityMode(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	calc := NewAvailabilityCalculator(repo)

	// Room sleeps 10. Two stays overlap only on 03-12.
	seedActive(t, repo, 1, "2026-03-10", "2026-03-13", 4, StatusConfirmed)
	seedActive(t, repo, 1, "2026-03-12", "2026-03-14", 3, StatusCheckedIn)

	t.Run("Remaining Is The Tightest Day", func(t *testing.T) {
		ok, remaining, err := calc.IsAvailable(ctx, 1, 10, mustDate("2026-03-10"), mustDate("2026-03-14"), 2)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 3, remaining, "03-12 holds 4+3 of 10")
	})

	t.Run("Request Above Remaining Fails", func(t *testing.T) {
		ok, remaining, err := calc.IsAvailable(ctx, 1, 10, mustDate("2026-03-10"), mustDate("2026-03-14"), 4)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 3, remaining)
	})

	t.Run("Days Outside The Busy Range Are Unaffected", func(t *testing.T) {
		ok, remaining, err := calc.IsAvailable(ctx, 1, 10, mustDate("2026-03-14"), mustDate("2026-03-16"), 10)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 10, remaining)
	})

	t.Run("Pending Rows Hold Capacity", func(t *testing.T) {
		seedActive(t, repo, 2, "2026-03-10", "2026-03-11", 9, StatusPending)

		ok, remaining, err := calc.IsAvailable(ctx, 2, 10, mustDate("2026-03-10"), mustDate("2026-03-11"), 2)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 1, remaining)
	})

	t.Run("Exclusive Booking Fills The Room For Capacity Requests", func(t *testing.T) {
		seedActive(t, repo, 4, "2026-03-10", "2026-03-12", 0, StatusConfirmed)

		ok, remaining, err := calc.IsAvailable(ctx, 4, 10, mustDate("2026-03-11"), mustDate("2026-03-13"), 1)
		require.NoError(t, err)
		assert.False(t, ok, "a whole-room booking must not leave beds to share")
		assert.Equal(t, 0, remaining)

		// The night after the exclusive stay ends is open again.
		ok, remaining, err = calc.IsAvailable(ctx, 4, 10, mustDate("2026-03-12"), mustDate("2026-03-13"), 1)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 10, remaining)
	})

	t.Run("Cancelled And Deleted Rows Do Not Count", func(t *testing.T) {
		seedActive(t, repo, 3, "2026-03-10", "2026-03-11", 10, StatusCancelled)

		deleted := &Reservation{
			RoomID:     3,
			Checkin:    mustDate("2026-03-10"),
			Checkout:   mustDate("2026-03-11"),
			GuestCount: 10,
			Status:     StatusConfirmed,
			IsDeleted:  true,
		}
		require.NoError(t, repo.Create(ctx, deleted))

		ok, remaining, err := calc.IsAvailable(ctx, 3, 10, mustDate("2026-03-10"), mustDate("2026-03-11"), 10)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 10, remaining)
	})
}
