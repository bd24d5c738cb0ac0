package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/jiwoopark/guesthouse-booking-backend/internal/pkg/apperror"
)

// ErrNotAcquired is returned when the lease cannot be obtained within the
// coordinator's wait timeout. It is a conflict-class error: the caller may
// retry, nothing is wrong with the request itself.
var ErrNotAcquired = apperror.Conflict("resource is busy, please try again shortly")

// Lease is a time-bounded ownership token for a named resource.
// It must be released after the protected work commits or rolls back.
type Lease struct {
	Key   string
	Token string
}

// Coordinator serializes operations on a named resource.
//
// Usage discipline: acquire before opening any transactional state and
// release after it commits, so the lease scope strictly contains the
// critical section. Nested acquisition of the same key by one caller is not
// supported and will deadlock until the wait timeout.
//
// The lease timeout is a crash safety valve only: if the holder dies
// without releasing, the lease force-expires so the resource is not starved
// forever. A holder that outlives its lease is not fenced out of in-flight
// writes; critical sections must finish well within the lease.
type Coordinator interface {
	// Acquire blocks up to the wait timeout trying to obtain the lease for
	// key. It returns ErrNotAcquired if the lease is held by someone else
	// for the whole wait window.
	Acquire(ctx context.Context, key string) (*Lease, error)

	// Release gives up the lease. Releasing an already-expired lease is a
	// no-op.
	Release(ctx context.Context, lease *Lease) error
}

// RoomKey derives the lock key serializing create/cancel operations on a room.
func RoomKey(roomID int64) string {
	return fmt.Sprintf("room:%d", roomID)
}

// CouponKey derives the lock key serializing issuance of a coupon on a
// given calendar day.
func CouponKey(couponID int64, day time.Time) string {
	return fmt.Sprintf("coupon:%d:%s", couponID, day.Format("2006-01-02"))
}
