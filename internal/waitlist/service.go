package waitlist

import (
	"context"
	"log"
	"time"

	"github.com/jiwoopark/guesthouse-booking-backend/internal/notify"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/room"
)

// RegisterRequest records a guest wanting a room/date range that is
// currently full.
type RegisterRequest struct {
	UserID     int64
	RoomID     int64
	Checkin    time.Time
	Checkout   time.Time
	GuestCount int
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*Entry, error)
	Cancel(ctx context.Context, id, requesterID int64) error

	// OnCapacityFreed promotes entries waiting on the freed range: entries
	// whose checkin is at least MinDaysBeforeCheckin away are notified and
	// given the 24h offer window; closer ones are dropped silently. The
	// method is best-effort: the cancellation that freed the capacity has
	// already committed, so failures are logged, never propagated.
	OnCapacityFreed(ctx context.Context, roomID int64, checkin, checkout time.Time)

	// Housekeeping sweeps, invoked by the scheduler. All idempotent:
	// running one twice produces the same end state as running it once.
	SweepExpired(ctx context.Context) (int, error)
	SweepPastCheckin(ctx context.Context) (int, error)
	SweepStale(ctx context.Context) (int, error)
}

type service struct {
	repo   Repository
	rooms  room.Repository
	mailer notify.Mailer
	now    func() time.Time
}

func NewService(repo Repository, rooms room.Repository, mailer notify.Mailer) Service {
	return &service{
		repo:   repo,
		rooms:  rooms,
		mailer: mailer,
		now:    time.Now,
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*Entry, error) {
	if !req.Checkout.After(req.Checkin) {
		return nil, ErrInvalidDateRange
	}

	rm, err := s.rooms.GetByID(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}

	active, err := s.repo.CountActiveByUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if active >= MaxActivePerUser {
		return nil, ErrLimitReached
	}

	dup, err := s.repo.ExistsActive(ctx, req.UserID, req.RoomID, req.Checkin, req.Checkout)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, ErrDuplicate
	}

	entry := &Entry{
		UserID:          req.UserID,
		RoomID:          rm.ID,
		AccommodationID: rm.AccommodationID,
		Checkin:         req.Checkin,
		Checkout:        req.Checkout,
		GuestCount:      req.GuestCount,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}

	log.Printf("waitlist registered: id=%d user=%d room=%d %s~%s",
		entry.ID, entry.UserID, entry.RoomID,
		entry.Checkin.Format("2006-01-02"), entry.Checkout.Format("2006-01-02"))
	return entry, nil
}

func (s *service) Cancel(ctx context.Context, id, requesterID int64) error {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if entry.UserID != requesterID {
		return ErrPermissionDenied
	}
	return s.repo.Delete(ctx, id)
}

func (s *service) OnCapacityFreed(ctx context.Context, roomID int64, checkin, checkout time.Time) {
	candidates, err := s.repo.ListNotNotifiedOverlapping(ctx, roomID, checkin, checkout)
	if err != nil {
		log.Printf("waitlist promotion failed: room=%d err=%v", roomID, err)
		return
	}
	if len(candidates) == 0 {
		return
	}

	rm, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		log.Printf("waitlist promotion failed: room=%d err=%v", roomID, err)
		return
	}

	now := s.now()
	minCheckin := now.AddDate(0, 0, MinDaysBeforeCheckin)

	for _, entry := range candidates {
		// Too close to checkin: drop instead of notify.
		if entry.Checkin.Before(minCheckin) {
			if err := s.repo.Delete(ctx, entry.ID); err != nil && err != ErrNotFound {
				log.Printf("drop near-checkin waitlist entry failed: id=%d err=%v", entry.ID, err)
			}
			continue
		}

		expiresAt := now.Add(OfferWindow)
		if err := s.repo.MarkNotified(ctx, entry.ID, now, expiresAt); err != nil {
			log.Printf("mark waitlist notified failed: id=%d err=%v", entry.ID, err)
			continue
		}

		// Every eligible waiter is told about the same freed slot; the
		// first one to book wins through the normal locked create path.
		s.mailer.SendWaitlistOpening(entry.UserEmail, notify.WaitlistOpening{
			AccommodationName: rm.AccommodationName,
			RoomName:          rm.Name,
			Checkin:           entry.Checkin.Format("2006.01.02"),
			Checkout:          entry.Checkout.Format("2006.01.02"),
			ExpiresHours:      int(OfferWindow.Hours()),
		})
		log.Printf("waitlist notified: id=%d user=%d room=%d expires=%s",
			entry.ID, entry.UserID, roomID, expiresAt.Format(time.RFC3339))
	}
}

func (s *service) SweepExpired(ctx context.Context) (int, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}

func (s *service) SweepPastCheckin(ctx context.Context) (int, error) {
	return s.repo.DeletePastCheckin(ctx, s.now())
}

func (s *service) SweepStale(ctx context.Context) (int, error) {
	return s.repo.DeleteOlderThan(ctx, s.now().AddDate(0, 0, -StaleAgeDays))
}
