package scheduler

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/jiwoopark/guesthouse-booking-backend/internal/coupon"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/reservation"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/waitlist"
)

// Scheduler owns the recurring maintenance jobs. Every job is idempotent,
// so a skipped or doubled run never corrupts state.
type Scheduler struct {
	cron         *cron.Cron
	reservations reservation.Service
	waitlists    waitlist.Service
	coupons      coupon.Service
}

func New(reservations reservation.Service, waitlists waitlist.Service, coupons coupon.Service) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		reservations: reservations,
		waitlists:    waitlists,
		coupons:      coupons,
	}
}

// Start registers the jobs and launches the cron loop.
func (s *Scheduler) Start() error {
	// Midnight: reset the day's coupon ledgers and age out dead waitlist
	// entries.
	if _, err := s.cron.AddFunc("0 0 * * *", s.midnight); err != nil {
		return err
	}

	// Hourly: drop waitlist offers whose 24h window closed.
	if _, err := s.cron.AddFunc("0 * * * *", s.hourly); err != nil {
		return err
	}

	// Every 10 minutes: purge unpaid PENDING reservations past the grace
	// window and promote waitlists for the freed capacity.
	if _, err := s.cron.AddFunc("*/10 * * * *", s.purgeAbandoned); err != nil {
		return err
	}

	s.cron.Start()
	log.Println("scheduler started")
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("scheduler stopped")
}

func (s *Scheduler) midnight() {
	ctx := context.Background()

	if err := s.coupons.Reconcile(ctx); err != nil {
		log.Printf("coupon reconcile failed: %v", err)
	}

	if n, err := s.waitlists.SweepPastCheckin(ctx); err != nil {
		log.Printf("waitlist past-checkin sweep failed: %v", err)
	} else if n > 0 {
		log.Printf("waitlist past-checkin sweep removed %d entries", n)
	}

	if n, err := s.waitlists.SweepStale(ctx); err != nil {
		log.Printf("waitlist stale sweep failed: %v", err)
	} else if n > 0 {
		log.Printf("waitlist stale sweep removed %d entries", n)
	}
}

func (s *Scheduler) hourly() {
	if n, err := s.waitlists.SweepExpired(context.Background()); err != nil {
		log.Printf("waitlist expiry sweep failed: %v", err)
	} else if n > 0 {
		log.Printf("waitlist expiry sweep removed %d entries", n)
	}
}

func (s *Scheduler) purgeAbandoned() {
	if n, err := s.reservations.PurgeAbandoned(context.Background()); err != nil {
		log.Printf("abandoned reservation purge failed: %v", err)
	} else if n > 0 {
		log.Printf("purged %d abandoned reservations", n)
	}
}
