package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/jiwoopark/guesthouse-booking-backend/internal/api"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/coupon"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/lock"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/notify"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/reservation"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/room"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/scheduler"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/waitlist"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	Redis        *redis.Client

	LockWaitTimeout       time.Duration
	LockLeaseTimeout      time.Duration
	PendingReservationTTL time.Duration

	Mailer notify.Mailer
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router             *gin.Engine
	Scheduler          *scheduler.Scheduler
	ReservationService reservation.Service
	WaitlistService    waitlist.Service
	CouponService      coupon.Service
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	// Shared components
	locks := lock.NewRedisCoordinator(cfg.Redis, cfg.LockWaitTimeout, cfg.LockLeaseTimeout)
	roomRepo := room.NewPgxRepository(cfg.DBPool)

	// Waitlist module
	waitlistRepo := waitlist.NewPgxRepository(cfg.DBPool)
	waitlistService := waitlist.NewService(waitlistRepo, roomRepo, cfg.Mailer)

	// Coupon module
	couponRepo := coupon.NewPgxRepository(cfg.DBPool)
	userCouponRepo := coupon.NewPgxUserCouponRepository(cfg.DBPool)
	couponLedger := coupon.NewRedisLedger(cfg.Redis)
	couponService := coupon.NewService(couponRepo, userCouponRepo, couponLedger, locks)

	// Reservation module
	reservationRepo := reservation.NewPgxRepository(cfg.DBPool)
	availability := reservation.NewAvailabilityCalculator(reservationRepo)
	reservationService := reservation.NewService(
		reservationRepo,
		roomRepo,
		availability,
		locks,
		waitlistService,
		couponService,
		cfg.PendingReservationTTL,
	)

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:       cfg.IsProduction,
		ProdOrigins:        cfg.ProdOrigins,
		ReservationService: reservationService,
		WaitlistService:    waitlistService,
		CouponService:      couponService,
	})

	// Background jobs
	jobs := scheduler.New(reservationService, waitlistService, couponService)

	return &Container{
		Router:             router,
		Scheduler:          jobs,
		ReservationService: reservationService,
		WaitlistService:    waitlistService,
		CouponService:      couponService,
	}
}
