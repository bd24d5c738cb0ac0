package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jiwoopark/guesthouse-booking-backend/internal/coupon"
	couponHttp "github.com/jiwoopark/guesthouse-booking-backend/internal/coupon/http"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/identity"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/reservation"
	reservationHttp "github.com/jiwoopark/guesthouse-booking-backend/internal/reservation/http"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/waitlist"
	waitlistHttp "github.com/jiwoopark/guesthouse-booking-backend/internal/waitlist/http"
)

// Config carries the services the router exposes.
type Config struct {
	IsProduction       bool
	ProdOrigins        string
	ReservationService reservation.Service
	WaitlistService    waitlist.Service
	CouponService      coupon.Service
}

// NewRouter initializes the HTTP router engine.
// It assembles middleware (CORS, Logger, identity) and registers routes for
// each module under /v1.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()

	// Logger logs request information; Recovery captures panics and
	// returns a 500 instead of crashing the server.
	r.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		corsConfig.AllowOrigins = []string{cfg.ProdOrigins}
	} else {
		corsConfig.AllowOrigins = []string{
			"http://localhost:8081", // Swagger
		}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", identity.HeaderUserID}
	r.Use(cors.New(corsConfig))

	// The gateway authenticates callers and forwards their id; this
	// middleware only verifies the header is present and well formed.
	identityMiddleware := identity.Required()

	reservationHandler := reservationHttp.NewHandler(cfg.ReservationService)
	waitlistHandler := waitlistHttp.NewHandler(cfg.WaitlistService)
	couponHandler := couponHttp.NewHandler(cfg.CouponService)

	v1 := r.Group("/v1")
	{
		reservationHttp.RegisterRoutes(v1, reservationHandler, identityMiddleware)
		waitlistHttp.RegisterRoutes(v1, waitlistHandler, identityMiddleware)
		couponHttp.RegisterRoutes(v1, couponHandler, identityMiddleware)
	}

	return r
}
