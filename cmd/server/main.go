package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jiwoopark/guesthouse-booking-backend/internal/app"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/config"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/db"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/notify"
	"github.com/jiwoopark/guesthouse-booking-backend/internal/redisdb"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer pool.Close()

	// Connect redis (locks and coupon ledgers)
	redisClient, err := redisdb.NewClient(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var mailer notify.Mailer = notify.LogMailer{}
	if cfg.SMTPHost != "" {
		mailer = notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	}

	container := app.NewContainer(app.Config{
		IsProduction:          cfg.IsProduction,
		ProdOrigins:           cfg.ProdOrigins,
		DBPool:                pool,
		Redis:                 redisClient,
		LockWaitTimeout:       cfg.LockWaitTimeout,
		LockLeaseTimeout:      cfg.LockLeaseTimeout,
		PendingReservationTTL: cfg.PendingReservationTTL,
		Mailer:                mailer,
	})

	// Rebuild today's coupon ledgers before accepting traffic; a restart
	// must not hand out coupons the database already recorded.
	if err := container.CouponService.Reconcile(ctx); err != nil {
		log.Fatalf("failed to reconcile coupon ledgers: %v", err)
	}

	if err := container.Scheduler.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: container.Router,
	}

	// Run server in separate goroutine
	go func() {
		log.Printf("server running on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	log.Println("shutdown signal received")

	container.Scheduler.Stop()

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	log.Println("server exited gracefully")
}
