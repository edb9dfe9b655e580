package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rifapos/internal/config"
	"rifapos/internal/infra"
	"rifapos/internal/middleware"
	"rifapos/internal/router"
	"rifapos/internal/service"
	"rifapos/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("service", "rifapos").Logger()
	}

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL, cfg.DBAutoMigrate)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Receipt e-mails only flow when SMTP is configured
	mailer := infra.NewMailer(cfg)
	var mailQueue service.ReceiptEmailQueue
	if mailer.Enabled() {
		mailQueue = worker.NewDispatcher(rdb)
	} else {
		log.Warn().Msg("SMTP_HOST not set: receipt e-mails disabled")
	}

	svcs := router.NewServices(cfg, db, rdb, mailQueue)
	limiter := middleware.NewIPRateLimiter(cfg.PublicRateLimit)
	r := router.New(cfg, db, rdb, svcs, limiter)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// Worker pool for async receipt e-mails
	if mailer.Enabled() {
		pool := worker.NewPool(rdb, cfg.WorkerPoolSize)
		smtpCB := infra.NewCircuitBreaker(infra.DefaultCBConfig("smtp"))
		pool.Register(worker.QueueReceiptEmail, worker.JobReceiptEmail,
			worker.NewReceiptEmailWorker(svcs.Receipts, infra.NewReceiptPDF(cfg.ReceiptLocale), mailer, smtpCB))
		g.Go(func() error { return pool.Run(gctx) })
	}

	// Ticket backfill for sales whose post-commit allocation failed
	g.Go(func() error {
		<-worker.StartRaffleReconciler(gctx, worker.RaffleReconcilerConfig{
			Raffles:  svcs.Raffles,
			Interval: cfg.RaffleReconcileInterval,
			Window:   cfg.RaffleReconcileWindow,
		})
		return nil
	})

	g.Go(func() error {
		limiter.RunPurge(gctx.Done())
		return nil
	})

	g.Go(func() error {
		log.Info().Msgf("rifapos backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown on SIGINT / SIGTERM or a failed component
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = rdb.Close()
	log.Info().Msg("server exited")
}
