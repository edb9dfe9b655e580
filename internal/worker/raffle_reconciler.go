package worker

// raffle_reconciler.go
// Background goroutine that periodically backfills raffle tickets for recent
// sales whose post-commit allocation failed. Allocation is idempotent per
// sale, so reconciling the same window twice issues nothing new.

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type ticketReconciler interface {
	ReconcileRecent(ctx context.Context, window time.Duration) (int, error)
}

// RaffleReconcilerConfig holds all dependencies for the reconciler goroutine.
type RaffleReconcilerConfig struct {
	Raffles  ticketReconciler
	Interval time.Duration
	Window   time.Duration
}

// StartRaffleReconciler launches a goroutine that ticks every Interval and
// reconciles sales created within Window. It respects ctx for graceful shutdown.
// The returned channel is closed once the goroutine exits.
func StartRaffleReconciler(ctx context.Context, cfg RaffleReconcilerConfig) <-chan struct{} {
	done := make(chan struct{})
	if cfg.Interval <= 0 {
		close(done)
		return done
	}
	go func() {
		defer close(done)
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Dur("window", cfg.Window).Msg("raffle_reconciler: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("raffle_reconciler: shutting down")
				return
			case <-ticker.C:
				reconcileOnce(ctx, cfg)
			}
		}
	}()
	return done
}

func reconcileOnce(ctx context.Context, cfg RaffleReconcilerConfig) {
	n, err := cfg.Raffles.ReconcileRecent(ctx, cfg.Window)
	if err != nil {
		log.Error().Err(err).Int("issued", n).Msg("raffle_reconciler: reconcile failed")
		return
	}
	if n > 0 {
		log.Info().Int("issued", n).Msg("raffle_reconciler: backfilled missing tickets")
	}
}
