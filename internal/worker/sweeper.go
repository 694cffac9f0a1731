package worker

// sweeper.go
// Background goroutine that periodically finds digital orders stuck in
// payment_status='pending' past the recheck age and enqueues a provider
// recheck for each. A lost webhook therefore delays settlement, it never
// loses it. Uses the circuit breaker state to avoid hammering a downed
// provider.

import (
	"context"
	"time"

	"kasirless/internal/infra"
	"kasirless/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	sweepTickInterval = 60 * time.Second
	sweepBatchSize    = 20
)

// SweeperConfig holds all dependencies for the sweep goroutine.
type SweeperConfig struct {
	Orders     repository.OrderRepository
	Dispatcher *Dispatcher
	CB         *infra.CircuitBreaker
	// RecheckAge is how old a pending digital order must be before its
	// invoice gets re-checked. Zero disables the sweeper.
	RecheckAge time.Duration
}

// StartSweeper launches the background goroutine. It respects the context
// for graceful shutdown.
func StartSweeper(ctx context.Context, cfg SweeperConfig) {
	if cfg.RecheckAge <= 0 {
		log.Info().Msg("sweeper: disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(sweepTickInterval)
		defer ticker.Stop()

		log.Info().Dur("recheck_age", cfg.RecheckAge).Msg("sweeper: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("sweeper: shutting down")
				return
			case <-ticker.C:
				sweep(ctx, cfg)
			}
		}
	}()
}

func sweep(ctx context.Context, cfg SweeperConfig) {
	// If CB is open, skip entirely — don't hammer a downed provider
	if cfg.CB != nil && cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("sweeper: circuit breaker is open, skipping tick")
		return
	}

	cutoff := time.Now().Add(-cfg.RecheckAge)
	stale, err := cfg.Orders.ListStalePendingDigital(ctx, cutoff, sweepBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("sweeper: failed to query stale pending orders")
		return
	}
	if len(stale) == 0 {
		return
	}

	log.Info().Int("count", len(stale)).Msg("sweeper: enqueueing payment rechecks")
	for i := range stale {
		if err := cfg.Dispatcher.EnqueuePaymentRecheck(ctx, stale[i].ID); err != nil {
			log.Error().Err(err).Str("order_id", stale[i].ID.String()).Msg("sweeper: enqueue failed")
		}
	}
}
