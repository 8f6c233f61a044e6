// The sweeper periodically rolls over paid accounts whose billing period has
// lapsed. The API's lazy reset-on-read stays authoritative; this keeps
// counters fresh for anything reading the table directly.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ledger/internal/infra"
	"ledger/internal/sqlinline"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "sweeper").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("sweeper: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)

	logger.Info().Msgf("sweeping lapsed periods every %s", cfg.SweepInterval)
	sweep(ctx, runner, logger)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("sweeper stopped")
			return
		case <-ticker.C:
			sweep(ctx, runner, logger)
		}
	}
}

func sweep(ctx context.Context, runner *infra.SQLRunner, logger infra.Logger) {
	sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tag, err := runner.Exec(sweepCtx, sqlinline.QSweepLapsedPeriods)
	if err != nil {
		logger.Error().Err(err).Msg("sweep failed")
		return
	}
	if rows := tag.RowsAffected(); rows > 0 {
		logger.Info().Msgf("rolled %d accounts into the new period", rows)
	}
}
