package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/hackgods/physician-calendar/internal/bootstrap"
	"github.com/hackgods/physician-calendar/internal/config"
	"github.com/hackgods/physician-calendar/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("dev", "info")
		bootLog.Fatal().Err(err).Msg("config load error")
	}

	log := logger.New(cfg.Env, cfg.LogLevel)
	log.Info().
		Str("env", cfg.Env).
		Dur("interval", cfg.SweepInterval).
		Str("inflight", cfg.InFlightBackend).
		Msg("completion-worker starting up")

	if cfg.InFlightBackend != "redis" {
		log.Warn().Msg("INFLIGHT_BACKEND is not redis; completions are not coordinated with other processes")
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(rootCtx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("bootstrap failed")
	}
	defer app.Close()

	app.Worker().Run(rootCtx)

	log.Info().Msg("completion-worker stopped")
}
