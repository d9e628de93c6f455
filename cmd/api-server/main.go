package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hackgods/physician-calendar/internal/api"
	"github.com/hackgods/physician-calendar/internal/bootstrap"
	"github.com/hackgods/physician-calendar/internal/config"
	"github.com/hackgods/physician-calendar/internal/logger"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("dev", "info")
		bootLog.Fatal().Err(err).Msg("config load error")
	}

	log := logger.New(cfg.Env, cfg.LogLevel)
	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(rootCtx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("bootstrap failed")
	}
	defer app.Close()

	// The store may still be starting; the worker's first run refreshes again.
	if err := app.Service.Refresh(rootCtx); err != nil {
		log.Warn().Err(err).Msg("initial refresh failed")
	}

	checks := []api.HealthCheck{{Name: "remote_store", Critical: true, Check: app.Remote.Ping}}
	if app.Redis != nil {
		checks = append(checks, api.HealthCheck{Name: "redis", Check: func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		}})
	}
	if app.Postgres != nil {
		checks = append(checks, api.HealthCheck{Name: "postgres", Check: app.Postgres.Ping})
	}

	router := api.NewRouter(api.RouterConfig{
		Service: app.Service,
		Checks:  checks,
		Logger:  log,
		Env:     cfg.Env,
		Version: version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		app.Worker().Run(rootCtx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-rootCtx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		log.Error().Err(err).Msg("http server failed")
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}
	<-workerDone

	log.Info().Msg("api-server stopped")
}
