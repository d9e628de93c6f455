package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hackgods/physician-calendar/internal/appointment"
	"github.com/hackgods/physician-calendar/internal/config"
	"github.com/hackgods/physician-calendar/internal/db"
	"github.com/hackgods/physician-calendar/internal/ledger"
	redisclient "github.com/hackgods/physician-calendar/internal/redis"
	"github.com/hackgods/physician-calendar/internal/remote"
	"github.com/hackgods/physician-calendar/internal/worker"
)

// App holds everything a binary needs to serve one physician's calendar.
// Redis and Postgres are nil unless a backend uses them.
type App struct {
	Config   config.Config
	Logger   zerolog.Logger
	Remote   *remote.Client
	Ledger   ledger.Store
	Service  *appointment.Service
	Redis    *redis.Client
	Postgres *pgxpool.Pool
}

// New connects the configured backends and builds the service. The caller
// must Close the app.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger}

	if cfg.NeedsRedis() {
		rdb, err := redisclient.NewRedisClient(ctx, redisclient.Options{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("redis connection error: %w", err)
		}
		app.Redis = rdb
		logger.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")
	}

	policy := ledger.Policy{Retention: cfg.LedgerRetention, MaxEntries: cfg.LedgerMaxEntries}
	switch cfg.LedgerBackend {
	case "redis":
		app.Ledger = ledger.NewRedisStore(app.Redis, policy)
	case "postgres":
		pgCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, 0)
		cancel()
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("postgres connection error: %w", err)
		}
		app.Postgres = pool
		logger.Info().Msg("connected to Postgres")

		store := ledger.NewPostgresStore(pool, policy)
		if err := store.EnsureSchema(ctx); err != nil {
			app.Close()
			return nil, fmt.Errorf("ledger schema: %w", err)
		}
		app.Ledger = store
	default:
		app.Ledger = ledger.NewMemoryStore(policy)
	}

	var inflight appointment.InFlight = appointment.NewMemoryInFlight()
	if cfg.InFlightBackend == "redis" {
		inflight = redisclient.NewInFlight(app.Redis, cfg.InFlightTTL)
	}

	app.Remote = remote.NewClient(remote.ClientConfig{
		BaseURL:  cfg.RemoteStoreURL,
		DoctorID: cfg.DoctorID,
		Token:    cfg.RemoteStoreToken,
		Timeout:  cfg.RemoteTimeout,
	}, logger)

	app.Service = appointment.NewService(app.Remote, app.Ledger, inflight, cfg.Rules(), logger)

	logger.Info().
		Str("ledger", cfg.LedgerBackend).
		Str("inflight", cfg.InFlightBackend).
		Str("doctor_id", cfg.DoctorID).
		Msg("calendar service ready")
	return app, nil
}

// Worker builds the auto-completion worker from the sweep settings.
func (a *App) Worker() *worker.CompletionWorker {
	return worker.NewCompletionWorker(a.Service, worker.Config{
		Interval:     a.Config.SweepInterval,
		RefetchDelay: a.Config.RefetchDelay,
		Timeout:      a.Config.SweepTimeout,
	}, a.Logger)
}

func (a *App) Close() {
	if a.Postgres != nil {
		a.Postgres.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("error closing redis")
		}
	}
}
