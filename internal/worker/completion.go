package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/physician-calendar/internal/appointment"
)

// Calendar is the part of the appointment service the worker drives.
type Calendar interface {
	Refresh(ctx context.Context) error
	SweepAutoCompletion(ctx context.Context) appointment.SweepResult
}

type Config struct {
	Interval     time.Duration // time between sweeps
	RefetchDelay time.Duration // pause before re-reading the store after completions
	Timeout      time.Duration // upper bound for one run
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = time.Minute
	}
	if c.RefetchDelay < 0 {
		c.RefetchDelay = 0
	}
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}
	return c
}

// CompletionWorker periodically completes appointments whose end plus the
// grace period has passed.
type CompletionWorker struct {
	cal    Calendar
	cfg    Config
	logger zerolog.Logger
}

func NewCompletionWorker(cal Calendar, cfg Config, logger zerolog.Logger) *CompletionWorker {
	return &CompletionWorker{
		cal:    cal,
		cfg:    cfg.withDefaults(),
		logger: logger.With().Str("module", "completion-worker").Logger(),
	}
}

// Run sweeps once immediately and then on every tick until ctx ends.
func (w *CompletionWorker) Run(ctx context.Context) {
	w.logger.Info().Dur("interval", w.cfg.Interval).Msg("completion worker started")

	w.RunOnce(ctx)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("completion worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce refreshes the view, sweeps it, and if anything was completed
// waits RefetchDelay before refreshing again so the store's writes show up.
func (w *CompletionWorker) RunOnce(ctx context.Context) appointment.SweepResult {
	runCtx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	start := time.Now()
	if err := w.cal.Refresh(runCtx); err != nil {
		w.logger.Warn().Err(err).Msg("refresh before sweep failed, sweeping the current view")
	}

	res := w.cal.SweepAutoCompletion(runCtx)
	w.logger.Info().
		Int("completed", len(res.Completed)).
		Int("failed", len(res.Failed)).
		Int("in_flight", res.InFlight).
		Dur("took", time.Since(start)).
		Msg("completion sweep finished")

	if len(res.Completed) == 0 {
		return res
	}

	timer := time.NewTimer(w.cfg.RefetchDelay)
	defer timer.Stop()
	select {
	case <-runCtx.Done():
		return res
	case <-timer.C:
	}

	if err := w.cal.Refresh(runCtx); err != nil {
		w.logger.Warn().Err(err).Msg("refresh after completions failed")
	}
	return res
}
