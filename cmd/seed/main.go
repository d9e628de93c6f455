package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/hackgods/physician-calendar/internal/bootstrap"
	"github.com/hackgods/physician-calendar/internal/calendar"
	"github.com/hackgods/physician-calendar/internal/config"
	"github.com/hackgods/physician-calendar/internal/logger"
)

const seedDays = 5

// seed opens runs of slots for the coming days through the calendar service,
// so every slot passes the conflict check and lands in the duration ledger.
func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("dev", "info")
		bootLog.Fatal().Err(err).Msg("config load error")
	}
	log := logger.New(cfg.Env, cfg.LogLevel)
	log.Info().Int("days", seedDays).Msg("seed starting")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(rootCtx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("bootstrap failed")
	}
	defer app.Close()

	if err := app.Service.Refresh(rootCtx); err != nil {
		log.Fatal().Err(err).Msg("initial refresh failed")
	}

	gofakeit.Seed(0)

	durations := []int{15, 20, 30, 45}
	today := calendar.LocalNow(time.Now()).Date()
	var created, failed int

	for d := 1; d <= seedDays; d++ {
		date := today.At(calendar.Clock{}).AddMinutes(d * 24 * 60).Date()

		req := calendar.SlotRequest{
			Date:                 date.String(),
			StartTime:            calendar.Clock{Hour: gofakeit.Number(8, 10), Minute: 15 * gofakeit.Number(0, 3)}.String(),
			Count:                gofakeit.Number(4, 10),
			SlotDurationMinutes:  durations[gofakeit.Number(0, len(durations)-1)],
			BreakDurationMinutes: 5 * gofakeit.Number(0, 2),
			ConstrainToSameDay:   true,
		}

		slots := app.Service.PreviewSlots(req)
		if batch := app.Service.CheckBatch(slots); batch.HasConflicts {
			log.Warn().Str("date", req.Date).Int("conflicts", batch.TotalConflictCount).Msg("some slots overlap existing bookings and will be skipped")
		}

		res := app.Service.OpenSlots(rootCtx, slots)
		created += len(res.Created)
		failed += len(res.Failed)
		for _, f := range res.Failed {
			log.Warn().Str("slot", f.Timestamp).Err(f.Err).Msg("slot not created")
		}
		if res.Err != nil {
			log.Warn().Err(res.Err).Msg("seed interrupted")
			break
		}
		log.Info().Str("date", req.Date).Int("created", len(res.Created)).Msg("day seeded")
	}

	log.Info().Int("created", created).Int("failed", failed).Msg("seed complete")
}
