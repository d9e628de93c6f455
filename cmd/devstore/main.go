package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/joho/godotenv"

	"github.com/hackgods/physician-calendar/internal/api"
	"github.com/hackgods/physician-calendar/internal/calendar"
	"github.com/hackgods/physician-calendar/internal/logger"
	"github.com/hackgods/physician-calendar/internal/remote"
)

// devstore serves the remote appointment store contract from memory, seeded
// with a few days of fake bookings around today.
func main() {
	_ = godotenv.Load()

	log := logger.New(getEnv("APP_ENV", "dev"), getEnv("LOG_LEVEL", "info"))
	port := getEnv("DEVSTORE_PORT", "9090")
	doctorID := getEnv("DOCTOR_ID", "1")
	days, err := strconv.Atoi(getEnv("DEVSTORE_DAYS", "3"))
	if err != nil || days < 1 {
		days = 3
	}

	gofakeit.Seed(0)

	store := remote.NewMemoryStore(doctorID)
	seeded := seedBookings(store, calendar.LocalNow(time.Now()).Date(), days)
	log.Info().Int("appointments", seeded).Str("doctor_id", doctorID).Msg("devstore seeded")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           api.RequestIDMiddleware(api.LoggingMiddleware(log)(remote.NewHandler(store))),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("devstore listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("devstore server failed")
			stop()
		}
	}()

	<-rootCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info().Msg("devstore stopped")
}

// seedBookings fills each day with a morning and an afternoon block of
// appointments on a 15 minute grid. Some stay open, a few are cancelled.
func seedBookings(store *remote.MemoryStore, first calendar.Date, days int) int {
	durations := []int{15, 20, 30, 45}
	count := 0

	for d := 0; d < days; d++ {
		date := first.At(calendar.Clock{}).AddMinutes(d * 24 * 60).Date()

		for _, blockStart := range []int{8 * 60, 13 * 60} {
			cursor := date.At(calendar.Clock{}).AddMinutes(blockStart + 15*gofakeit.Number(0, 4))
			n := gofakeit.Number(2, 5)
			for i := 0; i < n; i++ {
				minutes := durations[gofakeit.Number(0, len(durations)-1)]

				a := calendar.Appointment{
					StartTimestamp: cursor.Canonical(),
					Status:         calendar.StatusScheduled,
				}
				switch roll := gofakeit.Number(1, 10); {
				case roll <= 2:
					// open slot
				case roll == 3:
					a.PatientID = patientID()
					a.Status = calendar.StatusCancelled
				default:
					a.PatientID = patientID()
				}
				// the real store rarely reports durations
				if gofakeit.Number(1, 4) == 1 {
					a.DurationMinutes = minutes
				}
				store.Add(a)
				count++

				cursor = cursor.AddMinutes(minutes + 15*gofakeit.Number(0, 2))
			}
		}
	}
	return count
}

func patientID() string {
	return strconv.Itoa(gofakeit.Number(1000, 99999))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
