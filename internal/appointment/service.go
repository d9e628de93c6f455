package appointment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/physician-calendar/internal/calendar"
	"github.com/hackgods/physician-calendar/internal/ledger"
)

var (
	ErrAppointmentNotFound   = errors.New("appointment not found")
	ErrSlotConflict          = errors.New("slot overlaps an existing booking")
	ErrSlotInPast            = errors.New("slot starts in the past")
	ErrNotCompletable        = errors.New("appointment cannot be completed")
	ErrCompletionInFlight    = errors.New("completion already in progress")
	ErrInvalidCompletionEcho = errors.New("remote store returned an invalid completed appointment")
	ErrRemote                = errors.New("remote store call failed")
)

// pendingPrefix marks placeholder records for slots whose creation is in flight.
const pendingPrefix = "pending:"

type Service struct {
	store    RemoteStore
	ledger   ledger.Store
	inflight InFlight
	rules    calendar.Rules
	logger   zerolog.Logger
	now      func() time.Time

	// mutMu serialises refreshes and mutations, so a rollback restores
	// exactly the view it captured.
	mutMu sync.Mutex

	mu   sync.RWMutex
	view view
}

func NewService(store RemoteStore, durations ledger.Store, inflight InFlight, rules calendar.Rules, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		ledger:   durations,
		inflight: inflight,
		rules:    rules,
		logger:   logger.With().Str("module", "appointment").Logger(),
		now:      time.Now,
		view: view{
			durations: ledger.Durations{},
			terminal:  map[string]calendar.Status{},
		},
	}
}

// WithClock replaces the wall clock used for past checks, expiry and the sweep.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Rules() calendar.Rules { return s.rules }

func (s *Service) current() view {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

func (s *Service) update(fn func(next *view)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.view.clone()
	fn(&next)
	s.view = next
}

func (s *Service) restore(snap view) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = snap
}

func (s *Service) planner(v view) calendar.Planner {
	return calendar.NewPlanner(s.rules, v.durations)
}

func (s *Service) localNow() calendar.LocalDateTime {
	return calendar.LocalNow(s.now())
}

// Refresh replaces the local view with the remote store's scheduled
// appointments. Terminal statuses seen earlier are kept and elapsed open
// slots are shown as expired.
func (s *Service) Refresh(ctx context.Context) error {
	s.mutMu.Lock()
	defer s.mutMu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *Service) refreshLocked(ctx context.Context) error {
	fetched, err := s.store.FetchScheduled(ctx)
	if err != nil {
		return &RemoteError{Op: "fetch scheduled", Err: err}
	}

	keys := make([]string, 0, len(fetched))
	for _, a := range fetched {
		keys = append(keys, a.StartTimestamp)
		if start, err := a.Start(); err == nil && start.Canonical() != a.StartTimestamp {
			keys = append(keys, start.Canonical())
		}
	}
	durations, err := ledger.Resolve(ctx, s.ledger, keys)
	if err != nil {
		s.logger.Warn().Err(err).Msg("some slot durations could not be resolved, using defaults")
	}

	prev := s.current()
	terminal := make(map[string]calendar.Status, len(prev.terminal))
	for id, st := range prev.terminal {
		terminal[id] = st
	}

	now := s.localNow()
	p := calendar.NewPlanner(s.rules, durations)
	next := make([]calendar.Appointment, 0, len(fetched))
	for _, a := range fetched {
		if local, ok := terminal[a.ID]; ok {
			merged := calendar.MergeStatus(local, a.Status)
			if merged != a.Status {
				s.logger.Warn().
					Str("appointment_id", a.ID).
					Str("remote_status", string(a.Status)).
					Str("kept_status", string(merged)).
					Msg("ignoring stale status from remote store")
			}
			a.Status = merged
		}
		if a.Status.IsTerminal() {
			terminal[a.ID] = a.Status
		}
		next = append(next, p.ApplyExpiry(a, now))
	}

	s.mu.Lock()
	s.view = view{appointments: next, durations: durations, terminal: terminal}
	s.mu.Unlock()

	s.logger.Debug().Int("appointments", len(next)).Msg("calendar refreshed")
	return nil
}

// Appointments returns a copy of the current view.
func (s *Service) Appointments() []calendar.Appointment {
	v := s.current()
	out := make([]calendar.Appointment, len(v.appointments))
	copy(out, v.appointments)
	return out
}

// AppointmentsOn returns the appointments starting on date.
func (s *Service) AppointmentsOn(date calendar.Date) []calendar.Appointment {
	return appointmentsOn(s.current(), date)
}

func appointmentsOn(v view, date calendar.Date) []calendar.Appointment {
	var out []calendar.Appointment
	for _, a := range v.appointments {
		start, err := a.Start()
		if err != nil {
			continue
		}
		if start.Date() == date {
			out = append(out, a)
		}
	}
	return out
}

// Planner returns a planner bound to the current durations.
func (s *Service) Planner() calendar.Planner {
	return s.planner(s.current())
}

func (s *Service) CheckConflicts(start calendar.LocalDateTime, durationMinutes int) []calendar.Appointment {
	v := s.current()
	return s.planner(v).FindConflicts(start, durationMinutes, v.appointments, true)
}

func (s *Service) CheckBatch(slots []calendar.CalculatedSlot) calendar.BatchConflicts {
	v := s.current()
	return s.planner(v).FindConflictsForBatch(slots, v.appointments)
}

func (s *Service) BlockedRanges(date calendar.Date) []calendar.BlockedRange {
	v := s.current()
	return s.planner(v).MergeIntoBlockedRanges(appointmentsOn(v, date), true)
}

func (s *Service) MaxFreeDuration(date calendar.Date, at calendar.Clock) (int, bool) {
	return s.Planner().MaxFreeDuration(date, at, s.BlockedRanges(date))
}

// CheckAvailability reports the free minutes at date+at and whether a booking
// of the requested length fits there.
func (s *Service) CheckAvailability(date calendar.Date, at calendar.Clock, requestedMinutes int) (int, error) {
	free, ok := s.MaxFreeDuration(date, at)
	if !ok {
		return 0, calendar.ErrInvalidTime
	}
	return free, s.Planner().CheckRequestedDuration(free, requestedMinutes)
}

func (s *Service) FreeWindows(date calendar.Date, from calendar.Clock) []calendar.TimeRange {
	return s.Planner().FreeWindows(date, from, s.BlockedRanges(date))
}

// PreviewSlots expands a request without touching the store.
func (s *Service) PreviewSlots(req calendar.SlotRequest) []calendar.CalculatedSlot {
	return calendar.GenerateSlots(req, s.localNow(), s.rules.EndOfDay)
}

// OpenSlot opens a single slot at an exact YYYY-MM-DDTHH:mm:ss timestamp.
func (s *Service) OpenSlot(ctx context.Context, timestamp string, durationMinutes int) error {
	start, err := calendar.ParseSlotTimestamp(timestamp)
	if err != nil {
		return err
	}
	if durationMinutes <= 0 {
		return fmt.Errorf("%w: %d minutes", calendar.ErrInvalidDuration, durationMinutes)
	}

	res := s.OpenSlots(ctx, []calendar.CalculatedSlot{{Start: start, Index: 1, DurationMinutes: durationMinutes}})
	if len(res.Failed) > 0 {
		return res.Failed[0].Err
	}
	if len(res.Created) == 0 {
		return res.Err
	}
	return nil
}

// OpenSlots creates slots one at a time in the given order. Each slot is
// checked for conflicts against the view as it stands after the previous
// slot; one failure does not stop the batch. If ctx ends, the remaining
// slots are reported as skipped and already created slots stay created.
func (s *Service) OpenSlots(ctx context.Context, slots []calendar.CalculatedSlot) BatchResult {
	s.mutMu.Lock()
	defer s.mutMu.Unlock()

	var res BatchResult
	for i, slot := range slots {
		if err := ctx.Err(); err != nil {
			res.Err = err
			for _, rest := range slots[i:] {
				res.Skipped = append(res.Skipped, rest.Index)
			}
			s.logger.Warn().Err(err).
				Int("created", len(res.Created)).
				Int("skipped", len(res.Skipped)).
				Msg("slot batch abandoned")
			break
		}

		if err := s.openLocked(ctx, slot); err != nil {
			res.Failed = append(res.Failed, SlotFailure{
				Index:     slot.Index,
				Timestamp: slot.Timestamp(),
				Err:       err,
				Message:   err.Error(),
			})
			continue
		}
		res.Created = append(res.Created, slot.Index)
	}

	if len(res.Created) > 0 && ctx.Err() == nil {
		if err := s.refreshLocked(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("refresh after opening slots failed")
		}
	}
	return res
}

func (s *Service) openLocked(ctx context.Context, slot calendar.CalculatedSlot) error {
	ts := slot.Timestamp()
	if _, err := calendar.ParseSlotTimestamp(ts); err != nil {
		return err
	}
	if slot.DurationMinutes <= 0 {
		return fmt.Errorf("%w: %d minutes", calendar.ErrInvalidDuration, slot.DurationMinutes)
	}
	if slot.Start.Before(s.localNow()) {
		return ErrSlotInPast
	}

	snap := s.current()
	if conflicts := s.planner(snap).FindConflicts(slot.Start, slot.DurationMinutes, snap.appointments, true); len(conflicts) > 0 {
		return &ConflictError{Slot: slot, Conflicts: conflicts}
	}

	s.update(func(next *view) {
		next.appointments = append(next.appointments, calendar.Appointment{
			ID:              pendingPrefix + ts,
			StartTimestamp:  ts,
			DurationMinutes: slot.DurationMinutes,
			Status:          calendar.StatusScheduled,
		})
		next.durations[ts] = slot.DurationMinutes
	})

	if err := s.store.CreateSlot(ctx, ts); err != nil {
		s.restore(snap)
		s.logger.Error().Err(err).Str("slot", ts).Int("index", slot.Index).Msg("create slot failed")
		return &RemoteError{Op: "create slot", ID: ts, Err: err}
	}

	if err := s.ledger.Put(ctx, ts, slot.DurationMinutes); err != nil {
		s.logger.Warn().Err(err).Str("slot", ts).Msg("slot duration not recorded, it will resolve to the default")
	}
	s.logger.Info().Str("slot", ts).Int("duration_minutes", slot.DurationMinutes).Msg("slot opened")
	return nil
}

// CompleteAppointment marks a booked appointment completed on request.
func (s *Service) CompleteAppointment(ctx context.Context, id string) (*calendar.Appointment, error) {
	claimed, err := s.inflight.TryClaim(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("claim %s: %w", id, err)
	}
	if !claimed {
		return nil, ErrCompletionInFlight
	}
	defer s.release(id)

	s.mutMu.Lock()
	defer s.mutMu.Unlock()
	return s.completeLocked(ctx, id, false)
}

// SweepAutoCompletion completes every booked appointment whose end plus the
// grace period has passed. Ids already being completed elsewhere are left
// alone; a failure is recorded and the sweep moves on, so the next sweep
// retries it.
func (s *Service) SweepAutoCompletion(ctx context.Context) SweepResult {
	now := s.localNow()
	v := s.current()
	p := s.planner(v)

	var due []string
	for _, a := range v.appointments {
		if p.CompletionDue(a, now) {
			due = append(due, a.ID)
		}
	}

	var res SweepResult
	for _, id := range due {
		if ctx.Err() != nil {
			break
		}
		claimed, err := s.inflight.TryClaim(ctx, id)
		if err != nil {
			res.Failed = append(res.Failed, CompletionFailure{ID: id, Err: err})
			continue
		}
		if !claimed {
			res.InFlight++
			continue
		}

		s.mutMu.Lock()
		_, err = s.completeLocked(ctx, id, true)
		s.mutMu.Unlock()
		s.release(id)

		if err != nil {
			s.logger.Warn().Err(err).Str("appointment_id", id).Msg("auto-completion failed")
			res.Failed = append(res.Failed, CompletionFailure{ID: id, Err: err})
			continue
		}
		s.logger.Info().Str("appointment_id", id).Msg("appointment auto-completed")
		res.Completed = append(res.Completed, id)
	}
	return res
}

func (s *Service) completeLocked(ctx context.Context, id string, requireDue bool) (*calendar.Appointment, error) {
	snap := s.current()
	i := snap.indexOf(id)
	if i < 0 {
		return nil, ErrAppointmentNotFound
	}
	a := snap.appointments[i]
	if a.IsOpenSlot() {
		return nil, fmt.Errorf("%w: %s is an open slot", ErrNotCompletable, id)
	}
	if a.Status != calendar.StatusScheduled {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotCompletable, id, a.Status)
	}
	if requireDue && !s.planner(snap).CompletionDue(a, s.localNow()) {
		return nil, fmt.Errorf("%w: %s is not due yet", ErrNotCompletable, id)
	}

	s.update(func(next *view) {
		next.appointments[i].Status = calendar.StatusCompleted
	})

	echo, err := s.store.MarkCompleted(ctx, id)
	if err != nil {
		s.restore(snap)
		return nil, &RemoteError{Op: "mark completed", ID: id, Err: err}
	}

	if echo == nil || echo.IsOpenSlot() || echo.Status == calendar.StatusCancelled {
		s.restore(snap)
		if echo != nil && echo.Status == calendar.StatusCancelled {
			s.update(func(next *view) {
				if j := next.indexOf(id); j >= 0 {
					next.appointments[j].Status = calendar.StatusCancelled
				}
				next.terminal[id] = calendar.StatusCancelled
			})
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidCompletionEcho, id)
	}

	merged := *echo
	merged.ID = id
	if merged.StartTimestamp == "" {
		merged.StartTimestamp = a.StartTimestamp
	}
	if merged.DoctorID == "" {
		merged.DoctorID = a.DoctorID
	}
	merged.Status = calendar.MergeStatus(calendar.StatusCompleted, echo.Status)

	s.update(func(next *view) {
		if j := next.indexOf(id); j >= 0 {
			next.appointments[j] = merged
		}
		next.terminal[id] = merged.Status
	})
	return &merged, nil
}

func (s *Service) release(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.inflight.Release(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("appointment_id", id).Msg("failed to release completion claim")
	}
}
