package calendar

import (
	"errors"
	"fmt"
)

var ErrInvalidCount = errors.New("slot count must be at least 1")

// SlotRequest describes a run of slots to open on one day.
type SlotRequest struct {
	Date                 string `json:"date"`
	StartTime            string `json:"start_time"`
	Count                int    `json:"count"`
	SlotDurationMinutes  int    `json:"slot_duration_minutes"`
	BreakDurationMinutes int    `json:"break_duration_minutes"`
	ConstrainToSameDay   bool   `json:"constrain_to_same_day"`
}

// Validate checks the request shape. It does not look at the clock.
func (r SlotRequest) Validate() (Date, Clock, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return Date{}, Clock{}, err
	}
	at, err := ParseClock(r.StartTime)
	if err != nil {
		return Date{}, Clock{}, err
	}
	if r.Count < 1 {
		return Date{}, Clock{}, fmt.Errorf("%w: got %d", ErrInvalidCount, r.Count)
	}
	if r.SlotDurationMinutes <= 0 {
		return Date{}, Clock{}, fmt.Errorf("%w: slot duration %d", ErrInvalidDuration, r.SlotDurationMinutes)
	}
	if r.BreakDurationMinutes < 0 {
		return Date{}, Clock{}, fmt.Errorf("%w: break duration %d", ErrInvalidDuration, r.BreakDurationMinutes)
	}
	return date, at, nil
}

// GenerateSlots expands a request into concrete candidate slots. The i-th
// slot starts at start + i*(slot+break) minutes. Invalid requests and
// requests whose first slot is already in the past produce no slots. When
// ConstrainToSameDay is set, generation stops at the first slot that would
// end after endOfDay, so fewer than Count slots may come back.
//
// The result depends only on its arguments.
func GenerateSlots(req SlotRequest, now LocalDateTime, endOfDay Clock) []CalculatedSlot {
	date, at, err := req.Validate()
	if err != nil || !endOfDay.Valid() {
		return nil
	}

	base := date.At(at)
	if base.Before(now) {
		return nil
	}
	boundary := date.At(endOfDay)
	step := req.SlotDurationMinutes + req.BreakDurationMinutes

	slots := make([]CalculatedSlot, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		start := base.AddMinutes(i * step)
		if req.ConstrainToSameDay && start.AddMinutes(req.SlotDurationMinutes).After(boundary) {
			break
		}
		slots = append(slots, CalculatedSlot{
			Start:           start,
			Index:           i + 1,
			DurationMinutes: req.SlotDurationMinutes,
		})
	}
	if len(slots) == 0 {
		return nil
	}
	return slots
}

// GenerateSlots uses the planner's end of day.
func (p Planner) GenerateSlots(req SlotRequest, now LocalDateTime) []CalculatedSlot {
	return GenerateSlots(req, now, p.Rules.EndOfDay)
}
