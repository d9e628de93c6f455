package calendar

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// ParseStatus normalises the status strings the remote store is known to send.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scheduled", "":
		return StatusScheduled, nil
	case "completed":
		return StatusCompleted, nil
	case "cancelled", "canceled":
		return StatusCancelled, nil
	case "expired":
		return StatusExpired, nil
	default:
		return "", fmt.Errorf("unknown appointment status %q", s)
	}
}

// IsTerminal reports whether derived logic must leave the status alone.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Appointment is a record of the remote store as seen by this core.
type Appointment struct {
	ID        string `json:"id"`
	DoctorID  string `json:"doctor_id"`
	PatientID string `json:"patient_id,omitempty"`
	// StartTimestamp is kept exactly as received; it is also the ledger key.
	StartTimestamp  string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	Status          Status `json:"status"`
}

// IsOpenSlot reports whether no real patient is attached. Empty ids and ids
// made only of zeros and dashes ("0", the nil UUID) count as no patient.
func (a Appointment) IsOpenSlot() bool {
	return strings.Trim(strings.TrimSpace(a.PatientID), "0-") == ""
}

// Start parses the appointment's timestamp.
func (a Appointment) Start() (LocalDateTime, error) {
	return ParseLocalDateTime(a.StartTimestamp)
}

// TimeRange is a half-open interval [Start, End).
type TimeRange struct {
	Start LocalDateTime `json:"start"`
	End   LocalDateTime `json:"end"`
}

func (r TimeRange) Duration() time.Duration { return r.End.Sub(r.Start) }

// BlockedRange is a maximal run of touching or overlapping bookings on one day.
type BlockedRange struct {
	Start        LocalDateTime `json:"start"`
	End          LocalDateTime `json:"end"`
	Appointments []Appointment `json:"appointments"`
}

// CalculatedSlot is a candidate slot that has not been sent to the store.
type CalculatedSlot struct {
	Start           LocalDateTime `json:"start"`
	Index           int           `json:"index"`
	DurationMinutes int           `json:"duration_minutes"`
}

// Timestamp is the string handed to the remote store and used as ledger key.
func (s CalculatedSlot) Timestamp() string { return s.Start.Canonical() }

func (s CalculatedSlot) End() LocalDateTime { return s.Start.AddMinutes(s.DurationMinutes) }

// Rules holds the tunable constants of the calendar.
type Rules struct {
	// AdjacencyThreshold is the largest gap at which two bookings still merge
	// into one blocked range.
	AdjacencyThreshold time.Duration

	// GracePeriod is waited after an appointment's end before auto-completion.
	GracePeriod       time.Duration
	EndOfDay          Clock
	DefaultDuration   time.Duration
	MinViableDuration time.Duration
}

func DefaultRules() Rules {
	return Rules{
		AdjacencyThreshold: 5 * time.Minute,
		GracePeriod:        5 * time.Minute,
		EndOfDay:           Clock{Hour: 18},
		DefaultDuration:    30 * time.Minute,
		MinViableDuration:  15 * time.Minute,
	}
}

func (r Rules) DefaultMinutes() int { return int(r.DefaultDuration / time.Minute) }

func (r Rules) MinViableMinutes() int { return int(r.MinViableDuration / time.Minute) }

// EndOfDayOn is the day boundary for the given date.
func (r Rules) EndOfDayOn(d Date) LocalDateTime { return d.At(r.EndOfDay) }
