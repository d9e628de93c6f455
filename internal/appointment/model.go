package appointment

import (
	"github.com/hackgods/physician-calendar/internal/calendar"
)

// SlotFailure reports why one slot of a batch was not created.
type SlotFailure struct {
	Index     int    `json:"index"`
	Timestamp string `json:"timestamp"`
	Err       error  `json:"-"`
	Message   string `json:"error"`
}

// BatchResult lists, in submission order, which slot indices were created,
// which failed and which were never attempted because the caller gave up.
type BatchResult struct {
	Created []int         `json:"created"`
	Failed  []SlotFailure `json:"failed"`
	Skipped []int         `json:"skipped"`
	// Err is set when the batch was abandoned.
	Err error `json:"-"`
}

func (r BatchResult) Attempted() int { return len(r.Created) + len(r.Failed) }

// CompletionFailure reports one appointment the sweep could not complete.
type CompletionFailure struct {
	ID  string
	Err error
}

// SweepResult summarises one auto-completion sweep.
type SweepResult struct {
	Completed []string
	Failed    []CompletionFailure
	// InFlight counts candidates skipped because another completion for the
	// same id was already running.
	InFlight int
}

// ConflictError carries the bookings a slot would overlap.
type ConflictError struct {
	Slot      calendar.CalculatedSlot
	Conflicts []calendar.Appointment
}

func (e *ConflictError) Error() string {
	return ErrSlotConflict.Error() + " at " + e.Slot.Timestamp()
}

func (e *ConflictError) Unwrap() error { return ErrSlotConflict }

// RemoteError attributes a remote store failure to an operation and id.
type RemoteError struct {
	Op  string
	ID  string
	Err error
}

func (e *RemoteError) Error() string {
	if e.ID == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.ID + ": " + e.Err.Error()
}

func (e *RemoteError) Unwrap() []error { return []error{ErrRemote, e.Err} }
