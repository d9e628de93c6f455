package appointment

import (
	"github.com/hackgods/physician-calendar/internal/calendar"
	"github.com/hackgods/physician-calendar/internal/ledger"
)

// view is the service's in-memory picture of the calendar. A published view
// is never mutated; writers clone it, change the clone and swap it in.
type view struct {
	appointments []calendar.Appointment
	durations    ledger.Durations
	// terminal outlives refreshes so a stale record can never regress an
	// appointment this service has seen completed or cancelled.
	terminal map[string]calendar.Status
}

func (v view) clone() view {
	out := view{
		appointments: make([]calendar.Appointment, len(v.appointments)),
		durations:    v.durations.Clone(),
		terminal:     make(map[string]calendar.Status, len(v.terminal)),
	}
	copy(out.appointments, v.appointments)
	for id, st := range v.terminal {
		out.terminal[id] = st
	}
	return out
}

func (v view) indexOf(id string) int {
	for i, a := range v.appointments {
		if a.ID == id {
			return i
		}
	}
	return -1
}
