package calendar

// DurationSource resolves the intended duration of a slot from the exact
// timestamp string it was opened with.
type DurationSource interface {
	DurationFor(timestamp string) (minutes int, ok bool)
}

// Overlaps reports whether [startA, endA) and [startB, endB) intersect.
// Intervals that only touch do not overlap.
func Overlaps(startA, endA, startB, endB LocalDateTime) bool {
	return startA.Before(endB) && startB.Before(endA)
}

// Planner evaluates appointments against a set of rules and a duration source.
// It holds no mutable state and is safe to copy.
type Planner struct {
	Rules     Rules
	Durations DurationSource
}

func NewPlanner(rules Rules, durations DurationSource) Planner {
	return Planner{Rules: rules, Durations: durations}
}

// ResolveDuration returns the ledger duration, else the record's own duration,
// else the default.
func (p Planner) ResolveDuration(a Appointment) int {
	if p.Durations != nil {
		if m, ok := p.Durations.DurationFor(a.StartTimestamp); ok && m > 0 {
			return m
		}
		if start, err := a.Start(); err == nil && start.Canonical() != a.StartTimestamp {
			if m, ok := p.Durations.DurationFor(start.Canonical()); ok && m > 0 {
				return m
			}
		}
	}
	if a.DurationMinutes > 0 {
		return a.DurationMinutes
	}
	return p.Rules.DefaultMinutes()
}

// TimeRangeOf returns the appointment's interval. ok is false when the
// timestamp cannot be parsed; such records are ignored for interval purposes.
func (p Planner) TimeRangeOf(a Appointment) (TimeRange, bool) {
	start, err := a.Start()
	if err != nil {
		return TimeRange{}, false
	}
	return TimeRange{Start: start, End: start.AddMinutes(p.ResolveDuration(a))}, true
}
