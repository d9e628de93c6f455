package calendar

// MergeStatus folds a status echoed by the remote store into the locally
// known one. A terminal local status wins over anything but an incoming
// Cancelled, so a completed or cancelled appointment never regresses because
// of a stale response while a cancellation is always kept once seen.
func MergeStatus(local, incoming Status) Status {
	if incoming == StatusCancelled {
		return StatusCancelled
	}
	if local.IsTerminal() {
		return local
	}
	return incoming
}

// CanTransition lists the transitions derived logic may perform.
func CanTransition(from, to Status, openSlot bool) bool {
	if from != StatusScheduled {
		return false
	}
	switch to {
	case StatusExpired:
		return openSlot
	case StatusCompleted:
		return !openSlot
	default:
		return false
	}
}

// ApplyExpiry marks a scheduled open slot whose end has passed as expired.
// The change is a view correction only and is never sent to the store.
func (p Planner) ApplyExpiry(a Appointment, now LocalDateTime) Appointment {
	if !CanTransition(a.Status, StatusExpired, a.IsOpenSlot()) {
		return a
	}
	r, ok := p.TimeRangeOf(a)
	if !ok {
		return a
	}
	if !r.End.After(now) {
		a.Status = StatusExpired
	}
	return a
}

// CompletionDue reports whether a booked, scheduled appointment has passed
// its end plus the grace period.
func (p Planner) CompletionDue(a Appointment, now LocalDateTime) bool {
	if !CanTransition(a.Status, StatusCompleted, a.IsOpenSlot()) {
		return false
	}
	r, ok := p.TimeRangeOf(a)
	if !ok {
		return false
	}
	return !now.Before(r.End.Add(p.Rules.GracePeriod))
}
