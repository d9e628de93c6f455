package calendar

// CandidateConflicts pairs one candidate slot with the bookings it overlaps.
type CandidateConflicts struct {
	Slot      CalculatedSlot `json:"slot"`
	Conflicts []Appointment  `json:"conflicts"`
}

// BatchConflicts is the result of checking several candidates at once.
type BatchConflicts struct {
	HasConflicts       bool                 `json:"has_conflicts"`
	PerCandidate       []CandidateConflicts `json:"per_candidate"`
	TotalConflictCount int                  `json:"total_conflict_count"`
}

// FindConflicts returns the existing bookings that overlap
// [start, start+durationMinutes). Open slots never conflict; cancelled
// appointments are skipped when excludeCancelled is set.
func (p Planner) FindConflicts(start LocalDateTime, durationMinutes int, existing []Appointment, excludeCancelled bool) []Appointment {
	end := start.AddMinutes(durationMinutes)

	var conflicts []Appointment
	for _, a := range existing {
		if excludeCancelled && a.Status == StatusCancelled {
			continue
		}
		if a.IsOpenSlot() {
			continue
		}
		r, ok := p.TimeRangeOf(a)
		if !ok {
			continue
		}
		if Overlaps(start, end, r.Start, r.End) {
			conflicts = append(conflicts, a)
		}
	}
	return conflicts
}

// FindConflictsForBatch checks every candidate. The existing list is first
// narrowed to the calendar dates the batch touches.
func (p Planner) FindConflictsForBatch(candidates []CalculatedSlot, existing []Appointment) BatchConflicts {
	dates := make(map[Date]struct{}, len(candidates))
	for _, c := range candidates {
		dates[c.Start.Date()] = struct{}{}
		// a slot running past midnight also touches the next day
		dates[c.End().Date()] = struct{}{}
	}

	relevant := make([]Appointment, 0, len(existing))
	for _, a := range existing {
		r, ok := p.TimeRangeOf(a)
		if !ok {
			continue
		}
		_, onStart := dates[r.Start.Date()]
		_, onEnd := dates[r.End.Date()]
		if onStart || onEnd {
			relevant = append(relevant, a)
		}
	}

	res := BatchConflicts{PerCandidate: make([]CandidateConflicts, 0, len(candidates))}
	for _, c := range candidates {
		found := p.FindConflicts(c.Start, c.DurationMinutes, relevant, true)
		res.PerCandidate = append(res.PerCandidate, CandidateConflicts{Slot: c, Conflicts: found})
		res.TotalConflictCount += len(found)
	}
	res.HasConflicts = res.TotalConflictCount > 0
	return res
}
