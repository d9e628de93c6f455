package calendar

import "sort"

// MergeIntoBlockedRanges collapses one day's bookings into sorted,
// non-overlapping blocked ranges. Bookings separated by a gap no larger than
// the adjacency threshold fall into the same range. Open slots, unparseable
// records and (when excludeCancelled is set) cancelled appointments are dropped.
func (p Planner) MergeIntoBlockedRanges(appointments []Appointment, excludeCancelled bool) []BlockedRange {
	type item struct {
		appt Appointment
		r    TimeRange
	}

	items := make([]item, 0, len(appointments))
	for _, a := range appointments {
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
		items = append(items, item{appt: a, r: r})
	}
	if len(items) == 0 {
		return nil
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].r.Start.Equal(items[j].r.Start) {
			return items[i].r.Start.Before(items[j].r.Start)
		}
		return items[i].r.End.Before(items[j].r.End)
	})

	var ranges []BlockedRange
	cur := BlockedRange{
		Start:        items[0].r.Start,
		End:          items[0].r.End,
		Appointments: []Appointment{items[0].appt},
	}
	for _, it := range items[1:] {
		// negative gap means the intervals overlap
		if it.r.Start.Sub(cur.End) <= p.Rules.AdjacencyThreshold {
			if it.r.End.After(cur.End) {
				cur.End = it.r.End
			}
			cur.Appointments = append(cur.Appointments, it.appt)
			continue
		}
		ranges = append(ranges, cur)
		cur = BlockedRange{
			Start:        it.r.Start,
			End:          it.r.End,
			Appointments: []Appointment{it.appt},
		}
	}
	return append(ranges, cur)
}
