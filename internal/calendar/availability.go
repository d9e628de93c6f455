package calendar

import (
	"errors"
	"fmt"
)

var (
	ErrStartUnavailable = errors.New("start time is not available")
	ErrInsufficientTime = errors.New("not enough free time for a viable appointment")
	ErrExceedsAvailable = errors.New("requested duration exceeds available time")
	ErrInvalidDuration  = errors.New("invalid duration")
)

// MaxFreeDurationFrom returns the whole minutes between date+at and the
// earliest of the next blocked range start or the end of day. The result is
// floored, so it never overstates the gap. A value of zero or less means the
// start is unusable; in particular an instant inside a blocked range yields 0.
// ok is false when date or times are invalid.
func MaxFreeDurationFrom(date Date, at Clock, ranges []BlockedRange, endOfDay Clock) (minutes int, ok bool) {
	if date.IsZero() || !at.Valid() || !endOfDay.Valid() {
		return 0, false
	}
	start := date.At(at)
	ceiling := date.At(endOfDay)

	for _, r := range ranges {
		if !start.Before(r.Start) && start.Before(r.End) {
			return 0, true
		}
		if r.Start.After(start) && r.Start.Before(ceiling) {
			ceiling = r.Start
		}
	}
	return floorMinutes(ceiling.Sub(start)), true
}

// MaxFreeDuration is MaxFreeDurationFrom with the planner's end of day.
func (p Planner) MaxFreeDuration(date Date, at Clock, ranges []BlockedRange) (int, bool) {
	return MaxFreeDurationFrom(date, at, ranges, p.Rules.EndOfDay)
}

// CheckRequestedDuration decides whether a booking of requested minutes fits
// into free minutes.
func (p Planner) CheckRequestedDuration(free, requested int) error {
	if requested <= 0 {
		return fmt.Errorf("%w: %d minutes", ErrInvalidDuration, requested)
	}
	if free <= 0 {
		return ErrStartUnavailable
	}
	if free < p.Rules.MinViableMinutes() {
		return fmt.Errorf("%w: %d minutes free, at least %d needed", ErrInsufficientTime, free, p.Rules.MinViableMinutes())
	}
	if requested > free {
		return fmt.Errorf("%w: requested %d minutes, %d available", ErrExceedsAvailable, requested, free)
	}
	return nil
}

// FreeWindows lists the gaps between from and the end of day that no
// blocked range covers. ranges must be sorted, as MergeIntoBlockedRanges
// returns them.
func (p Planner) FreeWindows(date Date, from Clock, ranges []BlockedRange) []TimeRange {
	cursor := date.At(from)
	end := p.Rules.EndOfDayOn(date)

	var windows []TimeRange
	for _, r := range ranges {
		if !cursor.Before(end) {
			break
		}
		if r.End.Before(cursor) || r.End.Equal(cursor) {
			continue
		}
		if r.Start.After(cursor) {
			stop := r.Start
			if stop.After(end) {
				stop = end
			}
			windows = append(windows, TimeRange{Start: cursor, End: stop})
		}
		if r.End.After(cursor) {
			cursor = r.End
		}
	}
	if cursor.Before(end) {
		windows = append(windows, TimeRange{Start: cursor, End: end})
	}
	return windows
}
