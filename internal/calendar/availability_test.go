package calendar

import (
	"errors"
	"testing"
)

func day(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func TestMaxFreeDurationFrom_NextAppointment(t *testing.T) {
	p := NewPlanner(DefaultRules(), nil)
	ranges := p.MergeIntoBlockedRanges([]Appointment{booked("b", "2024-03-04T09:50:00", 30)}, true)

	free, ok := p.MaxFreeDuration(day(t, "2024-03-04"), MustClock("09:00"), ranges)
	if !ok || free != 50 {
		t.Fatalf("expected 50 free minutes, got %d (ok=%v)", free, ok)
	}
	if err := p.CheckRequestedDuration(free, 60); !errors.Is(err, ErrExceedsAvailable) {
		t.Fatalf("expected ErrExceedsAvailable, got %v", err)
	}
	if err := p.CheckRequestedDuration(free, 45); err != nil {
		t.Fatalf("45 minutes should fit: %v", err)
	}
}

func TestMaxFreeDurationFrom_EndOfDay(t *testing.T) {
	free, ok := MaxFreeDurationFrom(day(t, "2024-03-04"), MustClock("17:15"), nil, MustClock("18:00"))
	if !ok || free != 45 {
		t.Fatalf("expected 45, got %d", free)
	}

	free, _ = MaxFreeDurationFrom(day(t, "2024-03-04"), MustClock("18:30"), nil, MustClock("18:00"))
	if free > 0 {
		t.Fatalf("past end of day must be unusable, got %d", free)
	}
}

func TestMaxFreeDurationFrom_InsideBlockedRange(t *testing.T) {
	p := NewPlanner(DefaultRules(), nil)
	ranges := p.MergeIntoBlockedRanges([]Appointment{
		booked("a", "2024-03-04T10:00:00", 30),
		booked("b", "2024-03-04T13:00:00", 30),
	}, true)

	for _, c := range []string{"10:00", "10:15", "10:29:59"} {
		free, ok := p.MaxFreeDuration(day(t, "2024-03-04"), MustClock(c), ranges)
		if !ok || free > 0 {
			t.Errorf("%s is inside a blocked range, got %d", c, free)
		}
	}
	// the end of a range is free again
	if free, _ := p.MaxFreeDuration(day(t, "2024-03-04"), MustClock("10:30"), ranges); free != 150 {
		t.Errorf("expected 150 minutes from 10:30, got %d", free)
	}
}

func TestMaxFreeDurationFrom_FloorsSeconds(t *testing.T) {
	ranges := []BlockedRange{{Start: at(t, "2024-03-04T09:30:00"), End: at(t, "2024-03-04T10:00:00")}}
	free, _ := MaxFreeDurationFrom(day(t, "2024-03-04"), MustClock("09:00:30"), ranges, MustClock("18:00"))
	if free != 29 {
		t.Fatalf("expected floor to 29, got %d", free)
	}
}

func TestMaxFreeDurationFrom_Invalid(t *testing.T) {
	if _, ok := MaxFreeDurationFrom(Date{}, MustClock("09:00"), nil, MustClock("18:00")); ok {
		t.Error("zero date should not be ok")
	}
	if _, ok := MaxFreeDurationFrom(day(t, "2024-03-04"), Clock{Hour: 25}, nil, MustClock("18:00")); ok {
		t.Error("invalid clock should not be ok")
	}
}

func TestCheckRequestedDuration_Insufficient(t *testing.T) {
	p := NewPlanner(DefaultRules(), nil)
	if err := p.CheckRequestedDuration(10, 10); !errors.Is(err, ErrInsufficientTime) {
		t.Errorf("expected ErrInsufficientTime, got %v", err)
	}
	if err := p.CheckRequestedDuration(0, 10); !errors.Is(err, ErrStartUnavailable) {
		t.Errorf("expected ErrStartUnavailable, got %v", err)
	}
	if err := p.CheckRequestedDuration(30, 0); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("expected ErrInvalidDuration, got %v", err)
	}
}

func TestFreeWindows(t *testing.T) {
	p := NewPlanner(DefaultRules(), nil)
	ranges := p.MergeIntoBlockedRanges([]Appointment{
		booked("a", "2024-03-04T09:00:00", 60),
		booked("b", "2024-03-04T12:00:00", 30),
	}, true)

	windows := p.FreeWindows(day(t, "2024-03-04"), MustClock("08:00"), ranges)
	want := [][2]string{
		{"2024-03-04T08:00:00", "2024-03-04T09:00:00"},
		{"2024-03-04T10:00:00", "2024-03-04T12:00:00"},
		{"2024-03-04T12:30:00", "2024-03-04T18:00:00"},
	}
	if len(windows) != len(want) {
		t.Fatalf("expected %d windows, got %d: %+v", len(want), len(windows), windows)
	}
	for i, w := range want {
		if windows[i].Start.Canonical() != w[0] || windows[i].End.Canonical() != w[1] {
			t.Errorf("window %d: got %s-%s, want %s-%s", i, windows[i].Start, windows[i].End, w[0], w[1])
		}
	}
}
