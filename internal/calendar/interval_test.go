package calendar

import (
	"errors"
	"testing"
)

type durationMap map[string]int

func (d durationMap) DurationFor(ts string) (int, bool) {
	m, ok := d[ts]
	return m, ok
}

func at(t *testing.T, s string) LocalDateTime {
	t.Helper()
	v, err := ParseLocalDateTime(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v
}

func booked(id, start string, minutes int) Appointment {
	return Appointment{ID: id, DoctorID: "doc-1", PatientID: "pat-" + id, StartTimestamp: start, DurationMinutes: minutes, Status: StatusScheduled}
}

func openSlot(id, start string) Appointment {
	return Appointment{ID: id, DoctorID: "doc-1", StartTimestamp: start, Status: StatusScheduled}
}

func TestOverlaps_Symmetric(t *testing.T) {
	cases := []struct {
		name         string
		aStart, aEnd string
		bStart, bEnd string
		want         bool
	}{
		{"disjoint", "2024-03-04T09:00:00", "2024-03-04T09:30:00", "2024-03-04T10:00:00", "2024-03-04T10:30:00", false},
		{"touching", "2024-03-04T09:00:00", "2024-03-04T09:30:00", "2024-03-04T09:30:00", "2024-03-04T10:00:00", false},
		{"partial", "2024-03-04T09:00:00", "2024-03-04T09:45:00", "2024-03-04T09:30:00", "2024-03-04T10:00:00", true},
		{"contained", "2024-03-04T09:00:00", "2024-03-04T11:00:00", "2024-03-04T09:30:00", "2024-03-04T10:00:00", true},
		{"identical", "2024-03-04T09:00:00", "2024-03-04T09:30:00", "2024-03-04T09:00:00", "2024-03-04T09:30:00", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a1, a2 := at(t, tc.aStart), at(t, tc.aEnd)
			b1, b2 := at(t, tc.bStart), at(t, tc.bEnd)
			if got := Overlaps(a1, a2, b1, b2); got != tc.want {
				t.Errorf("Overlaps(A,B) = %v, want %v", got, tc.want)
			}
			if got := Overlaps(b1, b2, a1, a2); got != tc.want {
				t.Errorf("Overlaps(B,A) = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTimeRangeOf_ResolutionOrder(t *testing.T) {
	p := NewPlanner(DefaultRules(), durationMap{"2024-03-04T09:00:00": 45})

	r, ok := p.TimeRangeOf(booked("1", "2024-03-04T09:00:00", 20))
	if !ok {
		t.Fatal("expected range")
	}
	if r.Duration().Minutes() != 45 {
		t.Errorf("ledger duration should win, got %v", r.Duration())
	}

	r, _ = p.TimeRangeOf(booked("2", "2024-03-04T10:00:00", 20))
	if r.Duration().Minutes() != 20 {
		t.Errorf("record duration expected, got %v", r.Duration())
	}

	r, _ = p.TimeRangeOf(booked("3", "2024-03-04T11:00:00", 0))
	if r.Duration().Minutes() != 30 {
		t.Errorf("default duration expected, got %v", r.Duration())
	}
}

func TestTimeRangeOf_CanonicalFallback(t *testing.T) {
	p := NewPlanner(DefaultRules(), durationMap{"2024-03-04T09:00:00": 50})
	r, ok := p.TimeRangeOf(booked("1", "2024-03-04T09:00", 0))
	if !ok {
		t.Fatal("expected range")
	}
	if r.Duration().Minutes() != 50 {
		t.Errorf("expected ledger hit via canonical form, got %v", r.Duration())
	}
}

func TestTimeRangeOf_Unparseable(t *testing.T) {
	p := NewPlanner(DefaultRules(), nil)
	for _, ts := range []string{"", "garbage", "2024-03-04T09:00:00Z", "2024-03-04T09:00:00+02:00"} {
		if _, ok := p.TimeRangeOf(booked("x", ts, 30)); ok {
			t.Errorf("expected %q to be ignored", ts)
		}
	}
}

func TestParseSlotTimestamp_Strict(t *testing.T) {
	if _, err := ParseSlotTimestamp("2024-03-04T09:00:00"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range []string{"2024-03-04T09:00", "2024-03-04 09:00:00", "2024-03-04T09:00:00Z", "2024-13-04T09:00:00"} {
		if _, err := ParseSlotTimestamp(s); !errors.Is(err, ErrInvalidTimestamp) {
			t.Errorf("expected ErrInvalidTimestamp for %q, got %v", s, err)
		}
	}
}

func TestIsOpenSlot(t *testing.T) {
	for _, id := range []string{"", " ", "0", "00000000-0000-0000-0000-000000000000"} {
		if !(Appointment{PatientID: id}).IsOpenSlot() {
			t.Errorf("patient %q should denote an open slot", id)
		}
	}
	if (Appointment{PatientID: "102"}).IsOpenSlot() {
		t.Error("real patient should not be an open slot")
	}
}
