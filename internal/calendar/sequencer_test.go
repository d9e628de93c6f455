package calendar

import (
	"reflect"
	"testing"
)

func TestGenerateSlots_WithBreaks(t *testing.T) {
	now := at(t, "2024-03-04T07:00:00")
	slots := GenerateSlots(SlotRequest{
		Date: "2024-03-04", StartTime: "09:00", Count: 3,
		SlotDurationMinutes: 20, BreakDurationMinutes: 10,
	}, now, MustClock("18:00"))

	want := []string{"2024-03-04T09:00:00", "2024-03-04T09:30:00", "2024-03-04T10:00:00"}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d", len(want), len(slots))
	}
	for i, s := range slots {
		if s.Timestamp() != want[i] {
			t.Errorf("slot %d: got %s, want %s", i, s.Timestamp(), want[i])
		}
		if s.Index != i+1 {
			t.Errorf("slot %d: index %d", i, s.Index)
		}
		if s.DurationMinutes != 20 {
			t.Errorf("slot %d: duration %d", i, s.DurationMinutes)
		}
	}
}

func TestGenerateSlots_StopsAtEndOfDay(t *testing.T) {
	now := at(t, "2024-03-04T07:00:00")
	req := SlotRequest{
		Date: "2024-03-04", StartTime: "16:30", Count: 5,
		SlotDurationMinutes: 30, ConstrainToSameDay: true,
	}
	slots := GenerateSlots(req, now, MustClock("18:00"))
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots before 18:00, got %d", len(slots))
	}
	boundary := day(t, "2024-03-04").At(MustClock("18:00"))
	for _, s := range slots {
		if s.End().After(boundary) {
			t.Errorf("slot %d ends after the boundary", s.Index)
		}
		if s.Start.Date() != s.End().Date() {
			t.Errorf("slot %d crosses midnight", s.Index)
		}
	}

	req.ConstrainToSameDay = false
	if got := GenerateSlots(req, now, MustClock("18:00")); len(got) != 5 {
		t.Fatalf("unconstrained request should yield 5 slots, got %d", len(got))
	}
}

func TestGenerateSlots_Deterministic(t *testing.T) {
	now := at(t, "2024-03-04T07:00:00")
	req := SlotRequest{Date: "2024-03-04", StartTime: "08:15", Count: 7, SlotDurationMinutes: 25, BreakDurationMinutes: 5, ConstrainToSameDay: true}
	a := GenerateSlots(req, now, MustClock("18:00"))
	b := GenerateSlots(req, now, MustClock("18:00"))
	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical requests produced different slots")
	}
	if len(a) > req.Count {
		t.Fatalf("got more slots than requested: %d", len(a))
	}
}

func TestGenerateSlots_InvalidInput(t *testing.T) {
	now := at(t, "2024-03-04T07:00:00")
	cases := map[string]SlotRequest{
		"bad date":        {Date: "2024-02-30", StartTime: "09:00", Count: 1, SlotDurationMinutes: 30},
		"bad time":        {Date: "2024-03-04", StartTime: "24:10", Count: 1, SlotDurationMinutes: 30},
		"zero count":      {Date: "2024-03-04", StartTime: "09:00", Count: 0, SlotDurationMinutes: 30},
		"zero duration":   {Date: "2024-03-04", StartTime: "09:00", Count: 1, SlotDurationMinutes: 0},
		"negative break":  {Date: "2024-03-04", StartTime: "09:00", Count: 1, SlotDurationMinutes: 30, BreakDurationMinutes: -5},
		"in the past":     {Date: "2024-03-03", StartTime: "09:00", Count: 3, SlotDurationMinutes: 30},
		"first too late":  {Date: "2024-03-04", StartTime: "17:45", Count: 2, SlotDurationMinutes: 30, ConstrainToSameDay: true},
	}
	for name, req := range cases {
		if got := GenerateSlots(req, now, MustClock("18:00")); len(got) != 0 {
			t.Errorf("%s: expected no slots, got %d", name, len(got))
		}
	}
}

func TestGenerateSlots_StartingNowIsAllowed(t *testing.T) {
	now := at(t, "2024-03-04T09:00:00")
	slots := GenerateSlots(SlotRequest{Date: "2024-03-04", StartTime: "09:00", Count: 1, SlotDurationMinutes: 30}, now, MustClock("18:00"))
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
}
