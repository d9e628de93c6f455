package calendar

import "testing"

func TestMergeStatus_TerminalWins(t *testing.T) {
	all := []Status{StatusScheduled, StatusCompleted, StatusCancelled, StatusExpired}
	for _, incoming := range all {
		if got := MergeStatus(StatusCancelled, incoming); got != StatusCancelled {
			t.Errorf("cancelled regressed to %s", got)
		}
		want := StatusCompleted
		if incoming == StatusCancelled {
			want = StatusCancelled
		}
		if got := MergeStatus(StatusCompleted, incoming); got != want {
			t.Errorf("completed + %s = %s, want %s", incoming, got, want)
		}
		if got := MergeStatus(StatusExpired, incoming); incoming == StatusCancelled && got != StatusCancelled {
			t.Errorf("expired must yield to cancelled, got %s", got)
		}
		if got := MergeStatus(StatusScheduled, incoming); got != incoming {
			t.Errorf("scheduled should take %s, got %s", incoming, got)
		}
	}
}

func TestCompletionDue_GracePeriodBoundary(t *testing.T) {
	p := NewPlanner(DefaultRules(), nil)
	a := booked("b", "2024-03-04T13:30:00", 30) // ends 14:00

	if p.CompletionDue(a, at(t, "2024-03-04T14:04:59")) {
		t.Error("must not be due before 14:05")
	}
	if !p.CompletionDue(a, at(t, "2024-03-04T14:05:00")) {
		t.Error("must be due at exactly 14:05")
	}
}

func TestCompletionDue_NeverForCancelledOrOpen(t *testing.T) {
	p := NewPlanner(DefaultRules(), nil)
	late := at(t, "2024-03-05T00:00:00")

	c := booked("c", "2024-03-04T09:00:00", 30)
	c.Status = StatusCancelled
	if p.CompletionDue(c, late) {
		t.Error("cancelled appointment must never be due")
	}
	if p.CompletionDue(openSlot("o", "2024-03-04T09:00:00"), late) {
		t.Error("open slot must never be due")
	}
	done := booked("d", "2024-03-04T09:00:00", 30)
	done.Status = StatusCompleted
	if p.CompletionDue(done, late) {
		t.Error("completed appointment must not be due again")
	}
}

func TestApplyExpiry(t *testing.T) {
	p := NewPlanner(DefaultRules(), nil)
	now := at(t, "2024-03-04T10:00:00")

	if got := p.ApplyExpiry(openSlot("o", "2024-03-04T09:30:00"), now); got.Status != StatusExpired {
		t.Errorf("elapsed open slot should expire, got %s", got.Status)
	}
	if got := p.ApplyExpiry(openSlot("o", "2024-03-04T09:45:00"), now); got.Status != StatusScheduled {
		t.Errorf("running open slot should stay scheduled, got %s", got.Status)
	}
	if got := p.ApplyExpiry(booked("b", "2024-03-04T08:00:00", 30), now); got.Status != StatusScheduled {
		t.Errorf("booked appointment must not expire, got %s", got.Status)
	}
	c := openSlot("c", "2024-03-04T08:00:00")
	c.Status = StatusCancelled
	if got := p.ApplyExpiry(c, now); got.Status != StatusCancelled {
		t.Errorf("cancelled must stay cancelled, got %s", got.Status)
	}
}

func TestCanTransition(t *testing.T) {
	if CanTransition(StatusCancelled, StatusCompleted, false) {
		t.Error("cancelled -> completed must be forbidden")
	}
	if CanTransition(StatusCompleted, StatusExpired, true) {
		t.Error("completed -> expired must be forbidden")
	}
	if !CanTransition(StatusScheduled, StatusCompleted, false) {
		t.Error("scheduled booking -> completed must be allowed")
	}
	if CanTransition(StatusScheduled, StatusCancelled, false) {
		t.Error("derived logic never cancels")
	}
}

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"SCHEDULED": StatusScheduled,
		"canceled":  StatusCancelled,
		"Cancelled": StatusCancelled,
		"completed": StatusCompleted,
	}
	for in, want := range cases {
		got, err := ParseStatus(in)
		if err != nil || got != want {
			t.Errorf("ParseStatus(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseStatus("no-show"); err == nil {
		t.Error("expected error for unknown status")
	}
}
