package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/physician-calendar/internal/calendar"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{BaseURL: srv.URL, DoctorID: "doc-1", Token: "secret", Timeout: 2 * time.Second}, zerolog.Nop())
}

func TestClient_RoundTripAgainstMemoryStore(t *testing.T) {
	store := NewMemoryStore("doc-1")
	client := newTestClient(t, NewHandler(store))
	ctx := context.Background()

	if err := client.CreateSlot(ctx, "2024-03-04T09:00:00"); err != nil {
		t.Fatalf("create slot: %v", err)
	}
	appts, err := client.FetchScheduled(ctx)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(appts) != 1 {
		t.Fatalf("expected 1 appointment, got %d", len(appts))
	}
	a := appts[0]
	if a.StartTimestamp != "2024-03-04T09:00:00" || !a.IsOpenSlot() || a.Status != calendar.StatusScheduled {
		t.Fatalf("unexpected appointment %+v", a)
	}

	if err := store.Book(a.ID, "pat-7"); err != nil {
		t.Fatalf("book: %v", err)
	}
	echo, err := client.MarkCompleted(ctx, a.ID)
	if err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	if echo.Status != calendar.StatusCompleted || echo.PatientID != "pat-7" {
		t.Fatalf("unexpected echo %+v", echo)
	}

	appts, _ = client.FetchScheduled(ctx)
	if len(appts) != 0 {
		t.Fatalf("completed appointment should no longer be scheduled, got %d", len(appts))
	}
}

func TestClient_CreateSlotRejectsBadFormatWithoutCalling(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusCreated)
	}))

	for _, ts := range []string{"2024-03-04T09:00", "2024-03-04 09:00:00", "2024-03-04T09:00:00Z"} {
		if err := client.CreateSlot(context.Background(), ts); !errors.Is(err, calendar.ErrInvalidTimestamp) {
			t.Errorf("%q: expected ErrInvalidTimestamp, got %v", ts, err)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Fatalf("expected no remote calls, got %d", n)
	}
}

func TestClient_DecodesNumericIDs(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 12, "doctor_id": 3, "patient_id": 0, "start_time": "2024-03-04T09:00:00", "status": "SCHEDULED"},
			{"id": 13, "doctor_id": 3, "patient_id": 99, "start_time": "2024-03-04T10:00:00", "status": "scheduled"},
			{"id": 14, "doctor_id": 3, "patient_id": null, "start_time": "2024-03-04T11:00:00", "status": "weird"}
		]`))
	}))

	appts, err := client.FetchScheduled(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(appts) != 2 {
		t.Fatalf("expected record with unknown status to be skipped, got %d", len(appts))
	}
	if appts[0].ID != "12" || !appts[0].IsOpenSlot() {
		t.Errorf("patient 0 must be an open slot: %+v", appts[0])
	}
	if appts[1].PatientID != "99" || appts[1].IsOpenSlot() {
		t.Errorf("patient 99 must be booked: %+v", appts[1])
	}
}

func TestClient_StatusError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))

	_, err := client.MarkCompleted(context.Background(), "1")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusForbidden || se.Body != "nope" {
		t.Fatalf("unexpected status error %+v", se)
	}
}

func TestClient_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := client.FetchScheduled(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestMemoryStore_MarkCompletedRefusesCancelled(t *testing.T) {
	store := NewMemoryStore("doc-1")
	store.Add(calendar.Appointment{ID: "a", PatientID: "p", StartTimestamp: "2024-03-04T09:00:00", Status: calendar.StatusCancelled})
	if _, err := store.MarkCompleted(context.Background(), "a"); !errors.Is(err, ErrAppointmentCanceled) {
		t.Fatalf("expected ErrAppointmentCanceled, got %v", err)
	}
}
