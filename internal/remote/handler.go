package remote

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/physician-calendar/internal/calendar"
)

// NewHandler serves the remote store REST contract on top of a MemoryStore.
func NewHandler(store *MemoryStore) http.Handler {
	r := chi.NewRouter()

	r.Get("/doctors/{doctorID}/appointments", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "doctorID") != store.DoctorID() {
			writeJSON(w, http.StatusOK, []AppointmentDTO{})
			return
		}
		appts, _ := store.FetchScheduled(r.Context())
		out := make([]AppointmentDTO, 0, len(appts))
		for _, a := range appts {
			out = append(out, fromAppointment(a))
		}
		writeJSON(w, http.StatusOK, out)
	})

	r.Post("/doctors/{doctorID}/slots", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "doctorID") != store.DoctorID() {
			http.Error(w, "unknown doctor", http.StatusNotFound)
			return
		}
		var req createSlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "could not parse JSON", http.StatusBadRequest)
			return
		}
		if err := store.CreateSlot(r.Context(), req.StartTime); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	r.Post("/appointments/{id}/complete", func(w http.ResponseWriter, r *http.Request) {
		a, err := store.MarkCompleted(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, fromAppointment(*a))
	})

	r.Post("/appointments/{id}/book", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PatientID string `json:"patient_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PatientID == "" {
			http.Error(w, "patient_id is required", http.StatusBadRequest)
			return
		}
		if err := store.Book(chi.URLParam(r, "id"), req.PatientID); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/appointments/{id}/cancel", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Cancel(chi.URLParam(r, "id")); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, calendar.ErrInvalidTimestamp):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrAppointmentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrAppointmentCanceled),
		errors.Is(err, ErrSlotTaken),
		errors.Is(err, ErrAlreadyBooked):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
