package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/physician-calendar/internal/appointment"
	"github.com/hackgods/physician-calendar/internal/calendar"
)

func listAppointmentsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := svc.Planner()

		var appts []calendar.Appointment
		if raw := r.URL.Query().Get("date"); raw != "" {
			date, err := calendar.ParseDate(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
				return
			}
			appts = svc.AppointmentsOn(date)
		} else {
			appts = svc.Appointments()
		}

		writeJSON(w, http.StatusOK, toAppointmentResponses(p, appts))
	}
}

func checkConflictHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ConflictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		start, minutes, err := parseCandidate(req)
		if err != nil {
			handleCalendarError(w, err)
			return
		}

		conflicts := svc.CheckConflicts(start, minutes)
		writeJSON(w, http.StatusOK, ConflictResponse{
			HasConflicts: len(conflicts) > 0,
			Conflicts:    toAppointmentResponses(svc.Planner(), conflicts),
		})
	}
}

func checkBatchHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BatchConflictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		slots := make([]calendar.CalculatedSlot, 0, len(req.Slots))
		for i, c := range req.Slots {
			start, minutes, err := parseCandidate(c)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_slot", "slot "+strconv.Itoa(i+1)+": "+err.Error())
				return
			}
			slots = append(slots, calendar.CalculatedSlot{Start: start, Index: i + 1, DurationMinutes: minutes})
		}

		writeJSON(w, http.StatusOK, toBatchResponse(svc.Planner(), svc.CheckBatch(slots)))
	}
}

func blockedRangesHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := calendar.ParseDate(r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
			return
		}

		ranges := svc.BlockedRanges(date)
		out := make([]BlockedRangeResponse, 0, len(ranges))
		for _, br := range ranges {
			ids := make([]string, 0, len(br.Appointments))
			for _, a := range br.Appointments {
				ids = append(ids, a.ID)
			}
			out = append(out, BlockedRangeResponse{
				Start:          br.Start.Canonical(),
				End:            br.End.Canonical(),
				AppointmentIDs: ids,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func availabilityHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		date, err := calendar.ParseDate(q.Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", err.Error())
			return
		}
		at, err := calendar.ParseClock(q.Get("time"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_time", err.Error())
			return
		}

		resp := AvailabilityResponse{Date: date.String(), Time: at.String()}
		for _, win := range svc.FreeWindows(date, at) {
			resp.FreeWindows = append(resp.FreeWindows, WindowResponse{
				Start:   win.Start.Canonical(),
				End:     win.End.Canonical(),
				Minutes: int(win.Duration().Minutes()),
			})
		}

		if raw := q.Get("duration"); raw != "" {
			requested, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_duration", "duration must be a whole number of minutes")
				return
			}
			free, err := svc.CheckAvailability(date, at, requested)
			if errors.Is(err, calendar.ErrInvalidDuration) || errors.Is(err, calendar.ErrInvalidTime) {
				handleCalendarError(w, err)
				return
			}
			resp.FreeMinutes = free
			resp.RequestedMinutes = requested
			resp.Fits = err == nil
			if err != nil {
				resp.Reason = err.Error()
			}
			writeJSON(w, http.StatusOK, resp)
			return
		}

		free, _ := svc.MaxFreeDuration(date, at)
		resp.FreeMinutes = free
		resp.Fits = svc.Planner().CheckRequestedDuration(free, svc.Rules().MinViableMinutes()) == nil
		writeJSON(w, http.StatusOK, resp)
	}
}

func previewSlotsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slots, ok := decodeSlotRequest(w, r, svc)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, toBatchResponse(svc.Planner(), svc.CheckBatch(slots)))
	}
}

func openSlotsHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slots, ok := decodeSlotRequest(w, r, svc)
		if !ok {
			return
		}

		res := svc.OpenSlots(r.Context(), slots)
		resp := OpenSlotsResponse{
			Created: nonNilInts(res.Created),
			Failed:  res.Failed,
			Skipped: nonNilInts(res.Skipped),
		}
		if resp.Failed == nil {
			resp.Failed = []appointment.SlotFailure{}
		}

		status := http.StatusCreated
		switch {
		case len(res.Created) == 0 && len(res.Failed) > 0 && allConflicts(res.Failed):
			status = http.StatusConflict
		case len(res.Created) == 0:
			status = http.StatusBadGateway
		case len(res.Failed) > 0 || len(res.Skipped) > 0:
			status = http.StatusMultiStatus
		}
		writeJSON(w, status, resp)
	}
}

func completeAppointmentHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		appt, err := svc.CompleteAppointment(r.Context(), id)
		if err != nil {
			handleCalendarError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(svc.Planner(), *appt))
	}
}

func refreshHandler(svc *appointment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Refresh(r.Context()); err != nil {
			handleCalendarError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponses(svc.Planner(), svc.Appointments()))
	}
}

func decodeSlotRequest(w http.ResponseWriter, r *http.Request, svc *appointment.Service) ([]calendar.CalculatedSlot, bool) {
	var body SlotRunRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return nil, false
	}
	req := calendar.SlotRequest{
		Date:                 body.Date,
		StartTime:            body.StartTime,
		Count:                body.Count,
		SlotDurationMinutes:  svc.Rules().DefaultMinutes(),
		BreakDurationMinutes: body.BreakDurationMinutes,
		ConstrainToSameDay:   body.ConstrainToSameDay,
	}
	// only an absent duration takes the default; an explicit 0 is rejected
	if body.SlotDurationMinutes != nil {
		req.SlotDurationMinutes = *body.SlotDurationMinutes
	}
	if _, _, err := req.Validate(); err != nil {
		handleCalendarError(w, err)
		return nil, false
	}

	slots := svc.PreviewSlots(req)
	if len(slots) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "no_slots", "the first slot is in the past or does not fit before the end of day")
		return nil, false
	}
	return slots, true
}

func parseCandidate(req ConflictRequest) (calendar.LocalDateTime, int, error) {
	start, err := calendar.ParseLocalDateTime(req.Start)
	if err != nil {
		return calendar.LocalDateTime{}, 0, err
	}
	if req.DurationMinutes <= 0 {
		return calendar.LocalDateTime{}, 0, calendar.ErrInvalidDuration
	}
	return start, req.DurationMinutes, nil
}

func handleCalendarError(w http.ResponseWriter, err error) {
	var conflict *appointment.ConflictError
	switch {
	case errors.Is(err, calendar.ErrInvalidDate),
		errors.Is(err, calendar.ErrInvalidTime),
		errors.Is(err, calendar.ErrInvalidTimestamp),
		errors.Is(err, calendar.ErrInvalidDuration),
		errors.Is(err, calendar.ErrInvalidCount):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, "slot_conflict", err.Error())
	case errors.Is(err, appointment.ErrNotCompletable):
		writeError(w, http.StatusConflict, "not_completable", err.Error())
	case errors.Is(err, appointment.ErrCompletionInFlight):
		writeError(w, http.StatusConflict, "completion_in_flight", "appointment is already being completed, please retry shortly")
	case errors.Is(err, appointment.ErrSlotInPast):
		writeError(w, http.StatusUnprocessableEntity, "slot_in_past", err.Error())
	case errors.Is(err, appointment.ErrInvalidCompletionEcho),
		errors.Is(err, appointment.ErrRemote):
		writeError(w, http.StatusBadGateway, "remote_store_error", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func toAppointmentResponse(p calendar.Planner, a calendar.Appointment) AppointmentResponse {
	resp := AppointmentResponse{
		ID:              a.ID,
		DoctorID:        a.DoctorID,
		PatientID:       a.PatientID,
		StartTime:       a.StartTimestamp,
		DurationMinutes: p.ResolveDuration(a),
		Status:          string(a.Status),
		OpenSlot:        a.IsOpenSlot(),
	}
	if tr, ok := p.TimeRangeOf(a); ok {
		resp.EndTime = tr.End.Canonical()
	}
	return resp
}

func toAppointmentResponses(p calendar.Planner, appts []calendar.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, 0, len(appts))
	for _, a := range appts {
		out = append(out, toAppointmentResponse(p, a))
	}
	return out
}

func toBatchResponse(p calendar.Planner, batch calendar.BatchConflicts) BatchConflictResponse {
	resp := BatchConflictResponse{
		HasConflicts:       batch.HasConflicts,
		TotalConflictCount: batch.TotalConflictCount,
		Candidates:         make([]CandidateResponse, 0, len(batch.PerCandidate)),
	}
	for _, c := range batch.PerCandidate {
		resp.Candidates = append(resp.Candidates, CandidateResponse{
			Index:           c.Slot.Index,
			Start:           c.Slot.Timestamp(),
			End:             c.Slot.End().Canonical(),
			DurationMinutes: c.Slot.DurationMinutes,
			Conflicts:       toAppointmentResponses(p, c.Conflicts),
		})
	}
	return resp
}

func allConflicts(failed []appointment.SlotFailure) bool {
	for _, f := range failed {
		if !errors.Is(f.Err, appointment.ErrSlotConflict) {
			return false
		}
	}
	return true
}

func nonNilInts(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
