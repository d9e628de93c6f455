package api

import (
	"github.com/hackgods/physician-calendar/internal/appointment"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type AppointmentResponse struct {
	ID              string `json:"id"`
	DoctorID        string `json:"doctor_id,omitempty"`
	PatientID       string `json:"patient_id,omitempty"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
	Status          string `json:"status"`
	OpenSlot        bool   `json:"open_slot"`
}

// SlotRunRequest is calendar.SlotRequest with an optional slot duration.
type SlotRunRequest struct {
	Date                 string `json:"date"`
	StartTime            string `json:"start_time"`
	Count                int    `json:"count"`
	SlotDurationMinutes  *int   `json:"slot_duration_minutes"`
	BreakDurationMinutes int    `json:"break_duration_minutes"`
	ConstrainToSameDay   bool   `json:"constrain_to_same_day"`
}

type ConflictRequest struct {
	Start           string `json:"start"`
	DurationMinutes int    `json:"duration_minutes"`
}

type ConflictResponse struct {
	HasConflicts bool                  `json:"has_conflicts"`
	Conflicts    []AppointmentResponse `json:"conflicts"`
}

type BatchConflictRequest struct {
	Slots []ConflictRequest `json:"slots"`
}

type CandidateResponse struct {
	Index           int                   `json:"index"`
	Start           string                `json:"start"`
	End             string                `json:"end"`
	DurationMinutes int                   `json:"duration_minutes"`
	Conflicts       []AppointmentResponse `json:"conflicts"`
}

type BatchConflictResponse struct {
	HasConflicts       bool                `json:"has_conflicts"`
	TotalConflictCount int                 `json:"total_conflict_count"`
	Candidates         []CandidateResponse `json:"candidates"`
}

type BlockedRangeResponse struct {
	Start          string   `json:"start"`
	End            string   `json:"end"`
	AppointmentIDs []string `json:"appointment_ids"`
}

type WindowResponse struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Minutes int    `json:"minutes"`
}

type AvailabilityResponse struct {
	Date             string           `json:"date"`
	Time             string           `json:"time"`
	FreeMinutes      int              `json:"free_minutes"`
	RequestedMinutes int              `json:"requested_minutes,omitempty"`
	Fits             bool             `json:"fits"`
	Reason           string           `json:"reason,omitempty"`
	FreeWindows      []WindowResponse `json:"free_windows"`
}

type OpenSlotsResponse struct {
	Created []int                     `json:"created"`
	Failed  []appointment.SlotFailure `json:"failed"`
	Skipped []int                     `json:"skipped"`
}
