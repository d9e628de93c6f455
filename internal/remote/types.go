package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hackgods/physician-calendar/internal/calendar"
)

// opaqueID accepts ids sent either as JSON strings or numbers. null decodes
// to the empty string.
type opaqueID string

func (o *opaqueID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*o = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*o = opaqueID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*o = opaqueID(n.String())
	return nil
}

// AppointmentDTO is the wire shape of an appointment in the remote store.
type AppointmentDTO struct {
	ID              opaqueID `json:"id"`
	DoctorID        opaqueID `json:"doctor_id"`
	PatientID       opaqueID `json:"patient_id"`
	StartTime       string   `json:"start_time"`
	DurationMinutes int      `json:"duration_minutes,omitempty"`
	Status          string   `json:"status"`
}

func (d AppointmentDTO) toAppointment() (calendar.Appointment, error) {
	status, err := calendar.ParseStatus(d.Status)
	if err != nil {
		return calendar.Appointment{}, err
	}
	id := strings.TrimSpace(string(d.ID))
	if id == "" {
		return calendar.Appointment{}, fmt.Errorf("appointment without id")
	}
	return calendar.Appointment{
		ID:              id,
		DoctorID:        string(d.DoctorID),
		PatientID:       string(d.PatientID),
		StartTimestamp:  d.StartTime,
		DurationMinutes: d.DurationMinutes,
		Status:          status,
	}, nil
}

func fromAppointment(a calendar.Appointment) AppointmentDTO {
	return AppointmentDTO{
		ID:              opaqueID(a.ID),
		DoctorID:        opaqueID(a.DoctorID),
		PatientID:       opaqueID(a.PatientID),
		StartTime:       a.StartTimestamp,
		DurationMinutes: a.DurationMinutes,
		Status:          string(a.Status),
	}
}

type createSlotRequest struct {
	StartTime string `json:"start_time"`
}

// StatusError is returned when the remote store answers with a non-2xx code.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status code %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status code %d: %s", e.Op, e.StatusCode, e.Body)
}
