package remote

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/hackgods/physician-calendar/internal/calendar"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrAppointmentCanceled = errors.New("appointment is cancelled")
	ErrSlotTaken           = errors.New("a slot already starts at this time")
	ErrAlreadyBooked       = errors.New("slot already has a patient")
)

// MemoryStore is an in-process stand-in for the remote appointment store.
// It backs the development server and tests.
type MemoryStore struct {
	mu           sync.RWMutex
	doctorID     string
	appointments map[string]*calendar.Appointment
}

func NewMemoryStore(doctorID string) *MemoryStore {
	return &MemoryStore{
		doctorID:     doctorID,
		appointments: make(map[string]*calendar.Appointment),
	}
}

func (m *MemoryStore) DoctorID() string { return m.doctorID }

// Add inserts or replaces a record.
func (m *MemoryStore) Add(a calendar.Appointment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.DoctorID == "" {
		a.DoctorID = m.doctorID
	}
	m.appointments[a.ID] = &a
}

// All returns every record sorted by start time.
func (m *MemoryStore) All() []calendar.Appointment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedLocked(func(calendar.Appointment) bool { return true })
}

func (m *MemoryStore) Get(id string) (calendar.Appointment, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.appointments[id]
	if !ok {
		return calendar.Appointment{}, false
	}
	return *a, true
}

func (m *MemoryStore) sortedLocked(keep func(calendar.Appointment) bool) []calendar.Appointment {
	out := make([]calendar.Appointment, 0, len(m.appointments))
	for _, a := range m.appointments {
		if keep(*a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTimestamp != out[j].StartTimestamp {
			return out[i].StartTimestamp < out[j].StartTimestamp
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *MemoryStore) FetchScheduled(_ context.Context) ([]calendar.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedLocked(func(a calendar.Appointment) bool {
		return a.Status == calendar.StatusScheduled
	}), nil
}

// CreateSlot opens an unbooked slot. Like the real store it does not keep a
// duration.
func (m *MemoryStore) CreateSlot(_ context.Context, localDateTime string) error {
	if _, err := calendar.ParseSlotTimestamp(localDateTime); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.appointments {
		if a.StartTimestamp == localDateTime && a.Status == calendar.StatusScheduled {
			return ErrSlotTaken
		}
	}
	id := uuid.NewString()
	m.appointments[id] = &calendar.Appointment{
		ID:             id,
		DoctorID:       m.doctorID,
		StartTimestamp: localDateTime,
		Status:         calendar.StatusScheduled,
	}
	return nil
}

func (m *MemoryStore) MarkCompleted(_ context.Context, id string) (*calendar.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if a.Status == calendar.StatusCancelled {
		return nil, ErrAppointmentCanceled
	}
	a.Status = calendar.StatusCompleted
	out := *a
	return &out, nil
}

// Book attaches a patient to an open slot.
func (m *MemoryStore) Book(id, patientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	if !a.IsOpenSlot() {
		return ErrAlreadyBooked
	}
	a.PatientID = patientID
	return nil
}

func (m *MemoryStore) Cancel(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	a.Status = calendar.StatusCancelled
	return nil
}
