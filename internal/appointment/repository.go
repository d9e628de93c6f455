package appointment

import (
	"context"

	"github.com/hackgods/physician-calendar/internal/calendar"
)

// RemoteStore is the authoritative appointment store. The service never
// talks to storage any other way.
type RemoteStore interface {
	// FetchScheduled returns the full set of scheduled appointments; the
	// result replaces the local view.
	FetchScheduled(ctx context.Context) ([]calendar.Appointment, error)
	// CreateSlot opens an unbooked slot at a YYYY-MM-DDTHH:mm:ss timestamp.
	CreateSlot(ctx context.Context, localDateTime string) error
	// MarkCompleted returns the store's view of the completed appointment.
	MarkCompleted(ctx context.Context, id string) (*calendar.Appointment, error)
}
