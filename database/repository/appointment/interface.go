package appointmentRepo

import (
	"context"

	"github.com/tilak5758/barber-salon-backend/models"
)

// Repository persists appointments. Status transitions are conditional
// writes filtered on the current status, so racing actors converge instead
// of clobbering each other.
type Repository interface {
	Insert(ctx context.Context, appt *models.Appointment) error
	GetByID(ctx context.Context, id string) (*models.Appointment, error)

	// TransitionStatus sets status=to only if the current status is one of
	// from. Returns false when no document matched (already transitioned).
	TransitionStatus(ctx context.Context, id string, from []string, to string) (bool, error)

	// TransitionPaymentStatus sets paymentStatus=to only from the given
	// current value.
	TransitionPaymentStatus(ctx context.Context, id, from, to string) (bool, error)

	// Reschedule moves a pending appointment to a new date/time and bumps
	// rescheduleCount. Returns false if the appointment is no longer pending.
	Reschedule(ctx context.Context, id, date string, start, end int) (bool, error)

	// AppendNote appends a line to the appointment's notes.
	AppendNote(ctx context.Context, id, note string) error

	ListByCustomer(ctx context.Context, customerID string) ([]models.Appointment, error)
	ListByBarberDate(ctx context.Context, barberID, date string) ([]models.Appointment, error)

	// HasCompleted reports whether the customer has at least one completed
	// appointment with the barber (review gating).
	HasCompleted(ctx context.Context, customerID, barberID string) (bool, error)

	// CountByStatus returns appointment counts keyed by status.
	CountByStatus(ctx context.Context) (map[string]int64, error)
}
