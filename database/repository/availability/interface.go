package availabilityRepo

import (
	"context"

	"github.com/tilak5758/barber-salon-backend/models"
)

// Repository owns the truth of which (barber, time-range) pairs are free.
// Reserve must be atomic with respect to concurrent reserves on the same
// slot: implementations perform it as a single conditional write.
type Repository interface {
	// GetDay returns the availability record for (barberID, date), or a
	// not-found error if the barber never published hours for that date.
	GetDay(ctx context.Context, barberID, date string) (*models.Availability, error)

	// ReplaceDay writes the full slot set for a day, creating the record if
	// it does not exist. Callers are responsible for merging booked slots.
	ReplaceDay(ctx context.Context, day *models.Availability) error

	// FindOpenSlot returns the unbooked slot whose bounds fully contain
	// [start,end), or a not-found error.
	FindOpenSlot(ctx context.Context, barberID, date string, start, end int) (*models.Slot, error)

	// Reserve marks the open slot containing [start,end) as booked by the
	// given appointment. Fails with a slot-unavailable error when no such
	// open slot exists (already booked, blocked, or never published).
	Reserve(ctx context.Context, barberID, date string, start, end int, appointmentID string) error

	// FindSlotByAppointment locates the booked slot referencing an
	// appointment id, via the slots.appointmentId index.
	FindSlotByAppointment(ctx context.Context, appointmentID string) (*models.BookedSlotRef, error)

	// ReleaseByAppointment clears the booked slot referencing the
	// appointment. Returns false when no such slot exists (idempotent no-op).
	ReleaseByAppointment(ctx context.Context, appointmentID string) (bool, error)

	// ReleaseSlot clears one specific slot, but only while it is still held
	// by the given appointment. Returns false when the slot is not booked or
	// has since been re-reserved by a different appointment.
	ReleaseSlot(ctx context.Context, barberID, date, slotID, appointmentID string) (bool, error)

	// AddSlot appends one slot to a day, creating the record if needed.
	AddSlot(ctx context.Context, barberID, date, timezone string, slot models.Slot) error

	// RemoveSlot deletes an unbooked slot. A booked slot is rejected with a
	// conflict error.
	RemoveSlot(ctx context.Context, barberID, date, slotID string) error

	// BookedRefs lists every booked slot across the ledger, for the
	// reconciliation sweep.
	BookedRefs(ctx context.Context) ([]models.BookedSlotRef, error)
}
