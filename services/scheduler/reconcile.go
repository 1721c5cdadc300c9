package scheduler

import (
	"context"

	"github.com/tilak5758/barber-salon-backend/utils"

	"go.uber.org/zap"
)

// ReconcileSlots repairs the two crash windows the booking flow leaves open:
// a reserved slot whose appointment insert never happened, and a slot still
// held by an appointment that reached a terminal status before its release
// ran. Live pending appointments are never touched.
func (s *DefaultService) ReconcileSlots(ctx context.Context) (int, error) {
	refs, err := s.Availability.BookedRefs(ctx)
	if err != nil {
		return 0, err
	}

	freed := 0
	for _, ref := range refs {
		appt, err := s.Appointments.GetByID(ctx, ref.AppointmentID)
		switch {
		case err != nil && utils.IsNotFound(err):
			// Orphaned hold: the reserve succeeded but the appointment was
			// never created.
		case err != nil:
			s.Logger.Warn("sweep: failed to load appointment",
				zap.String("appointmentId", ref.AppointmentID), zap.Error(err))
			continue
		case !appt.IsTerminal():
			continue
		}

		released, err := s.Availability.ReleaseSlot(ctx, ref.BarberID, ref.Date, ref.SlotID, ref.AppointmentID)
		if err != nil {
			s.Logger.Warn("sweep: failed to release slot",
				zap.String("slotId", ref.SlotID), zap.Error(err))
			continue
		}
		if released {
			freed++
			s.Logger.Info("sweep: released inconsistent slot",
				zap.String("barberId", ref.BarberID),
				zap.String("date", ref.Date),
				zap.String("slotId", ref.SlotID),
				zap.String("appointmentId", ref.AppointmentID),
			)
		}
	}
	return freed, nil
}
