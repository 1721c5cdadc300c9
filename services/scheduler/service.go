package scheduler

import (
	"context"
	"fmt"
	"time"

	appointmentRepo "github.com/tilak5758/barber-salon-backend/database/repository/appointment"
	availabilityRepo "github.com/tilak5758/barber-salon-backend/database/repository/availability"
	barberRepo "github.com/tilak5758/barber-salon-backend/database/repository/barber"
	"github.com/tilak5758/barber-salon-backend/models"
	"github.com/tilak5758/barber-salon-backend/services/notification"
	"github.com/tilak5758/barber-salon-backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BookRequest carries a customer's booking intent.
type BookRequest struct {
	BarberID  string `json:"barberId" binding:"required"`
	ServiceID string `json:"serviceId" binding:"required"`
	Date      string `json:"date" binding:"required"`
	Start     int    `json:"start" binding:"required"`
	Notes     string `json:"notes"`
}

// Service drives the appointment state machine. All status transitions are
// conditional writes on the current status, so a webhook and a user action
// racing on the same appointment converge instead of conflicting.
type Service interface {
	Book(ctx context.Context, actor models.Actor, req BookRequest) (*models.Appointment, error)
	Confirm(ctx context.Context, actor models.Actor, id string) (*models.Appointment, error)
	// ConfirmByPayment is the payment coordinator's confirm path. It is
	// idempotent: an appointment already out of pending is left alone.
	ConfirmByPayment(ctx context.Context, id string) error
	Cancel(ctx context.Context, actor models.Actor, id, reason string) (*models.Appointment, error)
	Complete(ctx context.Context, actor models.Actor, id string) (*models.Appointment, error)
	Reschedule(ctx context.Context, actor models.Actor, id, newDate string, newStart int) (*models.Appointment, error)

	Get(ctx context.Context, actor models.Actor, id string) (*models.Appointment, error)
	ListForCustomer(ctx context.Context, actor models.Actor) ([]models.Appointment, error)
	ListForBarber(ctx context.Context, actor models.Actor, barberID, date string) ([]models.Appointment, error)

	// ReconcileSlots frees booked slots whose appointment is missing,
	// canceled, or completed. Returns the number of slots freed.
	ReconcileSlots(ctx context.Context) (int, error)
}

// DefaultService implements Service.
type DefaultService struct {
	Appointments appointmentRepo.Repository
	Availability availabilityRepo.Repository
	Barbers      barberRepo.Repository
	Notifier     notification.Service
	Logger       *zap.Logger
}

func NewService(
	appts appointmentRepo.Repository,
	avail availabilityRepo.Repository,
	barbers barberRepo.Repository,
	notifier notification.Service,
	logger *zap.Logger,
) *DefaultService {
	return &DefaultService{
		Appointments: appts,
		Availability: avail,
		Barbers:      barbers,
		Notifier:     notifier,
		Logger:       logger,
	}
}

// actorManagesBarber reports whether the actor is an admin or the user who
// owns the barber profile.
func (s *DefaultService) actorManagesBarber(ctx context.Context, actor models.Actor, barberID string) (bool, error) {
	if actor.IsAdmin() {
		return true, nil
	}
	if actor.Role != models.RoleBarber {
		return false, nil
	}
	barber, err := s.Barbers.GetByID(ctx, barberID)
	if err != nil {
		return false, err
	}
	return barber.UserID == actor.ID, nil
}

func (s *DefaultService) Book(ctx context.Context, actor models.Actor, req BookRequest) (*models.Appointment, error) {
	svc, err := s.Barbers.GetService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if svc.BarberID != req.BarberID {
		return nil, utils.NewValidationError("service %s does not belong to barber %s", req.ServiceID, req.BarberID)
	}
	if !svc.Active {
		return nil, utils.NewConflictError("service %q is not currently offered", svc.Name)
	}

	day, err := s.Availability.GetDay(ctx, req.BarberID, req.Date)
	if err != nil {
		return nil, err
	}

	end := req.Start + svc.DurationMin
	apptID := uuid.New().String()

	// Reserve-then-create. A crash between the two steps leaves a booked
	// slot with no appointment; the reconciliation sweep frees those.
	if err := s.Availability.Reserve(ctx, req.BarberID, req.Date, req.Start, end, apptID); err != nil {
		return nil, err
	}

	now := time.Now()
	appt := &models.Appointment{
		ID:            apptID,
		CustomerID:    actor.ID,
		BarberID:      req.BarberID,
		ServiceID:     svc.ID,
		ServiceName:   svc.Name,
		Date:          req.Date,
		Start:         req.Start,
		End:           end,
		Timezone:      day.Timezone,
		Price:         svc.Price, // snapshot; later price changes don't affect this booking
		Status:        models.ApptPending,
		PaymentStatus: models.PayUnpaid,
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Appointments.Insert(ctx, appt); err != nil {
		if _, relErr := s.Availability.ReleaseByAppointment(ctx, apptID); relErr != nil {
			s.Logger.Error("failed to release slot after insert failure",
				zap.String("appointmentId", apptID), zap.Error(relErr))
		}
		return nil, err
	}

	s.Logger.Info("appointment booked",
		zap.String("appointmentId", appt.ID),
		zap.String("barberId", appt.BarberID),
		zap.String("date", appt.Date),
		zap.Int("start", appt.Start),
	)
	s.notifyParties(ctx, appt, models.NotifAppointmentBooked,
		fmt.Sprintf("Appointment for %s on %s booked.", appt.ServiceName, appt.Date))
	return appt, nil
}

func (s *DefaultService) Confirm(ctx context.Context, actor models.Actor, id string) (*models.Appointment, error) {
	appt, err := s.Appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	manages, err := s.actorManagesBarber(ctx, actor, appt.BarberID)
	if err != nil {
		return nil, err
	}
	if !manages {
		return nil, utils.NewForbiddenError("only the barber or an admin can confirm an appointment")
	}

	ok, err := s.Appointments.TransitionStatus(ctx, id, []string{models.ApptPending}, models.ApptConfirmed)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Confirming an already-confirmed appointment is a no-op, not an
		// error: the payment webhook may have won the race.
		current, err := s.Appointments.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Status == models.ApptConfirmed {
			return current, nil
		}
		return nil, utils.NewConflictError("appointment is %s and cannot be confirmed", current.Status)
	}

	appt.Status = models.ApptConfirmed
	s.notifyParties(ctx, appt, models.NotifAppointmentConfirmed,
		fmt.Sprintf("Appointment for %s on %s confirmed.", appt.ServiceName, appt.Date))
	s.Notifier.ScheduleReminder(appt)
	return appt, nil
}

func (s *DefaultService) ConfirmByPayment(ctx context.Context, id string) error {
	ok, err := s.Appointments.TransitionStatus(ctx, id, []string{models.ApptPending}, models.ApptConfirmed)
	if err != nil {
		return err
	}
	if !ok {
		// Already confirmed, canceled, or completed: the webhook treats
		// this as already-handled.
		s.Logger.Debug("payment confirm was a no-op", zap.String("appointmentId", id))
		return nil
	}
	appt, err := s.Appointments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	s.notifyParties(ctx, appt, models.NotifAppointmentConfirmed,
		fmt.Sprintf("Appointment for %s on %s confirmed.", appt.ServiceName, appt.Date))
	s.Notifier.ScheduleReminder(appt)
	return nil
}

func (s *DefaultService) Cancel(ctx context.Context, actor models.Actor, id, reason string) (*models.Appointment, error) {
	appt, err := s.Appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.ID != appt.CustomerID {
		manages, err := s.actorManagesBarber(ctx, actor, appt.BarberID)
		if err != nil {
			return nil, err
		}
		if !manages {
			return nil, utils.NewForbiddenError("not allowed to cancel this appointment")
		}
	}
	if appt.IsTerminal() {
		return nil, utils.NewConflictError("appointment is already %s", appt.Status)
	}
	if appt.Status == models.ApptConfirmed {
		startAt, err := appt.StartTime()
		if err != nil {
			return nil, utils.NewInternalError("cannot resolve appointment start: %v", err)
		}
		if !time.Now().Before(startAt) {
			return nil, utils.NewConflictError("confirmed appointment can only be canceled before it starts")
		}
	}

	ok, err := s.Appointments.TransitionStatus(ctx, id,
		[]string{models.ApptPending, models.ApptConfirmed}, models.ApptCanceled)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.Appointments.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, utils.NewConflictError("appointment is already %s", current.Status)
	}

	if reason != "" {
		note := fmt.Sprintf("canceled by %s: %s", actor.Role, reason)
		if err := s.Appointments.AppendNote(ctx, id, note); err != nil {
			s.Logger.Warn("failed to append cancel reason", zap.String("appointmentId", id), zap.Error(err))
		}
	}

	// Release happens after the status write; a crash in between leaves a
	// canceled appointment holding its slot until the sweep frees it.
	if _, err := s.Availability.ReleaseByAppointment(ctx, id); err != nil {
		s.Logger.Error("failed to release slot on cancel",
			zap.String("appointmentId", id), zap.Error(err))
	}

	appt.Status = models.ApptCanceled
	s.notifyParties(ctx, appt, models.NotifAppointmentCanceled,
		fmt.Sprintf("Appointment for %s on %s was canceled.", appt.ServiceName, appt.Date))
	return appt, nil
}

func (s *DefaultService) Complete(ctx context.Context, actor models.Actor, id string) (*models.Appointment, error) {
	appt, err := s.Appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	manages, err := s.actorManagesBarber(ctx, actor, appt.BarberID)
	if err != nil {
		return nil, err
	}
	if !manages {
		return nil, utils.NewForbiddenError("only the barber or an admin can complete an appointment")
	}

	ok, err := s.Appointments.TransitionStatus(ctx, id, []string{models.ApptConfirmed}, models.ApptCompleted)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.Appointments.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, utils.NewConflictError("appointment is %s and cannot be completed", current.Status)
	}

	// The slot stays attached to history; the sweep ignores past days but
	// frees anything still marked booked for a terminal appointment.
	if _, err := s.Availability.ReleaseByAppointment(ctx, id); err != nil {
		s.Logger.Error("failed to release slot on complete",
			zap.String("appointmentId", id), zap.Error(err))
	}

	appt.Status = models.ApptCompleted
	s.notifyParties(ctx, appt, models.NotifAppointmentCompleted,
		fmt.Sprintf("Appointment for %s on %s completed.", appt.ServiceName, appt.Date))
	return appt, nil
}

func (s *DefaultService) Reschedule(ctx context.Context, actor models.Actor, id, newDate string, newStart int) (*models.Appointment, error) {
	appt, err := s.Appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID != appt.CustomerID {
		return nil, utils.NewForbiddenError("only the booking customer can reschedule")
	}
	if appt.Status != models.ApptPending {
		return nil, utils.NewConflictError("only pending appointments can be rescheduled")
	}
	if newDate == appt.Date && newStart == appt.Start {
		return nil, utils.NewValidationError("new start equals the current start")
	}

	duration := appt.End - appt.Start
	newEnd := newStart + duration

	oldRef, err := s.Availability.FindSlotByAppointment(ctx, id)
	if err != nil && !utils.IsNotFound(err) {
		return nil, err
	}

	// Reserve the new slot first. If it is unavailable the appointment and
	// its old slot are left untouched: a failed reschedule never drops the
	// existing hold.
	if err := s.Availability.Reserve(ctx, appt.BarberID, newDate, newStart, newEnd, id); err != nil {
		return nil, err
	}
	if oldRef != nil {
		if _, err := s.Availability.ReleaseSlot(ctx, oldRef.BarberID, oldRef.Date, oldRef.SlotID, id); err != nil {
			s.Logger.Error("failed to release old slot on reschedule",
				zap.String("appointmentId", id), zap.Error(err))
		}
	}

	ok, err := s.Appointments.Reschedule(ctx, id, newDate, newStart, newEnd)
	if err != nil {
		return nil, err
	}
	if !ok {
		// A concurrent transition beat us; undo the slot swap best-effort
		// and report the conflict. The sweep repairs anything left over.
		if newRef, refErr := s.Availability.FindSlotByAppointment(ctx, id); refErr == nil {
			_, _ = s.Availability.ReleaseSlot(ctx, newRef.BarberID, newRef.Date, newRef.SlotID, id)
		}
		if oldRef != nil {
			_ = s.Availability.Reserve(ctx, oldRef.BarberID, oldRef.Date, oldRef.Start, oldRef.End, id)
		}
		return nil, utils.NewConflictError("appointment is no longer pending")
	}

	updated, err := s.Appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("appointment rescheduled",
		zap.String("appointmentId", id),
		zap.String("date", newDate),
		zap.Int("start", newStart),
	)
	return updated, nil
}

func (s *DefaultService) Get(ctx context.Context, actor models.Actor, id string) (*models.Appointment, error) {
	appt, err := s.Appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID == appt.CustomerID {
		return appt, nil
	}
	manages, err := s.actorManagesBarber(ctx, actor, appt.BarberID)
	if err != nil {
		return nil, err
	}
	if !manages {
		return nil, utils.NewForbiddenError("not allowed to view this appointment")
	}
	return appt, nil
}

func (s *DefaultService) ListForCustomer(ctx context.Context, actor models.Actor) ([]models.Appointment, error) {
	return s.Appointments.ListByCustomer(ctx, actor.ID)
}

func (s *DefaultService) ListForBarber(ctx context.Context, actor models.Actor, barberID, date string) ([]models.Appointment, error) {
	manages, err := s.actorManagesBarber(ctx, actor, barberID)
	if err != nil {
		return nil, err
	}
	if !manages {
		return nil, utils.NewForbiddenError("not allowed to view this barber's appointments")
	}
	return s.Appointments.ListByBarberDate(ctx, barberID, date)
}

func (s *DefaultService) notifyParties(ctx context.Context, appt *models.Appointment, notifType, message string) {
	data := map[string]interface{}{
		"appointmentId": appt.ID,
		"date":          appt.Date,
		"start":         appt.Start,
	}
	s.Notifier.Notify(ctx, appt.CustomerID, notifType, message, data)
	if barber, err := s.Barbers.GetByID(ctx, appt.BarberID); err == nil {
		s.Notifier.Notify(ctx, barber.UserID, notifType, message, data)
	}
}
