package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	notificationRepo "github.com/tilak5758/barber-salon-backend/database/repository/notification"
	userRepo "github.com/tilak5758/barber-salon-backend/database/repository/user"
	"github.com/tilak5758/barber-salon-backend/models"
	"github.com/tilak5758/barber-salon-backend/utils"

	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TypeReminderSend is the task type for scheduled appointment reminders.
const TypeReminderSend = "reminder:send"

// reminderLead is how far ahead of the appointment start the reminder fires.
const reminderLead = time.Hour

// ReminderPayload is the task payload for TypeReminderSend.
type ReminderPayload struct {
	AppointmentID string `json:"appointmentId"`
}

// DefaultService writes inbox entries and pushes to the user's devices over
// FCM. Both are best effort: failures are logged, never returned, so a dead
// push channel cannot fail a booking.
type DefaultService struct {
	Repo   notificationRepo.Repository
	Users  userRepo.Repository
	Tasks  *asynq.Client
	Logger *zap.Logger
}

func NewService(
	repo notificationRepo.Repository,
	users userRepo.Repository,
	tasks *asynq.Client,
	logger *zap.Logger,
) *DefaultService {
	return &DefaultService{Repo: repo, Users: users, Tasks: tasks, Logger: logger}
}

func (s *DefaultService) Notify(ctx context.Context, userID, notifType, message string, data map[string]interface{}) {
	n := &models.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      notifType,
		Message:   message,
		Data:      data,
		CreatedAt: time.Now(),
	}
	if err := s.Repo.Insert(ctx, n); err != nil {
		s.Logger.Warn("failed to write notification",
			zap.String("userId", userID), zap.String("type", notifType), zap.Error(err))
		return
	}
	s.push(ctx, n)
}

// push delivers the notification to the user's registered devices.
func (s *DefaultService) push(ctx context.Context, n *models.Notification) {
	client := utils.GetMessagingClient()
	if client == nil {
		return
	}

	user, err := s.Users.GetByID(ctx, n.UserID)
	if err != nil || len(user.DeviceTokens) == 0 {
		return
	}

	data := make(map[string]string, len(n.Data)+1)
	data["type"] = n.Type
	for k, v := range n.Data {
		data[k] = fmt.Sprint(v)
	}

	msg := &messaging.MulticastMessage{
		Tokens: user.DeviceTokens,
		Notification: &messaging.Notification{
			Title: pushTitle(n.Type),
			Body:  n.Message,
		},
		Data: data,
	}
	resp, err := client.SendEachForMulticast(ctx, msg)
	if err != nil {
		s.Logger.Warn("push delivery failed",
			zap.String("userId", n.UserID), zap.Error(err))
		return
	}
	if resp.FailureCount > 0 {
		s.Logger.Debug("push delivered partially",
			zap.String("userId", n.UserID),
			zap.Int("success", resp.SuccessCount),
			zap.Int("failure", resp.FailureCount),
		)
	}
}

func (s *DefaultService) ScheduleReminder(appt *models.Appointment) {
	if s.Tasks == nil {
		return
	}

	start, err := appt.StartTime()
	if err != nil {
		s.Logger.Warn("cannot schedule reminder: bad appointment time",
			zap.String("appointmentId", appt.ID), zap.Error(err))
		return
	}
	fireAt := start.Add(-reminderLead)
	if !fireAt.After(time.Now()) {
		return
	}

	payload, err := json.Marshal(ReminderPayload{AppointmentID: appt.ID})
	if err != nil {
		s.Logger.Warn("cannot schedule reminder: marshal payload",
			zap.String("appointmentId", appt.ID), zap.Error(err))
		return
	}

	task := asynq.NewTask(TypeReminderSend, payload)
	if _, err := s.Tasks.Enqueue(task, asynq.ProcessAt(fireAt), asynq.MaxRetry(3)); err != nil {
		s.Logger.Warn("failed to enqueue reminder",
			zap.String("appointmentId", appt.ID), zap.Error(err))
		return
	}
	s.Logger.Debug("reminder scheduled",
		zap.String("appointmentId", appt.ID), zap.Time("fireAt", fireAt))
}

func (s *DefaultService) ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.Repo.ListByUser(ctx, userID, limit)
}

func (s *DefaultService) MarkRead(ctx context.Context, userID, id string) error {
	return s.Repo.MarkRead(ctx, userID, id)
}

func pushTitle(notifType string) string {
	switch notifType {
	case models.NotifAppointmentBooked:
		return "Appointment booked"
	case models.NotifAppointmentConfirmed:
		return "Appointment confirmed"
	case models.NotifAppointmentCanceled:
		return "Appointment canceled"
	case models.NotifAppointmentCompleted:
		return "Appointment completed"
	case models.NotifAppointmentReminder:
		return "Upcoming appointment"
	case models.NotifPaymentPaid:
		return "Payment received"
	case models.NotifPaymentRefunded:
		return "Refund issued"
	default:
		return "Notification"
	}
}
