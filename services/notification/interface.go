package notification

import (
	"context"

	"github.com/tilak5758/barber-salon-backend/models"
)

// Service delivers events to users. The core treats it as a read-only
// observer: delivery is best-effort and never blocks or fails a core flow.
type Service interface {
	// Notify records an inbox entry and pushes it to the user's devices.
	Notify(ctx context.Context, userID, notifType, message string, data map[string]interface{})

	// ScheduleReminder enqueues a reminder ahead of the appointment start.
	ScheduleReminder(appt *models.Appointment)

	ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
}
