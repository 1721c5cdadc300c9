package notificationRepo

import (
	"context"

	"github.com/tilak5758/barber-salon-backend/models"
)

// Repository persists the per-user notification inbox.
type Repository interface {
	Insert(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
}
