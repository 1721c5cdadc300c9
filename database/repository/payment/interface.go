package paymentRepo

import (
	"context"

	"github.com/tilak5758/barber-salon-backend/models"
)

// Repository persists payments and refunds. Status flips are conditional
// writes so redelivered webhooks become no-ops.
type Repository interface {
	Insert(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	GetByProviderRef(ctx context.Context, provider, providerRef string) (*models.Payment, error)
	SetProviderRef(ctx context.Context, id, providerRef string) error

	// TransitionStatus sets status=to only from the given current value.
	TransitionStatus(ctx context.Context, id, from, to string) (bool, error)

	// MergeMetadata merges keys into the payment's metadata map.
	MergeMetadata(ctx context.Context, id string, metadata map[string]string) error

	InsertRefund(ctx context.Context, refund *models.Refund) error
	UpdateRefund(ctx context.Context, id, status, providerRef string) error
	ListRefunds(ctx context.Context, paymentID string) ([]models.Refund, error)

	// SumPaid returns the total amount across paid and refunded payments.
	SumPaid(ctx context.Context) (float64, error)
}
