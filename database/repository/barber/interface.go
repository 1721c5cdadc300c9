package barberRepo

import (
	"context"

	"github.com/tilak5758/barber-salon-backend/models"
)

// Repository persists barber profiles and their service catalog.
type Repository interface {
	Insert(ctx context.Context, barber *models.Barber) error
	GetByID(ctx context.Context, id string) (*models.Barber, error)
	GetByUserID(ctx context.Context, userID string) (*models.Barber, error)
	Update(ctx context.Context, barber *models.Barber) error
	SetVerified(ctx context.Context, id string, verified bool) error

	// SetRating writes the derived rating fields. Only the review
	// aggregator calls this.
	SetRating(ctx context.Context, id string, rating float64, count int) error

	List(ctx context.Context, city string, verifiedOnly bool) ([]models.Barber, error)
	TopRated(ctx context.Context, limit int) ([]models.Barber, error)

	// Services.
	InsertService(ctx context.Context, svc *models.Service) error
	GetService(ctx context.Context, id string) (*models.Service, error)
	UpdateService(ctx context.Context, svc *models.Service) error
	ListServices(ctx context.Context, barberID string, activeOnly bool) ([]models.Service, error)
}
