package reviewRepo

import (
	"context"

	"github.com/tilak5758/barber-salon-backend/models"
)

// Repository persists reviews and computes the aggregate rating.
type Repository interface {
	Insert(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id string) (*models.Review, error)
	GetByBarberUser(ctx context.Context, barberID, userID string) (*models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id string) error
	ListByBarber(ctx context.Context, barberID string) ([]models.Review, error)

	// AggregateRating rescans all reviews for the barber and returns the
	// mean rounded to 2 decimals plus the count.
	AggregateRating(ctx context.Context, barberID string) (float64, int, error)
}
