package userRepo

import (
	"context"

	"github.com/tilak5758/barber-salon-backend/models"
)

// Repository persists user accounts.
type Repository interface {
	Insert(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdateRole(ctx context.Context, id, role string) error
	SetStatus(ctx context.Context, id, status string) error
	SetMobileVerified(ctx context.Context, id string) error

	// IncrementFailedLogins bumps the counter and returns the new value.
	IncrementFailedLogins(ctx context.Context, id string) (int, error)
	ResetFailedLogins(ctx context.Context, id string) error

	AddDeviceToken(ctx context.Context, id, token string) error
	Count(ctx context.Context) (int64, error)
}
