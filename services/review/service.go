package review

import (
	"context"
	"time"

	appointmentRepo "github.com/tilak5758/barber-salon-backend/database/repository/appointment"
	barberRepo "github.com/tilak5758/barber-salon-backend/database/repository/barber"
	reviewRepo "github.com/tilak5758/barber-salon-backend/database/repository/review"
	"github.com/tilak5758/barber-salon-backend/models"
	"github.com/tilak5758/barber-salon-backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReviewRequest carries review fields.
type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// Service manages reviews and keeps the barber's derived rating in sync.
// Only customers with a completed appointment at the barber may review, and
// at most once per barber.
type Service interface {
	Create(ctx context.Context, actor models.Actor, barberID string, req ReviewRequest) (*models.Review, error)
	Update(ctx context.Context, actor models.Actor, reviewID string, req ReviewRequest) (*models.Review, error)
	Delete(ctx context.Context, actor models.Actor, reviewID string) error
	ListForBarber(ctx context.Context, barberID string) ([]models.Review, error)
}

// DefaultService implements Service.
type DefaultService struct {
	Reviews      reviewRepo.Repository
	Barbers      barberRepo.Repository
	Appointments appointmentRepo.Repository
	Logger       *zap.Logger
}

func NewService(
	reviews reviewRepo.Repository,
	barbers barberRepo.Repository,
	appts appointmentRepo.Repository,
	logger *zap.Logger,
) *DefaultService {
	return &DefaultService{Reviews: reviews, Barbers: barbers, Appointments: appts, Logger: logger}
}

func (s *DefaultService) Create(ctx context.Context, actor models.Actor, barberID string, req ReviewRequest) (*models.Review, error) {
	if err := validateRating(req.Rating); err != nil {
		return nil, err
	}
	if _, err := s.Barbers.GetByID(ctx, barberID); err != nil {
		return nil, err
	}

	completed, err := s.Appointments.HasCompleted(ctx, actor.ID, barberID)
	if err != nil {
		return nil, err
	}
	if !completed {
		return nil, utils.NewConflictError("you can only review barbers after a completed appointment")
	}

	now := time.Now()
	review := &models.Review{
		ID:        uuid.New().String(),
		BarberID:  barberID,
		UserID:    actor.ID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Reviews.Insert(ctx, review); err != nil {
		return nil, err
	}

	if err := s.recomputeRating(ctx, barberID); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *DefaultService) Update(ctx context.Context, actor models.Actor, reviewID string, req ReviewRequest) (*models.Review, error) {
	if err := validateRating(req.Rating); err != nil {
		return nil, err
	}

	review, err := s.Reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID != actor.ID {
		return nil, utils.NewForbiddenError("you can only edit your own reviews")
	}

	review.Rating = req.Rating
	review.Comment = req.Comment
	review.UpdatedAt = time.Now()
	if err := s.Reviews.Update(ctx, review); err != nil {
		return nil, err
	}

	if err := s.recomputeRating(ctx, review.BarberID); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *DefaultService) Delete(ctx context.Context, actor models.Actor, reviewID string) error {
	review, err := s.Reviews.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.UserID != actor.ID && !actor.IsAdmin() {
		return utils.NewForbiddenError("you can only delete your own reviews")
	}

	if err := s.Reviews.Delete(ctx, reviewID); err != nil {
		return err
	}
	return s.recomputeRating(ctx, review.BarberID)
}

func (s *DefaultService) ListForBarber(ctx context.Context, barberID string) ([]models.Review, error) {
	if _, err := s.Barbers.GetByID(ctx, barberID); err != nil {
		return nil, err
	}
	return s.Reviews.ListByBarber(ctx, barberID)
}

// recomputeRating rescans the barber's reviews and writes the derived
// fields. A full rescan beats incremental math: it self-heals after any
// missed update.
func (s *DefaultService) recomputeRating(ctx context.Context, barberID string) error {
	rating, count, err := s.Reviews.AggregateRating(ctx, barberID)
	if err != nil {
		return err
	}
	return s.Barbers.SetRating(ctx, barberID, rating, count)
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return utils.NewValidationError("rating must be between 1 and 5")
	}
	return nil
}
