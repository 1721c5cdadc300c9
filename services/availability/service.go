package availability

import (
	"context"
	"sort"
	"time"

	availabilityRepo "github.com/tilak5758/barber-salon-backend/database/repository/availability"
	"github.com/tilak5758/barber-salon-backend/models"
	"github.com/tilak5758/barber-salon-backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SlotInput is one bookable window submitted by a barber.
type SlotInput struct {
	Start int `json:"start" binding:"required"`
	End   int `json:"end" binding:"required"`
}

// Service owns publishing and querying of bookable slots. Reservation and
// release are delegated to the repository's atomic conditional writes; this
// layer adds validation and the publish/edit semantics.
type Service interface {
	// Publish replaces the non-booked slots for a date with the given set,
	// preserving currently-booked slots untouched. Caller enforces that the
	// actor owns the barber profile (or is admin).
	Publish(ctx context.Context, barberID, date, timezone string, slots []SlotInput) (*models.Availability, error)

	GetDay(ctx context.Context, barberID, date string) (*models.Availability, error)
	FindOpenSlot(ctx context.Context, barberID, date string, start, end int) (*models.Slot, error)

	Reserve(ctx context.Context, barberID, date string, start, end int, appointmentID string) error
	ReleaseByAppointment(ctx context.Context, appointmentID string) (bool, error)

	AddSingleSlot(ctx context.Context, barberID, date, timezone string, slot SlotInput) (*models.Slot, error)
	RemoveSlot(ctx context.Context, barberID, date, slotID string) error
}

// DefaultService implements Service.
type DefaultService struct {
	Repo   availabilityRepo.Repository
	Logger *zap.Logger
}

func NewService(repo availabilityRepo.Repository, logger *zap.Logger) *DefaultService {
	return &DefaultService{Repo: repo, Logger: logger}
}

// validateSlots checks bounds and pairwise interval overlap. O(n²) over a
// day's slots; n stays in the tens.
func validateSlots(slots []SlotInput) error {
	const minutesPerDay = 24 * 60
	for _, s := range slots {
		if s.Start < 0 || s.End > minutesPerDay || s.Start >= s.End {
			return utils.NewValidationError("invalid slot bounds [%d,%d)", s.Start, s.End)
		}
	}
	for i := 0; i < len(slots); i++ {
		for j := i + 1; j < len(slots); j++ {
			if models.Overlaps(slots[i].Start, slots[i].End, slots[j].Start, slots[j].End) {
				return utils.NewValidationError(
					"slots [%d,%d) and [%d,%d) overlap",
					slots[i].Start, slots[i].End, slots[j].Start, slots[j].End,
				)
			}
		}
	}
	return nil
}

func validTimezone(tz string) error {
	if tz == "" {
		return nil
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return utils.NewValidationError("unknown timezone %q", tz)
	}
	return nil
}

func (s *DefaultService) Publish(ctx context.Context, barberID, date, timezone string, slots []SlotInput) (*models.Availability, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, utils.NewValidationError("invalid date %q, expected YYYY-MM-DD", date)
	}
	if err := validTimezone(timezone); err != nil {
		return nil, err
	}
	if err := validateSlots(slots); err != nil {
		return nil, err
	}

	// Preserve booked slots from the existing record; everything else is
	// replaced by the new set.
	var booked []models.Slot
	existing, err := s.Repo.GetDay(ctx, barberID, date)
	if err != nil && !utils.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		for _, slot := range existing.Slots {
			if slot.IsBooked {
				booked = append(booked, slot)
			}
		}
		if timezone == "" {
			timezone = existing.Timezone
		}
	}

	// New slots must not collide with the preserved booked ones.
	for _, in := range slots {
		for _, b := range booked {
			if models.Overlaps(in.Start, in.End, b.Start, b.End) {
				return nil, utils.NewValidationError(
					"slot [%d,%d) overlaps booked slot [%d,%d)", in.Start, in.End, b.Start, b.End,
				)
			}
		}
	}

	merged := append([]models.Slot{}, booked...)
	for _, in := range slots {
		merged = append(merged, models.Slot{ID: uuid.New().String(), Start: in.Start, End: in.End})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Start < merged[j].Start })

	day := &models.Availability{
		ID:       uuid.New().String(),
		BarberID: barberID,
		Date:     date,
		Timezone: timezone,
		Slots:    merged,
	}
	if existing != nil {
		day.ID = existing.ID
	}
	if err := s.Repo.ReplaceDay(ctx, day); err != nil {
		return nil, err
	}

	s.Logger.Info("published availability",
		zap.String("barberId", barberID),
		zap.String("date", date),
		zap.Int("slots", len(merged)),
	)
	return day, nil
}

func (s *DefaultService) GetDay(ctx context.Context, barberID, date string) (*models.Availability, error) {
	return s.Repo.GetDay(ctx, barberID, date)
}

func (s *DefaultService) FindOpenSlot(ctx context.Context, barberID, date string, start, end int) (*models.Slot, error) {
	return s.Repo.FindOpenSlot(ctx, barberID, date, start, end)
}

func (s *DefaultService) Reserve(ctx context.Context, barberID, date string, start, end int, appointmentID string) error {
	return s.Repo.Reserve(ctx, barberID, date, start, end, appointmentID)
}

// ReleaseByAppointment is idempotent: releasing a slot that is not booked
// (or not found) is a no-op reported as released=false.
func (s *DefaultService) ReleaseByAppointment(ctx context.Context, appointmentID string) (bool, error) {
	released, err := s.Repo.ReleaseByAppointment(ctx, appointmentID)
	if err != nil {
		return false, err
	}
	if !released {
		s.Logger.Debug("release was a no-op", zap.String("appointmentId", appointmentID))
	}
	return released, nil
}

func (s *DefaultService) AddSingleSlot(ctx context.Context, barberID, date, timezone string, in SlotInput) (*models.Slot, error) {
	if err := validateSlots([]SlotInput{in}); err != nil {
		return nil, err
	}
	if err := validTimezone(timezone); err != nil {
		return nil, err
	}

	existing, err := s.Repo.GetDay(ctx, barberID, date)
	if err != nil && !utils.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		for _, slot := range existing.Slots {
			if models.Overlaps(in.Start, in.End, slot.Start, slot.End) {
				return nil, utils.NewValidationError(
					"slot [%d,%d) overlaps existing slot [%d,%d)", in.Start, in.End, slot.Start, slot.End,
				)
			}
		}
		if timezone == "" {
			timezone = existing.Timezone
		}
	}

	slot := models.Slot{ID: uuid.New().String(), Start: in.Start, End: in.End}
	if err := s.Repo.AddSlot(ctx, barberID, date, timezone, slot); err != nil {
		return nil, err
	}
	return &slot, nil
}

func (s *DefaultService) RemoveSlot(ctx context.Context, barberID, date, slotID string) error {
	return s.Repo.RemoveSlot(ctx, barberID, date, slotID)
}
