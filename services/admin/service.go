package admin

import (
	"context"

	appointmentRepo "github.com/tilak5758/barber-salon-backend/database/repository/appointment"
	barberRepo "github.com/tilak5758/barber-salon-backend/database/repository/barber"
	paymentRepo "github.com/tilak5758/barber-salon-backend/database/repository/payment"
	userRepo "github.com/tilak5758/barber-salon-backend/database/repository/user"
	"github.com/tilak5758/barber-salon-backend/models"
	"github.com/tilak5758/barber-salon-backend/utils"

	"go.uber.org/zap"
)

// Dashboard is the operational snapshot served to admins.
type Dashboard struct {
	TotalUsers           int64            `json:"totalUsers"`
	AppointmentsByStatus map[string]int64 `json:"appointmentsByStatus"`
	TotalRevenue         float64          `json:"totalRevenue"`
	TopRatedBarbers      []models.Barber  `json:"topRatedBarbers"`
}

// Service exposes admin-only aggregates.
type Service interface {
	GetDashboard(ctx context.Context, actor models.Actor) (*Dashboard, error)
}

// DefaultService implements Service.
type DefaultService struct {
	Users        userRepo.Repository
	Barbers      barberRepo.Repository
	Appointments appointmentRepo.Repository
	Payments     paymentRepo.Repository
	Logger       *zap.Logger
}

func NewService(
	users userRepo.Repository,
	barbers barberRepo.Repository,
	appts appointmentRepo.Repository,
	payments paymentRepo.Repository,
	logger *zap.Logger,
) *DefaultService {
	return &DefaultService{
		Users:        users,
		Barbers:      barbers,
		Appointments: appts,
		Payments:     payments,
		Logger:       logger,
	}
}

func (s *DefaultService) GetDashboard(ctx context.Context, actor models.Actor) (*Dashboard, error) {
	if !actor.IsAdmin() {
		return nil, utils.NewForbiddenError("admin access required")
	}

	users, err := s.Users.Count(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.Appointments.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.Payments.SumPaid(ctx)
	if err != nil {
		return nil, err
	}
	topRated, err := s.Barbers.TopRated(ctx, 5)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		TotalUsers:           users,
		AppointmentsByStatus: byStatus,
		TotalRevenue:         revenue,
		TopRatedBarbers:      topRated,
	}, nil
}
