package catalog

import (
	"context"
	"strings"
	"time"

	barberRepo "github.com/tilak5758/barber-salon-backend/database/repository/barber"
	userRepo "github.com/tilak5758/barber-salon-backend/database/repository/user"
	"github.com/tilak5758/barber-salon-backend/models"
	"github.com/tilak5758/barber-salon-backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BarberRequest carries barber profile fields.
type BarberRequest struct {
	ShopName    string  `json:"shopName" binding:"required"`
	Description string  `json:"description"`
	Address     string  `json:"address"`
	City        string  `json:"city"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// ServiceRequest carries service offering fields.
type ServiceRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required"`
	DurationMin int     `json:"durationMin" binding:"required"`
	Active      *bool   `json:"active"`
}

// Service manages barber profiles and their offerings.
type Service interface {
	// RegisterBarber creates a barber profile for the acting user and
	// promotes their role. One profile per user.
	RegisterBarber(ctx context.Context, actor models.Actor, req BarberRequest) (*models.Barber, error)
	GetBarber(ctx context.Context, id string) (*models.Barber, error)
	GetOwnProfile(ctx context.Context, actor models.Actor) (*models.Barber, error)
	UpdateBarber(ctx context.Context, actor models.Actor, id string, req BarberRequest) (*models.Barber, error)
	ListBarbers(ctx context.Context, city string, verifiedOnly bool) ([]models.Barber, error)

	// SetVerified marks a barber as vetted. Admin only.
	SetVerified(ctx context.Context, actor models.Actor, id string, verified bool) error

	CreateService(ctx context.Context, actor models.Actor, barberID string, req ServiceRequest) (*models.Service, error)
	UpdateService(ctx context.Context, actor models.Actor, serviceID string, req ServiceRequest) (*models.Service, error)
	ListServices(ctx context.Context, barberID string, activeOnly bool) ([]models.Service, error)
}

// DefaultService implements Service.
type DefaultService struct {
	Barbers barberRepo.Repository
	Users   userRepo.Repository
	Logger  *zap.Logger
}

func NewService(barbers barberRepo.Repository, users userRepo.Repository, logger *zap.Logger) *DefaultService {
	return &DefaultService{Barbers: barbers, Users: users, Logger: logger}
}

func (s *DefaultService) RegisterBarber(ctx context.Context, actor models.Actor, req BarberRequest) (*models.Barber, error) {
	if _, err := s.Barbers.GetByUserID(ctx, actor.ID); err == nil {
		return nil, utils.NewConflictError("you already have a barber profile")
	} else if !utils.IsNotFound(err) {
		return nil, err
	}

	now := time.Now()
	barber := &models.Barber{
		ID:          uuid.New().String(),
		UserID:      actor.ID,
		ShopName:    strings.TrimSpace(req.ShopName),
		Description: req.Description,
		Address:     req.Address,
		City:        strings.TrimSpace(req.City),
		Location:    geoPoint(req.Longitude, req.Latitude),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Barbers.Insert(ctx, barber); err != nil {
		return nil, err
	}

	// Customers become barbers on first profile creation. Admins keep their
	// role.
	if actor.Role == models.RoleCustomer {
		if err := s.Users.UpdateRole(ctx, actor.ID, models.RoleBarber); err != nil {
			return nil, err
		}
	}

	s.Logger.Info("barber registered",
		zap.String("barberId", barber.ID), zap.String("userId", actor.ID))
	return barber, nil
}

func (s *DefaultService) GetBarber(ctx context.Context, id string) (*models.Barber, error) {
	return s.Barbers.GetByID(ctx, id)
}

func (s *DefaultService) GetOwnProfile(ctx context.Context, actor models.Actor) (*models.Barber, error) {
	return s.Barbers.GetByUserID(ctx, actor.ID)
}

func (s *DefaultService) UpdateBarber(ctx context.Context, actor models.Actor, id string, req BarberRequest) (*models.Barber, error) {
	barber, err := s.authorizeOwner(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	barber.ShopName = strings.TrimSpace(req.ShopName)
	barber.Description = req.Description
	barber.Address = req.Address
	barber.City = strings.TrimSpace(req.City)
	barber.Location = geoPoint(req.Longitude, req.Latitude)
	barber.UpdatedAt = time.Now()

	if err := s.Barbers.Update(ctx, barber); err != nil {
		return nil, err
	}
	return barber, nil
}

func (s *DefaultService) ListBarbers(ctx context.Context, city string, verifiedOnly bool) ([]models.Barber, error) {
	return s.Barbers.List(ctx, strings.TrimSpace(city), verifiedOnly)
}

func (s *DefaultService) SetVerified(ctx context.Context, actor models.Actor, id string, verified bool) error {
	if !actor.IsAdmin() {
		return utils.NewForbiddenError("only admins can verify barbers")
	}
	if _, err := s.Barbers.GetByID(ctx, id); err != nil {
		return err
	}
	return s.Barbers.SetVerified(ctx, id, verified)
}

func (s *DefaultService) CreateService(ctx context.Context, actor models.Actor, barberID string, req ServiceRequest) (*models.Service, error) {
	if _, err := s.authorizeOwner(ctx, actor, barberID); err != nil {
		return nil, err
	}
	if err := validateService(req); err != nil {
		return nil, err
	}

	now := time.Now()
	svc := &models.Service{
		ID:          uuid.New().String(),
		BarberID:    barberID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		DurationMin: req.DurationMin,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Active != nil {
		svc.Active = *req.Active
	}
	if err := s.Barbers.InsertService(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *DefaultService) UpdateService(ctx context.Context, actor models.Actor, serviceID string, req ServiceRequest) (*models.Service, error) {
	svc, err := s.Barbers.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizeOwner(ctx, actor, svc.BarberID); err != nil {
		return nil, err
	}
	if err := validateService(req); err != nil {
		return nil, err
	}

	svc.Name = strings.TrimSpace(req.Name)
	svc.Description = req.Description
	svc.Price = req.Price
	svc.DurationMin = req.DurationMin
	if req.Active != nil {
		svc.Active = *req.Active
	}
	svc.UpdatedAt = time.Now()

	if err := s.Barbers.UpdateService(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *DefaultService) ListServices(ctx context.Context, barberID string, activeOnly bool) ([]models.Service, error) {
	if _, err := s.Barbers.GetByID(ctx, barberID); err != nil {
		return nil, err
	}
	return s.Barbers.ListServices(ctx, barberID, activeOnly)
}

// authorizeOwner loads the barber and checks the actor owns it or is admin.
func (s *DefaultService) authorizeOwner(ctx context.Context, actor models.Actor, barberID string) (*models.Barber, error) {
	barber, err := s.Barbers.GetByID(ctx, barberID)
	if err != nil {
		return nil, err
	}
	if barber.UserID != actor.ID && !actor.IsAdmin() {
		return nil, utils.NewForbiddenError("you do not manage this barber profile")
	}
	return barber, nil
}

func validateService(req ServiceRequest) error {
	if req.Price <= 0 {
		return utils.NewValidationError("price must be positive")
	}
	if req.DurationMin <= 0 {
		return utils.NewValidationError("duration must be positive")
	}
	return nil
}

func geoPoint(lng, lat float64) *models.GeoPoint {
	if lng == 0 && lat == 0 {
		return nil
	}
	return &models.GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}
