package handlers

import (
	userRepo "github.com/tilak5758/barber-salon-backend/database/repository/user"
)

// HandlerBundle groups every handler plus the user repository the auth
// middleware needs, so route registration takes one argument.
type HandlerBundle struct {
	Auth         *AuthHandler
	User         *UserHandler
	Barber       *BarberHandler
	Availability *AvailabilityHandler
	Appointment  *AppointmentHandler
	Payment      *PaymentHandler
	Webhook      *WebhookHandler
	Review       *ReviewHandler
	Notification *NotificationHandler
	Admin        *AdminHandler
	Intelligence *IntelligenceHandler
	UserRepo     userRepo.Repository
}
