package models

import "time"

// Notification types emitted by the core.
const (
	NotifAppointmentBooked    = "appointment_booked"
	NotifAppointmentConfirmed = "appointment_confirmed"
	NotifAppointmentCanceled  = "appointment_canceled"
	NotifAppointmentCompleted = "appointment_completed"
	NotifAppointmentReminder  = "appointment_reminder"
	NotifPaymentPaid          = "payment_paid"
	NotifPaymentRefunded      = "payment_refunded"
)

// Notification is an inbox entry for one user.
type Notification struct {
	ID        string                 `bson:"id" json:"id"`
	UserID    string                 `bson:"userId" json:"userId"`
	Type      string                 `bson:"type" json:"type"`
	Message   string                 `bson:"message" json:"message"`
	Data      map[string]interface{} `bson:"data,omitempty" json:"data,omitempty"`
	Read      bool                   `bson:"read" json:"read"`
	CreatedAt time.Time              `bson:"createdAt" json:"createdAt"`
}
