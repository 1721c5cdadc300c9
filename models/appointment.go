package models

import (
	"fmt"
	"time"
)

// Appointment statuses. Canceled and completed are terminal.
const (
	ApptPending   = "pending"
	ApptConfirmed = "confirmed"
	ApptCanceled  = "canceled"
	ApptCompleted = "completed"
)

// Appointment payment statuses.
const (
	PayUnpaid   = "unpaid"
	PayPaid     = "paid"
	PayRefunded = "refunded"
)

// Appointment is the central booking record. It never stores a forward
// pointer to its slot; the slot is always located through the availability
// ledger by appointment id.
type Appointment struct {
	ID              string    `bson:"id" json:"id"`
	CustomerID      string    `bson:"customerId" json:"customerId"`
	BarberID        string    `bson:"barberId" json:"barberId"`
	ServiceID       string    `bson:"serviceId" json:"serviceId"`
	ServiceName     string    `bson:"serviceName" json:"serviceName"`
	Date            string    `bson:"date" json:"date"` // "YYYY-MM-DD"
	Start           int       `bson:"start" json:"start"`
	End             int       `bson:"end" json:"end"`
	Timezone        string    `bson:"timezone" json:"timezone"`
	Price           float64   `bson:"price" json:"price"` // snapshot of service price at booking
	Status          string    `bson:"status" json:"status"`
	PaymentStatus   string    `bson:"paymentStatus" json:"paymentStatus"`
	RescheduleCount int       `bson:"rescheduleCount" json:"rescheduleCount"`
	Notes           string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

// StartTime resolves the appointment's wall-clock start in its timezone.
func (a *Appointment) StartTime() (time.Time, error) {
	loc := time.UTC
	if a.Timezone != "" {
		l, err := time.LoadLocation(a.Timezone)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timezone %q: %w", a.Timezone, err)
		}
		loc = l
	}
	day, err := time.ParseInLocation("2006-01-02", a.Date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", a.Date, err)
	}
	return day.Add(time.Duration(a.Start) * time.Minute), nil
}

// IsTerminal reports whether the appointment reached a terminal status.
func (a *Appointment) IsTerminal() bool {
	return a.Status == ApptCanceled || a.Status == ApptCompleted
}
