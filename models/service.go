package models

import "time"

// Service is an offering that belongs to exactly one barber. Name is unique
// within that barber. Price and duration may change without affecting
// already-booked appointments (price is copied at booking time).
type Service struct {
	ID          string    `bson:"id" json:"id"`
	BarberID    string    `bson:"barberId" json:"barberId"`
	Name        string    `bson:"name" json:"name"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Price       float64   `bson:"price" json:"price"`
	DurationMin int       `bson:"durationMin" json:"durationMin"`
	Active      bool      `bson:"active" json:"active"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}
