package models

import "time"

// Review is one customer's rating of one barber. A customer may review a
// given barber at most once, and only after completing an appointment with
// them.
type Review struct {
	ID        string    `bson:"id" json:"id"`
	BarberID  string    `bson:"barberId" json:"barberId"`
	UserID    string    `bson:"userId" json:"userId"`
	Rating    int       `bson:"rating" json:"rating"` // 1..5
	Comment   string    `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
