package models

import "time"

// Barber is a profile owned 1:1 by a user with role "barber". Rating and
// RatingCount are derived fields, written only by the review aggregator.
type Barber struct {
	ID          string    `bson:"id" json:"id"`
	UserID      string    `bson:"userId" json:"userId"`
	ShopName    string    `bson:"shopName" json:"shopName"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	Address     string    `bson:"address,omitempty" json:"address,omitempty"`
	City        string    `bson:"city,omitempty" json:"city,omitempty"`
	Location    *GeoPoint `bson:"location,omitempty" json:"location,omitempty"`
	IsVerified  bool      `bson:"isVerified" json:"isVerified"`
	Rating      float64   `bson:"rating" json:"rating"`
	RatingCount int       `bson:"ratingCount" json:"ratingCount"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// GeoPoint is a GeoJSON point.
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"` // always "Point"
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}
