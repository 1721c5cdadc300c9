package models

import "time"

// AIContext is the per-user recommendation context kept in Redis. It decays
// with its TTL rather than being managed explicitly.
type AIContext struct {
	PreferredCity   string    `json:"preferredCity,omitempty"`
	RecentBarberIDs []string  `json:"recentBarberIds,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Recommendation is one ranked barber suggestion.
type Recommendation struct {
	Barber Barber  `json:"barber"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason,omitempty"`
}
