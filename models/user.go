package models

import "time"

// User roles.
const (
	RoleCustomer = "customer"
	RoleBarber   = "barber"
	RoleAdmin    = "admin"
)

// User account statuses.
const (
	UserActive   = "active"
	UserLocked   = "locked"
	UserDisabled = "disabled"
)

// MaxFailedLogins is the number of consecutive failed logins before an
// account is locked.
const MaxFailedLogins = 5

// User represents a registered account. Email and mobile are unique.
type User struct {
	ID             string    `bson:"id" json:"id"`
	Name           string    `bson:"name" json:"name"`
	Email          string    `bson:"email" json:"email"`
	Mobile         string    `bson:"mobile" json:"mobile"`
	PasswordHash   string    `bson:"passwordHash" json:"-"`
	Role           string    `bson:"role" json:"role"`
	Status         string    `bson:"status" json:"status"`
	MobileVerified bool      `bson:"mobileVerified" json:"mobileVerified"`
	FailedLogins   int       `bson:"failedLogins" json:"-"`
	DeviceTokens   []string  `bson:"deviceTokens,omitempty" json:"-"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Actor is the authenticated (userID, role) pair trusted on every call.
type Actor struct {
	ID   string
	Role string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
