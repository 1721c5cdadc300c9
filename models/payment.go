package models

import "time"

// Payment statuses.
const (
	PaymentCreated  = "created"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// Refund statuses.
const (
	RefundInitiated = "initiated"
	RefundSucceeded = "succeeded"
	RefundFailed    = "failed"
)

// Payment is one row per payment attempt against an appointment.
// (Provider, ProviderRef) is unique once assigned.
type Payment struct {
	ID            string            `bson:"id" json:"id"`
	AppointmentID string            `bson:"appointmentId" json:"appointmentId"`
	CustomerID    string            `bson:"customerId" json:"customerId"`
	Provider      string            `bson:"provider" json:"provider"`
	ProviderRef   string            `bson:"providerRef,omitempty" json:"providerRef,omitempty"`
	Status        string            `bson:"status" json:"status"`
	Amount        float64           `bson:"amount" json:"amount"`
	Currency      string            `bson:"currency" json:"currency"`
	Metadata      map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt     time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time         `bson:"updatedAt" json:"updatedAt"`
}

// RefundRef returns the provider-side reference to refund against. Some
// providers confirm with a transaction id different from the session id; the
// webhook merges it into metadata.
func (p *Payment) RefundRef() string {
	if ref, ok := p.Metadata["provider_payment_id"]; ok && ref != "" {
		return ref
	}
	return p.ProviderRef
}

// Refund is one row per refund attempt against a payment.
type Refund struct {
	ID          string    `bson:"id" json:"id"`
	PaymentID   string    `bson:"paymentId" json:"paymentId"`
	Amount      float64   `bson:"amount" json:"amount"`
	Status      string    `bson:"status" json:"status"`
	ProviderRef string    `bson:"providerRef,omitempty" json:"providerRef,omitempty"`
	Reason      string    `bson:"reason,omitempty" json:"reason,omitempty"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// PaymentSession is returned to the client to drive provider checkout.
type PaymentSession struct {
	PaymentID    string `json:"paymentId"`
	Provider     string `json:"provider"`
	ProviderRef  string `json:"providerRef"`
	ClientSecret string `json:"clientSecret,omitempty"`
}

// ProviderEvent is a verified webhook event. Signature verification happens
// at the HTTP boundary before this is constructed.
type ProviderEvent struct {
	Type        string            `json:"type"` // "payment_succeeded" or "payment_failed"
	ProviderRef string            `json:"providerRef"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

const (
	EventPaymentSucceeded = "payment_succeeded"
	EventPaymentFailed    = "payment_failed"
)
