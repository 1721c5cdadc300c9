package payment

import "context"

// SessionRequest carries what a gateway needs to open a checkout for one
// appointment. Amount is in major currency units.
type SessionRequest struct {
	AppointmentID string
	Amount        float64
	Currency      string
	Description   string
}

// SessionResult is the provider-side handle for a created session.
// ClientSecret is empty for gateways that redirect instead.
type SessionResult struct {
	ProviderRef  string
	ClientSecret string
}

// Gateway abstracts one payment provider. Implementations wrap the provider
// SDK only; status bookkeeping stays in the service.
type Gateway interface {
	// Name returns the provider identifier stored on payment records
	// ("stripe", "mercadopago").
	Name() string

	// CreateSession opens a checkout session with the provider.
	CreateSession(ctx context.Context, req SessionRequest) (*SessionResult, error)

	// Refund returns amount (major units) against the given provider payment
	// reference and returns the provider's refund reference.
	Refund(ctx context.Context, providerRef string, amount float64, currency string) (string, error)
}
