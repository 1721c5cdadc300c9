package payment

import (
	"context"
	"math"

	"github.com/tilak5758/barber-salon-backend/utils"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
)

// StripeGateway charges through Stripe PaymentIntents. The API key is set
// globally at startup (stripe.Key), matching the SDK's usage model.
type StripeGateway struct{}

func NewStripeGateway() *StripeGateway { return &StripeGateway{} }

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) CreateSession(ctx context.Context, req SessionRequest) (*SessionResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(toMinorUnits(req.Amount)),
		Currency:    stripe.String(req.Currency),
		Description: stripe.String(req.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("appointment_id", req.AppointmentID)

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, utils.NewExternalProviderError("stripe: create payment intent: %v", err)
	}
	return &SessionResult{ProviderRef: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (g *StripeGateway) Refund(ctx context.Context, providerRef string, amount float64, currency string) (string, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(providerRef),
		Amount:        stripe.Int64(toMinorUnits(amount)),
	}
	params.Context = ctx

	r, err := refund.New(params)
	if err != nil {
		return "", utils.NewExternalProviderError("stripe: create refund: %v", err)
	}
	return r.ID, nil
}

// toMinorUnits converts a major-unit amount to cents, rounding to absorb
// float noise from price arithmetic.
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
