package payment

import (
	"context"
	"strconv"

	"github.com/tilak5758/barber-salon-backend/utils"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/preference"
	mprefund "github.com/mercadopago/sdk-go/pkg/refund"
)

// MercadoPagoGateway charges through Mercado Pago checkout preferences.
// Sessions are redirect-based, so CreateSession returns no client secret;
// the preference's init point is surfaced through payment metadata instead.
type MercadoPagoGateway struct {
	prefs   preference.Client
	refunds mprefund.Client
}

func NewMercadoPagoGateway(accessToken string) (*MercadoPagoGateway, error) {
	cfg, err := mpconfig.New(accessToken)
	if err != nil {
		return nil, utils.NewExternalProviderError("mercadopago: configure client: %v", err)
	}
	return &MercadoPagoGateway{
		prefs:   preference.NewClient(cfg),
		refunds: mprefund.NewClient(cfg),
	}, nil
}

func (g *MercadoPagoGateway) Name() string { return "mercadopago" }

func (g *MercadoPagoGateway) CreateSession(ctx context.Context, req SessionRequest) (*SessionResult, error) {
	request := preference.Request{
		ExternalReference: req.AppointmentID,
		Items: []preference.ItemRequest{
			{
				Title:      req.Description,
				Quantity:   1,
				UnitPrice:  req.Amount,
				CurrencyID: req.Currency,
			},
		},
	}

	resp, err := g.prefs.Create(ctx, request)
	if err != nil {
		return nil, utils.NewExternalProviderError("mercadopago: create preference: %v", err)
	}
	return &SessionResult{ProviderRef: resp.ID}, nil
}

// Refund expects the numeric payment id Mercado Pago assigns on capture,
// which the webhook records in payment metadata; the preference id created
// at session time cannot be refunded against.
func (g *MercadoPagoGateway) Refund(ctx context.Context, providerRef string, amount float64, currency string) (string, error) {
	paymentID, err := strconv.Atoi(providerRef)
	if err != nil {
		return "", utils.NewValidationError("mercadopago: refund reference %q is not a payment id", providerRef)
	}

	resp, err := g.refunds.CreatePartialRefund(ctx, paymentID, amount)
	if err != nil {
		return "", utils.NewExternalProviderError("mercadopago: create refund: %v", err)
	}
	return strconv.Itoa(resp.ID), nil
}
