package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/tilak5758/barber-salon-backend/config"
	"github.com/tilak5758/barber-salon-backend/models"
	"github.com/tilak5758/barber-salon-backend/services/payment"
	"github.com/tilak5758/barber-salon-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

const maxWebhookBody = 64 << 10

// WebhookHandler terminates provider callbacks. Signature verification
// happens here; the payment service only ever sees verified events.
type WebhookHandler struct {
	Payments payment.Service
	Logger   *zap.Logger
}

func NewWebhookHandler(payments payment.Service, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{Payments: payments, Logger: logger}
}

func (h *WebhookHandler) Stripe(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "cannot read body", utils.CodeValidation)
		return
	}

	event, err := webhook.ConstructEvent(body, c.GetHeader("Stripe-Signature"), config.AppConfig.StripeWebhookSecret)
	if err != nil {
		h.Logger.Warn("stripe webhook signature verification failed", zap.Error(err))
		utils.JSONError(c, http.StatusBadRequest, "invalid signature", utils.CodeValidation)
		return
	}

	var eventType string
	switch event.Type {
	case "payment_intent.succeeded":
		eventType = models.EventPaymentSucceeded
	case "payment_intent.payment_failed":
		eventType = models.EventPaymentFailed
	default:
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "malformed event payload", utils.CodeValidation)
		return
	}

	providerEvent := models.ProviderEvent{
		Type:        eventType,
		ProviderRef: pi.ID,
	}
	if err := h.Payments.HandleWebhookEvent(c.Request.Context(), "stripe", providerEvent); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

type mercadoPagoNotification struct {
	Action       string `json:"action"`
	Status       string `json:"status"`
	PreferenceID string `json:"preference_id"`
	PaymentID    int64  `json:"payment_id"`
}

// MercadoPago authenticates with a shared secret header instead of a signed
// payload.
func (h *WebhookHandler) MercadoPago(c *gin.Context) {
	secret := config.AppConfig.MercadoPagoSecret
	provided := c.GetHeader("X-Webhook-Secret")
	if secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(provided)) != 1 {
		h.Logger.Warn("mercadopago webhook secret mismatch")
		utils.JSONError(c, http.StatusBadRequest, "invalid signature", utils.CodeValidation)
		return
	}

	var notif mercadoPagoNotification
	if err := c.ShouldBindJSON(&notif); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "malformed payload", utils.CodeValidation)
		return
	}
	if notif.Action != "payment.updated" && notif.Action != "payment.created" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	var eventType string
	switch notif.Status {
	case "approved":
		eventType = models.EventPaymentSucceeded
	case "rejected", "cancelled":
		eventType = models.EventPaymentFailed
	default:
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	providerEvent := models.ProviderEvent{
		Type:        eventType,
		ProviderRef: notif.PreferenceID,
	}
	if notif.PaymentID != 0 {
		// The capture-time payment id is what refunds run against.
		providerEvent.Metadata = map[string]string{
			"provider_payment_id": strconv.FormatInt(notif.PaymentID, 10),
		}
	}
	if err := h.Payments.HandleWebhookEvent(c.Request.Context(), "mercadopago", providerEvent); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
