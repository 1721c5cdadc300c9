package payment

import (
	"context"
	"fmt"
	"time"

	appointmentRepo "github.com/tilak5758/barber-salon-backend/database/repository/appointment"
	paymentRepo "github.com/tilak5758/barber-salon-backend/database/repository/payment"
	"github.com/tilak5758/barber-salon-backend/models"
	"github.com/tilak5758/barber-salon-backend/services/notification"
	"github.com/tilak5758/barber-salon-backend/services/scheduler"
	"github.com/tilak5758/barber-salon-backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service coordinates payments across gateways. It owns status bookkeeping;
// gateways only talk to their provider. Webhook handling is idempotent: a
// redelivered event finds the conditional status flip already applied and
// becomes a no-op.
type Service interface {
	// CreateSession opens a checkout session for an unpaid appointment with
	// the named provider.
	CreateSession(ctx context.Context, actor models.Actor, appointmentID, provider string) (*models.PaymentSession, error)

	// HandleWebhookEvent applies a verified provider event. Callers verify
	// the signature before constructing the event.
	HandleWebhookEvent(ctx context.Context, provider string, event models.ProviderEvent) error

	// RequestRefund refunds amount against a paid payment. A zero amount
	// means the full remaining balance.
	RequestRefund(ctx context.Context, actor models.Actor, paymentID string, amount float64, reason string) (*models.Refund, error)

	Get(ctx context.Context, actor models.Actor, paymentID string) (*models.Payment, error)
	ListRefunds(ctx context.Context, actor models.Actor, paymentID string) ([]models.Refund, error)
}

// DefaultService implements Service.
type DefaultService struct {
	Payments     paymentRepo.Repository
	Appointments appointmentRepo.Repository
	Scheduler    scheduler.Service
	Notifier     notification.Service
	Gateways     map[string]Gateway
	Currency     string
	Logger       *zap.Logger
}

func NewService(
	payments paymentRepo.Repository,
	appts appointmentRepo.Repository,
	sched scheduler.Service,
	notifier notification.Service,
	currency string,
	logger *zap.Logger,
	gateways ...Gateway,
) *DefaultService {
	byName := make(map[string]Gateway, len(gateways))
	for _, g := range gateways {
		byName[g.Name()] = g
	}
	return &DefaultService{
		Payments:     payments,
		Appointments: appts,
		Scheduler:    sched,
		Notifier:     notifier,
		Gateways:     byName,
		Currency:     currency,
		Logger:       logger,
	}
}

func (s *DefaultService) gateway(provider string) (Gateway, error) {
	g, ok := s.Gateways[provider]
	if !ok {
		return nil, utils.NewValidationError("unknown payment provider %q", provider)
	}
	return g, nil
}

func (s *DefaultService) CreateSession(ctx context.Context, actor models.Actor, appointmentID, provider string) (*models.PaymentSession, error) {
	gw, err := s.gateway(provider)
	if err != nil {
		return nil, err
	}

	appt, err := s.Appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.CustomerID != actor.ID && !actor.IsAdmin() {
		return nil, utils.NewForbiddenError("you can only pay for your own appointments")
	}
	if appt.PaymentStatus == models.PayPaid {
		return nil, utils.NewConflictError("appointment %s is already paid", appointmentID)
	}
	if appt.IsTerminal() {
		return nil, utils.NewConflictError("appointment %s is %s and cannot be paid", appointmentID, appt.Status)
	}

	now := time.Now()
	payment := &models.Payment{
		ID:            uuid.New().String(),
		AppointmentID: appt.ID,
		CustomerID:    appt.CustomerID,
		Provider:      gw.Name(),
		Status:        models.PaymentCreated,
		Amount:        appt.Price,
		Currency:      s.Currency,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Payments.Insert(ctx, payment); err != nil {
		return nil, err
	}

	result, err := gw.CreateSession(ctx, SessionRequest{
		AppointmentID: appt.ID,
		Amount:        appt.Price,
		Currency:      s.Currency,
		Description:   fmt.Sprintf("Appointment %s on %s", appt.ID, appt.Date),
	})
	if err != nil {
		if _, ferr := s.Payments.TransitionStatus(ctx, payment.ID, models.PaymentCreated, models.PaymentFailed); ferr != nil {
			s.Logger.Warn("failed to mark payment failed after gateway error",
				zap.String("paymentId", payment.ID), zap.Error(ferr))
		}
		return nil, err
	}

	if err := s.Payments.SetProviderRef(ctx, payment.ID, result.ProviderRef); err != nil {
		return nil, err
	}

	s.Logger.Info("payment session created",
		zap.String("paymentId", payment.ID),
		zap.String("appointmentId", appt.ID),
		zap.String("provider", gw.Name()),
	)

	return &models.PaymentSession{
		PaymentID:    payment.ID,
		Provider:     gw.Name(),
		ProviderRef:  result.ProviderRef,
		ClientSecret: result.ClientSecret,
	}, nil
}

func (s *DefaultService) HandleWebhookEvent(ctx context.Context, provider string, event models.ProviderEvent) error {
	payment, err := s.Payments.GetByProviderRef(ctx, provider, event.ProviderRef)
	if err != nil {
		if utils.IsNotFound(err) {
			// Event for a payment we never created; acknowledge so the
			// provider stops redelivering.
			s.Logger.Warn("webhook event for unknown payment",
				zap.String("provider", provider), zap.String("providerRef", event.ProviderRef))
			return nil
		}
		return err
	}

	switch event.Type {
	case models.EventPaymentSucceeded:
		return s.applyPaymentSucceeded(ctx, payment, event)
	case models.EventPaymentFailed:
		flipped, err := s.Payments.TransitionStatus(ctx, payment.ID, models.PaymentCreated, models.PaymentFailed)
		if err != nil {
			return err
		}
		if flipped {
			s.Logger.Info("payment failed", zap.String("paymentId", payment.ID))
		}
		return nil
	default:
		s.Logger.Warn("ignoring unhandled webhook event type",
			zap.String("provider", provider), zap.String("type", event.Type))
		return nil
	}
}

func (s *DefaultService) applyPaymentSucceeded(ctx context.Context, payment *models.Payment, event models.ProviderEvent) error {
	if len(event.Metadata) > 0 {
		if err := s.Payments.MergeMetadata(ctx, payment.ID, event.Metadata); err != nil {
			return err
		}
	}

	flipped, err := s.Payments.TransitionStatus(ctx, payment.ID, models.PaymentCreated, models.PaymentPaid)
	if err != nil {
		return err
	}
	if !flipped {
		// Redelivery, or the payment already failed/refunded. Either way the
		// first delivery did the work.
		return nil
	}

	if _, err := s.Appointments.TransitionPaymentStatus(ctx, payment.AppointmentID, models.PayUnpaid, models.PayPaid); err != nil {
		return err
	}
	if err := s.Scheduler.ConfirmByPayment(ctx, payment.AppointmentID); err != nil {
		return err
	}

	s.Notifier.Notify(ctx, payment.CustomerID, models.NotifPaymentPaid,
		fmt.Sprintf("Your payment of %.2f %s was received.", payment.Amount, payment.Currency),
		map[string]interface{}{"paymentId": payment.ID, "appointmentId": payment.AppointmentID})

	s.Logger.Info("payment confirmed",
		zap.String("paymentId", payment.ID),
		zap.String("appointmentId", payment.AppointmentID),
	)
	return nil
}

func (s *DefaultService) RequestRefund(ctx context.Context, actor models.Actor, paymentID string, amount float64, reason string) (*models.Refund, error) {
	payment, err := s.Payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.CustomerID != actor.ID && !actor.IsAdmin() {
		return nil, utils.NewForbiddenError("you can only refund your own payments")
	}
	if payment.Status != models.PaymentPaid {
		return nil, utils.NewConflictError("payment %s is %s and cannot be refunded", paymentID, payment.Status)
	}

	refunds, err := s.Payments.ListRefunds(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	var alreadyRefunded float64
	for _, r := range refunds {
		if r.Status == models.RefundSucceeded {
			alreadyRefunded += r.Amount
		}
	}
	remaining := payment.Amount - alreadyRefunded

	if amount == 0 {
		amount = remaining
	}
	if amount <= 0 || amount > remaining {
		return nil, utils.NewValidationError("refund amount %.2f exceeds refundable balance %.2f", amount, remaining)
	}

	gw, err := s.gateway(payment.Provider)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	refund := &models.Refund{
		ID:        uuid.New().String(),
		PaymentID: payment.ID,
		Amount:    amount,
		Status:    models.RefundInitiated,
		Reason:    reason,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Payments.InsertRefund(ctx, refund); err != nil {
		return nil, err
	}

	providerRef, err := gw.Refund(ctx, payment.RefundRef(), amount, payment.Currency)
	if err != nil {
		if uerr := s.Payments.UpdateRefund(ctx, refund.ID, models.RefundFailed, ""); uerr != nil {
			s.Logger.Warn("failed to mark refund failed",
				zap.String("refundId", refund.ID), zap.Error(uerr))
		}
		return nil, err
	}

	if err := s.Payments.UpdateRefund(ctx, refund.ID, models.RefundSucceeded, providerRef); err != nil {
		return nil, err
	}
	refund.Status = models.RefundSucceeded
	refund.ProviderRef = providerRef

	if alreadyRefunded+amount >= payment.Amount {
		if _, err := s.Payments.TransitionStatus(ctx, payment.ID, models.PaymentPaid, models.PaymentRefunded); err != nil {
			return nil, err
		}
		if _, err := s.Appointments.TransitionPaymentStatus(ctx, payment.AppointmentID, models.PayPaid, models.PayRefunded); err != nil {
			return nil, err
		}
	}

	s.Notifier.Notify(ctx, payment.CustomerID, models.NotifPaymentRefunded,
		fmt.Sprintf("A refund of %.2f %s was issued.", amount, payment.Currency),
		map[string]interface{}{"paymentId": payment.ID, "refundId": refund.ID})

	s.Logger.Info("refund issued",
		zap.String("paymentId", payment.ID),
		zap.String("refundId", refund.ID),
		zap.Float64("amount", amount),
	)
	return refund, nil
}

func (s *DefaultService) Get(ctx context.Context, actor models.Actor, paymentID string) (*models.Payment, error) {
	payment, err := s.Payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.CustomerID != actor.ID && !actor.IsAdmin() {
		return nil, utils.NewForbiddenError("you can only view your own payments")
	}
	return payment, nil
}

func (s *DefaultService) ListRefunds(ctx context.Context, actor models.Actor, paymentID string) ([]models.Refund, error) {
	payment, err := s.Payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.CustomerID != actor.ID && !actor.IsAdmin() {
		return nil, utils.NewForbiddenError("you can only view your own payments")
	}
	return s.Payments.ListRefunds(ctx, paymentID)
}
