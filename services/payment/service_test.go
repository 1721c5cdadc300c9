package payment

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/tilak5758/barber-salon-backend/models"
	"github.com/tilak5758/barber-salon-backend/services/scheduler"
	"github.com/tilak5758/barber-salon-backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ---- fakes -----------------------------------------------------------------

type memPaymentRepo struct {
	mu       sync.Mutex
	payments map[string]*models.Payment
	refunds  map[string]*models.Refund
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{
		payments: make(map[string]*models.Payment),
		refunds:  make(map[string]*models.Refund),
	}
}

func (r *memPaymentRepo) Insert(ctx context.Context, p *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.payments[p.ID] = &cp
	return nil
}

func (r *memPaymentRepo) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, utils.NewNotFoundError("payment %s not found", id)
	}
	cp := *p
	return &cp, nil
}

func (r *memPaymentRepo) GetByProviderRef(ctx context.Context, provider, providerRef string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.Provider == provider && p.ProviderRef == providerRef {
			cp := *p
			return &cp, nil
		}
	}
	return nil, utils.NewNotFoundError("no payment for %s/%s", provider, providerRef)
}

func (r *memPaymentRepo) SetProviderRef(ctx context.Context, id, providerRef string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.payments[id]; ok {
		p.ProviderRef = providerRef
	}
	return nil
}

func (r *memPaymentRepo) TransitionStatus(ctx context.Context, id, from, to string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	return true, nil
}

func (r *memPaymentRepo) MergeMetadata(ctx context.Context, id string, metadata map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return utils.NewNotFoundError("payment %s not found", id)
	}
	if p.Metadata == nil {
		p.Metadata = make(map[string]string)
	}
	for k, v := range metadata {
		p.Metadata[k] = v
	}
	return nil
}

func (r *memPaymentRepo) InsertRefund(ctx context.Context, refund *models.Refund) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *refund
	r.refunds[refund.ID] = &cp
	return nil
}

func (r *memPaymentRepo) UpdateRefund(ctx context.Context, id, status, providerRef string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rf, ok := r.refunds[id]; ok {
		rf.Status = status
		rf.ProviderRef = providerRef
	}
	return nil
}

func (r *memPaymentRepo) ListRefunds(ctx context.Context, paymentID string) ([]models.Refund, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Refund
	for _, rf := range r.refunds {
		if rf.PaymentID == paymentID {
			out = append(out, *rf)
		}
	}
	return out, nil
}

func (r *memPaymentRepo) SumPaid(ctx context.Context) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum float64
	for _, p := range r.payments {
		if p.Status == models.PaymentPaid || p.Status == models.PaymentRefunded {
			sum += p.Amount
		}
	}
	return sum, nil
}

type memApptRepo struct {
	mu    sync.Mutex
	appts map[string]*models.Appointment
}

func newMemApptRepo() *memApptRepo {
	return &memApptRepo{appts: make(map[string]*models.Appointment)}
}

func (r *memApptRepo) Insert(ctx context.Context, appt *models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *appt
	r.appts[appt.ID] = &cp
	return nil
}

func (r *memApptRepo) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.appts[id]
	if !ok {
		return nil, utils.NewNotFoundError("appointment %s not found", id)
	}
	cp := *appt
	return &cp, nil
}

func (r *memApptRepo) TransitionStatus(ctx context.Context, id string, from []string, to string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.appts[id]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if appt.Status == f {
			appt.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (r *memApptRepo) TransitionPaymentStatus(ctx context.Context, id, from, to string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.appts[id]
	if !ok || appt.PaymentStatus != from {
		return false, nil
	}
	appt.PaymentStatus = to
	return true, nil
}

func (r *memApptRepo) Reschedule(ctx context.Context, id, date string, start, end int) (bool, error) {
	return false, nil
}
func (r *memApptRepo) AppendNote(ctx context.Context, id, note string) error { return nil }
func (r *memApptRepo) ListByCustomer(ctx context.Context, customerID string) ([]models.Appointment, error) {
	return nil, nil
}
func (r *memApptRepo) ListByBarberDate(ctx context.Context, barberID, date string) ([]models.Appointment, error) {
	return nil, nil
}
func (r *memApptRepo) HasCompleted(ctx context.Context, customerID, barberID string) (bool, error) {
	return false, nil
}
func (r *memApptRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return nil, nil
}

// stubScheduler records payment-confirm calls.
type stubScheduler struct {
	mu        sync.Mutex
	confirmed []string
}

func (s *stubScheduler) ConfirmByPayment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirmed = append(s.confirmed, id)
	return nil
}

func (s *stubScheduler) Book(ctx context.Context, actor models.Actor, req scheduler.BookRequest) (*models.Appointment, error) {
	return nil, nil
}
func (s *stubScheduler) Confirm(ctx context.Context, actor models.Actor, id string) (*models.Appointment, error) {
	return nil, nil
}
func (s *stubScheduler) Cancel(ctx context.Context, actor models.Actor, id, reason string) (*models.Appointment, error) {
	return nil, nil
}
func (s *stubScheduler) Complete(ctx context.Context, actor models.Actor, id string) (*models.Appointment, error) {
	return nil, nil
}
func (s *stubScheduler) Reschedule(ctx context.Context, actor models.Actor, id, newDate string, newStart int) (*models.Appointment, error) {
	return nil, nil
}
func (s *stubScheduler) Get(ctx context.Context, actor models.Actor, id string) (*models.Appointment, error) {
	return nil, nil
}
func (s *stubScheduler) ListForCustomer(ctx context.Context, actor models.Actor) ([]models.Appointment, error) {
	return nil, nil
}
func (s *stubScheduler) ListForBarber(ctx context.Context, actor models.Actor, barberID, date string) ([]models.Appointment, error) {
	return nil, nil
}
func (s *stubScheduler) ReconcileSlots(ctx context.Context) (int, error) { return 0, nil }

type nopNotifier struct{}

func (nopNotifier) Notify(ctx context.Context, userID, notifType, message string, data map[string]interface{}) {
}
func (nopNotifier) ScheduleReminder(appt *models.Appointment) {}
func (nopNotifier) ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	return nil, nil
}
func (nopNotifier) MarkRead(ctx context.Context, userID, id string) error { return nil }

// fakeGateway mints deterministic session and refund refs.
type fakeGateway struct {
	mu         sync.Mutex
	sessions   int
	refundRefs []string
	failRefund bool
}

func (g *fakeGateway) Name() string { return "fakepay" }

func (g *fakeGateway) CreateSession(ctx context.Context, req SessionRequest) (*SessionResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions++
	ref := fmt.Sprintf("sess_%d", g.sessions)
	return &SessionResult{ProviderRef: ref, ClientSecret: ref + "_secret"}, nil
}

func (g *fakeGateway) Refund(ctx context.Context, providerRef string, amount float64, currency string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failRefund {
		return "", utils.NewExternalProviderError("fakepay: refund rejected")
	}
	g.refundRefs = append(g.refundRefs, providerRef)
	return fmt.Sprintf("re_%d", len(g.refundRefs)), nil
}

// ---- fixtures --------------------------------------------------------------

type fixture struct {
	svc      *DefaultService
	payments *memPaymentRepo
	appts    *memApptRepo
	sched    *stubScheduler
	gateway  *fakeGateway
	customer models.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		payments: newMemPaymentRepo(),
		appts:    newMemApptRepo(),
		sched:    &stubScheduler{},
		gateway:  &fakeGateway{},
		customer: models.Actor{ID: "cust-1", Role: models.RoleCustomer},
	}
	f.svc = NewService(f.payments, f.appts, f.sched, nopNotifier{}, "usd", zap.NewNop(), f.gateway)

	require.NoError(t, f.appts.Insert(context.Background(), &models.Appointment{
		ID: "appt-1", CustomerID: "cust-1", BarberID: "b1",
		Date: "2030-06-01", Start: 600, End: 660, Price: 30,
		Status: models.ApptPending, PaymentStatus: models.PayUnpaid,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}))
	return f
}

func (f *fixture) paidSession(t *testing.T) *models.PaymentSession {
	t.Helper()
	ctx := context.Background()
	session, err := f.svc.CreateSession(ctx, f.customer, "appt-1", "fakepay")
	require.NoError(t, err)
	require.NoError(t, f.svc.HandleWebhookEvent(ctx, "fakepay", models.ProviderEvent{
		Type: models.EventPaymentSucceeded, ProviderRef: session.ProviderRef,
	}))
	return session
}

// ---- tests -----------------------------------------------------------------

func TestCreateSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.svc.CreateSession(ctx, f.customer, "appt-1", "fakepay")
	require.NoError(t, err)
	assert.Equal(t, "fakepay", session.Provider)
	assert.Equal(t, "sess_1", session.ProviderRef)
	assert.NotEmpty(t, session.ClientSecret)

	p, err := f.payments.GetByID(ctx, session.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCreated, p.Status)
	assert.Equal(t, 30.0, p.Amount)
	assert.Equal(t, "usd", p.Currency)
}

func TestCreateSessionGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateSession(ctx, f.customer, "appt-1", "unknownpay")
	assert.True(t, utils.IsCode(err, utils.CodeValidation))

	stranger := models.Actor{ID: "cust-2", Role: models.RoleCustomer}
	_, err = f.svc.CreateSession(ctx, stranger, "appt-1", "fakepay")
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))

	f.paidSession(t)
	_, err = f.svc.CreateSession(ctx, f.customer, "appt-1", "fakepay")
	assert.True(t, utils.IsConflict(err), "already paid")
}

func TestWebhookConfirmsAppointment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.paidSession(t)

	p, err := f.payments.GetByID(ctx, session.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, p.Status)

	appt, err := f.appts.GetByID(ctx, "appt-1")
	require.NoError(t, err)
	assert.Equal(t, models.PayPaid, appt.PaymentStatus)
	assert.Equal(t, []string{"appt-1"}, f.sched.confirmed)
}

func TestWebhookRedeliveryIsNoOp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.paidSession(t)

	// Providers redeliver until acknowledged; the second delivery must not
	// double-apply anything.
	require.NoError(t, f.svc.HandleWebhookEvent(ctx, "fakepay", models.ProviderEvent{
		Type: models.EventPaymentSucceeded, ProviderRef: session.ProviderRef,
	}))

	p, err := f.payments.GetByID(ctx, session.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, p.Status)
	assert.Len(t, f.sched.confirmed, 1, "appointment confirmed exactly once")
}

func TestWebhookUnknownRefIsAcknowledged(t *testing.T) {
	f := newFixture(t)

	err := f.svc.HandleWebhookEvent(context.Background(), "fakepay", models.ProviderEvent{
		Type: models.EventPaymentSucceeded, ProviderRef: "sess_unknown",
	})
	assert.NoError(t, err)
}

func TestWebhookPaymentFailed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.svc.CreateSession(ctx, f.customer, "appt-1", "fakepay")
	require.NoError(t, err)

	require.NoError(t, f.svc.HandleWebhookEvent(ctx, "fakepay", models.ProviderEvent{
		Type: models.EventPaymentFailed, ProviderRef: session.ProviderRef,
	}))

	p, err := f.payments.GetByID(ctx, session.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, p.Status)
	assert.Empty(t, f.sched.confirmed)
}

func TestRefundBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.paidSession(t)

	_, err := f.svc.RequestRefund(ctx, f.customer, session.PaymentID, 31, "too much")
	assert.True(t, utils.IsCode(err, utils.CodeValidation))

	_, err = f.svc.RequestRefund(ctx, f.customer, session.PaymentID, -1, "negative")
	assert.True(t, utils.IsCode(err, utils.CodeValidation))

	_, err = f.svc.RequestRefund(ctx, f.customer, session.PaymentID, 20, "partial")
	require.NoError(t, err)

	_, err = f.svc.RequestRefund(ctx, f.customer, session.PaymentID, 15, "over remaining")
	assert.True(t, utils.IsCode(err, utils.CodeValidation), "exceeds remaining balance")
}

func TestRefundRequiresPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.svc.CreateSession(ctx, f.customer, "appt-1", "fakepay")
	require.NoError(t, err)

	_, err = f.svc.RequestRefund(ctx, f.customer, session.PaymentID, 10, "not paid yet")
	assert.True(t, utils.IsConflict(err))
}

func TestFullRefundFlipsStatuses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.paidSession(t)

	// Zero amount means refund the full remaining balance.
	refund, err := f.svc.RequestRefund(ctx, f.customer, session.PaymentID, 0, "full")
	require.NoError(t, err)
	assert.Equal(t, models.RefundSucceeded, refund.Status)
	assert.Equal(t, 30.0, refund.Amount)

	p, err := f.payments.GetByID(ctx, session.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, p.Status)

	appt, err := f.appts.GetByID(ctx, "appt-1")
	require.NoError(t, err)
	assert.Equal(t, models.PayRefunded, appt.PaymentStatus)
}

func TestPartialRefundsAccumulate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.paidSession(t)

	_, err := f.svc.RequestRefund(ctx, f.customer, session.PaymentID, 10, "first")
	require.NoError(t, err)

	p, err := f.payments.GetByID(ctx, session.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, p.Status, "partially refunded stays paid")

	_, err = f.svc.RequestRefund(ctx, f.customer, session.PaymentID, 20, "rest")
	require.NoError(t, err)

	p, err = f.payments.GetByID(ctx, session.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, p.Status, "refunds now cover the full amount")
}

func TestRefundFailureRecorded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := f.paidSession(t)
	f.gateway.failRefund = true

	_, err := f.svc.RequestRefund(ctx, f.customer, session.PaymentID, 10, "will fail")
	require.Error(t, err)

	refunds, err := f.payments.ListRefunds(ctx, session.PaymentID)
	require.NoError(t, err)
	require.Len(t, refunds, 1)
	assert.Equal(t, models.RefundFailed, refunds[0].Status)

	p, err := f.payments.GetByID(ctx, session.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, p.Status, "payment untouched by failed refund")
}

func TestRefundPrefersCaptureReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.svc.CreateSession(ctx, f.customer, "appt-1", "fakepay")
	require.NoError(t, err)

	// Webhook carries the capture-time payment id; refunds must target it,
	// not the session reference.
	require.NoError(t, f.svc.HandleWebhookEvent(ctx, "fakepay", models.ProviderEvent{
		Type:        models.EventPaymentSucceeded,
		ProviderRef: session.ProviderRef,
		Metadata:    map[string]string{"provider_payment_id": "cap_99"},
	}))

	_, err = f.svc.RequestRefund(ctx, f.customer, session.PaymentID, 0, "")
	require.NoError(t, err)
	require.Len(t, f.gateway.refundRefs, 1)
	assert.Equal(t, "cap_99", f.gateway.refundRefs[0])
}
