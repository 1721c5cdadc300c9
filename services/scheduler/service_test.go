package scheduler

import (
	"context"
	"sync"
	"testing"

	"github.com/tilak5758/barber-salon-backend/models"
	"github.com/tilak5758/barber-salon-backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ---- in-memory fakes -------------------------------------------------------

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
	r.mu.Lock()
	defer r.mu.Unlock()
	appt, ok := r.appts[id]
	if !ok || appt.Status != models.ApptPending {
		return false, nil
	}
	appt.Date = date
	appt.Start = start
	appt.End = end
	appt.RescheduleCount++
	return true, nil
}

func (r *memApptRepo) AppendNote(ctx context.Context, id, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if appt, ok := r.appts[id]; ok {
		if appt.Notes != "" {
			appt.Notes += " | "
		}
		appt.Notes += note
	}
	return nil
}

func (r *memApptRepo) ListByCustomer(ctx context.Context, customerID string) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Appointment
	for _, a := range r.appts {
		if a.CustomerID == customerID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memApptRepo) ListByBarberDate(ctx context.Context, barberID, date string) ([]models.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Appointment
	for _, a := range r.appts {
		if a.BarberID == barberID && (date == "" || a.Date == date) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memApptRepo) HasCompleted(ctx context.Context, customerID, barberID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.appts {
		if a.CustomerID == customerID && a.BarberID == barberID && a.Status == models.ApptCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (r *memApptRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64)
	for _, a := range r.appts {
		out[a.Status]++
	}
	return out, nil
}

type memAvailRepo struct {
	mu   sync.Mutex
	days map[string]*models.Availability
}

func newMemAvailRepo() *memAvailRepo {
	return &memAvailRepo{days: make(map[string]*models.Availability)}
}

func availKey(barberID, date string) string { return barberID + "|" + date }

func (r *memAvailRepo) seedDay(barberID, date, tz string, slots ...models.Slot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.days[availKey(barberID, date)] = &models.Availability{
		ID: availKey(barberID, date), BarberID: barberID, Date: date, Timezone: tz, Slots: slots,
	}
}

func (r *memAvailRepo) GetDay(ctx context.Context, barberID, date string) (*models.Availability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	day, ok := r.days[availKey(barberID, date)]
	if !ok {
		return nil, utils.NewNotFoundError("no availability for %s on %s", barberID, date)
	}
	cp := *day
	cp.Slots = append([]models.Slot(nil), day.Slots...)
	return &cp, nil
}

func (r *memAvailRepo) ReplaceDay(ctx context.Context, day *models.Availability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *day
	r.days[availKey(day.BarberID, day.Date)] = &cp
	return nil
}

func (r *memAvailRepo) FindOpenSlot(ctx context.Context, barberID, date string, start, end int) (*models.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	day, ok := r.days[availKey(barberID, date)]
	if !ok {
		return nil, utils.NewNotFoundError("no availability")
	}
	for _, s := range day.Slots {
		if !s.IsBooked && s.Start <= start && s.End >= end {
			cp := s
			return &cp, nil
		}
	}
	return nil, utils.NewNotFoundError("no open slot")
}

func (r *memAvailRepo) Reserve(ctx context.Context, barberID, date string, start, end int, appointmentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	day, ok := r.days[availKey(barberID, date)]
	if !ok {
		return utils.NewSlotUnavailableError("slot no longer available, please pick another")
	}
	for i := range day.Slots {
		s := &day.Slots[i]
		if !s.IsBooked && s.Start <= start && s.End >= end {
			s.IsBooked = true
			s.AppointmentID = appointmentID
			return nil
		}
	}
	return utils.NewSlotUnavailableError("slot no longer available, please pick another")
}

func (r *memAvailRepo) FindSlotByAppointment(ctx context.Context, appointmentID string) (*models.BookedSlotRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, day := range r.days {
		for _, s := range day.Slots {
			if s.IsBooked && s.AppointmentID == appointmentID {
				return &models.BookedSlotRef{
					BarberID: day.BarberID, Date: day.Date, SlotID: s.ID,
					Start: s.Start, End: s.End, AppointmentID: appointmentID,
				}, nil
			}
		}
	}
	return nil, utils.NewNotFoundError("no slot for appointment %s", appointmentID)
}

func (r *memAvailRepo) ReleaseByAppointment(ctx context.Context, appointmentID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, day := range r.days {
		for i := range day.Slots {
			s := &day.Slots[i]
			if s.IsBooked && s.AppointmentID == appointmentID {
				s.IsBooked = false
				s.AppointmentID = ""
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *memAvailRepo) ReleaseSlot(ctx context.Context, barberID, date, slotID, appointmentID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	day, ok := r.days[availKey(barberID, date)]
	if !ok {
		return false, nil
	}
	for i := range day.Slots {
		s := &day.Slots[i]
		if s.ID == slotID && s.IsBooked && s.AppointmentID == appointmentID {
			s.IsBooked = false
			s.AppointmentID = ""
			return true, nil
		}
	}
	return false, nil
}

func (r *memAvailRepo) AddSlot(ctx context.Context, barberID, date, timezone string, slot models.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := availKey(barberID, date)
	day, ok := r.days[key]
	if !ok {
		day = &models.Availability{ID: key, BarberID: barberID, Date: date, Timezone: timezone}
		r.days[key] = day
	}
	day.Slots = append(day.Slots, slot)
	return nil
}

func (r *memAvailRepo) RemoveSlot(ctx context.Context, barberID, date, slotID string) error {
	return utils.NewNotFoundError("not implemented in fake")
}

func (r *memAvailRepo) BookedRefs(ctx context.Context) ([]models.BookedSlotRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var refs []models.BookedSlotRef
	for _, day := range r.days {
		for _, s := range day.Slots {
			if s.IsBooked {
				refs = append(refs, models.BookedSlotRef{
					BarberID: day.BarberID, Date: day.Date, SlotID: s.ID,
					Start: s.Start, End: s.End, AppointmentID: s.AppointmentID,
				})
			}
		}
	}
	return refs, nil
}

func (r *memAvailRepo) slot(barberID, date, slotID string) models.Slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.days[availKey(barberID, date)].Slots {
		if s.ID == slotID {
			return s
		}
	}
	return models.Slot{}
}

type memBarberRepo struct {
	mu       sync.Mutex
	barbers  map[string]*models.Barber
	services map[string]*models.Service
}

func newMemBarberRepo() *memBarberRepo {
	return &memBarberRepo{
		barbers:  make(map[string]*models.Barber),
		services: make(map[string]*models.Service),
	}
}

func (r *memBarberRepo) Insert(ctx context.Context, b *models.Barber) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.barbers[b.ID] = &cp
	return nil
}

func (r *memBarberRepo) GetByID(ctx context.Context, id string) (*models.Barber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.barbers[id]
	if !ok {
		return nil, utils.NewNotFoundError("barber %s not found", id)
	}
	cp := *b
	return &cp, nil
}

func (r *memBarberRepo) GetByUserID(ctx context.Context, userID string) (*models.Barber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.barbers {
		if b.UserID == userID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, utils.NewNotFoundError("no barber profile for user %s", userID)
}

func (r *memBarberRepo) Update(ctx context.Context, b *models.Barber) error { return nil }
func (r *memBarberRepo) SetVerified(ctx context.Context, id string, verified bool) error {
	return nil
}
func (r *memBarberRepo) SetRating(ctx context.Context, id string, rating float64, count int) error {
	return nil
}
func (r *memBarberRepo) List(ctx context.Context, city string, verifiedOnly bool) ([]models.Barber, error) {
	return nil, nil
}
func (r *memBarberRepo) TopRated(ctx context.Context, limit int) ([]models.Barber, error) {
	return nil, nil
}

func (r *memBarberRepo) InsertService(ctx context.Context, svc *models.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *svc
	r.services[svc.ID] = &cp
	return nil
}

func (r *memBarberRepo) GetService(ctx context.Context, id string) (*models.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	svc, ok := r.services[id]
	if !ok {
		return nil, utils.NewNotFoundError("service %s not found", id)
	}
	cp := *svc
	return &cp, nil
}

func (r *memBarberRepo) UpdateService(ctx context.Context, svc *models.Service) error { return nil }
func (r *memBarberRepo) ListServices(ctx context.Context, barberID string, activeOnly bool) ([]models.Service, error) {
	return nil, nil
}

type nopNotifier struct {
	mu    sync.Mutex
	sent  []string
	types []string
}

func (n *nopNotifier) Notify(ctx context.Context, userID, notifType, message string, data map[string]interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, userID)
	n.types = append(n.types, notifType)
}
func (n *nopNotifier) ScheduleReminder(appt *models.Appointment) {}
func (n *nopNotifier) ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	return nil, nil
}
func (n *nopNotifier) MarkRead(ctx context.Context, userID, id string) error { return nil }

// ---- fixtures --------------------------------------------------------------

const (
	futureDate = "2030-06-01"
	pastDate   = "2020-06-01"
)

type fixture struct {
	svc     *DefaultService
	appts   *memApptRepo
	avail   *memAvailRepo
	barbers *memBarberRepo
	notif   *nopNotifier

	customer models.Actor
	barber   models.Actor
	admin    models.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		appts:    newMemApptRepo(),
		avail:    newMemAvailRepo(),
		barbers:  newMemBarberRepo(),
		notif:    &nopNotifier{},
		customer: models.Actor{ID: "cust-1", Role: models.RoleCustomer},
		barber:   models.Actor{ID: "user-b1", Role: models.RoleBarber},
		admin:    models.Actor{ID: "admin-1", Role: models.RoleAdmin},
	}
	f.svc = NewService(f.appts, f.avail, f.barbers, f.notif, zap.NewNop())

	require.NoError(t, f.barbers.Insert(context.Background(), &models.Barber{ID: "b1", UserID: "user-b1"}))
	require.NoError(t, f.barbers.InsertService(context.Background(), &models.Service{
		ID: "svc-cut", BarberID: "b1", Name: "Haircut", Price: 30, DurationMin: 60, Active: true,
	}))
	f.avail.seedDay("b1", futureDate, "UTC",
		models.Slot{ID: "s1", Start: 600, End: 660},
		models.Slot{ID: "s2", Start: 660, End: 720},
	)
	return f
}

func (f *fixture) book(t *testing.T, start int) *models.Appointment {
	t.Helper()
	appt, err := f.svc.Book(context.Background(), f.customer, BookRequest{
		BarberID: "b1", ServiceID: "svc-cut", Date: futureDate, Start: start,
	})
	require.NoError(t, err)
	return appt
}

// ---- tests -----------------------------------------------------------------

func TestBookReservesSlotAndCreatesPending(t *testing.T) {
	f := newFixture(t)

	appt := f.book(t, 600)
	assert.Equal(t, models.ApptPending, appt.Status)
	assert.Equal(t, models.PayUnpaid, appt.PaymentStatus)
	assert.Equal(t, 30.0, appt.Price, "price snapshot from the service")
	assert.Equal(t, 660, appt.End)

	slot := f.avail.slot("b1", futureDate, "s1")
	assert.True(t, slot.IsBooked)
	assert.Equal(t, appt.ID, slot.AppointmentID)
}

func TestBookValidations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Book(ctx, f.customer, BookRequest{
		BarberID: "other", ServiceID: "svc-cut", Date: futureDate, Start: 600,
	})
	assert.True(t, utils.IsCode(err, utils.CodeValidation), "service/barber mismatch")

	require.NoError(t, f.barbers.InsertService(ctx, &models.Service{
		ID: "svc-off", BarberID: "b1", Name: "Retired", Price: 10, DurationMin: 30, Active: false,
	}))
	_, err = f.svc.Book(ctx, f.customer, BookRequest{
		BarberID: "b1", ServiceID: "svc-off", Date: futureDate, Start: 600,
	})
	assert.True(t, utils.IsConflict(err), "inactive service")

	_, err = f.svc.Book(ctx, f.customer, BookRequest{
		BarberID: "b1", ServiceID: "svc-cut", Date: "2030-12-24", Start: 600,
	})
	assert.True(t, utils.IsNotFound(err), "no published day")
}

func TestConcurrentBookSingleWinner(t *testing.T) {
	f := newFixture(t)

	const n = 12
	results := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.svc.Book(context.Background(), f.customer, BookRequest{
				BarberID: "b1", ServiceID: "svc-cut", Date: futureDate, Start: 600,
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			assert.True(t, utils.IsSlotUnavailable(err))
		}
	}
	assert.Equal(t, 1, winners)
}

func TestConfirmIsIdempotentAcrossActors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.book(t, 600)

	_, err := f.svc.Confirm(ctx, f.customer, appt.ID)
	assert.True(t, utils.IsCode(err, utils.CodeForbidden), "customers cannot confirm")

	confirmed, err := f.svc.Confirm(ctx, f.barber, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApptConfirmed, confirmed.Status)

	// Second confirm (e.g. the payment webhook already won) is a no-op.
	again, err := f.svc.Confirm(ctx, f.barber, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApptConfirmed, again.Status)
}

func TestConfirmByPaymentNoOpWhenNotPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.book(t, 600)

	_, err := f.svc.Cancel(ctx, f.customer, appt.ID, "")
	require.NoError(t, err)

	// The late webhook must not resurrect a canceled appointment.
	require.NoError(t, f.svc.ConfirmByPayment(ctx, appt.ID))
	current, err := f.appts.GetByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApptCanceled, current.Status)
}

func TestCancelFreesSlotForRebooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.book(t, 600)

	canceled, err := f.svc.Cancel(ctx, f.customer, appt.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, models.ApptCanceled, canceled.Status)

	stored, err := f.appts.GetByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.Notes, "canceled by customer: changed my mind")

	slot := f.avail.slot("b1", futureDate, "s1")
	assert.False(t, slot.IsBooked)

	// The freed slot can be booked again.
	rebooked := f.book(t, 600)
	assert.NotEqual(t, appt.ID, rebooked.ID)

	// Canceling a terminal appointment conflicts.
	_, err = f.svc.Cancel(ctx, f.customer, appt.ID, "")
	assert.True(t, utils.IsConflict(err))
}

func TestCancelConfirmedOnlyBeforeStart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.avail.seedDay("b1", pastDate, "UTC", models.Slot{ID: "p1", Start: 600, End: 660})
	past, err := f.svc.Book(ctx, f.customer, BookRequest{
		BarberID: "b1", ServiceID: "svc-cut", Date: pastDate, Start: 600,
	})
	require.NoError(t, err)
	_, err = f.svc.Confirm(ctx, f.barber, past.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, f.customer, past.ID, "")
	assert.True(t, utils.IsConflict(err), "confirmed appointment already started")

	future := f.book(t, 600)
	_, err = f.svc.Confirm(ctx, f.barber, future.ID)
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, f.customer, future.ID, "")
	assert.NoError(t, err, "confirmed but not yet started")
}

func TestCompleteRequiresConfirmed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.book(t, 600)

	_, err := f.svc.Complete(ctx, f.barber, appt.ID)
	assert.True(t, utils.IsConflict(err), "pending cannot complete")

	_, err = f.svc.Confirm(ctx, f.barber, appt.ID)
	require.NoError(t, err)

	done, err := f.svc.Complete(ctx, f.barber, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApptCompleted, done.Status)

	slot := f.avail.slot("b1", futureDate, "s1")
	assert.False(t, slot.IsBooked, "slot freed on completion")
}

func TestRescheduleMovesHold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.book(t, 600)

	moved, err := f.svc.Reschedule(ctx, f.customer, appt.ID, futureDate, 660)
	require.NoError(t, err)
	assert.Equal(t, 660, moved.Start)
	assert.Equal(t, 720, moved.End)
	assert.Equal(t, 1, moved.RescheduleCount)

	assert.False(t, f.avail.slot("b1", futureDate, "s1").IsBooked)
	assert.True(t, f.avail.slot("b1", futureDate, "s2").IsBooked)
}

func TestRescheduleFailureKeepsOriginalHold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.book(t, 600)

	// Someone else takes the target slot.
	require.NoError(t, f.avail.Reserve(ctx, "b1", futureDate, 660, 720, "other-appt"))

	_, err := f.svc.Reschedule(ctx, f.customer, appt.ID, futureDate, 660)
	assert.True(t, utils.IsSlotUnavailable(err))

	slot := f.avail.slot("b1", futureDate, "s1")
	assert.True(t, slot.IsBooked, "original hold survives a failed reschedule")
	assert.Equal(t, appt.ID, slot.AppointmentID)

	current, err := f.appts.GetByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, 600, current.Start)
	assert.Equal(t, 0, current.RescheduleCount)
}

func TestRescheduleGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.book(t, 600)

	_, err := f.svc.Reschedule(ctx, f.barber, appt.ID, futureDate, 660)
	assert.True(t, utils.IsCode(err, utils.CodeForbidden), "only the customer reschedules")

	_, err = f.svc.Reschedule(ctx, f.customer, appt.ID, futureDate, 600)
	assert.True(t, utils.IsCode(err, utils.CodeValidation), "same start rejected")

	_, err = f.svc.Confirm(ctx, f.barber, appt.ID)
	require.NoError(t, err)
	_, err = f.svc.Reschedule(ctx, f.customer, appt.ID, futureDate, 660)
	assert.True(t, utils.IsConflict(err), "only pending can reschedule")
}

func TestReconcileSlotsFreesDeadHolds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.book(t, 600)

	// Orphaned hold: reserve succeeded but the appointment was never written.
	require.NoError(t, f.avail.Reserve(ctx, "b1", futureDate, 660, 720, "ghost-appt"))

	// Terminal hold: canceled appointment whose release was lost.
	f.avail.seedDay("b1", "2030-06-02", "UTC", models.Slot{ID: "t1", Start: 600, End: 660})
	dead, err := f.svc.Book(ctx, f.customer, BookRequest{
		BarberID: "b1", ServiceID: "svc-cut", Date: "2030-06-02", Start: 600,
	})
	require.NoError(t, err)
	_, err = f.appts.TransitionStatus(ctx, dead.ID, []string{models.ApptPending}, models.ApptCanceled)
	require.NoError(t, err)

	freed, err := f.svc.ReconcileSlots(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, freed)

	assert.True(t, f.avail.slot("b1", futureDate, "s1").IsBooked, "live pending hold untouched")
	assert.False(t, f.avail.slot("b1", futureDate, "s2").IsBooked)
	assert.False(t, f.avail.slot("b1", "2030-06-02", "t1").IsBooked)
}

// staleRefsRepo serves a fixed booked-slot snapshot while delegating every
// other operation, standing in for ledger writes that land between the
// sweep's scan and its releases.
type staleRefsRepo struct {
	*memAvailRepo
	refs []models.BookedSlotRef
}

func (r staleRefsRepo) BookedRefs(ctx context.Context) ([]models.BookedSlotRef, error) {
	return r.refs, nil
}

func TestReconcileSkipsReReservedSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A canceled appointment still holds s1 (its release was lost).
	dead := f.book(t, 600)
	_, err := f.appts.TransitionStatus(ctx, dead.ID, []string{models.ApptPending}, models.ApptCanceled)
	require.NoError(t, err)

	// The sweep snapshots the ledger here.
	stale, err := f.avail.BookedRefs(ctx)
	require.NoError(t, err)

	// Before the sweep gets to release, the slot is freed and re-reserved
	// by a new live booking.
	released, err := f.avail.ReleaseByAppointment(ctx, dead.ID)
	require.NoError(t, err)
	require.True(t, released)
	live := f.book(t, 600)

	sweeper := NewService(f.appts, staleRefsRepo{f.avail, stale}, f.barbers, f.notif, zap.NewNop())
	freed, err := sweeper.ReconcileSlots(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, freed, "re-reserved slot no longer matches the stale holder")

	slot := f.avail.slot("b1", futureDate, "s1")
	assert.True(t, slot.IsBooked)
	assert.Equal(t, live.ID, slot.AppointmentID, "live hold survives the sweep")
}

func TestGetAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := f.book(t, 600)

	_, err := f.svc.Get(ctx, f.customer, appt.ID)
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, f.barber, appt.ID)
	assert.NoError(t, err)
	_, err = f.svc.Get(ctx, f.admin, appt.ID)
	assert.NoError(t, err)

	stranger := models.Actor{ID: "cust-2", Role: models.RoleCustomer}
	_, err = f.svc.Get(ctx, stranger, appt.ID)
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))
}
