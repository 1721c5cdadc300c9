package user

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tilak5758/barber-salon-backend/models"
	"github.com/tilak5758/barber-salon-backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ---- fakes -----------------------------------------------------------------

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*models.User)}
}

func (r *memUserRepo) Insert(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return utils.NewConflictError("an account with this email already exists")
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, utils.NewNotFoundError("user %s not found", id)
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, utils.NewNotFoundError("no account for %s", email)
}

func (r *memUserRepo) Update(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) UpdateRole(ctx context.Context, id, role string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.Role = role
	}
	return nil
}

func (r *memUserRepo) SetStatus(ctx context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.Status = status
	}
	return nil
}

func (r *memUserRepo) SetMobileVerified(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.MobileVerified = true
	}
	return nil
}

func (r *memUserRepo) IncrementFailedLogins(ctx context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return 0, utils.NewNotFoundError("user %s not found", id)
	}
	u.FailedLogins++
	return u.FailedLogins, nil
}

func (r *memUserRepo) ResetFailedLogins(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.FailedLogins = 0
	}
	return nil
}

func (r *memUserRepo) AddDeviceToken(ctx context.Context, id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return utils.NewNotFoundError("user %s not found", id)
	}
	for _, t := range u.DeviceTokens {
		if t == token {
			return nil
		}
	}
	u.DeviceTokens = append(u.DeviceTokens, token)
	return nil
}

func (r *memUserRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

// memTokenStore mirrors the Redis layout: live hashes, rotated tombstones,
// and a per-user session set.
type memTokenStore struct {
	mu      sync.Mutex
	live    map[string]string // hash -> userID
	rotated map[string]string // hash -> userID
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{
		live:    make(map[string]string),
		rotated: make(map[string]string),
	}
}

func (s *memTokenStore) Save(ctx context.Context, userID, tokenHash string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live[tokenHash] = userID
	return nil
}

func (s *memTokenStore) Lookup(ctx context.Context, tokenHash string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if userID, ok := s.live[tokenHash]; ok {
		return userID, false, nil
	}
	if userID, ok := s.rotated[tokenHash]; ok {
		return userID, true, nil
	}
	return "", false, utils.NewNotFoundError("unknown refresh token")
}

func (s *memTokenStore) MarkRotated(ctx context.Context, userID, tokenHash string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.live, tokenHash)
	s.rotated[tokenHash] = userID
	return nil
}

func (s *memTokenStore) RevokeAll(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for hash, id := range s.live {
		if id == userID {
			delete(s.live, hash)
		}
	}
	return nil
}

// memOTP records issued codes instead of touching redis or an SMS gateway.
type memOTP struct {
	mu    sync.Mutex
	sent  map[string]string // userID -> mobile
	codes map[string]string // userID -> expected code
}

func newMemOTP() *memOTP {
	return &memOTP{sent: make(map[string]string), codes: make(map[string]string)}
}

func (o *memOTP) Initiate(userID, mobile string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent[userID] = mobile
	o.codes[userID] = "123456"
	return nil
}

func (o *memOTP) Verify(userID, code string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.codes[userID] != code {
		return utils.NewValidationError("code mismatch")
	}
	delete(o.codes, userID)
	return nil
}

// ---- fixtures --------------------------------------------------------------

func newService(t *testing.T) (*DefaultService, *memUserRepo, *memOTP) {
	t.Helper()
	users := newMemUserRepo()
	otp := newMemOTP()
	return NewService(users, newMemTokenStore(), otp, zap.NewNop()), users, otp
}

func register(t *testing.T, svc *DefaultService) *models.User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Ana",
		Email:    "Ana@Example.com",
		Mobile:   "+15550001111",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	return user
}

// ---- tests -----------------------------------------------------------------

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	user := register(t, svc)

	assert.Equal(t, "ana@example.com", user.Email, "email is normalized")
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.Equal(t, models.UserActive, user.Status)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	logged, pair, err := svc.Login(ctx, LoginRequest{Email: "ANA@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newService(t)
	register(t, svc)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Other", Email: "ana@example.com", Mobile: "+15550002222", Password: "different-pw",
	})
	assert.True(t, utils.IsConflict(err))
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newService(t)
	register(t, svc)

	_, _, err := svc.Login(context.Background(), LoginRequest{Email: "ana@example.com", Password: "wrong"})
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))

	_, _, err = svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "wrong"})
	assert.True(t, utils.IsCode(err, utils.CodeForbidden), "unknown email gets the same answer")
}

func TestLockoutAfterRepeatedFailures(t *testing.T) {
	svc, users, _ := newService(t)
	ctx := context.Background()
	user := register(t, svc)

	for i := 0; i < models.MaxFailedLogins; i++ {
		_, _, err := svc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "wrong"})
		require.Error(t, err)
	}

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserLocked, stored.Status)

	_, _, err = svc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "correct-horse"})
	assert.True(t, utils.IsCode(err, utils.CodeForbidden), "correct password no longer helps")
}

func TestFailedLoginCounterResetsOnSuccess(t *testing.T) {
	svc, users, _ := newService(t)
	ctx := context.Background()
	user := register(t, svc)

	_, _, err := svc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "wrong"})
	require.Error(t, err)

	_, _, err = svc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.FailedLogins)
}

func TestRefreshRotation(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	register(t, svc)

	_, first, err := svc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	third, err := svc.Refresh(ctx, second.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, second.RefreshToken, third.RefreshToken)
}

func TestRefreshReuseRevokesAllSessions(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	register(t, svc)

	_, first, err := svc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)

	// Replaying the rotated token burns every live session.
	_, err = svc.Refresh(ctx, first.RefreshToken)
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))

	_, err = svc.Refresh(ctx, second.RefreshToken)
	assert.True(t, utils.IsCode(err, utils.CodeForbidden), "current session revoked too")
}

func TestRefreshUnknownToken(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Refresh(context.Background(), "never-issued")
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))
}

func TestRefreshRejectsInactiveAccount(t *testing.T) {
	svc, users, _ := newService(t)
	ctx := context.Background()
	user := register(t, svc)

	_, pair, err := svc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	require.NoError(t, users.SetStatus(ctx, user.ID, models.UserDisabled))

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))
}

func TestLogoutIsIdempotent(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	register(t, svc)

	_, pair, err := svc.Login(ctx, LoginRequest{Email: "ana@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))
	require.NoError(t, svc.Logout(ctx, pair.RefreshToken))
	require.NoError(t, svc.Logout(ctx, "never-issued"))

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.True(t, utils.IsCode(err, utils.CodeForbidden), "logged-out token cannot refresh")
}

func TestGetAuthorization(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	user := register(t, svc)

	self := models.Actor{ID: user.ID, Role: models.RoleCustomer}
	got, err := svc.Get(ctx, self, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	admin := models.Actor{ID: "root", Role: models.RoleAdmin}
	_, err = svc.Get(ctx, admin, user.ID)
	require.NoError(t, err)

	stranger := models.Actor{ID: "other", Role: models.RoleCustomer}
	_, err = svc.Get(ctx, stranger, user.ID)
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))
}

func TestRegisterDeviceToken(t *testing.T) {
	svc, users, _ := newService(t)
	ctx := context.Background()
	user := register(t, svc)
	actor := models.Actor{ID: user.ID, Role: models.RoleCustomer}

	assert.True(t, utils.IsCode(svc.RegisterDeviceToken(ctx, actor, ""), utils.CodeValidation))

	require.NoError(t, svc.RegisterDeviceToken(ctx, actor, "fcm-abc"))
	require.NoError(t, svc.RegisterDeviceToken(ctx, actor, "fcm-abc"), "re-registering is a no-op")

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"fcm-abc"}, stored.DeviceTokens)
}

func TestMobileVerification(t *testing.T) {
	svc, users, otp := newService(t)
	ctx := context.Background()
	user := register(t, svc)
	actor := models.Actor{ID: user.ID, Role: models.RoleCustomer}

	assert.Equal(t, "+15550001111", otp.sent[user.ID], "signup sends a code")

	err := svc.VerifyMobile(ctx, actor, "000000")
	assert.True(t, utils.IsCode(err, utils.CodeValidation))

	require.NoError(t, svc.VerifyMobile(ctx, actor, "123456"))

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.MobileVerified)

	err = svc.RequestMobileOTP(ctx, actor)
	assert.True(t, utils.IsConflict(err), "already verified")
}
