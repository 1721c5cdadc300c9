package user

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	userRepo "github.com/tilak5758/barber-salon-backend/database/repository/user"
	"github.com/tilak5758/barber-salon-backend/models"
	"github.com/tilak5758/barber-salon-backend/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 30 * 24 * time.Hour
)

// RegisterRequest carries a signup.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Mobile   string `json:"mobile" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest carries a credential login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenPair is the session material returned on login and refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// Service manages accounts and sessions.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req LoginRequest) (*models.User, *TokenPair, error)

	// Refresh rotates a refresh token. Presenting an already-rotated token
	// revokes every session for that user.
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error

	RequestMobileOTP(ctx context.Context, actor models.Actor) error
	VerifyMobile(ctx context.Context, actor models.Actor, code string) error

	Get(ctx context.Context, actor models.Actor, id string) (*models.User, error)
	RegisterDeviceToken(ctx context.Context, actor models.Actor, token string) error
}

// DefaultService implements Service.
type DefaultService struct {
	Users  userRepo.Repository
	Tokens TokenStore
	OTP    OTPSender
	Logger *zap.Logger
}

func NewService(users userRepo.Repository, tokens TokenStore, otp OTPSender, logger *zap.Logger) *DefaultService {
	return &DefaultService{Users: users, Tokens: tokens, OTP: otp, Logger: logger}
}

func (s *DefaultService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, utils.NewInternalError("failed to hash password: %v", err)
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Mobile:       strings.TrimSpace(req.Mobile),
		PasswordHash: string(hash),
		Role:         models.RoleCustomer,
		Status:       models.UserActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Users.Insert(ctx, user); err != nil {
		return nil, err
	}

	// Verification is best effort at signup; the user can re-request a code.
	if err := s.OTP.Initiate(user.ID, user.Mobile); err != nil {
		s.Logger.Warn("failed to send verification code at signup",
			zap.String("userId", user.ID), zap.Error(err))
	}

	s.Logger.Info("user registered", zap.String("userId", user.ID))
	return user, nil
}

func (s *DefaultService) Login(ctx context.Context, req LoginRequest) (*models.User, *TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if utils.IsNotFound(err) {
			return nil, nil, utils.NewForbiddenError("invalid email or password")
		}
		return nil, nil, err
	}

	switch user.Status {
	case models.UserLocked:
		return nil, nil, utils.NewForbiddenError("account is locked after too many failed logins")
	case models.UserDisabled:
		return nil, nil, utils.NewForbiddenError("account is disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		count, ierr := s.Users.IncrementFailedLogins(ctx, user.ID)
		if ierr != nil {
			s.Logger.Warn("failed to record failed login",
				zap.String("userId", user.ID), zap.Error(ierr))
		} else if count >= models.MaxFailedLogins {
			if serr := s.Users.SetStatus(ctx, user.ID, models.UserLocked); serr != nil {
				s.Logger.Warn("failed to lock account",
					zap.String("userId", user.ID), zap.Error(serr))
			} else {
				s.Logger.Info("account locked after repeated failed logins",
					zap.String("userId", user.ID))
			}
		}
		return nil, nil, utils.NewForbiddenError("invalid email or password")
	}

	if user.FailedLogins > 0 {
		if err := s.Users.ResetFailedLogins(ctx, user.ID); err != nil {
			s.Logger.Warn("failed to reset login counter",
				zap.String("userId", user.ID), zap.Error(err))
		}
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *DefaultService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	tokenHash := utils.HashToken(refreshToken)
	userID, reused, err := s.Tokens.Lookup(ctx, tokenHash)
	if err != nil {
		if utils.IsNotFound(err) {
			return nil, utils.NewForbiddenError("session invalid, please log in again")
		}
		return nil, err
	}
	if reused {
		// Replay of a rotated token means it leaked; nothing issued from
		// this user can be trusted anymore.
		s.Logger.Warn("refresh token reuse detected, revoking all sessions",
			zap.String("userId", userID))
		if rerr := s.Tokens.RevokeAll(ctx, userID); rerr != nil {
			s.Logger.Error("failed to revoke sessions after token reuse",
				zap.String("userId", userID), zap.Error(rerr))
		}
		return nil, utils.NewForbiddenError("session invalid, please log in again")
	}

	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status != models.UserActive {
		return nil, utils.NewForbiddenError("account is %s", user.Status)
	}

	if err := s.Tokens.MarkRotated(ctx, userID, tokenHash, refreshTokenTTL); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

func (s *DefaultService) Logout(ctx context.Context, refreshToken string) error {
	tokenHash := utils.HashToken(refreshToken)
	userID, reused, err := s.Tokens.Lookup(ctx, tokenHash)
	if err != nil || reused {
		// Unknown or already-retired token: logout is idempotent.
		return nil
	}
	return s.Tokens.MarkRotated(ctx, userID, tokenHash, refreshTokenTTL)
}

func (s *DefaultService) RequestMobileOTP(ctx context.Context, actor models.Actor) error {
	user, err := s.Users.GetByID(ctx, actor.ID)
	if err != nil {
		return err
	}
	if user.MobileVerified {
		return utils.NewConflictError("mobile number is already verified")
	}
	if err := s.OTP.Initiate(user.ID, user.Mobile); err != nil {
		return utils.NewInternalError("failed to send verification code: %v", err)
	}
	return nil
}

func (s *DefaultService) VerifyMobile(ctx context.Context, actor models.Actor, code string) error {
	if err := s.OTP.Verify(actor.ID, code); err != nil {
		return utils.NewValidationError("invalid or expired verification code")
	}
	return s.Users.SetMobileVerified(ctx, actor.ID)
}

func (s *DefaultService) Get(ctx context.Context, actor models.Actor, id string) (*models.User, error) {
	if id != actor.ID && !actor.IsAdmin() {
		return nil, utils.NewForbiddenError("you can only view your own profile")
	}
	return s.Users.GetByID(ctx, id)
}

func (s *DefaultService) RegisterDeviceToken(ctx context.Context, actor models.Actor, token string) error {
	if token == "" {
		return utils.NewValidationError("device token must not be empty")
	}
	return s.Users.AddDeviceToken(ctx, actor.ID, token)
}

func (s *DefaultService) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, err := utils.GenerateToken(user.ID, user.Role, accessTokenTTL)
	if err != nil {
		return nil, utils.NewInternalError("failed to sign access token: %v", err)
	}

	refresh, err := newOpaqueToken()
	if err != nil {
		return nil, err
	}
	if err := s.Tokens.Save(ctx, user.ID, utils.HashToken(refresh), refreshTokenTTL); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(accessTokenTTL.Seconds()),
	}, nil
}

// newOpaqueToken returns 256 bits of hex. Refresh tokens carry no claims;
// everything about the session lives server side.
func newOpaqueToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", utils.NewInternalError("failed to generate refresh token: %v", err)
	}
	return hex.EncodeToString(buf), nil
}
