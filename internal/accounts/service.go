package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmstore-backend/internal/cart"
	"github.com/angelmondragon/farmstore-backend/internal/users"
	pkgauth "github.com/angelmondragon/farmstore-backend/pkg/auth"
	"github.com/angelmondragon/farmstore-backend/pkg/config"
	"github.com/angelmondragon/farmstore-backend/pkg/db"
	"github.com/angelmondragon/farmstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/farmstore-backend/pkg/errors"
	"github.com/angelmondragon/farmstore-backend/pkg/pricing"
	"github.com/angelmondragon/farmstore-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, email string, phone *string) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sessionManager interface {
	Open(ctx context.Context, userID uuid.UUID) (string, error)
	Revoke(ctx context.Context, accessID string) error
}

// Service covers signup, login and the customer's own profile.
type Service interface {
	Signup(ctx context.Context, req SignupRequest) (*AuthResult, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResult, error)
	Logout(ctx context.Context, accessID string) error
	Profile(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req ProfileUpdate) (*users.UserDTO, error)
	Customer(ctx context.Context, userID uuid.UUID) (cart.Customer, error)
}

// ServiceParams bundles the dependencies required to build the accounts service.
type ServiceParams struct {
	Users          userRepository
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	StoreConfig    config.StoreConfig
	Now            func() time.Time
}

type service struct {
	users    userRepository
	sessions sessionManager
	jwtCfg   config.JWTConfig
	pwCfg    config.PasswordConfig
	storeCfg config.StoreConfig
	now      func() time.Time
}

// NewService constructs the accounts service.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		users:    params.Users,
		sessions: params.SessionManager,
		jwtCfg:   params.JWTConfig,
		pwCfg:    params.PasswordConfig,
		storeCfg: params.StoreConfig,
		now:      now,
	}, nil
}

// Signup creates the account, opens the new-customer discount window and
// signs the customer in.
func (s *service) Signup(ctx context.Context, req SignupRequest) (*AuthResult, error) {
	email := users.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if err := security.ValidatePassword(req.Password); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid password").
			WithDetails(map[string]string{"password": err.Error()})
	}
	hash, err := security.HashPassword(req.Password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	now := s.now().UTC()
	dto := users.CreateUserDTO{Email: email, PasswordHash: hash, Phone: optional(req.Phone)}
	if window := s.storeCfg.SignupDiscountWindow(); window > 0 && s.storeCfg.SignupDiscountPercent > 0 {
		ends := now.Add(window)
		dto.SignupDiscountEndsAt = &ends
	}

	user, err := s.users.Create(ctx, dto)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	result, err := s.issue(ctx, user, now)
	if err != nil {
		return nil, err
	}
	if user.SignupDiscountEndsAt != nil {
		result.Message = fmt.Sprintf("Welcome! Your %s%% new-customer discount is active for %d days.",
			pricing.FormatPercent(decimal.NewFromFloat(s.storeCfg.SignupDiscountPercent)), s.storeCfg.SignupDiscountDays)
	}
	return result, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now
	return s.issue(ctx, user, now)
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return nil
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := users.FromModel(user)
	return &dto, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, req ProfileUpdate) (*users.UserDTO, error) {
	email := users.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if _, err := s.load(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.users.UpdateProfile(ctx, userID, email, optional(req.Phone)); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
	}
	return s.Profile(ctx, userID)
}

// Customer builds the pricing view of a signed-in account.
func (s *service) Customer(ctx context.Context, userID uuid.UUID) (cart.Customer, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return cart.Customer{}, err
	}
	id := user.ID
	customer := cart.Customer{UserID: &id, Email: user.Email, SignupDiscountEndsAt: user.SignupDiscountEndsAt}
	if user.Phone != nil {
		customer.Phone = *user.Phone
	}
	return customer, nil
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	input := strings.TrimSpace(email)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

func (s *service) issue(ctx context.Context, user *models.User, now time.Time) (*AuthResult, error) {
	accessID, err := s.sessions.Open(ctx, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open session")
	}
	token, err := pkgauth.MintAccessToken(s.jwtCfg, now, pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &AuthResult{AccessToken: token, User: users.FromModel(user)}, nil
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
