package coupons

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/angelmondragon/farmstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/farmstore-backend/pkg/errors"
	"github.com/angelmondragon/farmstore-backend/pkg/pricing"
	"github.com/angelmondragon/farmstore-backend/pkg/sessionstore"
)

const (
	MessageRemoved = "Coupon removed."
	MessageInvalid = "Invalid coupon."
)

// Outcome labels used for metrics and API responses.
const (
	OutcomeApplied  = "applied"
	OutcomeRemoved  = "removed"
	OutcomeNotFound = "not_found"
	OutcomeExpired  = "expired"
	OutcomeInvalid  = "invalid"
)

type couponFinder interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
}

type resultRecorder interface {
	IncCouponResult(result string)
}

// Result describes what applying a code did. The same message is left in the
// session as a one-shot notice.
type Result struct {
	OK      bool   `json:"ok"`
	Outcome string `json:"outcome"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Service applies and resolves the session's single active coupon.
type Service interface {
	Apply(ctx context.Context, sess *sessionstore.Session, code string) (Result, error)
	Active(ctx context.Context, sess *sessionstore.Session) (*models.Coupon, error)
}

// ServiceParams groups dependencies for the coupon service.
type ServiceParams struct {
	Repo          couponFinder
	Metrics       resultRecorder
	MaxCodeLength int
	Now           func() time.Time
}

type service struct {
	repo    couponFinder
	metrics resultRecorder
	maxLen  int
	now     func() time.Time
}

// NewService builds the coupon service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("coupon repo required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:    params.Repo,
		metrics: params.Metrics,
		maxLen:  params.MaxCodeLength,
		now:     now,
	}, nil
}

// Apply normalizes code and makes it the session's active coupon. An empty
// code clears the coupon. Unknown or expired codes clear it too and leave an
// error notice; they are not errors to the caller.
func (s *service) Apply(ctx context.Context, sess *sessionstore.Session, code string) (Result, error) {
	if s.maxLen > 0 && utf8.RuneCountInString(code) > s.maxLen {
		return s.fail(sess, OutcomeInvalid, MessageInvalid, false), nil
	}

	normalized := models.NormalizeCouponCode(code)
	if normalized == "" {
		sess.Set(sessionstore.KeyCouponCode, "")
		sess.Set(sessionstore.KeyCouponSuccess, MessageRemoved)
		s.record(OutcomeRemoved)
		return Result{OK: true, Outcome: OutcomeRemoved, Message: MessageRemoved}, nil
	}

	coupon, err := s.repo.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.fail(sess, OutcomeNotFound, fmt.Sprintf("Coupon %s not found", normalized), true), nil
		}
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	if !coupon.ValidAt(s.now()) {
		return s.fail(sess, OutcomeExpired, fmt.Sprintf("Coupon %s expired", coupon.Code), true), nil
	}

	msg := fmt.Sprintf("Coupon %s has been applied for %s", coupon.Code, pricing.CouponDescription(*coupon))
	sess.Set(sessionstore.KeyCouponCode, coupon.Code)
	sess.Set(sessionstore.KeyCouponSuccess, msg)
	s.record(OutcomeApplied)
	return Result{OK: true, Outcome: OutcomeApplied, Code: coupon.Code, Message: msg}, nil
}

func (s *service) fail(sess *sessionstore.Session, outcome, msg string, clear bool) Result {
	if clear {
		sess.Set(sessionstore.KeyCouponCode, "")
	}
	sess.Set(sessionstore.KeyCouponError, msg)
	s.record(outcome)
	return Result{OK: false, Outcome: outcome, Message: msg}
}

func (s *service) record(outcome string) {
	if s.metrics != nil {
		s.metrics.IncCouponResult(outcome)
	}
}

// Active returns the coupon referenced by the session, or nil when none is
// set or the code no longer exists. Validity is left to discount composition.
func (s *service) Active(ctx context.Context, sess *sessionstore.Session) (*models.Coupon, error) {
	code := sess.String(sessionstore.KeyCouponCode)
	if code == "" {
		return nil, nil
	}
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active coupon")
	}
	return coupon, nil
}
