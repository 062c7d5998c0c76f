package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/farmstore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/farmstore-backend/pkg/db/models"
	"github.com/angelmondragon/farmstore-backend/pkg/sessionstore"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type recorder struct {
	results []string
}

func (r *recorder) IncCouponResult(result string) {
	r.results = append(r.results, result)
}

func setupService(t *testing.T) (Service, *Repository, *recorder) {
	t.Helper()
	repo := NewRepository(dbtest.Open(t))
	rec := &recorder{}
	svc, err := NewService(ServiceParams{Repo: repo, Metrics: rec, MaxCodeLength: 8, Now: func() time.Time { return now }})
	require.NoError(t, err)
	return svc, repo, rec
}

func mustCreateCoupon(t *testing.T, repo *Repository, coupon models.Coupon) *models.Coupon {
	t.Helper()
	created, err := repo.Create(context.Background(), &coupon)
	require.NoError(t, err)
	return created
}

func TestApplyIsCaseInsensitive(t *testing.T) {
	svc, repo, rec := setupService(t)
	mustCreateCoupon(t, repo, models.Coupon{Code: "SAVE10", PercentOff: decimal.NewFromInt(10), Active: true})
	sess := sessionstore.New("")

	res, err := svc.Apply(context.Background(), sess, "  save10 ")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, "SAVE10", sess.String(sessionstore.KeyCouponCode))
	assert.Equal(t, "Coupon SAVE10 has been applied for 10% off", sess.String(sessionstore.KeyCouponSuccess))
	assert.Equal(t, []string{OutcomeApplied}, rec.results)
}

func TestApplyDescribesCombinedDiscount(t *testing.T) {
	svc, repo, _ := setupService(t)
	mustCreateCoupon(t, repo, models.Coupon{
		Code:       "combo",
		PercentOff: decimal.RequireFromString("12.50"),
		AmountOff:  decimal.NewFromInt(5),
		Active:     true,
	})

	res, err := svc.Apply(context.Background(), sessionstore.New(""), "COMBO")
	require.NoError(t, err)
	assert.Equal(t, "Coupon COMBO has been applied for 12.5% off + $5.00 off", res.Message)
}

func TestApplyEmptyCodeClearsCoupon(t *testing.T) {
	svc, _, _ := setupService(t)
	sess := sessionstore.New("")
	sess.Set(sessionstore.KeyCouponCode, "SAVE10")

	res, err := svc.Apply(context.Background(), sess, "   ")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, MessageRemoved, res.Message)
	assert.Empty(t, sess.String(sessionstore.KeyCouponCode))
	assert.Equal(t, MessageRemoved, sess.String(sessionstore.KeyCouponSuccess))
}

func TestApplyUnknownCodeClearsPrevious(t *testing.T) {
	svc, repo, _ := setupService(t)
	mustCreateCoupon(t, repo, models.Coupon{Code: "TEN", PercentOff: decimal.NewFromInt(10), Active: true})
	sess := sessionstore.New("")

	_, err := svc.Apply(context.Background(), sess, "ten")
	require.NoError(t, err)
	require.Equal(t, "TEN", sess.String(sessionstore.KeyCouponCode))

	res, err := svc.Apply(context.Background(), sess, "nope")
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, OutcomeNotFound, res.Outcome)
	assert.Equal(t, "Coupon NOPE not found", sess.String(sessionstore.KeyCouponError))
	assert.Empty(t, sess.String(sessionstore.KeyCouponCode))
}

func TestApplyExpiredAndInactive(t *testing.T) {
	svc, repo, rec := setupService(t)
	ended := now.Add(-time.Hour)
	mustCreateCoupon(t, repo, models.Coupon{Code: "OLD", AmountOff: decimal.NewFromInt(1), Active: true, EndAt: &ended})
	mustCreateCoupon(t, repo, models.Coupon{Code: "OFF", AmountOff: decimal.NewFromInt(1), Active: false})
	sess := sessionstore.New("")

	res, err := svc.Apply(context.Background(), sess, "old")
	require.NoError(t, err)
	assert.Equal(t, OutcomeExpired, res.Outcome)
	assert.Equal(t, "Coupon OLD expired", res.Message)

	res, err = svc.Apply(context.Background(), sess, "off")
	require.NoError(t, err)
	assert.Equal(t, OutcomeExpired, res.Outcome)
	assert.Empty(t, sess.String(sessionstore.KeyCouponCode))
	assert.Equal(t, []string{OutcomeExpired, OutcomeExpired}, rec.results)
}

func TestApplyTooLongCodeKeepsCurrentCoupon(t *testing.T) {
	svc, _, _ := setupService(t)
	sess := sessionstore.New("")
	sess.Set(sessionstore.KeyCouponCode, "TEN")

	res, err := svc.Apply(context.Background(), sess, "WAYTOOLONGCODE")
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, MessageInvalid, sess.String(sessionstore.KeyCouponError))
	assert.Equal(t, "TEN", sess.String(sessionstore.KeyCouponCode))
}

func TestApplyReplacesNotStacks(t *testing.T) {
	svc, repo, _ := setupService(t)
	mustCreateCoupon(t, repo, models.Coupon{Code: "A", PercentOff: decimal.NewFromInt(5), Active: true})
	mustCreateCoupon(t, repo, models.Coupon{Code: "B", AmountOff: decimal.NewFromInt(2), Active: true})
	sess := sessionstore.New("")

	_, err := svc.Apply(context.Background(), sess, "a")
	require.NoError(t, err)
	_, err = svc.Apply(context.Background(), sess, "b")
	require.NoError(t, err)

	active, err := svc.Active(context.Background(), sess)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "B", active.Code)
}

func TestActive(t *testing.T) {
	svc, _, _ := setupService(t)
	sess := sessionstore.New("")

	active, err := svc.Active(context.Background(), sess)
	require.NoError(t, err)
	assert.Nil(t, active)

	sess.Set(sessionstore.KeyCouponCode, "GONE")
	active, err = svc.Active(context.Background(), sess)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestNewServiceRequiresRepo(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}
