package pricing

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmstore-backend/pkg/db/models"
)

// TotalsInput carries everything discount composition depends on.
type TotalsInput struct {
	Subtotal decimal.Decimal
	Coupon   *models.Coupon
	// Authenticated customers with a signup window still open get SignupPercent off.
	Authenticated        bool
	SignupDiscountEndsAt *time.Time
	SignupPercent        decimal.Decimal
	Now                  time.Time
}

type Totals struct {
	Subtotal       decimal.Decimal
	CouponDiscount decimal.Decimal
	SignupDiscount decimal.Decimal
	Discount       decimal.Decimal
	Total          decimal.Decimal
	CouponApplied  bool
	SignupApplied  bool
}

// ComputeTotals adds the coupon discount and the signup discount, each rounded
// to cents on its own, and floors the total at zero.
func ComputeTotals(in TotalsInput) Totals {
	out := Totals{
		Subtotal:       in.Subtotal,
		CouponDiscount: decimal.Zero,
		SignupDiscount: decimal.Zero,
	}

	if in.Coupon != nil && in.Coupon.ValidAt(in.Now) {
		out.CouponApplied = true
		if in.Coupon.PercentOff.IsPositive() {
			out.CouponDiscount = out.CouponDiscount.Add(percentOf(in.Subtotal, in.Coupon.PercentOff))
		}
		if in.Coupon.AmountOff.IsPositive() {
			out.CouponDiscount = out.CouponDiscount.Add(RoundMoney(in.Coupon.AmountOff))
		}
	}

	if SignupDiscountActive(in.Authenticated, in.SignupDiscountEndsAt, in.Now) {
		if in.SignupPercent.IsPositive() {
			out.SignupApplied = true
			out.SignupDiscount = percentOf(in.Subtotal, in.SignupPercent)
		}
	}

	out.Discount = out.CouponDiscount.Add(out.SignupDiscount)
	out.Total = decimal.Max(decimal.Zero, in.Subtotal.Sub(out.Discount))
	return out
}

// SignupDiscountActive is true for a signed-in customer up to and including the
// window end.
func SignupDiscountActive(authenticated bool, endsAt *time.Time, now time.Time) bool {
	return authenticated && endsAt != nil && !now.After(*endsAt)
}

func percentOf(amount, pct decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	return RoundMoney(amount.Mul(pct).Div(hundred))
}

// FormatPercent drops trailing zeros: 10.00 -> "10", 12.50 -> "12.5".
func FormatPercent(pct decimal.Decimal) string {
	if pct.Equal(pct.Truncate(0)) {
		return pct.Truncate(0).String()
	}
	s := pct.String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s
}

// CouponDescription summarises what a coupon takes off, e.g. "10% off + $5.00 off".
func CouponDescription(c models.Coupon) string {
	parts := make([]string, 0, 2)
	if c.PercentOff.IsPositive() {
		parts = append(parts, FormatPercent(c.PercentOff)+"% off")
	}
	if c.AmountOff.IsPositive() {
		parts = append(parts, "$"+c.AmountOff.StringFixed(2)+" off")
	}
	if len(parts) == 0 {
		return "discount"
	}
	return strings.Join(parts, " + ")
}
