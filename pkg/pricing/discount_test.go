package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmstore-backend/pkg/db/models"
)

var now = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

func TestComputeTotals_PercentCoupon(t *testing.T) {
	coupon := &models.Coupon{Code: "TEN", PercentOff: d("10"), Active: true}
	totals := ComputeTotals(TotalsInput{Subtotal: d("10.00"), Coupon: coupon, Now: now})

	assertDecimal(t, "discount", totals.Discount, "1.00")
	assertDecimal(t, "total", totals.Total, "9.00")
	if !totals.CouponApplied || totals.SignupApplied {
		t.Fatalf("unexpected flags %+v", totals)
	}
}

func TestComputeTotals_AmountExceedsSubtotal(t *testing.T) {
	coupon := &models.Coupon{Code: "SAVE5", AmountOff: d("5.00"), Active: true}
	totals := ComputeTotals(TotalsInput{Subtotal: d("3.00"), Coupon: coupon, Now: now})

	assertDecimal(t, "discount", totals.Discount, "5.00")
	assertDecimal(t, "total", totals.Total, "0")
}

func TestComputeTotals_PercentAndAmountStack(t *testing.T) {
	coupon := &models.Coupon{Code: "BOTH", PercentOff: d("12.5"), AmountOff: d("1"), Active: true}
	totals := ComputeTotals(TotalsInput{Subtotal: d("20.00"), Coupon: coupon, Now: now})

	assertDecimal(t, "coupon discount", totals.CouponDiscount, "3.50")
	assertDecimal(t, "total", totals.Total, "16.50")
}

func TestComputeTotals_InvalidCouponIgnored(t *testing.T) {
	ended := now.Add(-time.Minute)
	coupon := &models.Coupon{Code: "OLD", PercentOff: d("50"), Active: true, EndAt: &ended}
	totals := ComputeTotals(TotalsInput{Subtotal: d("10.00"), Coupon: coupon, Now: now})

	assertDecimal(t, "discount", totals.Discount, "0")
	assertDecimal(t, "total", totals.Total, "10.00")
	if totals.CouponApplied {
		t.Fatal("expired coupon should not apply")
	}
}

func TestComputeTotals_SignupDiscountRoundedSeparately(t *testing.T) {
	ends := now.Add(24 * time.Hour)
	coupon := &models.Coupon{Code: "TEN", PercentOff: d("10"), Active: true}
	totals := ComputeTotals(TotalsInput{
		Subtotal:             d("10.05"),
		Coupon:               coupon,
		Authenticated:        true,
		SignupDiscountEndsAt: &ends,
		SignupPercent:        d("10"),
		Now:                  now,
	})

	// 1.005 rounds to 1.01 on each side.
	assertDecimal(t, "coupon", totals.CouponDiscount, "1.01")
	assertDecimal(t, "signup", totals.SignupDiscount, "1.01")
	assertDecimal(t, "discount", totals.Discount, "2.02")
	assertDecimal(t, "total", totals.Total, "8.03")
}

func TestComputeTotals_SignupDiscountRequiresAuthAndWindow(t *testing.T) {
	ends := now.Add(-time.Second)
	open := now

	cases := []struct {
		name   string
		auth   bool
		endsAt *time.Time
		want   bool
	}{
		{"anonymous", false, &open, false},
		{"no window", true, nil, false},
		{"window closed", true, &ends, false},
		{"window ends now", true, &open, true},
	}
	for _, tc := range cases {
		totals := ComputeTotals(TotalsInput{
			Subtotal:             d("20"),
			Authenticated:        tc.auth,
			SignupDiscountEndsAt: tc.endsAt,
			SignupPercent:        d("10"),
			Now:                  now,
		})
		if totals.SignupApplied != tc.want {
			t.Fatalf("%s: SignupApplied = %v, want %v", tc.name, totals.SignupApplied, tc.want)
		}
	}
}

func TestComputeTotals_NeverNegative(t *testing.T) {
	ends := now.Add(time.Hour)
	for _, subtotal := range []string{"0", "0.01", "1", "4.99", "100"} {
		coupon := &models.Coupon{PercentOff: d("100"), AmountOff: d("10"), Active: true}
		totals := ComputeTotals(TotalsInput{
			Subtotal:             d(subtotal),
			Coupon:               coupon,
			Authenticated:        true,
			SignupDiscountEndsAt: &ends,
			SignupPercent:        d("10"),
			Now:                  now,
		})
		if totals.Discount.IsNegative() {
			t.Fatalf("subtotal %s: negative discount %s", subtotal, totals.Discount)
		}
		if totals.Total.IsNegative() {
			t.Fatalf("subtotal %s: negative total %s", subtotal, totals.Total)
		}
		want := decimal.Max(decimal.Zero, d(subtotal).Sub(totals.Discount))
		if !totals.Total.Equal(want) {
			t.Fatalf("subtotal %s: total %s, want %s", subtotal, totals.Total, want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	cases := map[string]string{
		"10":    "10",
		"10.00": "10",
		"12.50": "12.5",
		"7.25":  "7.25",
	}
	for in, want := range cases {
		if got := FormatPercent(d(in)); got != want {
			t.Fatalf("FormatPercent(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestCouponDescription(t *testing.T) {
	cases := []struct {
		coupon models.Coupon
		want   string
	}{
		{models.Coupon{PercentOff: d("10.00")}, "10% off"},
		{models.Coupon{AmountOff: d("5")}, "$5.00 off"},
		{models.Coupon{PercentOff: d("12.5"), AmountOff: d("2.5")}, "12.5% off + $2.50 off"},
		{models.Coupon{}, "discount"},
	}
	for _, tc := range cases {
		if got := CouponDescription(tc.coupon); got != tc.want {
			t.Fatalf("CouponDescription = %q, want %q", got, tc.want)
		}
	}
}
