package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmstore-backend/pkg/db/models"
	"github.com/angelmondragon/farmstore-backend/pkg/enums"
	"github.com/angelmondragon/farmstore-backend/pkg/pricing"
)

// QuoteLine is one priced cart line.
type QuoteLine struct {
	ProductID uuid.UUID         `json:"product_id"`
	Name      string            `json:"name"`
	Slug      string            `json:"slug"`
	Unit      enums.ProductUnit `json:"unit"`
	Qty       decimal.Decimal   `json:"qty"`
	UnitPrice decimal.Decimal   `json:"unit_price"`
	ListPrice decimal.Decimal   `json:"list_price"`
	OnSale    bool              `json:"on_sale"`
	LineTotal decimal.Decimal   `json:"line_total"`
	Remaining string            `json:"remaining"`
}

// Quote is a fully priced cart.
type Quote struct {
	Lines             []QuoteLine     `json:"lines"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	CouponDiscount    decimal.Decimal `json:"coupon_discount"`
	SignupDiscount    decimal.Decimal `json:"signup_discount"`
	Discount          decimal.Decimal `json:"discount"`
	Total             decimal.Decimal `json:"total"`
	CouponCode        string          `json:"coupon_code,omitempty"`
	CouponDescription string          `json:"coupon_desc,omitempty"`
	SignupApplied     bool            `json:"signup_applied"`
	ItemTotal         decimal.Decimal `json:"cart_item_total"`
	CouponError       string          `json:"coupon_error,omitempty"`
	CouponSuccess     string          `json:"coupon_success,omitempty"`
}

func newQuote(lines []pricing.Line, totals pricing.Totals, coupon *models.Coupon, itemTotal decimal.Decimal) *Quote {
	q := &Quote{
		Lines:          make([]QuoteLine, 0, len(lines)),
		Subtotal:       totals.Subtotal,
		CouponDiscount: totals.CouponDiscount,
		SignupDiscount: totals.SignupDiscount,
		Discount:       totals.Discount,
		Total:          totals.Total,
		SignupApplied:  totals.SignupApplied,
		ItemTotal:      itemTotal,
	}
	if totals.CouponApplied && coupon != nil {
		q.CouponCode = coupon.Code
		q.CouponDescription = pricing.CouponDescription(*coupon)
	}
	for _, line := range lines {
		q.Lines = append(q.Lines, QuoteLine{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Slug:      line.Product.Slug,
			Unit:      line.Product.Unit,
			Qty:       line.Qty,
			UnitPrice: line.UnitPrice,
			ListPrice: line.Product.Price,
			OnSale:    pricing.OnSale(line.Product),
			LineTotal: line.LineTotal,
			Remaining: pricing.FormatQuantity(line.Product, line.Remaining),
		})
	}
	return q
}

// Empty reports whether the quote has no lines.
func (q *Quote) Empty() bool {
	return len(q.Lines) == 0
}
