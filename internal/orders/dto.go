package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmstore-backend/pkg/db/models"
	"github.com/angelmondragon/farmstore-backend/pkg/enums"
	"github.com/angelmondragon/farmstore-backend/pkg/pricing"
)

// OrderItemDTO is one purchased line at the price charged.
type OrderItemDTO struct {
	ProductID uuid.UUID         `json:"product_id"`
	Name      string            `json:"name"`
	Qty       string            `json:"qty"`
	Unit      enums.ProductUnit `json:"unit"`
	UnitPrice decimal.Decimal   `json:"unit_price"`
	LineTotal decimal.Decimal   `json:"line_total"`
}

// OrderSummary is a row in the customer's order history.
type OrderSummary struct {
	ID            uuid.UUID           `json:"id"`
	Number        string              `json:"number"`
	CreatedAt     time.Time           `json:"created_at"`
	ItemCount     int                 `json:"item_count"`
	Total         decimal.Decimal     `json:"total"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
}

// OrderList is one page of order history.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor"`
}

// OrderDetail is the full receipt.
type OrderDetail struct {
	ID            uuid.UUID           `json:"id"`
	Number        string              `json:"number"`
	CreatedAt     time.Time           `json:"created_at"`
	Email         string              `json:"email"`
	Phone         string              `json:"phone,omitempty"`
	CouponCode    string              `json:"coupon_code,omitempty"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	Discount      decimal.Decimal     `json:"discount"`
	Total         decimal.Decimal     `json:"total"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	Items         []OrderItemDTO      `json:"items"`
}

// Confirmation is what the thank-you page may show without a login.
type Confirmation struct {
	ID            uuid.UUID           `json:"id"`
	Number        string              `json:"number"`
	Total         decimal.Decimal     `json:"total"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
}

func toSummary(o models.Order) OrderSummary {
	return OrderSummary{
		ID:            o.ID,
		Number:        o.Number(),
		CreatedAt:     o.CreatedAt,
		ItemCount:     len(o.Items),
		Total:         o.Total,
		PaymentMethod: o.PaymentMethod,
	}
}

// ToDetail maps a stored order to its receipt.
func ToDetail(o models.Order) OrderDetail {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemDTO{
			ProductID: item.ProductID,
			Name:      item.ProductName,
			Qty:       pricing.FormatQuantity(models.Product{Unit: item.Unit}, item.Qty),
			Unit:      item.Unit,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		})
	}
	return OrderDetail{
		ID:            o.ID,
		Number:        o.Number(),
		CreatedAt:     o.CreatedAt,
		Email:         o.Email,
		Phone:         o.Phone,
		CouponCode:    o.CouponCode,
		Subtotal:      o.Subtotal,
		Discount:      o.DiscountTotal,
		Total:         o.Total,
		PaymentMethod: o.PaymentMethod,
		Items:         items,
	}
}
