package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmstore-backend/pkg/enums"
)

// Order is the immutable record of one checkout.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID        *uuid.UUID          `gorm:"column:user_id;type:uuid;index:orders_user_id_idx"`
	Email         string              `gorm:"column:email;not null"`
	Phone         string              `gorm:"column:phone;not null;default:''"`
	CouponID      *uuid.UUID          `gorm:"column:coupon_id;type:uuid"`
	CouponCode    string              `gorm:"column:coupon_code;not null;default:''"`
	Subtotal      decimal.Decimal     `gorm:"column:subtotal;type:numeric(10,2);not null"`
	DiscountTotal decimal.Decimal     `gorm:"column:discount_total;type:numeric(10,2);not null"`
	Total         decimal.Decimal     `gorm:"column:total;type:numeric(10,2);not null"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	Items         []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// Number is the short customer-facing order reference.
func (o Order) Number() string {
	return strings.ToUpper(strings.ReplaceAll(o.ID.String(), "-", "")[:8])
}

// OrderItem snapshots one cart line at the price charged.
type OrderItem struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index:order_items_order_id_idx"`
	ProductID   uuid.UUID         `gorm:"column:product_id;type:uuid;not null;index:order_items_product_id_idx"`
	ProductName string            `gorm:"column:product_name;not null"`
	Qty         decimal.Decimal   `gorm:"column:qty;type:numeric(10,3);not null"`
	Unit        enums.ProductUnit `gorm:"column:unit;type:text;not null"`
	UnitPrice   decimal.Decimal   `gorm:"column:unit_price;type:numeric(7,2);not null"`
	LineTotal   decimal.Decimal   `gorm:"column:line_total;type:numeric(10,2);not null"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
