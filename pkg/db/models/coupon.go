package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Coupon is a store-wide discount code.
type Coupon struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Code       string          `gorm:"column:code;not null;uniqueIndex:ux_coupons_code"`
	PercentOff decimal.Decimal `gorm:"column:percent_off;type:numeric(5,2);not null;default:0"`
	AmountOff  decimal.Decimal `gorm:"column:amount_off;type:numeric(9,2);not null;default:0"`
	StartAt    *time.Time      `gorm:"column:start_at"`
	EndAt      *time.Time      `gorm:"column:end_at"`
	Active     bool            `gorm:"column:active;not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// NormalizeCouponCode trims and upper-cases a code the way it is stored.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (c *Coupon) BeforeSave(tx *gorm.DB) error {
	c.Code = NormalizeCouponCode(c.Code)
	return nil
}

func (c *Coupon) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// ValidAt reports whether the coupon is active and now falls inside its
// window. A missing bound is open on that side.
func (c Coupon) ValidAt(now time.Time) bool {
	if !c.Active {
		return false
	}
	if c.StartAt != nil && now.Before(*c.StartAt) {
		return false
	}
	if c.EndAt != nil && now.After(*c.EndAt) {
		return false
	}
	return true
}
