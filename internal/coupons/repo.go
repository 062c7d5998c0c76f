package coupons

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/farmstore-backend/pkg/db/models"
)

// Repository persists coupons.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a coupon repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByCode matches case-insensitively. Codes are stored upper-case, so the
// lookup normalizes the input instead of lowering the column.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ?", models.NormalizeCouponCode(code)).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// Create inserts a coupon with its code normalized.
func (r *Repository) Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error) {
	coupon.Code = models.NormalizeCouponCode(coupon.Code)
	if err := r.db.WithContext(ctx).Create(coupon).Error; err != nil {
		return nil, err
	}
	return coupon, nil
}
