package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Favorite links a customer to a product they starred.
type Favorite struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_favorites_user_product,priority:1"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_favorites_user_product,priority:2"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (f *Favorite) BeforeCreate(tx *gorm.DB) error {
	ensureID(&f.ID)
	return nil
}
