package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Rating is one customer's star review of a product.
type Rating struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_ratings_product_user,priority:1"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_ratings_product_user,priority:2"`
	User      *User     `gorm:"foreignKey:UserID"`
	Stars     int       `gorm:"column:stars;not null"`
	Text      string    `gorm:"column:text;not null;default:''"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Rating) BeforeCreate(tx *gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
