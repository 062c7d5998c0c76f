package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a registered customer account.
type User struct {
	ID                   uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Email                string     `gorm:"column:email;type:text;not null;uniqueIndex:ux_users_email"`
	PasswordHash         string     `gorm:"column:password_hash;not null"`
	Phone                *string    `gorm:"column:phone"`
	IsActive             bool       `gorm:"column:is_active;not null;default:true"`
	LastLoginAt          *time.Time `gorm:"column:last_login_at"`
	SignupDiscountEndsAt *time.Time `gorm:"column:signup_discount_ends_at"`
	CreatedAt            time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
