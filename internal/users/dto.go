package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/farmstore-backend/pkg/db/models"
)

// CreateUserDTO carries the fields needed to insert an account.
type CreateUserDTO struct {
	Email                string
	PasswordHash         string
	Phone                *string
	SignupDiscountEndsAt *time.Time
}

// ToModel converts the DTO into a models.User. The email is stored lower-case.
func (dto CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Email:                NormalizeEmail(dto.Email),
		PasswordHash:         dto.PasswordHash,
		Phone:                dto.Phone,
		IsActive:             true,
		SignupDiscountEndsAt: dto.SignupDiscountEndsAt,
	}
}

// UserDTO is the public view of an account.
type UserDTO struct {
	ID                   uuid.UUID  `json:"id"`
	Email                string     `json:"email"`
	Phone                string     `json:"phone,omitempty"`
	SignupDiscountEndsAt *time.Time `json:"signup_discount_ends_at,omitempty"`
	LastLoginAt          *time.Time `json:"last_login_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

// FromModel maps a models.User to its public view.
func FromModel(u *models.User) UserDTO {
	if u == nil {
		return UserDTO{}
	}
	dto := UserDTO{
		ID:                   u.ID,
		Email:                u.Email,
		SignupDiscountEndsAt: u.SignupDiscountEndsAt,
		LastLoginAt:          u.LastLoginAt,
		CreatedAt:            u.CreatedAt,
	}
	if u.Phone != nil {
		dto.Phone = *u.Phone
	}
	return dto
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
