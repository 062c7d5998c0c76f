package accounts

import "github.com/angelmondragon/farmstore-backend/internal/users"

// SignupRequest is the account creation form.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest holds credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileUpdate is the editable part of an account.
type ProfileUpdate struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	AccessToken string        `json:"access_token"`
	User        users.UserDTO `json:"user"`
	Message     string        `json:"message,omitempty"`
}
